package ui

import (
	"strings"
	"testing"

	"github.com/0xlemi/notetrainer/internal/game"
	"github.com/0xlemi/notetrainer/internal/pitch"
	tea "github.com/charmbracelet/bubbletea"
)

func TestModelKeysSendCommands(t *testing.T) {
	var sent []game.Command
	m := NewModel(func(c game.Command) bool {
		sent = append(sent, c)
		return true
	})

	for _, key := range []string{"n", "r", "+", "-", "]", "["} {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		m = next.(Model)
	}

	want := []game.Command{
		game.SkipRound{},
		game.ResetScore{},
		game.AdjustTolerance{Delta: 5},
		game.AdjustTolerance{Delta: -5},
		game.AdjustReference{Delta: 1},
		game.AdjustReference{Delta: -1},
	}
	if len(sent) != len(want) {
		t.Fatalf("Expected %d commands, got %d", len(want), len(sent))
	}
	for i := range want {
		if sent[i] != want[i] {
			t.Errorf("Command %d: expected %#v, got %#v", i, want[i], sent[i])
		}
	}
}

func TestModelQuit(t *testing.T) {
	m := NewModel(nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestModelView(t *testing.T) {
	m := NewModel(nil)
	if !strings.Contains(m.View(), "Starting audio") {
		t.Error("Expected placeholder before the first update")
	}

	note := pitch.FromFrequency(277.18, pitch.DefaultReference)
	next, _ := m.Update(UpdateMsg{
		Target:        game.Target{PitchClass: "Db", String: game.StringHighE},
		RoundSettings: game.DefaultSettings(),
		Settings:      game.DefaultSettings(),
		Score:         3,
		Notice:        "score reset",
		Result: game.Result{
			Detected:     true,
			Note:         note,
			Smoothed:     note,
			Status:       game.StatusCorrect,
			HoldState:    game.Holding,
			HoldProgress: 0.5,
		},
	})
	view := next.(Model).View()

	for _, want := range []string{
		"Play C# / Db on the high E string",
		"C# / Db | Frequency: 277.18 Hz",
		"correct",
		"hold it steady",
		"[" + strings.Repeat("#", 15) + strings.Repeat(".", 15) + "]",
		"Score: 3",
		"score reset",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q:\n%s", want, view)
		}
	}
}

func TestModelViewUsesRoundSettings(t *testing.T) {
	round := game.DefaultSettings()
	round.ToleranceCents = 20
	pending := round
	pending.ToleranceCents = 25

	note := pitch.FromFrequency(445, pitch.DefaultReference)
	next, _ := NewModel(nil).Update(UpdateMsg{
		Target:        game.Target{PitchClass: "A", String: game.StringA},
		RoundSettings: round,
		Settings:      pending,
		Result: game.Result{
			Detected: true,
			Note:     note,
			Smoothed: note,
			Status:   game.StatusCorrect,
		},
	})
	view := next.(Model).View()

	if !strings.Contains(view, centsMeter(note.Cents, 20)) {
		t.Errorf("Expected the meter drawn with the round tolerance:\n%s", view)
	}
	if strings.Contains(view, centsMeter(note.Cents, 25)) {
		t.Errorf("Meter drawn with the pending tolerance:\n%s", view)
	}
	if !strings.Contains(view, "Tolerance: ±20 cents") || !strings.Contains(view, "Next round: ±25 cents") {
		t.Errorf("Expected current and pending tolerance:\n%s", view)
	}
}

func TestCentsMeter(t *testing.T) {
	m := centsMeter(0, 25)
	bar := strings.TrimSuffix(strings.TrimPrefix(m, "-50 "), " +50")
	if len(bar) != meterWidth {
		t.Fatalf("Expected %d cells, got %d", meterWidth, len(bar))
	}
	if bar[meterWidth/2] != '|' {
		t.Errorf("Expected centered marker: %s", bar)
	}
	if bar[0] != '-' || bar[meterWidth/2-1] != '=' {
		t.Errorf("Expected tolerance band around center: %s", bar)
	}

	if bar := centsMeter(50, 10); !strings.HasSuffix(bar, "| +50") {
		t.Errorf("Expected marker at the right edge: %s", bar)
	}
}

func TestGetPrevNote(t *testing.T) {
	for _, n := range []string{"C", "D", "E", "F", "G", "A", "B"} {
		if got := getPrevNote(getNextNote(n)); got != n {
			t.Errorf("getPrevNote(getNextNote(%s)) = %s", n, got)
		}
	}
}
