package ui

import (
	"fmt"
	"strings"

	"github.com/0xlemi/notetrainer/internal/game"
	"github.com/0xlemi/notetrainer/internal/pitch"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	holdBarWidth = 30
	meterWidth   = 41 // Cells from -50 to +50 cents
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CCCCCC"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	statusStyles = map[game.Status]lipgloss.Style{
		game.StatusCorrect:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF00")),
		game.StatusPartial:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFA500")),
		game.StatusIncorrect: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000")),
	}

	// Note colors
	noteColors = map[string]string{
		"C": "#E8D6B0", // Beige
		"D": "#A020F0", // Purple
		"E": "#FFFF00", // Yellow
		"F": "#FFA500", // Orange
		"G": "#00FF00", // Green
		"A": "#FF0000", // Red
		"B": "#0000FF", // Blue
	}
)

// Returns a style for a natural note
func getNoteStyle(noteName string) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(lipgloss.Color(noteColors[noteName])).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		Padding(1, 3)
}

// Get the next note in the scale (for sharp note colors)
func getNextNote(note string) string {
	switch note {
	case "C":
		return "D"
	case "D":
		return "E"
	case "E":
		return "F"
	case "F":
		return "G"
	case "G":
		return "A"
	case "A":
		return "B"
	case "B":
		return "C"
	default:
		return "C"
	}
}

// Get the previous note in the scale (for flat note colors)
func getPrevNote(note string) string {
	for _, n := range []string{"C", "D", "E", "F", "G", "A", "B"} {
		if getNextNote(n) == note {
			return n
		}
	}
	return "B"
}

// renderNote draws a pitch class (plus an optional suffix such as the
// octave) as a colored block. Accidentals are split between the colors of
// the two neighbouring naturals.
func renderNote(name, suffix string) string {
	if len(name) < 2 {
		return getNoteStyle(name).Render(name + suffix)
	}

	base := string(name[0])
	left, right := base, getNextNote(base)
	if name[1] == 'b' {
		left, right = getPrevNote(base), base
	}

	half := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#333333")).
		BorderTop(true).
		BorderBottom(true).
		PaddingTop(1).
		PaddingBottom(1)

	leftStyle := half.
		Background(lipgloss.Color(noteColors[left])).
		BorderLeft(true).
		BorderRight(false).
		PaddingLeft(3).
		PaddingRight(0)
	rightStyle := half.
		Background(lipgloss.Color(noteColors[right])).
		BorderLeft(false).
		BorderRight(true).
		PaddingLeft(0).
		PaddingRight(3)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		leftStyle.Render(base),
		rightStyle.Render(name[1:]+suffix),
	)
}

// centsMeter draws a -50..+50 cents scale with the tolerance band and a
// marker at the current offset.
func centsMeter(cents, tolerance int) string {
	half := meterWidth / 2
	pos := half + cents*half/50
	pos = max(0, min(meterWidth-1, pos))
	band := tolerance * half / 50

	var b strings.Builder
	for i := 0; i < meterWidth; i++ {
		switch {
		case i == pos:
			b.WriteRune('|')
		case i >= half-band && i <= half+band:
			b.WriteRune('=')
		default:
			b.WriteRune('-')
		}
	}
	return "-50 " + b.String() + " +50"
}

func holdBar(progress float64) string {
	filled := int(progress * holdBarWidth)
	filled = max(0, min(holdBarWidth, filled))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", holdBarWidth-filled) + "]"
}

// UpdateMsg carries the loop's latest update.
type UpdateMsg game.Update

// Model represents the UI state
type Model struct {
	update *game.Update
	send   func(game.Command) bool
	width  int
	height int
}

// NewModel creates a UI model. send delivers key commands to the game
// loop and may be nil.
func NewModel(send func(game.Command) bool) Model {
	if send == nil {
		send = func(game.Command) bool { return false }
	}
	return Model{send: send}
}

// Init initializes the UI model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update updates the UI model based on messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "n":
			m.send(game.SkipRound{})
		case "r":
			m.send(game.ResetScore{})
		case "+", "=":
			m.send(game.AdjustTolerance{Delta: 5})
		case "-":
			m.send(game.AdjustTolerance{Delta: -5})
		case "]":
			m.send(game.AdjustReference{Delta: 1})
		case "[":
			m.send(game.AdjustReference{Delta: -1})
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case UpdateMsg:
		u := game.Update(msg)
		m.update = &u
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	s := titleStyle.Render("NoteTrainer - Find the note on the fretboard")
	s += "\n"

	if m.update == nil {
		s += infoStyle.Render("Starting audio...")
		return s + "\n\n" + infoStyle.Render("Press q to quit")
	}
	u := m.update
	res := u.Result

	target := fmt.Sprintf("Play %s on the %s string", pitch.DisplayName(u.Target.PitchClass), u.Target.String.Label())
	s += lipgloss.JoinHorizontal(lipgloss.Center, renderNote(u.Target.PitchClass, ""), "  ", infoStyle.Render(target))
	s += "\n\n"

	if res.Detected {
		note := res.Smoothed
		s += renderNote(note.Name, fmt.Sprint(note.Octave))
		s += "\n"

		info := fmt.Sprintf("%s | Frequency: %.2f Hz | Cents: %+d",
			pitch.DisplayName(note.Name), note.Frequency, note.Cents)
		s += infoStyle.Render(info) + "\n"
		s += infoStyle.Render(centsMeter(note.Cents, u.RoundSettings.ToleranceCents)) + "\n\n"

		s += statusStyles[res.Status].Render(res.Status.String())
		if !res.Stable && res.Status != game.StatusIncorrect {
			s += "  " + hintStyle.Render("hold it steady")
		}
	} else {
		s += infoStyle.Render("Listening for audio...")
	}
	s += "\n"

	switch res.HoldState {
	case game.Completed:
		s += statusStyles[game.StatusCorrect].Render("Nice! Next note coming up")
	default:
		s += infoStyle.Render("Hold " + holdBar(res.HoldProgress))
	}
	s += "\n\n"

	stats := fmt.Sprintf("Score: %d | Tolerance: ±%d cents | A4 = %.1f Hz | Level: %.1f dB",
		u.Score, u.RoundSettings.ToleranceCents, u.RoundSettings.ReferencePitch, u.DB)
	s += infoStyle.Render(stats)
	if u.Settings != u.RoundSettings {
		pending := fmt.Sprintf("Next round: ±%d cents | A4 = %.1f Hz",
			u.Settings.ToleranceCents, u.Settings.ReferencePitch)
		s += "\n" + hintStyle.Render(pending)
	}
	if u.Notice != "" {
		s += "\n" + hintStyle.Render(u.Notice)
	}

	s += "\n\n"
	s += infoStyle.Render("n skip | r reset score | +/- tolerance | [/] reference | q quit")

	return s
}
