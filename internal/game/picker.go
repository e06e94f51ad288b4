package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/0xlemi/notetrainer/internal/pitch"
)

// GuitarString identifies an open string in standard tuning. Lower-case
// "e" is the high E string.
type GuitarString string

// Strings in standard tuning, low to high.
const (
	StringLowE  GuitarString = "E"
	StringA     GuitarString = "A"
	StringD     GuitarString = "D"
	StringG     GuitarString = "G"
	StringB     GuitarString = "B"
	StringHighE GuitarString = "e"
)

// AllStrings lists the six strings, low to high.
var AllStrings = []GuitarString{StringLowE, StringA, StringD, StringG, StringB, StringHighE}

var stringLabels = map[GuitarString]string{
	StringLowE:  "low E",
	StringA:     "A",
	StringD:     "D",
	StringG:     "G",
	StringB:     "B",
	StringHighE: "high E",
}

// Label is the human name of the string.
func (s GuitarString) Label() string {
	if l, ok := stringLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseStrings validates string names such as ["E", "A", "e"].
func ParseStrings(names []string) ([]GuitarString, error) {
	if len(names) == 0 {
		return nil, errors.New("at least one string must be enabled")
	}
	out := make([]GuitarString, 0, len(names))
	for _, n := range names {
		s := GuitarString(n)
		if _, ok := stringLabels[s]; !ok {
			return nil, fmt.Errorf("unknown string %q; valid values: E, A, D, G, B, e", n)
		}
		out = append(out, s)
	}
	return out, nil
}

// Picker draws random round targets.
type Picker struct {
	rng     *rand.Rand
	strings []GuitarString
	fixed   string
}

// NewPicker creates a picker over the enabled strings. A nil rng uses a
// randomly seeded source.
func NewPicker(rng *rand.Rand, strings []GuitarString) *Picker {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Picker{rng: rng, strings: strings}
}

// Fix makes every later target use pitchClass. An empty string restores
// random targets.
func (p *Picker) Fix(pitchClass string) {
	p.fixed = pitchClass
}

// Next returns a random pitch class, spelled sharp or flat with equal
// chance, on a random enabled string.
func (p *Picker) Next() Target {
	names := pitch.PitchClasses
	if p.rng.IntN(2) == 1 {
		names = pitch.FlatPitchClasses
	}

	t := Target{PitchClass: names[p.rng.IntN(len(names))]}
	if p.fixed != "" {
		t.PitchClass = p.fixed
	}
	if len(p.strings) > 0 {
		t.String = p.strings[p.rng.IntN(len(p.strings))]
	}
	return t
}
