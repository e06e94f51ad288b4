package pitch

import (
	"fmt"
	"math"
)

// DefaultReference is the standard concert pitch for A4 in Hz.
const DefaultReference = 440.0

// a4MIDI is the MIDI number of A4.
const a4MIDI = 69

// Note represents a musical note
type Note struct {
	Name        string   // Sharp spelling of the pitch class, e.g. "A#"
	Enharmonics []string // All spellings of the pitch class, e.g. ["A#", "Bb"]
	Octave      int      // e.g., 4 for middle C (C4)
	Cents       int      // Deviation from the equal-tempered note (-50 to +50)
	MIDI        int      // MIDI note number, 69 = A4
	Frequency   float64  // Frequency in Hz the note was derived from
}

// String renders the note with its octave, e.g. "C#4".
func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// FromFrequency converts a frequency to the nearest equal-tempered note,
// relative to the given A4 reference. frequency and reference must be
// finite and positive.
func FromFrequency(frequency, reference float64) Note {
	noteNumber := 12*math.Log2(frequency/reference) + a4MIDI

	midi := roundHalfUp(noteNumber)
	cents := int(roundHalfUp((noteNumber - midi) * 100))

	m := int(midi)
	name := PitchClasses[((m%12)+12)%12]

	return Note{
		Name:        name,
		Enharmonics: Enharmonics(name),
		Octave:      int(math.Floor(midi/12)) - 1,
		Cents:       cents,
		MIDI:        m,
		Frequency:   frequency,
	}
}

// MIDIToFrequency returns the equal-tempered frequency of a MIDI note.
func MIDIToFrequency(midi int, reference float64) float64 {
	return reference * math.Pow(2, float64(midi-a4MIDI)/12)
}

// roundHalfUp rounds to the nearest integer, with halves going up.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
