package pitch

import (
	"slices"
	"strings"
)

// PitchClasses lists the twelve pitch classes in chromatic order, sharp
// spelling.
var PitchClasses = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// FlatPitchClasses is PitchClasses with flat spelling for the black keys.
var FlatPitchClasses = []string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// enharmonics maps every accepted spelling to its full set of spellings.
var enharmonics = map[string][]string{
	"C":  {"C"},
	"C#": {"C#", "Db"},
	"Db": {"C#", "Db"},
	"D":  {"D"},
	"D#": {"D#", "Eb"},
	"Eb": {"D#", "Eb"},
	"E":  {"E"},
	"F":  {"F"},
	"F#": {"F#", "Gb"},
	"Gb": {"F#", "Gb"},
	"G":  {"G"},
	"G#": {"G#", "Ab"},
	"Ab": {"G#", "Ab"},
	"A":  {"A"},
	"A#": {"A#", "Bb"},
	"Bb": {"A#", "Bb"},
	"B":  {"B"},
}

// Enharmonics returns the spellings of a pitch class. Unknown names map to
// themselves.
func Enharmonics(pitchClass string) []string {
	if names, ok := enharmonics[pitchClass]; ok {
		return slices.Clone(names)
	}
	return []string{pitchClass}
}

// IsPitchClass reports whether name is a known pitch class spelling.
func IsPitchClass(name string) bool {
	_, ok := enharmonics[name]
	return ok
}

// DisplayName joins the spellings of a pitch class, e.g. "C# / Db".
func DisplayName(pitchClass string) string {
	return strings.Join(Enharmonics(pitchClass), " / ")
}

// Equivalent reports whether two note names denote the same pitch class.
// Octave numbers are ignored, so "C#4" and "Db5" are equivalent.
func Equivalent(name1, name2 string) bool {
	n1 := stripOctave(name1)
	n2 := stripOctave(name2)

	for _, names := range enharmonics {
		if slices.Contains(names, n1) && slices.Contains(names, n2) {
			return true
		}
	}
	return false
}

// stripOctave drops digits and the sign of negative octaves.
func stripOctave(name string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' {
			return -1
		}
		return r
	}, name)
}
