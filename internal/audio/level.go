package audio

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SilenceDB is reported for frames with no measurable energy.
const SilenceDB = -100.0

// Float64s converts the frame samples for numeric processing. It reports
// false when the frame is empty or holds a NaN or infinite sample.
func (f *Frame) Float64s() ([]float64, bool) {
	if f == nil || len(f.Samples) == 0 {
		return nil, false
	}
	x := make([]float64, len(f.Samples))
	for i, s := range f.Samples {
		v := float64(s)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		x[i] = v
	}
	return x, true
}

// RMS returns the root mean square amplitude of x.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(x, x) / float64(len(x)))
}

// Level calculates RMS and dB level of a frame
func Level(frame *Frame) (rms, db float64) {
	x, ok := frame.Float64s()
	if !ok {
		return 0, SilenceDB
	}
	rms = RMS(x)

	// Avoid log(0)
	if rms > 0.0000001 {
		db = 20 * math.Log10(rms)
	} else {
		db = SilenceDB
	}
	return rms, db
}
