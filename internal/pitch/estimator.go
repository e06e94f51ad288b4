// Package pitch estimates the fundamental frequency of audio frames and maps
// frequencies onto equal-tempered note names.
package pitch

import (
	"errors"
	"fmt"
	"math"

	"github.com/0xlemi/notetrainer/internal/audio"
	"gonum.org/v1/gonum/floats"
)

// Detection limits shared by the estimators.
const (
	NoiseFloor   = 0.01   // Minimum RMS amplitude for a frame to be analyzed
	MinFrequency = 20.0   // Lowest accepted estimate (Hz)
	MaxFrequency = 5000.0 // Highest accepted estimate (Hz)
)

// Estimator names accepted by New.
const (
	KindAutocorrelation = "autocorrelation"
	KindFFT             = "fft"
)

// ErrUnknownEstimator is returned by New for an unsupported estimator name.
var ErrUnknownEstimator = errors.New("unknown pitch estimator")

// Estimator turns one audio frame into a fundamental frequency.
type Estimator interface {
	// Estimate returns the frequency in Hz and true, or false when the
	// frame carries no usable pitch. It never fails.
	Estimate(frame *audio.Frame) (float64, bool)
}

// New builds the estimator registered under kind.
func New(kind string, frameSize int) (Estimator, error) {
	switch kind {
	case "", KindAutocorrelation:
		return NewAutocorrEstimator(), nil
	case KindFFT:
		return NewFFTEstimator(frameSize), nil
	default:
		return nil, fmt.Errorf("pitch: %w: %q", ErrUnknownEstimator, kind)
	}
}

// AutocorrEstimator implements time-domain autocorrelation pitch detection
// with parabolic refinement of the best lag.
type AutocorrEstimator struct {
	noiseFloor   float64
	minFrequency float64
	maxFrequency float64
}

// NewAutocorrEstimator creates an estimator with the default limits.
func NewAutocorrEstimator() *AutocorrEstimator {
	return &AutocorrEstimator{
		noiseFloor:   NoiseFloor,
		minFrequency: MinFrequency,
		maxFrequency: MaxFrequency,
	}
}

// Estimate analyzes the frame. Cost is quadratic in the frame length.
func (e *AutocorrEstimator) Estimate(frame *audio.Frame) (float64, bool) {
	x, ok := frame.Float64s()
	if !ok || !validRate(frame.SampleRate) {
		return 0, false
	}
	if audio.RMS(x) < e.noiseFloor {
		return 0, false
	}

	corr := correlogram(x)
	n := len(corr)

	// Walk down from the zero-lag peak to the first trough.
	d := 0
	for d < n-1 && corr[d] > corr[d+1] {
		d++
	}

	t0 := d + floats.MaxIdx(corr[d:])
	if corr[t0] <= 0 || t0 == 0 {
		return 0, false
	}

	lag := refineLag(corr, t0)
	hz := frame.SampleRate / lag
	if math.IsNaN(hz) || math.IsInf(hz, 0) || hz < e.minFrequency || hz > e.maxFrequency {
		return 0, false
	}
	return hz, true
}

// correlogram returns sum x[i]*x[i+tau] for every lag tau in [0, len(x)).
func correlogram(x []float64) []float64 {
	n := len(x)
	corr := make([]float64, n)
	for tau := range corr {
		corr[tau] = floats.Dot(x[:n-tau], x[tau:])
	}
	return corr
}

// refineLag fits a parabola through the neighbours of t0. Missing
// neighbours count as zero.
func refineLag(corr []float64, t0 int) float64 {
	var x1, x3 float64
	if t0 > 0 {
		x1 = corr[t0-1]
	}
	if t0+1 < len(corr) {
		x3 = corr[t0+1]
	}
	x2 := corr[t0]

	a := (x1 + x3 - 2*x2) / 2
	b := (x3 - x1) / 2
	if a == 0 {
		return float64(t0)
	}
	return float64(t0) - b/(2*a)
}

func validRate(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}
