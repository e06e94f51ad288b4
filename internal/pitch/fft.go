package pitch

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/0xlemi/notetrainer/internal/audio"
	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// FFTEstimator implements pitch detection by picking the strongest spectral
// peak. It is tuned for the guitar range and is cheaper than autocorrelation
// on long frames, but it can lock onto a strong harmonic.
type FFTEstimator struct {
	windowSize      int
	minFrequency    float64 // Lowest frequency to detect (Hz)
	maxFrequency    float64 // Highest frequency to detect (Hz)
	noiseFloor      float64 // Minimum peak magnitude
	peakThreshold   float64 // Minimum peak height as fraction of highest peak
	volumeThreshold float64 // Minimum RMS volume level for detection
}

// NewFFTEstimator creates a new FFT-based pitch estimator
func NewFFTEstimator(windowSize int) *FFTEstimator {
	return &FFTEstimator{
		windowSize:      windowSize,
		minFrequency:    70.0,   // Below E2 (~82 Hz) with drop tunings
		maxFrequency:    1400.0, // Above E6 (~1319 Hz)
		noiseFloor:      0.01,
		peakThreshold:   0.2,
		volumeThreshold: NoiseFloor,
	}
}

// Estimate analyzes the frame and returns the interpolated peak frequency.
func (d *FFTEstimator) Estimate(frame *audio.Frame) (float64, bool) {
	x, ok := frame.Float64s()
	if !ok || !validRate(frame.SampleRate) {
		return 0, false
	}
	if audio.RMS(x) < d.volumeThreshold {
		return 0, false
	}

	window.Apply(x, window.Hann)
	spectrum := fft.FFTReal(x)

	peak, ok := d.findFundamentalFrequency(spectrum, frame.SampleRate)
	if !ok || peak < d.minFrequency || peak > d.maxFrequency {
		return 0, false
	}
	return peak, true
}

// Peak represents a peak in the frequency spectrum
type Peak struct {
	Bin       int
	Magnitude float64
	Frequency float64
}

// findFundamentalFrequency returns the frequency of the strongest local
// maximum in the configured band.
func (d *FFTEstimator) findFundamentalFrequency(spectrum []complex128, sampleRate float64) (float64, bool) {
	// Only the first half of the spectrum is meaningful (Nyquist)
	spectrumHalf := spectrum[:len(spectrum)/2]

	binSizeHz := sampleRate / float64(len(spectrum))

	minBin := int(d.minFrequency / binSizeHz)
	if minBin < 1 {
		minBin = 1 // Avoid DC component
	}
	maxBin := int(d.maxFrequency/binSizeHz) + 1
	if maxBin >= len(spectrumHalf) {
		maxBin = len(spectrumHalf) - 1
	}
	if minBin+1 >= maxBin {
		return 0, false
	}

	maxMagnitude := 0.0
	for i := minBin; i <= maxBin; i++ {
		if magnitude := cmplx.Abs(spectrumHalf[i]); magnitude > maxMagnitude {
			maxMagnitude = magnitude
		}
	}
	if maxMagnitude < d.noiseFloor {
		return 0, false
	}

	var peaks []Peak
	for i := minBin + 1; i < maxBin; i++ {
		prev := cmplx.Abs(spectrumHalf[i-1])
		current := cmplx.Abs(spectrumHalf[i])
		next := cmplx.Abs(spectrumHalf[i+1])

		if current <= prev || current <= next || current <= maxMagnitude*d.peakThreshold {
			continue
		}

		// Quadratic interpolation of the peak location:
		// x = k + 0.5 * (R[k-1] - R[k+1]) / (R[k-1] - 2*R[k] + R[k+1])
		freq := float64(i) * binSizeHz
		if denom := prev - 2*current + next; denom != 0 {
			freq = (float64(i) + 0.5*(prev-next)/denom) * binSizeHz
		}
		peaks = append(peaks, Peak{Bin: i, Magnitude: current, Frequency: freq})
	}
	if len(peaks) == 0 {
		return 0, false
	}

	sort.Slice(peaks, func(i, j int) bool {
		return peaks[i].Magnitude > peaks[j].Magnitude
	})

	if math.IsNaN(peaks[0].Frequency) {
		return 0, false
	}
	return peaks[0].Frequency, true
}
