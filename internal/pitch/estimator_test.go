package pitch

import (
	"errors"
	"math"
	"testing"

	"github.com/0xlemi/notetrainer/internal/audio"
)

// sineFrame renders a pure tone.
func sineFrame(freq, sampleRate float64, size int, amplitude float64) *audio.Frame {
	samples := make([]float32, size)
	for i := range samples {
		samples[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}
	return &audio.Frame{Samples: samples, SampleRate: sampleRate}
}

// withRate relabels a frame's sampling rate.
func withRate(f *audio.Frame, rate float64) *audio.Frame {
	f.SampleRate = rate
	return f
}

func TestAutocorrEstimatorSine(t *testing.T) {
	tests := []struct {
		freq       float64
		sampleRate float64
		size       int
	}{
		{110, 44100, 8192},
		{220, 48000, 2048},
		{659.26, 48000, 2048},
		{2000, 48000, 2048},
	}

	est := NewAutocorrEstimator()
	for _, tt := range tests {
		frame := sineFrame(tt.freq, tt.sampleRate, tt.size, 0.8)
		got, ok := est.Estimate(frame)
		if !ok {
			t.Errorf("%.2f Hz: expected a pitch, got none", tt.freq)
			continue
		}
		if math.Abs(got-tt.freq)/tt.freq > 0.01 {
			t.Errorf("%.2f Hz: estimate %.2f is off by more than 1%%", tt.freq, got)
		}
	}
}

// With 2048 samples at 44.1 kHz, tones from 150 Hz to 1500 Hz come back
// within 1%. Below that range too few periods fit the frame; above it a
// later period peak can outweigh the first one.
func TestAutocorrEstimatorSweep(t *testing.T) {
	est := NewAutocorrEstimator()
	for freq := 150.0; freq <= 1500; freq *= 1.03 {
		got, ok := est.Estimate(sineFrame(freq, 44100, 2048, 0.8))
		if !ok {
			t.Errorf("%.2f Hz: expected a pitch, got none", freq)
			continue
		}
		if math.Abs(got-freq)/freq > 0.01 {
			t.Errorf("%.2f Hz: estimate %.2f is off by more than 1%%", freq, got)
		}
	}
}

// High tones whose period is far from a whole number of samples lock onto
// a later period peak and report a subharmonic.
func TestAutocorrEstimatorSubharmonic(t *testing.T) {
	tests := []struct {
		freq       float64
		sampleRate float64
		divisor    float64
	}{
		{3517, 44100, 2},
		{4990, 48000, 3},
	}

	est := NewAutocorrEstimator()
	for _, tt := range tests {
		got, ok := est.Estimate(sineFrame(tt.freq, tt.sampleRate, 2048, 0.8))
		if !ok {
			t.Errorf("%.0f Hz: expected a pitch, got none", tt.freq)
			continue
		}
		want := tt.freq / tt.divisor
		if math.Abs(got-want)/want > 0.01 {
			t.Errorf("%.0f Hz: expected about %.1f Hz, got %.2f", tt.freq, want, got)
		}
	}
}

func TestAutocorrEstimatorNoPitch(t *testing.T) {
	noisy := sineFrame(440, 44100, 2048, 0.8)
	noisy.Samples[10] = float32(math.NaN())

	tests := []struct {
		name  string
		frame *audio.Frame
	}{
		{"silence", &audio.Frame{Samples: make([]float32, 2048), SampleRate: 44100}},
		{"below noise floor", sineFrame(440, 44100, 2048, 0.005)},
		{"nil frame", nil},
		{"empty frame", &audio.Frame{SampleRate: 44100}},
		{"non-finite sample", noisy},
		{"zero sample rate", withRate(sineFrame(440, 44100, 2048, 0.8), 0)},
		{"above range", withRate(sineFrame(440, 44100, 2048, 0.8), 44100*20)},
		{"below range", sineFrame(15, 44100, 8192, 0.8)},
	}

	est := NewAutocorrEstimator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if hz, ok := est.Estimate(tt.frame); ok {
				t.Errorf("Expected no pitch, got %.2f Hz", hz)
			}
		})
	}
}

func TestRefineLag(t *testing.T) {
	// Symmetric neighbours leave the lag unchanged.
	if got := refineLag([]float64{1, 3, 1}, 1); got != 1 {
		t.Errorf("Expected 1, got %f", got)
	}
	// Right neighbour larger pulls the lag right.
	if got := refineLag([]float64{1, 3, 2}, 1); got <= 1 || got >= 1.5 {
		t.Errorf("Expected lag in (1, 1.5), got %f", got)
	}
	// Flat neighbourhood has no curvature.
	if got := refineLag([]float64{2, 2, 2}, 1); got != 1 {
		t.Errorf("Expected 1 for a=0, got %f", got)
	}
	// Out-of-range right neighbour counts as zero.
	if got := refineLag([]float64{1, 3}, 1); got >= 1 {
		t.Errorf("Expected lag below 1, got %f", got)
	}
}

func TestFFTEstimatorSine(t *testing.T) {
	est := NewFFTEstimator(4096)
	for _, freq := range []float64{196, 440, 880} {
		got, ok := est.Estimate(sineFrame(freq, 44100, 4096, 0.8))
		if !ok {
			t.Errorf("%.0f Hz: expected a pitch, got none", freq)
			continue
		}
		if math.Abs(got-freq)/freq > 0.01 {
			t.Errorf("%.0f Hz: estimate %.2f is off by more than 1%%", freq, got)
		}
	}
}

func TestFFTEstimatorSilence(t *testing.T) {
	frame := &audio.Frame{Samples: make([]float32, 4096), SampleRate: 44100}
	if hz, ok := NewFFTEstimator(4096).Estimate(frame); ok {
		t.Errorf("Expected no pitch, got %.2f Hz", hz)
	}
}

func TestNew(t *testing.T) {
	if e, err := New("", 2048); err != nil {
		t.Fatalf("New(\"\") failed: %v", err)
	} else if _, ok := e.(*AutocorrEstimator); !ok {
		t.Errorf("Expected autocorrelation by default, got %T", e)
	}
	if e, err := New(KindFFT, 2048); err != nil {
		t.Fatalf("New(fft) failed: %v", err)
	} else if _, ok := e.(*FFTEstimator); !ok {
		t.Errorf("Expected *FFTEstimator, got %T", e)
	}
	if _, err := New("yin", 2048); !errors.Is(err, ErrUnknownEstimator) {
		t.Errorf("Expected ErrUnknownEstimator, got %v", err)
	}
}
