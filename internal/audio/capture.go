package audio

import (
	"errors"
	"math"
	"sync"
	"time"
)

// Errors
var (
	ErrAlreadyCapturing = errors.New("audio capture already started")
	ErrNotCapturing     = errors.New("audio capture not started")
)

// Frame is one fixed-length snapshot of mono samples, normalized to [-1, 1].
// Consumers treat it as read-only.
type Frame struct {
	Samples    []float32
	SampleRate float64
}

// Duration returns the time span covered by the frame.
func (f *Frame) Duration() time.Duration {
	if f == nil || f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(f.Samples)) / f.SampleRate * float64(time.Second))
}

// Source supplies the most recent audio frame.
type Source interface {
	// GetFrame returns a snapshot of the current audio frame
	GetFrame() (*Frame, error)
}

// Capturer defines the interface for audio capture
type Capturer interface {
	Source

	// Start begins audio capture
	Start() error

	// Stop ends audio capture
	Stop() error

	// IsCapturing returns true if currently capturing audio
	IsCapturing() bool
}

// ToneCapturer is a Capturer that synthesizes a sine tone instead of reading
// a device. It backs the demo mode and host tests.
type ToneCapturer struct {
	mu          sync.Mutex
	isCapturing bool
	frameSize   int
	sampleRate  float64
	frequency   float64
	amplitude   float64
	phase       float64
}

// NewToneCapturer creates a synthetic capturer producing frames of frameSize
// samples. A zero frequency produces silence.
func NewToneCapturer(frameSize int, sampleRate, frequency float64) *ToneCapturer {
	return &ToneCapturer{
		frameSize:  frameSize,
		sampleRate: sampleRate,
		frequency:  frequency,
		amplitude:  0.5,
	}
}

// Start begins audio capture
func (c *ToneCapturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isCapturing {
		return ErrAlreadyCapturing
	}
	c.isCapturing = true
	return nil
}

// Stop ends audio capture
func (c *ToneCapturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isCapturing {
		return ErrNotCapturing
	}
	c.isCapturing = false
	return nil
}

// IsCapturing returns true if currently capturing audio
func (c *ToneCapturer) IsCapturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isCapturing
}

// SetFrequency changes the synthesized tone. The phase stays continuous.
func (c *ToneCapturer) SetFrequency(hz float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frequency = hz
}

// GetFrame renders the next frame of the tone.
func (c *ToneCapturer) GetFrame() (*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isCapturing {
		return nil, ErrNotCapturing
	}

	frame := &Frame{
		Samples:    make([]float32, c.frameSize),
		SampleRate: c.sampleRate,
	}
	if c.frequency <= 0 {
		return frame, nil
	}

	step := 2 * math.Pi * c.frequency / c.sampleRate
	for i := range frame.Samples {
		frame.Samples[i] = float32(c.amplitude * math.Sin(c.phase))
		c.phase = math.Mod(c.phase+step, 2*math.Pi)
	}
	return frame, nil
}
