package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioCapturer implements audio capture using PortAudio
type PortAudioCapturer struct {
	isCapturing   bool
	stream        *portaudio.Stream
	frame         *Frame
	frameSize     int
	sampleRate    float64
	channels      int
	frameMutex    sync.Mutex
	amplification float32 // Audio signal amplification factor
}

// NewPortAudioCapturer creates a new audio capturer using PortAudio.
// frameSize is the number of mono samples delivered per frame.
func NewPortAudioCapturer(frameSize int, sampleRate float64, channels int) (*PortAudioCapturer, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: initialize portaudio: %w", err)
	}

	return &PortAudioCapturer{
		frame: &Frame{
			Samples:    make([]float32, 0, frameSize),
			SampleRate: sampleRate,
		},
		frameSize:     frameSize,
		sampleRate:    sampleRate,
		channels:      channels,
		amplification: 1.0,
	}, nil
}

// Start begins audio capture
func (c *PortAudioCapturer) Start() error {
	if c.isCapturing {
		return ErrAlreadyCapturing
	}

	// Open default input stream, no output channels
	var err error
	c.stream, err = portaudio.OpenDefaultStream(
		c.channels,
		0,
		c.sampleRate,
		c.frameSize,
		c.processAudio,
	)
	if err != nil {
		return fmt.Errorf("audio: open stream: %w", err)
	}

	if err = c.stream.Start(); err != nil {
		c.stream.Close()
		return fmt.Errorf("audio: start stream: %w", err)
	}

	c.isCapturing = true
	return nil
}

// Stop ends audio capture
func (c *PortAudioCapturer) Stop() error {
	if !c.isCapturing {
		return ErrNotCapturing
	}

	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("audio: stop stream: %w", err)
	}
	if err := c.stream.Close(); err != nil {
		return fmt.Errorf("audio: close stream: %w", err)
	}
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("audio: terminate portaudio: %w", err)
	}

	c.isCapturing = false
	return nil
}

// processAudio is the PortAudio callback. Multi-channel input is averaged
// down to mono.
func (c *PortAudioCapturer) processAudio(in []float32) {
	c.frameMutex.Lock()
	defer c.frameMutex.Unlock()

	mono := make([]float32, len(in)/c.channels)
	for i := range mono {
		sum := float32(0)
		for ch := 0; ch < c.channels; ch++ {
			sum += in[i*c.channels+ch]
		}
		mono[i] = (sum / float32(c.channels)) * c.amplification
	}
	c.frame.Samples = mono
}

// GetFrame returns a copy of the most recent frame
func (c *PortAudioCapturer) GetFrame() (*Frame, error) {
	if !c.isCapturing {
		return nil, ErrNotCapturing
	}

	c.frameMutex.Lock()
	defer c.frameMutex.Unlock()

	frameCopy := &Frame{
		Samples:    make([]float32, len(c.frame.Samples)),
		SampleRate: c.frame.SampleRate,
	}
	copy(frameCopy.Samples, c.frame.Samples)

	return frameCopy, nil
}

// IsCapturing returns true if currently capturing audio
func (c *PortAudioCapturer) IsCapturing() bool {
	return c.isCapturing
}

// SetAmplification sets the audio amplification factor
func (c *PortAudioCapturer) SetAmplification(factor float32) {
	c.frameMutex.Lock()
	defer c.frameMutex.Unlock()

	// Ensure amplification is positive
	if factor < 0.1 {
		factor = 0.1
	}

	c.amplification = factor
}
