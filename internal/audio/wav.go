package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned when the input is not a decodable PCM WAV file.
var ErrInvalidWAV = errors.New("invalid WAV file")

// WAVSource slices a decoded WAV file into consecutive frames for offline
// analysis. Channels are mixed down to mono.
type WAVSource struct {
	samples    []float32
	sampleRate float64
	frameSize  int
	hop        int
	pos        int
}

// OpenWAV decodes the WAV file at path.
func OpenWAV(path string, frameSize, hop int) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open %q: %w", path, err)
	}
	defer f.Close()

	src, err := NewWAVSource(f, frameSize, hop)
	if err != nil {
		return nil, fmt.Errorf("audio: decode %q: %w", path, err)
	}
	return src, nil
}

// NewWAVSource decodes a WAV stream. hop is the distance in samples between
// the starts of two consecutive frames; zero means frameSize.
func NewWAVSource(r io.ReadSeeker, frameSize, hop int) (*WAVSource, error) {
	if frameSize <= 0 {
		return nil, fmt.Errorf("audio: frame size %d must be positive", frameSize)
	}
	if hop <= 0 {
		hop = frameSize
	}

	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audio: read pcm: %w", err)
	}

	bitDepth, err := pcmBitDepth(int(decoder.BitDepth), buf.SourceBitDepth)
	if err != nil {
		return nil, err
	}

	return &WAVSource{
		samples:    mixdown(buf, bitDepth),
		sampleRate: float64(decoder.SampleRate),
		frameSize:  frameSize,
		hop:        hop,
	}, nil
}

// pcmBitDepth picks the header bit depth, falling back to the buffer's.
func pcmBitDepth(header, source int) (int, error) {
	depth := header
	if depth <= 0 {
		depth = source
	}
	if depth < 1 || depth > 32 {
		return 0, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidWAV, depth)
	}
	return depth, nil
}

// mixdown averages interleaved integer PCM into normalized mono samples.
// bitDepth must be in [1, 32].
func mixdown(buf *goaudio.IntBuffer, bitDepth int) []float32 {
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	scale := float64(int64(1) << (bitDepth - 1))

	mono := make([]float32, len(buf.Data)/channels)
	for i := range mono {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += buf.Data[i*channels+ch]
		}
		mono[i] = float32(float64(sum) / float64(channels) / scale)
	}
	return mono
}

// Next returns the next full frame, or io.EOF once fewer than frameSize
// samples remain.
func (s *WAVSource) Next() (*Frame, error) {
	if s.pos+s.frameSize > len(s.samples) {
		return nil, io.EOF
	}
	frame := &Frame{
		Samples:    make([]float32, s.frameSize),
		SampleRate: s.sampleRate,
	}
	copy(frame.Samples, s.samples[s.pos:s.pos+s.frameSize])
	s.pos += s.hop
	return frame, nil
}

// SampleRate returns the file's sampling rate in Hz.
func (s *WAVSource) SampleRate() float64 {
	return s.sampleRate
}

// Hop returns the wall-clock distance between two consecutive frames.
func (s *WAVSource) Hop() time.Duration {
	return time.Duration(float64(s.hop) / s.sampleRate * float64(time.Second))
}
