package game

import (
	"gonum.org/v1/gonum/stat"
)

// Sample is one detection kept for smoothing.
type Sample struct {
	Frequency float64
	Cents     int
	Name      string
}

// Window keeps the most recent detections in arrival order, evicting the
// oldest once full.
type Window struct {
	buf  []Sample
	head int // index of the oldest sample
	n    int
}

// NewWindow creates a window holding up to size samples. Sizes below one
// are raised to one.
func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{buf: make([]Sample, size)}
}

// Push appends s, evicting the oldest sample when the window is full.
func (w *Window) Push(s Sample) {
	if w.n < len(w.buf) {
		w.buf[(w.head+w.n)%len(w.buf)] = s
		w.n++
		return
	}
	w.buf[w.head] = s
	w.head = (w.head + 1) % len(w.buf)
}

// Len returns the number of stored samples.
func (w *Window) Len() int { return w.n }

// Cap returns the window capacity.
func (w *Window) Cap() int { return len(w.buf) }

// Reset drops every sample.
func (w *Window) Reset() {
	w.head, w.n = 0, 0
}

// Samples returns the stored samples, oldest first.
func (w *Window) Samples() []Sample {
	out := make([]Sample, w.n)
	for i := range out {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}

// AverageFrequency returns the mean frequency, or 0 for an empty window.
func (w *Window) AverageFrequency() float64 {
	if w.n == 0 {
		return 0
	}
	freqs := make([]float64, w.n)
	for i, s := range w.Samples() {
		freqs[i] = s.Frequency
	}
	return stat.Mean(freqs, nil)
}

// CentsStability returns the population standard deviation of the stored
// cents values. Low values mean a steady pitch; vibrato and slides raise it.
func (w *Window) CentsStability() float64 {
	if w.n == 0 {
		return 0
	}
	cents := make([]float64, w.n)
	for i, s := range w.Samples() {
		cents[i] = float64(s.Cents)
	}
	_, std := stat.PopMeanStdDev(cents, nil)
	return std
}
