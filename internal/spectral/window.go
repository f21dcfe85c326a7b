package spectral

import (
	"encoding/binary"
	"math"

	"github.com/smallnest/ringbuffer"

	"github.com/tphakala/drivesense/internal/errors"
)

const bytesPerSample = 8

// Window accumulates exactly N magnitude samples. Draining a full window
// empties it, so each classification sees a fresh set of N samples.
type Window struct {
	size int
	buf  *ringbuffer.RingBuffer
}

// NewWindow creates a window of size samples. size must be a power of two.
func NewWindow(size int) (*Window, error) {
	if !IsPowerOfTwo(size) {
		return nil, errors.New(ErrNotPowerOfTwo).
			Component(componentSpectral).
			Category(errors.CategoryWindow).
			Context("window_size", size).
			Build()
	}
	return &Window{
		size: size,
		buf:  ringbuffer.New(size * bytesPerSample),
	}, nil
}

// Size returns the window capacity in samples.
func (w *Window) Size() int {
	return w.size
}

// Len returns the number of buffered samples.
func (w *Window) Len() int {
	return w.buf.Length() / bytesPerSample
}

// Full reports whether the window holds N samples.
func (w *Window) Full() bool {
	return w.buf.Free() == 0
}

// Add appends a sample and reports whether the window is now full. Samples
// offered to a full window are rejected until it is drained.
func (w *Window) Add(v float64) bool {
	if w.Full() {
		return true
	}
	var frame [bytesPerSample]byte
	binary.LittleEndian.PutUint64(frame[:], math.Float64bits(v))
	// capacity is a whole number of frames, so a window that is not full
	// always has room for one
	_, _ = w.buf.Write(frame[:])
	return w.Full()
}

// Drain returns the buffered samples in arrival order and empties the window.
// It fails with ErrWindowNotFull, leaving the samples in place, unless the
// window holds exactly N samples.
func (w *Window) Drain() ([]float64, error) {
	if !w.Full() {
		return nil, errors.New(ErrWindowNotFull).
			Component(componentSpectral).
			Category(errors.CategoryWindow).
			Context("have", w.Len()).
			Context("want", w.size).
			Build()
	}

	raw := make([]byte, w.size*bytesPerSample)
	n, err := w.buf.Read(raw)
	if err != nil {
		return nil, errors.New(err).
			Component(componentSpectral).
			Category(errors.CategoryProcessing).
			Build()
	}

	out := make([]float64, n/bytesPerSample)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*bytesPerSample:]))
	}
	return out, nil
}

// Reset discards buffered samples.
func (w *Window) Reset() {
	w.buf.Reset()
}
