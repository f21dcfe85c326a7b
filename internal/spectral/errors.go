package spectral

import "github.com/tphakala/drivesense/internal/errors"

const componentSpectral = "spectral"

var (
	// ErrNotPowerOfTwo is returned for windows or FFT inputs whose length is not a power of two.
	ErrNotPowerOfTwo = errors.New(errors.NewStd("length is not a power of two")).
				Component(componentSpectral).
				Category(errors.CategoryWindow).
				Build()

	// ErrWindowNotFull is returned when a window is drained before it holds N samples.
	ErrWindowNotFull = errors.New(errors.NewStd("window is not full")).
				Component(componentSpectral).
				Category(errors.CategoryWindow).
				Build()

	// ErrLengthMismatch is returned when real and imaginary FFT inputs differ in length.
	ErrLengthMismatch = errors.New(errors.NewStd("real and imaginary parts differ in length")).
				Component(componentSpectral).
				Category(errors.CategoryValidation).
				Build()
)
