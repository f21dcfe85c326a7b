package spectral

import (
	"math"
	"math/bits"

	"github.com/tphakala/drivesense/internal/errors"
)

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// FFT computes the discrete Fourier transform of re + i·im in place using the
// iterative radix-2 Cooley-Tukey algorithm.
func FFT(re, im []float64) error {
	n := len(re)
	if n != len(im) {
		return errors.New(ErrLengthMismatch).
			Component(componentSpectral).
			Category(errors.CategoryValidation).
			Context("real", n).
			Context("imag", len(im)).
			Build()
	}
	if !IsPowerOfTwo(n) {
		return errors.New(ErrNotPowerOfTwo).
			Component(componentSpectral).
			Category(errors.CategoryWindow).
			Context("length", n).
			Build()
	}
	if n == 1 {
		return nil
	}

	// bit reversal permutation
	shift := bits.UintSize - bits.Len(uint(n-1))
	for i := range n {
		j := int(bits.Reverse(uint(i)) >> shift)
		if j > i {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		theta := -2 * math.Pi / float64(size)
		wRe, wIm := math.Cos(theta), math.Sin(theta)
		for start := 0; start < n; start += size {
			uRe, uIm := 1.0, 0.0
			for k := range half {
				a := start + k
				b := a + half
				tRe := uRe*re[b] - uIm*im[b]
				tIm := uRe*im[b] + uIm*re[b]
				re[b] = re[a] - tRe
				im[b] = im[a] - tIm
				re[a] += tRe
				im[a] += tIm
				uRe, uIm = uRe*wRe-uIm*wIm, uRe*wIm+uIm*wRe
			}
		}
	}
	return nil
}
