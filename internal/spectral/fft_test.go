package spectral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/drivesense/internal/errors"
)

// naiveDFT is the O(n²) reference transform.
func naiveDFT(x []float64) (re, im []float64) {
	n := len(x)
	re = make([]float64, n)
	im = make([]float64, n)
	for k := range n {
		for t := range n {
			angle := -2 * math.Pi * float64(k*t) / float64(n)
			re[k] += x[t] * math.Cos(angle)
			im[k] += x[t] * math.Sin(angle)
		}
	}
	return re, im
}

func TestFFTMatchesNaiveDFT(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 8, 64} {
		x := make([]float64, n)
		for i := range x {
			x[i] = math.Sin(float64(i)*0.7) + 0.3*math.Cos(float64(i)*2.1) + float64(i%3)
		}
		wantRe, wantIm := naiveDFT(x)

		re := append([]float64(nil), x...)
		im := make([]float64, n)
		require.NoError(t, FFT(re, im))

		for k := range n {
			assert.InDelta(t, wantRe[k], re[k], 1e-9, "n=%d re[%d]", n, k)
			assert.InDelta(t, wantIm[k], im[k], 1e-9, "n=%d im[%d]", n, k)
		}
	}
}

func TestFFTRejectsBadInput(t *testing.T) {
	t.Parallel()

	err := FFT(make([]float64, 63), make([]float64, 63))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotPowerOfTwo)
	assert.True(t, errors.IsCategory(err, errors.CategoryWindow))

	err = FFT(make([]float64, 64), make([]float64, 32))
	assert.ErrorIs(t, err, ErrLengthMismatch)

	assert.ErrorIs(t, FFT(nil, nil), ErrNotPowerOfTwo)
}

func TestIsPowerOfTwo(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 4, 64, 1024} {
		assert.True(t, IsPowerOfTwo(n), n)
	}
	for _, n := range []int{-4, 0, 3, 63, 100} {
		assert.False(t, IsPowerOfTwo(n), n)
	}
}
