package spectral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowFillAndDrain(t *testing.T) {
	t.Parallel()

	w, err := NewWindow(8)
	require.NoError(t, err)

	for i := range 7 {
		assert.False(t, w.Add(float64(i)), "sample %d", i)
	}
	_, err = w.Drain()
	require.ErrorIs(t, err, ErrWindowNotFull)
	assert.Equal(t, 7, w.Len(), "failed drain keeps samples")

	assert.True(t, w.Add(7))
	assert.True(t, w.Add(99), "full window rejects further samples")

	got, err := w.Drain()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7}, got)
	assert.Zero(t, w.Len(), "drain clears the window")
	assert.False(t, w.Full())
}

func TestWindowReset(t *testing.T) {
	t.Parallel()

	w, err := NewWindow(4)
	require.NoError(t, err)
	w.Add(1)
	w.Add(2)
	w.Reset()
	assert.Zero(t, w.Len())
}

func TestNewWindowRequiresPowerOfTwo(t *testing.T) {
	t.Parallel()

	_, err := NewWindow(48)
	require.ErrorIs(t, err, ErrNotPowerOfTwo)
}
