package trigger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/drivesense/internal/motion"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func TestDebouncerObserve(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(t0)
	assert.Equal(t, ActionNone, d.Observe(motion.Unknown), "unknown carries no information")
	assert.Equal(t, ActionArm, d.Observe(motion.Stationary))
	assert.Equal(t, ActionNone, d.Observe(motion.Stationary), "same candidate keeps its timer")
	assert.Equal(t, ActionArm, d.Observe(motion.Vehicle), "new candidate restarts the timer")

	tr, ok := d.Confirm(t0.Add(2 * time.Second))
	require.True(t, ok)
	assert.Equal(t, motion.LabelTransition{From: motion.Unknown, To: motion.Vehicle, At: t0.Add(2 * time.Second)}, tr)
	assert.Equal(t, motion.Vehicle, d.State().Current)

	assert.Equal(t, ActionArm, d.Observe(motion.Walking))
	assert.Equal(t, ActionCancel, d.Observe(motion.Vehicle), "current label contradicts the candidate")
	_, pending := d.Candidate()
	assert.False(t, pending)

	_, ok = d.Confirm(t0.Add(5 * time.Second))
	assert.False(t, ok, "nothing to confirm after a cancel")
}

// Signals toggling faster than the debounce interval never commit; the
// label that finally persists for the whole interval does, exactly once.
func TestDebouncerToggleProperty(t *testing.T) {
	t.Parallel()

	const interval = 2 * time.Second
	d := NewDebouncer(t0)

	var deadline time.Time
	var armed bool
	var transitions []motion.LabelTransition

	feed := func(now time.Time, label motion.Label) {
		if armed && !now.Before(deadline) {
			tr, ok := d.Confirm(deadline)
			require.True(t, ok)
			transitions = append(transitions, tr)
			armed = false
		}
		switch d.Observe(label) {
		case ActionArm:
			armed, deadline = true, now.Add(interval)
		case ActionCancel:
			armed = false
		case ActionNone:
		}
	}

	now := t0
	for range 6 {
		feed(now, motion.Stationary)
		now = now.Add(500 * time.Millisecond)
	}
	require.Len(t, transitions, 1)
	assert.Equal(t, motion.Stationary, transitions[0].To)

	for i := range 40 {
		label := motion.Vehicle
		if i%2 == 1 {
			label = motion.Stationary
		}
		feed(now, label)
		now = now.Add(700 * time.Millisecond)
	}
	assert.Len(t, transitions, 1, "toggling faster than the interval must not commit")

	start := now
	for now.Sub(start) <= interval {
		feed(now, motion.Vehicle)
		now = now.Add(500 * time.Millisecond)
	}
	require.Len(t, transitions, 2)
	assert.Equal(t, motion.Vehicle, transitions[1].To)
	assert.Equal(t, start.Add(interval), transitions[1].At)

	for i := 1; i < len(transitions); i++ {
		assert.GreaterOrEqual(t, transitions[i].At.Sub(transitions[i-1].At), interval)
	}
}

func TestDebouncerReset(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(t0)
	d.Observe(motion.Walking)
	d.Reset(t0.Add(time.Minute))

	assert.Equal(t, motion.DebouncedState{Current: motion.Unknown, Since: t0.Add(time.Minute)}, d.State())
	_, pending := d.Candidate()
	assert.False(t, pending)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Debounce = 0
	cfg.InboxSize = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debounce")
	assert.Contains(t, err.Error(), "inbox")
}
