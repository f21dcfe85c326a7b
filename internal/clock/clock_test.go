package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func TestFakeAdvanceFiresInDeadlineOrder(t *testing.T) {
	t.Parallel()

	c := NewFake(epoch)
	var fired []string

	c.AfterFunc(3*time.Second, func() { fired = append(fired, "c") })
	c.AfterFunc(1*time.Second, func() { fired = append(fired, "a") })
	c.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	c.AfterFunc(10*time.Second, func() { fired = append(fired, "late") })

	c.Advance(5 * time.Second)

	assert.Equal(t, []string{"a", "b", "c"}, fired)
	assert.Equal(t, epoch.Add(5*time.Second), c.Now())
	assert.Equal(t, 1, c.Pending())
}

func TestFakeCallbackSeesDeadlineTime(t *testing.T) {
	t.Parallel()

	c := NewFake(epoch)
	var at time.Time
	c.AfterFunc(2*time.Second, func() { at = c.Now() })

	c.Advance(time.Minute)

	assert.Equal(t, epoch.Add(2*time.Second), at)
}

func TestFakeTimerScheduledFromCallback(t *testing.T) {
	t.Parallel()

	c := NewFake(epoch)
	count := 0
	var tick func()
	tick = func() {
		count++
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(3500 * time.Millisecond)

	assert.Equal(t, 3, count)
}

func TestFakeStop(t *testing.T) {
	t.Parallel()

	c := NewFake(epoch)
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	c.Advance(2 * time.Second)
	assert.False(t, fired)
	assert.Zero(t, c.Pending())
}

func TestRealClockAfterFunc(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	New().AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}
