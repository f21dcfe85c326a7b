package testutil

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReceiveReturnsValue(t *testing.T) {
	t.Parallel()

	ch := make(chan int, 1)
	ch <- 7
	assert.Equal(t, 7, Receive(t, ch, ShortTestTimeout, "no value"))
}

func TestWaitHelpers(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	var flag atomic.Bool
	go func() {
		time.Sleep(10 * time.Millisecond)
		flag.Store(true)
		close(done)
	}()
	WaitForChannel(t, done, ShortTestTimeout, "channel not closed")
	WaitUntil(t, flag.Load, "flag not set")
}
