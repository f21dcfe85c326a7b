package events

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus[int]("numbers", 16)
	defer bus.Close()

	var mu sync.Mutex
	var got []int
	bus.Subscribe(func(v int) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	})

	for i := range 10 {
		require.True(t, bus.TryPublish(i))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 10
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
	mu.Unlock()
}

func TestBusDropsWhenSubscriberIsSlow(t *testing.T) {
	bus := NewBus[int]("slow", 1)

	release := make(chan struct{})
	bus.Subscribe(func(int) { <-release })

	var drops atomic.Int32
	bus.OnDrop(func() { drops.Add(1) })

	// First event is taken by the handler, second fills the queue.
	bus.TryPublish(1)
	require.Eventually(t, func() bool {
		return bus.TryPublish(2)
	}, time.Second, time.Millisecond)

	assert.False(t, bus.TryPublish(3), "publish must not block on a full queue")
	assert.GreaterOrEqual(t, drops.Load(), int32(1))
	assert.GreaterOrEqual(t, bus.Stats().Dropped, uint64(1))

	close(release)
	bus.Close()
}

func TestUnsubscribeFromHandler(t *testing.T) {
	bus := NewBus[string]("self", 4)
	defer bus.Close()

	var calls atomic.Int32
	var unsubscribe func()
	ready := make(chan struct{})
	unsubscribe = bus.Subscribe(func(string) {
		<-ready
		calls.Add(1)
		unsubscribe()
	})
	close(ready)

	bus.TryPublish("a")
	require.Eventually(t, func() bool { return bus.Stats().Subscribers == 0 }, time.Second, time.Millisecond)

	bus.TryPublish("b")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClosedBusRejectsEvents(t *testing.T) {
	bus := NewBus[int]("closed", 0)
	bus.Subscribe(func(int) {})
	bus.Close()
	bus.Close()

	assert.False(t, bus.TryPublish(1))
	assert.Zero(t, bus.Stats().Subscribers)

	unsubscribe := bus.Subscribe(func(int) {})
	unsubscribe()
}
