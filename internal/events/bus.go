// Package events provides typed, non-blocking publish/subscribe buses used to
// fan out classification results, label transitions and movement state
// changes to observers.
package events

import (
	"sync"
	"sync/atomic"

	"github.com/tphakala/drivesense/internal/logger"
)

// DefaultBufferSize is the per-subscriber queue length used when none is given.
const DefaultBufferSize = 64

// Stats holds bus counters.
type Stats struct {
	Published   uint64 // events accepted by TryPublish
	Delivered   uint64 // events handed to subscriber queues
	Dropped     uint64 // events discarded because a subscriber queue was full
	Subscribers int
}

// Handler consumes events of type T.
type Handler[T any] func(T)

// Bus delivers events to subscribers without ever blocking the publisher.
// Each subscriber has its own queue and goroutine, so handlers may call back
// into the publishing component without deadlocking it.
type Bus[T any] struct {
	name       string
	bufferSize int
	logger     logger.Logger

	mu     sync.RWMutex
	subs   map[uint64]chan T
	nextID uint64
	closed bool
	wg     sync.WaitGroup

	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64

	dropHook atomic.Pointer[func()]
}

// NewBus creates a bus. bufferSize <= 0 selects DefaultBufferSize.
func NewBus[T any](name string, bufferSize int) *Bus[T] {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Bus[T]{
		name:       name,
		bufferSize: bufferSize,
		logger:     logger.Global().Module("events").With(logger.String("bus", name)),
		subs:       make(map[uint64]chan T),
	}
}

// Name returns the bus name.
func (b *Bus[T]) Name() string {
	return b.name
}

// OnDrop registers a function called whenever an event is dropped.
func (b *Bus[T]) OnDrop(hook func()) {
	if hook == nil {
		b.dropHook.Store(nil)
		return
	}
	b.dropHook.Store(&hook)
}

// Subscribe starts delivering events to handler on a dedicated goroutine.
// The returned function unsubscribes; it is safe to call more than once and
// from within the handler.
func (b *Bus[T]) Subscribe(handler Handler[T]) (unsubscribe func()) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return func() {}
	}
	b.nextID++
	id := b.nextID
	ch := make(chan T, b.bufferSize)
	b.subs[id] = ch
	b.wg.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.wg.Done()
		for ev := range ch {
			handler(ev)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// TryPublish queues ev for every subscriber. Subscribers with a full queue
// miss the event. It returns true when every subscriber received it.
func (b *Bus[T]) TryPublish(ev T) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return false
	}
	b.published.Add(1)

	all := true
	for _, ch := range b.subs {
		select {
		case ch <- ev:
			b.delivered.Add(1)
		default:
			all = false
			b.dropped.Add(1)
			if hook := b.dropHook.Load(); hook != nil {
				(*hook)()
			}
			b.logger.Debug("event dropped due to full subscriber queue")
		}
	}
	return all
}

// Close unsubscribes everyone and waits for in-flight handlers to return.
// It must not be called from a handler of this bus.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()

	b.wg.Wait()
}

// Stats returns a snapshot of the bus counters.
func (b *Bus[T]) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		Published:   b.published.Load(),
		Delivered:   b.delivered.Load(),
		Dropped:     b.dropped.Load(),
		Subscribers: n,
	}
}
