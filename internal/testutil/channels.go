// Package testutil provides helpers shared by the package tests for waiting
// on asynchronous delivery from event buses and listeners.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Common test timeout constants.
const (
	// DefaultTestTimeout bounds waits that cross several goroutine hops.
	DefaultTestTimeout = 2 * time.Second

	// ShortTestTimeout is for a single asynchronous delivery.
	ShortTestTimeout = 1 * time.Second

	// PollInterval is how often WaitUntil re-checks its condition.
	PollInterval = 5 * time.Millisecond
)

// WaitForChannel waits for a signal on the channel or fails after timeout.
func WaitForChannel(t *testing.T, ch <-chan struct{}, timeout time.Duration, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		require.Fail(t, msg)
	}
}

// Receive returns the next value from ch or fails after timeout.
func Receive[T any](t *testing.T, ch <-chan T, timeout time.Duration, msg string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		require.Fail(t, msg)
	}
	var zero T
	return zero
}

// WaitUntil polls cond until it holds or ShortTestTimeout passes.
func WaitUntil(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, ShortTestTimeout, PollInterval, msg)
}
