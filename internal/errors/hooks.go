package errors

import (
	"sync"
	"sync/atomic"
)

// ErrorHook is called for every EnhancedError built while registered.
// Hooks run synchronously on the building goroutine and must not block.
type ErrorHook func(ee *EnhancedError)

var (
	hooksMu        sync.RWMutex
	errorHooks     []ErrorHook
	hasActiveHooks atomic.Bool
)

// AddErrorHook registers a hook.
func AddErrorHook(hook ErrorHook) {
	if hook == nil {
		return
	}
	hooksMu.Lock()
	defer hooksMu.Unlock()
	errorHooks = append(errorHooks, hook)
	hasActiveHooks.Store(true)
}

// ClearErrorHooks removes all hooks.
func ClearErrorHooks() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	errorHooks = nil
	hasActiveHooks.Store(false)
}

func runHooks(ee *EnhancedError) {
	hooksMu.RLock()
	hooks := errorHooks
	hooksMu.RUnlock()

	for _, hook := range hooks {
		hook(ee)
	}
}
