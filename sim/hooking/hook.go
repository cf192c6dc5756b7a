// Package hooking lets observers attach to the points of a simulation run
// where something happens.
package hooking

import (
	"reflect"
	"sync"
)

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookCtx is the context that holds all the information about the site that a
// hook is triggered.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable defines an object that accept Hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// Hooks returns all the hooks registered.
	Hooks() []Hook
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// HookFunc turns a plain function into a Hook. Each HookFunc is a distinct
// hook, so the same function can be registered and removed more than once.
type HookFunc struct {
	f func(ctx HookCtx)
}

// NewHookFunc wraps f into a Hook.
func NewHookFunc(f func(ctx HookCtx)) *HookFunc {
	return &HookFunc{f: f}
}

// Func calls the wrapped function.
func (h *HookFunc) Func(ctx HookCtx) {
	h.f(ctx)
}

// A HookableBase provides some utility function for other type that implement
// the Hookable interface. Hooks may be registered while another goroutine is
// invoking them.
type HookableBase struct {
	lock     sync.RWMutex
	hookList []Hook
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	h.lock.RLock()
	defer h.lock.RUnlock()

	return len(h.hookList)
}

// Hooks returns all the hooks registered.
func (h *HookableBase) Hooks() []Hook {
	h.lock.RLock()
	defer h.lock.RUnlock()

	hooks := make([]Hook, len(h.hookList))
	copy(hooks, h.hookList)

	return hooks
}

// AcceptHook register a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.mustNotHaveDuplicatedHook(hook)
	h.hookList = append(h.hookList, hook)
}

// RemoveHook unregisters a hook. Removing a hook that is not registered does
// nothing.
func (h *HookableBase) RemoveHook(hook Hook) {
	h.lock.Lock()
	defer h.lock.Unlock()

	for i, registered := range h.hookList {
		if sameHook(registered, hook) {
			h.hookList = append(h.hookList[:i:i], h.hookList[i+1:]...)
			return
		}
	}
}

func (h *HookableBase) mustNotHaveDuplicatedHook(hook Hook) {
	for _, registered := range h.hookList {
		if sameHook(registered, hook) {
			panic("duplicated hook")
		}
	}
}

// sameHook compares hooks by identity. Hooks of types that cannot be compared
// are never the same.
func sameHook(a, b Hook) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}

	return a == b
}

// InvokeHook triggers the register Hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	h.lock.RLock()
	hooks := h.hookList
	h.lock.RUnlock()

	for _, hook := range hooks {
		hook.Func(ctx)
	}
}
