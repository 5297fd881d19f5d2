// Package tracing observes the transactions served by the decode engine.
//
// The engine is Hookable. Every Hook registered on it is called once per
// transaction with a HookCtx whose Item is an Access record. Tracers in
// this package log, count, or store those records.
package tracing

// HookPos names a point at which hooks run.
type HookPos struct {
	Name string
}

// HookPosAccessDone is reached after a transaction completes, successfully
// or not.
var HookPosAccessDone = &HookPos{Name: "AccessDone"}

// HookCtx is passed to every hook invocation.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable is anything hooks can be attached to.
type Hookable interface {
	AcceptHook(hook Hook)
}

// Hook is called by the Hookable it is attached to.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc lets a plain function serve as a Hook.
type HookFunc func(ctx HookCtx)

// Func calls f(ctx).
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// HookableBase keeps the hook list for types that embed it. Hooks must be
// attached before the owner starts serving.
type HookableBase struct {
	Hooks []Hook
}

// NewHookableBase returns an empty HookableBase.
func NewHookableBase() *HookableBase {
	return &HookableBase{Hooks: make([]Hook, 0)}
}

// AcceptHook attaches a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// NumHooks returns how many hooks are attached.
func (h *HookableBase) NumHooks() int {
	return len(h.Hooks)
}

// InvokeHook calls every attached hook in the order they were attached.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
