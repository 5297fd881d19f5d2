package tracing

import (
	"github.com/sarchlab/memmodel/mem"
)

// An Access describes one served transaction together with how the engine
// decoded it.
type Access struct {
	Txn mem.Transaction

	// EffectiveAddress is the address handed to the storage.
	EffectiveAddress uint32
	Lane             uint8
	Width            int
	Err              error
}

// Failed tells if the storage or the engine rejected the transaction.
func (a Access) Failed() bool {
	return a.Err != nil
}

// NamedHookable is a hookable domain that can also invoke its hooks.
type NamedHookable interface {
	Hookable
	InvokeHook(HookCtx)
	NumHooks() int
}

// NotifyAccess invokes the hooks of the domain with the access record. It
// skips building the context when nothing is listening.
func NotifyAccess(domain NamedHookable, access Access) {
	if domain.NumHooks() == 0 {
		return
	}

	domain.InvokeHook(HookCtx{
		Domain: domain,
		Pos:    HookPosAccessDone,
		Item:   access,
	})
}

func accessFromCtx(ctx HookCtx) (Access, bool) {
	if ctx.Pos != HookPosAccessDone {
		return Access{}, false
	}

	access, ok := ctx.Item.(Access)

	return access, ok
}
