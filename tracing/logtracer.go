package tracing

import (
	"log"
)

// LogTracer prints one line per transaction.
type LogTracer struct {
	*log.Logger

	failuresOnly bool
}

// NewLogTracer creates a LogTracer that writes with the given logger.
func NewLogTracer(logger *log.Logger) *LogTracer {
	return &LogTracer{Logger: logger}
}

// FailuresOnly makes the tracer skip successful transactions.
func (t *LogTracer) FailuresOnly() *LogTracer {
	t.failuresOnly = true
	return t
}

// Func logs the access.
func (t *LogTracer) Func(ctx HookCtx) {
	access, ok := accessFromCtx(ctx)
	if !ok {
		return
	}

	if access.Failed() {
		t.Printf("%s failed: %v", access.Txn, access.Err)
		return
	}

	if t.failuresOnly {
		return
	}

	t.Printf("%s eff=0x%08x lane=%d width=%d",
		access.Txn, access.EffectiveAddress, access.Lane, access.Width)
}
