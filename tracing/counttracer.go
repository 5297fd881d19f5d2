package tracing

import (
	"sync"

	"github.com/sarchlab/memmodel/mem"
)

// Counts summarizes the transactions a CountTracer has seen.
type Counts struct {
	Reads    uint64            `json:"reads"`
	Writes   uint64            `json:"writes"`
	Failures uint64            `json:"failures"`
	ByWidth  map[int]uint64    `json:"by_width"`
	ByNode   map[uint32]uint64 `json:"by_node"`
}

// CountTracer counts transactions by kind, width, and node. It can be shared
// by engines running in different goroutines.
type CountTracer struct {
	lock   sync.Mutex
	counts Counts
}

// NewCountTracer creates a CountTracer.
func NewCountTracer() *CountTracer {
	return &CountTracer{
		counts: Counts{
			ByWidth: make(map[int]uint64),
			ByNode:  make(map[uint32]uint64),
		},
	}
}

// Func counts the access.
func (t *CountTracer) Func(ctx HookCtx) {
	access, ok := accessFromCtx(ctx)
	if !ok {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if access.Failed() {
		t.counts.Failures++
		return
	}

	switch access.Txn.Kind {
	case mem.AccessRead:
		t.counts.Reads++
	case mem.AccessWrite:
		t.counts.Writes++
	}

	t.counts.ByWidth[access.Width]++
	t.counts.ByNode[access.Txn.Node]++
}

// Counts returns a copy of the current counts.
func (t *CountTracer) Counts() Counts {
	t.lock.Lock()
	defer t.lock.Unlock()

	c := t.counts
	c.ByWidth = make(map[int]uint64, len(t.counts.ByWidth))
	c.ByNode = make(map[uint32]uint64, len(t.counts.ByNode))

	for k, v := range t.counts.ByWidth {
		c.ByWidth[k] = v
	}

	for k, v := range t.counts.ByNode {
		c.ByNode[k] = v
	}

	return c
}
