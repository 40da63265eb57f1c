package core

import "sync"

// Invoker spawns a function for concurrent execution. It exists so the
// blocking stdin reader can run off the dispatcher goroutine while tests
// can still join every spawned goroutine deterministically before
// asserting, mirroring the teacher's core.Invoker / InvokerInstance split
// (pkg/mcast/core/peer.go, pkg/mcast/core/transport.go) and its test-only
// WaitGroup invoker (test/testing.go's TestInvoker).
type Invoker interface {
	Spawn(f func())
}

// goroutineInvoker is the production Invoker: every Spawn call runs on its
// own goroutine with no further bookkeeping.
type goroutineInvoker struct{}

func (goroutineInvoker) Spawn(f func()) {
	go f()
}

var defaultInvoker Invoker = goroutineInvoker{}

// InvokerInstance returns the process-wide production invoker.
func InvokerInstance() Invoker {
	return defaultInvoker
}

// WaitGroupInvoker is a test Invoker that joins every spawned goroutine on
// Wait, so tests can assert no goroutine is left running (paired with
// goleak.VerifyNone in the runtime's own tests).
type WaitGroupInvoker struct {
	wg sync.WaitGroup
}

// NewWaitGroupInvoker returns a fresh WaitGroupInvoker.
func NewWaitGroupInvoker() *WaitGroupInvoker {
	return &WaitGroupInvoker{}
}

func (w *WaitGroupInvoker) Spawn(f func()) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		f()
	}()
}

// Wait blocks until every spawned function has returned.
func (w *WaitGroupInvoker) Wait() {
	w.wg.Wait()
}
