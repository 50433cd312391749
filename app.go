package repcore

import "sync/atomic"

// memoryApp is the default App collaborator: a minimal in-memory
// stand-in for the replicated state machine, sufficient for the
// reconfiguration core's own tests and for callers that have not yet
// wired a real application. Grounded on the teacher's habit of backing
// every externally-owned collaborator with a small in-memory default
// (see log_in_memory_types.go for the same treatment of the log
// store).
type memoryApp struct {
	lastCommitted atomic.Uint64
	lastDurable   atomic.Uint64
}

func (a *memoryApp) LastCommittedDecree() Decree {
	return Decree(a.lastCommitted.Load())
}

func (a *memoryApp) LastDurableDecree() Decree {
	return Decree(a.lastDurable.Load())
}

// advance is exposed for tests that need to simulate write progress
// without a real application.
func (a *memoryApp) advance(committed, durable Decree) {
	a.lastCommitted.Store(uint64(committed))
	a.lastDurable.Store(uint64(durable))
}
