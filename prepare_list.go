package repcore

import "sync"

// memoryPrepareList is a mutex-guarded map implementation of
// PrepareList, in the shape of the teacher's LogInMemory
// (log_in_memory_types.go): a plain map protected by an RWMutex rather
// than a ring buffer or on-disk structure, since the durable mutation
// log itself is out of scope for this core (spec §1).
type memoryPrepareList struct {
	mu sync.RWMutex

	entries      map[Decree]*Mutation
	maxDecree    Decree
	lastCommitted Decree
}

// newMemoryPrepareList returns an empty prepare list armed at decree
// lastCommitted.
func newMemoryPrepareList(lastCommitted Decree) *memoryPrepareList {
	return &memoryPrepareList{
		entries:       make(map[Decree]*Mutation),
		maxDecree:     lastCommitted,
		lastCommitted: lastCommitted,
	}
}

func (l *memoryPrepareList) MaxDecree() Decree {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.maxDecree
}

func (l *memoryPrepareList) LastCommittedDecree() Decree {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastCommitted
}

func (l *memoryPrepareList) Truncate(decree Decree) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for d := range l.entries {
		if d > decree {
			delete(l.entries, d)
		}
	}
	if l.maxDecree > decree {
		l.maxDecree = decree
	}
	l.lastCommitted = decree
}

func (l *memoryPrepareList) Reset(decree Decree) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[Decree]*Mutation)
	l.maxDecree = decree
	l.lastCommitted = decree
}

func (l *memoryPrepareList) GetMutationByDecree(decree Decree) *Mutation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[decree]
}

// put records a mutation, used by replay_prepare_list's callers and
// tests to seed fixtures. Not part of the PrepareList interface: only
// the replica's own prepare path would call this in a full write-path
// implementation.
func (l *memoryPrepareList) put(m *Mutation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[m.Decree] = m
	if m.Decree > l.maxDecree {
		l.maxDecree = m.Decree
	}
}
