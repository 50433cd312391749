package repcore

import (
	"sync"
	"time"

	"github.com/google/btree"
)

// learnerDeadline is one entry in the learner timeout index: node's
// learning session with the given signature must report back before
// deadline or it is considered stuck.
type learnerDeadline struct {
	deadline  time.Time
	node      NodeAddress
	signature LearnerSignature
}

// Less orders entries earliest-deadline-first, breaking ties by
// signature so two sessions can never compare equal and silently
// collide in the tree.
func (a learnerDeadline) Less(than btree.Item) bool {
	b := than.(learnerDeadline)
	if !a.deadline.Equal(b.deadline) {
		return a.deadline.Before(b.deadline)
	}
	return a.signature < b.signature
}

// learnerKey identifies one learning session, independent of its
// deadline.
type learnerKey struct {
	node      NodeAddress
	signature LearnerSignature
}

// learnerTimeoutIndex is a deadline-ordered index of in-flight learner
// sessions, in the shape of the teacher's mvcc.treeIndex
// (gyuho-db/mvcc/01_tree_index.go): a plain *btree.BTree guarded by an
// RWMutex. It backs PrimaryState.learners[node].timeout_handle (spec
// §3/§5) so a primary can cheaply find and evict the earliest stuck
// learner without scanning the whole learners map.
//
// btree.Delete locates the item to remove using the tree's Less order,
// which for learnerDeadline sorts on deadline first; a caller cancelling
// a session only knows its (node, signature), not the deadline it was
// scheduled with. deadlines tracks that mapping so cancel can rebuild
// the exact item the tree is holding before deleting it.
type learnerTimeoutIndex struct {
	mu        sync.RWMutex
	tree      *btree.BTree
	deadlines map[learnerKey]time.Time
}

func newLearnerTimeoutIndex() *learnerTimeoutIndex {
	return &learnerTimeoutIndex{tree: btree.New(8), deadlines: make(map[learnerKey]time.Time)}
}

// schedule arms (or re-arms) a learner's timeout.
func (idx *learnerTimeoutIndex) schedule(node NodeAddress, signature LearnerSignature, deadline time.Time) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	key := learnerKey{node: node, signature: signature}
	if prior, ok := idx.deadlines[key]; ok {
		idx.tree.Delete(learnerDeadline{deadline: prior, node: node, signature: signature})
	}
	idx.tree.ReplaceOrInsert(learnerDeadline{deadline: deadline, node: node, signature: signature})
	idx.deadlines[key] = deadline
}

// cancel removes a learner's timeout, e.g. once it is promoted or
// explicitly removed.
func (idx *learnerTimeoutIndex) cancel(node NodeAddress, signature LearnerSignature) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	key := learnerKey{node: node, signature: signature}
	deadline, ok := idx.deadlines[key]
	if !ok {
		return
	}
	idx.tree.Delete(learnerDeadline{deadline: deadline, node: node, signature: signature})
	delete(idx.deadlines, key)
}

// expired returns every entry whose deadline is at or before now, in
// deadline order, without removing them; the caller decides whether to
// cancel each after acting on it.
func (idx *learnerTimeoutIndex) expired(now time.Time) []learnerDeadline {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []learnerDeadline
	idx.tree.Ascend(func(item btree.Item) bool {
		d := item.(learnerDeadline)
		if d.deadline.After(now) {
			return false
		}
		out = append(out, d)
		return true
	})
	return out
}
