// Package queue implements the ordered task structures the scheduler tick
// loop reads and mutates every cycle: a per-core ready queue ordered by
// period (rate-monotonic priority) and a single global wait queue ordered by
// next release time.
package queue

import (
	"sort"

	"github.com/sdsouza/rtsim/internal/sched/task"
)

// KeyFunc extracts the ordering key for a task: period for a ready queue,
// arrival time for the wait queue.
type KeyFunc func(*task.Task) int64

// Index is an ordered multiset of task handles, kept as a key-sorted slice
// with insertion order as a stable tiebreaker. The reference implementation
// uses a red-black tree; rtsim's taskset sizes are bounded (on the order of
// tens of tasks per core), so a sorted slice gives the same ordering
// guarantees — O(log n) search, stable ties, in-order traversal — without
// the bookkeeping of a balanced tree. See DESIGN.md for why no third-party
// ordered-container library was used instead.
type Index struct {
	keyFn   KeyFunc
	entries []entry
	loc     map[*task.Task]entry
	nextSeq int64
}

type entry struct {
	t   *task.Task
	key int64
	seq int64
}

func less(a, b entry) bool {
	if a.key != b.key {
		return a.key < b.key
	}
	return a.seq < b.seq
}

// New creates an empty Index ordered by keyFn.
func New(keyFn KeyFunc) *Index {
	return &Index{
		keyFn: keyFn,
		loc:   make(map[*task.Task]entry),
	}
}

// Insert adds t to the index. Stable with respect to earlier-inserted
// elements that compare equal under keyFn.
func (idx *Index) Insert(t *task.Task) {
	e := entry{t: t, key: idx.keyFn(t), seq: idx.nextSeq}
	idx.nextSeq++
	i := sort.Search(len(idx.entries), func(i int) bool { return !less(idx.entries[i], e) })
	idx.entries = append(idx.entries, entry{})
	copy(idx.entries[i+1:], idx.entries[i:])
	idx.entries[i] = e
	idx.loc[t] = e
}

// Remove deletes the exact handle t from the index. A no-op if t is not a
// member.
func (idx *Index) Remove(t *task.Task) {
	e, ok := idx.loc[t]
	if !ok {
		return
	}
	i := idx.search(e)
	if i < len(idx.entries) && idx.entries[i].t == t {
		idx.entries = append(idx.entries[:i], idx.entries[i+1:]...)
	}
	delete(idx.loc, t)
}

// search returns the index of e within entries, assuming e (or an entry with
// the same key/seq) is present.
func (idx *Index) search(e entry) int {
	return sort.Search(len(idx.entries), func(i int) bool { return !less(idx.entries[i], e) })
}

// First returns the minimum-key element, or (nil, false) if the index is
// empty.
func (idx *Index) First() (*task.Task, bool) {
	if len(idx.entries) == 0 {
		return nil, false
	}
	return idx.entries[0].t, true
}

// Next returns the in-order successor of t, or (nil, false) if t is the last
// element or not a member.
func (idx *Index) Next(t *task.Task) (*task.Task, bool) {
	e, ok := idx.loc[t]
	if !ok {
		return nil, false
	}
	i := idx.search(e)
	if i+1 >= len(idx.entries) {
		return nil, false
	}
	return idx.entries[i+1].t, true
}

// Clear drops all membership without touching the underlying tasks.
func (idx *Index) Clear() {
	idx.entries = idx.entries[:0]
	idx.loc = make(map[*task.Task]entry)
}

// Len reports the number of members.
func (idx *Index) Len() int { return len(idx.entries) }

// Contains reports whether t is currently a member.
func (idx *Index) Contains(t *task.Task) bool {
	_, ok := idx.loc[t]
	return ok
}

// Tasks returns the members in ascending key order. The returned slice is a
// copy; mutating it does not affect the index.
func (idx *Index) Tasks() []*task.Task {
	out := make([]*task.Task, len(idx.entries))
	for i, e := range idx.entries {
		out[i] = e.t
	}
	return out
}
