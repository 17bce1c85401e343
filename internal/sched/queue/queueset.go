package queue

import "github.com/sdsouza/rtsim/internal/sched/task"

// Set owns one ready Index per core (keyed by period T) and a single wait
// Index (keyed by arrival time). It is the only place task membership moves
// between "waiting for release" and "eligible to run on core c".
type Set struct {
	ready []*Index
	wait  *Index
}

// NewSet allocates a Set for numCores cores.
func NewSet(numCores int) *Set {
	ready := make([]*Index, numCores)
	for i := range ready {
		ready[i] = New(func(t *task.Task) int64 { return t.T })
	}
	return &Set{
		ready: ready,
		wait:  New(func(t *task.Task) int64 { return t.ArrivalTime }),
	}
}

// Ready returns the ready queue for core c.
func (s *Set) Ready(c int) *Index { return s.ready[c] }

// Wait returns the global wait queue.
func (s *Set) Wait() *Index { return s.wait }

// NumCores reports the number of per-core ready queues.
func (s *Set) NumCores() int { return len(s.ready) }

// AdmitToWait inserts a task into the wait queue: at admission, for
// file-imported tasks, and by the engine when a job completes and its task
// waits for its next release.
func (s *Set) AdmitToWait(t *task.Task) { s.wait.Insert(t) }

// ReleaseReady moves every task in the wait queue with ArrivalTime <= now
// into the ready queue of its pinned core. The wait queue is traversed in
// ascending arrival-time order and traversal stops at the first task with
// ArrivalTime > now, per the wait queue's own ordering invariant.
func (s *Set) ReleaseReady(now int64) {
	t, ok := s.wait.First()
	for ok && t.ArrivalTime <= now {
		next, hasNext := s.wait.Next(t)
		s.wait.Remove(t)
		s.ready[t.CPUID].Insert(t)
		t, ok = next, hasNext
	}
}

// ReturnAllToWait moves every ready task back into the wait queue,
// normalizing ArrivalTime to ArrivalTime mod T and resetting TimeExecuted to
// 0. Used between runs to restore a clean initial state.
func (s *Set) ReturnAllToWait() {
	for _, rq := range s.ready {
		for {
			t, ok := rq.First()
			if !ok {
				break
			}
			rq.Remove(t)
			t.ArrivalTime = t.ArrivalTime % t.T
			t.TimeExecuted = 0
			s.wait.Insert(t)
		}
	}
}

// ClearWait removes all tasks from the wait queue without touching ready
// queues.
func (s *Set) ClearWait() { s.wait.Clear() }
