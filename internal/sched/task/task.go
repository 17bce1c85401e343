// Package task defines the periodic task model shared by every scheduling
// policy in rtsim: worst-case execution time, period, admission state, and
// the per-tick bookkeeping the scheduler engine mutates.
package task

import "fmt"

// MultFactor is the fixed-point scaling applied to every millisecond-valued
// input (period, WCET, phase, sleep period/duration) on ingest. One
// millisecond is MultFactor simulator ticks.
const MultFactor = 100

// PowerFolders is the number of power-profile slices the lookup table is
// indexed by (pkg power/table.go).
const PowerFolders = 11

// Unassigned marks a task that has not yet been admitted to a core.
const Unassigned = -1

// Task is one periodic job stream. C, T, ArrivalTime, and TimeExecuted are
// all expressed in ticks (see MultFactor). A Task is owned by the fleet for
// the entire run; queue membership is tracked by the OrderedTaskIndex that
// currently holds it, never by a field on Task itself.
type Task struct {
	PID         int
	C           int64 // worst-case execution time, ticks, C >= 1
	T           int64 // period == relative deadline, ticks, T >= C
	Utilization float64
	ArrivalTime int64 // next release tick, monotonically non-decreasing
	TimeExecuted int64 // ticks executed so far in the current period
	PowerFolder int    // power-profile slice in [1, PowerFolders]
	CPUID       int    // core pinned to after admission; Unassigned before
}

// New constructs a Task with utilization derived from C and T. It panics if
// the C <= T invariant is violated, since that can only happen from a
// programming error in a taskset source, never from user input reaching
// this constructor untested.
func New(pid int, c, t int64, powerFolder int) *Task {
	if c <= 0 || t <= 0 || c > t {
		panic(fmt.Sprintf("task: invalid C=%d T=%d for pid %d (require 0 < C <= T)", c, t, pid))
	}
	return &Task{
		PID:         pid,
		C:           c,
		T:           t,
		Utilization: float64(c) / float64(t),
		ArrivalTime: 0,
		CPUID:       Unassigned,
		PowerFolder: powerFolder,
	}
}

// DeadlineMissed reports whether, at tick now, this task has missed its
// current deadline: the job released at ArrivalTime has not finished
// effectiveC ticks of work by its deadline ArrivalTime+T.
func (t *Task) DeadlineMissed(now, effectiveC int64) bool {
	return now >= t.ArrivalTime+t.T && t.TimeExecuted < effectiveC
}

// Release advances the task to its next period: resets TimeExecuted and
// bumps ArrivalTime by T. Called once a job completes effectiveC ticks of
// execution.
func (t *Task) Release() {
	t.ArrivalTime += t.T
	t.TimeExecuted = 0
}

// String renders a short diagnostic form, e.g. for admission logging.
func (t *Task) String() string {
	return fmt.Sprintf("task{pid=%d C=%d T=%d u=%.3f cpu=%d}", t.PID, t.C, t.T, t.Utilization, t.CPUID)
}
