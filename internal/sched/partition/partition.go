// Package partition implements worst-fit-decreasing admission of a periodic
// taskset onto a fixed core fleet, plus the forced-sleep (ES-RHS+ / ES-RMS)
// sleeper derivation that rides along with admission when a policy needs it.
package partition

import (
	"sort"

	"github.com/sdsouza/rtsim/internal/sched/queue"
	"github.com/sdsouza/rtsim/internal/sched/task"
)

// TargetUtilization is the strict per-core utilization ceiling worst-fit
// admission enforces: a task is admitted only if u_task + u_core < TargetUtilization.
const TargetUtilization = 0.4

// Sleeper holds the forced-sleep schedule for one core: a periodic window of
// SleepingTime ticks, every SleepPeriod ticks, starting at SleepPhase.
type Sleeper struct {
	SleepPeriod  int64
	SleepPhase   int64
	SleepingTime int64
	TimeSlept    int64
	SleepingFlag bool
}

// Result is the outcome of Admit.
type Result struct {
	Admitted int
	// Sleepers holds one entry per core, populated only when Admit was
	// called with forceSleep=true.
	Sleepers []Sleeper
	// SleepTime is the (possibly halved) global forced-sleep duration to use
	// for idle-vs-deep-sleep thresholding elsewhere in the engine.
	SleepTime int64
}

// Admit places tasks onto cores with worst-fit-decreasing: tasks are visited
// in descending utilization order, each offered to the least-loaded core; a
// task is admitted iff it keeps that core strictly under TargetUtilization.
// The first rejection stops admission entirely — later tasks are never
// tried. Admitted tasks are pinned (Task.CPUID) and pushed onto qs's wait
// queue.
//
// When forceSleep is true (ES-RHS+ / ES-RMS), Admit additionally derives a
// per-core Sleeper: the admitted task with the smallest period on a core
// becomes that core's highest-priority task and is phase-aligned to 0; if
// any other task on the core has a period within 2x of the highest-priority
// task's, the core's sleep window is halved (and so, once, is the returned
// global sleepTimeTicks).
func Admit(tasks []*task.Task, numCores int, forceSleep bool, sleepTimeTicks int64, qs *queue.Set) Result {
	ordered := make([]*task.Task, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Utilization > ordered[j].Utilization
	})

	cpuUtil := make([]float64, numCores)
	wfdOrder := make([]int, numCores)
	for i := range wfdOrder {
		wfdOrder[i] = i
	}

	admitted := 0
	for _, t := range ordered {
		least := wfdOrder[0]
		if t.Utilization+cpuUtil[least] >= TargetUtilization {
			break
		}
		t.CPUID = least
		cpuUtil[least] += t.Utilization
		qs.AdmitToWait(t)
		admitted++

		for k := 0; k < numCores-1; k++ {
			if cpuUtil[wfdOrder[k]] > cpuUtil[wfdOrder[k+1]] {
				wfdOrder[k], wfdOrder[k+1] = wfdOrder[k+1], wfdOrder[k]
			} else {
				break
			}
		}
	}

	res := Result{Admitted: admitted, SleepTime: sleepTimeTicks}
	if !forceSleep {
		return res
	}

	admittedTasks := ordered[:admitted]
	highestPriority := make(map[int]*task.Task, numCores)
	for _, t := range admittedTasks {
		hp, ok := highestPriority[t.CPUID]
		if !ok || t.T < hp.T {
			highestPriority[t.CPUID] = t
		}
	}

	halve := make([]bool, numCores)
	for _, t := range admittedTasks {
		hp := highestPriority[t.CPUID]
		if hp != nil && t != hp && t.T <= 2*hp.T {
			halve[t.CPUID] = true
		}
	}

	anyHalve := false
	sleepers := make([]Sleeper, numCores)
	for c := 0; c < numCores; c++ {
		hp, ok := highestPriority[c]
		if !ok {
			continue
		}
		hp.ArrivalTime = 0
		s := Sleeper{SleepPhase: hp.ArrivalTime, TimeSlept: 0, SleepingFlag: false}
		if !halve[c] {
			s.SleepPeriod = hp.T
			s.SleepingTime = sleepTimeTicks
		} else {
			s.SleepPeriod = hp.T / 2
			s.SleepingTime = sleepTimeTicks / 2
			anyHalve = true
		}
		sleepers[c] = s
	}

	if anyHalve {
		res.SleepTime = sleepTimeTicks / 2
	}
	res.Sleepers = sleepers
	return res
}
