// Package sysclock implements the Sysclock per-core frequency-scaling
// planner: a response-time-style feasibility sweep at RMS scheduling points,
// snapped up to the nearest hardware-supported frequency.
package sysclock

import (
	"math"
	"sort"

	"github.com/sdsouza/rtsim/internal/sched/queue"
	"github.com/sdsouza/rtsim/internal/sched/task"
	"github.com/sdsouza/rtsim/pkg/system/util"
)

// Plan computes, for each of numCores cores, the smallest supported frequency
// scale factor in (0, 1] such that the admitted tasks on that core remain
// RMS-schedulable under WCET ceil(C/scale), plus the table frequency index
// that scale corresponds to. frequencies must be sorted ascending with at
// least one entry; the returned scale for core c is
// frequencies[idx[c]]/frequencies[last].
//
// Plan is a planning-only pass: it assumes every admitted task currently
// sits in qs's wait queue (the state immediately after partition.Admit), and
// restores that state before returning.
func Plan(qs *queue.Set, numCores int, frequencies []float64) (scale []float64, freqIndex []int) {
	moveAll(qs.Wait(), func(t *task.Task) *queue.Index { return qs.Ready(t.CPUID) })

	scale = make([]float64, numCores)
	freqIndex = make([]int, numCores)
	for c := 0; c < numCores; c++ {
		scale[c], freqIndex[c] = planCore(qs.Ready(c), frequencies)
	}

	for c := 0; c < numCores; c++ {
		moveAll(qs.Ready(c), func(*task.Task) *queue.Index { return qs.Wait() })
	}
	return scale, freqIndex
}

// moveAll drains every element of src into dst(t), in src's current order.
func moveAll(src *queue.Index, dst func(*task.Task) *queue.Index) {
	for {
		t, ok := src.First()
		if !ok {
			return
		}
		src.Remove(t)
		dst(t).Insert(t)
	}
}

func planCore(ready *queue.Index, frequencies []float64) (float64, int) {
	last := len(frequencies) - 1
	tasks := ready.Tasks() // ascending by T == RMS priority order
	if len(tasks) == 0 {
		return 1.0, last
	}

	tMax := tasks[len(tasks)-1].T
	points := schedulingPoints(tasks, tMax)

	sIdeal := 0.0
	for i, tau := range tasks {
		higher := tasks[:i]
		best := math.Inf(1)
		for _, d := range points {
			if d > tau.T {
				break
			}
			demand := tau.C
			for _, hp := range higher {
				demand += ceilDiv(d, hp.T) * hp.C
			}
			if v := float64(demand) / float64(d); v < best {
				best = v
			}
		}
		if best > sIdeal {
			sIdeal = best
		}
	}

	idealFreq := sIdeal * frequencies[last]
	s := frequencies[0] / frequencies[last]
	idx := 0
	for j := 0; j < last; j++ {
		if frequencies[j] < idealFreq {
			s = frequencies[j+1] / frequencies[last]
			idx = j + 1
		}
	}
	return util.Clamp01(s), idx
}

// schedulingPoints builds D = { k*T_i : 1<=k, k*T_i < tMax } U {tMax},
// deduplicated and sorted ascending.
func schedulingPoints(tasks []*task.Task, tMax int64) []int64 {
	set := make(map[int64]struct{})
	for _, t := range tasks {
		for k := int64(1); k*t.T < tMax; k++ {
			set[k*t.T] = struct{}{}
		}
	}
	set[tMax] = struct{}{}

	points := make([]int64, 0, len(set))
	for d := range set {
		points = append(points, d)
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })
	return points
}

func ceilDiv(n, d int64) int64 {
	return (n + d - 1) / d
}
