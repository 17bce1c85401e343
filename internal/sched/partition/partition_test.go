package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdsouza/rtsim/internal/sched/queue"
	"github.com/sdsouza/rtsim/internal/sched/task"
)

// S1: single core, 2 tasks, no sleep. A: C=1,T=5 (u=0.2); B: C=1,T=4
// (u=0.25). Descending-utilization order visits B first: uB=0.25 fits under
// the strict 0.4 ceiling; uB+uA=0.45 does not, so only B fits.
func TestAdmitSingleCoreOnlyOneFits(t *testing.T) {
	a := task.New(0, 1, 5, 1)
	b := task.New(1, 1, 4, 1)
	qs := queue.NewSet(1)

	res := Admit([]*task.Task{a, b}, 1, false, 0, qs)

	require.Equal(t, 1, res.Admitted)
	assert.Equal(t, 0, b.CPUID)
	assert.Equal(t, task.Unassigned, a.CPUID)

	qs.ReleaseReady(0)
	first, ok := qs.Ready(0).First()
	require.True(t, ok)
	assert.Equal(t, b, first)
}

// S6: 4 cores, 4 identical-utilization tasks; placement must cycle cores
// 0->1->2->3 in ascending index among equal utilization.
func TestAdmitWFDTieBreakCyclesCores(t *testing.T) {
	tasks := make([]*task.Task, 4)
	for i := range tasks {
		tasks[i] = task.New(i, 1, 10, 1) // u = 0.1 each
	}
	qs := queue.NewSet(4)

	res := Admit(tasks, 4, false, 0, qs)

	require.Equal(t, 4, res.Admitted)
	for i, tau := range tasks {
		assert.Equal(t, i, tau.CPUID)
	}
}

func TestAdmitStopsOnFirstRejection(t *testing.T) {
	// Both tasks have u=0.3 on a single core: first admits (0.3 < 0.4),
	// second would push to 0.6 so admission stops even though a later,
	// smaller task might have fit.
	a := task.New(0, 3, 10, 1)
	b := task.New(1, 3, 10, 1)
	qs := queue.NewSet(1)

	res := Admit([]*task.Task{a, b}, 1, false, 0, qs)
	assert.Equal(t, 1, res.Admitted)
}

func TestAdmitForceSleepDerivesSleepers(t *testing.T) {
	// Core 0: hp has T=10, a second task has T=15 (<= 2*10) -> halve.
	hp := task.New(0, 1, 10, 1)
	other := task.New(1, 1, 15, 1)
	qs := queue.NewSet(1)

	res := Admit([]*task.Task{hp, other}, 1, true, 100, qs)

	require.Len(t, res.Sleepers, 1)
	s := res.Sleepers[0]
	assert.Equal(t, int64(5), s.SleepPeriod) // 10/2
	assert.Equal(t, int64(50), s.SleepingTime)
	assert.Equal(t, int64(50), res.SleepTime)
	assert.Equal(t, int64(0), hp.ArrivalTime)
}

func TestAdmitForceSleepNoHalveWhenPeriodsFar(t *testing.T) {
	hp := task.New(0, 1, 10, 1)
	qs := queue.NewSet(1)

	res := Admit([]*task.Task{hp}, 1, true, 100, qs)

	require.Len(t, res.Sleepers, 1)
	assert.Equal(t, int64(10), res.Sleepers[0].SleepPeriod)
	assert.Equal(t, int64(100), res.Sleepers[0].SleepingTime)
	assert.Equal(t, int64(100), res.SleepTime)
}
