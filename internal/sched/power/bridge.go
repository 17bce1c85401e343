package power

import (
	"context"

	"github.com/sdsouza/rtsim/internal/sched/thermal"
)

// Bridge is the thin adapter between the scheduler engine and the thermal
// solver: each tick it hands the per-core power vector to the solver and
// the solver writes back the per-core temperatures used to index the power
// table on the following tick.
type Bridge struct {
	solver    thermal.Solver
	stepSizeS float64
}

// NewBridge wraps solver, stepping it at stepSizeSeconds per tick.
func NewBridge(solver thermal.Solver, stepSizeSeconds float64) *Bridge {
	return &Bridge{solver: solver, stepSizeS: stepSizeSeconds}
}

// Step advances the thermal model by one tick, updating temperature in
// place.
func (b *Bridge) Step(ctx context.Context, power []float64, temperature []float64) error {
	return b.solver.Step(ctx, b.stepSizeS, power, temperature)
}
