// Package thermal defines the RC thermal solver interface the scheduler
// engine drives once per tick, plus a standalone lumped-RC implementation
// that stands in for a real floorplan solver (out of scope — see spec §1's
// non-goal collaborators).
package thermal

import (
	"context"

	"github.com/sdsouza/rtsim/pkg/system/util"
)

// AmbientKelvin is the ambient temperature the lumped model relaxes toward
// in the absence of power, and the initial temperature of every core.
const AmbientKelvin = 300.0

// Solver is the thermal model interface the scheduler engine drives: per
// tick, it hands over the per-core power vector and reads back updated
// per-core temperatures.
type Solver interface {
	// Init loads floorplan and initial-condition state. flpFile, initFile,
	// and steadyFile name the floorplan, initial-temperature, and
	// steady-state-dump files respectively; any may be empty to use solver
	// defaults.
	Init(flpFile, initFile, steadyFile string) error
	// Step advances the model by dtSeconds and writes the resulting
	// per-core temperatures (Kelvin) into temperature, which must have the
	// same length as power.
	Step(ctx context.Context, dtSeconds float64, power []float64, temperature []float64) error
	// Exit releases solver state, optionally persisting steady-state
	// temperatures to the file named in the prior Init call.
	Exit() error
}

// LumpedRC is a first-order lumped thermal-RC model per core:
// dT/dt = (P*Rth - (T - Tambient)) / (Rth*Cth), integrated with explicit
// Euler at the tick's dt. It is not a floorplan solver — there is no
// inter-core heat transfer term — but it gives PowerTempBridge a real,
// deterministic callee so the power/temperature feedback loop in the engine
// can be exercised and tested end to end.
type LumpedRC struct {
	rth, cth float64
	steady   []float64
}

// NewLumpedRC builds a LumpedRC model with the given per-core thermal
// resistance (K/W) and capacitance (J/K).
func NewLumpedRC(rth, cth float64) *LumpedRC {
	return &LumpedRC{rth: rth, cth: cth}
}

// Init is a no-op for LumpedRC: it has no floorplan to load. The file
// arguments are accepted only to satisfy Solver.
func (m *LumpedRC) Init(_, _, _ string) error { return nil }

// Step advances every core's temperature by dtSeconds.
func (m *LumpedRC) Step(_ context.Context, dtSeconds float64, power []float64, temperature []float64) error {
	for i := range temperature {
		p := power[i]
		t := temperature[i]
		dT := util.SafeDiv(p*m.rth-(t-AmbientKelvin), m.rth*m.cth)
		temperature[i] = t + dtSeconds*dT
	}
	m.steady = append([]float64(nil), temperature...)
	return nil
}

// Exit is a no-op for LumpedRC: Step already keeps the per-core
// temperatures of the last step, which Steady returns.
func (m *LumpedRC) Exit() error { return nil }

// Steady returns the per-core temperatures as of the last Step call.
func (m *LumpedRC) Steady() []float64 { return m.steady }
