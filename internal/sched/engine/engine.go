// Package engine drives the per-tick scheduling decision for every core:
// release, execute-or-idle-or-sleep, deadline bookkeeping, and the
// power/temperature trace that falls out of it. It is the one place the
// four scheduling policies (RMS, Sysclock, ES-RHS+, ES-RMS) actually differ.
package engine

import (
	"context"
	"math"

	"github.com/sdsouza/rtsim/internal/sched/partition"
	"github.com/sdsouza/rtsim/internal/sched/power"
	"github.com/sdsouza/rtsim/internal/sched/queue"
	"github.com/sdsouza/rtsim/internal/sched/task"
)

// Policy selects which decision function drives every core each tick.
type Policy int

const (
	RMS Policy = iota
	Sysclock
	ESRHSP
	ESRMS
)

func (p Policy) String() string {
	switch p {
	case RMS:
		return "rms"
	case Sysclock:
		return "sysclock"
	case ESRHSP:
		return "es-rhs+"
	case ESRMS:
		return "es-rms"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a policy's per-core, per-tick choice.
type Decision int

const (
	Exec Decision = iota
	Idle
	Sleep
)

// DeadlineMiss records one non-fatal deadline overrun, observed at Tick for
// task PID on Core.
type DeadlineMiss struct {
	Tick int64
	PID  int
	Core int
}

// Config carries everything a Simulation needs that does not change once a
// run starts.
type Config struct {
	NumCores  int
	Policy    Policy
	SyncSleep bool
	IdlePower float64

	// GlobalSleepTime is the forced-sleep threshold (ticks) used by the RMS
	// idle-vs-sleep choice and the ES-RMS deep-sleep-vs-idle choice.
	GlobalSleepTime int64

	// Frequencies is the ascending supported-frequency table; freq(policy,
	// c) indexes into it.
	Frequencies []float64
	// FreqIndex and Scale are populated per core for Sysclock runs only
	// (sysclock.Plan's output).
	FreqIndex []int
	Scale     []float64

	PowerTable         power.Table
	Bridge             *power.Bridge
	InitialTemperature float64
}

// Simulation is one scheduling run: the queues, the per-core forced/idle
// sleep state, and the power/temperature buffers the tick loop mutates.
// Allocated once per run, as the source's global run_queue/wait_q/sleeper
// state would be.
type Simulation struct {
	cfg Config
	qs  *queue.Set

	// sleepers holds, per core, either the ES-RHS+/ES-RMS forced-sleep
	// schedule (SleepPeriod/SleepPhase/SleepingTime from partition.Admit) or
	// the RMS/Sysclock idle-sleeper bookkeeping (only SleepingTime/
	// TimeSlept/SleepingFlag are meaningful there; SleepPeriod/SleepPhase
	// stay zero and unused).
	sleepers []partition.Sleeper

	extraSleep    []int64
	deepSleepFlag []bool

	temperature []float64
	power       []float64

	utilizedCycles []int64
	deadlineMisses []DeadlineMiss
}

// New allocates a Simulation for cfg over qs. qs must already have
// NumCores == cfg.NumCores ready queues (queue.NewSet's contract).
func New(cfg Config, qs *queue.Set) (*Simulation, error) {
	if cfg.NumCores <= 0 || qs.NumCores() != cfg.NumCores {
		return nil, ErrAllocation
	}
	if len(cfg.Frequencies) == 0 {
		return nil, ErrAllocation
	}
	if cfg.Policy == Sysclock && (len(cfg.FreqIndex) != cfg.NumCores || len(cfg.Scale) != cfg.NumCores) {
		return nil, ErrFrequencyTable
	}

	temperature := make([]float64, cfg.NumCores)
	for i := range temperature {
		temperature[i] = cfg.InitialTemperature
	}

	return &Simulation{
		cfg:            cfg,
		qs:             qs,
		sleepers:       make([]partition.Sleeper, cfg.NumCores),
		extraSleep:     make([]int64, cfg.NumCores),
		deepSleepFlag:  make([]bool, cfg.NumCores),
		temperature:    temperature,
		power:          make([]float64, cfg.NumCores),
		utilizedCycles: make([]int64, cfg.NumCores),
	}, nil
}

// SetSleepers installs the forced-sleep schedule partition.Admit derived
// (ES-RHS+ / ES-RMS only); a no-op core (nil highest-priority task) keeps
// its zero Sleeper, which the decision functions treat as having no
// forced-sleep window (idle ticks on that core can still be Sleep).
func (s *Simulation) SetSleepers(sleepers []partition.Sleeper) {
	copy(s.sleepers, sleepers)
}

// DeadlineMisses returns every deadline miss observed so far, in tick order.
func (s *Simulation) DeadlineMisses() []DeadlineMiss { return s.deadlineMisses }

// UtilizedCycles returns, per core, the number of ticks spent executing.
func (s *Simulation) UtilizedCycles() []int64 { return s.utilizedCycles }

// Run advances the simulation nTicks ticks. powerTrace and temperatureTrace,
// if non-nil, must be [NumCores][nTicks] and receive the per-tick values; ctx
// is checked only between ticks, never mid-tick (§5: no operation blocks or
// is interrupted mid-cycle).
func (s *Simulation) Run(ctx context.Context, nTicks int64, powerTrace, temperatureTrace [][]float64) error {
	for tick := int64(0); tick < nTicks; tick++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.qs.ReleaseReady(tick)

		for c := 0; c < s.cfg.NumCores; c++ {
			s.tickCore(tick, c)
		}

		if s.cfg.SyncSleep {
			s.applySyncSleep()
		}

		for c := 0; c < s.cfg.NumCores; c++ {
			if powerTrace != nil {
				powerTrace[c][tick] = s.power[c]
			}
			if temperatureTrace != nil {
				temperatureTrace[c][tick] = s.temperature[c]
			}
		}

		if s.cfg.Bridge != nil {
			if err := s.cfg.Bridge.Step(ctx, s.power, s.temperature); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Simulation) tickCore(tick int64, c int) {
	_, hasTau := s.qs.Ready(c).First()

	var decision Decision
	switch s.cfg.Policy {
	case RMS, Sysclock:
		decision = s.decideRMS(tick, c, hasTau)
	case ESRHSP:
		decision = s.decideESRHSP(tick, c, hasTau)
	case ESRMS:
		decision = s.decideESRMS(tick, c, hasTau)
	}

	switch decision {
	case Exec:
		tau, _ := s.qs.Ready(c).First()
		s.execute(tick, c, tau)
	case Idle:
		s.power[c] = s.cfg.IdlePower
	case Sleep:
		s.power[c] = 0
	}
}

// execute runs tau one more tick on core c: bookkeeping, deadline check,
// completion-and-release, and the power-table lookup for the tick.
func (s *Simulation) execute(tick int64, c int, tau *task.Task) {
	tau.TimeExecuted++
	s.utilizedCycles[c]++
	effC := s.effectiveC(tau, c)

	if tau.DeadlineMissed(tick, effC) {
		s.deadlineMisses = append(s.deadlineMisses, DeadlineMiss{Tick: tick, PID: tau.PID, Core: c})
	}

	if tau.TimeExecuted == effC {
		s.qs.Ready(c).Remove(tau)
		tau.Release()
		s.qs.AdmitToWait(tau)
	}

	corePower, _ := s.cfg.PowerTable.Lookup(tau.PowerFolder, s.freqIndex(c), power.TemperatureIndex(s.temperature[c]))
	s.power[c] = corePower
}

// effectiveC is tau.C under every policy except Sysclock, where the WCET is
// inflated by the core's frequency scale: ceil(C / scale[c]).
func (s *Simulation) effectiveC(tau *task.Task, c int) int64 {
	if s.cfg.Policy != Sysclock {
		return tau.C
	}
	return int64(math.Ceil(float64(tau.C) / s.cfg.Scale[c]))
}

// freqIndex is the table frequency index used for this tick's power lookup:
// the top supported frequency for every policy except Sysclock, which uses
// the per-core index sysclock.Plan chose.
func (s *Simulation) freqIndex(c int) int {
	if s.cfg.Policy != Sysclock {
		return len(s.cfg.Frequencies) - 1
	}
	return s.cfg.FreqIndex[c]
}

// nextWaitingOnCore scans the wait queue in ascending arrival-time order and
// returns the first task pinned to core c, or nil if none remain.
func (s *Simulation) nextWaitingOnCore(c int) *task.Task {
	w := s.qs.Wait()
	t, ok := w.First()
	for ok {
		if t.CPUID == c {
			return t
		}
		t, ok = w.Next(t)
	}
	return nil
}

// applySyncSleep implements §4.6: isolated sleep is not profitable, so a
// core reporting zero power is forced to IdlePower unless every core slept
// this tick.
func (s *Simulation) applySyncSleep() {
	allSleep := true
	for _, p := range s.power {
		if p != 0 {
			allSleep = false
			break
		}
	}
	if allSleep {
		return
	}
	for c := range s.power {
		if s.power[c] == 0 {
			s.power[c] = s.cfg.IdlePower
		}
	}
}
