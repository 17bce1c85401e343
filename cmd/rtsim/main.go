// Command rtsim simulates fixed-priority multiprocessor real-time
// scheduling (RMS, Sysclock, ES-RHS+, ES-RMS) over one or more imported or
// randomly generated tasksets, tracking per-core power and temperature and
// reporting deadline misses and summary statistics.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	rtsimcfg "github.com/sdsouza/rtsim/internal/sched/config"
	"github.com/sdsouza/rtsim/internal/sched/engine"
	"github.com/sdsouza/rtsim/internal/sched/partition"
	"github.com/sdsouza/rtsim/internal/sched/platform"
	"github.com/sdsouza/rtsim/internal/sched/power"
	"github.com/sdsouza/rtsim/internal/sched/queue"
	"github.com/sdsouza/rtsim/internal/sched/stats"
	"github.com/sdsouza/rtsim/internal/sched/sysclock"
	"github.com/sdsouza/rtsim/internal/sched/task"
	"github.com/sdsouza/rtsim/internal/sched/taskset"
	"github.com/sdsouza/rtsim/internal/sched/thermal"
	"github.com/sdsouza/rtsim/internal/sched/trace"
	"github.com/sdsouza/rtsim/pkg/types"
)

// defaultFrequenciesGHz is the hardware-supported frequency table used when
// no --config scenario overrides it, ascending and evenly spaced like a
// typical DVFS ladder.
var defaultFrequenciesGHz = []float64{0.8, 1.2, 1.6, 2.0, 2.4, 2.8}

const (
	defaultMaxPeriodMs = 1000
	defaultRandomTasks = 12
	thermalRth         = 0.5  // K/W
	thermalCth         = 50.0 // J/K
	simStepSizeSeconds = 0.001
)

type opts struct {
	cores       int
	cycles      int64
	sleepTimeMs int64
	tasksets    string
	policy      string
	syncSleep   bool
	phasing     bool
	results     string
	random      bool
	logTraces   bool
	configPath  string
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "rtsim",
		Short: "Fixed-priority multiprocessor real-time scheduling simulator",
		Long: `rtsim replays or generates periodic tasksets against one of four
scheduling policies (rms, sysclock, es-rhs+, es-rms), simulating tick by tick
admission, execution, forced/idle sleep, and the power/temperature feedback
loop that results.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.Flags(), o)
		},
	}

	root.Flags().IntVar(&o.cores, "cores", 4, "number of cores to simulate (0 = auto-detect host CPU count)")
	root.Flags().Int64Var(&o.cycles, "cycles", 1000, "number of simulation ticks to run")
	root.Flags().Int64Var(&o.sleepTimeMs, "sleep-time-ms", 10, "forced-sleep threshold, in milliseconds")
	root.Flags().StringVar(&o.tasksets, "tasksets", "", "taskset import file (mutually exclusive with --random)")
	root.Flags().StringVar(&o.policy, "policy", "rms", "scheduling policy: rms, sysclock, es-rhs+, es-rms")
	root.Flags().BoolVar(&o.syncSleep, "syncsleep", false, "apply the SyncSleep post-filter (no isolated per-core sleep)")
	root.Flags().BoolVar(&o.phasing, "phasing", false, "phase forced-sleep windows across even/odd cores instead of aligning them all to zero")
	root.Flags().StringVar(&o.results, "results", "results.txt", "append-mode summary results file")
	root.Flags().BoolVar(&o.random, "random", false, "generate one synthetic taskset via UUniFast instead of reading --tasksets")
	root.Flags().BoolVar(&o.logTraces, "log", false, "write per-taskset .temptrace and .pow trace files")
	root.Flags().StringVar(&o.configPath, "config", "", "optional YAML scenario file pre-filling these flags")

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, flags *pflag.FlagSet, o opts) error {
	var scenarioPowerTable string
	if o.configPath != "" {
		scenario, err := rtsimcfg.Load(o.configPath)
		if err != nil {
			return fmt.Errorf("rtsim: load config: %w", err)
		}
		scenario.ApplyDefaults(flags, &o.cores, &o.cycles, &o.sleepTimeMs, &o.tasksets, &o.policy, &o.results,
			&o.syncSleep, &o.phasing, &o.random, &o.logTraces)
		if len(scenario.Frequencies) > 0 {
			defaultFrequenciesGHz = scenario.Frequencies
		}
		scenarioPowerTable = scenario.PowerTable
	}

	if o.cores == 0 {
		o.cores = platform.DefaultCores()
	}
	if o.cores <= 0 {
		return fmt.Errorf("rtsim: cores must be > 0")
	}
	if !o.random && o.tasksets == "" {
		return fmt.Errorf("rtsim: either --tasksets or --random is required")
	}

	pol, err := parsePolicy(o.policy)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if load, err := platform.Load(); err == nil {
		slog.Info("host", "uptime_s", load.Uptime, "load1", load.Load1, "ram", types.Bytes(load.TotalRAM).Humanized())
	}

	powerTable, err := loadPowerTable(scenarioPowerTable, len(defaultFrequenciesGHz))
	if err != nil {
		return err
	}
	solver := thermal.NewLumpedRC(thermalRth, thermalCth)
	bridge := power.NewBridge(solver, simStepSizeSeconds)

	tasksets, err := loadTasksets(o)
	if err != nil {
		return err
	}

	for _, ts := range tasksets {
		if err := runTaskset(ctx, o, pol, powerTable, bridge, ts); err != nil {
			if errors.Is(err, context.Canceled) {
				slog.Info("interrupted, stopping before next taskset")
				return nil
			}
			if errors.Is(err, engine.ErrAllocation) {
				return err
			}
			slog.Error("taskset run failed", "taskset", ts.ID, "err", err)
		}
	}
	return nil
}

// loadPowerTable builds the synthetic analytic table, unless path names a
// McPAT-style tab-separated dump, in which case that file's values are used
// instead.
func loadPowerTable(path string, numFrequencies int) (power.Table, error) {
	if path == "" {
		return power.NewSyntheticTable(numFrequencies), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rtsim: open power table: %w", err)
	}
	defer f.Close()
	tbl, err := power.NewFileTable(f, numFrequencies)
	if err != nil {
		return nil, fmt.Errorf("rtsim: parse power table: %w", err)
	}
	return tbl, nil
}

func loadTasksets(o opts) ([]*taskset.Taskset, error) {
	if o.random {
		rng := rand.New(rand.NewSource(1))
		tasks := taskset.NewRandom(rng, taskset.RandomConfig{
			NumTasks:         defaultRandomTasks,
			UtilizationBound: partition.TargetUtilization * float64(o.cores) * 0.8,
			SleepTimeMs:      o.sleepTimeMs,
			MaxPeriodMs:      defaultMaxPeriodMs,
		})
		return []*taskset.Taskset{{ID: 0, Tasks: tasks}}, nil
	}

	f, err := os.Open(o.tasksets)
	if err != nil {
		return nil, fmt.Errorf("rtsim: open tasksets: %w", err)
	}
	defer f.Close()

	r := taskset.NewReader(f)
	var out []*taskset.Taskset
	for {
		ts, err := r.Next()
		switch {
		case errors.Is(err, io.EOF):
			return out, nil
		case errors.Is(err, taskset.ErrTasksetDiscarded):
			slog.Warn("taskset discarded, a core had zero tasks", "taskset", ts.ID)
			continue
		case err != nil:
			return nil, fmt.Errorf("rtsim: read taskset: %w", err)
		}
		out = append(out, ts)
	}
}

func runTaskset(ctx context.Context, o opts, pol engine.Policy, powerTable power.Table, bridge *power.Bridge, ts *taskset.Taskset) error {
	qs := queue.NewSet(o.cores)
	forceSleep := pol == engine.ESRHSP || pol == engine.ESRMS
	sleepTimeTicks := o.sleepTimeMs * task.MultFactor
	if ts.SleepMinTicks > 0 {
		sleepTimeTicks = ts.SleepMinTicks
	}

	var sleepers []partition.Sleeper
	globalSleepTime := sleepTimeTicks
	if ts.Imported {
		// File-imported tasks already carry the CPUID their record pinned
		// them to: push them straight onto the wait queue instead of
		// re-placing them with worst-fit-decreasing.
		for _, tau := range ts.Tasks {
			qs.AdmitToWait(tau)
		}
		if forceSleep {
			sleepers = sleepersFromCoreSleeps(ts.CoreSleeps)
		}
	} else {
		result := partition.Admit(ts.Tasks, o.cores, forceSleep, sleepTimeTicks, qs)
		if result.Admitted == 0 {
			slog.Warn("admission empty, running with idle cores", "taskset", ts.ID)
		}
		sleepers = result.Sleepers
		globalSleepTime = result.SleepTime
	}
	if o.phasing && forceSleep {
		phaseSleepers(sleepers)
	}

	cfg := engine.Config{
		NumCores:           o.cores,
		Policy:             pol,
		SyncSleep:          o.syncSleep,
		IdlePower:          2.0,
		GlobalSleepTime:    globalSleepTime,
		Frequencies:        defaultFrequenciesGHz,
		PowerTable:         powerTable,
		Bridge:             bridge,
		InitialTemperature: thermal.AmbientKelvin,
	}
	if pol == engine.Sysclock {
		cfg.Scale, cfg.FreqIndex = sysclock.Plan(qs, o.cores, defaultFrequenciesGHz)
	}

	sim, err := engine.New(cfg, qs)
	if err != nil {
		return fmt.Errorf("rtsim: %w", err)
	}
	if forceSleep {
		sim.SetSleepers(sleepers)
	}

	var powerTrace, temperatureTrace [][]float64
	if o.logTraces {
		powerTrace = allocMatrix(o.cores, o.cycles)
		temperatureTrace = allocMatrix(o.cores, o.cycles)
	}

	if err := sim.Run(ctx, o.cycles, powerTrace, temperatureTrace); err != nil {
		return err
	}

	for _, miss := range sim.DeadlineMisses() {
		slog.Info("deadline miss", "tick", miss.Tick, "pid", miss.PID, "core", miss.Core)
	}

	if o.logTraces {
		base := fmt.Sprintf("taskset_%d_%s", ts.ID, pol)
		if err := trace.WriteMatrixFile(base+".pow", powerTrace); err != nil {
			slog.Error("write power trace", "err", err)
		}
		if err := trace.WriteMatrixFile(base+".temptrace", temperatureTrace); err != nil {
			slog.Error("write temperature trace", "err", err)
		}
		cores := stats.Compute(temperatureTrace)
		if err := trace.AppendSummary(o.results, ts.ID, cores); err != nil {
			slog.Error("append results", "err", err)
		}
	}
	return nil
}

// sleepersFromCoreSleeps builds one Sleeper per core directly from a file
// record's per-core csleep/tsleep pair, matching the reference reader's
// initialize_sleeper: phase 0, zeroed counters, sleep_period = tsleep,
// sleeping_time = csleep.
func sleepersFromCoreSleeps(coreSleeps []taskset.CoreSleep) []partition.Sleeper {
	sleepers := make([]partition.Sleeper, len(coreSleeps))
	for i, cs := range coreSleeps {
		sleepers[i] = partition.Sleeper{
			SleepPeriod:  cs.TSleep,
			SleepPhase:   0,
			SleepingTime: cs.CSleep,
		}
	}
	return sleepers
}

func phaseSleepers(sleepers []partition.Sleeper) {
	for i := range sleepers {
		if i%2 == 0 {
			sleepers[i].SleepPhase = 0
		} else {
			sleepers[i].SleepPhase = sleepers[i].SleepPeriod - sleepers[i].SleepingTime
		}
	}
}

func allocMatrix(numCores int, nTicks int64) [][]float64 {
	m := make([][]float64, numCores)
	for i := range m {
		m[i] = make([]float64, nTicks)
	}
	return m
}

func parsePolicy(s string) (engine.Policy, error) {
	switch strings.ToLower(s) {
	case "rms":
		return engine.RMS, nil
	case "sysclock":
		return engine.Sysclock, nil
	case "es-rhs+", "esrhsp", "rhs":
		return engine.ESRHSP, nil
	case "es-rms", "esrms":
		return engine.ESRMS, nil
	default:
		return 0, fmt.Errorf("rtsim: unknown policy %q", s)
	}
}
