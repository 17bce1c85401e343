// Package taskset reads periodic tasksets from the wire format spec'd in
// rtsim's external interfaces, and generates synthetic ones with UUniFast for
// --random runs.
package taskset

import (
	"bufio"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/sdsouza/rtsim/internal/sched/task"
)

// CoreSleep is the per-core forced-sleep seed a taskset record carries
// alongside its tasks: csleep/tsleep in ticks, ready for
// partition.Admit's sleepTimeTicks parameter or a Sleeper override.
type CoreSleep struct {
	CSleep int64
	TSleep int64
}

// Taskset is one admitted-or-discarded unit of work from the import stream:
// an id, a reported utilization bound, the minimum sleep time in ticks, and
// the per-core task lists in file order.
type Taskset struct {
	ID            int
	Utilization   float64
	SleepMinTicks int64
	Tasks         []*task.Task
	CoreSleeps    []CoreSleep

	// Imported is true for tasksets read by Reader.Next, where every task
	// already carries the CPUID its file record pinned it to. NewRandom
	// leaves it false: those tasks still need partition.Admit's
	// worst-fit-decreasing placement.
	Imported bool
}

// Reader reads consecutive Taskset records from an import stream, in the
// format: "<id> <utilization> <csleep_min> <num_cores>" followed by, for
// each core, "<core_id> <num_tasks>" and, if num_tasks > 0, "<csleep>
// <tsleep>" then num_tasks pairs of "<C> <T>". All time fields arrive in
// milliseconds and are scaled by task.MultFactor on ingest.
type Reader struct {
	sc  *bufio.Scanner
	pid int
}

// NewReader wraps r for sequential taskset reads.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &Reader{sc: sc}
}

// Next reads one taskset record. It returns io.EOF once the stream is
// exhausted between records, ErrShortRecord if a record starts but ends
// before all its fields arrive, holds a field that does not parse, or
// declares a task without 0 < C <= T, and ErrTasksetDiscarded if any core declared
// zero tasks (the record is fully consumed from the stream either way).
func (r *Reader) Next() (*Taskset, error) {
	id, ok := r.nextInt()
	if !ok {
		return nil, io.EOF
	}
	util, ok := r.nextFloat()
	if !ok {
		return nil, ErrShortRecord
	}
	csleepMin, ok := r.nextInt()
	if !ok {
		return nil, ErrShortRecord
	}
	numCores, ok := r.nextInt()
	if !ok {
		return nil, ErrShortRecord
	}

	ts := &Taskset{
		ID:            id,
		Utilization:   util,
		SleepMinTicks: int64(csleepMin) * task.MultFactor,
		CoreSleeps:    make([]CoreSleep, numCores),
		Imported:      true,
	}

	discarded := false
	for c := 0; c < numCores; c++ {
		if _, ok := r.nextInt(); !ok { // core_id, positional only
			return nil, ErrShortRecord
		}
		numTasks, ok := r.nextInt()
		if !ok {
			return nil, ErrShortRecord
		}
		if numTasks == 0 {
			discarded = true
			continue
		}

		csleep, ok := r.nextFloat()
		if !ok {
			return nil, ErrShortRecord
		}
		tsleep, ok := r.nextFloat()
		if !ok {
			return nil, ErrShortRecord
		}
		ts.CoreSleeps[c] = CoreSleep{
			CSleep: int64(csleep * task.MultFactor),
			TSleep: int64(math.Ceil(tsleep * task.MultFactor)),
		}

		for j := 0; j < numTasks; j++ {
			cMs, ok := r.nextInt()
			if !ok {
				return nil, ErrShortRecord
			}
			tMs, ok := r.nextInt()
			if !ok {
				return nil, ErrShortRecord
			}
			if cMs <= 0 || tMs < cMs {
				return nil, ErrShortRecord
			}
			tau := task.New(r.pid, int64(cMs)*task.MultFactor, int64(tMs)*task.MultFactor, 7)
			tau.CPUID = c
			r.pid++
			ts.Tasks = append(ts.Tasks, tau)
		}
	}

	if discarded {
		return ts, ErrTasksetDiscarded
	}
	return ts, nil
}

func (r *Reader) nextInt() (int, bool) {
	if !r.sc.Scan() {
		return 0, false
	}
	v, err := strconv.Atoi(r.sc.Text())
	if err != nil {
		return 0, false
	}
	return v, true
}

func (r *Reader) nextFloat() (float64, bool) {
	if !r.sc.Scan() {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(r.sc.Text()), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// RandomConfig parameterizes NewRandom.
type RandomConfig struct {
	NumTasks         int
	UtilizationBound float64
	SleepTimeMs      int64 // feeds min_period = 3 * SleepTimeMs
	MaxPeriodMs      int64
	WorstCase        bool // phase every task at 0 instead of a random offset
	Harmonic         bool
}

// NewRandom generates a synthetic taskset via UUniFast-Discard, mirroring
// the reference generator's initialize_tasks: periods drawn uniformly
// between 3*SleepTimeMs and MaxPeriodMs or, with Harmonic, chained from a
// first period in [3*SleepTimeMs, 6*SleepTimeMs) by multiplying each period
// by 1, 2 or 3 (harmonic periods are not capped at MaxPeriodMs), WCET derived
// from the UUniFast utilization split, and a random power folder per task.
func NewRandom(rng *rand.Rand, cfg RandomConfig) []*task.Task {
	utils := uuniFastDiscard(rng, cfg.NumTasks, cfg.UtilizationBound)

	minPeriod := cfg.SleepTimeMs * 3
	maxPeriod := cfg.MaxPeriodMs

	tasks := make([]*task.Task, cfg.NumTasks)
	var prevT int64
	for i := 0; i < cfg.NumTasks; i++ {
		var periodMs int64
		switch {
		case cfg.Harmonic && i == 0:
			periodMs = minPeriod + rng.Int63n(minPeriod)
		case cfg.Harmonic && i > 0:
			periodMs = prevT * (1 + rng.Int63n(3))
		default:
			periodMs = minPeriod + rng.Int63n(maxPeriod-minPeriod)
		}
		prevT = periodMs

		cMs := int64(math.Floor(utils[i]*float64(periodMs))) + 1
		if cMs > periodMs {
			cMs = periodMs
		}
		powerFolder := rng.Intn(task.PowerFolders) + 1

		tau := task.New(i, cMs*task.MultFactor, periodMs*task.MultFactor, powerFolder)
		tau.Utilization = utils[i]
		if !cfg.WorstCase {
			tau.ArrivalTime = rng.Int63n(minPeriod) * task.MultFactor
		}
		tasks[i] = tau
	}
	return tasks
}

// uuniFastDiscard draws a utilization split for n tasks summing to bound,
// retrying (up to 1000 times) whenever a single task's share exceeds 1.0 —
// the reference generator's "task_upper_bound" discard rule.
func uuniFastDiscard(rng *rand.Rand, n int, bound float64) []float64 {
	const taskUpperBound = 1.0
	const maxIterations = 1000

	utils := make([]float64, n)
	for iter := 0; iter < maxIterations; iter++ {
		sum := bound
		ok := true
		for i := 1; i < n; i++ {
			next := sum * math.Pow(rng.Float64(), 1.0/float64(n-i))
			utils[i-1] = sum - next
			if utils[i-1] > taskUpperBound {
				ok = false
				break
			}
			sum = next
		}
		if ok {
			utils[n-1] = sum
			if utils[n-1] <= taskUpperBound {
				return utils
			}
		}
	}
	return utils
}
