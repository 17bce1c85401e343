// Package power implements the temperature-indexed power lookup table the
// scheduler engine queries once per executing core per tick.
package power

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/sdsouza/rtsim/internal/sched/task"
)

// Folders is the number of power-profile slices in the table, mirroring
// task.PowerFolders (power_folder is a 1-indexed selector into this many
// slices).
const Folders = task.PowerFolders

// TemperatureSteps is the number of temperature buckets the table is
// indexed by (0..10 inclusive).
const TemperatureSteps = 11

// Table is the power lookup interface the scheduler engine queries:
// core and L3 power in Watts for a given power-profile folder, frequency
// index, and temperature bucket.
type Table interface {
	Lookup(folder, freqIndex, tempIndex int) (corePower, l3Power float64)
}

// TemperatureIndex maps a Kelvin temperature to a [0, TemperatureSteps-1]
// bucket: round (T-1) up to the nearest multiple of 10, subtract the 300K
// floor, divide by 10, and clamp.
func TemperatureIndex(tempKelvin float64) int {
	rounded := math.Ceil((tempKelvin-1)/10) * 10
	idx := int((rounded - 300) / 10)
	if idx < 0 {
		return 0
	}
	if idx > TemperatureSteps-1 {
		return TemperatureSteps - 1
	}
	return idx
}

type cell struct {
	core, l3 float64
}

// arrayTable is a dense [folder][freqIndex][tempIndex] lookup table, shared
// by the synthetic and file-backed constructors below.
type arrayTable struct {
	numFreq int
	data    [][][]cell // [folder-1][freqIndex][tempIndex]
}

func (a *arrayTable) Lookup(folder, freqIndex, tempIndex int) (float64, float64) {
	c := a.data[folder-1][freqIndex][tempIndex]
	return c.core, c.l3
}

// NewSyntheticTable builds a power table analytically, without a McPAT run:
// a folder-scaled base power curve, a cubic frequency scaling term (dynamic
// power grows with f^3), and a small linear leakage term per temperature
// step. This stands in for "populate the table from an external
// cycle-accurate model" (spec's non-goal collaborator) so the engine always
// has a real table to query.
func NewSyntheticTable(numFrequencies int) Table {
	t := &arrayTable{numFreq: numFrequencies, data: make([][][]cell, Folders)}
	for folder := 1; folder <= Folders; folder++ {
		base := 1.0 + 0.3*float64(folder-1)
		freqRows := make([][]cell, numFrequencies)
		for fi := 0; fi < numFrequencies; fi++ {
			freqScale := math.Pow(float64(fi+1)/float64(numFrequencies), 3)
			temps := make([]cell, TemperatureSteps)
			for ti := 0; ti < TemperatureSteps; ti++ {
				leak := 0.02 * float64(ti)
				core := base*freqScale + leak
				temps[ti] = cell{core: core, l3: 0.15 * core}
			}
			freqRows[fi] = temps
		}
		t.data[folder-1] = freqRows
	}
	return t
}

// NewFileTable parses the tab-separated "core_power\tl3_power" format from
// spec §6: one line per cell, iterating power_folder outermost, then
// freqIndex, then tempIndex.
func NewFileTable(r io.Reader, numFrequencies int) (Table, error) {
	t := &arrayTable{numFreq: numFrequencies, data: make([][][]cell, Folders)}
	sc := bufio.NewScanner(r)
	for folder := 0; folder < Folders; folder++ {
		freqRows := make([][]cell, numFrequencies)
		for fi := 0; fi < numFrequencies; fi++ {
			temps := make([]cell, TemperatureSteps)
			for ti := 0; ti < TemperatureSteps; ti++ {
				if !sc.Scan() {
					return nil, fmt.Errorf("power: short table at folder %d freq %d temp %d: %w", folder+1, fi, ti, io.ErrUnexpectedEOF)
				}
				fields := strings.Split(sc.Text(), "\t")
				if len(fields) != 2 {
					return nil, fmt.Errorf("power: malformed line %q: want 2 tab-separated fields", sc.Text())
				}
				core, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
				if err != nil {
					return nil, fmt.Errorf("power: parse core_power: %w", err)
				}
				l3, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
				if err != nil {
					return nil, fmt.Errorf("power: parse l3_power: %w", err)
				}
				temps[ti] = cell{core: core, l3: l3}
			}
			freqRows[fi] = temps
		}
		t.data[folder] = freqRows
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("power: scan table: %w", err)
	}
	return t, nil
}
