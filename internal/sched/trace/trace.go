// Package trace writes the per-taskset-per-policy output artifacts: tab
// separated .temptrace / .pow traces (one column per core, one row per
// tick) and the append-mode results summary, matching the on-disk shapes
// stats_generator.c produces.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sdsouza/rtsim/internal/sched/stats"
)

// WriteMatrix writes data (one []float64 per core, all the same length) as
// tab-separated rows, one row per tick, one column per core. Used for both
// .temptrace (Kelvin) and .pow (Watts) artifacts — they share a shape, only
// the unit differs.
func WriteMatrix(w io.Writer, data [][]float64) error {
	if len(data) == 0 {
		return nil
	}
	bw := bufio.NewWriter(w)
	nTicks := len(data[0])
	for tick := 0; tick < nTicks; tick++ {
		for c, row := range data {
			if c > 0 {
				if _, err := bw.WriteString("\t"); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(bw, "%f", row[tick]); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString("\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteMatrixFile creates (or truncates) path and writes data to it via
// WriteMatrix.
func WriteMatrixFile(path string, data [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteMatrix(f, data)
}

// AppendSummary appends one results-file block for tasksetID: a header line
// with the taskset id, then one "<core> <mean> <max> <min> <stddev>" line per
// core, matching compute_stats' fprintf format.
func AppendSummary(path string, tasksetID int, cores []stats.Core) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := fmt.Fprintf(bw, "%d\n", tasksetID); err != nil {
		return err
	}
	for i, c := range cores {
		if _, err := fmt.Fprintf(bw, "%d %f %f %f %f\n", i, c.Mean, c.Max, c.Min, c.StdDev); err != nil {
			return err
		}
	}
	return bw.Flush()
}
