// Package platform resolves host-derived defaults for rtsim's CLI: the core
// count to simulate when --cores=0, and an optional system load reading
// used only to annotate run metadata.
package platform

import "runtime"

// DefaultCores returns the host's logical CPU count, used for --cores when
// the user passes 0 instead of an explicit count.
func DefaultCores() int {
	n := runtime.NumCPU()
	if n <= 0 {
		return 1
	}
	return n
}
