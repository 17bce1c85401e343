//go:build linux

package platform

import "golang.org/x/sys/unix"

// LoadInfo is a thin subset of unix.Sysinfo_t rtsim logs alongside a run's
// metadata: nothing the simulation reads depends on it.
type LoadInfo struct {
	Uptime   int64
	Load1    float64
	TotalRAM uint64
}

// Load reads /proc-backed system load via unix.Sysinfo. Returns the zero
// LoadInfo and the syscall error on any platform where it fails.
func Load() (LoadInfo, error) {
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return LoadInfo{}, err
	}
	// Loads[0] is the 1-minute load average in Linux's fixed-point format
	// (scaled by 1<<16).
	return LoadInfo{
		Uptime:   int64(si.Uptime),
		Load1:    float64(si.Loads[0]) / 65536.0,
		TotalRAM: uint64(si.Totalram) * uint64(si.Unit),
	}, nil
}
