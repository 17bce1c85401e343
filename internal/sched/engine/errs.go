package engine

import "errors"

var (
	// ErrAllocation indicates the simulation could not be constructed: a
	// zero-or-negative core count or an empty frequency table. The caller
	// must treat this as fatal, mirroring the source's allocation-failure
	// exit path.
	ErrAllocation = errors.New("engine: allocation failure")

	// ErrFrequencyTable indicates a Sysclock run was requested without a
	// per-core scale/frequency-index assignment.
	ErrFrequencyTable = errors.New("engine: sysclock requires a frequency plan")
)
