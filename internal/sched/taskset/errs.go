package taskset

import "errors"

var (
	// ErrTasksetDiscarded indicates a taskset record had at least one core
	// with zero tasks; the taskset is skipped and the caller should reset
	// and move to the next one.
	ErrTasksetDiscarded = errors.New("taskset: discarded, a core had zero tasks")

	// ErrShortRecord indicates a record ended before all of its declared
	// fields were present, held a field that does not parse as a number, or
	// declared a task whose C is not in (0, T].
	ErrShortRecord = errors.New("taskset: short or malformed record")
)
