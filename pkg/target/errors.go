package target

import "errors"

var (
	// ErrNoProcess is returned when an operation needs a live tracee and
	// there is none, either because nothing was launched yet or because
	// the last run already terminated.
	ErrNoProcess = errors.New("no process is being traced")

	// ErrBreakpointNotExisted is returned when clearing an address that
	// has no breakpoint in the table.
	ErrBreakpointNotExisted = errors.New("breakpoint not existed")
)
