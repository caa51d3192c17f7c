package target

import (
	"fmt"
	"syscall"
)

// StatusKind tags an ExecStatus variant.
type StatusKind int

const (
	// StatusStopped means the tracee stopped on a signal and can be resumed.
	StatusStopped StatusKind = iota
	// StatusExited means the tracee exited normally.
	StatusExited
	// StatusSignaled means the tracee was terminated by a signal.
	StatusSignaled
)

// ExecStatus is the outcome of one resume or single-step of the tracee.
// It is the only process-state information that crosses out of this
// package: callers never see raw wait statuses or registers.
type ExecStatus struct {
	Kind     StatusKind
	Signal   syscall.Signal // StatusStopped, StatusSignaled
	PC       uint64         // StatusStopped
	ExitCode int            // StatusExited
}

// Terminal reports whether the tracee is gone after this status.
func (s ExecStatus) Terminal() bool {
	return s.Kind == StatusExited || s.Kind == StatusSignaled
}

func (s ExecStatus) String() string {
	switch s.Kind {
	case StatusStopped:
		return fmt.Sprintf("stopped at %#x (signal: %s)", s.PC, s.Signal)
	case StatusExited:
		return fmt.Sprintf("exited (status %d)", s.ExitCode)
	case StatusSignaled:
		return fmt.Sprintf("terminated (signal: %s)", s.Signal)
	default:
		return fmt.Sprintf("unknown status kind %d", int(s.Kind))
	}
}
