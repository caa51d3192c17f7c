package target

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExecStatusTerminal(t *testing.T) {
	cases := []struct {
		status   ExecStatus
		terminal bool
	}{
		{ExecStatus{Kind: StatusStopped, Signal: syscall.SIGTRAP, PC: 0x401000}, false},
		{ExecStatus{Kind: StatusExited, ExitCode: 0}, true},
		{ExecStatus{Kind: StatusExited, ExitCode: 42}, true},
		{ExecStatus{Kind: StatusSignaled, Signal: syscall.SIGKILL}, true},
	}
	for _, c := range cases {
		require.Equal(t, c.terminal, c.status.Terminal(), "status: %v", c.status)
	}
}

func TestExecStatusString(t *testing.T) {
	s := ExecStatus{Kind: StatusStopped, Signal: syscall.SIGTRAP, PC: 0x401000}
	require.Equal(t, "stopped at 0x401000 (signal: trace/breakpoint trap)", s.String())

	s = ExecStatus{Kind: StatusExited, ExitCode: 3}
	require.Equal(t, "exited (status 3)", s.String())

	s = ExecStatus{Kind: StatusSignaled, Signal: syscall.SIGSEGV}
	require.Equal(t, "terminated (signal: segmentation fault)", s.String())
}
