package target

import (
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestDebugger(t *testing.T) *Debugger {
	t.Helper()
	bin := buildFixture(t, "t1")

	dbg, err := NewDebugger(bin, nil, KindExec)
	require.NoError(t, err)
	dbg.EntryFn = "main.main"

	t.Cleanup(func() { _ = dbg.Kill() })
	return dbg
}

func TestRunToCompletion(t *testing.T) {
	dbg := newTestDebugger(t)

	status, err := dbg.Run()
	require.NoError(t, err)
	require.Equal(t, StatusExited, status.Kind)
	require.Equal(t, 0, status.ExitCode)
	require.False(t, dbg.Alive())
}

func TestContinueAcrossBreakpoint(t *testing.T) {
	dbg := newTestDebugger(t)

	bp, err := dbg.SetBreakpoint("main.third")
	require.NoError(t, err)

	// main.third runs three times, so three trap stops then exit
	status, err := dbg.Run()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.Equal(t, StatusStopped, status.Kind, "stop %d", i)
		require.Equal(t, uint64(bp.Addr)+1, status.PC, "stop %d: PC should be one past the trap", i)

		status, err = dbg.Continue()
		require.NoError(t, err)
	}
	require.Equal(t, StatusExited, status.Kind)
	require.Equal(t, 0, status.ExitCode)
}

func TestSetBreakpointIdempotent(t *testing.T) {
	dbg := newTestDebugger(t)

	addr, err := dbg.BInfo.FuncToPC("main.third")
	require.NoError(t, err)

	bp1, err := dbg.SetBreakpoint(fmt.Sprintf("*%x", addr))
	require.NoError(t, err)
	bp2, err := dbg.SetBreakpoint(fmt.Sprintf("*%x", addr))
	require.NoError(t, err)

	require.Equal(t, bp1.ID, bp2.ID)
	require.Len(t, dbg.Breakpoints, 1)
}

func TestClearBreakpoint(t *testing.T) {
	dbg := newTestDebugger(t)

	bp, err := dbg.SetBreakpoint("main.second")
	require.NoError(t, err)

	cleared, err := dbg.ClearBreakpoint(bp.Addr)
	require.NoError(t, err)
	require.Equal(t, bp.ID, cleared.ID)
	require.Len(t, dbg.Breakpoints, 0)

	_, err = dbg.ClearBreakpoint(bp.Addr)
	require.Equal(t, ErrBreakpointNotExisted, err)
}

func TestClearAtStopThenContinue(t *testing.T) {
	dbg := newTestDebugger(t)

	bp, err := dbg.SetBreakpoint("main.third")
	require.NoError(t, err)

	status, err := dbg.Run()
	require.NoError(t, err)
	require.Equal(t, StatusStopped, status.Kind)
	require.Equal(t, uint64(bp.Addr)+1, status.PC)

	// clearing the breakpoint we are stopped at rewinds PC to the
	// first byte of the restored instruction
	_, err = dbg.ClearBreakpoint(bp.Addr)
	require.NoError(t, err)

	pc, err := dbg.Process().PC()
	require.NoError(t, err)
	require.Equal(t, uint64(bp.Addr), pc)

	status, err = dbg.Continue()
	require.NoError(t, err)
	require.Equal(t, StatusExited, status.Kind)
	require.Equal(t, 0, status.ExitCode)
}

func TestResolveLocSpec(t *testing.T) {
	dbg := newTestDebugger(t)

	_, err := dbg.SetBreakpoint("no.such.function")
	require.Error(t, err)

	_, err = dbg.SetBreakpoint("*zzzz")
	require.Error(t, err)

	bp, err := dbg.SetBreakpoint("t1.go:6")
	require.NoError(t, err)
	require.NotZero(t, bp.Addr)
}

func TestStepInstruction(t *testing.T) {
	dbg := newTestDebugger(t)

	_, err := dbg.SetBreakpoint("main.third")
	require.NoError(t, err)

	status, err := dbg.Run()
	require.NoError(t, err)
	require.Equal(t, StatusStopped, status.Kind)

	stepped, err := dbg.StepInstruction()
	require.NoError(t, err)
	require.Equal(t, StatusStopped, stepped.Kind)
	require.NotEqual(t, status.PC, stepped.PC)
}

func TestBacktrace(t *testing.T) {
	dbg := newTestDebugger(t)

	_, err := dbg.SetBreakpoint("main.third")
	require.NoError(t, err)

	status, err := dbg.Run()
	require.NoError(t, err)
	require.Equal(t, StatusStopped, status.Kind)

	frames, err := dbg.Backtrace()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(frames), 4)

	require.Equal(t, "main.third", frames[0].Func)
	require.Equal(t, "main.second", frames[1].Func)
	require.Equal(t, "main.first", frames[2].Func)
	require.Equal(t, "main.main", frames[len(frames)-1].Func)
}

func TestNoProcess(t *testing.T) {
	dbg := newTestDebugger(t)

	_, err := dbg.Continue()
	require.Equal(t, ErrNoProcess, err)

	_, err = dbg.StepInstruction()
	require.Equal(t, ErrNoProcess, err)

	_, err = dbg.Backtrace()
	require.Equal(t, ErrNoProcess, err)

	// killing with no process is a no-op, not an error
	require.NoError(t, dbg.Kill())
}

func TestKillThenContinue(t *testing.T) {
	dbg := newTestDebugger(t)

	_, err := dbg.SetBreakpoint("main.third")
	require.NoError(t, err)

	status, err := dbg.Run()
	require.NoError(t, err)
	require.Equal(t, StatusStopped, status.Kind)
	require.True(t, dbg.Alive())

	require.NoError(t, dbg.Kill())
	require.False(t, dbg.Alive())

	_, err = dbg.Continue()
	require.Equal(t, ErrNoProcess, err)
}

func TestRestartReappliesBreakpoints(t *testing.T) {
	dbg := newTestDebugger(t)

	bp, err := dbg.SetBreakpoint("main.third")
	require.NoError(t, err)

	status, err := dbg.Run()
	require.NoError(t, err)
	require.Equal(t, StatusStopped, status.Kind)

	// a second Run tears the live tracee down and patches the table
	// into the fresh address space
	status, err = dbg.Run()
	require.NoError(t, err)
	require.Equal(t, StatusStopped, status.Kind)
	require.Equal(t, uint64(bp.Addr)+1, status.PC)
}

func TestRunAfterExternalKill(t *testing.T) {
	dbg := newTestDebugger(t)

	bp, err := dbg.SetBreakpoint("main.third")
	require.NoError(t, err)

	status, err := dbg.Run()
	require.NoError(t, err)
	require.Equal(t, StatusStopped, status.Kind)

	// the tracee dying behind the session's back must not wedge the
	// next Run: the zombie gets reaped and a fresh tracee launched
	pid := dbg.Process().Process.Pid
	require.NoError(t, syscall.Kill(pid, syscall.SIGKILL))
	for i := 0; i < 100 && dbg.Alive(); i++ {
		time.Sleep(10 * time.Millisecond)
	}
	require.False(t, dbg.Alive())

	status, err = dbg.Run()
	require.NoError(t, err)
	require.Equal(t, StatusStopped, status.Kind)
	require.Equal(t, uint64(bp.Addr)+1, status.PC)
}

func TestRunReportsExitCode(t *testing.T) {
	bin := buildFixture(t, "t2")

	dbg, err := NewDebugger(bin, nil, KindExec)
	require.NoError(t, err)
	dbg.EntryFn = "main.main"
	t.Cleanup(func() { _ = dbg.Kill() })

	status, err := dbg.Run()
	require.NoError(t, err)
	require.Equal(t, StatusExited, status.Kind)
	require.Equal(t, 3, status.ExitCode)
}
