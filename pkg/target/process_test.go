package target

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func launchFixture(t *testing.T) *TracedProcess {
	t.Helper()
	bin := buildFixture(t, "t1")

	p, err := Launch(bin)
	require.NoError(t, err)

	t.Cleanup(func() {
		if p.Alive() {
			_ = p.Kill()
		}
		// the ptrace goroutine may already be released by the test
		defer func() { _ = recover() }()
		p.StopPtrace()
	})
	return p
}

func TestLaunchStopsAtEntry(t *testing.T) {
	p := launchFixture(t)

	require.True(t, p.Alive())

	pc, err := p.PC()
	require.NoError(t, err)
	require.NotZero(t, pc)
}

func TestWriteByteRoundTrip(t *testing.T) {
	p := launchFixture(t)

	pc, err := p.PC()
	require.NoError(t, err)
	addr := uintptr(pc)

	buf := make([]byte, 1)
	_, err = p.ReadMemory(addr, buf)
	require.NoError(t, err)
	want := buf[0]

	// patching returns the displaced byte and the write is visible
	orig, err := p.WriteByte(addr, trapInstr)
	require.NoError(t, err)
	require.Equal(t, want, orig)

	_, err = p.ReadMemory(addr, buf)
	require.NoError(t, err)
	require.Equal(t, byte(trapInstr), buf[0])

	// writing the displaced byte back restores the original word
	displaced, err := p.WriteByte(addr, orig)
	require.NoError(t, err)
	require.Equal(t, byte(trapInstr), displaced)

	_, err = p.ReadMemory(addr, buf)
	require.NoError(t, err)
	require.Equal(t, want, buf[0])
}

func TestSingleStepAdvancesPC(t *testing.T) {
	p := launchFixture(t)

	before, err := p.PC()
	require.NoError(t, err)

	status, err := p.SingleStep()
	require.NoError(t, err)
	require.Equal(t, StatusStopped, status.Kind)

	after, err := p.PC()
	require.NoError(t, err)
	require.NotEqual(t, before, after)
}

func TestSetPC(t *testing.T) {
	p := launchFixture(t)

	pc, err := p.PC()
	require.NoError(t, err)

	require.NoError(t, p.SetPC(pc-1))

	got, err := p.PC()
	require.NoError(t, err)
	require.Equal(t, pc-1, got)
}

func TestKillReportsNotAlive(t *testing.T) {
	p := launchFixture(t)

	require.True(t, p.Alive())
	require.NoError(t, p.Kill())
	require.False(t, p.Alive())
}
