package target

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBreakpointNumbering(t *testing.T) {
	a := newBreakpoint(0x400000, "a")
	b := newBreakpoint(0x400010, "b")
	require.Greater(t, b.ID, a.ID)
}

func TestBreakpointsSorted(t *testing.T) {
	bs := Breakpoints{}
	first := newBreakpoint(0x400020, "")
	second := newBreakpoint(0x400000, "")
	bs[first.Addr] = first
	bs[second.Addr] = second

	sorted := bs.Sorted()
	require.Len(t, sorted, 2)
	require.Equal(t, first.ID, sorted[0].ID)
	require.Equal(t, second.ID, sorted[1].ID)
}

func TestDeferredBreakpointNotInstalled(t *testing.T) {
	// a breakpoint added with no live process stays unpatched until the
	// next launch applies the table
	dbg := &Debugger{Breakpoints: Breakpoints{}}

	bp, err := dbg.SetBreakpoint("*400000")
	require.NoError(t, err)
	require.False(t, bp.Installed)
	require.Equal(t, uintptr(0x400000), bp.Addr)
}
