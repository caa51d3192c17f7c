package target

import (
	"fmt"
	"sort"

	"go.uber.org/atomic"
)

// trapInstr is the int3 opcode, the single-byte debug trap reserved by
// amd64. A software breakpoint is that byte substituted for the first
// byte of the instruction at the breakpoint address.
const trapInstr = 0xCC

var bpSeqNo = atomic.NewUint64(0)

// Breakpoint is one logical instruction-address trap. Orig holds the
// instruction byte displaced by trapInstr and is only meaningful while
// Installed is true: each launch is a fresh address space, so the saved
// byte from a previous run is worthless.
type Breakpoint struct {
	ID        uint64  // breakpoint number, for listing and clearing
	Addr      uintptr // breakpoint address
	Pos       string  // resolved source position, display only
	Orig      byte    // original byte displaced by the trap
	Installed bool    // trap byte currently patched into the tracee
}

func newBreakpoint(addr uintptr, pos string) *Breakpoint {
	return &Breakpoint{
		ID:   bpSeqNo.Add(1),
		Addr: addr,
		Pos:  pos,
	}
}

func (b *Breakpoint) String() string {
	return fmt.Sprintf("breakpoint[%d] addr:%#x, loc:%s", b.ID, b.Addr, b.Pos)
}

// Install patches the trap byte at the breakpoint address and records
// the displaced original byte.
func (b *Breakpoint) Install(p *TracedProcess) error {
	orig, err := p.WriteByte(b.Addr, trapInstr)
	if err != nil {
		return fmt.Errorf("install breakpoint at %#x: %v", b.Addr, err)
	}
	b.Orig = orig
	b.Installed = true
	return nil
}

// Uninstall restores the original instruction byte.
func (b *Breakpoint) Uninstall(p *TracedProcess) error {
	if !b.Installed {
		return nil
	}
	if _, err := p.WriteByte(b.Addr, b.Orig); err != nil {
		return fmt.Errorf("uninstall breakpoint at %#x: %v", b.Addr, err)
	}
	b.Installed = false
	return nil
}

// Breakpoints is the table of active breakpoints keyed by address.
// Addresses are unique: adding a breakpoint at an existing address must
// be treated as a no-op by the caller, not a second entry.
type Breakpoints map[uintptr]*Breakpoint

// InstallAll patches every table entry into a freshly launched tracee.
// It must run while the tracee is still suspended at its entry point so
// no breakpoint can be missed on process start.
func (bs Breakpoints) InstallAll(p *TracedProcess) error {
	for _, b := range bs {
		b.Installed = false
		if err := b.Install(p); err != nil {
			return err
		}
	}
	return nil
}

// Sorted returns the table entries ordered by breakpoint number.
func (bs Breakpoints) Sorted() []*Breakpoint {
	list := make([]*Breakpoint, 0, len(bs))
	for _, b := range bs {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}
