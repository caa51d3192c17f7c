package target

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hitzhangjie/cdbg/pkg/symbol"
	"github.com/sirupsen/logrus"
)

// Kind records how the debug session obtained the target binary, which
// decides the cleanup performed when the session ends.
type Kind int

const (
	// KindExec debugs an existing executable.
	KindExec Kind = iota
	// KindDebug debugs a binary built by the debugger itself, which is
	// removed when the session ends.
	KindDebug
)

// DefaultEntryFunction is where backtraces stop walking the frame
// pointer chain unless the session overrides it.
const DefaultEntryFunction = "main"

// Debugger owns the state of one debug session: the target binary and
// its debug info, the breakpoint table, and the optional live traced
// process. Breakpoints outlive the process: entries added while nothing
// runs are patched in at the next launch, and the whole table is
// re-applied to every fresh launch since each one is a new address
// space.
type Debugger struct {
	Command string
	Args    []string
	Kind    Kind

	BInfo       *symbol.BinaryInfo
	Breakpoints Breakpoints

	// EntryFn terminates stack unwinding when the resolver maps a frame
	// to it. Defaults to DefaultEntryFunction.
	EntryFn string

	process *TracedProcess
}

// NewDebugger prepares a debug session for the executable at cmd. The
// binary's debug info is loaded eagerly so breakpoints can be resolved
// before anything runs; the process itself is not launched until Run.
func NewDebugger(cmd string, args []string, kind Kind) (*Debugger, error) {
	path, err := filepath.Abs(cmd)
	if err != nil {
		return nil, err
	}
	bi, err := symbol.Analyze(path)
	if err != nil {
		return nil, fmt.Errorf("load debug info of %s: %v", cmd, err)
	}
	return &Debugger{
		Command:     path,
		Args:        args,
		Kind:        kind,
		BInfo:       bi,
		Breakpoints: Breakpoints{},
		EntryFn:     DefaultEntryFunction,
	}, nil
}

// Alive reports whether the session has a live tracee.
func (d *Debugger) Alive() bool {
	return d.process.Alive()
}

// Process exposes the live traced process, or nil.
func (d *Debugger) Process() *TracedProcess {
	return d.process
}

// Run launches the target, applies the whole breakpoint table while the
// tracee is still suspended at its entry point, and resumes it. If a
// previous tracee is still alive it is torn down first: there is at
// most one live traced process per session. Extra args override the
// session's default argument list for this run only.
func (d *Debugger) Run(args ...string) (ExecStatus, error) {
	if d.process != nil {
		if d.process.Alive() {
			if err := d.Kill(); err != nil {
				return ExecStatus{}, err
			}
		} else {
			// died out of band, e.g. an external SIGKILL: reap the
			// zombie and release the tracer thread
			_ = d.process.Kill()
			d.dropProcess()
		}
	}

	if len(args) == 0 {
		args = d.Args
	}
	p, err := Launch(d.Command, args...)
	if err != nil {
		return ExecStatus{}, err
	}

	if err := d.Breakpoints.InstallAll(p); err != nil {
		p.StopPtrace()
		_ = p.Kill()
		return ExecStatus{}, err
	}
	d.process = p

	return d.Continue()
}

// Continue resumes the tracee until its next stop or termination.
//
// If the tracee is currently stopped just past an installed breakpoint
// (the trap fires after the byte is fetched, leaving PC one past the
// patched address), the displaced instruction must actually execute
// exactly once before the trap is re-armed. The order is load-bearing:
// uninstall, rewind PC, single-step, reinstall, then continue. Any
// other order either loses the trap for good or re-executes the trap
// byte itself.
func (d *Debugger) Continue() (ExecStatus, error) {
	if !d.process.Alive() {
		return ExecStatus{}, ErrNoProcess
	}
	p := d.process

	pc, err := p.PC()
	if err != nil {
		return ExecStatus{}, err
	}

	if bp, ok := d.Breakpoints[uintptr(pc-1)]; ok && bp.Installed {
		status, err := d.stepOverBreakpoint(bp, pc)
		if err != nil {
			return ExecStatus{}, err
		}
		if status.Terminal() {
			d.dropProcess()
			return status, nil
		}
	}

	status, err := p.Resume()
	if err != nil {
		return ExecStatus{}, err
	}
	if status.Terminal() {
		d.dropProcess()
	}
	return status, nil
}

// stepOverBreakpoint executes the displaced original instruction at
// bp.Addr once and re-arms the trap. pc is the current instruction
// pointer, one byte past bp.Addr.
func (d *Debugger) stepOverBreakpoint(bp *Breakpoint, pc uint64) (ExecStatus, error) {
	p := d.process

	logrus.WithField("addr", fmt.Sprintf("%#x", bp.Addr)).Debug("stepping over breakpoint")

	if err := bp.Uninstall(p); err != nil {
		return ExecStatus{}, err
	}
	if err := p.SetPC(pc - 1); err != nil {
		return ExecStatus{}, err
	}

	status, err := p.SingleStep()
	if err != nil {
		return ExecStatus{}, err
	}
	if status.Terminal() {
		// nothing left to patch, the address space is gone
		return status, nil
	}

	if err := bp.Install(p); err != nil {
		return ExecStatus{}, err
	}
	return status, nil
}

// StepInstruction executes one machine instruction, honoring the same
// displaced-instruction protocol when stopped at a breakpoint.
func (d *Debugger) StepInstruction() (ExecStatus, error) {
	if !d.process.Alive() {
		return ExecStatus{}, ErrNoProcess
	}
	p := d.process

	pc, err := p.PC()
	if err != nil {
		return ExecStatus{}, err
	}

	var status ExecStatus
	if bp, ok := d.Breakpoints[uintptr(pc-1)]; ok && bp.Installed {
		status, err = d.stepOverBreakpoint(bp, pc)
	} else {
		status, err = p.SingleStep()
	}
	if err != nil {
		return ExecStatus{}, err
	}
	if status.Terminal() {
		d.dropProcess()
	}
	return status, nil
}

// Kill forcibly terminates the tracee, keeping the session and its
// breakpoint table for the next Run.
func (d *Debugger) Kill() error {
	if d.process == nil {
		return nil
	}
	fmt.Printf("killing running inferior (pid %d)\n", d.process.Process.Pid)
	err := d.process.Kill()
	d.dropProcess()
	return err
}

func (d *Debugger) dropProcess() {
	if d.process == nil {
		return
	}
	d.process.StopPtrace()
	d.process = nil
}

// --------------------------------------------------------------------

// SetBreakpoint resolves a location spec and adds a breakpoint for it.
// Supported specs: `*<hexaddr>` literal address, `<lineno>`,
// `<file>:<lineno>`, `<funcname>`. Adding an address already in the
// table returns the existing entry unchanged. If a tracee is live the
// trap is patched immediately, otherwise patching is deferred to the
// next Run.
func (d *Debugger) SetBreakpoint(spec string) (*Breakpoint, error) {
	addr, pos, err := d.resolveLocSpec(spec)
	if err != nil {
		return nil, err
	}

	if bp, ok := d.Breakpoints[addr]; ok {
		return bp, nil
	}

	bp := newBreakpoint(addr, pos)
	if d.process.Alive() {
		if err := bp.Install(d.process); err != nil {
			return nil, err
		}
	}
	d.Breakpoints[addr] = bp
	return bp, nil
}

// ClearBreakpoint removes the breakpoint at addr from the table,
// restoring the original instruction byte if it is currently patched.
// If the tracee is stopped at this very breakpoint its PC is rewound
// to addr, so the next resume executes the restored instruction from
// its first byte rather than from one byte in.
func (d *Debugger) ClearBreakpoint(addr uintptr) (*Breakpoint, error) {
	bp, ok := d.Breakpoints[addr]
	if !ok {
		return nil, ErrBreakpointNotExisted
	}
	if d.process.Alive() {
		if err := bp.Uninstall(d.process); err != nil {
			return nil, err
		}
		pc, err := d.process.PC()
		if err != nil {
			return nil, err
		}
		if uintptr(pc-1) == bp.Addr {
			if err := d.process.SetPC(uint64(bp.Addr)); err != nil {
				return nil, err
			}
		}
	}
	delete(d.Breakpoints, addr)
	return bp, nil
}

// resolveLocSpec maps a breakpoint spec to an instruction address plus
// a display position. Resolution failures surface as errors and create
// no breakpoint.
func (d *Debugger) resolveLocSpec(spec string) (uintptr, string, error) {
	spec = strings.TrimSpace(spec)

	// *addr: literal hex instruction address
	if strings.HasPrefix(spec, "*") {
		s := strings.TrimPrefix(strings.TrimPrefix(spec, "*"), "0x")
		addr, err := strconv.ParseUint(s, 16, 64)
		if err != nil {
			return 0, "", fmt.Errorf("invalid address %q: %v", spec, err)
		}
		return uintptr(addr), fmt.Sprintf("%#x", addr), nil
	}

	// bare line number in the main source file
	if lineno, err := strconv.Atoi(spec); err == nil {
		addr, err := d.BInfo.LineToPC(lineno)
		if err != nil {
			return 0, "", fmt.Errorf("line %d: %v", lineno, err)
		}
		return uintptr(addr), fmt.Sprintf("%s:%d", filepath.Base(d.BInfo.DefaultFile()), lineno), nil
	}

	// file:lineno
	if idx := strings.LastIndex(spec, ":"); idx > 0 {
		file := spec[:idx]
		lineno, err := strconv.Atoi(spec[idx+1:])
		if err != nil {
			return 0, "", fmt.Errorf("invalid loc: %s", spec)
		}
		if !filepath.IsAbs(file) {
			if abs, err := filepath.Abs(file); err == nil {
				if _, statErr := os.Stat(abs); statErr == nil {
					file = abs
				}
			}
		}
		addr, err := d.BInfo.FileLineToPC(file, lineno)
		if err != nil {
			return 0, "", fmt.Errorf("%s: %v", spec, err)
		}
		return uintptr(addr), spec, nil
	}

	// function name
	addr, err := d.BInfo.FuncToPC(spec)
	if err != nil {
		return 0, "", fmt.Errorf("function %s: %v", spec, err)
	}
	return uintptr(addr), spec, nil
}
