package target

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
	sys "golang.org/x/sys/unix"
)

// wordSize is the tracee word width. ptrace memory access is word
// granular, so single-byte patching is done by read-modify-write of the
// containing aligned word.
const wordSize = 8

// TracedProcess is the process currently under ptrace control. It owns
// every direct interaction with the tracee: launching, memory and
// register access, resuming, stepping and killing. Exactly one instance
// is live per debug session at a time.
type TracedProcess struct {
	Process *os.Process
	Command string
	Args    []string

	once       *sync.Once
	ptraceCh   chan func()
	ptraceDone chan int
	stopCh     chan int
}

// Launch starts `cmd` with tracing requested in the child before it
// executes the target image, then blocks until the child's initial trap
// stop is observed. The child is suspended at its entry point when
// Launch returns; any other first stop reason kills the child and
// reports an error.
func Launch(cmd string, args ...string) (*TracedProcess, error) {
	p := &TracedProcess{
		Command:    cmd,
		Args:       args,
		once:       &sync.Once{},
		ptraceCh:   make(chan func()),
		ptraceDone: make(chan int),
		stopCh:     make(chan int),
	}

	var err error
	p.ExecPtrace(func() {
		err = p.launchCommand(cmd, args...)
	})
	if err != nil {
		p.StopPtrace()
		return nil, err
	}
	return p, nil
}

// launchCommand runs on the ptrace thread. SysProcAttr.Ptrace implies
// PTRACE_TRACEME in the child, so the kernel stops it with SIGTRAP
// before the first instruction of the target image runs.
func (p *TracedProcess) launchCommand(execName string, args ...string) error {
	progCmd := exec.Command(execName, args...)
	progCmd.Stdin = os.Stdin
	progCmd.Stdout = os.Stdout
	progCmd.Stderr = os.Stderr

	progCmd.SysProcAttr = &syscall.SysProcAttr{
		Ptrace:     true,
		Setpgid:    true,
		Foreground: false,
	}
	progCmd.Env = os.Environ()
	progCmd.Env = append(progCmd.Env, "GODEBUG=asyncpreemptoff=1")

	if err := progCmd.Start(); err != nil {
		return err
	}
	p.Process = progCmd.Process

	// wait tracee stopped at its entry point
	var status sys.WaitStatus
	_, err := sys.Wait4(p.Process.Pid, &status, sys.WALL, nil)
	if err != nil {
		_ = sys.Kill(p.Process.Pid, sys.SIGKILL)
		return err
	}
	if !status.Stopped() || status.StopSignal() != sys.SIGTRAP {
		_ = sys.Kill(p.Process.Pid, sys.SIGKILL)
		return fmt.Errorf("process %d: unexpected initial stop: %v", p.Process.Pid, status)
	}

	logrus.WithFields(logrus.Fields{
		"pid": p.Process.Pid,
		"cmd": execName,
	}).Debug("tracee stopped at entry point")
	return nil
}

// ExecPtrace runs fn on the dedicated ptrace thread and waits for it to
// finish. All ptrace requests against a tracee must come from the same
// tracer thread, see https://github.com/golang/go/issues/7699.
func (p *TracedProcess) ExecPtrace(fn func()) {
	p.once.Do(func() {
		go func() {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			for {
				select {
				case reqFn := <-p.ptraceCh:
					reqFn()
					p.ptraceDone <- 1
				case <-p.stopCh:
					return
				}
			}
		}()
	})
	p.ptraceCh <- fn
	<-p.ptraceDone
}

// StopPtrace releases the ptrace thread. The TracedProcess must not be
// used afterwards.
func (p *TracedProcess) StopPtrace() {
	close(p.stopCh)
}

// wait blocks until the tracee changes state and translates the raw
// wait status into an ExecStatus. On a stop the current PC is attached
// to the status.
func (p *TracedProcess) wait() (ExecStatus, error) {
	var status sys.WaitStatus
	_, err := sys.Wait4(p.Process.Pid, &status, sys.WALL, nil)
	if err != nil {
		return ExecStatus{}, fmt.Errorf("wait error: %v", err)
	}

	switch {
	case status.Exited():
		return ExecStatus{Kind: StatusExited, ExitCode: status.ExitStatus()}, nil
	case status.Signaled():
		return ExecStatus{Kind: StatusSignaled, Signal: status.Signal()}, nil
	case status.Stopped():
		regs, err := p.ReadRegister()
		if err != nil {
			return ExecStatus{}, err
		}
		return ExecStatus{Kind: StatusStopped, Signal: status.StopSignal(), PC: regs.PC()}, nil
	default:
		return ExecStatus{}, fmt.Errorf("unexpected wait status: %v", status)
	}
}

// Resume lets the tracee run until its next trap, signal or exit.
func (p *TracedProcess) Resume() (ExecStatus, error) {
	var err error
	p.ExecPtrace(func() {
		err = syscall.PtraceCont(p.Process.Pid, 0)
	})
	if err != nil {
		return ExecStatus{}, fmt.Errorf("ptrace cont error: %v", err)
	}
	return p.wait()
}

// SingleStep executes exactly one machine instruction, then stops.
func (p *TracedProcess) SingleStep() (ExecStatus, error) {
	var err error
	p.ExecPtrace(func() {
		err = syscall.PtraceSingleStep(p.Process.Pid)
	})
	if err != nil {
		return ExecStatus{}, fmt.Errorf("ptrace singlestep error: %v", err)
	}
	return p.wait()
}

// Kill terminates the tracee and reaps it. Subsequent Alive probes
// report false.
func (p *TracedProcess) Kill() error {
	if err := sys.Kill(p.Process.Pid, sys.SIGKILL); err != nil {
		return fmt.Errorf("kill tracee %d: %v", p.Process.Pid, err)
	}
	var status sys.WaitStatus
	_, _ = sys.Wait4(p.Process.Pid, &status, sys.WALL, nil)

	logrus.WithField("pid", p.Process.Pid).Debug("tracee killed")
	return nil
}

// Alive reports whether the tracee still exists. It never consumes a
// wait status, so it cannot race with a pending Resume or SingleStep.
func (p *TracedProcess) Alive() bool {
	if p == nil || p.Process == nil {
		return false
	}
	if err := sys.Kill(p.Process.Pid, sys.Signal(0)); err != nil {
		return false
	}
	return procState(p.Process.Pid) != statusZombie
}

// --------------------------------------------------------------------

// ReadMemory reads len(buf) bytes of tracee memory at addr, returning
// the number of bytes read.
func (p *TracedProcess) ReadMemory(addr uintptr, buf []byte) (int, error) {
	var (
		n   int
		err error
	)
	p.ExecPtrace(func() {
		n, err = syscall.PtracePeekData(p.Process.Pid, addr, buf)
	})
	return n, err
}

// WriteMemory writes buf into tracee memory at addr, returning the
// number of bytes written.
func (p *TracedProcess) WriteMemory(addr uintptr, buf []byte) (int, error) {
	var (
		n   int
		err error
	)
	p.ExecPtrace(func() {
		n, err = syscall.PtracePokeData(p.Process.Pid, addr, buf)
	})
	return n, err
}

// WriteByte patches a single byte at addr by read-modify-write of the
// containing aligned word and returns the byte previously stored there.
// This is the primitive both breakpoint install and remove are built on.
func (p *TracedProcess) WriteByte(addr uintptr, val byte) (byte, error) {
	aligned := addr &^ (wordSize - 1)
	off := addr - aligned

	word := make([]byte, wordSize)
	n, err := p.ReadMemory(aligned, word)
	if err != nil || n != wordSize {
		return 0, fmt.Errorf("peek word at %#x error: %v, bytes: %d", aligned, err, n)
	}

	orig := word[off]
	word[off] = val

	n, err = p.WriteMemory(aligned, word)
	if err != nil || n != wordSize {
		return 0, fmt.Errorf("poke word at %#x error: %v, bytes: %d", aligned, err, n)
	}
	return orig, nil
}

// --------------------------------------------------------------------

// ReadRegister reads the tracee's general purpose registers.
func (p *TracedProcess) ReadRegister() (*syscall.PtraceRegs, error) {
	var (
		regs syscall.PtraceRegs
		err  error
	)
	p.ExecPtrace(func() {
		err = syscall.PtraceGetRegs(p.Process.Pid, &regs)
	})
	if err != nil {
		return nil, fmt.Errorf("get regs error: %v", err)
	}
	return &regs, nil
}

// WriteRegister overwrites the tracee's general purpose registers.
func (p *TracedProcess) WriteRegister(regs *syscall.PtraceRegs) error {
	var err error
	p.ExecPtrace(func() {
		err = syscall.PtraceSetRegs(p.Process.Pid, regs)
	})
	return err
}

// PC returns the tracee's current instruction pointer.
func (p *TracedProcess) PC() (uint64, error) {
	regs, err := p.ReadRegister()
	if err != nil {
		return 0, err
	}
	return regs.PC(), nil
}

// SetPC rewinds (or advances) the tracee's instruction pointer.
func (p *TracedProcess) SetPC(pc uint64) error {
	regs, err := p.ReadRegister()
	if err != nil {
		return err
	}
	regs.SetPC(pc)
	return p.WriteRegister(regs)
}
