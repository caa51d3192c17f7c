package target

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"
)

// maxStackFrames bounds the frame pointer walk. The real terminal
// condition is reaching the entry function; the cap only guards against
// targets whose frame layout does not match the convention (built
// without frame pointers, corrupted stack).
const maxStackFrames = 128

// Frame is one entry of a reconstructed call stack.
type Frame struct {
	PC   uint64
	Func string
	File string
	Line int
}

func (f Frame) String() string {
	if f.File == "" {
		return fmt.Sprintf("%s (%#x)", f.Func, f.PC)
	}
	return fmt.Sprintf("%s (%s:%d)", f.Func, filepath.Base(f.File), f.Line)
}

// Backtrace walks the saved frame pointer chain of the stopped tracee
// and returns the call stack, innermost frame first. Each frame's base
// slot holds the caller's frame base and the slot one word above holds
// the return address. The walk stops once the resolver maps a frame to
// the session's entry function. Any memory read failure aborts the
// whole backtrace with an error; a failed symbol lookup only leaves the
// frame unannotated.
func (d *Debugger) Backtrace() ([]Frame, error) {
	if !d.process.Alive() {
		return nil, ErrNoProcess
	}
	p := d.process

	regs, err := p.ReadRegister()
	if err != nil {
		return nil, err
	}

	var (
		pc     = regs.PC()
		base   = regs.Rbp
		frames []Frame
	)

	for len(frames) < maxStackFrames {
		frame := Frame{PC: pc, Func: "?"}
		if fn, err := d.BInfo.PCToFunction(pc); err == nil {
			frame.Func = fn.Name()
		}
		if file, line, err := d.BInfo.PCToFileLine(pc); err == nil {
			frame.File, frame.Line = file, line
		}
		frames = append(frames, frame)

		if frame.Func == d.EntryFn {
			break
		}
		if base == 0 {
			break
		}

		// [base] = caller's frame base, [base+8] = return address
		buf := make([]byte, 2*wordSize)
		n, err := p.ReadMemory(uintptr(base), buf)
		if err != nil || n != len(buf) {
			return nil, fmt.Errorf("unwind: read frame at %#x error: %v, bytes: %d", base, err, n)
		}

		reader := bytes.NewBuffer(buf)
		if err := binary.Read(reader, binary.LittleEndian, &base); err != nil {
			return nil, err
		}
		if err := binary.Read(reader, binary.LittleEndian, &pc); err != nil {
			return nil, err
		}
	}

	return frames, nil
}
