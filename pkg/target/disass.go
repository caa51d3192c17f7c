package target

import (
	"fmt"
	"os"
	"text/tabwriter"

	"golang.org/x/arch/x86/x86asm"
)

// Disassemble decodes up to max instructions of tracee memory starting
// at addr and prints them. Callers must make sure no trap byte is
// patched inside the decoded range, otherwise the trap is decoded
// instead of the displaced instruction.
func (p *TracedProcess) Disassemble(addr, max uint64, syntax string) error {
	dat := make([]byte, 1024)
	n, err := p.ReadMemory(uintptr(addr), dat)
	if err != nil || n == 0 {
		return fmt.Errorf("peek text error: %v, bytes: %d", err, n)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 8, ' ', 0)

	offset := uint64(0)
	count := uint64(0)
	for count < max {
		inst, err := x86asm.Decode(dat[offset:], 64)
		if err != nil {
			return fmt.Errorf("x86asm decode error: %v", err)
		}

		asm, err := instSyntax(inst, syntax)
		if err != nil {
			return fmt.Errorf("x86asm syntax error: %v", err)
		}

		end := offset + uint64(inst.Len)
		fmt.Fprintf(tw, "%#x:\t% x\t%s\n", addr+offset, dat[offset:end], asm)
		offset = end
		count++
	}
	return tw.Flush()
}

func instSyntax(inst x86asm.Inst, syntax string) (string, error) {
	switch syntax {
	case "go":
		return x86asm.GoSyntax(inst, uint64(inst.PCRel), nil), nil
	case "gnu":
		return x86asm.GNUSyntax(inst, uint64(inst.PCRel), nil), nil
	case "intel":
		return x86asm.IntelSyntax(inst, uint64(inst.PCRel), nil), nil
	default:
		return "", fmt.Errorf("invalid asm syntax: %s", syntax)
	}
}
