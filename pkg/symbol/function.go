package symbol

import (
	"debug/dwarf"
)

// Function describes one subprogram entry of the target binary.
//
// see DWARFv4 3.3 subroutine and entry point entries
type Function struct {
	name     string
	lowpc    uint64
	highpc   uint64
	declFile int64
	external bool

	entry *dwarf.Entry
	cu    *CompileUnit
}

func (f *Function) Name() string {
	return f.name
}

// LowPC is the address of the function's first instruction.
func (f *Function) LowPC() uint64 {
	return f.lowpc
}

// HighPC is the address one past the function's last instruction.
func (f *Function) HighPC() uint64 {
	return f.highpc
}

// ContainsPC reports whether pc falls inside the function's range.
func (f *Function) ContainsPC(pc uint64) bool {
	return f.lowpc <= pc && pc < f.highpc
}

func (f *Function) parseFrom(curEntry *dwarf.Entry) error {
	for _, field := range curEntry.Field {
		switch field.Attr {
		case dwarf.AttrName:
			if val, ok := field.Val.(string); ok {
				f.name = val
			}
		case dwarf.AttrLowpc:
			if val, ok := field.Val.(uint64); ok {
				f.lowpc = val
			}
		case dwarf.AttrHighpc:
			// class address or, since DWARFv4, class constant holding
			// the offset from lowpc
			switch val := field.Val.(type) {
			case uint64:
				f.highpc = val
			case int64:
				f.highpc = uint64(val)
			}
		case dwarf.AttrDeclFile:
			if val, ok := field.Val.(int64); ok {
				f.declFile = val
			}
		case dwarf.AttrExternal:
			if val, ok := field.Val.(bool); ok {
				f.external = val
			}
		}
	}

	// constant-class highpc is an offset, not an address
	if f.highpc != 0 && f.highpc < f.lowpc {
		f.highpc += f.lowpc
	}

	f.entry = curEntry
	return nil
}
