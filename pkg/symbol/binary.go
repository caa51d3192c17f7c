// Package symbol loads the debug info of the target binary and maps
// between instruction addresses, source lines and function names. It is
// a pure lookup table: nothing here touches the running process.
package symbol

import (
	"debug/dwarf"
	"debug/elf"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("not found")

// BinaryInfo is the parsed debug info of one executable.
type BinaryInfo struct {
	Sources      map[string]map[int][]*dwarf.LineEntry // key=filename, val=map[lineno]lineEntries
	Functions    []*Function
	CompileUnits []*CompileUnit

	defaultFile string

	// only used for parsing purpose
	curCompileUnit *CompileUnit
	curFunction    *Function
}

// Analyze parses the executable `execFile` and returns its binary info.
func Analyze(execFile string) (*BinaryInfo, error) {
	file, err := elf.Open(execFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dwarfData, err := file.DWARF()
	if err != nil {
		return nil, fmt.Errorf("read DWARF of %s: %v", execFile, err)
	}

	bi := &BinaryInfo{
		Sources: make(map[string]map[int][]*dwarf.LineEntry),
	}
	if err := bi.parseLineAndInfo(dwarfData); err != nil {
		return nil, err
	}
	return bi, nil
}

// parseLineAndInfo scans .(z)debug_line and .(z)debug_info.
//
// unit entries: see DWARFv4 chapter 3.3.1 normal and partial
// compilation unit entries
func (bi *BinaryInfo) parseLineAndInfo(dwarfData *dwarf.Data) error {
	reader := dwarfData.Reader()
	for {
		entry, err := reader.Next()
		if err != nil {
			return err
		}
		if entry == nil { // reaches the end
			break
		}

		switch entry.Tag {
		case dwarf.TagCompileUnit:
			cu := &CompileUnit{entry: entry, bi: bi}
			bi.curCompileUnit = cu
			bi.CompileUnits = append(bi.CompileUnits, cu)

			rd, err := dwarfData.LineReader(entry)
			if err != nil {
				return err
			}
			if rd == nil {
				continue
			}
			if err := cu.parseLineSection(rd); err != nil {
				return err
			}

		case dwarf.TagSubprogram:
			fn := &Function{cu: bi.curCompileUnit}
			if err := fn.parseFrom(entry); err != nil {
				return err
			}
			// skip declarations and inlined copies without a range
			if fn.lowpc == 0 && fn.highpc == 0 {
				continue
			}
			bi.curFunction = fn
			bi.Functions = append(bi.Functions, fn)
			if bi.curCompileUnit != nil {
				bi.curCompileUnit.functions = append(bi.curCompileUnit.functions, fn)
			}
		}
	}
	return nil
}

// DefaultFile is the primary source file of the first compile unit,
// used to resolve bare line-number breakpoint specs.
func (bi *BinaryInfo) DefaultFile() string {
	return bi.defaultFile
}

// PCToFunction returns the function whose range covers pc.
//
// note: inline functions are not considered
func (bi *BinaryInfo) PCToFunction(pc uint64) (*Function, error) {
	for _, f := range bi.Functions {
		if f.ContainsPC(pc) {
			return f, nil
		}
	}
	return nil, ErrNotFound
}

// FuncToPC returns the breakpoint address for the named function: the
// first prologue-end line entry inside its range, falling back to the
// function's low address.
func (bi *BinaryInfo) FuncToPC(name string) (uint64, error) {
	for _, f := range bi.Functions {
		if f.name != name {
			continue
		}
		if pc, ok := bi.prologueEndPC(f); ok {
			return pc, nil
		}
		return f.lowpc, nil
	}
	return 0, ErrNotFound
}

func (bi *BinaryInfo) prologueEndPC(f *Function) (uint64, bool) {
	for _, lines := range bi.Sources {
		for _, lineEntries := range lines {
			for _, v := range lineEntries {
				if v.PrologueEnd && f.ContainsPC(v.Address) {
					return v.Address, true
				}
			}
		}
	}
	return 0, false
}

// FileLineToPC maps `filename:lineno` to the lowest instruction address
// generated for that line. The filename may be a suffix of the compile
// path recorded in the line table.
func (bi *BinaryInfo) FileLineToPC(filename string, lineno int) (uint64, error) {
	entries := bi.lookupFile(filename)
	if entries == nil || len(entries[lineno]) == 0 {
		return 0, ErrNotFound
	}

	lineEntries := entries[lineno]
	addr := lineEntries[0].Address
	for _, v := range lineEntries[1:] {
		if v.Address < addr {
			addr = v.Address
		}
	}
	return addr, nil
}

// LineToPC maps a bare line number in the default source file.
func (bi *BinaryInfo) LineToPC(lineno int) (uint64, error) {
	if bi.defaultFile == "" {
		return 0, ErrNotFound
	}
	return bi.FileLineToPC(bi.defaultFile, lineno)
}

func (bi *BinaryInfo) lookupFile(filename string) map[int][]*dwarf.LineEntry {
	if entries, ok := bi.Sources[filename]; ok {
		return entries
	}
	// tolerate relative or basename-only specs
	for file, entries := range bi.Sources {
		if strings.HasSuffix(file, "/"+filename) || filepath.Base(file) == filename {
			return entries
		}
	}
	return nil
}

// PCToFileLine maps an instruction address back to the closest source
// position at or before it.
func (bi *BinaryInfo) PCToFileLine(pc uint64) (string, int, error) {
	var (
		found    bool
		bestAddr uint64
		bestFile string
		bestLine int
	)
	for filename, lines := range bi.Sources {
		for lineno, lineEntries := range lines {
			for _, entry := range lineEntries {
				if entry.Address == pc {
					return filename, lineno, nil
				}
				if entry.Address < pc && (!found || entry.Address > bestAddr) {
					found = true
					bestAddr = entry.Address
					bestFile = filename
					bestLine = lineno
				}
			}
		}
	}
	if !found {
		return "", 0, ErrNotFound
	}
	return bestFile, bestLine, nil
}
