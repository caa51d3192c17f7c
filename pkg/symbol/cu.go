package symbol

import (
	"debug/dwarf"
	"io"
)

// CompileUnit is one compilation unit of the target binary.
//
// see DWARFv4 3.1.1 normal and partial compilation unit entries
type CompileUnit struct {
	functions []*Function
	entry     *dwarf.Entry
	bi        *BinaryInfo
}

// parseLineSection scans the unit's portion of .(z)debug_line into the
// owning BinaryInfo's file/line index.
//
// note: one compile unit may contain more than one source file.
func (c *CompileUnit) parseLineSection(lineReader *dwarf.LineReader) error {
	entry := dwarf.LineEntry{}

	for {
		err := lineReader.Next(&entry)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if entry.File == nil {
			continue
		}

		file := entry.File.Name
		if c.bi.defaultFile == "" {
			c.bi.defaultFile = file
		}

		entries, ok := c.bi.Sources[file]
		if !ok {
			entries = make(map[int][]*dwarf.LineEntry)
			c.bi.Sources[file] = entries
		}

		dup := entry
		entries[entry.Line] = append(entries[entry.Line], &dup)
	}

	return nil
}

func (c *CompileUnit) name() string {
	v, _ := c.entry.Val(dwarf.AttrName).(string)
	return v
}
