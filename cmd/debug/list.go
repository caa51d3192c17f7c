package debug

import (
	"fmt"
	"io/ioutil"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hitzhangjie/cdbg/pkg/target"
)

var listCmd = &cobra.Command{
	Use:     "list [linespec]",
	Short:   "show source around the given line, or around PC",
	Aliases: []string{"l"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupSource,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			file   string
			lineno int
			err    error
		)

		dbg := CurrentSession.dbg

		// parse location
		if len(args) != 0 {
			file, lineno, err = parseFileLineno(args[0])
			if err != nil {
				return err
			}
		} else {
			if !dbg.Alive() {
				return target.ErrNoProcess
			}

			pc, err := dbg.Process().PC()
			if err != nil {
				return err
			}
			// a trap stop leaves PC one past the patched address
			if _, ok := dbg.Breakpoints[uintptr(pc-1)]; ok {
				pc--
			}

			file, lineno, err = dbg.BInfo.PCToFileLine(pc)
			if err != nil {
				return fmt.Errorf("fileline to pc err: %v", err)
			}
		}

		// print lines
		return listFileLines(file, lineno, 5)
	},
}

// list file lines, lineno is zero-based
func listFileLines(file string, lineno, rng int) error {
	lines, offset, err := listFile(file, lineno, rng)
	if err != nil {
		return fmt.Errorf("list file err: %v", err)
	}

	// use 1-based counter
	idx := offset + 1
	for _, ln := range lines {
		if idx != lineno {
			fmt.Printf("%-4s\t%d\t%s\n", "", idx, ln)
		} else {
			fmt.Printf("%-4s\t%d\t%s\n", "=>", idx, ln)
		}
		idx++
	}

	return nil
}

func init() {
	debugRootCmd.AddCommand(listCmd)
}

// must be form file:lineno, like main.c:100
func parseFileLineno(s string) (file string, lineno int, err error) {
	vals := strings.Split(s, ":")
	if len(vals) != 2 {
		err = fmt.Errorf("invalid location: %s, must be file:lineno", s)
		return
	}

	file = vals[0]
	v, err := strconv.ParseInt(vals[1], 10, 64)
	if err != nil {
		err = fmt.Errorf("invalid location: %s, must be file:lineno", s)
		return
	}
	lineno = int(v)
	return
}

// return value `offset` is zero-based counter
func listFile(file string, lineno, rng int) (lines []string, offset int, err error) {
	dat, err := ioutil.ReadFile(file)
	if err != nil {
		err = fmt.Errorf("read file err: %v", err)
		return
	}

	raw := strings.Split(string(dat), "\n")
	count := len(raw)

	begin := lineno - rng
	if begin < 0 {
		begin = 0
	}
	if begin > count {
		return
	}

	end := lineno + rng
	if end > count {
		end = count
	}

	return raw[begin:end], begin, nil
}
