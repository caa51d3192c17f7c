package debug

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/hitzhangjie/cdbg/pkg/target"
	"github.com/spf13/cobra"
)

var setMemCmd = &cobra.Command{
	Use:   "setmem <addr> <value>",
	Short: "overwrite one byte of tracee memory",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return errors.New("usage: setmem <addr> <value>")
		}

		dbg := CurrentSession.dbg
		if !dbg.Alive() {
			return target.ErrNoProcess
		}

		addr, err := strconv.ParseUint(args[0], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid address format: %s", args[0])
		}

		value, err := strconv.ParseUint(args[1], 0, 8)
		if err != nil {
			return fmt.Errorf("invalid value format: %s", args[1])
		}

		orig, err := dbg.Process().WriteByte(uintptr(addr), byte(value))
		if err != nil {
			return fmt.Errorf("write memory at %#x: %v", addr, err)
		}

		fmt.Printf("%#x: %#02x => %#02x\n", addr, orig, byte(value))
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(setMemCmd)
}
