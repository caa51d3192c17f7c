package debug

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/hitzhangjie/cdbg/pkg/target"
	"github.com/spf13/cobra"
)

var setRegCmd = &cobra.Command{
	Use:   "setreg <reg> <value>",
	Short: "overwrite a register of the tracee",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return errors.New("usage: setreg <reg> <value>")
		}

		dbg := CurrentSession.dbg
		if !dbg.Alive() {
			return target.ErrNoProcess
		}

		regName := strings.ToLower(args[0])

		value, err := strconv.ParseUint(args[1], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid value format: %s", args[1])
		}

		regs, err := dbg.Process().ReadRegister()
		if err != nil {
			return fmt.Errorf("failed to read registers: %v", err)
		}

		// match the register by PtraceRegs field name
		rv := reflect.ValueOf(regs).Elem()
		rt := reflect.TypeOf(*regs)

		var fieldFound bool
		for i := 0; i < rv.NumField(); i++ {
			fieldName := strings.ToLower(rt.Field(i).Name)
			if fieldName == regName {
				rv.Field(i).SetUint(value)
				fieldFound = true

				if err = dbg.Process().WriteRegister(regs); err != nil {
					return fmt.Errorf("failed to write register %s: %v", regName, err)
				}
				break
			}
		}

		if !fieldFound {
			return fmt.Errorf("invalid register name: %s", regName)
		}
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(setRegCmd)
}
