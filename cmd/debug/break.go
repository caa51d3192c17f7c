package debug

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var breakCmd = &cobra.Command{
	Use:   "break <locspec>",
	Short: "add a breakpoint",
	Long: `add a breakpoint at the location given by locspec.

Supported locspec forms:
- *<hexaddr>       literal instruction address
- <lineno>         line in the target's main source file
- <file>:<lineno>  line in a named source file
- <funcname>       function entry (after prologue)`,
	Aliases: []string{"b", "breakpoint"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupBreakpoints,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return errors.New("usage: break <locspec>")
		}

		bp, err := CurrentSession.dbg.SetBreakpoint(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("breakpoint %d set at %#x (%s)\n", bp.ID, bp.Addr, bp.Pos)
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(breakCmd)
}
