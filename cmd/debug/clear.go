package debug

import (
	"errors"
	"fmt"

	"github.com/hitzhangjie/cdbg/pkg/target"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear -n <breakpoint no.>",
	Short: "remove the breakpoint with the given number",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupBreakpoints,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := cmd.Flags().GetUint64("n")
		if err != nil {
			return err
		}

		var brk *target.Breakpoint
		for _, b := range CurrentSession.dbg.Breakpoints {
			if b.ID != id {
				continue
			}
			brk = b
			break
		}

		if brk == nil {
			return errors.New("breakpoint not found")
		}

		if _, err = CurrentSession.dbg.ClearBreakpoint(brk.Addr); err != nil {
			return err
		}
		fmt.Printf("breakpoint %d removed\n", brk.ID)
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(clearCmd)

	clearCmd.Flags().Uint64P("n", "n", 1, "breakpoint number")
}
