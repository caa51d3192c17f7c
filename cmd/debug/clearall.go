package debug

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearallCmd = &cobra.Command{
	Use:   "clearall",
	Short: "remove all breakpoints",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupBreakpoints,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dbg := CurrentSession.dbg
		for _, brk := range dbg.Breakpoints.Sorted() {
			if _, err := dbg.ClearBreakpoint(brk.Addr); err != nil {
				return fmt.Errorf("clear breakpoint %d: %v", brk.ID, err)
			}
		}
		fmt.Println("all breakpoints removed")
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(clearallCmd)
}
