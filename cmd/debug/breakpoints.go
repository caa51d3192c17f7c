package debug

import (
	"fmt"

	"github.com/spf13/cobra"
)

var breaksCmd = &cobra.Command{
	Use:     "breaks",
	Short:   "list all breakpoints",
	Aliases: []string{"bs", "breakpoints"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupBreakpoints,
	},
	Run: func(cmd *cobra.Command, args []string) {
		for _, bp := range CurrentSession.dbg.Breakpoints.Sorted() {
			fmt.Println(bp)
		}
	},
}

func init() {
	debugRootCmd.AddCommand(breaksCmd)
}
