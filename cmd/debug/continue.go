package debug

import (
	"github.com/spf13/cobra"
)

var continueCmd = &cobra.Command{
	Use:   "continue",
	Short: "run until the next breakpoint",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupCtrlFlow,
	},
	Aliases: []string{"c"},
	RunE: func(cmd *cobra.Command, args []string) error {
		dbg := CurrentSession.dbg

		status, err := dbg.Continue()
		if err != nil {
			return err
		}
		printStatus(dbg, status)
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(continueCmd)
}
