package debug

import (
	"github.com/spf13/cobra"
)

var stepCmd = &cobra.Command{
	Use:     "stepi",
	Short:   "execute one machine instruction",
	Aliases: []string{"si", "s"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupCtrlFlow,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dbg := CurrentSession.dbg

		status, err := dbg.StepInstruction()
		if err != nil {
			return err
		}
		printStatus(dbg, status)
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(stepCmd)
}
