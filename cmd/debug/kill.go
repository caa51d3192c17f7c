package debug

import (
	"fmt"

	"github.com/spf13/cobra"
)

var killCmd = &cobra.Command{
	Use:     "kill",
	Short:   "kill the running target process",
	Aliases: []string{"k"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupCtrlFlow,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dbg := CurrentSession.dbg
		if !dbg.Alive() {
			fmt.Println("no process to kill")
			return nil
		}
		return dbg.Kill()
	},
}

func init() {
	debugRootCmd.AddCommand(killCmd)
}
