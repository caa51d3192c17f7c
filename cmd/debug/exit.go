package debug

import (
	"fmt"
	"os"

	"github.com/hitzhangjie/cdbg/pkg/target"
	"github.com/spf13/cobra"
)

var exitCmd = &cobra.Command{
	Use:     "exit",
	Short:   "end the debugging session",
	Aliases: []string{"quit", "q"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupOthers,
	},
	Run: func(cmd *cobra.Command, args []string) {
		CurrentSession.Stop()
	},
}

func init() {
	debugRootCmd.AddCommand(exitCmd)
}

// Cleanup tears the session's tracee down when the session ends. The
// tracee was started by the debugger, so it never outlives the session;
// a binary built by the debugger itself is removed as well.
func Cleanup() {
	if CurrentSession == nil || CurrentSession.dbg == nil {
		return
	}
	dbg := CurrentSession.dbg

	if dbg.Alive() {
		if err := dbg.Kill(); err != nil {
			fmt.Fprintf(os.Stderr, "kill tracee: %v\n", err)
		}
	}

	if dbg.Kind == target.KindDebug {
		if err := os.RemoveAll(dbg.Command); err != nil {
			fmt.Fprintf(os.Stderr, "remove built binary %s, err: %v\n", dbg.Command, err)
		}
	}
}
