package debug

import (
	"fmt"
	"path/filepath"

	"github.com/hitzhangjie/cdbg/pkg/target"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:     "run [args...]",
	Short:   "start (or restart) the target program",
	Aliases: []string{"r"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupCtrlFlow,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		dbg := CurrentSession.dbg

		status, err := dbg.Run(args...)
		if err != nil {
			return err
		}
		printStatus(dbg, status)
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(runCmd)
}

// printStatus reports a resume outcome, annotated with the source
// position when the tracee is still alive and the position resolves.
func printStatus(dbg *target.Debugger, status target.ExecStatus) {
	switch status.Kind {
	case target.StatusStopped:
		pos := ""
		if file, line, err := dbg.BInfo.PCToFileLine(status.PC); err == nil {
			pos = fmt.Sprintf(", %s:%d", filepath.Base(file), line)
		}
		fmt.Printf("child stopped at %#x (signal: %s%s)\n", status.PC, status.Signal, pos)
	case target.StatusExited:
		fmt.Printf("child exited (status %d)\n", status.ExitCode)
	case target.StatusSignaled:
		fmt.Printf("child terminated (signal: %s)\n", status.Signal)
	}
}
