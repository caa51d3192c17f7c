package debug

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backtraceCmd = &cobra.Command{
	Use:     "bt",
	Short:   "print the call stack",
	Aliases: []string{"backtrace"},
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupInfo,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		frames, err := CurrentSession.dbg.Backtrace()
		if err != nil {
			return err
		}
		for idx, frame := range frames {
			fmt.Printf("#%d %s\n", idx, frame)
		}
		return nil
	},
}

func init() {
	debugRootCmd.AddCommand(backtraceCmd)
}
