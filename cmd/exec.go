/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"

	"github.com/hitzhangjie/cdbg/cmd/debug"
	"github.com/hitzhangjie/cdbg/pkg/target"

	"github.com/spf13/cobra"
)

// execCmd represents the exec command
var execCmd = &cobra.Command{
	Use:   "exec <prog> [args...]",
	Short: "debug an executable program",
	Long: `debug an executable program.

The program is not started until the session's run command; breakpoints
added before run are applied when the process launches.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 1 {
			return errors.New("usage: cdbg exec <prog> [args...]")
		}

		dbg, err := target.NewDebugger(args[0], args[1:], target.KindExec)
		if err != nil {
			return err
		}

		debug.CurrentSession = debug.NewDebugSession(dbg).AtExit(debug.Cleanup)
		debug.CurrentSession.Start()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
