package debug

import (
	"github.com/hitzhangjie/cdbg/pkg/target"
	"github.com/spf13/cobra"
)

var disassCmd = &cobra.Command{
	Use:   "disass",
	Short: "disassemble machine instructions at PC",
	Annotations: map[string]string{
		cmdGroupAnnotation: cmdGroupSource,
	},
	Aliases: []string{"dis", "disassemble"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			max, _    = cmd.Flags().GetUint64("max")
			syntax, _ = cmd.Flags().GetString("syntax")
		)
		dbg := CurrentSession.dbg
		if !dbg.Alive() {
			return target.ErrNoProcess
		}
		p := dbg.Process()

		pc, err := p.PC()
		if err != nil {
			return err
		}

		// when stopped just past an installed trap, restore the original
		// byte first so the displaced instruction is decoded, not 0xCC
		if bp, ok := dbg.Breakpoints[uintptr(pc-1)]; ok && bp.Installed {
			if err := bp.Uninstall(p); err != nil {
				return err
			}
			defer bp.Install(p)

			if err = p.SetPC(pc - 1); err != nil {
				return err
			}
			pc--
		}

		return p.Disassemble(pc, max, syntax)
	},
}

func init() {
	debugRootCmd.AddCommand(disassCmd)

	disassCmd.Flags().Uint64P("max", "n", 10, "number of instructions to decode")
	disassCmd.Flags().StringP("syntax", "s", "gnu", "assembly syntax: go, gnu, intel")
}
