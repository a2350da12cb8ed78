package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vmasm/pkg/isa"
	"vmasm/pkg/utils"
)

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm FILE",
		Short: "Print a listing of a binary image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := utils.ReadSource(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), isa.Disassemble(code))
			return nil
		},
	}
}
