package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vmasm/pkg/build"
	"vmasm/pkg/utils"
)

func newBatchCmd() *cobra.Command {
	var (
		whitelist string
		jobs      int
	)
	cmd := &cobra.Command{
		Use:   "batch FILE...",
		Short: "Assemble many files concurrently",
		Long: `Batch assembles every FILE to a binary and a symbol file next to it:
prog.asm becomes prog.bin and prog.sym. One line per file reports the
result. The command fails if any file fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, a := range args {
				if a == utils.StdinPath {
					return fmt.Errorf("batch does not read standard input")
				}
			}
			wl, err := loadWhitelist(whitelist)
			if err != nil {
				return err
			}
			results, err := build.Run(cmd.Context(), args, build.Options{Whitelist: wl, Jobs: jobs})
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				fmt.Fprintln(cmd.OutOrStdout(), r)
				if r.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&whitelist, "whitelist", "w", "", "JSON whitelist of permitted mnemonics")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "files assembled at once (default GOMAXPROCS)")
	return cmd
}
