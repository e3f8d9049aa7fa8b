//go:build libpostal

package main

import (
	"github.com/spf13/cobra"

	"github.com/postal-engine/internal/external"
	"github.com/postal-engine/postal"
)

func init() {
	extraCommands = append(extraCommands, createCompareCmd)
}

func createCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare [address]",
		Short: "Compare the engine output with libpostal",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, release, err := openEngine(cmd.Context(), postal.ModuleParser, postal.ModuleExpansion)
			if err != nil {
				return err
			}
			defer release()

			lines, err := inputs(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			ref := external.Reference{Languages: languages(), Country: flags.country}
			for _, line := range lines {
				cmp, err := ref.Compare(eng, line)
				if err != nil {
					return err
				}
				printJSON(cmd.OutOrStdout(), cmp)
			}
			return nil
		},
	}
}
