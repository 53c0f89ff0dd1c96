package main

import (
	"github.com/spf13/cobra"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/bootstrap"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/usecase"
)

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [bucket] [prefix]",
		Short: "Print folder statistics for a bucket prefix as JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 2 {
				prefix = args[1]
			}

			store, closeFn, err := bootstrap.NewObjectStore(cmd.Context(), c.cfg, nil)
			if err != nil {
				return err
			}
			defer closeFn()

			stats, err := usecase.NewFolderStatsUseCase(store).FolderStats(cmd.Context(), args[0], prefix)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		},
	}
}
