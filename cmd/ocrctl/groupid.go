package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/groupid"
)

func newGroupIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "group-id [key...]",
		Short: "Print the group identifier derived from each storage key",
		Args:  cobra.MinimumNArgs(1),
		// Needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, key := range args {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", groupid.Extract(key), key); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
