package main

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/config"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/observability/logging"
)

// cli carries the configuration shared by every subcommand.
type cli struct {
	cfg config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	var logLevel string

	root := &cobra.Command{
		Use:   "ocrctl",
		Short: "Command line companion of the PDF OCR service",
		Long: `ocrctl runs the PDF text extraction pipeline outside the HTTP API.

It reads the same environment variables as the api and worker processes
(STORAGE_BACKEND, OCR_ENGINE, OCR_LANGUAGE, NATS_URL, ...), optionally from a
.env file in the working directory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c.cfg = config.Load()
			if cmd.Flags().Changed("log-level") {
				c.cfg.LogLevel = logLevel
			}
			slog.SetDefault(logging.NewTextLogger(cmd.ErrOrStderr(), c.cfg.LogLevel))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level written to stderr (debug, info, warn, error)")

	root.AddCommand(
		newExtractCmd(c),
		newSubmitCmd(c),
		newGroupIDCmd(),
		newStatsCmd(c),
	)
	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
