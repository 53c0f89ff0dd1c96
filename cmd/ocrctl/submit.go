package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/bootstrap"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/usecase"
)

func newSubmitCmd(c *cli) *cobra.Command {
	var req domain.AsyncRequest
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Queue an extraction request for the worker over NATS",
		Example: `  ocrctl submit --source-bucket docs --source-key in/20240012345/cert.pdf \
    --dest-bucket docs --dest-prefix 'processing/{group_id}/resources/split_text'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			queue, err := bootstrap.NewQueue(c.cfg, nil)
			if err != nil {
				return err
			}
			defer queue.Close()

			if err := usecase.NewQueuedExtractionUseCase(queue, nil).Enqueue(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s/%s on %s\n", req.SourceBucket, req.SourceKey, c.cfg.NATSSubject)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.SourceBucket, "source-bucket", "", "Bucket holding the PDF")
	cmd.Flags().StringVar(&req.SourceKey, "source-key", "", "Key of the PDF")
	cmd.Flags().StringVar(&req.DestBucket, "dest-bucket", "", "Bucket receiving the text")
	cmd.Flags().StringVar(&req.DestPrefix, "dest-prefix", "", "Destination prefix, may contain {group_id}")
	_ = cmd.MarkFlagRequired("source-bucket")
	_ = cmd.MarkFlagRequired("source-key")
	_ = cmd.MarkFlagRequired("dest-bucket")
	return cmd
}
