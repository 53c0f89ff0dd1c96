package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/bootstrap"
)

func newExtractCmd(c *cli) *cobra.Command {
	var (
		outPath string
		lang    string
		engine  string
	)
	cmd := &cobra.Command{
		Use:   "extract [pdf-path]",
		Short: "Extract the text of a local PDF without touching the object store",
		Example: `  ocrctl extract ./certificado.pdf
  ocrctl extract ./sentencia.pdf --out sentencia.txt --lang spa`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			if lang != "" {
				cfg.OCRLanguage = lang
			}
			if engine != "" {
				cfg.OCREngine = engine
			}

			assembler, closeFn, err := bootstrap.NewExtractionPipeline(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer closeFn()

			doc, err := assembler.Assemble(cmd.Context(), args[0], func(done, total int) {
				slog.Debug("page_done", "page", done, "total", total)
			})
			if err != nil {
				return fmt.Errorf("extract %s: %w", args[0], err)
			}
			slog.Info("document_extracted",
				"path", args[0],
				"total_pages", doc.PageCount,
				"pages_with_text", doc.PagesWithText,
				"document_type", string(doc.Type),
			)

			if outPath == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), doc.Text)
				return err
			}
			if err := os.WriteFile(outPath, []byte(doc.Text), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d pages, %s\n", outPath, doc.PagesWithText, doc.PageCount, doc.Type)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the text to this file instead of stdout")
	cmd.Flags().StringVar(&lang, "lang", "", "OCR language, overrides OCR_LANGUAGE")
	cmd.Flags().StringVar(&engine, "engine", "", "OCR engine (tesseract, vision), overrides OCR_ENGINE")
	return cmd
}
