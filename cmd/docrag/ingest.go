package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docrag/internal/chunker"
	"docrag/internal/ingest"
)

func newIngestCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <dir>",
		Short: "Index all markup documents under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := buildLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			embedder, err := buildEmbedder(cfg)
			if err != nil {
				return err
			}
			store, err := buildStore(cfg)
			if err != nil {
				return err
			}

			orch := ingest.New(chunker.New(cfg.Chunker.MaxLength), embedder, store, logger, cfg.Ingest.Extensions)
			report, err := orch.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}
}

func printReport(cmd *cobra.Command, report *ingest.Report) {
	cmd.Printf("Documents processed: %d\n", report.DocumentsProcessed)
	cmd.Printf("Chunks written:      %d\n", report.ChunksWritten)
	cmd.Printf("Chunks skipped:      %d\n", report.ChunksSkipped)
	cmd.Printf("Failures:            %d\n", len(report.Failures))
	for _, f := range report.Failures {
		cmd.Printf("  %s: %s\n", f.Source, f.Err)
	}
}
