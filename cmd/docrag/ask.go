package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docrag/internal/chunker"
	"docrag/internal/ingest"
	"docrag/internal/service"
	"docrag/internal/tui"
)

func newAskCmd(cfgPath *string) *cobra.Command {
	var ingestDir string
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from the indexed corpus (interactive console without arguments)",
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
			generator, err := buildGenerator(cfg)
			if err != nil {
				return err
			}

			if ingestDir != "" {
				orch := ingest.New(chunker.New(cfg.Chunker.MaxLength), embedder, store, logger, cfg.Ingest.Extensions)
				if _, err := orch.Run(cmd.Context(), ingestDir); err != nil {
					return err
				}
			}

			svc := service.New(embedder, store, generator, logger,
				cfg.Retrieval.TopK, cfg.Retrieval.MaxContextChars)

			if len(args) > 0 {
				answer, err := svc.Ask(cmd.Context(), strings.Join(args, " "), "")
				if err != nil {
					return err
				}
				cmd.Println(answer.Text)
				if len(answer.Sources) > 0 {
					cmd.Println("\nSources:")
					for _, s := range answer.Sources {
						cmd.Printf("  %s\n", s)
					}
				}
				return nil
			}

			_, err = tea.NewProgram(tui.New(svc)).Run()
			return err
		},
	}
	cmd.Flags().StringVar(&ingestDir, "ingest", "", "ingest this directory before asking")
	return cmd
}
