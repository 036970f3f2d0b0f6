package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"docrag/internal/chunker"
	"docrag/internal/ingest"
	"docrag/internal/server"
	"docrag/internal/service"
)

func newServeCmd(cfgPath *string) *cobra.Command {
	var ingestDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the query-facing HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// With the in-memory store the index lives in this process, so
			// optionally ingest before serving.
			if ingestDir != "" {
				orch := ingest.New(chunker.New(cfg.Chunker.MaxLength), embedder, store, logger, cfg.Ingest.Extensions)
				report, err := orch.Run(ctx, ingestDir)
				if err != nil {
					return err
				}
				printReport(cmd, report)
			}

			svc := service.New(embedder, store, generator, logger,
				cfg.Retrieval.TopK, cfg.Retrieval.MaxContextChars)
			srv, err := server.New(svc, logger, &server.Config{
				Host:        cfg.Server.Host,
				Port:        cfg.Server.Port,
				CORSOrigins: cfg.Server.CORSOrigins,
			})
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&ingestDir, "ingest", "", "ingest this directory before serving")
	return cmd
}
