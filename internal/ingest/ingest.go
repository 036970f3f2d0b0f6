// Package ingest drives the ingestion pipeline: discover documents,
// normalize, chunk, embed and index them, tolerating per-document failures.
package ingest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"docrag/internal/domain"
	"docrag/internal/normalize"
)

// DefaultExtensions are the markup extensions discovered under the root.
var DefaultExtensions = []string{".md", ".mdx"}

// Failure records a document that could not be fully ingested.
type Failure struct {
	Source string
	Err    string
}

// Report is the terminal summary of an ingestion run, its only artifact
// besides the store writes themselves.
type Report struct {
	DocumentsProcessed int
	ChunksWritten      int
	ChunksSkipped      int
	Failures           []Failure
}

// Orchestrator wires the normalizer, chunker, embedder and store into a
// strictly sequential ingestion run. Sequential processing is deliberate:
// it bounds load on rate-limited providers and keeps log ordering stable.
type Orchestrator struct {
	chunker    domain.Chunker
	embedder   domain.Embedder
	store      domain.VectorStore
	logger     *zap.Logger
	extensions map[string]struct{}
}

func New(chunker domain.Chunker, embedder domain.Embedder, store domain.VectorStore, logger *zap.Logger, extensions []string) *Orchestrator {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	return &Orchestrator{
		chunker:    chunker,
		embedder:   embedder,
		store:      store,
		logger:     logger,
		extensions: exts,
	}
}

// Run ingests every matching document under root. A failing document is
// recorded in the report and never aborts the run; only an unreachable
// store or an unwalkable root is fatal.
func (o *Orchestrator) Run(ctx context.Context, root string) (*Report, error) {
	if err := o.store.EnsureCollection(ctx, o.embedder.Dimension()); err != nil {
		return nil, err
	}
	sources, err := o.discover(root)
	if err != nil {
		return nil, err
	}
	o.logger.Info("starting ingestion",
		zap.String("root", root),
		zap.Int("documents", len(sources)),
	)

	report := &Report{}
	for _, source := range sources {
		written, skipped, docErr := o.ingestDocument(ctx, root, source)
		report.ChunksWritten += written
		report.ChunksSkipped += skipped
		if docErr != nil {
			o.logger.Warn("document failed",
				zap.String("source", source),
				zap.Error(docErr),
			)
			report.Failures = append(report.Failures, Failure{Source: source, Err: docErr.Error()})
			continue
		}
		report.DocumentsProcessed++
	}

	o.logger.Info("ingestion complete",
		zap.Int("documents_processed", report.DocumentsProcessed),
		zap.Int("chunks_written", report.ChunksWritten),
		zap.Int("chunks_skipped", report.ChunksSkipped),
		zap.Int("failures", len(report.Failures)),
	)
	return report, nil
}

// discover walks root depth-first and returns the relative paths of all
// files with a configured markup extension. Discovery order does not matter
// for correctness since chunk ids are keyed by relative path.
func (o *Orchestrator) discover(root string) ([]string, error) {
	var sources []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := o.extensions[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		sources = append(sources, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sources, nil
}

// ingestDocument runs one document through the pipeline. A failing chunk is
// skipped and subsequent chunks still get processed; all chunk errors are
// joined into the returned document error.
func (o *Orchestrator) ingestDocument(ctx context.Context, root, source string) (written, skipped int, err error) {
	raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(source)))
	if err != nil {
		return 0, 0, err
	}
	plain := normalize.Text(string(raw))
	if plain == "" {
		o.logger.Debug("no content after normalization", zap.String("source", source))
		return 0, 0, nil
	}

	chunks, skipped := o.chunker.Chunk(domain.Document{Source: source, Content: plain})
	o.logger.Debug("chunked document",
		zap.String("source", source),
		zap.Int("chunks", len(chunks)),
		zap.Int("skipped", skipped),
	)

	var chunkErrs []error
	for _, chunk := range chunks {
		vector, embedErr := o.embedder.Embed(ctx, chunk.Text)
		if embedErr != nil {
			chunkErrs = append(chunkErrs, embedErr)
			continue
		}
		if upsertErr := o.store.Upsert(ctx, chunk, vector); upsertErr != nil {
			chunkErrs = append(chunkErrs, upsertErr)
			continue
		}
		written++
	}
	if len(chunkErrs) > 0 {
		return written, skipped, errors.Join(chunkErrs...)
	}
	o.logger.Info("ingested document",
		zap.String("source", source),
		zap.Int("chunks_written", written),
	)
	return written, skipped, nil
}
