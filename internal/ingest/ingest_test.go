package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docrag/internal/chunker"
	"docrag/internal/domain"
)

type fakeEmbedder struct {
	failSubstring string
	calls         int
}

func (f *fakeEmbedder) Dimension() int { return 3 }

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.failSubstring != "" && strings.Contains(text, f.failSubstring) {
		return nil, &domain.EmbeddingError{Err: errors.New("provider unavailable")}
	}
	return []float32{1, 0, 0}, nil
}

type fakeStore struct {
	dimension int
	upserts   []domain.Chunk
	ids       map[string]int
	failAll   bool
}

func newFakeStore() *fakeStore { return &fakeStore{ids: map[string]int{}} }

func (f *fakeStore) EnsureCollection(_ context.Context, dimension int) error {
	f.dimension = dimension
	return nil
}

func (f *fakeStore) Upsert(_ context.Context, chunk domain.Chunk, _ []float32) error {
	if f.failAll {
		return &domain.IndexError{Collection: "fake", Err: errors.New("write refused")}
	}
	f.upserts = append(f.upserts, chunk)
	f.ids[chunk.ID]++
	return nil
}

func (f *fakeStore) Search(context.Context, []float32, int) ([]domain.SearchResult, error) {
	return nil, nil
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newOrchestrator(embedder domain.Embedder, store domain.VectorStore) *Orchestrator {
	return New(chunker.New(1000), embedder, store, zap.NewNop(), nil)
}

func TestRunPartialFailureTolerance(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "alpha.md", "Alpha document body with plenty of text to form one chunk.")
	writeFile(t, dir, "beta.md", "Beta document body whose embedding is made to fail in this test.")
	writeFile(t, dir, "gamma.md", "Gamma document body with plenty of text to form one chunk.")

	store := newFakeStore()
	orch := newOrchestrator(&fakeEmbedder{failSubstring: "Beta"}, store)

	report, err := orch.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, report.DocumentsProcessed)
	assert.Equal(t, 2, report.ChunksWritten)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "beta.md", report.Failures[0].Source)
	assert.Contains(t, report.Failures[0].Err, "provider unavailable")

	// The indexer is never invoked for the failing document's chunks.
	for _, chunk := range store.upserts {
		assert.NotEqual(t, "beta.md", chunk.Source)
	}
}

func TestRunChunkIDsStableAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.md", "Document one has a full paragraph of reasonable length here.")
	writeFile(t, dir, "two.md", "Document two has a full paragraph of reasonable length here.")
	writeFile(t, dir, "nested/three.md", "Document three has a full paragraph of reasonable length here.")

	store := newFakeStore()
	orch := newOrchestrator(&fakeEmbedder{}, store)

	ctx := context.Background()
	_, err := orch.Run(ctx, dir)
	require.NoError(t, err)
	_, err = orch.Run(ctx, dir)
	require.NoError(t, err)

	// Six writes total, but only three distinct ids: the second run
	// overwrote instead of duplicating.
	assert.Len(t, store.upserts, 6)
	assert.Len(t, store.ids, 3)
	for id, count := range store.ids {
		assert.Equal(t, 2, count, "id %s", id)
	}
	assert.Contains(t, store.ids, "nested/three.md_0")
}

func TestRunSkipsShortChunks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tiny.md", "Tiny.")

	store := newFakeStore()
	report, err := newOrchestrator(&fakeEmbedder{}, store).Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, report.DocumentsProcessed)
	assert.Equal(t, 0, report.ChunksWritten)
	assert.Equal(t, 1, report.ChunksSkipped)
	assert.Empty(t, store.upserts)
}

func TestRunNoContentAfterNormalization(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "code.md", "```\nonly a code fence in here\n```")

	report, err := newOrchestrator(&fakeEmbedder{}, newFakeStore()).Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DocumentsProcessed)
	assert.Equal(t, 0, report.ChunksWritten)
}

func TestRunIgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.md", "A markdown document with enough content to index properly.")
	writeFile(t, dir, "notes.txt", "Plain text notes that must not be discovered at all.")

	store := newFakeStore()
	report, err := newOrchestrator(&fakeEmbedder{}, store).Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DocumentsProcessed)
	for _, chunk := range store.upserts {
		assert.Equal(t, "doc.md", chunk.Source)
	}
}

func TestRunStoreWriteFailureRecorded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.md", "A markdown document with enough content to index properly.")

	store := newFakeStore()
	store.failAll = true
	report, err := newOrchestrator(&fakeEmbedder{}, store).Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, report.DocumentsProcessed)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0].Err, "write refused")
}

func TestRunPropagatesCollectionError(t *testing.T) {
	dir := t.TempDir()
	store := &failingCollectionStore{}
	_, err := newOrchestrator(&fakeEmbedder{}, store).Run(context.Background(), dir)
	require.Error(t, err)
	var indexErr *domain.IndexError
	assert.ErrorAs(t, err, &indexErr)
}

type failingCollectionStore struct{ fakeStore }

func (f *failingCollectionStore) EnsureCollection(context.Context, int) error {
	return &domain.IndexError{Collection: "fake", Err: errors.New("dimension mismatch")}
}
