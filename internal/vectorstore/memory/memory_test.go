package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

func TestSearchReturnsDescendingSimilarity(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, 3))

	require.NoError(t, s.Upsert(ctx, domain.Chunk{ID: "a_0", Source: "a.md", Text: "a"}, []float32{1, 0, 0}))
	require.NoError(t, s.Upsert(ctx, domain.Chunk{ID: "b_0", Source: "b.md", Text: "b"}, []float32{0.9, 0.1, 0}))
	require.NoError(t, s.Upsert(ctx, domain.Chunk{ID: "c_0", Source: "c.md", Text: "c"}, []float32{0, 1, 0}))

	results, err := s.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a_0", results[0].Chunk.ID)
	assert.Equal(t, "b_0", results[1].Chunk.ID)
	assert.Equal(t, "c_0", results[2].Chunk.ID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	assert.GreaterOrEqual(t, results[1].Score, results[2].Score)
}

func TestSearchTruncatesToTopK(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, 2))
	require.NoError(t, s.Upsert(ctx, domain.Chunk{ID: "x_0"}, []float32{1, 0}))
	require.NoError(t, s.Upsert(ctx, domain.Chunk{ID: "x_1"}, []float32{0, 1}))
	require.NoError(t, s.Upsert(ctx, domain.Chunk{ID: "x_2"}, []float32{1, 1}))

	results, err := s.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchEmptyStoreIsNotAnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, 2))
	results, err := s.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEnsureCollectionDimensionMismatch(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, 3))
	// Same dimension is idempotent.
	require.NoError(t, s.EnsureCollection(ctx, 3))

	err := s.EnsureCollection(ctx, 4)
	require.Error(t, err)
	var indexErr *domain.IndexError
	assert.ErrorAs(t, err, &indexErr)
}

func TestUpsertVectorDimensionMismatch(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, 3))

	err := s.Upsert(ctx, domain.Chunk{ID: "a_0"}, []float32{1, 0})
	require.Error(t, err)
	var indexErr *domain.IndexError
	assert.ErrorAs(t, err, &indexErr)
}

func TestUpsertSameIDOverwrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.EnsureCollection(ctx, 2))
	require.NoError(t, s.Upsert(ctx, domain.Chunk{ID: "a_0", Text: "old"}, []float32{1, 0}))
	require.NoError(t, s.Upsert(ctx, domain.Chunk{ID: "a_0", Text: "new"}, []float32{0, 1}))

	assert.Equal(t, 1, s.Len())
	results, err := s.Search(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Chunk.Text)
}
