package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
)

func TestLocalEmbedDeterministic(t *testing.T) {
	e := NewLocal(0)
	ctx := context.Background()

	first, err := e.Embed(ctx, "Vectors must be reproducible across runs.")
	require.NoError(t, err)
	second, err := e.Embed(ctx, "Vectors must be reproducible across runs.")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLocalEmbedDimension(t *testing.T) {
	assert.Equal(t, DefaultLocalDimension, NewLocal(0).Dimension())
	assert.Equal(t, 64, NewLocal(64).Dimension())

	vec, err := NewLocal(64).Embed(context.Background(), "some tokens here")
	require.NoError(t, err)
	assert.Len(t, vec, 64)
}

func TestLocalEmbedUnitNorm(t *testing.T) {
	vec, err := NewLocal(0).Embed(context.Background(), "documentation describes the ingestion pipeline thoroughly")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestLocalEmbedSimilarTextsScoreHigher(t *testing.T) {
	e := NewLocal(0)
	ctx := context.Background()

	query, err := e.Embed(ctx, "database backup schedule")
	require.NoError(t, err)
	near, err := e.Embed(ctx, "backup schedule runs against the database nightly")
	require.NoError(t, err)
	far, err := e.Embed(ctx, "the cafeteria menu changes weekly")
	require.NoError(t, err)

	assert.Greater(t, dot(query, near), dot(query, far))
}

func TestLocalEmbedEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t"} {
		_, err := NewLocal(0).Embed(context.Background(), input)
		require.Error(t, err)
		var embErr *domain.EmbeddingError
		assert.ErrorAs(t, err, &embErr)
	}
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
