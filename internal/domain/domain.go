package domain

import (
	"context"
	"time"
)

// Document is a single source file loaded for ingestion. Source is the
// stable key (path relative to the ingestion root) that chunk identity is
// derived from.
type Document struct {
	Source  string
	Content string
}

// Chunk is a bounded-length segment of a document's normalized text, the
// atomic unit indexed and retrieved. Its ID is a pure derivation of the
// document source and the chunk's ordinal position, so re-ingesting
// unchanged content overwrites in place instead of duplicating.
type Chunk struct {
	ID        string
	Source    string
	Index     int
	Text      string
	CreatedAt time.Time
}

// SearchResult is a retrieved chunk with its similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float32
}

// Answer is a generated answer plus the ordered, de-duplicated sources of
// the chunks that grounded it.
type Answer struct {
	Text    string
	Sources []string
}

// Embedder maps text to a fixed-dimension vector. Implementations must not
// be handed empty text; callers filter first.
type Embedder interface {
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits a normalized document into bounded-length chunks,
// reporting how many segments were dropped as too short.
type Chunker interface {
	Chunk(doc Document) (chunks []Chunk, skipped int)
}

// VectorStore persists chunk vectors and supports nearest-neighbor search.
// All vectors in the store share one dimensionality and distance metric;
// EnsureCollection fails rather than silently migrating a mismatch.
type VectorStore interface {
	EnsureCollection(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunk Chunk, vector []float32) error
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
}

// Generator produces an answer for a question constrained to the supplied
// grounding context.
type Generator interface {
	Generate(ctx context.Context, question, groundingContext string) (string, error)
}
