// Package memory provides a brute-force in-memory vector store, useful for
// offline operation and as a deterministic test double.
package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"docrag/internal/domain"
)

type entry struct {
	chunk  domain.Chunk
	vector []float32
}

// Store keeps vectors keyed by chunk id, so re-upserting the same id
// overwrites in place. Search is exact cosine similarity.
type Store struct {
	mu        sync.RWMutex
	dimension int
	entries   map[string]entry
}

func New() *Store {
	return &Store{entries: make(map[string]entry)}
}

func (s *Store) EnsureCollection(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return &domain.IndexError{Collection: "memory", Err: errors.New("invalid dimension")}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 && s.dimension != dimension {
		return &domain.IndexError{
			Collection: "memory",
			Err:        fmt.Errorf("dimension mismatch: collection has %d, requested %d", s.dimension, dimension),
		}
	}
	s.dimension = dimension
	return nil
}

func (s *Store) Upsert(_ context.Context, chunk domain.Chunk, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		return &domain.IndexError{Collection: "memory", Err: errors.New("collection not initialized")}
	}
	if len(vector) != s.dimension {
		return &domain.IndexError{
			Collection: "memory",
			Err:        fmt.Errorf("vector dimension mismatch: got %d, want %d", len(vector), s.dimension),
		}
	}
	s.entries[chunk.ID] = entry{chunk: chunk, vector: vector}
	return nil
}

func (s *Store) Search(_ context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	results := make([]domain.SearchResult, 0, len(s.entries))
	for _, e := range s.entries {
		results = append(results, domain.SearchResult{Chunk: e.chunk, Score: cosine(e.vector, vector)})
	}
	// Tie-break on chunk id to keep ordering deterministic.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// Len reports the number of stored chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
