// Package service implements the query pipeline: embed the question,
// retrieve the nearest chunks and compose a grounded, cited answer.
package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"docrag/internal/domain"
)

const (
	// DefaultTopK matches the retrieval depth the answer quality was tuned
	// against.
	DefaultTopK = 8
	// DefaultMaxContextChars bounds the grounding context handed to the
	// generation provider.
	DefaultMaxContextChars = 6000

	// FallbackAnswer is returned when the generation provider fails. The
	// failure is visible to the caller through this degraded answer, never
	// as an error.
	FallbackAnswer = "I'm sorry, I wasn't able to generate an answer right now. Please try again later."
	// NoContextAnswer is returned when retrieval produced nothing usable.
	NoContextAnswer = "I couldn't find any relevant information in the indexed documents to answer your question."
)

// Service is safe for concurrent use: it holds no mutable state across
// queries, only configured collaborators.
type Service struct {
	embedder        domain.Embedder
	store           domain.VectorStore
	generator       domain.Generator
	logger          *zap.Logger
	topK            int
	maxContextChars int
}

func New(embedder domain.Embedder, store domain.VectorStore, generator domain.Generator, logger *zap.Logger, topK, maxContextChars int) *Service {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if maxContextChars <= 0 {
		maxContextChars = DefaultMaxContextChars
	}
	return &Service{
		embedder:        embedder,
		store:           store,
		generator:       generator,
		logger:          logger,
		topK:            topK,
		maxContextChars: maxContextChars,
	}
}

// Retrieve embeds the question and returns up to topK chunks ordered by
// descending similarity. An empty result is valid; a failed embedding or
// search is a RetrievalError.
func (s *Service) Retrieve(ctx context.Context, question string) ([]domain.SearchResult, error) {
	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, &domain.RetrievalError{Err: err}
	}
	results, err := s.store.Search(ctx, vector, s.topK)
	if err != nil {
		return nil, &domain.RetrievalError{Err: err}
	}
	return results, nil
}

// Answer builds the grounding context from the retrieval results (retrieval
// order, truncated to the character budget with the lowest-similarity
// chunks dropped first), invokes the generator, and maps the answer back to
// de-duplicated source citations. Generation failure degrades to
// FallbackAnswer with no citations.
func (s *Service) Answer(ctx context.Context, question, callerContext string, results []domain.SearchResult) domain.Answer {
	grounding, included := s.buildContext(results, callerContext)
	if grounding == "" {
		return domain.Answer{Text: NoContextAnswer, Sources: []string{}}
	}

	text, err := s.generator.Generate(ctx, question, grounding)
	if err != nil {
		s.logger.Warn("generation failed, returning degraded answer", zap.Error(err))
		return domain.Answer{Text: FallbackAnswer, Sources: []string{}}
	}
	return domain.Answer{Text: text, Sources: citations(included)}
}

// Ask runs the full query pipeline.
func (s *Service) Ask(ctx context.Context, question, callerContext string) (domain.Answer, error) {
	results, err := s.Retrieve(ctx, question)
	if err != nil {
		return domain.Answer{}, err
	}
	s.logger.Debug("retrieved chunks",
		zap.Int("count", len(results)),
		zap.Int("top_k", s.topK),
	)
	return s.Answer(ctx, question, callerContext, results), nil
}

// buildContext concatenates chunk texts in retrieval order until the budget
// is reached, counting the blank-line joiners between chunks, then appends
// any caller-supplied context on top of the budget. It returns the grounding
// text and the chunks actually included.
func (s *Service) buildContext(results []domain.SearchResult, callerContext string) (string, []domain.Chunk) {
	var parts []string
	var included []domain.Chunk
	total := 0
	for _, r := range results {
		text := strings.TrimSpace(r.Chunk.Text)
		if text == "" {
			continue
		}
		n := utf8.RuneCountInString(text)
		if total > 0 {
			n += 2 // "\n\n" joiner
		}
		if total > 0 && total+n > s.maxContextChars {
			break
		}
		parts = append(parts, text)
		included = append(included, r.Chunk)
		total += n
	}
	if len(parts) == 0 {
		return "", nil
	}
	grounding := strings.Join(parts, "\n\n")
	if cc := strings.TrimSpace(callerContext); cc != "" {
		grounding += "\n\nAdditional context from the reader:\n" + cc
	}
	return grounding, included
}

// citations de-duplicates the sources of the included chunks, preserving
// first-seen order.
func citations(chunks []domain.Chunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	sources := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c.Source == "" {
			continue
		}
		if _, ok := seen[c.Source]; ok {
			continue
		}
		seen[c.Source] = struct{}{}
		sources = append(sources, c.Source)
	}
	return sources
}
