// Package embedding provides Embedder implementations: a remote
// OpenAI-compatible client and a local hashing embedder for offline use.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"docrag/internal/domain"
)

// DefaultOpenAIModel produces 1536-dimension vectors.
const (
	DefaultOpenAIModel     = string(openai.SmallEmbedding3)
	DefaultOpenAIDimension = 1536
)

// OpenAIConfig configures the remote embedding client.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimension  int
	MaxRetries int
	RetryDelay time.Duration
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint, retrying
// transient failures (429 and 5xx) with exponential backoff.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimension  int
	maxRetries int
	retryDelay time.Duration
}

func NewOpenAI(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai embedder: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Dimension == 0 {
		cfg.Dimension = DefaultOpenAIDimension
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimension:  cfg.Dimension,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

// Dimension returns the fixed vector dimensionality of the configured model.
func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

// Embed returns the embedding vector for text, or a domain.EmbeddingError.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &domain.EmbeddingError{Err: errors.New("empty input")}
	}
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &domain.EmbeddingError{Err: ctx.Err()}
			case <-time.After(backoff(e.retryDelay, attempt)):
			}
		}
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: e.model,
		})
		if err != nil {
			lastErr = err
			if transient(err) {
				continue
			}
			return nil, &domain.EmbeddingError{Err: err}
		}
		if len(resp.Data) == 0 {
			return nil, &domain.EmbeddingError{Err: errors.New("no embedding returned")}
		}
		vec := resp.Data[0].Embedding
		if len(vec) != e.dimension {
			return nil, &domain.EmbeddingError{
				Err: fmt.Errorf("malformed vector: got dimension %d, want %d", len(vec), e.dimension),
			}
		}
		return vec, nil
	}
	return nil, &domain.EmbeddingError{
		Err: fmt.Errorf("after %d attempts: %w", e.maxRetries+1, lastErr),
	}
}

func transient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	return false
}

func backoff(base time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	return d
}
