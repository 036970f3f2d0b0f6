package domain

import "fmt"

// EmbeddingError reports a failed or malformed embedding-provider call. It
// fails the current chunk or query but never aborts a batch ingestion run.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return fmt.Sprintf("embedding: %v", e.Err) }
func (e *EmbeddingError) Unwrap() error { return e.Err }

// IndexError reports a collection mismatch or store write failure.
type IndexError struct {
	Collection string
	Err        error
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %s: %v", e.Collection, e.Err)
}
func (e *IndexError) Unwrap() error { return e.Err }

// RetrievalError reports a query-time failure before or during vector
// search. An empty result set is not a RetrievalError.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string { return fmt.Sprintf("retrieval: %v", e.Err) }
func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError reports an answer-provider failure. The composer converts
// it into a degraded answer; it never crosses the query boundary.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("generation: %v", e.Err) }
func (e *GenerationError) Unwrap() error { return e.Err }
