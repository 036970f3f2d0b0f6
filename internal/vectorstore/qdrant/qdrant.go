// Package qdrant implements the VectorStore interface on top of the
// official Qdrant gRPC client.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"docrag/internal/domain"
)

// Config holds connection and collection settings for Qdrant. Port is the
// gRPC port (6334), not the HTTP REST port.
type Config struct {
	Host           string
	Port           int
	APIKey         string
	UseTLS         bool
	Collection     string
	Distance       string
	RequestTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.Collection == "" {
		c.Collection = "docrag_chunks"
	}
	if c.Distance == "" {
		c.Distance = "cosine"
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
}

// Store is a Qdrant-backed vector store. Point ids are UUIDv5 values
// derived from the deterministic chunk id, preserving overwrite semantics;
// the raw chunk id travels in the payload.
type Store struct {
	client     *qdrant.Client
	collection string
	distance   qdrant.Distance
	timeout    time.Duration
}

func New(cfg Config) (*Store, error) {
	cfg.applyDefaults()
	distance, err := parseDistance(cfg.Distance)
	if err != nil {
		return nil, err
	}
	qcfg := &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: cfg.UseTLS,
		APIKey: cfg.APIKey,
	}
	if !cfg.UseTLS {
		qcfg.GrpcOptions = append(qcfg.GrpcOptions,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
	}
	client, err := qdrant.NewClient(qcfg)
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	return &Store{
		client:     client,
		collection: cfg.Collection,
		distance:   distance,
		timeout:    cfg.RequestTimeout,
	}, nil
}

func parseDistance(name string) (qdrant.Distance, error) {
	switch name {
	case "cosine":
		return qdrant.Distance_Cosine, nil
	case "dot":
		return qdrant.Distance_Dot, nil
	case "euclid":
		return qdrant.Distance_Euclid, nil
	default:
		return qdrant.Distance_UnknownDistance, fmt.Errorf("unknown distance metric %q", name)
	}
}

// EnsureCollection creates the collection if absent. If it already exists
// with a different dimension or distance metric, it fails instead of
// recreating or migrating.
func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return &domain.IndexError{Collection: s.collection, Err: errors.New("invalid dimension")}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return &domain.IndexError{Collection: s.collection, Err: err}
	}
	if !exists {
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dimension),
				Distance: s.distance,
			}),
		})
		if err != nil {
			return &domain.IndexError{Collection: s.collection, Err: err}
		}
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return &domain.IndexError{Collection: s.collection, Err: err}
	}
	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	if params == nil {
		return &domain.IndexError{
			Collection: s.collection,
			Err:        errors.New("existing collection uses named vectors, expected a single unnamed vector"),
		}
	}
	if params.GetSize() != uint64(dimension) {
		return &domain.IndexError{
			Collection: s.collection,
			Err:        fmt.Errorf("dimension mismatch: collection has %d, requested %d", params.GetSize(), dimension),
		}
	}
	if params.GetDistance() != s.distance {
		return &domain.IndexError{
			Collection: s.collection,
			Err:        fmt.Errorf("distance mismatch: collection has %s, requested %s", params.GetDistance(), s.distance),
		}
	}
	return nil
}

// Upsert writes the chunk vector keyed by its deterministic id, overwriting
// any previous version of the same chunk.
func (s *Store) Upsert(ctx context.Context, chunk domain.Chunk, vector []float32) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(pointID(chunk.ID)),
		Vectors: qdrant.NewVectors(vector...),
		Payload: qdrant.NewValueMap(map[string]any{
			"chunk_id":   chunk.ID,
			"text":       chunk.Text,
			"source":     chunk.Source,
			"index":      int64(chunk.Index),
			"created_at": chunk.CreatedAt.Format(time.RFC3339),
		}),
	}
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         []*qdrant.PointStruct{point},
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return &domain.IndexError{Collection: s.collection, Err: err}
	}
	return nil
}

// Search returns up to topK nearest chunks by the collection's metric,
// ordered by descending similarity.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}
	results := make([]domain.SearchResult, 0, len(points))
	for _, p := range points {
		results = append(results, domain.SearchResult{
			Chunk: chunkFromPayload(p.GetPayload()),
			Score: p.GetScore(),
		})
	}
	return results, nil
}

// Close releases the underlying gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func chunkFromPayload(payload map[string]*qdrant.Value) domain.Chunk {
	chunk := domain.Chunk{
		ID:     payload["chunk_id"].GetStringValue(),
		Text:   payload["text"].GetStringValue(),
		Source: payload["source"].GetStringValue(),
		Index:  int(payload["index"].GetIntegerValue()),
	}
	if ts, err := time.Parse(time.RFC3339, payload["created_at"].GetStringValue()); err == nil {
		chunk.CreatedAt = ts
	}
	return chunk
}

// pointID maps a chunk id to a stable UUID, since Qdrant point ids must be
// unsigned integers or UUIDs.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String()
}
