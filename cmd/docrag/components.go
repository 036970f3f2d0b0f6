package main

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"docrag/internal/config"
	"docrag/internal/domain"
	"docrag/internal/embedding"
	"docrag/internal/generation"
	"docrag/internal/logging"
	"docrag/internal/vectorstore/memory"
	"docrag/internal/vectorstore/qdrant"
)

func buildLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	return logging.New(cfg.Logging)
}

func buildEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "local", "":
		dimension := 0
		if cfg.Embedder.Local != nil {
			dimension = cfg.Embedder.Local.Dimension
		}
		return embedding.NewLocal(dimension), nil
	case "openai":
		oc := cfg.Embedder.OpenAI
		if oc == nil {
			oc = &config.OpenAIEmbedderConfig{APIKeyEnv: "OPENAI_API_KEY"}
		}
		key := os.Getenv(oc.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("missing embedding API key in env %s", oc.APIKeyEnv)
		}
		return embedding.NewOpenAI(embedding.OpenAIConfig{
			APIKey:    key,
			BaseURL:   oc.BaseURL,
			Model:     oc.Model,
			Dimension: oc.Dimension,
		})
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

func buildStore(cfg *config.AppConfig) (domain.VectorStore, error) {
	switch cfg.VectorStore.Type {
	case "memory", "":
		return memory.New(), nil
	case "qdrant":
		qc := cfg.VectorStore.Qdrant
		if qc == nil {
			qc = &config.QdrantConfig{}
		}
		apiKey := ""
		if qc.APIKeyEnv != "" {
			apiKey = os.Getenv(qc.APIKeyEnv)
		}
		return qdrant.New(qdrant.Config{
			Host:           qc.Host,
			Port:           qc.Port,
			APIKey:         apiKey,
			UseTLS:         qc.UseTLS,
			Collection:     qc.Collection,
			Distance:       qc.Distance,
			RequestTimeout: time.Duration(qc.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}

func buildGenerator(cfg *config.AppConfig) (domain.Generator, error) {
	switch cfg.Generation.Type {
	case "extractive", "":
		maxSentences := 0
		if cfg.Generation.Extractive != nil {
			maxSentences = cfg.Generation.Extractive.MaxSentences
		}
		return generation.NewExtractive(maxSentences), nil
	case "openai":
		oc := cfg.Generation.OpenAI
		if oc == nil {
			oc = &config.OpenAIGenerationConfig{APIKeyEnv: "OPENAI_API_KEY"}
		}
		key := os.Getenv(oc.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("missing generation API key in env %s", oc.APIKeyEnv)
		}
		return generation.NewOpenAI(generation.OpenAIConfig{
			APIKey:      key,
			BaseURL:     oc.BaseURL,
			Model:       oc.Model,
			MaxTokens:   oc.MaxTokens,
			Temperature: oc.Temperature,
		})
	default:
		return nil, fmt.Errorf("unknown generator: %s", cfg.Generation.Type)
	}
}
