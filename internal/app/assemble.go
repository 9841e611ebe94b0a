package app

import (
	"fmt"
	"time"

	"subvec/internal/config"
	"subvec/internal/embedding"
	"subvec/internal/embedding/openai"
	"subvec/internal/embedding/tei"
	"subvec/internal/random"
	"subvec/internal/vectorstore"
	"subvec/internal/vectorstore/memory"
	"subvec/internal/vectorstore/qdrant"
)

// NewEmbedder builds the configured embedder implementation.
func NewEmbedder(cfg *config.AppConfig) (embedding.Embedder, error) {
	switch cfg.Embedder.Type {
	case "tei", "":
		if cfg.Embedder.TEI == nil {
			return nil, fmt.Errorf("tei embedder config missing")
		}
		return tei.NewClient(tei.Config{
			BaseURL:   cfg.Embedder.TEI.BaseURL,
			BatchSize: cfg.Embedder.TEI.BatchSize,
			Dimension: cfg.VectorStore.Dimension,
			Timeout:   time.Duration(cfg.Embedder.TEI.TimeoutSecs) * time.Second,
		})
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		return openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			BatchSize: cfg.Embedder.OpenAI.BatchSize,
			Dimension: cfg.VectorStore.Dimension,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

// NewStore builds the configured vector store implementation.
func NewStore(cfg *config.AppConfig) (vectorstore.Store, error) {
	switch cfg.VectorStore.Type {
	case "qdrant", "":
		if cfg.VectorStore.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Dimension:  cfg.VectorStore.Dimension,
			Distance:   cfg.VectorStore.Qdrant.Distance,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	case "memory":
		return memory.NewStorage(collectionName(cfg), cfg.VectorStore.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore.Type)
	}
}

// NewSampler builds the random sampling engine over the store.
func NewSampler(cfg *config.AppConfig, store vectorstore.Store) *random.Sampler {
	return random.NewSampler(store, random.Config{
		Dimension:         cfg.VectorStore.Dimension,
		SearchLimit:       cfg.Random.SearchLimit,
		MaxRetries:        cfg.Random.MaxRetries,
		FallbackBatchSize: cfg.Random.FallbackBatchSize,
	})
}

func collectionName(cfg *config.AppConfig) string {
	if cfg.VectorStore.Qdrant != nil && cfg.VectorStore.Qdrant.Collection != "" {
		return cfg.VectorStore.Qdrant.Collection
	}
	return "subtitles"
}

// CollectionName reports the configured collection, with the standard
// default when nothing is set.
func CollectionName(cfg *config.AppConfig) string { return collectionName(cfg) }
