package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	gopenai "github.com/sashabaranov/go-openai"

	"subvec/internal/embedding"
)

// Client embeds text through an OpenAI-compatible embeddings endpoint.
// It is the alternative to the TEI backend for deployments already
// running an OpenAI-style server.
type Client struct {
	client    *gopenai.Client
	model     string
	batchSize int
	dimension int
	timeout   time.Duration
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	BatchSize int
	Dimension int
	Timeout   time.Duration
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 32
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	clientCfg := gopenai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		client:    gopenai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
		dimension: cfg.Dimension,
		timeout:   t,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Dimension returns the dimensionality of the produced vectors. Zero
// until configured or until the first successful embed.
func (c *Client) Dimension() int { return c.dimension }

// EmbedBatch embeds texts in fixed-size sequential batches and returns
// one vector per input, in input order.
func (c *Client) EmbedBatch(texts []string, kind embedding.Kind) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	formatted := make([]string, len(texts))
	for i, t := range texts {
		formatted[i] = embedding.Format(t, kind)
	}
	out := make([][]float64, 0, len(texts))
	for _, batch := range embedding.Chunk(formatted, c.batchSize) {
		vectors, err := c.embedChunk(batch)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (c *Client) embedChunk(texts []string) ([][]float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, gopenai.EmbeddingRequestStrings{
		Input: texts,
		Model: gopenai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.New("openai embeddings returned wrong vector count")
	}
	vectors := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		v := make([]float64, len(d.Embedding))
		for j, f := range d.Embedding {
			v[j] = float64(f)
		}
		vectors[i] = v
	}
	if c.dimension == 0 && len(vectors) > 0 {
		c.dimension = len(vectors[0])
	}
	return vectors, nil
}
