package tei

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"subvec/internal/embedding"
)

// Error taxonomy for embedding failures. Callers treat all three as
// fatal for the affected unit of work, but observability wants them
// told apart.
var (
	// ErrBackend covers connection failures and non-2xx responses.
	ErrBackend = errors.New("embedding backend error")
	// ErrMalformedResponse means the body matched no known shape.
	ErrMalformedResponse = errors.New("malformed embedding response")
	// ErrCountMismatch means the backend returned a different number of
	// vectors than texts sent in one batch.
	ErrCountMismatch = errors.New("embedding count mismatch")
)

const (
	// DefaultBatchSize bounds one /embed request.
	DefaultBatchSize = 32
	// DefaultTimeout bounds one HTTP round trip.
	DefaultTimeout = 60 * time.Second
)

// Client talks to a text-embeddings-inference style backend exposing
// POST {base}/embed with {"inputs": [...]}.
type Client struct {
	baseURL   string
	batchSize int
	// dimension is atomic because the first successful embed fills it in
	// while other requests may be reading it.
	dimension atomic.Int64
	client    *http.Client
}

// Config configures the TEI embeddings client.
type Config struct {
	BaseURL   string
	BatchSize int
	Dimension int
	Timeout   time.Duration
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("tei base url is required")
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultBatchSize
	}
	t := cfg.Timeout
	if t == 0 {
		t = DefaultTimeout
	}
	c := &Client{
		baseURL:   cfg.BaseURL,
		batchSize: cfg.BatchSize,
		client:    &http.Client{Timeout: t},
	}
	c.dimension.Store(int64(cfg.Dimension))
	return c, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "tei" }

// Dimension returns the dimensionality of the produced vectors. Zero
// until configured or until the first successful embed.
func (c *Client) Dimension() int { return int(c.dimension.Load()) }

// EmbedBatch embeds texts in fixed-size sequential batches and returns
// one vector per input, in input order. No partial results: any batch
// failure fails the whole call.
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
			slog.Error("embed batch failed", "batch_size", len(batch), "error", err)
			return nil, err
		}
		out = append(out, vectors...)
	}
	slog.Debug("embed", "texts", len(texts), "vectors", len(out))
	return out, nil
}

func (c *Client) embedChunk(texts []string) ([][]float64, error) {
	payload, _ := json.Marshal(map[string]any{"inputs": texts})
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrBackend, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s: %s", ErrBackend, resp.Status, truncate(body, 200))
	}

	vectors, err := parseResponse(body)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrCountMismatch, len(texts), len(vectors))
	}
	if len(vectors) > 0 {
		c.dimension.CompareAndSwap(0, int64(len(vectors[0])))
	}
	return vectors, nil
}

// parseResponse normalizes the backend shapes seen in the wild into one
// vector list. The chain fails closed: a body matching none of the
// variants is a malformed-response error, not a guess.
//
//	[[...], ...]                      bare vector list
//	[{"embedding": [...]}, ...]       object list
//	{"embeddings": [[...], ...]}      embeddings field
//	{"data": [[...], ...]}            data field, bare or object list
//	{"embedding": [...]}              single vector
func parseResponse(body []byte) ([][]float64, error) {
	var bare [][]float64
	if err := json.Unmarshal(body, &bare); err == nil {
		return bare, nil
	}
	var objects []struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(body, &objects); err == nil {
		out := make([][]float64, 0, len(objects))
		for _, o := range objects {
			if len(o.Embedding) == 0 {
				return nil, fmt.Errorf("%w: object list item without embedding", ErrMalformedResponse)
			}
			out = append(out, o.Embedding)
		}
		return out, nil
	}
	var envelope struct {
		Embeddings [][]float64     `json:"embeddings"`
		Data       json.RawMessage `json:"data"`
		Embedding  []float64       `json:"embedding"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(envelope.Embeddings) > 0 {
		return envelope.Embeddings, nil
	}
	if len(envelope.Data) > 0 {
		if vectors, err := parseResponse(envelope.Data); err == nil {
			return vectors, nil
		}
		return nil, fmt.Errorf("%w: unrecognized data field", ErrMalformedResponse)
	}
	if len(envelope.Embedding) > 0 {
		return [][]float64{envelope.Embedding}, nil
	}
	return nil, fmt.Errorf("%w: unrecognized shape", ErrMalformedResponse)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
