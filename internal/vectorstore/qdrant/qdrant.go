package qdrant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"subvec/internal/domain"
)

// Storage is a minimal REST client to Qdrant implementing the Store
// interface. Collections are created lazily on first reference with the
// configured dimension and distance, so reads and writes never fail on
// a collection that simply has not been touched yet.
type Storage struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	distance   string
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Distance   string
	Timeout    time.Duration
}

func NewStorage(cfg Config) (*Storage, error) {
	if cfg.URL == "" {
		return nil, errors.New("qdrant url is required")
	}
	if cfg.Dimension <= 0 {
		return nil, errors.New("invalid vector dimension")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		distance:   NormalizeDistance(cfg.Distance),
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// NormalizeDistance maps any spelling of a metric to Qdrant's canonical
// form, defaulting to Cosine for unknown values.
func NormalizeDistance(d string) string {
	switch {
	case strings.EqualFold(d, "euclid"):
		return "Euclid"
	case strings.EqualFold(d, "dot"):
		return "Dot"
	case strings.EqualFold(d, "manhattan"):
		return "Manhattan"
	case strings.EqualFold(d, "cosine"), d == "":
		return "Cosine"
	}
	slog.Warn("unknown distance metric, using Cosine", "distance", d)
	return "Cosine"
}

func (s *Storage) name(collection string) string {
	if collection == "" {
		return s.collection
	}
	return collection
}

// EnsureCollection creates the collection if it does not exist.
func (s *Storage) EnsureCollection(collection string) error {
	c := s.name(collection)
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/collections/%s", s.url, c), nil)
	if err != nil {
		return err
	}
	s.auth(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode < 300 {
		return nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": s.distance,
		},
	}
	if err := s.putJSON(fmt.Sprintf("%s/collections/%s", s.url, c), body, nil); err != nil {
		return err
	}
	slog.Info("collection created", "collection", c, "dimension", s.dimension, "distance", s.distance)
	return nil
}

// Upsert writes points, overwriting by key.
func (s *Storage) Upsert(points []domain.Point, collection string) (int, error) {
	c := s.name(collection)
	if err := s.EnsureCollection(c); err != nil {
		return 0, err
	}
	body := map[string]any{"points": points}
	if err := s.putJSON(fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, c), body, nil); err != nil {
		return 0, err
	}
	slog.Info("upsert", "collection", c, "points", len(points))
	return len(points), nil
}

// Search returns up to limit points ranked by similarity, limit clamped
// to [1, 100].
func (s *Storage) Search(vector []float64, limit int, collection string) ([]domain.SearchResult, error) {
	c := s.name(collection)
	if err := s.EnsureCollection(c); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      domain.PointKey `json:"id"`
			Score   float64         `json:"score"`
			Payload map[string]any  `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(fmt.Sprintf("%s/collections/%s/points/search", s.url, c), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, domain.SearchResult{ID: r.ID, Score: r.Score, Payload: r.Payload})
	}
	return results, nil
}

// Scroll pages through the collection; an empty next cursor means the
// scan is complete.
func (s *Storage) Scroll(limit int, cursor string, collection string, withVectors bool) ([]domain.Point, string, error) {
	c := s.name(collection)
	if err := s.EnsureCollection(c); err != nil {
		return nil, "", err
	}
	req := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  withVectors,
	}
	if cursor != "" {
		req["offset"] = cursorValue(cursor)
	}
	var resp struct {
		Result struct {
			Points         []domain.Point  `json:"points"`
			NextPageOffset json.RawMessage `json:"next_page_offset"`
		} `json:"result"`
	}
	if err := s.postJSON(fmt.Sprintf("%s/collections/%s/points/scroll", s.url, c), req, &resp); err != nil {
		return nil, "", err
	}
	next := ""
	if len(resp.Result.NextPageOffset) > 0 && string(resp.Result.NextPageOffset) != "null" {
		var key domain.PointKey
		if err := json.Unmarshal(resp.Result.NextPageOffset, &key); err != nil {
			return nil, "", fmt.Errorf("qdrant scroll cursor: %w", err)
		}
		next = key.String()
	}
	return resp.Result.Points, next, nil
}

// DeleteByIDs removes the listed points.
func (s *Storage) DeleteByIDs(ids []domain.PointKey, collection string) error {
	c := s.name(collection)
	if err := s.EnsureCollection(c); err != nil {
		return err
	}
	body := map[string]any{"points": ids}
	if err := s.postJSON(fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, c), body, nil); err != nil {
		return err
	}
	slog.Info("delete_by_ids", "collection", c, "count", len(ids))
	return nil
}

// DeleteByFilter removes points whose payload field matches any of the
// filter values. The affected count is not reported by the store.
func (s *Storage) DeleteByFilter(filter domain.Filter, collection string) error {
	c := s.name(collection)
	if err := s.EnsureCollection(c); err != nil {
		return err
	}
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key":   filter.Key,
					"match": map[string]any{"any": filter.Any},
				},
			},
		},
	}
	if err := s.postJSON(fmt.Sprintf("%s/collections/%s/points/delete", s.url, c), body, nil); err != nil {
		return err
	}
	slog.Info("delete_by_filter", "collection", c, "key", filter.Key)
	return nil
}

// Count returns the exact point count. Status reporting is best-effort:
// a backend failure logs and reports zero instead of propagating.
func (s *Storage) Count(collection string) int {
	c := s.name(collection)
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := s.postJSON(fmt.Sprintf("%s/collections/%s/points/count", s.url, c), map[string]any{"exact": true}, &resp); err != nil {
		slog.Warn("count failed", "collection", c, "error", err)
		return 0
	}
	return resp.Result.Count
}

// cursorValue restores the wire form of a scroll cursor: numeric point
// ids travel as JSON numbers, UUID ids as strings.
func cursorValue(cursor string) any {
	if n, err := strconv.ParseUint(cursor, 10, 64); err == nil {
		return n
	}
	return cursor
}

func (s *Storage) auth(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
}

func (s *Storage) putJSON(url string, body any, out any) error {
	return s.doJSON(http.MethodPut, url, body, out)
}

func (s *Storage) postJSON(url string, body any, out any) error {
	return s.doJSON(http.MethodPost, url, body, out)
}

func (s *Storage) doJSON(method, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	s.auth(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
