package random

import (
	"log/slog"
	"math/rand/v2"

	"subvec/internal/domain"
	"subvec/internal/textnorm"
	"subvec/internal/vectorstore"
)

const (
	// DefaultSearchLimit is the result-set size requested per probe.
	DefaultSearchLimit = 50
	// DefaultMaxRetries bounds the probe rounds before falling back.
	DefaultMaxRetries = 20
	// DefaultMinWords is the quality bar for a sampled line.
	DefaultMinWords = 3
	// DefaultFallbackBatchSize is the scroll page used by the fallback.
	DefaultFallbackBatchSize = 100

	// picksPerRound bounds the uniform picks tried against one result
	// set before drawing a fresh one.
	picksPerRound = 10
)

// Sampler approximates a uniform random draw from a vector collection
// that has no native random-row primitive. Phase one probes with a
// random query vector and picks among its neighbors; phase two falls
// back to one scrolled page. Every candidate must clear a minimum word
// count after normalization.
type Sampler struct {
	store             vectorstore.Store
	dimension         int
	searchLimit       int
	maxRetries        int
	fallbackBatchSize int
}

type Config struct {
	Dimension         int
	SearchLimit       int
	MaxRetries        int
	FallbackBatchSize int
}

func NewSampler(store vectorstore.Store, cfg Config) *Sampler {
	if cfg.SearchLimit < 1 {
		cfg.SearchLimit = DefaultSearchLimit
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.FallbackBatchSize < 1 {
		cfg.FallbackBatchSize = DefaultFallbackBatchSize
	}
	return &Sampler{
		store:             store,
		dimension:         cfg.Dimension,
		searchLimit:       cfg.SearchLimit,
		maxRetries:        cfg.MaxRetries,
		fallbackBatchSize: cfg.FallbackBatchSize,
	}
}

// Pick draws one quality-filtered random point from the collection. The
// second return is false when no candidate cleared the bar, a normal
// outcome for an empty or low-quality collection rather than an error.
func (s *Sampler) Pick(collection string, minWords int) (*domain.SearchResult, bool) {
	if minWords < 1 {
		minWords = DefaultMinWords
	}
	if r, ok := s.probe(collection, minWords); ok {
		return r, true
	}
	if r, ok := s.fallback(collection, minWords); ok {
		return r, true
	}
	slog.Warn("random pick exhausted", "collection", collection, "min_words", minWords)
	return nil, false
}

// probe relies on a random query vector's unpredictable nearest
// neighbors to spread selection across the corpus. Not exactly uniform,
// but it avoids a full scan.
func (s *Sampler) probe(collection string, minWords int) (*domain.SearchResult, bool) {
	for retry := 0; retry < s.maxRetries; retry++ {
		vector := make([]float64, s.dimension)
		for i := range vector {
			vector[i] = rand.Float64()*2 - 1
		}
		results, err := s.store.Search(vector, s.searchLimit, collection)
		if err != nil {
			slog.Error("random probe search failed", "retry", retry, "error", err)
			continue
		}
		if len(results) == 0 {
			continue
		}
		picks := picksPerRound
		if len(results) < picks {
			picks = len(results)
		}
		for p := 0; p < picks; p++ {
			candidate := results[rand.IntN(len(results))]
			if s.validate(&candidate, minWords) {
				slog.Info("random pick", "method", "vector_probe", "retries", retry)
				return &candidate, true
			}
		}
	}
	return nil, false
}

// fallback serves tiny collections the probe cannot reach: one bulk
// page, then uniform picks from it.
func (s *Sampler) fallback(collection string, minWords int) (*domain.SearchResult, bool) {
	points, _, err := s.store.Scroll(s.fallbackBatchSize, "", collection, false)
	if err != nil {
		slog.Error("random fallback scroll failed", "error", err)
		return nil, false
	}
	if len(points) == 0 {
		return nil, false
	}
	for attempt := 0; attempt < picksPerRound; attempt++ {
		p := points[rand.IntN(len(points))]
		candidate := domain.SearchResult{ID: p.ID, Score: 1.0, Payload: p.Payload}
		if s.validate(&candidate, minWords) {
			slog.Info("random pick", "method", "fallback_scan", "attempts", attempt)
			return &candidate, true
		}
	}
	return nil, false
}

func (s *Sampler) validate(candidate *domain.SearchResult, minWords int) bool {
	text, _ := candidate.Payload["text"].(string)
	normalized, _ := candidate.Payload["normalized_text"].(string)
	ok, words := textnorm.ValidateQuality(text, normalized, minWords)
	if !ok {
		slog.Debug("random candidate rejected", "words", words, "min_words", minWords)
	}
	return ok
}
