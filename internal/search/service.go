package search

import (
	"errors"
	"strings"

	"subvec/internal/domain"
	"subvec/internal/embedding"
	"subvec/internal/random"
	"subvec/internal/vectorstore"
)

// Service answers text queries against the subtitle collection. It is
// the client-facing counterpart of the HTTP handlers, used by the
// terminal UI.
type Service struct {
	embedder embedding.Embedder
	store    vectorstore.Store
	sampler  *random.Sampler
	minWords int
}

func NewService(embedder embedding.Embedder, store vectorstore.Store, sampler *random.Sampler, minWords int) *Service {
	return &Service{embedder: embedder, store: store, sampler: sampler, minWords: minWords}
}

// Query embeds the text and returns the closest subtitle lines.
func (s *Service) Query(query string, topK int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	vectors, err := s.embedder.EmbedBatch([]string{query}, embedding.KindQuery)
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, errors.New("embedding backend returned wrong vector count")
	}
	return s.store.Search(vectors[0], topK, "")
}

// Random draws one random quality-filtered subtitle line.
func (s *Service) Random() (*domain.SearchResult, bool) {
	return s.sampler.Pick("", s.minWords)
}
