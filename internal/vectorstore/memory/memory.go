package memory

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"sync"

	"subvec/internal/domain"
)

// Storage is an in-memory vector store using brute-force cosine
// similarity. It implements the full Store contract so tests and
// single-process deployments can run without a Qdrant instance.
type Storage struct {
	mu          sync.RWMutex
	dimension   int
	collections map[string]*collection
	defaultName string
}

type collection struct {
	order  []string // insertion order of keys, drives scroll pagination
	points map[string]domain.Point
}

func NewStorage(defaultCollection string, dimension int) *Storage {
	return &Storage{
		dimension:   dimension,
		collections: make(map[string]*collection),
		defaultName: defaultCollection,
	}
}

func (s *Storage) name(c string) string {
	if c == "" {
		return s.defaultName
	}
	return c
}

// get lazily creates the collection, mirroring the gateway semantics.
func (s *Storage) get(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{points: make(map[string]domain.Point)}
		s.collections[name] = c
	}
	return c
}

func (s *Storage) EnsureCollection(collectionName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(s.name(collectionName))
	return nil
}

func (s *Storage) Upsert(points []domain.Point, collectionName string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.get(s.name(collectionName))
	for _, p := range points {
		if s.dimension > 0 && len(p.Vector) != s.dimension {
			return 0, errors.New("vector dimension mismatch")
		}
		key := p.ID.String()
		if _, exists := c.points[key]; !exists {
			c.order = append(c.order, key)
		}
		c.points[key] = p
	}
	return len(points), nil
}

func (s *Storage) Search(vector []float64, limit int, collectionName string) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	c := s.collections[s.name(collectionName)]
	if c == nil {
		return nil, nil
	}
	results := make([]domain.SearchResult, 0, len(c.order))
	for _, key := range c.order {
		p := c.points[key]
		results = append(results, domain.SearchResult{
			ID:      p.ID,
			Score:   cosine(p.Vector, vector),
			Payload: p.Payload,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > len(results) {
		limit = len(results)
	}
	return results[:limit], nil
}

func (s *Storage) Scroll(limit int, cursor string, collectionName string, withVectors bool) ([]domain.Point, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit < 1 {
		limit = 1
	}
	c := s.collections[s.name(collectionName)]
	if c == nil {
		return nil, "", nil
	}
	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, "", err
		}
		start = n
	}
	if start >= len(c.order) {
		return nil, "", nil
	}
	end := start + limit
	if end > len(c.order) {
		end = len(c.order)
	}
	out := make([]domain.Point, 0, end-start)
	for _, key := range c.order[start:end] {
		p := c.points[key]
		if !withVectors {
			p.Vector = nil
		}
		out = append(out, p)
	}
	next := ""
	if end < len(c.order) {
		next = strconv.Itoa(end)
	}
	return out, next, nil
}

func (s *Storage) DeleteByIDs(ids []domain.PointKey, collectionName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collections[s.name(collectionName)]
	if c == nil {
		return nil
	}
	for _, id := range ids {
		c.remove(id.String())
	}
	return nil
}

func (s *Storage) DeleteByFilter(filter domain.Filter, collectionName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collections[s.name(collectionName)]
	if c == nil {
		return nil
	}
	var doomed []string
	for key, p := range c.points {
		v, ok := p.Payload[filter.Key].(string)
		if !ok {
			continue
		}
		for _, want := range filter.Any {
			if v == want {
				doomed = append(doomed, key)
				break
			}
		}
	}
	for _, key := range doomed {
		c.remove(key)
	}
	return nil
}

func (s *Storage) Count(collectionName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.collections[s.name(collectionName)]
	if c == nil {
		return 0
	}
	return len(c.points)
}

func (c *collection) remove(key string) {
	if _, ok := c.points[key]; !ok {
		return
	}
	delete(c.points, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
