package vectorstore

import "subvec/internal/domain"

// Store persists vector points and supports similarity search plus a
// cursor-based full scan. Every operation lazily ensures the target
// collection exists, so callers never see a missing-collection error.
type Store interface {
	// EnsureCollection creates the collection with the configured
	// dimension and distance if it does not exist yet.
	EnsureCollection(collection string) error
	// Upsert writes points, overwriting by key. Returns the number of
	// points written.
	Upsert(points []domain.Point, collection string) (int, error)
	// Search returns up to limit points ranked by similarity. The limit
	// is clamped to [1, 100].
	Search(vector []float64, limit int, collection string) ([]domain.SearchResult, error)
	// Scroll pages through the collection. An empty cursor starts from
	// the beginning; an empty next cursor signals the end.
	Scroll(limit int, cursor string, collection string, withVectors bool) ([]domain.Point, string, error)
	// DeleteByIDs removes the listed points.
	DeleteByIDs(ids []domain.PointKey, collection string) error
	// DeleteByFilter removes points matching the payload filter. The
	// affected count is unknowable synchronously.
	DeleteByFilter(filter domain.Filter, collection string) error
	// Count returns the exact point count, or 0 on backend error.
	Count(collection string) int
}
