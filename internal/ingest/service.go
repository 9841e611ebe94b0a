package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"subvec/internal/domain"
	"subvec/internal/embedding"
	"subvec/internal/pointid"
	"subvec/internal/vectorstore"
)

// Service drives subtitle ingestion: it scans a directory for .srt
// files and, per file, parses blocks, embeds their normalized text in
// one batch call and upserts the resulting points in one store call.
// Failures are isolated per file; a bad file bumps the error counter
// and the job moves on.
//
// At most one job runs per process. Start is an atomic check-and-set on
// the running flag, so concurrent start requests cannot race two jobs
// past the guard.
type Service struct {
	embedder embedding.Embedder
	store    vectorstore.Store

	mu     sync.Mutex
	status domain.JobStatus
}

func NewService(embedder embedding.Embedder, store vectorstore.Store) *Service {
	return &Service{embedder: embedder, store: store}
}

// Status returns a snapshot of the current job state.
func (s *Service) Status() domain.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start begins ingesting dir in the background. It returns false, and
// changes nothing, when a job is already running.
func (s *Service) Start(dir string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Running {
		return false
	}
	s.status = domain.JobStatus{Running: true, Dir: dir}
	go s.run(dir)
	return true
}

func (s *Service) run(dir string) {
	defer func() {
		s.mu.Lock()
		s.status.Running = false
		s.mu.Unlock()
	}()

	names, err := listSRT(dir)
	if err != nil {
		slog.Error("ingest scan failed", "dir", dir, "error", err)
		return
	}
	s.mu.Lock()
	s.status.Total = len(names)
	s.mu.Unlock()
	slog.Info("ingest start", "dir", dir, "files", len(names))

	if err := s.store.EnsureCollection(""); err != nil {
		slog.Error("ingest ensure collection failed", "error", err)
		return
	}

	for _, name := range names {
		upserted, err := s.processFile(dir, name)
		if err != nil {
			s.mu.Lock()
			s.status.Errors++
			s.mu.Unlock()
			slog.Error("ingest file failed", "file", name, "error", err)
			continue
		}
		s.mu.Lock()
		s.status.Upserted += upserted
		s.mu.Unlock()
	}

	final := s.Status()
	slog.Info("ingest complete", "dir", dir, "upserted", final.Upserted, "errors", final.Errors)
}

// processFile handles one subtitle file end to end. Nothing is written
// unless the whole file embeds successfully: its batch commits in one
// upsert or not at all.
func (s *Service) processFile(dir, name string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return 0, err
	}

	videoID, episode := ParseFilename(name)
	entries := ParseSRT(string(data), videoID, episode)
	if len(entries) == 0 {
		slog.Info("srt has no entries", "file", name)
		return 0, nil
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		if e.NormalizedText != "" {
			texts[i] = e.NormalizedText
		} else {
			texts[i] = e.Text
		}
	}
	vectors, err := s.embedder.EmbedBatch(texts, embedding.KindRaw)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(entries) {
		return 0, fmt.Errorf("embedding count mismatch: %d != %d", len(vectors), len(entries))
	}

	points := make([]domain.Point, len(entries))
	for i, e := range entries {
		points[i] = domain.Point{
			ID:      pointid.FromRaw(e.ID),
			Vector:  vectors[i],
			Payload: e.Payload(),
		}
	}
	count, err := s.store.Upsert(points, "")
	if err != nil {
		return 0, err
	}
	slog.Info("srt processed", "file", name, "points", count)
	return count, nil
}

func listSRT(dir string) ([]string, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, d := range dirents {
		if d.IsDir() {
			continue
		}
		if strings.HasSuffix(d.Name(), ".srt") {
			names = append(names, d.Name())
		}
	}
	return names, nil
}
