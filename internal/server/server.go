package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"subvec/internal/domain"
	"subvec/internal/embedding"
	"subvec/internal/ingest"
	"subvec/internal/pointid"
	"subvec/internal/random"
	"subvec/internal/textnorm"
	"subvec/internal/vectorstore"
)

var errCountMismatch = errors.New("embedding count does not match input count")

const (
	// prefix deletion scans in pages of scrollPageSize and deletes in
	// chunks of deleteBatchSize to bound memory.
	scrollPageSize  = 1024
	deleteBatchSize = 512
)

// Server exposes the subtitle vector service over HTTP.
type Server struct {
	embedder   embedding.Embedder
	store      vectorstore.Store
	ingester   *ingest.Service
	sampler    *random.Sampler
	collection string
	minWords   int
	defaultDir string
}

type Config struct {
	Collection   string
	MinWords     int
	SubtitlesDir string
}

func New(embedder embedding.Embedder, store vectorstore.Store, ingester *ingest.Service, sampler *random.Sampler, cfg Config) *Server {
	return &Server{
		embedder:   embedder,
		store:      store,
		ingester:   ingester,
		sampler:    sampler,
		collection: cfg.Collection,
		minWords:   cfg.MinWords,
		defaultDir: cfg.SubtitlesDir,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/status", s.handleStatus)
	r.POST("/upsert", s.handleUpsert)
	r.POST("/query", s.handleQuery)
	r.GET("/random", s.handleRandomGet)
	r.POST("/random", s.handleRandomPost)
	r.POST("/delete", s.handleDelete)
	r.POST("/ingest", s.handleIngest)
	r.GET("/ingest/status", s.handleIngestStatus)
	return r
}

func (s *Server) handleStatus(c *gin.Context) {
	if err := s.store.EnsureCollection(""); err != nil {
		fail(c, err)
		return
	}
	count := s.store.Count("")
	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"collection": s.collection,
		"count":      count,
	})
}

type upsertEntry struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	VideoID string `json:"video_id"`
	Episode int    `json:"episode"`
}

type upsertRequest struct {
	Entries    []upsertEntry `json:"entries"`
	Format     string        `json:"format"`
	Collection string        `json:"collection"`
}

func (s *Server) handleUpsert(c *gin.Context) {
	var req upsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	entries := req.Entries[:0]
	for _, e := range req.Entries {
		if strings.TrimSpace(e.Text) != "" {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		c.JSON(http.StatusOK, gin.H{"upserted": 0})
		return
	}

	kind := embedding.KindRaw
	if req.Format == "" || req.Format == "e5" {
		kind = embedding.KindPassage
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}
	vectors, err := s.embedder.EmbedBatch(texts, kind)
	if err != nil {
		fail(c, err)
		return
	}
	if len(vectors) != len(entries) {
		fail(c, errCountMismatch)
		return
	}

	points := make([]domain.Point, len(entries))
	for i, e := range entries {
		points[i] = domain.Point{
			ID:     pointid.FromRaw(e.ID),
			Vector: vectors[i],
			Payload: map[string]any{
				"video_id":        e.VideoID,
				"episode":         e.Episode,
				"text":            e.Text,
				"normalized_text": textnorm.Normalize(e.Text),
			},
		}
	}

	upserted, err := s.store.Upsert(points, req.Collection)
	if err != nil {
		fail(c, err)
		return
	}
	slog.Info("upsert", "entries", len(entries), "points", upserted, "collection", s.collectionName(req.Collection))
	c.JSON(http.StatusOK, gin.H{"upserted": upserted})
}

type queryRequest struct {
	Query      string `json:"query"`
	TopK       int    `json:"top_k"`
	Format     string `json:"format"`
	Collection string `json:"collection"`
}

type queryResponseItem struct {
	EntryID string         `json:"entryId"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload,omitempty"`
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusOK, []queryResponseItem{})
		return
	}
	if req.TopK == 0 {
		req.TopK = 10
	}

	kind := embedding.KindRaw
	if req.Format == "" || req.Format == "e5" {
		kind = embedding.KindQuery
	}

	vectors, err := s.embedder.EmbedBatch([]string{req.Query}, kind)
	if err != nil {
		fail(c, err)
		return
	}
	if len(vectors) != 1 {
		fail(c, errCountMismatch)
		return
	}

	results, err := s.store.Search(vectors[0], req.TopK, req.Collection)
	if err != nil {
		fail(c, err)
		return
	}

	items := make([]queryResponseItem, 0, len(results))
	for _, r := range results {
		items = append(items, queryResponseItem{
			EntryID: r.ID.String(),
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	topScore := 0.0
	if len(results) > 0 {
		topScore = results[0].Score
	}
	slog.Info("query", "top_k", req.TopK, "got", len(results), "top_score", topScore)
	c.JSON(http.StatusOK, items)
}

type randomRequest struct {
	Collection string `json:"collection"`
	MinWords   int    `json:"min_words"`
}

func (s *Server) handleRandomGet(c *gin.Context) {
	s.respondRandom(c, "", s.minWords)
}

func (s *Server) handleRandomPost(c *gin.Context) {
	var req randomRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	minWords := req.MinWords
	if minWords == 0 {
		minWords = s.minWords
	}
	s.respondRandom(c, req.Collection, minWords)
}

func (s *Server) respondRandom(c *gin.Context, collection string, minWords int) {
	result, ok := s.sampler.Pick(collection, minWords)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"error": "No random subtitle found"})
		return
	}
	c.JSON(http.StatusOK, queryResponseItem{
		EntryID: result.ID.String(),
		Score:   result.Score,
		Payload: result.Payload,
	})
}

type deleteRequest struct {
	Collection    string   `json:"collection"`
	VideoIDs      []string `json:"video_ids"`
	VideoIDPrefix string   `json:"video_id_prefix"`
}

func (s *Server) handleDelete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.store.EnsureCollection(req.Collection); err != nil {
		fail(c, err)
		return
	}

	if len(req.VideoIDs) > 0 {
		filter := domain.Filter{Key: "video_id", Any: req.VideoIDs}
		if err := s.store.DeleteByFilter(filter, req.Collection); err != nil {
			fail(c, err)
			return
		}
		slog.Info("delete_by_video_ids", "collection", s.collectionName(req.Collection), "video_ids", len(req.VideoIDs))
		c.JSON(http.StatusOK, gin.H{
			"deleted":       nil,
			"collection":    s.collectionName(req.Collection),
			"by":            "video_ids",
			"count_unknown": true,
		})
		return
	}

	if req.VideoIDPrefix != "" {
		deleted, err := s.deleteByPrefix(req.Collection, req.VideoIDPrefix)
		if err != nil {
			fail(c, err)
			return
		}
		slog.Info("delete_by_prefix", "collection", s.collectionName(req.Collection), "prefix", req.VideoIDPrefix, "deleted", deleted)
		c.JSON(http.StatusOK, gin.H{
			"deleted":    deleted,
			"collection": s.collectionName(req.Collection),
			"by":         "prefix",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": 0, "collection": s.collectionName(req.Collection)})
}

// deleteByPrefix scans the collection page by page and removes every
// point whose video_id carries the prefix. The exact count comes back
// because deletes go by collected ids, not by a server-side filter.
// Ids are collected across the whole scan before the first delete goes
// out; removing points while the scroll cursor is live would shift
// unscanned points underneath it and skip them.
func (s *Server) deleteByPrefix(collection, prefix string) (int, error) {
	var doomed []domain.PointKey
	cursor := ""
	for {
		points, next, err := s.store.Scroll(scrollPageSize, cursor, collection, false)
		if err != nil {
			return 0, err
		}
		for _, p := range points {
			videoID, _ := p.Payload["video_id"].(string)
			if videoID != "" && strings.HasPrefix(videoID, prefix) {
				doomed = append(doomed, p.ID)
			}
		}
		if next == "" {
			break
		}
		cursor = next
	}

	deleted := 0
	for start := 0; start < len(doomed); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(doomed) {
			end = len(doomed)
		}
		if err := s.store.DeleteByIDs(doomed[start:end], collection); err != nil {
			return deleted, err
		}
		deleted += end - start
	}
	return deleted, nil
}

type ingestRequest struct {
	Dir string `json:"dir"`
}

func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	dir := req.Dir
	if dir == "" {
		dir = s.defaultDir
	}

	if !s.ingester.Start(dir) {
		status := s.ingester.Status()
		c.JSON(http.StatusOK, gin.H{
			"accepted": false,
			"running":  true,
			"dir":      status.Dir,
		})
		return
	}
	slog.Info("ingest accepted", "dir", dir)
	c.JSON(http.StatusOK, gin.H{"accepted": true, "dir": dir})
}

func (s *Server) handleIngestStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.ingester.Status())
}

func (s *Server) collectionName(override string) string {
	if override != "" {
		return override
	}
	return s.collection
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func fail(c *gin.Context, err error) {
	slog.Error("request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
