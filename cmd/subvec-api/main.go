package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"subvec/internal/app"
	"subvec/internal/config"
	"subvec/internal/ingest"
	"subvec/internal/server"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var ginMode string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/subvec/config.yaml if not provided)")
	flag.StringVar(&ginMode, "mode", "release", "Gin mode: debug, release, test")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	config.EnsureLocalNoProxy()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	emb, err := app.NewEmbedder(cfg)
	if err != nil {
		slog.Error("embedder init failed", "error", err)
		os.Exit(1)
	}
	store, err := app.NewStore(cfg)
	if err != nil {
		slog.Error("vector store init failed", "error", err)
		os.Exit(1)
	}
	sampler := app.NewSampler(cfg, store)
	ingester := ingest.NewService(emb, store)

	gin.SetMode(ginMode)
	srv := server.New(emb, store, ingester, sampler, server.Config{
		Collection:   app.CollectionName(cfg),
		MinWords:     cfg.Random.MinWords,
		SubtitlesDir: cfg.Ingest.SubtitlesDir,
	})

	slog.Info("listening", "addr", cfg.Server.Addr, "collection", app.CollectionName(cfg), "embedder", emb.Name())
	if err := srv.Router().Run(cfg.Server.Addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
