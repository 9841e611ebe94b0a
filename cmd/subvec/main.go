package main

import (
	"flag"
	"io"
	"log"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"subvec/internal/app"
	"subvec/internal/config"
	"subvec/internal/search"
	"subvec/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/subvec/config.yaml if not provided)")
	flag.Parse()

	// keep log noise off the alt screen
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	config.EnsureLocalNoProxy()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	emb, err := app.NewEmbedder(cfg)
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}
	store, err := app.NewStore(cfg)
	if err != nil {
		log.Fatalf("vector store init failed: %v", err)
	}
	sampler := app.NewSampler(cfg, store)
	svc := search.NewService(emb, store, sampler, cfg.Random.MinWords)

	m := tui.New(svc)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}
