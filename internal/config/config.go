package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// TEIEmbedderConfig holds configuration for a text-embeddings-inference
// backend.
type TEIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	BatchSize   int    `yaml:"batch_size"`
	Dimension   int    `yaml:"dimension"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible
// embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	TEI    *TEIEmbedderConfig    `yaml:"tei,omitempty"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type      string        `yaml:"type"`
	Dimension int           `yaml:"dimension"`
	Qdrant    *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	Distance    string `yaml:"distance"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// IngestConfig configures the subtitle ingestion job.
type IngestConfig struct {
	SubtitlesDir string `yaml:"subtitles_dir"`
}

// RandomConfig tunes the random sampling engine.
type RandomConfig struct {
	SearchLimit       int `yaml:"search_limit"`
	MaxRetries        int `yaml:"max_retries"`
	MinWords          int `yaml:"min_words"`
	FallbackBatchSize int `yaml:"fallback_batch_size"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Random      RandomConfig      `yaml:"random"`
	Server      ServerConfig      `yaml:"server"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults. Environment variables override the file in either case.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/subvec/config.yaml.
// If neither exists, it writes defaults to ~/.config/subvec/config.yaml and
// returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnvOverrides(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "subvec", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder: EmbedderConfig{
			Type: "tei",
			TEI:  &TEIEmbedderConfig{},
		},
		VectorStore: VectorStoreConfig{
			Type:   "qdrant",
			Qdrant: &QdrantConfig{},
		},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.VectorStore.Dimension == 0 {
		cfg.VectorStore.Dimension = 384
	}
	if cfg.Embedder.Type == "tei" || cfg.Embedder.Type == "" {
		if cfg.Embedder.TEI == nil {
			cfg.Embedder.TEI = &TEIEmbedderConfig{}
		}
		if cfg.Embedder.TEI.BaseURL == "" {
			cfg.Embedder.TEI.BaseURL = "http://localhost:8081"
		}
		if cfg.Embedder.TEI.BatchSize == 0 {
			cfg.Embedder.TEI.BatchSize = 32
		}
		if cfg.Embedder.TEI.TimeoutSecs == 0 {
			cfg.Embedder.TEI.TimeoutSecs = 60
		}
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 32
		}
	}
	if cfg.VectorStore.Type == "qdrant" || cfg.VectorStore.Type == "" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		if cfg.VectorStore.Qdrant.URL == "" {
			cfg.VectorStore.Qdrant.URL = "http://localhost:6333"
		}
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "subtitles"
		}
		if cfg.VectorStore.Qdrant.Distance == "" {
			cfg.VectorStore.Qdrant.Distance = "Cosine"
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	}
	if cfg.Ingest.SubtitlesDir == "" {
		cfg.Ingest.SubtitlesDir = "subtitles"
	}
	if cfg.Random.SearchLimit == 0 {
		cfg.Random.SearchLimit = 50
	}
	if cfg.Random.MaxRetries == 0 {
		cfg.Random.MaxRetries = 20
	}
	if cfg.Random.MinWords == 0 {
		cfg.Random.MinWords = 3
	}
	if cfg.Random.FallbackBatchSize == 0 {
		cfg.Random.FallbackBatchSize = 100
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
}

// applyEnvOverrides lets deployment environments configure the service
// without a config file. Variables override whatever the file said.
func applyEnvOverrides(cfg *AppConfig) {
	setString(&cfg.Server.Addr, "SERVER_ADDR")
	setString(&cfg.Ingest.SubtitlesDir, "SUBTITLES_DIR")
	setInt(&cfg.VectorStore.Dimension, "VECTOR_DIM")

	if cfg.Embedder.TEI != nil {
		setString(&cfg.Embedder.TEI.BaseURL, "TEI_URL")
		setInt(&cfg.Embedder.TEI.BatchSize, "TEI_BATCH_SIZE")
	}
	if cfg.VectorStore.Qdrant != nil {
		setString(&cfg.VectorStore.Qdrant.URL, "QDRANT_URL")
		setString(&cfg.VectorStore.Qdrant.APIKey, "QDRANT_API_KEY")
		setString(&cfg.VectorStore.Qdrant.Collection, "QDRANT_COLLECTION")
		setString(&cfg.VectorStore.Qdrant.Distance, "QDRANT_DISTANCE")
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}
