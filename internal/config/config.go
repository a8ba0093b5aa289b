package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// TemporalConfig holds connection details for the workflow engine.
type TemporalConfig struct {
	Address   string `yaml:"address"`
	Namespace string `yaml:"namespace"`
	TaskQueue string `yaml:"task_queue"`
}

// GeminiConfig configures access to the Gemini API.
type GeminiConfig struct {
	APIKeyEnv   string `yaml:"api_key_env"`
	BaseURL     string `yaml:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the embedder implementation.
type EmbedderConfig struct {
	Type      string        `yaml:"type"` // "gemini" or "local"
	Model     string        `yaml:"model"`
	Dimension int           `yaml:"dimension"`
	Gemini    *GeminiConfig `yaml:"gemini,omitempty"`
}

// GeneratorConfig configures the generative model used for answers and for
// image transcription.
type GeneratorConfig struct {
	Model  string        `yaml:"model"`
	Gemini *GeminiConfig `yaml:"gemini,omitempty"`
}

// ChunkerConfig configures how extracted text is split into chunks.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string        `yaml:"type"` // "qdrant" or "memory"
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QueryConfig holds caller-side query defaults.
type QueryConfig struct {
	TopK        int `yaml:"top_k"`
	MaxWaitSecs int `yaml:"max_wait_secs"`
}

// ChatConfig configures local chat-history persistence.
type ChatConfig struct {
	HistoryPath string `yaml:"history_path"`
}

// Config is the root application configuration, passed into each component at
// construction.
type Config struct {
	Temporal    TemporalConfig    `yaml:"temporal"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Generator   GeneratorConfig   `yaml:"generator"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Query       QueryConfig       `yaml:"query"`
	Chat        ChatConfig        `yaml:"chat"`
}

// Load reads a config from the given path. A missing file yields defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/finrag/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*Config, string, error) {
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
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *Config) error {
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
	return filepath.Join(home, ".config", "finrag", "config.yaml"), nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		Temporal: TemporalConfig{
			Address:   "127.0.0.1:7233",
			Namespace: "default",
			TaskQueue: "finrag",
		},
		Embedder: EmbedderConfig{
			Type:      "gemini",
			Model:     "text-embedding-004",
			Dimension: 768,
			Gemini:    &GeminiConfig{APIKeyEnv: "GOOGLE_API_KEY"},
		},
		Generator: GeneratorConfig{
			Model:  "gemini-2.5-flash",
			Gemini: &GeminiConfig{APIKeyEnv: "GOOGLE_API_KEY"},
		},
		Chunker: ChunkerConfig{ChunkSize: 512, ChunkOverlap: 200},
		VectorStore: VectorStoreConfig{
			Type: "qdrant",
			Qdrant: &QdrantConfig{
				URL:        "http://127.0.0.1:6333",
				Collection: "docs_gemini",
			},
		},
		Query: QueryConfig{TopK: 5, MaxWaitSecs: 120},
		Chat:  ChatConfig{HistoryPath: "chat_history.json"},
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Temporal.Address == "" {
		cfg.Temporal.Address = "127.0.0.1:7233"
	}
	if cfg.Temporal.Namespace == "" {
		cfg.Temporal.Namespace = "default"
	}
	if cfg.Temporal.TaskQueue == "" {
		cfg.Temporal.TaskQueue = "finrag"
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "gemini"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-004"
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 768
	}
	if cfg.Embedder.Type == "gemini" && cfg.Embedder.Gemini == nil {
		cfg.Embedder.Gemini = &GeminiConfig{}
	}
	applyGeminiDefaults(cfg.Embedder.Gemini)
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = "gemini-2.5-flash"
	}
	if cfg.Generator.Gemini == nil {
		cfg.Generator.Gemini = &GeminiConfig{}
	}
	applyGeminiDefaults(cfg.Generator.Gemini)
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 512
	}
	if cfg.Chunker.ChunkOverlap == 0 {
		cfg.Chunker.ChunkOverlap = 200
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "qdrant"
	}
	if cfg.VectorStore.Type == "qdrant" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		if cfg.VectorStore.Qdrant.URL == "" {
			cfg.VectorStore.Qdrant.URL = "http://127.0.0.1:6333"
		}
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = "docs_gemini"
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	}
	if cfg.Query.TopK == 0 {
		cfg.Query.TopK = 5
	}
	if cfg.Query.MaxWaitSecs == 0 {
		cfg.Query.MaxWaitSecs = 120
	}
	if cfg.Chat.HistoryPath == "" {
		cfg.Chat.HistoryPath = "chat_history.json"
	}
}

func applyGeminiDefaults(g *GeminiConfig) {
	if g == nil {
		return
	}
	if g.APIKeyEnv == "" {
		g.APIKeyEnv = "GOOGLE_API_KEY"
	}
	if g.BaseURL == "" {
		g.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if g.TimeoutSecs == 0 {
		g.TimeoutSecs = 60
	}
}
