// Package file provides the TOML configuration for the citeline binary.
// Configuration lives in ~/.citeline/config.toml by default; a missing
// file yields the defaults so the tool works out of the box.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultListenAddr      = ":8000"
	DefaultChunkSize       = 800
	DefaultOverlap         = 120
	DefaultTopK            = 5
	DefaultMinContextChars = 400
)

// Config is the full citeline configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Embedding ProviderConfig  `toml:"embedding"`
	LLM       ProviderConfig  `toml:"llm"`
	Storage   StorageConfig   `toml:"storage"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// ListenAddr is the address the HTTP API binds to.
	ListenAddr string `toml:"listen_addr"`
}

// ChunkingConfig configures the sliding-window chunker.
type ChunkingConfig struct {
	ChunkSize int `toml:"chunk_size"`
	Overlap   int `toml:"overlap"`
}

// RetrievalConfig configures search and the sufficiency guardrail.
type RetrievalConfig struct {
	TopK            int `toml:"top_k"`
	MinContextChars int `toml:"min_context_chars"`
}

// ProviderConfig selects and configures an external model provider.
type ProviderConfig struct {
	// Provider is "openai" or "ollama".
	Provider string `toml:"provider"`

	// Model overrides the provider default model.
	Model string `toml:"model"`

	// BaseURL overrides the provider default endpoint.
	BaseURL string `toml:"base_url"`

	// Dimensions overrides the embedding width (embedding only).
	Dimensions int `toml:"dimensions,omitempty"`

	// RequestsPerSecond caps the request rate (embedding only, 0 = default).
	RequestsPerSecond float64 `toml:"requests_per_second,omitempty"`

	// Temperature controls sampling (llm only).
	Temperature float64 `toml:"temperature,omitempty"`
}

// StorageConfig configures the on-disk layout.
type StorageConfig struct {
	// DataDir holds the vector index and the source catalog.
	// Empty means ~/.citeline/data.
	DataDir string `toml:"data_dir"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{ListenAddr: DefaultListenAddr},
		Chunking: ChunkingConfig{
			ChunkSize: DefaultChunkSize,
			Overlap:   DefaultOverlap,
		},
		Retrieval: RetrievalConfig{
			TopK:            DefaultTopK,
			MinContextChars: DefaultMinContextChars,
		},
		Embedding: ProviderConfig{Provider: "openai"},
		LLM:       ProviderConfig{Provider: "openai"},
	}
}

// DefaultPath returns ~/.citeline/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".citeline", "config.toml"), nil
}

// Load reads the configuration at path, applying defaults for anything
// the file omits. A missing file returns the defaults. An empty path
// resolves to DefaultPath.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyDefaults(&cfg)
	return cfg, nil
}

// Save writes cfg to path, creating parent directories. An empty path
// resolves to DefaultPath.
func Save(path string, cfg Config) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// applyDefaults fills in zero values left by a partial config file.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Chunking.ChunkSize <= 0 {
		cfg.Chunking.ChunkSize = DefaultChunkSize
	}
	// Zero overlap is a valid chunking choice; only negatives fall back.
	if cfg.Chunking.Overlap < 0 {
		cfg.Chunking.Overlap = DefaultOverlap
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = DefaultTopK
	}
	if cfg.Retrieval.MinContextChars <= 0 {
		cfg.Retrieval.MinContextChars = DefaultMinContextChars
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
}

// DataDir resolves the configured data directory, defaulting to
// ~/.citeline/data.
func (c Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".citeline", "data"), nil
}
