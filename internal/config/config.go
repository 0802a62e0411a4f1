// Package config loads the application configuration.
//
// Configuration is an explicit struct constructed once at process start
// and passed to every component constructor; there is no ambient global
// state. Values come from defaults, an optional TOML file, and an
// optional .env overlay, in that order of precedence (later wins).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all runtime settings.
type Config struct {
	// Ollama backend.
	OllamaHost string `toml:"ollama_host"`
	LLMModel   string `toml:"llm_model"`
	EmbedModel string `toml:"embed_model"`

	// Data layout. Derived paths are filled in by Load when empty.
	DataDir     string `toml:"data_dir"`
	DBPath      string `toml:"db_path"`
	VectorPath  string `toml:"vector_path"`
	LexicalPath string `toml:"lexical_path"`
	Namespace   string `toml:"namespace"`

	// Chunking parameters (approximate token counts).
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`

	// Retrieval parameters.
	LexicalTopK int `toml:"lexical_top_k"`
	VectorTopK  int `toml:"vector_top_k"`
	HybridTopK  int `toml:"hybrid_top_k"`
	RRFConstant int `toml:"rrf_k"`

	// Extraction parameters.
	ConfidenceThreshold float64 `toml:"confidence_threshold"`

	// Aggregation parameters.
	ClusteringThreshold float64 `toml:"clustering_threshold"`
	MinClusterSize      int     `toml:"min_cluster_size"`

	// Embedding batch size.
	EmbedBatchSize int `toml:"embed_batch_size"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		OllamaHost:          "http://localhost:11434",
		LLMModel:            "qwen2.5:7b-instruct",
		EmbedModel:          "nomic-embed-text",
		DataDir:             ".marianalyzer",
		Namespace:           "chunks",
		ChunkSize:           400,
		ChunkOverlap:        100,
		LexicalTopK:         50,
		VectorTopK:          50,
		HybridTopK:          20,
		RRFConstant:         60,
		ConfidenceThreshold: 0.7,
		ClusteringThreshold: 0.85,
		MinClusterSize:      2,
		EmbedBatchSize:      10,
	}
}

// Load builds the configuration from defaults, an optional TOML file at
// configPath (empty = <data_dir>/config.toml if present) and a .env
// overlay in the working directory.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	if configPath == "" {
		candidate := filepath.Join(cfg.DataDir, "config.toml")
		if _, err := os.Stat(candidate); err == nil {
			configPath = candidate
		}
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnv(&cfg)
	cfg.fillDerived()

	return &cfg, nil
}

// applyEnv overrides selected settings from environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("MARIANALYZER_OLLAMA_HOST"); v != "" {
		cfg.OllamaHost = v
	}
	if v := os.Getenv("MARIANALYZER_LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	if v := os.Getenv("MARIANALYZER_EMBED_MODEL"); v != "" {
		cfg.EmbedModel = v
	}
	if v := os.Getenv("MARIANALYZER_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("MARIANALYZER_CLUSTERING_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.ClusteringThreshold = f
		}
	}
	if v := os.Getenv("MARIANALYZER_MIN_CLUSTER_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MinClusterSize = n
		}
	}
}

// fillDerived resolves paths that default relative to the data directory.
func (c *Config) fillDerived() {
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "metadata.db")
	}
	if c.VectorPath == "" {
		c.VectorPath = filepath.Join(c.DataDir, "vectors")
	}
	if c.LexicalPath == "" {
		c.LexicalPath = filepath.Join(c.DataDir, "lexical.idx")
	}
}

// EnsureDirectories creates the data directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.VectorPath, filepath.Dir(c.DBPath)} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}
