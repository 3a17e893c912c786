// Package config provides configuration loading and structs for the CineSense server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Ranking    RankingConfig    `yaml:"ranking"`
	Enrichment EnrichmentConfig `yaml:"enrichment"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the catalog database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// CatalogConfig holds ingestion settings: where the catalog dump lives and
// how title resolution behaves.
type CatalogConfig struct {
	DumpPath            string  `yaml:"dump_path"`
	Watch               bool    `yaml:"watch"`
	FuzzyMatchThreshold float64 `yaml:"fuzzy_match_threshold"`
}

// EmbeddingConfig holds embedder settings used when dump rows arrive without vectors.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// ClusteringConfig holds k-means parameters for the per-type cluster index.
type ClusteringConfig struct {
	ClustersPerType int   `yaml:"clusters_per_type"`
	MaxIterations   int   `yaml:"max_iterations"`
	Seed            int64 `yaml:"seed"`
}

// RankingConfig holds similarity ranking settings.
type RankingConfig struct {
	FranchiseBoost float64 `yaml:"franchise_boost"`
	DefaultTopN    int     `yaml:"default_top_n"`
	MaxTopN        int     `yaml:"max_top_n"`
}

// EnrichmentConfig holds poster/overview enrichment settings. With an empty
// TMDBAPIKey, enrichment runs in placeholder-only mode.
type EnrichmentConfig struct {
	TMDBAPIKey     string `yaml:"tmdb_api_key"`
	TMDBBaseURL    string `yaml:"tmdb_base_url"`
	JikanBaseURL   string `yaml:"jikan_base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	CacheSize      int    `yaml:"cache_size"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Catalog.DumpPath = expandPath(cfg.Catalog.DumpPath, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
