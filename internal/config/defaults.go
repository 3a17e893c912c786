package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/cinesense/data/catalog.db"
	}
	if cfg.Catalog.FuzzyMatchThreshold == 0 {
		cfg.Catalog.FuzzyMatchThreshold = 0.8
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Clustering.ClustersPerType == 0 {
		cfg.Clustering.ClustersPerType = 20
	}
	if cfg.Clustering.MaxIterations == 0 {
		cfg.Clustering.MaxIterations = 50
	}
	if cfg.Clustering.Seed == 0 {
		cfg.Clustering.Seed = 42
	}
	if cfg.Ranking.FranchiseBoost == 0 {
		cfg.Ranking.FranchiseBoost = 0.15
	}
	if cfg.Ranking.DefaultTopN == 0 {
		cfg.Ranking.DefaultTopN = 10
	}
	if cfg.Ranking.MaxTopN == 0 {
		cfg.Ranking.MaxTopN = 50
	}
	if cfg.Enrichment.TMDBBaseURL == "" {
		cfg.Enrichment.TMDBBaseURL = "https://api.themoviedb.org/3"
	}
	if cfg.Enrichment.JikanBaseURL == "" {
		cfg.Enrichment.JikanBaseURL = "https://api.jikan.moe/v4"
	}
	if cfg.Enrichment.TimeoutSeconds == 0 {
		cfg.Enrichment.TimeoutSeconds = 8
	}
	if cfg.Enrichment.CacheSize == 0 {
		cfg.Enrichment.CacheSize = 512
	}
}
