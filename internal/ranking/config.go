package ranking

// Config holds ranking constants. The contracts are fixed (monotonic boost,
// hard type filter); the constants are tunable.
type Config struct {
	// FranchiseBoost is added to a candidate's cosine similarity when it
	// shares the anchor's non-empty franchise key. Scores are capped at 1.0.
	FranchiseBoost float64
	// MaxTopN bounds the number of results a single request may ask for.
	MaxTopN int
}

// DefaultConfig returns the production ranking constants.
func DefaultConfig() *Config {
	return &Config{FranchiseBoost: 0.15, MaxTopN: 50}
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.FranchiseBoost == 0 {
		c.FranchiseBoost = 0.15
	}
	if c.MaxTopN == 0 {
		c.MaxTopN = 50
	}
}
