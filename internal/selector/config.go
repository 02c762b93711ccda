// Package selector ranks a tool catalog down to a permission-filtered
// shortlist for one query: keyword/intent rules, an always-include set,
// and embedding-similarity ranking with boosts, backed by a persistent
// on-disk cache (spec §4.1).
package selector

import "time"

// Config carries the tunables of spec §6 relevant to tool selection.
type Config struct {
	// HardCap bounds the final shortlist regardless of how it was built
	// (spec §4.1 step 9, §6 TOOL_SELECTOR_HARD_CAP). Default 6.
	HardCap int `yaml:"tool_selector_hard_cap"`

	// ScoreThreshold is the minimum embedding-similarity score to keep a
	// tool in the ranked remainder (spec §4.1 step 6). Default 0.3.
	ScoreThreshold float64 `yaml:"tool_selector_score_threshold"`

	// AlwaysInclude is unioned into every shortlist before the embedding
	// ranking fills remaining slots (spec §4.1 step 4).
	AlwaysInclude []string `yaml:"tool_selector_always_include"`

	// Disabled bypasses ranking entirely, returning the catalog's first
	// HardCap entries (spec §4.1 step 1).
	Disabled bool `yaml:"tool_selector_disabled"`

	// CachePath is where the embedding cache is persisted (spec §4.1,
	// "Embeddings & cache").
	CachePath string `yaml:"tool_selector_cache_path"`

	// AutoSaveInterval is the minimum dirty-time before the cache is
	// flushed to disk again (spec §4.1, "Embeddings & cache"). Default 5m.
	AutoSaveInterval time.Duration `yaml:"tool_selector_autosave_interval"`
}

// Default returns the documented default configuration (spec §6, §4.1).
func Default() *Config {
	return &Config{
		HardCap:          6,
		ScoreThreshold:   0.3,
		CachePath:        "tool_embeddings_cache.json",
		AutoSaveInterval: 5 * time.Minute,
	}
}

func sanitize(cfg *Config) *Config {
	if cfg == nil {
		return Default()
	}
	c := *cfg
	d := Default()
	if c.HardCap <= 0 {
		c.HardCap = d.HardCap
	}
	if c.ScoreThreshold <= 0 {
		c.ScoreThreshold = d.ScoreThreshold
	}
	if c.CachePath == "" {
		c.CachePath = d.CachePath
	}
	if c.AutoSaveInterval <= 0 {
		c.AutoSaveInterval = d.AutoSaveInterval
	}
	return &c
}
