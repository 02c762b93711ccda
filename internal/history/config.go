// Package history prepares a session's message log into the alternating
// user/model/tool sequence a provider requires, applying the filter,
// budget, scratchpad-injection, format-mapping, and sequence-repair
// pipeline of spec §4.2.
package history

// Config carries the tunables of spec §6 relevant to history preparation.
type Config struct {
	// MaxItems bounds the filtered history before provider-format mapping
	// (spec §6, MAX_HISTORY_ITEMS).
	MaxItems int `yaml:"max_history_items"`

	// MaxImportantInternal bounds how many "important internal" messages
	// (workflow-stage, reflection, plan) survive the budget, even when
	// MaxItems is tight (spec §4.2 step 2).
	MaxImportantInternal int `yaml:"max_important_internal"`

	// ScratchpadInjectCount is how many of the most recent scratchpad
	// entries are summarized into the synthetic context_summary message
	// (spec §4.2 step 3).
	ScratchpadInjectCount int `yaml:"scratchpad_inject_count"`
}

// Default returns the documented default configuration (spec §6).
func Default() *Config {
	return &Config{
		MaxItems:              40,
		MaxImportantInternal:  5,
		ScratchpadInjectCount: 5,
	}
}

func sanitize(cfg *Config) *Config {
	if cfg == nil {
		return Default()
	}
	c := *cfg
	d := Default()
	if c.MaxItems <= 0 {
		c.MaxItems = d.MaxItems
	}
	if c.MaxImportantInternal <= 0 {
		c.MaxImportantInternal = d.MaxImportantInternal
	}
	if c.ScratchpadInjectCount <= 0 {
		c.ScratchpadInjectCount = d.ScratchpadInjectCount
	}
	return &c
}
