package engine

import "strings"

// isGreeting reports whether query exactly matches (case-insensitively,
// trimmed) one of the configured greeting phrases and contains none of
// the help substrings, in which case tool provisioning is skipped on the
// initial cycle (spec §4.5 step 1).
func isGreeting(cfg *Config, query string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(query))
	for _, phrase := range cfg.HelpSubstrings {
		if strings.Contains(trimmed, phrase) {
			return false
		}
	}
	for _, greeting := range cfg.GreetingPhrases {
		if trimmed == greeting {
			return true
		}
	}
	return false
}

// hintsStoryCreation reports whether query suggests the user wants to
// create a workflow item, triggering injection of the workflow-trigger
// tool schema on the initial cycle (spec §4.5 step 2).
func hintsStoryCreation(cfg *Config, query string) bool {
	lower := strings.ToLower(query)
	for _, hint := range cfg.StoryHintSubstrings {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
