// Package engine drives one turn of the agent: Init, ResolvePending,
// Workflow-or-General, Finalize (spec §4.5).
package engine

// Config configures the turn engine's cycle bounds and fast-path
// heuristics.
type Config struct {
	// MaxToolCyclesOuter bounds the general LLM↔tool loop (spec §4.5,
	// "General loop"). Default 10.
	MaxToolCyclesOuter int `yaml:"max_tool_cycles_outer"`

	// GreetingPhrases are exact (case-insensitive) matches that skip tool
	// provisioning on the initial cycle (spec §4.5 step 1). Default:
	// hello, hi, thanks, bye, how are you.
	GreetingPhrases []string `yaml:"greeting_phrases"`

	// HelpSubstrings override the greeting fast-path: a query containing
	// one of these always gets tools provisioned (spec §4.5 step 1).
	HelpSubstrings []string `yaml:"help_substrings"`

	// WorkflowTriggerTool is the tool name that, when invoked alone on an
	// initial cycle, hands the turn to a workflow (spec §4.5 step 8,
	// SPEC_FULL §4 item 5). Default "start_story_builder_workflow".
	WorkflowTriggerTool string `yaml:"workflow_trigger_tool"`

	// StoryHintSubstrings mark a query as hinting at workflow creation,
	// triggering injection of the workflow-trigger tool schema on the
	// initial cycle (spec §4.5 step 2).
	StoryHintSubstrings []string `yaml:"story_hint_substrings"`

	// WorkflowType is the active_workflows type this engine delegates to
	// (spec §4.5, "Workflow").
	WorkflowType string `yaml:"workflow_type"`
}

// Default returns the documented default configuration (spec §6, §4.5).
func Default() *Config {
	return &Config{
		MaxToolCyclesOuter:  10,
		GreetingPhrases:     []string{"hello", "hi", "thanks", "bye", "how are you"},
		HelpSubstrings:      []string{"help", "what can you do", "commands"},
		WorkflowTriggerTool: "start_story_builder_workflow",
		StoryHintSubstrings: []string{"create a story", "create a ticket", "new ticket", "file a ticket", "start a workflow"},
		WorkflowType:        "story_builder",
	}
}

func sanitize(cfg *Config) *Config {
	if cfg == nil {
		return Default()
	}
	c := *cfg
	d := Default()
	if c.MaxToolCyclesOuter <= 0 {
		c.MaxToolCyclesOuter = d.MaxToolCyclesOuter
	}
	if len(c.GreetingPhrases) == 0 {
		c.GreetingPhrases = d.GreetingPhrases
	}
	if len(c.HelpSubstrings) == 0 {
		c.HelpSubstrings = d.HelpSubstrings
	}
	if c.WorkflowTriggerTool == "" {
		c.WorkflowTriggerTool = d.WorkflowTriggerTool
	}
	if c.WorkflowType == "" {
		c.WorkflowType = d.WorkflowType
	}
	return &c
}
