package streamproc

import "github.com/coreflux/agentturn/pkg/models"

// EventType is the closed set of events Process yields (spec §4.4,
// "Contract").
type EventType string

const (
	EventTextDelta EventType = "text_delta"
	EventToolCalls EventType = "tool_calls"
	EventDebugInfo EventType = "debug_info"
)

// Event is one item of the sequence Process yields.
type Event struct {
	Type      EventType
	Text      string                    // EventTextDelta
	ToolCalls []models.ToolCallRequest  // EventToolCalls
	Debug     DebugInfo                 // EventDebugInfo
}

// DebugInfo carries diagnostic and usage information, and terminal-error
// framing (spec §4.4, "Fault isolation").
type DebugInfo struct {
	Status    string
	Error     string
	ErrorType string
	Usage     UsageMetadata
	Warnings  []string
}
