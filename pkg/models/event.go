package models

// UIEventType enumerates the events the engine emits to the UI transport
// (spec §6, "UI event stream").
type UIEventType string

const (
	EventTextChunk   UIEventType = "text_chunk"
	EventToolCalls   UIEventType = "tool_calls"
	EventToolResults UIEventType = "tool_results"
	EventStatus      UIEventType = "status"
	EventError       UIEventType = "error"
	EventCompleted   UIEventType = "completed"
)

// UIEvent is a single item in the stream the turn engine produces for a
// turn. Content is intentionally untyped (any): its shape depends on Type —
// a string for EventTextChunk, []ToolCallRequest for EventToolCalls, []
// *Message for EventToolResults, a status string for EventStatus, an error
// description for EventError, and CompletedContent for EventCompleted.
type UIEvent struct {
	Type    UIEventType `json:"type"`
	Content any         `json:"content,omitempty"`
}

// CompletedContent is the payload of the terminal EventCompleted event
// (spec §8 P10: every turn ends with exactly one of these).
type CompletedContent struct {
	Status InteractionStatus `json:"status"`
}

// NewStatusEvent builds a status UIEvent.
func NewStatusEvent(status string) *UIEvent {
	return &UIEvent{Type: EventStatus, Content: status}
}

// NewErrorEvent builds an error UIEvent with a bounded, generic
// user-visible message (spec §7: detailed payloads stay in logs).
func NewErrorEvent(userVisible string) *UIEvent {
	return &UIEvent{Type: EventError, Content: userVisible}
}

// NewCompletedEvent builds the terminal completed UIEvent.
func NewCompletedEvent(status InteractionStatus) *UIEvent {
	return &UIEvent{Type: EventCompleted, Content: CompletedContent{Status: status}}
}

// NewTextChunkEvent builds a text-delta UIEvent.
func NewTextChunkEvent(text string) *UIEvent {
	return &UIEvent{Type: EventTextChunk, Content: text}
}

// NewToolCallsEvent builds a UIEvent carrying the tool calls the model
// requested for the current cycle.
func NewToolCallsEvent(calls []ToolCallRequest) *UIEvent {
	return &UIEvent{Type: EventToolCalls, Content: calls}
}

// NewToolResultsEvent builds a UIEvent carrying the tool result messages
// produced by a pipeline batch.
func NewToolResultsEvent(results []*Message) *UIEvent {
	return &UIEvent{Type: EventToolResults, Content: results}
}
