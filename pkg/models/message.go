// Package models defines the core data types shared by every component of
// the agent turn engine: messages, tool calls/results, scratchpad entries,
// session state, tool definitions, and interaction status.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Role indicates the message author type.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// MessageType tags an internal message with the synthetic kind it carries.
// Only internal messages use this; ordinary user/assistant/tool turns leave
// it empty.
type MessageType string

const (
	MessageTypeWorkflowStage   MessageType = "workflow_stage"
	MessageTypeThought         MessageType = "thought"
	MessageTypeReflection      MessageType = "reflection"
	MessageTypePlan            MessageType = "plan"
	MessageTypeContextSummary  MessageType = "context_summary"
)

// ImportantInternalTypes holds the internal message types the history
// preparer favors when trimming to a budget (spec §4.2 step 2).
var ImportantInternalTypes = map[MessageType]bool{
	MessageTypeWorkflowStage: true,
	MessageTypeReflection:    true,
	MessageTypePlan:          true,
}

// KeepableInternalTypes holds every internal message type the history
// preparer's filter stage retains (spec §4.2 step 1).
var KeepableInternalTypes = map[MessageType]bool{
	MessageTypeWorkflowStage:  true,
	MessageTypeThought:        true,
	MessageTypeReflection:     true,
	MessageTypePlan:           true,
	MessageTypeContextSummary: true,
}

// ToolCallRequest is a single tool invocation an assistant message asked for.
type ToolCallRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // serialized JSON
}

// Message is one element of the conversation log (spec §3).
//
// Never mutated after creation, with a single exception: the system prompt
// occupying position 0 may be replaced wholesale when the system prompt
// text changes (invariant I4).
type Message struct {
	ID          string            `json:"id"`
	Role        Role              `json:"role"`
	Content     string            `json:"content"`
	ToolCalls   []ToolCallRequest `json:"tool_calls,omitempty"`
	ToolCallID  string            `json:"tool_call_id,omitempty"`
	Name        string            `json:"name,omitempty"`
	IsInternal  bool              `json:"is_internal,omitempty"`
	MessageType MessageType       `json:"message_type,omitempty"`
	IsError     bool              `json:"is_error,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// ToolResultMessage builds the `tool` Message the pipeline appends for a
// single tool call result.
func ToolResultMessage(toolCallID, name, content string, isError bool, ts time.Time) *Message {
	return &Message{
		Role:       RoleTool,
		ToolCallID: toolCallID,
		Name:       name,
		Content:    content,
		IsError:    isError,
		Timestamp:  ts,
	}
}

// NewAssistantMessage builds a plain assistant-turn Message with no tool
// calls, timestamped now.
func NewAssistantMessage(content string) *Message {
	return &Message{Role: RoleAssistant, Content: content, Timestamp: time.Now()}
}

// ArgumentsMap parses a ToolCallRequest's serialized arguments into a map.
// An empty or whitespace-only string, or the literal JSON null, decodes to
// an empty map per the boundary behavior in spec §8.
func (t ToolCallRequest) ArgumentsMap() (map[string]any, error) {
	return ParseArguments(t.Arguments)
}

// ParseArguments implements the empty/null/string → map[string]any rule
// used throughout the tool pipeline and history preparer.
func ParseArguments(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}
