package models

import "time"

// User is the identity the turn engine and tool pipeline authorize against
// (spec §3, SessionState.current_user).
type User struct {
	ID          string          `json:"id"`
	Email       string          `json:"email,omitempty"`
	Permissions map[string]bool `json:"permissions,omitempty"`
}

// HasPermission reports whether the user holds the named permission.
func (u *User) HasPermission(name string) bool {
	if u == nil || name == "" {
		return name == ""
	}
	return u.Permissions[name]
}

// PerToolStats accumulates counters for a single tool name.
type PerToolStats struct {
	Calls      int     `json:"calls"`
	Failures   int     `json:"failures"`
	TotalMS    float64 `json:"total_ms"`
}

// SessionStats tracks the running counters of a session (spec §3).
type SessionStats struct {
	LLMCalls        int                     `json:"llm_calls"`
	TokenCount      int                     `json:"token_count"`
	ToolCalls       int                     `json:"tool_calls"`
	FailedToolCalls int                     `json:"failed_tool_calls"`
	LastTurnMS      float64                 `json:"last_turn_ms"`
	PerTool         map[string]*PerToolStats `json:"per_tool,omitempty"`
}

// ToolStats returns (creating if necessary) the PerToolStats for name.
func (s *SessionStats) ToolStats(name string) *PerToolStats {
	if s.PerTool == nil {
		s.PerTool = make(map[string]*PerToolStats)
	}
	st, ok := s.PerTool[name]
	if !ok {
		st = &PerToolStats{}
		s.PerTool[name] = st
	}
	return st
}

// WorkflowStatus is the lifecycle state of an active or completed workflow
// (spec §4.5, "Workflow"; SPEC_FULL §4.5 supplement).
type WorkflowStatus string

const (
	WorkflowActive    WorkflowStatus = "active"
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowFailed    WorkflowStatus = "failed"
)

// WorkflowContext is the durable state of one delegated workflow (spec
// §3, active_workflows; §4.5 "Workflow").
type WorkflowContext struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Status    WorkflowStatus `json:"status"`
	State     map[string]any `json:"state,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SessionState is the durable per-session state the engine mutates each
// turn (spec §3).
type SessionState struct {
	Messages                  []*Message
	PreviousToolCalls         []PreviousToolCall
	Scratchpad                []ScratchpadEntry
	ActiveWorkflows           map[string]*WorkflowContext
	CompletedWorkflows        []*WorkflowContext
	CurrentUser               *User
	SessionStats              SessionStats
	StreamingPlaceholderContent string
	CurrentStatusMessage      string
	CurrentStepError          error
	LastInteractionStatus     InteractionStatus
	IsStreaming               bool
}

// NewSessionState returns a SessionState with its maps initialized.
func NewSessionState(user *User) *SessionState {
	return &SessionState{
		ActiveWorkflows: make(map[string]*WorkflowContext),
		CurrentUser:     user,
	}
}

// PushScratchpad appends an entry, evicting the oldest if the bound
// (ScratchpadCap) is exceeded (invariant I5, property P8).
func (s *SessionState) PushScratchpad(entry ScratchpadEntry) {
	s.Scratchpad = append(s.Scratchpad, entry)
	if len(s.Scratchpad) > ScratchpadCap {
		s.Scratchpad = s.Scratchpad[len(s.Scratchpad)-ScratchpadCap:]
	}
}

// PushPreviousToolCall appends to the append-only circular-detection
// history (invariant I6).
func (s *SessionState) PushPreviousToolCall(call PreviousToolCall) {
	s.PreviousToolCalls = append(s.PreviousToolCalls, call)
}

// ActiveWorkflowOfType returns the first active workflow of the given type,
// if any (spec §4.5, "Workflow").
func (s *SessionState) ActiveWorkflowOfType(workflowType string) *WorkflowContext {
	for _, wf := range s.ActiveWorkflows {
		if wf.Status == WorkflowActive && wf.Type == workflowType {
			return wf
		}
	}
	return nil
}

// CompleteWorkflow moves a workflow from active to the completed log,
// setting its final status (spec §4.2 reset procedure; §4.5).
func (s *SessionState) CompleteWorkflow(id string, status WorkflowStatus) {
	wf, ok := s.ActiveWorkflows[id]
	if !ok {
		return
	}
	wf.Status = status
	wf.UpdatedAt = time.Now()
	delete(s.ActiveWorkflows, id)
	s.CompletedWorkflows = append(s.CompletedWorkflows, wf)
}
