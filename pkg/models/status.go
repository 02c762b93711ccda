package models

// InteractionStatus is the closed set of terminal/intermediate statuses a
// turn can carry (spec §3). Exactly one is emitted per turn as the payload
// of the terminal `completed` event (spec §8, P10).
type InteractionStatus string

const (
	StatusProcessing            InteractionStatus = "PROCESSING"
	StatusCompletedOK           InteractionStatus = "COMPLETED_OK"
	StatusCompletedEmpty        InteractionStatus = "COMPLETED_EMPTY"
	StatusWaitingUserInput      InteractionStatus = "WAITING_USER_INPUT"
	StatusToolError             InteractionStatus = "TOOL_ERROR"
	StatusLLMFailure            InteractionStatus = "LLM_FAILURE"
	StatusMaxCallsReached       InteractionStatus = "MAX_CALLS_REACHED"
	StatusHistoryResetRequired  InteractionStatus = "HISTORY_RESET_REQUIRED"
	StatusCriticalHistoryError  InteractionStatus = "CRITICAL_HISTORY_ERROR"
	StatusUnexpectedAgentError  InteractionStatus = "UNEXPECTED_AGENT_ERROR"
	StatusWorkflowCompleted     InteractionStatus = "WORKFLOW_COMPLETED"
	StatusWorkflowError         InteractionStatus = "WORKFLOW_ERROR"
	StatusWorkflowMaxCycles     InteractionStatus = "WORKFLOW_MAX_CYCLES"
	StatusWorkflowUnexpectedErr InteractionStatus = "WORKFLOW_UNEXPECTED_ERROR"
)

// IsTerminalForTurn reports whether a status delegated to a workflow
// handler should end the turn immediately rather than fall through to the
// general LLM/tool loop (spec §4.5, "Workflow").
func (s InteractionStatus) IsTerminalForTurn() bool {
	switch s {
	case StatusWaitingUserInput,
		StatusHistoryResetRequired,
		StatusWorkflowCompleted,
		StatusWorkflowError,
		StatusWorkflowMaxCycles,
		StatusWorkflowUnexpectedErr:
		return true
	default:
		return false
	}
}
