package engine

import (
	"context"

	"gopkg.in/yaml.v3"

	"github.com/coreflux/agentturn/pkg/models"
)

// runActiveWorkflow implements spec §4.5, "Workflow": if a workflow of
// the configured type is active, delegate the turn to the handler.
// Returns true if the turn is already over (the handler left the session
// in a terminal-for-turn status).
func (e *Engine) runActiveWorkflow(ctx context.Context, session *models.SessionState, sink Sink) bool {
	wf := session.ActiveWorkflowOfType(e.cfg.WorkflowType)
	if wf == nil || e.workflow == nil {
		return false
	}

	if err := e.workflow.Handle(ctx, wf, session); err != nil {
		session.LastInteractionStatus = models.StatusWorkflowUnexpectedErr
		sink(models.NewErrorEvent("The workflow encountered an unexpected error."))
		sink(models.NewCompletedEvent(session.LastInteractionStatus))
		return true
	}

	if session.LastInteractionStatus.IsTerminalForTurn() {
		sink(models.NewCompletedEvent(session.LastInteractionStatus))
		return true
	}
	return false
}

// workflowResultStatus is the shape the spec requires the trigger tool's
// result to carry (SPEC_FULL §4 item 5).
type workflowResultStatus struct {
	Status     string `json:"status"`
	WorkflowID string `json:"workflow_id"`

	// StateYAML optionally carries the workflow's initial state as a YAML
	// document, the way the teacher's config layer encodes nested blobs
	// (SPEC_FULL §2.3/§3): a trigger tool can hand off richer seed state
	// than the flat {status, workflow_id} pair without growing the JSON
	// tool-result schema itself.
	StateYAML string `json:"state_yaml,omitempty"`
}

// tryWorkflowTrigger implements spec §4.5 step 8's "Workflow trigger
// detection": if calls is a single invocation of the configured trigger
// tool on the initial cycle, execute it, validate the newly created
// workflow, and delegate. Returns (handled, turnOver).
func (e *Engine) tryWorkflowTrigger(ctx context.Context, session *models.SessionState, calls []models.ToolCallRequest, cycle int, sink Sink) (handled, turnOver bool) {
	if cycle != 0 || len(calls) != 1 || calls[0].Name != e.cfg.WorkflowTriggerTool {
		return false, false
	}

	result := e.pipeline.Execute(ctx, calls, session)
	session.Messages = append(session.Messages, result.ToolMessages...)
	session.Messages = append(session.Messages, result.InternalMessages...)
	sink(models.NewToolResultsEvent(result.ToolMessages))

	if result.Critical || len(result.ToolMessages) == 0 {
		return true, false
	}

	status, workflowID, stateYAML := parseWorkflowTriggerResult(result.ToolMessages[0].Content)
	if status != "success" || workflowID == "" {
		return true, false
	}

	wf, ok := session.ActiveWorkflows[workflowID]
	if !ok {
		return true, false
	}
	if stateYAML != "" {
		applyWorkflowStateYAML(wf, stateYAML)
	}

	if e.workflow == nil {
		return true, false
	}
	if err := e.workflow.Handle(ctx, wf, session); err != nil {
		session.LastInteractionStatus = models.StatusWorkflowUnexpectedErr
		sink(models.NewErrorEvent("The workflow encountered an unexpected error."))
		sink(models.NewCompletedEvent(session.LastInteractionStatus))
		return true, true
	}

	if session.LastInteractionStatus.IsTerminalForTurn() {
		session.CompleteWorkflow(workflowID, models.WorkflowCompleted)
		sink(models.NewCompletedEvent(session.LastInteractionStatus))
		return true, true
	}
	return true, false
}

func parseWorkflowTriggerResult(content string) (status, workflowID, stateYAML string) {
	var parsed workflowResultStatus
	if err := unmarshalLenient(content, &parsed); err != nil {
		return "", "", ""
	}
	return parsed.Status, parsed.WorkflowID, parsed.StateYAML
}

// applyWorkflowStateYAML merges a YAML-encoded state blob into wf.State,
// ignoring malformed documents rather than failing the handoff (the
// {status, workflow_id} pair already succeeded; seed state is
// best-effort).
func applyWorkflowStateYAML(wf *models.WorkflowContext, doc string) {
	var extra map[string]any
	if err := yaml.Unmarshal([]byte(doc), &extra); err != nil {
		return
	}
	if wf.State == nil {
		wf.State = make(map[string]any, len(extra))
	}
	for k, v := range extra {
		wf.State[k] = v
	}
}
