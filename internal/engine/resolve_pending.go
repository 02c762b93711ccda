package engine

import (
	"context"

	"github.com/coreflux/agentturn/pkg/models"
)

// resolvePending implements spec §4.5, "ResolvePending": find the last
// assistant message's unanswered tool calls (if any) and run them through
// the pipeline before any new LLM call. Returns true if the turn is
// already over (a critical error occurred while flushing pending calls).
func (e *Engine) resolvePending(ctx context.Context, session *models.SessionState, sink Sink) bool {
	pending := unresolvedToolCalls(session.Messages)
	if len(pending) == 0 {
		return false
	}

	sink(models.NewStatusEvent("resolving pending tool calls from the previous turn"))

	result := e.pipeline.Execute(ctx, pending, session)
	session.Messages = append(session.Messages, result.ToolMessages...)
	session.Messages = append(session.Messages, result.InternalMessages...)

	sink(models.NewToolResultsEvent(result.ToolMessages))

	if result.Critical {
		session.LastInteractionStatus = models.StatusToolError
		sink(models.NewErrorEvent("A tool error prevented finishing the previous request."))
		sink(models.NewCompletedEvent(session.LastInteractionStatus))
		return true
	}
	return false
}

// unresolvedToolCalls scans from the end of messages for the last
// assistant message and returns the ToolCallRequests it made that no
// subsequent tool message has answered (spec §4.5, "ResolvePending").
func unresolvedToolCalls(messages []*models.Message) []models.ToolCallRequest {
	lastAssistant := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleAssistant && !messages[i].IsInternal {
			lastAssistant = i
			break
		}
	}
	if lastAssistant == -1 || len(messages[lastAssistant].ToolCalls) == 0 {
		return nil
	}

	answered := make(map[string]bool)
	for _, msg := range messages[lastAssistant+1:] {
		if msg.Role == models.RoleTool {
			answered[msg.ToolCallID] = true
		}
	}

	var pending []models.ToolCallRequest
	for _, call := range messages[lastAssistant].ToolCalls {
		if !answered[call.ID] {
			pending = append(pending, call)
		}
	}
	return pending
}
