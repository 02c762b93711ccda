package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreflux/agentturn/internal/history"
	"github.com/coreflux/agentturn/pkg/models"
)

// RunTurn drives one full turn through Init → ResolvePending →
// (Workflow | General) → Finalize (spec §4.5), emitting UI events to sink
// as it goes. It never returns an error: every failure mode is captured
// in session.LastInteractionStatus and the terminal completed event.
func (e *Engine) RunTurn(ctx context.Context, session *models.SessionState, query string, sink Sink) {
	tc := e.initTurn(session, query)
	completed := false

	defer func() {
		if r := recover(); r != nil {
			handleTurnPanic(session, r, sink)
			completed = true
		}
		e.finalize(session, tc, completed, sink)
	}()

	if e.resolvePending(ctx, session, sink) {
		completed = true
		return
	}

	if e.runActiveWorkflow(ctx, session, sink) {
		completed = true
		return
	}

	completed = e.runGeneral(ctx, session, tc, sink)
}

// handleTurnPanic implements spec §4.5's "Catch-alls": a
// *history.HistoryResetRequiredError propagated from anywhere in the turn
// ends it with HISTORY_RESET_REQUIRED; any other recovered value is an
// UNEXPECTED_AGENT_ERROR.
func handleTurnPanic(session *models.SessionState, r any, sink Sink) {
	var resetErr *history.HistoryResetRequiredError
	if err, ok := r.(error); ok && errors.As(err, &resetErr) {
		// history.Reset already purged messages, appended the explanation,
		// and set LastInteractionStatus; just surface the turn-ending events.
		session.LastInteractionStatus = models.StatusHistoryResetRequired
		sink(models.NewErrorEvent("Our conversation history needed to be reset."))
		sink(models.NewStatusEvent("history reset"))
		sink(models.NewCompletedEvent(session.LastInteractionStatus))
		return
	}

	var cause error
	switch v := r.(type) {
	case error:
		cause = v
	default:
		cause = fmt.Errorf("%v", v)
	}
	session.CurrentStepError = &unexpectedError{cause: cause}
	session.LastInteractionStatus = models.StatusUnexpectedAgentError
	session.Messages = append(session.Messages, models.NewAssistantMessage(
		"I hit an unexpected internal error handling that request."))
	sink(models.NewErrorEvent("An unexpected error occurred."))
	sink(models.NewStatusEvent("unexpected error"))
	sink(models.NewCompletedEvent(session.LastInteractionStatus))
}
