package engine

import (
	"time"

	"github.com/coreflux/agentturn/pkg/models"
)

// finalize implements spec §4.5, "Finalize": record turn duration, clear
// the streaming flag, and emit the terminal completed event for any path
// that didn't already emit one.
func (e *Engine) finalize(session *models.SessionState, tc *turnContext, alreadyCompleted bool, sink Sink) {
	session.SessionStats.LastTurnMS = float64(time.Since(tc.startedAt).Microseconds()) / 1000.0
	session.IsStreaming = false
	if !alreadyCompleted {
		sink(models.NewCompletedEvent(session.LastInteractionStatus))
	}
}
