package history

import (
	"strings"
	"time"

	"github.com/coreflux/agentturn/pkg/models"
)

// IsResetTrigger reports whether a provider error warrants the reset
// procedure: a known role-alternation/schema message, or an HTTP 400 not
// tagged as a safety/content block (spec §4.2, "Reset signal").
func IsResetTrigger(providerErrMsg string, httpStatus int, safetyTagged bool) bool {
	lower := strings.ToLower(providerErrMsg)
	for _, phrase := range resetTriggerPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return httpStatus == 400 && !safetyTagged
}

// Reset purges session history back to a clean slate and returns the
// HistoryResetRequiredError the engine propagates to end the turn (spec
// §4.2, "Reset signal"): non-system messages are dropped, a single
// assistant explanation is appended, scratchpad/previous-tool-calls/
// active workflows are cleared (active workflows move to the completed
// log with status=failed), and last_interaction_status is set.
func Reset(session *models.SessionState, reason string) error {
	var kept []*models.Message
	for _, msg := range session.Messages {
		if msg.Role == models.RoleSystem && !msg.IsInternal {
			kept = append(kept, msg)
		}
	}
	kept = append(kept, &models.Message{
		Role:      models.RoleAssistant,
		Content:   "I had to reset our conversation history to recover from an internal error. Please restate your request.",
		Timestamp: time.Now(),
	})
	session.Messages = kept

	session.Scratchpad = nil
	session.PreviousToolCalls = nil

	for id := range session.ActiveWorkflows {
		session.CompleteWorkflow(id, models.WorkflowFailed)
	}

	session.LastInteractionStatus = models.StatusHistoryResetRequired

	return &HistoryResetRequiredError{Reason: reason}
}
