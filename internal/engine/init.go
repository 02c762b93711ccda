package engine

import (
	"time"

	"github.com/coreflux/agentturn/pkg/models"
)

// ensureSystemPrompt inserts or replaces the system-prompt message at
// position 0 (invariant I4).
func (e *Engine) ensureSystemPrompt(session *models.SessionState) {
	if e.systemPrompt == "" {
		return
	}
	if len(session.Messages) > 0 && session.Messages[0].Role == models.RoleSystem {
		if session.Messages[0].Content != e.systemPrompt {
			session.Messages[0] = &models.Message{Role: models.RoleSystem, Content: e.systemPrompt, Timestamp: time.Now()}
		}
		return
	}
	prompt := &models.Message{Role: models.RoleSystem, Content: e.systemPrompt, Timestamp: time.Now()}
	session.Messages = append([]*models.Message{prompt}, session.Messages...)
}

// initTurn implements spec §4.5, "Init": clear current_step_error, set
// PROCESSING, ensure the system prompt, reset the streaming buffer.
func (e *Engine) initTurn(session *models.SessionState, query string) *turnContext {
	session.CurrentStepError = nil
	session.LastInteractionStatus = models.StatusProcessing
	session.StreamingPlaceholderContent = ""
	session.IsStreaming = true
	e.ensureSystemPrompt(session)

	session.Messages = append(session.Messages, &models.Message{
		Role:      models.RoleUser,
		Content:   query,
		Timestamp: time.Now(),
	})

	return &turnContext{startedAt: time.Now(), query: query}
}
