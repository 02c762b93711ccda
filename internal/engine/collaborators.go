package engine

import (
	"context"

	"github.com/coreflux/agentturn/internal/history"
	"github.com/coreflux/agentturn/internal/streamproc"
	"github.com/coreflux/agentturn/pkg/models"
)

// LLMRequest is what the engine hands the transport for one cycle's call.
type LLMRequest struct {
	SystemPrompt string
	History      []history.ProviderMessage
	Tools        []models.ToolDefinition
}

// LLMProvider is the external streaming transport (concrete bindings for
// Anthropic/OpenAI/etc. live outside this package; see
// SPEC_FULL.md §3).
type LLMProvider interface {
	Stream(ctx context.Context, req LLMRequest) <-chan streamproc.StreamItem
}

// WorkflowHandler runs a delegated workflow turn, mutating session in
// place (spec §4.5, "Workflow"; SPEC_FULL §4 item 5). It is responsible
// for setting session.LastInteractionStatus to one of the WORKFLOW_* or
// WAITING_USER_INPUT statuses before returning.
type WorkflowHandler interface {
	Handle(ctx context.Context, wf *models.WorkflowContext, session *models.SessionState) error
}

// Sink receives the UI event stream for one turn (spec §3, "UI event
// stream").
type Sink func(*models.UIEvent)
