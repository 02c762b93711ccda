package engine

import (
	"time"

	"github.com/coreflux/agentturn/internal/history"
	"github.com/coreflux/agentturn/internal/selector"
	"github.com/coreflux/agentturn/internal/streamproc"
	"github.com/coreflux/agentturn/internal/toolpipeline"
	"github.com/coreflux/agentturn/pkg/models"
)

// Engine is the top-level turn driver of spec §4.5, wiring the other four
// components (selector, history, toolpipeline, streamproc) plus the
// external LLM transport and workflow handler.
type Engine struct {
	cfg          *Config
	selector     *selector.Selector
	history      *history.Preparer
	pipeline     *toolpipeline.Pipeline
	stream       *streamproc.Processor
	llm          LLMProvider
	workflow     WorkflowHandler
	catalog      []models.ToolDefinition
	systemPrompt string
}

// New constructs an Engine. Any of workflow/llm may be nil for a
// deployment that never delegates to a workflow or never calls a real
// provider (tests, for instance).
func New(
	cfg *Config,
	sel *selector.Selector,
	hist *history.Preparer,
	pipeline *toolpipeline.Pipeline,
	stream *streamproc.Processor,
	llm LLMProvider,
	workflow WorkflowHandler,
	catalog []models.ToolDefinition,
	systemPrompt string,
) *Engine {
	return &Engine{
		cfg:          sanitize(cfg),
		selector:     sel,
		history:      hist,
		pipeline:     pipeline,
		stream:       stream,
		llm:          llm,
		workflow:     workflow,
		catalog:      catalog,
		systemPrompt: systemPrompt,
	}
}

// turnContext carries the per-turn scratch state threaded through Init,
// ResolvePending, Workflow/General, and Finalize.
type turnContext struct {
	startedAt                          time.Time
	query                              string
	cycle                              int
	toolExecutedSuccessfullyPrevCycle  bool
	accumulatedText                    string
}
