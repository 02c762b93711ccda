package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/coreflux/agentturn/internal/history"
	"github.com/coreflux/agentturn/internal/streamproc"
	"github.com/coreflux/agentturn/internal/toolpipeline"
	"github.com/coreflux/agentturn/pkg/models"
)

// scriptedLLM replays a fixed sequence of chunks on every Stream call,
// ignoring the request. Good enough to drive one cycle deterministically.
type scriptedLLM struct {
	chunks []streamproc.Chunk
	err    error
	calls  int
}

func (s *scriptedLLM) Stream(ctx context.Context, req LLMRequest) <-chan streamproc.StreamItem {
	s.calls++
	out := make(chan streamproc.StreamItem, len(s.chunks)+1)
	for _, c := range s.chunks {
		c := c
		out <- streamproc.StreamItem{Chunk: &c}
	}
	if s.err != nil {
		out <- streamproc.StreamItem{Err: s.err}
	}
	close(out)
	return out
}

func textChunk(text string) streamproc.Chunk {
	return streamproc.Chunk{Parts: []streamproc.ChunkPart{{Text: text}}}
}

func toolCallChunk(id, name, argsJSON string) streamproc.Chunk {
	args, err := models.ParseArguments(argsJSON)
	if err != nil {
		args = map[string]any{}
	}
	return streamproc.Chunk{Parts: []streamproc.ChunkPart{{FunctionCall: &streamproc.FunctionCallPart{ID: id, Name: name, Args: args}}}}
}

type fakeWorkflowHandler struct {
	handleFn func(ctx context.Context, wf *models.WorkflowContext, session *models.SessionState) error
	calls    int
}

func (f *fakeWorkflowHandler) Handle(ctx context.Context, wf *models.WorkflowContext, session *models.SessionState) error {
	f.calls++
	if f.handleFn != nil {
		return f.handleFn(ctx, wf, session)
	}
	session.LastInteractionStatus = models.StatusWaitingUserInput
	return nil
}

type fakeToolExecutor struct {
	result any
	err    error
}

func (f *fakeToolExecutor) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	return f.result, f.err
}

func newTestEngine(llm LLMProvider, workflow WorkflowHandler, lookup toolpipeline.ExecutorLookup) *Engine {
	if lookup == nil {
		lookup = func(string) toolpipeline.Executor { return nil }
	}
	return New(
		Default(),
		nil,
		history.New(history.Default()),
		toolpipeline.New(toolpipeline.Default(), map[string]models.ToolDefinition{}, lookup, nil),
		streamproc.New(),
		llm,
		workflow,
		nil,
		"you are a test assistant",
	)
}

func collectEvents(sink *[]*models.UIEvent) Sink {
	return func(ev *models.UIEvent) { *sink = append(*sink, ev) }
}

func TestRunTurnTextOnlyCompletesOK(t *testing.T) {
	llm := &scriptedLLM{chunks: []streamproc.Chunk{textChunk("hi there")}}
	e := newTestEngine(llm, nil, nil)
	session := models.NewSessionState(&models.User{ID: "u1"})

	var events []*models.UIEvent
	e.RunTurn(context.Background(), session, "hello world", collectEvents(&events))

	if session.LastInteractionStatus != models.StatusCompletedOK {
		t.Fatalf("expected COMPLETED_OK, got %s", session.LastInteractionStatus)
	}
	if session.IsStreaming {
		t.Fatalf("expected IsStreaming cleared after finalize")
	}
	last := events[len(events)-1]
	if last.Type != models.EventCompleted {
		t.Fatalf("expected a terminal completed event, got %s", last.Type)
	}
}

func TestRunTurnNoProviderConfigured(t *testing.T) {
	e := newTestEngine(nil, nil, nil)
	session := models.NewSessionState(nil)

	var events []*models.UIEvent
	e.RunTurn(context.Background(), session, "hi", collectEvents(&events))

	if session.LastInteractionStatus != models.StatusLLMFailure {
		t.Fatalf("expected LLM_FAILURE, got %s", session.LastInteractionStatus)
	}
}

func TestRunTurnEmptyLLMResponse(t *testing.T) {
	llm := &scriptedLLM{} // no chunks at all
	e := newTestEngine(llm, nil, nil)
	session := models.NewSessionState(nil)

	var events []*models.UIEvent
	e.RunTurn(context.Background(), session, "hello", collectEvents(&events))

	if session.LastInteractionStatus != models.StatusCompletedEmpty {
		t.Fatalf("expected COMPLETED_EMPTY, got %s", session.LastInteractionStatus)
	}
}

func TestRunTurnToolCallThenText(t *testing.T) {
	def := models.ToolDefinition{Name: "current_time"}
	lookup := func(string) toolpipeline.Executor { return &fakeToolExecutor{result: map[string]any{"now": "2026-07-30"}} }
	pipeline := toolpipeline.New(toolpipeline.Default(), map[string]models.ToolDefinition{def.Name: def}, lookup, nil)

	llm := &scriptedLLM{}
	e := &Engine{
		cfg:          sanitize(Default()),
		history:      history.New(history.Default()),
		pipeline:     pipeline,
		stream:       streamproc.New(),
		llm:          llm,
		catalog:      []models.ToolDefinition{def},
		systemPrompt: "test",
	}

	// cycle 0: model asks for a tool call; cycle 1: model answers with text.
	callSeq := [][]streamproc.Chunk{
		{toolCallChunk("call1", "current_time", `{}`)},
		{textChunk("it is now 2026-07-30")},
	}
	cycle := 0
	e.llm = &sequencedLLM{seqs: callSeq, idx: &cycle}

	session := models.NewSessionState(nil)
	var events []*models.UIEvent
	e.RunTurn(context.Background(), session, "what time is it", collectEvents(&events))

	if session.LastInteractionStatus != models.StatusCompletedOK {
		t.Fatalf("expected COMPLETED_OK after tool cycle, got %s", session.LastInteractionStatus)
	}
	var sawToolResults bool
	for _, ev := range events {
		if ev.Type == models.EventToolResults {
			sawToolResults = true
		}
	}
	if !sawToolResults {
		t.Fatalf("expected a tool_results event to have been emitted")
	}
}

// sequencedLLM returns the next chunk sequence in seqs on each Stream call,
// holding on the last once exhausted.
type sequencedLLM struct {
	seqs [][]streamproc.Chunk
	idx  *int
}

func (s *sequencedLLM) Stream(ctx context.Context, req LLMRequest) <-chan streamproc.StreamItem {
	i := *s.idx
	if i >= len(s.seqs) {
		i = len(s.seqs) - 1
	}
	chunks := s.seqs[i]
	*s.idx++

	out := make(chan streamproc.StreamItem, len(chunks))
	for _, c := range chunks {
		c := c
		out <- streamproc.StreamItem{Chunk: &c}
	}
	close(out)
	return out
}

func TestRunTurnMaxCyclesReached(t *testing.T) {
	def := models.ToolDefinition{Name: "current_time"}
	lookup := func(string) toolpipeline.Executor { return &fakeToolExecutor{result: map[string]any{"now": "x"}} }
	pipeline := toolpipeline.New(toolpipeline.Default(), map[string]models.ToolDefinition{def.Name: def}, lookup, nil)

	cfg := Default()
	cfg.MaxToolCyclesOuter = 2
	llm := &scriptedLLM{chunks: []streamproc.Chunk{toolCallChunk("c", "current_time", `{}`)}}
	e := &Engine{
		cfg:          sanitize(cfg),
		history:      history.New(history.Default()),
		pipeline:     pipeline,
		stream:       streamproc.New(),
		llm:          llm,
		catalog:      []models.ToolDefinition{def},
		systemPrompt: "test",
	}

	session := models.NewSessionState(nil)
	var events []*models.UIEvent
	e.RunTurn(context.Background(), session, "loop forever", collectEvents(&events))

	if session.LastInteractionStatus != models.StatusMaxCallsReached {
		t.Fatalf("expected MAX_CALLS_REACHED, got %s", session.LastInteractionStatus)
	}
	if llm.calls != cfg.MaxToolCyclesOuter {
		t.Fatalf("expected %d LLM calls, got %d", cfg.MaxToolCyclesOuter, llm.calls)
	}
}

func TestRunTurnStreamErrorSetsLLMFailure(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("connection reset")}
	e := newTestEngine(llm, nil, nil)
	session := models.NewSessionState(nil)

	var events []*models.UIEvent
	e.RunTurn(context.Background(), session, "hello", collectEvents(&events))

	if session.LastInteractionStatus != models.StatusLLMFailure {
		t.Fatalf("expected LLM_FAILURE, got %s", session.LastInteractionStatus)
	}
}

func TestRunTurnStreamErrorTriggersHistoryReset(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("role-alternation error: tool must follow model")}
	e := newTestEngine(llm, nil, nil)
	session := models.NewSessionState(nil)

	var events []*models.UIEvent
	e.RunTurn(context.Background(), session, "hello", collectEvents(&events))

	if session.LastInteractionStatus != models.StatusHistoryResetRequired {
		t.Fatalf("expected HISTORY_RESET_REQUIRED, got %s", session.LastInteractionStatus)
	}
	// Reset() keeps only non-internal system messages plus the appended
	// explanation; this engine carries a system prompt, so that's the
	// system message followed by the reset explanation.
	if len(session.Messages) != 2 ||
		session.Messages[0].Role != models.RoleSystem ||
		session.Messages[1].Role != models.RoleAssistant {
		t.Fatalf("expected history purged to [system prompt, reset explanation], got %#v", session.Messages)
	}
}

func TestRunTurnResolvesPendingToolCallsFirst(t *testing.T) {
	def := models.ToolDefinition{Name: "current_time"}
	lookup := func(string) toolpipeline.Executor { return &fakeToolExecutor{result: "now"} }
	pipeline := toolpipeline.New(toolpipeline.Default(), map[string]models.ToolDefinition{def.Name: def}, lookup, nil)

	llm := &scriptedLLM{chunks: []streamproc.Chunk{textChunk("done")}}
	e := &Engine{
		cfg:          sanitize(Default()),
		history:      history.New(history.Default()),
		pipeline:     pipeline,
		stream:       streamproc.New(),
		llm:          llm,
		catalog:      []models.ToolDefinition{def},
		systemPrompt: "test",
	}

	session := models.NewSessionState(nil)
	session.Messages = append(session.Messages, &models.Message{
		Role: models.RoleAssistant,
		ToolCalls: []models.ToolCallRequest{
			{ID: "pending1", Name: "current_time", Arguments: `{}`},
		},
	})

	var events []*models.UIEvent
	e.RunTurn(context.Background(), session, "continue", collectEvents(&events))

	var sawResolvingStatus bool
	for _, ev := range events {
		if ev.Type == models.EventStatus {
			if s, ok := ev.Content.(string); ok && s == "resolving pending tool calls from the previous turn" {
				sawResolvingStatus = true
			}
		}
	}
	if !sawResolvingStatus {
		t.Fatalf("expected ResolvePending to run before the new LLM call")
	}
}

func TestRunTurnPanicRecoveredAsUnexpectedError(t *testing.T) {
	e := newTestEngine(&panickingLLM{}, nil, nil)
	session := models.NewSessionState(nil)

	var events []*models.UIEvent
	e.RunTurn(context.Background(), session, "hello", collectEvents(&events))

	if session.LastInteractionStatus != models.StatusUnexpectedAgentError {
		t.Fatalf("expected UNEXPECTED_AGENT_ERROR, got %s", session.LastInteractionStatus)
	}
	if session.CurrentStepError == nil {
		t.Fatalf("expected CurrentStepError to be set")
	}
	var ue *unexpectedError
	if !errors.As(session.CurrentStepError, &ue) {
		t.Fatalf("expected CurrentStepError to unwrap to *unexpectedError, got %T", session.CurrentStepError)
	}
}

type panickingLLM struct{}

func (panickingLLM) Stream(ctx context.Context, req LLMRequest) <-chan streamproc.StreamItem {
	panic("transport exploded")
}

func TestRunTurnWorkflowDelegation(t *testing.T) {
	wf := &fakeWorkflowHandler{}
	e := newTestEngine(nil, wf, nil)
	e.cfg.WorkflowType = "story_builder"

	session := models.NewSessionState(nil)
	session.ActiveWorkflows["wf1"] = &models.WorkflowContext{ID: "wf1", Type: "story_builder", Status: models.WorkflowActive}

	var events []*models.UIEvent
	e.RunTurn(context.Background(), session, "continue the story", collectEvents(&events))

	if wf.calls != 1 {
		t.Fatalf("expected the workflow handler to run once, got %d", wf.calls)
	}
	if session.LastInteractionStatus != models.StatusWaitingUserInput {
		t.Fatalf("expected WAITING_USER_INPUT, got %s", session.LastInteractionStatus)
	}
}

func TestRunTurnWorkflowHandlerError(t *testing.T) {
	wf := &fakeWorkflowHandler{handleFn: func(ctx context.Context, wf *models.WorkflowContext, session *models.SessionState) error {
		return errors.New("boom")
	}}
	e := newTestEngine(nil, wf, nil)

	session := models.NewSessionState(nil)
	session.ActiveWorkflows["wf1"] = &models.WorkflowContext{ID: "wf1", Type: "story_builder", Status: models.WorkflowActive}

	var events []*models.UIEvent
	e.RunTurn(context.Background(), session, "continue", collectEvents(&events))

	if session.LastInteractionStatus != models.StatusWorkflowUnexpectedErr {
		t.Fatalf("expected WORKFLOW_UNEXPECTED_ERROR, got %s", session.LastInteractionStatus)
	}
}
