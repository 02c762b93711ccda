package toolpipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/coreflux/agentturn/pkg/models"
)

type fakeExecutor struct {
	result any
	err    error
	calls  int
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	f.calls++
	return f.result, f.err
}

func catalogFor(defs ...models.ToolDefinition) map[string]models.ToolDefinition {
	m := make(map[string]models.ToolDefinition)
	for _, d := range defs {
		m[d.Name] = d
	}
	return m
}

func TestPipelineExecuteSuccess(t *testing.T) {
	def := models.ToolDefinition{
		Name: "repo_list",
		Parameters: models.ToolSchema{
			Properties: map[string]models.ParamSpec{"org": {Type: models.ParamString}},
		},
	}
	exec := &fakeExecutor{result: map[string]any{"name": "infra-repo"}}
	p := New(Default(), catalogFor(def), func(string) Executor { return exec }, nil)

	session := models.NewSessionState(&models.User{ID: "u1", Email: "u1@example.com"})
	result := p.Execute(context.Background(), []models.ToolCallRequest{
		{ID: "call1", Name: "repo_list", Arguments: `{"org":"coreflux"}`},
	}, session)

	if result.Critical {
		t.Fatalf("unexpected critical result")
	}
	if len(result.ToolMessages) != 1 || result.ToolMessages[0].IsError {
		t.Fatalf("expected one successful tool message, got %#v", result.ToolMessages)
	}
	if exec.calls != 1 {
		t.Fatalf("expected executor called once, got %d", exec.calls)
	}
	if len(session.Scratchpad) != 1 || session.Scratchpad[0].Summary != "infra-repo" {
		t.Fatalf("expected scratchpad summary from name key, got %#v", session.Scratchpad)
	}
	if session.SessionStats.ToolCalls != 1 {
		t.Fatalf("expected tool_calls stat incremented")
	}
}

func TestPipelineExecuteMalformedCall(t *testing.T) {
	p := New(Default(), catalogFor(), func(string) Executor { return nil }, nil)
	session := models.NewSessionState(nil)
	result := p.Execute(context.Background(), []models.ToolCallRequest{{ID: "call1", Name: ""}}, session)

	if len(result.ToolMessages) != 1 || !result.ToolMessages[0].IsError {
		t.Fatalf("expected malformed-call error tool message")
	}
}

func TestPipelineExecuteExecutorConfigurationError(t *testing.T) {
	def := models.ToolDefinition{Name: "unbacked_tool"}
	p := New(Default(), catalogFor(def), func(string) Executor { return nil }, nil)
	session := models.NewSessionState(nil)
	result := p.Execute(context.Background(), []models.ToolCallRequest{{ID: "call1", Name: "unbacked_tool"}}, session)

	if len(result.ToolMessages) != 1 || !result.ToolMessages[0].IsError {
		t.Fatalf("expected executor-configuration error tool message")
	}
}

func TestPipelineExecutePermissionDenied(t *testing.T) {
	def := models.ToolDefinition{Name: "user_issues", Metadata: models.ToolMetadata{RequiredPermissionName: "JIRA_READ"}}
	exec := &fakeExecutor{err: &PermissionDeniedError{ToolName: "user_issues", Message: "No JIRA_READ"}}
	p := New(Default(), catalogFor(def), func(string) Executor { return exec }, nil)

	session := models.NewSessionState(&models.User{ID: "u1"})
	result := p.Execute(context.Background(), []models.ToolCallRequest{
		{ID: "call1", Name: "user_issues", Arguments: `{}`},
	}, session)

	if len(result.ToolMessages) != 1 || !result.ToolMessages[0].IsError {
		t.Fatalf("expected permission-denied error tool message")
	}
	if len(session.Messages) != 1 {
		t.Fatalf("expected apology assistant message appended, got %d messages", len(session.Messages))
	}
	if exec.calls != 1 {
		t.Fatalf("permission denial should never retry, got %d calls", exec.calls)
	}
}

func TestPipelineExecuteTransientRetryExhausted(t *testing.T) {
	def := models.ToolDefinition{Name: "flaky_tool"}
	exec := &fakeExecutor{err: errors.New("boom")}
	cfg := Default()
	cfg.RetryInitialDelay = 0
	cfg.MaxRetryDelay = 0
	cfg.BreakOnCriticalToolError = true
	p := New(cfg, catalogFor(def), func(string) Executor { return exec }, nil)

	session := models.NewSessionState(nil)
	result := p.Execute(context.Background(), []models.ToolCallRequest{
		{ID: "call1", Name: "flaky_tool"},
	}, session)

	if exec.calls != cfg.MaxExecutionRetries {
		t.Fatalf("expected %d attempts, got %d", cfg.MaxExecutionRetries, exec.calls)
	}
	if !result.Critical {
		t.Fatalf("expected exhausted retries to be critical when configured")
	}
}

func TestPipelineExecuteUserIssuesEmailInjection(t *testing.T) {
	def := models.ToolDefinition{Name: "user_issues"}
	var captured map[string]any
	exec := &fakeExecutorCapture{onExecute: func(args map[string]any) { captured = args }}
	p := New(Default(), catalogFor(def), func(string) Executor { return exec }, nil)

	session := models.NewSessionState(&models.User{ID: "u1", Email: "u1@example.com"})
	p.Execute(context.Background(), []models.ToolCallRequest{
		{ID: "call1", Name: "user_issues", Arguments: `{}`},
	}, session)

	if captured["user_email"] != "u1@example.com" {
		t.Fatalf("expected user_email injected, got %#v", captured)
	}
}

type fakeExecutorCapture struct {
	onExecute func(args map[string]any)
}

func (f *fakeExecutorCapture) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	f.onExecute(args)
	return map[string]any{"status": "ok"}, nil
}
