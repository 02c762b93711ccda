package history

import (
	"testing"

	"github.com/coreflux/agentturn/pkg/models"
)

func TestPrepareFiltersPlainSystemMessages(t *testing.T) {
	p := New(nil)
	messages := []*models.Message{
		{Role: models.RoleSystem, Content: "you are a helpful assistant"},
		{Role: models.RoleUser, Content: "hi"},
	}
	out, _ := p.Prepare(messages, 0, nil)
	for _, m := range out {
		if m.Role == ProviderModel && m.Text == "you are a helpful assistant" {
			t.Fatalf("plain system message should have been dropped")
		}
	}
}

func TestPrepareKeepsWorkflowStageSystemMessage(t *testing.T) {
	p := New(nil)
	messages := []*models.Message{
		{Role: models.RoleSystem, IsInternal: true, MessageType: models.MessageTypeWorkflowStage, Content: "stage: drafting"},
		{Role: models.RoleUser, Content: "hi"},
	}
	out, _ := p.Prepare(messages, 0, nil)
	found := false
	for _, m := range out {
		if m.Role == ProviderModel && m.Text == "[WORKFLOW] stage: drafting" {
			found = true
		}
	}
	if !found {
		t.Fatalf("workflow-stage system message should be kept and tagged, got %#v", out)
	}
}

func TestPrepareUserWithoutModelGetsPlaceholder(t *testing.T) {
	p := New(nil)
	messages := []*models.Message{
		{Role: models.RoleUser, Content: "hello"},
		{Role: models.RoleUser, Content: "are you there"},
	}
	out, _ := p.Prepare(messages, 0, nil)
	if len(out) < 2 || out[1].Role != ProviderModel || !out[1].Placeholder {
		t.Fatalf("expected a placeholder model turn inserted after the first user message, got %#v", out)
	}
}

func TestPrepareUnresolvedFunctionCallGetsPlaceholderToolResult(t *testing.T) {
	p := New(nil)
	messages := []*models.Message{
		{Role: models.RoleUser, Content: "search repos"},
		{
			Role: models.RoleAssistant,
			ToolCalls: []models.ToolCallRequest{
				{ID: "call1", Name: "repo_search", Arguments: `{"q":"agent"}`},
			},
		},
	}
	out, warnings := p.Prepare(messages, 0, nil)

	foundPlaceholder := false
	for _, m := range out {
		if m.Role == ProviderTool && m.Placeholder {
			foundPlaceholder = true
		}
	}
	if !foundPlaceholder {
		t.Fatalf("expected placeholder tool result for unresolved call, got %#v", out)
	}
	if len(warnings) == 0 {
		t.Fatalf("expected a warning about trailing unresolved function calls")
	}
}

func TestPrepareToolMessageReconciliationMissingID(t *testing.T) {
	p := New(nil)
	messages := []*models.Message{
		{Role: models.RoleUser, Content: "search repos"},
		{
			Role: models.RoleAssistant,
			ToolCalls: []models.ToolCallRequest{
				{ID: "call1", Name: "repo_search", Arguments: `{}`},
			},
		},
		{Role: models.RoleTool, Content: `{"count": 3}`}, // ToolCallID missing, single expected call
	}
	out, _ := p.Prepare(messages, 0, nil)

	found := false
	for _, m := range out {
		if m.Role == ProviderTool && !m.Placeholder && len(m.FunctionResponses) == 1 && m.FunctionResponses[0].ID == "call1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the sole tool message to be inferred to the sole expected call, got %#v", out)
	}
}

func TestInjectScratchpadSkippedWhenContextSummaryExists(t *testing.T) {
	cfg := Default()
	messages := []*models.Message{
		{Role: models.RoleAssistant, IsInternal: true, MessageType: models.MessageTypeContextSummary, Content: "already here"},
	}
	scratchpad := []models.ScratchpadEntry{{ToolName: "x", Summary: "y"}}
	out := injectScratchpad(cfg, messages, scratchpad)
	if len(out) != 1 {
		t.Fatalf("expected no additional injection, got %#v", out)
	}
}

func TestOptimizeMessagesRespectsBudget(t *testing.T) {
	cfg := Default()
	cfg.MaxItems = 3
	cfg.MaxImportantInternal = 1

	var messages []*models.Message
	for i := 0; i < 10; i++ {
		messages = append(messages, &models.Message{Role: models.RoleUser, Content: "msg"})
	}
	out := optimizeMessages(cfg, messages)
	if len(out) > cfg.MaxItems {
		t.Fatalf("expected output within budget, got %d messages", len(out))
	}
}
