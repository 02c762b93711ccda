package transport

import (
	"encoding/json"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/coreflux/agentturn/internal/history"
	"github.com/coreflux/agentturn/pkg/models"
)

func TestConvertHistoryToOpenAIIncludesSystemPrompt(t *testing.T) {
	out := convertHistoryToOpenAI("be concise", nil)
	if len(out) != 1 || out[0].Role != openai.ChatMessageRoleSystem || out[0].Content != "be concise" {
		t.Fatalf("expected a lone system message, got %#v", out)
	}
}

func TestConvertHistoryToOpenAIRoles(t *testing.T) {
	in := []history.ProviderMessage{
		{Role: history.ProviderUser, Text: "hi"},
		{Role: history.ProviderModel, Text: "calling a tool", FunctionCalls: []history.FunctionCall{
			{ID: "call1", Name: "current_time", Args: map[string]any{}},
		}},
		{Role: history.ProviderTool, FunctionResponses: []history.FunctionResponse{
			{ID: "call1", Name: "current_time", Response: map[string]any{"now": "2026-07-30"}},
		}},
	}

	out := convertHistoryToOpenAI("", in)
	if len(out) != 3 {
		t.Fatalf("expected 3 converted messages, got %d", len(out))
	}
	if out[0].Role != openai.ChatMessageRoleUser {
		t.Fatalf("expected first message role user, got %s", out[0].Role)
	}
	if out[1].Role != openai.ChatMessageRoleAssistant || len(out[1].ToolCalls) != 1 {
		t.Fatalf("expected assistant message with one tool call, got %#v", out[1])
	}
	if out[1].ToolCalls[0].Function.Name != "current_time" {
		t.Fatalf("expected tool call name current_time, got %s", out[1].ToolCalls[0].Function.Name)
	}
	if out[2].Role != openai.ChatMessageRoleTool || out[2].ToolCallID != "call1" {
		t.Fatalf("expected tool response message tied to call1, got %#v", out[2])
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(out[2].Content), &body); err != nil {
		t.Fatalf("expected tool response content to be valid JSON, got %q", out[2].Content)
	}
	if body["now"] != "2026-07-30" {
		t.Fatalf("expected tool response body to carry the response map, got %#v", body)
	}
}

func TestConvertToolsToOpenAI(t *testing.T) {
	tools := []models.ToolDefinition{
		{Name: "echo", Description: "echoes input", Parameters: models.ToolSchema{
			Properties: map[string]models.ParamSpec{"text": {Type: models.ParamString}},
		}},
	}
	out := convertToolsToOpenAI(tools)
	if len(out) != 1 || out[0].Function.Name != "echo" {
		t.Fatalf("expected one converted tool named echo, got %#v", out)
	}
	if out[0].Type != openai.ToolTypeFunction {
		t.Fatalf("expected tool type function, got %s", out[0].Type)
	}
}

func TestOpenAIConfigSanitized(t *testing.T) {
	cfg := OpenAIConfig{}.sanitized()
	if cfg.DefaultModel == "" || cfg.MaxRetries <= 0 || cfg.RetryDelay <= 0 {
		t.Fatalf("expected every zero-valued field to receive a default, got %#v", cfg)
	}

	custom := OpenAIConfig{DefaultModel: "gpt-x"}.sanitized()
	if custom.DefaultModel != "gpt-x" {
		t.Fatalf("expected explicit model to survive sanitization, got %#v", custom)
	}
}
