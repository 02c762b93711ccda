package transport

import (
	"testing"

	"github.com/coreflux/agentturn/internal/history"
	"github.com/coreflux/agentturn/pkg/models"
)

func TestParseToolInput(t *testing.T) {
	if got := parseToolInput(""); len(got) != 0 {
		t.Fatalf("expected empty map for blank input, got %#v", got)
	}
	if got := parseToolInput("not json"); len(got) != 0 {
		t.Fatalf("expected empty map for malformed input, got %#v", got)
	}
	got := parseToolInput(`{"org":"coreflux","limit":5}`)
	if got["org"] != "coreflux" {
		t.Fatalf("expected org=coreflux, got %#v", got)
	}
}

func TestResponseIsError(t *testing.T) {
	tests := []struct {
		name     string
		response map[string]any
		want     bool
	}{
		{"no error field", map[string]any{"ok": true}, false},
		{"error true", map[string]any{"error": true}, true},
		{"error false", map[string]any{"error": false}, false},
		{"error string present", map[string]any{"error": "boom"}, true},
		{"error nil", map[string]any{"error": nil}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := responseIsError(tt.response); got != tt.want {
				t.Fatalf("responseIsError(%#v) = %v, want %v", tt.response, got, tt.want)
			}
		})
	}
}

func TestConvertHistoryToAnthropic(t *testing.T) {
	in := []history.ProviderMessage{
		{Role: history.ProviderUser, Text: "what's in the repo?"},
		{Role: history.ProviderModel, FunctionCalls: []history.FunctionCall{{ID: "call1", Name: "repo_list", Args: map[string]any{"org": "coreflux"}}}},
		{Role: history.ProviderTool, FunctionResponses: []history.FunctionResponse{{ID: "call1", Name: "repo_list", Response: map[string]any{"repos": []any{"infra"}}}}},
	}

	out, err := convertHistoryToAnthropic(in)
	if err != nil {
		t.Fatalf("convertHistoryToAnthropic() error = %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 converted messages, got %d", len(out))
	}
}

func TestConvertHistoryToAnthropicSkipsEmptyMessages(t *testing.T) {
	in := []history.ProviderMessage{
		{Role: history.ProviderModel}, // no text, no calls: nothing to carry
	}
	out, err := convertHistoryToAnthropic(in)
	if err != nil {
		t.Fatalf("convertHistoryToAnthropic() error = %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty messages to be dropped, got %d", len(out))
	}
}

func TestConvertToolsToAnthropic(t *testing.T) {
	tools := []models.ToolDefinition{
		{
			Name:        "repo_list",
			Description: "list repos",
			Parameters: models.ToolSchema{
				Properties: map[string]models.ParamSpec{"org": {Type: models.ParamString}},
				Required:   []string{"org"},
			},
		},
	}
	out := convertToolsToAnthropic(tools)
	if len(out) != 1 {
		t.Fatalf("expected 1 converted tool, got %d", len(out))
	}
}

func TestSchemaPropertiesToAny(t *testing.T) {
	schema := models.ToolSchema{
		Properties: map[string]models.ParamSpec{"org": {Type: models.ParamString}},
		Required:   []string{"org"},
	}
	out, ok := schemaPropertiesToAny(schema).(map[string]any)
	if !ok {
		t.Fatalf("expected a map[string]any, got %T", schemaPropertiesToAny(schema))
	}
	if out["type"] != "object" {
		t.Fatalf("expected type=object, got %#v", out["type"])
	}
	props, ok := out["properties"].(map[string]any)
	if !ok || len(props) != 1 {
		t.Fatalf("expected one property carried through, got %#v", out["properties"])
	}
}

func TestAnthropicConfigSanitized(t *testing.T) {
	cfg := AnthropicConfig{}.sanitized()
	if cfg.DefaultModel == "" || cfg.MaxTokens <= 0 || cfg.MaxRetries <= 0 || cfg.RetryDelay <= 0 {
		t.Fatalf("expected every zero-valued field to receive a default, got %#v", cfg)
	}

	custom := AnthropicConfig{DefaultModel: "claude-x", MaxTokens: 10}.sanitized()
	if custom.DefaultModel != "claude-x" || custom.MaxTokens != 10 {
		t.Fatalf("expected explicit fields to survive sanitization, got %#v", custom)
	}
}
