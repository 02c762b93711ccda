package transport

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/coreflux/agentturn/internal/engine"
	"github.com/coreflux/agentturn/internal/history"
	"github.com/coreflux/agentturn/internal/streamproc"
	"github.com/coreflux/agentturn/pkg/models"
)

// AnthropicConfig configures an AnthropicProvider.
type AnthropicConfig struct {
	APIKey       string
	DefaultModel string
	MaxTokens    int
	MaxRetries   int
	RetryDelay   time.Duration
}

func (c AnthropicConfig) sanitized() AnthropicConfig {
	if c.DefaultModel == "" {
		c.DefaultModel = "claude-sonnet-4-20250514"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 4096
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	return c
}

// AnthropicProvider implements engine.LLMProvider against Claude's
// streaming Messages API (spec §6, "LLM transport interface").
type AnthropicProvider struct {
	client anthropic.Client
	cfg    AnthropicConfig
}

var _ engine.LLMProvider = (*AnthropicProvider)(nil)

// NewAnthropicProvider builds a provider from an API key and config.
func NewAnthropicProvider(cfg AnthropicConfig) *AnthropicProvider {
	cfg = cfg.sanitized()
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:    cfg,
	}
}

// Stream implements engine.LLMProvider. It retries the initial request
// establishment with exponential backoff, then relays one StreamItem per
// SSE event onto the returned channel.
func (p *AnthropicProvider) Stream(ctx context.Context, req engine.LLMRequest) <-chan streamproc.StreamItem {
	out := make(chan streamproc.StreamItem)

	go func() {
		defer close(out)

		params, err := p.buildParams(req)
		if err != nil {
			out <- streamproc.StreamItem{Err: NewProviderError("anthropic", p.cfg.DefaultModel, err)}
			return
		}

		stream, err := p.openStreamWithRetry(ctx, params)
		if err != nil {
			out <- streamproc.StreamItem{Err: err}
			return
		}

		p.relay(stream, out)
	}()

	return out
}

func (p *AnthropicProvider) openStreamWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropicRawStream, error) {
	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		stream := p.client.Messages.NewStreaming(ctx, params)
		if stream.Err() == nil {
			return &anthropicRawStream{stream: stream}, nil
		}
		lastErr = stream.Err()
		providerErr := NewProviderError("anthropic", string(params.Model), lastErr)
		if !providerErr.Reason.IsRetryable() || attempt == p.cfg.MaxRetries {
			return nil, providerErr
		}
		backoff := time.Duration(float64(p.cfg.RetryDelay) * math.Pow(2, float64(attempt)))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, NewProviderError("anthropic", string(params.Model), lastErr)
}

// anthropicRawStream narrows the SDK's ssestream type down to what relay needs.
type anthropicRawStream struct {
	stream interface {
		Next() bool
		Current() anthropic.MessageStreamEventUnion
		Err() error
	}
}

// relay converts SSE events into streamproc.StreamItem, accumulating
// tool-use input JSON per content block the way the teacher's
// processStream did, but emitting complete (not fragment-by-fragment)
// FunctionCallPart values once a block closes.
func (p *AnthropicProvider) relay(s *anthropicRawStream, out chan<- streamproc.StreamItem) {
	var toolName, toolID string
	var toolInput strings.Builder
	inToolUse := false

	for s.stream.Next() {
		event := s.stream.Current()

		switch event.Type {
		case "content_block_start":
			block := event.AsContentBlockStart().ContentBlock
			if block.Type == "tool_use" {
				use := block.AsToolUse()
				toolName, toolID = use.Name, use.ID
				toolInput.Reset()
				inToolUse = true
			}

		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" {
					out <- streamproc.StreamItem{Chunk: &streamproc.Chunk{Parts: []streamproc.ChunkPart{{Text: delta.Text}}}}
				}
			case "input_json_delta":
				toolInput.WriteString(delta.PartialJSON)
			}

		case "content_block_stop":
			if inToolUse {
				args := parseToolInput(toolInput.String())
				out <- streamproc.StreamItem{Chunk: &streamproc.Chunk{Parts: []streamproc.ChunkPart{{
					FunctionCall: &streamproc.FunctionCallPart{Name: toolName, ID: toolID, Args: args},
				}}}}
				inToolUse = false
			}

		case "message_delta":
			usage := event.AsMessageDelta().Usage
			if usage.OutputTokens > 0 {
				out <- streamproc.StreamItem{Chunk: &streamproc.Chunk{Parts: []streamproc.ChunkPart{{
					UsageMetadata: &streamproc.UsageMetadata{CandidateTokens: int(usage.OutputTokens)},
				}}}}
			}

		case "message_stop":
			return
		}
	}

	if err := s.stream.Err(); err != nil {
		out <- streamproc.StreamItem{Err: NewProviderError("anthropic", "", err)}
	}
}

func parseToolInput(raw string) map[string]any {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return map[string]any{}
	}
	return m
}

// buildParams converts an engine.LLMRequest into Anthropic's request shape.
func (p *AnthropicProvider) buildParams(req engine.LLMRequest) (anthropic.MessageNewParams, error) {
	messages, err := convertHistoryToAnthropic(req.History)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.cfg.DefaultModel),
		Messages:  messages,
		MaxTokens: int64(p.cfg.MaxTokens),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if len(req.Tools) > 0 {
		params.Tools = convertToolsToAnthropic(req.Tools)
	}
	return params, nil
}

func convertHistoryToAnthropic(providerMessages []history.ProviderMessage) ([]anthropic.MessageParam, error) {
	var result []anthropic.MessageParam
	for _, msg := range providerMessages {
		var content []anthropic.ContentBlockParamUnion
		if msg.Text != "" {
			content = append(content, anthropic.NewTextBlock(msg.Text))
		}
		for _, fc := range msg.FunctionCalls {
			content = append(content, anthropic.NewToolUseBlock(fc.ID, fc.Args, fc.Name))
		}
		for _, fr := range msg.FunctionResponses {
			body, err := json.Marshal(fr.Response)
			if err != nil {
				return nil, err
			}
			content = append(content, anthropic.NewToolResultBlock(fr.ID, string(body), responseIsError(fr.Response)))
		}
		if len(content) == 0 {
			continue
		}
		if msg.Role == history.ProviderModel {
			result = append(result, anthropic.NewAssistantMessage(content...))
		} else {
			result = append(result, anthropic.NewUserMessage(content...))
		}
	}
	return result, nil
}

func responseIsError(response map[string]any) bool {
	v, ok := response["error"]
	if !ok {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return v != nil
}

func convertToolsToAnthropic(tools []models.ToolDefinition) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := anthropic.ToolInputSchemaParam{
			Properties: schemaPropertiesToAny(t.Parameters),
		}
		result = append(result, anthropic.ToolUnionParamOfTool(schema, t.Name))
	}
	return result
}

func schemaPropertiesToAny(schema models.ToolSchema) any {
	props := make(map[string]any, len(schema.Properties))
	for name, p := range schema.Properties {
		props[name] = p
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   schema.Required,
	}
}
