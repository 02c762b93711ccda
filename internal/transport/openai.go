package transport

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/coreflux/agentturn/internal/engine"
	"github.com/coreflux/agentturn/internal/history"
	"github.com/coreflux/agentturn/internal/streamproc"
	"github.com/coreflux/agentturn/pkg/models"
)

// OpenAIConfig configures an OpenAIProvider.
type OpenAIConfig struct {
	APIKey       string
	DefaultModel string
	MaxTokens    int
	MaxRetries   int
	RetryDelay   time.Duration
}

func (c OpenAIConfig) sanitized() OpenAIConfig {
	if c.DefaultModel == "" {
		c.DefaultModel = "gpt-4o"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	return c
}

// OpenAIProvider implements engine.LLMProvider against the Chat
// Completions streaming API (spec §6, "LLM transport interface").
type OpenAIProvider struct {
	client *openai.Client
	cfg    OpenAIConfig
}

var _ engine.LLMProvider = (*OpenAIProvider)(nil)

// NewOpenAIProvider builds a provider from an API key and config.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	cfg = cfg.sanitized()
	return &OpenAIProvider{client: openai.NewClient(cfg.APIKey), cfg: cfg}
}

// Stream implements engine.LLMProvider.
func (p *OpenAIProvider) Stream(ctx context.Context, req engine.LLMRequest) <-chan streamproc.StreamItem {
	out := make(chan streamproc.StreamItem)

	go func() {
		defer close(out)

		chatReq := openai.ChatCompletionRequest{
			Model:    p.cfg.DefaultModel,
			Messages: convertHistoryToOpenAI(req.SystemPrompt, req.History),
			Stream:   true,
		}
		if p.cfg.MaxTokens > 0 {
			chatReq.MaxTokens = p.cfg.MaxTokens
		}
		if len(req.Tools) > 0 {
			chatReq.Tools = convertToolsToOpenAI(req.Tools)
		}

		stream, err := p.openStreamWithRetry(ctx, chatReq)
		if err != nil {
			out <- streamproc.StreamItem{Err: err}
			return
		}
		defer stream.Close()

		p.relay(ctx, stream, out)
	}()

	return out
}

func (p *OpenAIProvider) openStreamWithRetry(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error) {
	var lastErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.cfg.RetryDelay * time.Duration(attempt)):
			}
		}
		stream, err := p.client.CreateChatCompletionStream(ctx, req)
		if err == nil {
			return stream, nil
		}
		lastErr = err
		providerErr := NewProviderError("openai", req.Model, err)
		if !providerErr.Reason.IsRetryable() {
			return nil, providerErr
		}
	}
	return nil, NewProviderError("openai", req.Model, lastErr)
}

// relay drains the chunked stream, reassembling per-index tool-call
// argument fragments the way the teacher's processStream does, and
// emits one complete FunctionCallPart per tool call when the response
// signals finish_reason="tool_calls".
func (p *OpenAIProvider) relay(ctx context.Context, stream *openai.ChatCompletionStream, out chan<- streamproc.StreamItem) {
	type building struct {
		id, name string
		args     string
	}
	calls := make(map[int]*building)

	flush := func() {
		indices := make([]int, 0, len(calls))
		for idx := range calls {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		for _, idx := range indices {
			tc := calls[idx]
			if tc.id == "" || tc.name == "" {
				continue
			}
			out <- streamproc.StreamItem{Chunk: &streamproc.Chunk{Parts: []streamproc.ChunkPart{{
				FunctionCall: &streamproc.FunctionCallPart{Name: tc.name, ID: tc.id, Args: parseToolInput(tc.args)},
			}}}}
		}
		calls = make(map[int]*building)
	}

	for {
		select {
		case <-ctx.Done():
			out <- streamproc.StreamItem{Err: ctx.Err()}
			return
		default:
		}

		resp, err := stream.Recv()
		if err != nil {
			if err == io.EOF {
				flush()
				return
			}
			out <- streamproc.StreamItem{Err: NewProviderError("openai", "", err)}
			return
		}
		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]

		if choice.Delta.Content != "" {
			out <- streamproc.StreamItem{Chunk: &streamproc.Chunk{Parts: []streamproc.ChunkPart{{Text: choice.Delta.Content}}}}
		}

		for _, tc := range choice.Delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			if calls[idx] == nil {
				calls[idx] = &building{}
			}
			if tc.ID != "" {
				calls[idx].id = tc.ID
			}
			if tc.Function.Name != "" {
				calls[idx].name = tc.Function.Name
			}
			calls[idx].args += tc.Function.Arguments
		}

		if resp.Usage != nil {
			out <- streamproc.StreamItem{Chunk: &streamproc.Chunk{Parts: []streamproc.ChunkPart{{
				UsageMetadata: &streamproc.UsageMetadata{
					PromptTokens:    resp.Usage.PromptTokens,
					CandidateTokens: resp.Usage.CompletionTokens,
					TotalTokens:     resp.Usage.TotalTokens,
				},
			}}}}
		}

		if choice.FinishReason == openai.FinishReasonToolCalls {
			flush()
		}
	}
}

func convertHistoryToOpenAI(systemPrompt string, providerMessages []history.ProviderMessage) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(providerMessages)+1)
	if systemPrompt != "" {
		result = append(result, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}

	for _, msg := range providerMessages {
		switch msg.Role {
		case history.ProviderUser:
			result = append(result, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: msg.Text})

		case history.ProviderModel:
			oaiMsg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: msg.Text}
			for _, fc := range msg.FunctionCalls {
				args, _ := json.Marshal(fc.Args)
				oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
					ID:   fc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      fc.Name,
						Arguments: string(args),
					},
				})
			}
			result = append(result, oaiMsg)

		case history.ProviderTool:
			for _, fr := range msg.FunctionResponses {
				body, _ := json.Marshal(fr.Response)
				result = append(result, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    string(body),
					ToolCallID: fr.ID,
				})
			}
		}
	}
	return result
}

func convertToolsToOpenAI(tools []models.ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schemaPropertiesToAny(t.Parameters),
			},
		})
	}
	return result
}
