package engine

import (
	"context"
	"fmt"

	"github.com/coreflux/agentturn/internal/history"
	"github.com/coreflux/agentturn/internal/selector"
	"github.com/coreflux/agentturn/internal/streamproc"
	"github.com/coreflux/agentturn/pkg/models"
)

const noToolResponseNotice = "[LLM returned no response]"
const maxCyclesNotice = "I've reached the maximum number of processing steps for this request."
const fallbackToolPreamble = "Okay, I need to use some tools."

// runGeneral implements spec §4.5's "General loop": a bounded, cooperative
// LLM/tool cycle. Returns true once the turn is over (a terminal status
// has been set and completed/error events emitted).
func (e *Engine) runGeneral(ctx context.Context, session *models.SessionState, tc *turnContext, sink Sink) bool {
	for tc.cycle = 0; tc.cycle < e.cfg.MaxToolCyclesOuter; tc.cycle++ {
		isInitial := tc.cycle == 0
		provideTools := !tc.toolExecutedSuccessfullyPrevCycle
		if isInitial && isGreeting(e.cfg, tc.query) {
			provideTools = false
		}

		tools := e.shortlistTools(ctx, session, tc, provideTools, isInitial)

		providerHistory, warnings := e.history.Prepare(session.Messages, 0, session.Scratchpad)
		if historyIsCritical(providerHistory, session.Messages) {
			sink(models.NewErrorEvent("The conversation history could not be prepared for this request."))
			session.LastInteractionStatus = models.StatusCriticalHistoryError
			sink(models.NewCompletedEvent(session.LastInteractionStatus))
			return true
		}
		for _, w := range warnings {
			sink(models.NewStatusEvent("history: " + w))
		}

		sink(models.NewStatusEvent(fmt.Sprintf("thinking (cycle %d)", tc.cycle+1)))

		calls, streamErr, cycleOver := e.runOneCycle(ctx, session, tc, providerHistory, tools, sink)
		if cycleOver {
			return true
		}
		if streamErr {
			continue
		}

		if len(calls) == 0 {
			continue
		}

		if handled, turnOver := e.tryWorkflowTrigger(ctx, session, calls, tc.cycle, sink); handled {
			if turnOver {
				return true
			}
			tc.toolExecutedSuccessfullyPrevCycle = false
			continue
		}

		result := e.pipeline.Execute(ctx, calls, session)
		session.Messages = append(session.Messages, result.ToolMessages...)
		session.Messages = append(session.Messages, result.InternalMessages...)
		sink(models.NewToolResultsEvent(result.ToolMessages))

		if result.Critical {
			session.LastInteractionStatus = models.StatusToolError
			sink(models.NewCompletedEvent(session.LastInteractionStatus))
			return true
		}
		tc.toolExecutedSuccessfullyPrevCycle = !anyToolFailed(result.ToolMessages)
	}

	session.LastInteractionStatus = models.StatusMaxCallsReached
	note := maxCyclesNotice
	if tc.accumulatedText != "" {
		note = tc.accumulatedText + "\n\n" + maxCyclesNotice
	}
	session.Messages = append(session.Messages, models.NewAssistantMessage(note))
	sink(models.NewErrorEvent(maxCyclesNotice))
	sink(models.NewStatusEvent("max cycles reached"))
	sink(models.NewCompletedEvent(session.LastInteractionStatus))
	return true
}

// shortlistTools implements spec §4.5 step 2.
func (e *Engine) shortlistTools(ctx context.Context, session *models.SessionState, tc *turnContext, provideTools, isInitial bool) []models.ToolDefinition {
	if !provideTools || e.selector == nil {
		return nil
	}
	tools := e.selector.Select(ctx, selector.SelectInput{
		Query:   tc.query,
		User:    session.CurrentUser,
		Catalog: e.catalog,
	})
	if isInitial && hintsStoryCreation(e.cfg, tc.query) {
		tools = injectWorkflowTriggerSchema(tools, e.catalog, e.cfg.WorkflowTriggerTool)
	}
	return tools
}

func injectWorkflowTriggerSchema(tools, catalog []models.ToolDefinition, triggerName string) []models.ToolDefinition {
	for _, t := range tools {
		if t.Name == triggerName {
			return tools
		}
	}
	for _, t := range catalog {
		if t.Name == triggerName {
			return append(tools, t)
		}
	}
	return tools
}

// historyIsCritical treats an empty prepared sequence from non-empty
// input as the "critical sequence error" the spec gestures at without
// naming a concrete trigger (Open Question, resolved in DESIGN.md).
func historyIsCritical(prepared []history.ProviderMessage, original []*models.Message) bool {
	return len(prepared) == 0 && len(original) > 0
}

// runOneCycle invokes the LLM and drains the stream processor, implementing
// spec §4.5 steps 4-9 for a single cycle. Returns the tool calls collected
// (nil if none), whether a stream error occurred, and whether the turn is
// already finished.
func (e *Engine) runOneCycle(
	ctx context.Context,
	session *models.SessionState,
	tc *turnContext,
	providerHistory []history.ProviderMessage,
	tools []models.ToolDefinition,
	sink Sink,
) (calls []models.ToolCallRequest, streamErr, turnOver bool) {
	if e.llm == nil {
		session.LastInteractionStatus = models.StatusLLMFailure
		sink(models.NewErrorEvent("No language model transport is configured."))
		sink(models.NewCompletedEvent(session.LastInteractionStatus))
		return nil, true, true
	}

	stream := e.llm.Stream(ctx, LLMRequest{SystemPrompt: e.systemPrompt, History: providerHistory, Tools: tools})
	events := e.stream.Process(ctx, stream, session, recentToolMessages(session.Messages))

	var text string
	var sawFatal bool
	var debugErr string
	for ev := range events {
		switch ev.Type {
		case streamproc.EventTextDelta:
			text += ev.Text
			sink(&models.UIEvent{Type: models.EventTextChunk, Content: ev.Text})
		case streamproc.EventToolCalls:
			calls = ev.ToolCalls
		case streamproc.EventDebugInfo:
			if ev.Debug.Status == "fatal" {
				sawFatal = true
				debugErr = ev.Debug.Error
			}
		}
	}

	session.SessionStats.LLMCalls++
	tc.accumulatedText = text

	if sawFatal {
		if history.IsResetTrigger(debugErr, 0, false) {
			err := history.Reset(session, debugErr)
			panic(err)
		}
		session.LastInteractionStatus = models.StatusLLMFailure
		sink(models.NewStatusEvent("the language model call failed"))
		sink(models.NewErrorEvent("The language model is temporarily unavailable."))
		session.Messages = append(session.Messages, models.NewAssistantMessage(
			fmt.Sprintf("I ran into a problem contacting the language model (%s).", debugErr)))
		sink(models.NewCompletedEvent(session.LastInteractionStatus))
		return nil, true, true
	}

	if text == "" && len(calls) == 0 {
		session.LastInteractionStatus = models.StatusCompletedEmpty
		if tc.cycle == 0 {
			session.Messages = append(session.Messages, models.NewAssistantMessage(noToolResponseNotice))
		}
		sink(models.NewCompletedEvent(session.LastInteractionStatus))
		return nil, false, true
	}

	if len(calls) > 0 {
		assistantText := text
		if assistantText == "" {
			assistantText = fallbackToolPreamble
		}
		msg := models.NewAssistantMessage(assistantText)
		msg.ToolCalls = calls
		session.Messages = append(session.Messages, msg)
		sink(&models.UIEvent{Type: models.EventToolCalls, Content: calls})
		return calls, false, false
	}

	// Text only: finalize this cycle's reply.
	if lastAssistantText(session.Messages) != text {
		session.Messages = append(session.Messages, models.NewAssistantMessage(text))
	}
	if session.LastInteractionStatus != models.StatusToolError {
		session.LastInteractionStatus = models.StatusCompletedOK
	}
	sink(models.NewCompletedEvent(session.LastInteractionStatus))
	return nil, false, true
}

func lastAssistantText(messages []*models.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleAssistant {
			return messages[i].Content
		}
	}
	return ""
}

func anyToolFailed(messages []*models.Message) bool {
	for _, m := range messages {
		if m.Role == models.RoleTool && m.IsError {
			return true
		}
	}
	return false
}

func recentToolMessages(messages []*models.Message) []*models.Message {
	var out []*models.Message
	for _, m := range messages {
		if m.Role == models.RoleTool {
			out = append(out, m)
		}
	}
	return out
}
