package history

import (
	"encoding/json"
	"fmt"

	"github.com/coreflux/agentturn/pkg/models"
)

// internalRoleTags wraps an internal assistant message's content with the
// role tag a provider sees as ordinary text (spec §4.2 step 4).
var internalRoleTags = map[models.MessageType]string{
	models.MessageTypeThought:        "[THOUGHT]",
	models.MessageTypeReflection:     "[REFLECTION]",
	models.MessageTypePlan:           "[PLAN]",
	models.MessageTypeWorkflowStage:  "[WORKFLOW]",
	models.MessageTypeContextSummary: "===== MEMORY CONTEXT =====",
}

// expectedCall tracks a function call awaiting its tool response.
type expectedCall struct {
	id   string
	name string
}

// mapToProviderFormat converts filtered/budgeted/scratchpad-injected
// session messages into the provider's alternating sequence, reconciling
// tool messages against the calls a preceding model turn emitted (spec
// §4.2 steps 4-5).
func mapToProviderFormat(messages []*models.Message) ([]ProviderMessage, []string) {
	var out []ProviderMessage
	var warnings []string
	var expected []expectedCall

	for _, msg := range messages {
		switch msg.Role {
		case models.RoleUser:
			out = append(out, ProviderMessage{Role: ProviderUser, Text: msg.Content})

		case models.RoleAssistant, models.RoleSystem:
			pm := ProviderMessage{Role: ProviderModel, Text: renderAssistantText(msg)}
			for _, call := range msg.ToolCalls {
				args, err := models.ParseArguments(call.Arguments)
				if err != nil {
					args = map[string]any{"raw": call.Arguments}
				}
				pm.FunctionCalls = append(pm.FunctionCalls, FunctionCall{ID: call.ID, Name: call.Name, Args: args})
				expected = append(expected, expectedCall{id: call.ID, name: call.Name})
			}
			out = append(out, pm)

		case models.RoleTool:
			fr, ok, warning := reconcileToolMessage(msg, &expected)
			if warning != "" {
				warnings = append(warnings, warning)
			}
			if !ok {
				continue
			}
			out = append(out, ProviderMessage{Role: ProviderTool, FunctionResponses: []FunctionResponse{fr}})
		}
	}

	return out, warnings
}

func renderAssistantText(msg *models.Message) string {
	if !msg.IsInternal || msg.Content == "" {
		return msg.Content
	}
	tag, ok := internalRoleTags[msg.MessageType]
	if !ok {
		return msg.Content
	}
	return tag + " " + msg.Content
}

// reconcileToolMessage repairs a tool message's call id against the set of
// function calls the pipeline is still expecting a response for (spec
// §4.2 step 5).
func reconcileToolMessage(msg *models.Message, expected *[]expectedCall) (FunctionResponse, bool, string) {
	id := msg.ToolCallID
	name := msg.Name

	if id == "" && len(*expected) == 1 {
		id = (*expected)[0].id
		name = (*expected)[0].name
	}

	idx := -1
	for i, e := range *expected {
		if e.id == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return FunctionResponse{}, false, fmt.Sprintf("tool message id %q matched no expected call; dropped", id)
	}
	if (*expected)[idx].name != name {
		name = (*expected)[idx].name
	}

	*expected = append((*expected)[:idx], (*expected)[idx+1:]...)

	return FunctionResponse{ID: id, Name: name, Response: parseToolResponsePayload(msg.Content)}, true, ""
}

func parseToolResponsePayload(content string) map[string]any {
	if content == "" {
		return map[string]any{"result": "Tool returned empty content."}
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return map[string]any{"result": content}
	}
	return payload
}
