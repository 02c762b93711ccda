package history

import "fmt"

// repairSequence enforces strict user→model→tool×N→model alternation,
// inserting placeholders for anything the mapping step left unresolved
// (spec §4.2 step 6).
func repairSequence(messages []ProviderMessage) ([]ProviderMessage, []string) {
	var out []ProviderMessage
	var warnings []string

	i := 0
	for i < len(messages) {
		msg := messages[i]
		out = append(out, msg)

		switch msg.Role {
		case ProviderUser:
			i++
			if i >= len(messages) || messages[i].Role != ProviderModel {
				out = append(out, placeholderModel("[No response was generated.]"))
				continue
			}

		case ProviderModel:
			i++
			if !msg.hasFunctionCalls() {
				if i < len(messages) && messages[i].Role == ProviderModel && !msg.Placeholder && !messages[i].Placeholder {
					warnings = append(warnings, "consecutive model turns without an intervening tool or user message")
				}
				continue
			}

			pending := make([]FunctionCall, len(msg.FunctionCalls))
			copy(pending, msg.FunctionCalls)
			for i < len(messages) && messages[i].Role == ProviderTool {
				for _, fr := range messages[i].FunctionResponses {
					pending = removeExpected(pending, fr.ID)
				}
				out = append(out, messages[i])
				i++
			}
			for _, call := range pending {
				out = append(out, ProviderMessage{
					Role: ProviderTool,
					FunctionResponses: []FunctionResponse{
						{ID: call.ID, Name: call.Name, Response: map[string]any{"result": fmt.Sprintf("[No tool result was provided for %s]", call.Name)}},
					},
					Placeholder: true,
				})
			}
			if len(pending) > 0 && i < len(messages) && messages[i].Role == ProviderModel {
				i++ // skip the next model turn to avoid back-to-back model turns
			}
			continue

		case ProviderTool:
			i++
			if i >= len(messages) || messages[i].Role != ProviderModel {
				out = append(out, placeholderModel(""))
				continue
			}
		}
	}

	return out, warnings
}

func placeholderModel(text string) ProviderMessage {
	return ProviderMessage{Role: ProviderModel, Text: text, Placeholder: true}
}

func removeExpected(pending []FunctionCall, id string) []FunctionCall {
	for i, call := range pending {
		if call.ID == id {
			return append(pending[:i], pending[i+1:]...)
		}
	}
	return pending
}
