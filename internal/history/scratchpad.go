package history

import (
	"fmt"
	"strings"

	"github.com/coreflux/agentturn/pkg/models"
)

const scratchpadArgsPreviewLen = 60

// injectScratchpad synthesizes a single internal assistant message
// summarizing the scratchpad's most recent entries and inserts it
// immediately after any leading system-like messages, unless a
// context_summary message is already present (spec §4.2 step 3).
func injectScratchpad(cfg *Config, messages []*models.Message, scratchpad []models.ScratchpadEntry) []*models.Message {
	if len(scratchpad) == 0 || hasContextSummary(messages) {
		return messages
	}

	entry := &models.Message{
		Role:        models.RoleAssistant,
		IsInternal:  true,
		MessageType: models.MessageTypeContextSummary,
		Content:     renderScratchpadSummary(cfg, scratchpad),
	}

	insertAt := 0
	for insertAt < len(messages) && isSystemLike(messages[insertAt]) {
		insertAt++
	}

	out := make([]*models.Message, 0, len(messages)+1)
	out = append(out, messages[:insertAt]...)
	out = append(out, entry)
	out = append(out, messages[insertAt:]...)
	return out
}

func hasContextSummary(messages []*models.Message) bool {
	for _, msg := range messages {
		if msg.MessageType == models.MessageTypeContextSummary {
			return true
		}
	}
	return false
}

func renderScratchpadSummary(cfg *Config, scratchpad []models.ScratchpadEntry) string {
	n := cfg.ScratchpadInjectCount
	if n > len(scratchpad) {
		n = len(scratchpad)
	}
	recent := scratchpad[len(scratchpad)-n:]

	var b strings.Builder
	for i := len(recent) - 1; i >= 0; i-- {
		e := recent[i]
		argsPreview := truncatePreview(e.ToolInput, scratchpadArgsPreviewLen)
		resultPreview := truncatePreview(e.Summary, scratchpadArgsPreviewLen)
		fmt.Fprintf(&b, "- Tool: %s, Args: %s, Result: %s (Time: %s)\n", e.ToolName, argsPreview, resultPreview, e.Timestamp.Format("15:04:05"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncatePreview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
