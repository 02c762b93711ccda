package streamproc

import (
	"fmt"
	"strings"

	"github.com/coreflux/agentturn/pkg/models"
)

// synthesisPhrases are the exact case-insensitive markers that indicate
// the model's text is synthesizing prior tool results (spec §4.4,
// "Result synthesis").
var synthesisPhrases = []string{
	"based on the tool results",
	"according to the tool",
	"the tool returned",
	"as shown by the tool",
	"from the data provided by",
}

// hasSynthesisIntent reports whether text contains any synthesis marker.
func hasSynthesisIntent(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range synthesisPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// buildSynthesisBlock summarizes the prior turn's tool results: counts of
// success/failure plus a short preview per tool (spec §4.4, "Result
// synthesis").
func buildSynthesisBlock(priorToolResults []*models.Message) string {
	if len(priorToolResults) == 0 {
		return ""
	}

	successes, failures := 0, 0
	var previews []string
	for _, msg := range priorToolResults {
		if msg.IsError {
			failures++
		} else {
			successes++
		}
		preview := msg.Content
		if len(preview) > 80 {
			preview = preview[:80] + "..."
		}
		previews = append(previews, fmt.Sprintf("%s: %s", msg.Name, preview))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n\n[%d tool call(s) succeeded, %d failed]\n", successes, failures)
	for _, p := range previews {
		b.WriteString("- " + p + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
