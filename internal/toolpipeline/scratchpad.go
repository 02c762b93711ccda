package toolpipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/coreflux/agentturn/pkg/models"
)

// scratchpadSummaryKeys is the exact key-priority list used to pick a
// human-readable headline for a map-shaped tool result (SPEC_FULL.md §4
// item 2, grounded on the original's `_summarize_tool_result`).
var scratchpadSummaryKeys = []string{
	"name", "title", "id", "status", "message", "count", "result", "key", "summary", "answer",
}

// scratchpadSummaryValueMaxLen is the per-field truncation the original
// applies before joining summary parts ("value[:47] + '...'").
const scratchpadSummaryValueMaxLen = 50

// summarizeOutcome produces the bounded-length headline stored in a
// ScratchpadEntry (spec §3, ScratchpadEntry.summary; §4.3 step 9),
// replicating the original's `_summarize_tool_result` literally: unwrap a
// {"data": ...} wrapper if present, summarize lists as "Retrieved N
// <type>s", summarize maps by joining present priority keys as "key:
// value" and filling up to 3 with remaining scalar fields, and fall back
// to a plain string rendering for anything else.
func summarizeOutcome(outcome models.ToolExecOutcome) string {
	if outcome.Error != "" {
		return truncateSummary(outcome.Error)
	}
	if !outcome.IsMap {
		return truncateSummary(renderResult(outcome.Raw))
	}
	m, ok := outcome.Raw.(map[string]any)
	if !ok {
		return truncateSummary("No result or invalid result format")
	}

	data := any(m)
	if v, ok := m["data"]; ok {
		data = v
	}

	var summary string
	switch v := data.(type) {
	case []any:
		itemType := "item"
		if len(v) > 0 {
			itemType = jsonItemTypeName(v[0])
		}
		summary = fmt.Sprintf("Retrieved %d %ss", len(v), itemType)
	case map[string]any:
		summary = summarizeMap(v)
	default:
		summary = fmt.Sprintf("%v", data)
	}

	if summary == "" {
		summary = "[No summary generated]"
	}
	return truncateSummary(summary)
}

// summarizeMap joins the priority keys present in m as "key: value",
// falling back to up to 3 remaining scalar fields when fewer than 3
// priority keys matched. Go's map iteration order isn't the original's
// dict insertion order (and json.Unmarshal into map[string]any doesn't
// preserve source key order either), so remaining fields are walked in
// sorted-key order for a deterministic, testable result.
func summarizeMap(m map[string]any) string {
	isPriority := make(map[string]bool, len(scratchpadSummaryKeys))
	for _, k := range scratchpadSummaryKeys {
		isPriority[k] = true
	}

	var parts []string
	for _, key := range scratchpadSummaryKeys {
		if v, ok := m[key]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", key, summaryFieldValue(v)))
		}
	}

	if len(parts) < 3 {
		remaining := make([]string, 0, len(m))
		for key := range m {
			if !isPriority[key] {
				remaining = append(remaining, key)
			}
		}
		sort.Strings(remaining)
		for _, key := range remaining {
			if len(parts) >= 3 {
				break
			}
			switch m[key].(type) {
			case map[string]any, []any:
				continue // nested structures aren't scalar fields
			}
			parts = append(parts, fmt.Sprintf("%s: %s", key, summaryFieldValue(m[key])))
		}
	}

	return strings.Join(parts, "; ")
}

// summaryFieldValue renders one field's value, truncating long strings
// the way the original truncates each summary part before joining.
func summaryFieldValue(v any) string {
	if s, ok := v.(string); ok && len(s) > scratchpadSummaryValueMaxLen {
		return s[:scratchpadSummaryValueMaxLen-3] + "..."
	}
	return fmt.Sprintf("%v", v)
}

// jsonItemTypeName approximates the original's `item.__class__.__name__`
// for a JSON-decoded list element.
func jsonItemTypeName(v any) string {
	switch v.(type) {
	case map[string]any:
		return "dict"
	case []any:
		return "list"
	case string:
		return "str"
	case bool:
		return "bool"
	case float64:
		return "float"
	case nil:
		return "NoneType"
	default:
		return "item"
	}
}

func renderResult(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// truncateSummary bounds a summary to ScratchpadSummaryMaxLen, appending
// a trailing ellipsis when truncated (SPEC_FULL §4 item 2:
// "summary[:max_length-3] + '...'").
func truncateSummary(s string) string {
	if len(s) <= models.ScratchpadSummaryMaxLen {
		return s
	}
	return s[:models.ScratchpadSummaryMaxLen-3] + "..."
}
