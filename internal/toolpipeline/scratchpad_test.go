package toolpipeline

import (
	"strings"
	"testing"

	"github.com/coreflux/agentturn/pkg/models"
)

func TestSummarizeOutcomeListResult(t *testing.T) {
	outcome := models.ToolExecOutcome{
		IsMap: true,
		Raw:   map[string]any{"data": []any{map[string]any{"id": "r1"}, map[string]any{"id": "r2"}}},
	}
	got := summarizeOutcome(outcome)
	if got != "Retrieved 2 dicts" {
		t.Fatalf("summarizeOutcome() = %q, want %q", got, "Retrieved 2 dicts")
	}
}

func TestSummarizeOutcomeEmptyList(t *testing.T) {
	outcome := models.ToolExecOutcome{IsMap: true, Raw: map[string]any{"data": []any{}}}
	if got := summarizeOutcome(outcome); got != "Retrieved 0 items" {
		t.Fatalf("summarizeOutcome() = %q, want %q", got, "Retrieved 0 items")
	}
}

func TestSummarizeOutcomeMapPriorityKeys(t *testing.T) {
	outcome := models.ToolExecOutcome{
		IsMap: true,
		Raw:   map[string]any{"name": "acme-repo", "status": "open"},
	}
	got := summarizeOutcome(outcome)
	if got != "name: acme-repo; status: open" {
		t.Fatalf("summarizeOutcome() = %q, want %q", got, "name: acme-repo; status: open")
	}
}

func TestSummarizeOutcomeMapFillsRemainingScalars(t *testing.T) {
	outcome := models.ToolExecOutcome{
		IsMap: true,
		Raw: map[string]any{
			"name":   "acme-repo",
			"owner":  "coreflux",
			"stars":  float64(12),
			"nested": map[string]any{"skip": "me"},
		},
	}
	got := summarizeOutcome(outcome)
	if !strings.HasPrefix(got, "name: acme-repo; ") {
		t.Fatalf("summarizeOutcome() = %q, want priority key first", got)
	}
	if strings.Contains(got, "nested") {
		t.Fatalf("summarizeOutcome() = %q, expected nested map field to be skipped", got)
	}
	if !strings.Contains(got, "owner: coreflux") || !strings.Contains(got, "stars: 12") {
		t.Fatalf("summarizeOutcome() = %q, expected remaining scalar fields filled in", got)
	}
}

func TestSummarizeOutcomeUnwrapsDataField(t *testing.T) {
	outcome := models.ToolExecOutcome{
		IsMap: true,
		Raw:   map[string]any{"status": "ok", "data": map[string]any{"title": "hello"}},
	}
	got := summarizeOutcome(outcome)
	if got != "title: hello" {
		t.Fatalf("summarizeOutcome() = %q, want the unwrapped data map summarized, not the wrapper", got)
	}
}

func TestSummarizeOutcomeTruncatesWithEllipsis(t *testing.T) {
	long := strings.Repeat("x", 200)
	outcome := models.ToolExecOutcome{Error: long}
	got := summarizeOutcome(outcome)
	if len(got) != models.ScratchpadSummaryMaxLen {
		t.Fatalf("expected truncated summary of length %d, got %d", models.ScratchpadSummaryMaxLen, len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncated summary to end with an ellipsis, got %q", got)
	}
}

func TestSummarizeOutcomeScalarDataField(t *testing.T) {
	outcome := models.ToolExecOutcome{IsMap: true, Raw: map[string]any{"data": "plain string result"}}
	if got := summarizeOutcome(outcome); got != "plain string result" {
		t.Fatalf("summarizeOutcome() = %q, want the unwrapped scalar rendered directly", got)
	}
}
