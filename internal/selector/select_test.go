package selector

import (
	"context"
	"testing"

	"github.com/coreflux/agentturn/pkg/models"
)

func catalogDef(name string, requiredPermission string) models.ToolDefinition {
	return models.ToolDefinition{
		Name:     name,
		Metadata: models.ToolMetadata{RequiredPermissionName: requiredPermission},
	}
}

func TestSelectDisabledReturnsHardCappedCatalog(t *testing.T) {
	cfg := Default()
	cfg.Disabled = true
	cfg.HardCap = 2
	s := New(cfg, nil, nil)

	catalog := []models.ToolDefinition{catalogDef("a", ""), catalogDef("b", ""), catalogDef("c", "")}
	out := s.Select(context.Background(), SelectInput{Catalog: catalog})
	if len(out) != 2 {
		t.Fatalf("expected hard cap of 2, got %d", len(out))
	}
}

func TestSelectDisabledStillFiltersByPermission(t *testing.T) {
	cfg := Default()
	cfg.Disabled = true
	s := New(cfg, nil, nil)

	catalog := []models.ToolDefinition{
		catalogDef("jira_read_tool", "JIRA_READ"),
		catalogDef("help", ""),
	}
	user := &models.User{Permissions: map[string]bool{}}

	out := s.Select(context.Background(), SelectInput{Catalog: catalog, User: user})
	if len(out) != 1 || out[0].Name != "help" {
		t.Fatalf("expected permission-gated tool dropped even with selection disabled, got %v", out)
	}
}

func TestSelectFiltersByPermission(t *testing.T) {
	cfg := Default()
	cfg.AlwaysInclude = []string{"jira_read_tool"}
	s := New(cfg, nil, nil)

	catalog := []models.ToolDefinition{catalogDef("jira_read_tool", "JIRA_READ")}
	user := &models.User{Permissions: map[string]bool{}}

	out := s.Select(context.Background(), SelectInput{Catalog: catalog, User: user})
	if len(out) != 0 {
		t.Fatalf("expected tool filtered out for lacking permission, got %v", out)
	}
}

func TestSelectDirectIntentWins(t *testing.T) {
	cfg := Default()
	s := New(cfg, nil, nil)

	catalog := []models.ToolDefinition{catalogDef("help", ""), catalogDef("repo_list", "")}
	out := s.Select(context.Background(), SelectInput{Query: "help me out", Catalog: catalog})
	if len(out) != 1 || out[0].Name != "help" {
		t.Fatalf("expected only help tool, got %v", out)
	}
}

func TestSelectFallbackWhenNothingMatches(t *testing.T) {
	cfg := Default()
	cfg.HardCap = 2
	s := New(cfg, nil, nil)

	catalog := []models.ToolDefinition{catalogDef("unrelated_tool", "")}
	out := s.Select(context.Background(), SelectInput{Query: "xyzzy plugh", Catalog: catalog})
	if len(out) != 1 || out[0].Name != "unrelated_tool" {
		t.Fatalf("expected fallback to catalog entries, got %v", out)
	}
}
