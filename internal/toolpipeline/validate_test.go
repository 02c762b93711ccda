package toolpipeline

import (
	"testing"

	"github.com/coreflux/agentturn/pkg/models"
)

func TestValidateArgumentsMissingRequired(t *testing.T) {
	def := models.ToolDefinition{
		Name: "project-issues",
		Parameters: models.ToolSchema{
			Required:   []string{"project"},
			Properties: map[string]models.ParamSpec{"project": {Type: models.ParamString}},
		},
	}
	err := validateArguments(def, map[string]any{})
	if err == nil {
		t.Fatal("expected missing-required validation error")
	}
}

func TestValidateArgumentsIntegerCoercion(t *testing.T) {
	def := models.ToolDefinition{
		Name: "limited",
		Parameters: models.ToolSchema{
			Properties: map[string]models.ParamSpec{"limit": {Type: models.ParamInteger}},
		},
	}
	args := map[string]any{"limit": float64(5)}
	if err := validateArguments(def, args); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := args["limit"].(int); !ok || v != 5 {
		t.Fatalf("expected coerced int 5, got %#v", args["limit"])
	}
}

func TestValidateArgumentsNonWholeFloatRejected(t *testing.T) {
	def := models.ToolDefinition{
		Name: "limited",
		Parameters: models.ToolSchema{
			Properties: map[string]models.ParamSpec{"limit": {Type: models.ParamInteger}},
		},
	}
	args := map[string]any{"limit": 5.5}
	if err := validateArguments(def, args); err == nil {
		t.Fatal("expected non-whole float to be rejected for integer param")
	}
}

func TestValidateArgumentsBooleanStringCoercion(t *testing.T) {
	def := models.ToolDefinition{
		Name: "toggle",
		Parameters: models.ToolSchema{
			Properties: map[string]models.ParamSpec{"enabled": {Type: models.ParamBoolean}},
		},
	}
	args := map[string]any{"enabled": "true"}
	if err := validateArguments(def, args); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := args["enabled"].(bool); !ok || !v {
		t.Fatalf("expected coerced bool true, got %#v", args["enabled"])
	}
}

func TestValidateArgumentsArrayFromJSONString(t *testing.T) {
	def := models.ToolDefinition{
		Name: "bulk-tag",
		Parameters: models.ToolSchema{
			Properties: map[string]models.ParamSpec{"ids": {Type: models.ParamArray, Items: &models.ParamSpec{Type: models.ParamInteger}}},
		},
	}
	args := map[string]any{"ids": "[1, 2, 3]"}
	if err := validateArguments(def, args); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := args["ids"].([]any)
	if !ok || len(v) != 3 {
		t.Fatalf("expected decoded 3-element array, got %#v", args["ids"])
	}
}

func TestValidateArgumentsObjectFromJSONString(t *testing.T) {
	def := models.ToolDefinition{
		Name: "configure",
		Parameters: models.ToolSchema{
			Properties: map[string]models.ParamSpec{"options": {Type: models.ParamObject}},
		},
	}
	args := map[string]any{"options": `{"retries": 3}`}
	if err := validateArguments(def, args); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := args["options"].(map[string]any)
	if !ok || v["retries"] != float64(3) {
		t.Fatalf("expected decoded object, got %#v", args["options"])
	}
}

func TestValidateArgumentsArrayInvalidStringRejected(t *testing.T) {
	def := models.ToolDefinition{
		Name: "bulk-tag",
		Parameters: models.ToolSchema{
			Properties: map[string]models.ParamSpec{"ids": {Type: models.ParamArray}},
		},
	}
	args := map[string]any{"ids": "not-an-array"}
	if err := validateArguments(def, args); err == nil {
		t.Fatal("expected error for non-bracketed string on array parameter")
	}
}

func TestValidateArgumentsEnumRejection(t *testing.T) {
	def := models.ToolDefinition{
		Name: "status-tool",
		Parameters: models.ToolSchema{
			Properties: map[string]models.ParamSpec{"status": {Type: models.ParamString, Enum: []string{"open", "closed"}}},
		},
	}
	args := map[string]any{"status": "archived"}
	if err := validateArguments(def, args); err == nil {
		t.Fatal("expected enum validation error")
	}
}
