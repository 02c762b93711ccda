package toolpipeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/coreflux/agentturn/pkg/models"
)

// validateArguments checks a deserialized argument map against a tool's
// declared schema (spec §4.3 step 5, ToolParameterValidationError).
//
// Loosely-typed provider output is coerced first (numeric
// strings/floats to int for "integer", rejecting non-whole floats;
// numbers to float64 for "number"; "true"/"false" strings to bool for
// "boolean"; bracket-delimited JSON strings to arrays/objects) so a
// well-intentioned but loosely-typed call lands on a correctly typed Go
// value before structural validation runs. required/type/enum/oneOf/anyOf
// are then checked by github.com/santhosh-tekuri/jsonschema/v5, compiled
// from the tool's ParamSpec tree — the same library the teacher uses for
// schema validation (pkg/pluginsdk/validation.go).
func validateArguments(def models.ToolDefinition, args map[string]any) error {
	for name, value := range args {
		spec, ok := def.Parameters.Properties[name]
		if !ok {
			continue // unknown params pass through; the executor may tolerate extras
		}
		coerced, err := coerceValue(spec, value)
		if err != nil {
			return &ValidationError{ToolName: def.Name, Reason: fmt.Sprintf("parameter %q: %v", name, err)}
		}
		args[name] = coerced
	}

	schema, err := compileToolSchema(def)
	if err != nil {
		return &ValidationError{ToolName: def.Name, Reason: fmt.Sprintf("compiling parameter schema: %v", err)}
	}

	// Round-trip through JSON, mirroring the teacher's ValidateConfig: the
	// schema library expects the same map[string]any/[]any/float64 shape
	// json.Unmarshal produces, not the coerced Go types (e.g. int) sitting
	// in args right now.
	raw, err := json.Marshal(args)
	if err != nil {
		return &ValidationError{ToolName: def.Name, Reason: fmt.Sprintf("encoding arguments: %v", err)}
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return &ValidationError{ToolName: def.Name, Reason: fmt.Sprintf("decoding arguments: %v", err)}
	}
	if err := schema.Validate(decoded); err != nil {
		return &ValidationError{ToolName: def.Name, Reason: err.Error()}
	}
	return nil
}

// schemaCache compiles each tool's parameter schema once, keyed by tool
// name and schema bytes — the same sync.Map memoization the teacher's
// compileSchema uses.
var schemaCache sync.Map

func compileToolSchema(def models.ToolDefinition) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(toolSchemaDocument(def.Parameters))
	if err != nil {
		return nil, fmt.Errorf("encode parameter schema: %w", err)
	}
	key := def.Name + ":" + string(raw)
	if cached, ok := schemaCache.Load(key); ok {
		if compiled, ok := cached.(*jsonschema.Schema); ok {
			return compiled, nil
		}
	}

	compiled, err := jsonschema.CompileString(def.Name+".params.schema.json", string(raw))
	if err != nil {
		return nil, err
	}
	schemaCache.Store(key, compiled)
	return compiled, nil
}

// toolSchemaDocument renders a ToolSchema as a JSON Schema document
// jsonschema/v5 can compile.
func toolSchemaDocument(schema models.ToolSchema) map[string]any {
	props := make(map[string]any, len(schema.Properties))
	for name, p := range schema.Properties {
		props[name] = paramSpecToSchema(p)
	}
	doc := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(schema.Required) > 0 {
		doc["required"] = schema.Required
	}
	return doc
}

func paramSpecToSchema(spec models.ParamSpec) map[string]any {
	if len(spec.OneOf) > 0 {
		return map[string]any{"oneOf": paramSpecsToSchemas(spec.OneOf)}
	}
	if len(spec.AnyOf) > 0 {
		return map[string]any{"anyOf": paramSpecsToSchemas(spec.AnyOf)}
	}

	out := map[string]any{}
	if spec.Type != "" {
		out["type"] = string(spec.Type)
	}
	if len(spec.Enum) > 0 {
		enum := make([]any, len(spec.Enum))
		for i, e := range spec.Enum {
			enum[i] = e
		}
		out["enum"] = enum
	}
	if spec.Items != nil {
		out["items"] = paramSpecToSchema(*spec.Items)
	}
	if len(spec.Properties) > 0 {
		props := make(map[string]any, len(spec.Properties))
		for name, p := range spec.Properties {
			props[name] = paramSpecToSchema(p)
		}
		out["properties"] = props
	}
	return out
}

func paramSpecsToSchemas(specs []models.ParamSpec) []any {
	out := make([]any, len(specs))
	for i, s := range specs {
		out[i] = paramSpecToSchema(s)
	}
	return out
}

func coerceValue(spec models.ParamSpec, value any) (any, error) {
	if len(spec.OneOf) > 0 || len(spec.AnyOf) > 0 {
		return value, nil // structural shape is jsonschema's job, not coercion's
	}
	switch spec.Type {
	case models.ParamInteger:
		return coerceInt(value)
	case models.ParamNumber:
		return coerceFloat(value)
	case models.ParamBoolean:
		return coerceBool(value)
	case models.ParamString:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return fmt.Sprintf("%v", value), nil
	case models.ParamArray:
		return coerceArray(value)
	case models.ParamObject:
		return coerceObject(value)
	default:
		return value, nil
	}
}

func coerceInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int64(v)) {
			return nil, fmt.Errorf("expected whole-number integer, got %v", v)
		}
		return int(v), nil
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %q", v.String())
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %q", v)
		}
		return i, nil
	default:
		return nil, fmt.Errorf("expected integer, got %T", value)
	}
}

func coerceFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("expected number, got %q", v.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("expected number, got %q", v)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("expected number, got %T", value)
	}
}

func coerceBool(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("expected boolean, got %q", v)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("expected boolean, got %T", value)
	}
}

// coerceArray accepts an already-decoded list, or a JSON string with
// matching brackets (spec §4.3 step 5: a model that sends "[1,2]" for an
// array parameter is tolerated, not rejected).
func coerceArray(value any) (any, error) {
	switch v := value.(type) {
	case []any:
		return v, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
			return nil, fmt.Errorf("expected array, got %q", v)
		}
		var decoded []any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
			return nil, fmt.Errorf("expected JSON array, got %q: %v", v, err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("expected array, got %T", value)
	}
}

// coerceObject is coerceArray's object-shaped counterpart.
func coerceObject(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		return v, nil
	case string:
		trimmed := strings.TrimSpace(v)
		if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
			return nil, fmt.Errorf("expected object, got %q", v)
		}
		var decoded map[string]any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
			return nil, fmt.Errorf("expected JSON object, got %q: %v", v, err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("expected object, got %T", value)
	}
}
