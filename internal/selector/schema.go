package selector

import "github.com/coreflux/agentturn/pkg/models"

const (
	maxDescriptionChars = 150
	maxEnumEntries       = 7
	maxOneOfAnyOf        = 3
)

// OptimizeDefinition applies the schema-slimming rules used when a tool
// definition is indexed for embedding and when it is finally handed to
// the model (spec §4.1, "Schema optimization").
func OptimizeDefinition(def models.ToolDefinition) models.ToolDefinition {
	out := def
	out.Description = truncateDescription(def.Description)
	out.Parameters = optimizeSchema(def.Parameters)
	return out
}

func truncateDescription(s string) string {
	if len(s) <= maxDescriptionChars {
		return s
	}
	return s[:maxDescriptionChars]
}

func optimizeSchema(schema models.ToolSchema) models.ToolSchema {
	out := schema
	if schema.Properties != nil {
		out.Properties = make(map[string]models.ParamSpec, len(schema.Properties))
		for name, spec := range schema.Properties {
			out.Properties[name] = optimizeParamSpec(spec)
		}
	}
	return out
}

func optimizeParamSpec(spec models.ParamSpec) models.ParamSpec {
	out := spec
	out.Description = truncateDescription(spec.Description)

	if len(spec.Enum) > maxEnumEntries {
		out.Enum = append([]string(nil), spec.Enum[:maxEnumEntries]...)
	}

	if spec.Items != nil {
		child := optimizeParamSpec(*spec.Items)
		out.Items = &child
	}

	if spec.Properties != nil {
		out.Properties = make(map[string]models.ParamSpec, len(spec.Properties))
		for name, child := range spec.Properties {
			out.Properties[name] = optimizeParamSpec(child)
		}
	}

	if len(spec.OneOf) == 1 {
		out = inlineVariant(out, spec.OneOf[0])
	} else {
		out.OneOf = capVariants(spec.OneOf)
	}
	if len(spec.AnyOf) == 1 {
		out = inlineVariant(out, spec.AnyOf[0])
	} else {
		out.AnyOf = capVariants(spec.AnyOf)
	}

	return out
}

// inlineVariant merges a single-branch oneOf/anyOf's fields into the
// parent spec, since a schema with exactly one variant carries no real
// choice (spec §4.1, "Schema optimization": "if length 1, inline the
// branch").
func inlineVariant(out, variant models.ParamSpec) models.ParamSpec {
	variant = optimizeParamSpec(variant)
	if out.Type == "" {
		out.Type = variant.Type
	}
	if len(out.Enum) == 0 {
		out.Enum = variant.Enum
	}
	if out.Items == nil {
		out.Items = variant.Items
	}
	if out.Properties == nil {
		out.Properties = variant.Properties
	}
	out.OneOf = nil
	return out
}

// capVariants caps a multi-branch oneOf/anyOf at the first 3 branches
// (spec §4.1, "Schema optimization").
func capVariants(variants []models.ParamSpec) []models.ParamSpec {
	if len(variants) == 0 {
		return nil
	}
	if len(variants) > maxOneOfAnyOf {
		variants = variants[:maxOneOfAnyOf]
	}
	out := make([]models.ParamSpec, len(variants))
	for i, v := range variants {
		out[i] = optimizeParamSpec(v)
	}
	return out
}
