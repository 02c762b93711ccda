package selector

import (
	"context"
	"math"

	"github.com/coreflux/agentturn/pkg/models"
)

// Embedder is the external collaborator that turns text into a dense
// vector. Concrete providers (OpenAI, Anthropic, a local model) live
// outside this package.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// cosineSimilarity computes the cosine similarity between two equal-
// length embeddings, returning 0 for mismatched or zero-norm vectors
// (spec §4.1 step 6).
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// IndexableText concatenates the fields the embedding model sees for one
// tool, repeating the name and description to weight importance (spec
// §4.1, "Embeddings & cache").
func IndexableText(def toolDefInput) string {
	repeat := def.Importance - 5
	if repeat < 0 {
		repeat = 0
	}

	text := def.Name + " " + def.Description
	parts := []string{}
	for i := 0; i <= repeat; i++ {
		parts = append(parts, text)
	}
	parts = append(parts, def.Categories...)
	parts = append(parts, def.Tags...)
	parts = append(parts, def.Keywords...)
	parts = append(parts, def.ParamTokens...)
	examples := def.Examples
	if len(examples) > 3 {
		examples = examples[:3]
	}
	parts = append(parts, examples...)

	out := parts[0]
	for _, p := range parts[1:] {
		out += " " + p
	}
	return out
}

func buildIndexInput(def models.ToolDefinition) toolDefInput {
	var paramTokens []string
	for name, spec := range def.Parameters.Properties {
		paramTokens = append(paramTokens, name, string(spec.Type), spec.Description)
	}
	return toolDefInput{
		Name:        def.Name,
		Description: def.Description,
		Categories:  def.Metadata.Categories,
		Tags:        def.Metadata.Tags,
		Keywords:    def.Metadata.Keywords,
		Examples:    def.Metadata.Examples,
		ParamTokens: paramTokens,
		Importance:  def.Metadata.Importance,
	}
}

// toolDefInput is the subset of models.ToolDefinition IndexableText needs,
// pre-flattened so callers can supply parameter names+types+descriptions
// without this package importing schema-walking logic twice.
type toolDefInput struct {
	Name        string
	Description string
	Categories  []string
	Tags        []string
	Keywords    []string
	Examples    []string
	ParamTokens []string
	Importance  int
}
