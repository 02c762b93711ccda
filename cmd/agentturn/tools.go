package main

import (
	"context"
	"fmt"
	"time"

	"github.com/coreflux/agentturn/internal/observability"
	"github.com/coreflux/agentturn/internal/toolpipeline"
	"github.com/coreflux/agentturn/pkg/models"
)

// builtinCatalog is a small demo tool catalog for the CLI: enough to
// exercise the selector's keyword rules and the pipeline's validation
// path without an external service dependency.
func builtinCatalog() []models.ToolDefinition {
	return []models.ToolDefinition{
		{
			Name:        "current_time",
			Description: "Returns the current UTC time.",
			Parameters:  models.ToolSchema{},
			Metadata: models.ToolMetadata{
				Categories: []string{"utility"},
				Keywords:   []string{"time", "date", "clock"},
				Importance: 3,
			},
		},
		{
			Name:        "echo",
			Description: "Echoes back the given text, useful for testing tool plumbing.",
			Parameters: models.ToolSchema{
				Properties: map[string]models.ParamSpec{
					"text": {Type: models.ParamString, Description: "text to echo"},
				},
				Required: []string{"text"},
			},
			Metadata: models.ToolMetadata{
				Categories: []string{"utility"},
				Keywords:   []string{"echo", "repeat"},
				Importance: 1,
			},
		},
	}
}

// builtinExecutor implements toolpipeline.Executor for the demo catalog.
type builtinExecutor struct {
	logger *observability.Logger
}

func builtinExecutorLookup(logger *observability.Logger) toolpipeline.ExecutorLookup {
	exec := &builtinExecutor{logger: logger}
	return func(name string) toolpipeline.Executor {
		switch name {
		case "current_time", "echo":
			return exec
		default:
			return nil
		}
	}
}

func (e *builtinExecutor) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	e.logger.Debug(ctx, "executing tool", "tool", name)
	switch name {
	case "current_time":
		return map[string]any{"utc": time.Now().UTC().Format(time.RFC3339)}, nil
	case "echo":
		text, _ := args["text"].(string)
		return map[string]any{"text": text}, nil
	default:
		return nil, fmt.Errorf("no executor registered for tool %q", name)
	}
}
