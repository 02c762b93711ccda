package toolpipeline

import (
	"context"
	"errors"
	"time"

	"github.com/coreflux/agentturn/pkg/models"
)

// Executor is the external collaborator that actually runs one tool call.
// Implementations live outside this package (concrete tool backends are
// out of scope here; see SPEC_FULL.md §5 Non-goals).
type Executor interface {
	// Execute runs name with the validated args and returns the raw
	// result. A returned error is treated as a transient failure and
	// retried up to Config.MaxExecutionRetries times unless it wraps
	// *PermissionDeniedError, in which case it is never retried.
	Execute(ctx context.Context, name string, args map[string]any) (any, error)
}

// ExecutorLookup resolves the Executor responsible for a tool name.
// Returns nil if none is configured (spec §7,
// ToolExecutorConfigurationError).
type ExecutorLookup func(toolName string) Executor

// runWithRetry drives one call through the retry/backoff schedule,
// classifying the outcome into a models.ToolExecOutcome (spec §4.3 step 6,
// §8 P5: cumulative sleep is bounded by MaxExecutionRetries attempts at
// RetryDelay each, so retries terminate).
func runWithRetry(ctx context.Context, cfg *Config, exec Executor, name string, args map[string]any) models.ToolExecOutcome {
	var lastErr error
	for attempt := 0; attempt < cfg.MaxExecutionRetries; attempt++ {
		started := time.Now()
		raw, err := exec.Execute(ctx, name, args)
		elapsed := time.Since(started).Seconds() * 1000

		if err == nil {
			_, isMap := raw.(map[string]any)
			return models.ToolExecOutcome{
				Raw:             raw,
				IsMap:           isMap,
				ExecutionTimeMS: elapsed,
				Status:          "ok",
			}
		}

		var denied *PermissionDeniedError
		if errors.As(err, &denied) {
			return models.ToolExecOutcome{
				Error:            err.Error(),
				Status:           "permission_denied",
				PermissionDenied: true,
				Message:          denied.Message,
				ExecutionTimeMS:  elapsed,
			}
		}

		lastErr = err
		if attempt < cfg.MaxExecutionRetries-1 {
			select {
			case <-ctx.Done():
				return models.ToolExecOutcome{Error: ctx.Err().Error(), Status: "error", IsCritical: true}
			case <-time.After(cfg.RetryDelay(attempt)):
			}
		}
	}

	exhausted := &ExecutionExhaustedError{ToolName: name, Attempts: cfg.MaxExecutionRetries, Last: lastErr}
	return models.ToolExecOutcome{
		Error:      exhausted.Error(),
		Status:     "error",
		IsCritical: true,
	}
}
