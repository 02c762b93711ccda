package toolpipeline

import "fmt"

// MalformedToolCallError is raised when a requested call has no name or an
// unusable function block (spec §7).
type MalformedToolCallError struct {
	Reason string
}

func (e *MalformedToolCallError) Error() string {
	return fmt.Sprintf("malformed tool call: %s", e.Reason)
}

// ValidationError is raised when arguments fail the tool's parameter schema
// (spec §7, ToolParameterValidationError).
type ValidationError struct {
	ToolName string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tool %q parameter validation failed: %s", e.ToolName, e.Reason)
}

// CircularCallError is raised when the retry or similarity budget for a
// (name, args) fingerprint is exceeded (spec §7, §4.3 step 4).
type CircularCallError struct {
	ToolName string
}

func (e *CircularCallError) Error() string {
	return fmt.Sprintf("circular tool call detected for %q", e.ToolName)
}

// ExecutionExhaustedError is raised once all retries of a transient
// exception have failed (spec §7, ToolExecutionExceptionAfterRetries).
type ExecutionExhaustedError struct {
	ToolName string
	Attempts int
	Last     error
}

func (e *ExecutionExhaustedError) Error() string {
	return fmt.Sprintf("tool %q failed after %d attempts: %v", e.ToolName, e.Attempts, e.Last)
}

func (e *ExecutionExhaustedError) Unwrap() error { return e.Last }

// PermissionDeniedError is signaled by the executor, never retried, and
// always terminal but non-critical for the call (spec §7).
type PermissionDeniedError struct {
	ToolName string
	Message  string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied for tool %q: %s", e.ToolName, e.Message)
}

// ExecutorConfigurationError is raised when no executor is wired for a
// tool call (spec §7, ToolExecutorConfigurationError).
type ExecutorConfigurationError struct {
	ToolName string
}

func (e *ExecutorConfigurationError) Error() string {
	return fmt.Sprintf("no executor configured for tool %q", e.ToolName)
}
