// Package toolpipeline executes the batch of tool calls the model requested
// for one cycle: malformed-call checks, argument deserialization, circular-
// call detection, parameter validation, retrying execution, permission
// handling, scratchpad memory updates, and stats accounting (spec §4.3).
package toolpipeline

import (
	"time"

	"github.com/coreflux/agentturn/internal/backoff"
)

// Config carries the tunables of §6 relevant to the pipeline. A nil Config
// is replaced by Default() everywhere a *Pipeline is constructed, mirroring
// the teacher's sanitizeLoopConfig pattern.
type Config struct {
	// MaxExecutionRetries bounds attempts per tool call (spec §6,
	// MAX_TOOL_EXECUTION_RETRIES). Default 3.
	MaxExecutionRetries int `yaml:"max_tool_execution_retries"`

	// RetryInitialDelay is the base of the exponential backoff schedule
	// (spec §6, TOOL_RETRY_INITIAL_DELAY). Default 500ms.
	RetryInitialDelay time.Duration `yaml:"tool_retry_initial_delay"`

	// MaxRetryDelay caps the backoff schedule (spec §6, MAX_RETRY_DELAY).
	// Default 5s.
	MaxRetryDelay time.Duration `yaml:"max_retry_delay"`

	// MaxSimilarToolCalls bounds the similarity-scan circular detector
	// (spec §6, MAX_SIMILAR_TOOL_CALLS). Default 3.
	MaxSimilarToolCalls int `yaml:"max_similar_tool_calls"`

	// SimilarityThreshold is the Ratcliff/Obershelp ratio above which two
	// argument sets are considered similar (spec §6,
	// SIMILARITY_THRESHOLD). Default 0.85.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// BreakOnCriticalToolError marks malformed/validation/circular/
	// exhausted-retry failures as batch-critical (spec §6,
	// BREAK_ON_CRITICAL_TOOL_ERROR). Default false.
	BreakOnCriticalToolError bool `yaml:"break_on_critical_tool_error"`
}

// Default returns the documented default configuration (spec §6).
func Default() *Config {
	return &Config{
		MaxExecutionRetries:      3,
		RetryInitialDelay:        500 * time.Millisecond,
		MaxRetryDelay:            5 * time.Second,
		MaxSimilarToolCalls:      3,
		SimilarityThreshold:      0.85,
		BreakOnCriticalToolError: false,
	}
}

func sanitize(cfg *Config) *Config {
	if cfg == nil {
		return Default()
	}
	c := *cfg
	d := Default()
	if c.MaxExecutionRetries <= 0 {
		c.MaxExecutionRetries = d.MaxExecutionRetries
	}
	if c.RetryInitialDelay <= 0 {
		c.RetryInitialDelay = d.RetryInitialDelay
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = d.MaxRetryDelay
	}
	if c.MaxSimilarToolCalls <= 0 {
		c.MaxSimilarToolCalls = d.MaxSimilarToolCalls
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = d.SimilarityThreshold
	}
	return &c
}

// RetryDelay computes the backoff sleep before attempt (0-indexed) per
// spec §4.3 step 6 / §8 P5: min(initial * 2^attempt, max). Delegates to
// the shared backoff package with jitter disabled, since the spec's
// formula is deterministic.
func (c *Config) RetryDelay(attempt int) time.Duration {
	policy := backoff.BackoffPolicy{
		InitialMs: float64(c.RetryInitialDelay.Milliseconds()),
		MaxMs:     float64(c.MaxRetryDelay.Milliseconds()),
		Factor:    2,
		Jitter:    0,
	}
	return backoff.ComputeBackoffWithRand(policy, attempt+1, 0)
}
