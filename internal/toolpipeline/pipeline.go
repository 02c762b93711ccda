package toolpipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/coreflux/agentturn/pkg/models"
)

// userIssuesTool is the one tool name that receives automatic parameter
// injection (spec §4.3 step 3). Registered with an underscore so it
// travels the standard per-call pipeline rather than the adapter dispatch
// path (spec §4.3, "Dispatch" routes on underscore presence; step 3 is
// only defined for "standard tools").
const userIssuesTool = "user_issues"

// AdapterExecutor handles calls whose name has no underscore, which are
// delegated wholesale to a service-level adapter rather than run through
// the standard per-call pipeline (spec §4.3, "Dispatch").
type AdapterExecutor interface {
	Execute(ctx context.Context, calls []models.ToolCallRequest, user *models.User, state *models.SessionState) AdapterResult
}

// AdapterResult is the tuple an AdapterExecutor returns, matching the
// standard pipeline's result shape.
type AdapterResult struct {
	ToolMessages     []*models.Message
	InternalMessages []*models.Message
	Critical         bool
}

// Result is what Pipeline.Execute returns for one batch of tool calls
// (spec §4.3, "Contract").
type Result struct {
	ToolMessages     []*models.Message
	InternalMessages []*models.Message
	Critical         bool
}

// Pipeline executes one cycle's batch of tool calls end to end (spec
// §4.3).
type Pipeline struct {
	cfg     *Config
	catalog map[string]models.ToolDefinition
	lookup  ExecutorLookup
	adapter AdapterExecutor
	guard   ResultGuard
}

// New constructs a Pipeline. adapter may be nil if no underscore-less
// tool names are ever dispatched.
func New(cfg *Config, catalog map[string]models.ToolDefinition, lookup ExecutorLookup, adapter AdapterExecutor) *Pipeline {
	return &Pipeline{cfg: sanitize(cfg), catalog: catalog, lookup: lookup, adapter: adapter, guard: DefaultResultGuard()}
}

// WithResultGuard overrides the default redaction/truncation policy.
func (p *Pipeline) WithResultGuard(guard ResultGuard) *Pipeline {
	p.guard = guard
	return p
}

// Execute runs the full per-call pipeline over calls in input order,
// mutating session with previous-tool-call history, scratchpad entries,
// and stats as it goes (spec §4.3, §3 SessionState).
func (p *Pipeline) Execute(ctx context.Context, calls []models.ToolCallRequest, session *models.SessionState) Result {
	standard, adapterCalls := partitionByDispatch(calls)

	var result Result

	if len(adapterCalls) > 0 {
		survivors, circularMsgs := p.filterCircular(adapterCalls, session)
		result.ToolMessages = append(result.ToolMessages, circularMsgs...)
		if p.adapter != nil && len(survivors) > 0 {
			adapted := p.adapter.Execute(ctx, survivors, session.CurrentUser, session)
			result.ToolMessages = append(result.ToolMessages, adapted.ToolMessages...)
			result.InternalMessages = append(result.InternalMessages, adapted.InternalMessages...)
			if adapted.Critical {
				result.Critical = true
			}
		}
	}

	detector := newCircularDetector(p.cfg, session.PreviousToolCalls)

	for _, call := range standard {
		if result.Critical {
			break
		}
		toolMsg, internalMsg, critical := p.executeOne(ctx, call, session, detector)
		if toolMsg != nil {
			result.ToolMessages = append(result.ToolMessages, toolMsg)
		}
		if internalMsg != nil {
			result.InternalMessages = append(result.InternalMessages, internalMsg)
		}
		if critical {
			result.Critical = true
		}
	}

	return result
}

func partitionByDispatch(calls []models.ToolCallRequest) (standard, adapter []models.ToolCallRequest) {
	for _, call := range calls {
		if strings.Contains(call.Name, "_") {
			standard = append(standard, call)
		} else {
			adapter = append(adapter, call)
		}
	}
	return standard, adapter
}

// filterCircular runs circular detection on adapter-bound calls ahead of
// dispatch, per spec §4.3 "Dispatch": circular ones yield an error tool
// message up front and never reach the adapter.
func (p *Pipeline) filterCircular(calls []models.ToolCallRequest, session *models.SessionState) (survivors []models.ToolCallRequest, errMsgs []*models.Message) {
	detector := newCircularDetector(p.cfg, session.PreviousToolCalls)
	for _, call := range calls {
		if detector.Check(call.Name, call.Arguments, session.PreviousToolCalls) {
			errMsgs = append(errMsgs, circularErrorMessage(call))
			continue
		}
		detector.Record(call.Name, call.Arguments)
		survivors = append(survivors, call)
	}
	return survivors, errMsgs
}

func (p *Pipeline) executeOne(ctx context.Context, call models.ToolCallRequest, session *models.SessionState, detector *circularDetector) (toolMsg, internalMsg *models.Message, critical bool) {
	now := time.Now()

	// Step 1: malformed check.
	if call.Name == "" {
		err := &MalformedToolCallError{Reason: "missing tool name"}
		return errorToolMessage(call, err.Error(), now), internalTrace(err.Error(), now), p.cfg.BreakOnCriticalToolError
	}

	// Step 2: argument deserialization.
	args, parseErr := models.ParseArguments(call.Arguments)
	if parseErr != nil {
		args = map[string]any{
			"__tool_arg_error__": "JSONDecodeError",
			"message":            parseErr.Error(),
			"raw_arguments":      call.Arguments,
		}
	}

	// Step 3: parameter injection.
	if strings.EqualFold(call.Name, userIssuesTool) {
		if _, ok := args["user_email"]; !ok && session.CurrentUser != nil && session.CurrentUser.Email != "" {
			args["user_email"] = session.CurrentUser.Email
		}
	}

	argsJSON := canonicalArgsJSON(args, call.Arguments)

	// Step 4: circular detection.
	if detector.Check(call.Name, argsJSON, session.PreviousToolCalls) {
		err := &CircularCallError{ToolName: call.Name}
		session.PushPreviousToolCall(models.PreviousToolCall{ID: call.ID, Name: call.Name, Args: argsJSON, ArgsHash: fingerprint(call.Name, argsJSON), Time: now})
		session.SessionStats.ToolCalls++
		session.SessionStats.FailedToolCalls++
		return errorToolMessage(call, err.Error(), now), internalTrace(err.Error(), now), p.cfg.BreakOnCriticalToolError
	}

	def, hasDef := p.catalog[call.Name]

	// Step 5: validation.
	if hasDef {
		if verr := validateArguments(def, args); verr != nil {
			detector.Record(call.Name, argsJSON)
			session.PushPreviousToolCall(models.PreviousToolCall{ID: call.ID, Name: call.Name, Args: argsJSON, ArgsHash: fingerprint(call.Name, argsJSON), Time: now})
			session.SessionStats.ToolCalls++
			session.SessionStats.FailedToolCalls++
			return errorToolMessage(call, verr.Error(), now), internalTrace(verr.Error(), now), p.cfg.BreakOnCriticalToolError
		}
	}

	exec := p.lookup(call.Name)
	detector.Record(call.Name, argsJSON)
	session.PushPreviousToolCall(models.PreviousToolCall{ID: call.ID, Name: call.Name, Args: argsJSON, ArgsHash: fingerprint(call.Name, argsJSON), Time: now})
	session.SessionStats.ToolCalls++
	stats := session.SessionStats.ToolStats(call.Name)
	stats.Calls++

	if exec == nil {
		err := &ExecutorConfigurationError{ToolName: call.Name}
		session.SessionStats.FailedToolCalls++
		stats.Failures++
		return errorToolMessage(call, err.Error(), now), internalTrace(err.Error(), now), p.cfg.BreakOnCriticalToolError
	}

	// Step 6-7: execution with retry and result classification.
	outcome := runWithRetry(ctx, p.cfg, exec, call.Name, args)
	stats.TotalMS += outcome.ExecutionTimeMS

	if outcome.PermissionDenied {
		session.SessionStats.FailedToolCalls++
		stats.Failures++
		apology := fmt.Sprintf("Sorry, you don't have permission to use '%s' for this action.", call.Name)
		session.Messages = append(session.Messages, &models.Message{
			Role:      models.RoleAssistant,
			Content:   apology,
			Timestamp: now,
		})
		return errorToolMessage(call, outcome.Error, now), internalTrace(outcome.Error, now), false
	}

	if outcome.Error != "" {
		session.SessionStats.FailedToolCalls++
		stats.Failures++
		isCritical := outcome.IsCritical && p.cfg.BreakOnCriticalToolError
		return errorToolMessage(call, outcome.Error, now), internalTrace(outcome.Error, now), isCritical
	}

	content := p.guard.Apply(call.Name, renderResult(outcome.Raw))
	session.PushScratchpad(models.ScratchpadEntry{
		ToolName:  call.Name,
		ToolInput: argsJSON,
		Result:    content,
		IsError:   false,
		Summary:   summarizeOutcome(outcome),
		Timestamp: now,
	})

	toolMsg = models.ToolResultMessage(call.ID, call.Name, content, false, now)
	internalMsg = internalTrace(fmt.Sprintf("%s succeeded: %s", call.Name, summarizeOutcome(outcome)), now)
	return toolMsg, internalMsg, false
}

func errorToolMessage(call models.ToolCallRequest, errMsg string, ts time.Time) *models.Message {
	return models.ToolResultMessage(call.ID, call.Name, errMsg, true, ts)
}

func internalTrace(content string, ts time.Time) *models.Message {
	return &models.Message{
		Role:       models.RoleSystem,
		Content:    content,
		IsInternal: true,
		Timestamp:  ts,
	}
}

func circularErrorMessage(call models.ToolCallRequest) *models.Message {
	err := &CircularCallError{ToolName: call.Name}
	return errorToolMessage(call, err.Error(), time.Now())
}

func canonicalArgsJSON(args map[string]any, fallback string) string {
	b, err := json.Marshal(args)
	if err != nil {
		return fallback
	}
	return string(b)
}
