package history

// HistoryResetRequiredError signals that the provider rejected the prior
// sequence badly enough that the session's history must be purged (spec
// §4.2, "Reset signal"). The only error this package's Prepare/Reset
// surface unwinds the engine's turn loop rather than being retried.
type HistoryResetRequiredError struct {
	Reason string
}

func (e *HistoryResetRequiredError) Error() string {
	return "history reset required: " + e.Reason
}

// resetTriggerPhrases are substrings of a provider error message that
// indicate the history itself is unrecoverable (spec §4.2, "Reset
// signal").
var resetTriggerPhrases = []string{
	"proto-schema mismatch",
	"role-alternation error",
	"tool must follow model",
	"model must follow tool",
	"invalid history",
}
