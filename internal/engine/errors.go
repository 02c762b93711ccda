package engine

// unexpectedError wraps any panic/error surfaced during a turn that isn't
// one of the engine's own classified failures, so Finalize can still
// record a clean status (spec §4.5, "Catch-alls").
type unexpectedError struct {
	cause error
}

func (e *unexpectedError) Error() string { return "unexpected agent error: " + e.cause.Error() }
func (e *unexpectedError) Unwrap() error { return e.cause }
