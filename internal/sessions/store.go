// Package sessions provides a persistence interface for
// models.SessionState, plus an in-memory reference implementation used by
// engine tests and the demo CLI (SPEC_FULL §2.4). Session persistence
// format itself is an explicit Non-goal (spec §1) — this package only
// needs to exist so callers driving internal/engine across multiple turns
// have somewhere to keep state between calls.
package sessions

import (
	"context"

	"github.com/coreflux/agentturn/pkg/models"
)

// Store persists SessionState between turns, keyed by an opaque session ID.
type Store interface {
	// Create allocates a new session for user, returning its ID.
	Create(ctx context.Context, user *models.User) (string, error)

	// Get returns the session state for id, or an error if it doesn't exist.
	Get(ctx context.Context, id string) (*models.SessionState, error)

	// Save persists state back under id.
	Save(ctx context.Context, id string, state *models.SessionState) error

	// Delete removes a session, if present.
	Delete(ctx context.Context, id string) error

	// List returns every known session ID.
	List(ctx context.Context) ([]string, error)
}

// ErrNotFound is returned by Get/Save/Delete when id names no session.
var ErrNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "session not found" }
