package sessions

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/coreflux/agentturn/pkg/models"
)

// MemoryStore is an in-memory Store, safe for concurrent use. It clones
// state on every Get/Save so callers can't mutate another caller's copy
// behind the store's back — the same discipline the teacher's in-memory
// store applies to its own session map.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.SessionState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*models.SessionState)}
}

func (m *MemoryStore) Create(ctx context.Context, user *models.User) (string, error) {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = models.NewSessionState(user)
	return id, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.SessionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneState(state), nil
}

func (m *MemoryStore) Save(ctx context.Context, id string, state *models.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	m.sessions[id] = cloneState(state)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

// cloneState deep-copies the slice/map fields a caller could otherwise
// mutate through a shared pointer after Get/Save returns.
func cloneState(s *models.SessionState) *models.SessionState {
	if s == nil {
		return nil
	}
	clone := *s

	clone.Messages = append([]*models.Message(nil), s.Messages...)
	clone.PreviousToolCalls = append([]models.PreviousToolCall(nil), s.PreviousToolCalls...)
	clone.Scratchpad = append([]models.ScratchpadEntry(nil), s.Scratchpad...)
	clone.CompletedWorkflows = append([]*models.WorkflowContext(nil), s.CompletedWorkflows...)

	clone.ActiveWorkflows = make(map[string]*models.WorkflowContext, len(s.ActiveWorkflows))
	for id, wf := range s.ActiveWorkflows {
		wfCopy := *wf
		clone.ActiveWorkflows[id] = &wfCopy
	}

	if s.CurrentUser != nil {
		userCopy := *s.CurrentUser
		clone.CurrentUser = &userCopy
	}

	return &clone
}
