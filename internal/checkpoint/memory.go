package checkpoint

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/orchestrd/internal/session"
)

// MemoryStore keeps checkpoints in process memory. Snapshots are deep
// copies, so callers may keep mutating their state after Put.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]*Checkpoint
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]*Checkpoint)}
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, sessionID string, st *session.State, pendingStage string) (*Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := &Checkpoint{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		State:        st.Clone(),
		PendingStage: pendingStage,
		Version:      len(m.sessions[sessionID]) + 1,
		CreatedAt:    time.Now().UTC(),
	}
	m.sessions[sessionID] = append(m.sessions[sessionID], cp)
	return cp, nil
}

// GetLatest implements Store.
func (m *MemoryStore) GetLatest(_ context.Context, sessionID string) (*Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cps := m.sessions[sessionID]
	if len(cps) == 0 {
		return nil, ErrNotFound
	}
	latest := *cps[len(cps)-1]
	latest.State = latest.State.Clone()
	return &latest, nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, sessionID string) ([]*Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cps := m.sessions[sessionID]
	out := make([]*Checkpoint, len(cps))
	copy(out, cps)
	return out, nil
}

// Sessions implements Store.
func (m *MemoryStore) Sessions(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
