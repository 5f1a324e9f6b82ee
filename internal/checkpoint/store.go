package checkpoint

import (
	"context"
	"errors"
	"time"

	"github.com/fyrsmithlabs/orchestrd/internal/session"
)

// ErrNotFound is returned when a session has no checkpoints.
var ErrNotFound = errors.New("checkpoint: not found")

// Checkpoint is one immutable snapshot of a session. PendingStage is the
// stage the pipeline suspended before, or empty when the snapshot was
// taken at a routing boundary.
type Checkpoint struct {
	ID           string         `json:"id"`
	SessionID    string         `json:"session_id"`
	State        *session.State `json:"state"`
	PendingStage string         `json:"pending_stage,omitempty"`
	Version      int            `json:"version"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Store persists checkpoints. Implementations assign IDs and versions;
// versions are monotonically increasing per session. Stored state must be
// isolated from later mutation by the caller.
type Store interface {
	// Put saves a snapshot and returns it with ID and Version assigned.
	Put(ctx context.Context, sessionID string, st *session.State, pendingStage string) (*Checkpoint, error)

	// GetLatest returns the highest-version checkpoint for the session,
	// or ErrNotFound.
	GetLatest(ctx context.Context, sessionID string) (*Checkpoint, error)

	// List returns all checkpoints for the session in version order.
	List(ctx context.Context, sessionID string) ([]*Checkpoint, error)

	// Sessions returns the IDs of all sessions with at least one
	// checkpoint, sorted.
	Sessions(ctx context.Context) ([]string, error)
}
