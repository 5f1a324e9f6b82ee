package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/orchestrd/internal/session"
)

// FileStore persists checkpoints as JSON files, one directory per session,
// one file per version. It survives process restarts, which is what makes
// interrupt/resume work across separate runs.
type FileStore struct {
	root string
	mu   sync.Mutex
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return &FileStore{root: dir}, nil
}

// Put implements Store.
func (f *FileStore) Put(_ context.Context, sessionID string, st *session.State, pendingStage string) (*Checkpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := f.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	versions, err := listVersions(dir)
	if err != nil {
		return nil, err
	}
	next := 1
	if len(versions) > 0 {
		next = versions[len(versions)-1] + 1
	}

	cp := &Checkpoint{
		ID:           uuid.NewString(),
		SessionID:    sessionID,
		State:        st.Clone(),
		PendingStage: pendingStage,
		Version:      next,
		CreatedAt:    time.Now().UTC(),
	}
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := os.WriteFile(versionPath(dir, next), data, 0600); err != nil {
		return nil, fmt.Errorf("write checkpoint: %w", err)
	}
	return cp, nil
}

// GetLatest implements Store.
func (f *FileStore) GetLatest(_ context.Context, sessionID string) (*Checkpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := f.sessionDir(sessionID)
	versions, err := listVersions(dir)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, ErrNotFound
	}
	return readCheckpoint(versionPath(dir, versions[len(versions)-1]))
}

// List implements Store.
func (f *FileStore) List(_ context.Context, sessionID string) ([]*Checkpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := f.sessionDir(sessionID)
	versions, err := listVersions(dir)
	if err != nil {
		return nil, err
	}
	out := make([]*Checkpoint, 0, len(versions))
	for _, v := range versions {
		cp, err := readCheckpoint(versionPath(dir, v))
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

// Sessions implements Store. IDs are read back from the newest checkpoint
// in each session directory, so sanitized directory names never leak out.
func (f *FileStore) Sessions(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint root: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(f.root, e.Name())
		versions, err := listVersions(dir)
		if err != nil {
			return nil, err
		}
		if len(versions) == 0 {
			continue
		}
		cp, err := readCheckpoint(versionPath(dir, versions[len(versions)-1]))
		if err != nil {
			return nil, err
		}
		ids = append(ids, cp.SessionID)
	}
	sort.Strings(ids)
	return ids, nil
}

// sessionDir keeps session IDs from escaping the root. IDs are UUIDs in
// practice, but a hostile ID must not become a path traversal.
func (f *FileStore) sessionDir(sessionID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, sessionID)
	return filepath.Join(f.root, safe)
}

func versionPath(dir string, version int) string {
	return filepath.Join(dir, fmt.Sprintf("%06d.json", version))
}

func listVersions(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session dir: %w", err)
	}
	var versions []int
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var v int
		if _, err := fmt.Sscanf(e.Name(), "%d.json", &v); err == nil {
			versions = append(versions, v)
		}
	}
	sort.Ints(versions)
	return versions, nil
}

func readCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", filepath.Base(path), err)
	}
	return &cp, nil
}
