package project

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/orchestrd/internal/conversation"
	"github.com/fyrsmithlabs/orchestrd/internal/llm"
	"github.com/fyrsmithlabs/orchestrd/internal/logging"
)

// maxLoadedFileSize bounds files loaded back as seed context.
const maxLoadedFileSize = 256 * 1024

// skipDirs are directory names never loaded back into context.
var skipDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"__pycache__":  {},
	".venv":        {},
	"venv":         {},
}

const slugPrompt = `Suggest a short project directory name for this task.
Answer with ONLY the name: lowercase words separated by hyphens, at most
four words, no explanation.

Task: %s`

// Manager creates, lists, and loads workspaces under a projects root.
type Manager struct {
	root   string
	client *llm.Client
	logger *logging.Logger
}

// NewManager creates a manager rooted at root. client may be nil, in which
// case workspace names fall back to sanitizing the prompt directly.
func NewManager(root string, client *llm.Client, logger *logging.Logger) (*Manager, error) {
	if root == "" {
		return nil, ErrEmptyRoot
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{root: root, client: client, logger: logger}, nil
}

// Root returns the projects root directory.
func (m *Manager) Root() string { return m.root }

// Create makes a fresh workspace for prompt. The directory name comes from
// the reasoning backend when available, sanitized and de-duplicated with a
// numeric suffix; backend failures degrade to a prompt-derived name.
func (m *Manager) Create(ctx context.Context, prompt string) (*Workspace, error) {
	slug := m.slugFor(ctx, prompt)
	name := uniqueDir(m.root, slug)
	path := filepath.Join(m.root, name)

	if err := os.MkdirAll(path, 0750); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", name, err)
	}
	m.logger.Info("workspace created", zap.String("name", name), zap.String("path", path))

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat workspace %s: %w", name, err)
	}
	return &Workspace{Name: name, Path: path, ModifiedAt: info.ModTime()}, nil
}

// List returns existing workspaces, newest first.
func (m *Manager) List(_ context.Context) ([]Workspace, error) {
	return listWorkspaces(m.root)
}

// Get returns the named workspace or ErrWorkspaceNotFound.
func (m *Manager) Get(_ context.Context, name string) (*Workspace, error) {
	path := filepath.Join(m.root, filepath.Base(name))
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrWorkspaceNotFound, name)
	}
	return &Workspace{Name: filepath.Base(name), Path: path, ModifiedAt: info.ModTime()}, nil
}

// LoadFiles reads the workspace's text files as relative-path => content.
// Binary files, oversized files, and dependency directories are skipped.
func (m *Manager) LoadFiles(ctx context.Context, name string) (map[string]string, error) {
	ws, err := m.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	ignore, err := loadIgnoreSet(ws.Path)
	if err != nil {
		return nil, fmt.Errorf("load workspace %s: %w", name, err)
	}

	files := make(map[string]string)
	err = filepath.WalkDir(ws.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(ws.Path, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if _, skip := skipDirs[d.Name()]; skip || ignore.Match(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if ignore.Match(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > maxLoadedFileSize {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if !utf8.Valid(data) {
			return nil
		}
		files[rel] = string(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load workspace %s: %w", name, err)
	}
	return files, nil
}

// slugFor asks the backend for a directory name, falling back to the
// prompt's leading words when the backend is absent or fails.
func (m *Manager) slugFor(ctx context.Context, prompt string) string {
	if m.client != nil {
		resp, err := m.client.Complete(ctx, llm.RoleSupervisor, 0, []conversation.Message{
			conversation.User(fmt.Sprintf(slugPrompt, prompt)),
		}, nil)
		if err == nil && strings.TrimSpace(resp.Content) != "" {
			return Sanitize(firstLine(resp.Content))
		}
		if err != nil {
			m.logger.Warn("workspace name generation failed, using prompt-derived name", zap.Error(err))
		}
	}

	words := strings.Fields(prompt)
	if len(words) > 4 {
		words = words[:4]
	}
	return Sanitize(strings.Join(words, "-"))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
