package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Common errors.
var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrEmptyRoot         = errors.New("projects root cannot be empty")
)

const (
	maxSlugLength = 40
	fallbackSlug  = "project"
)

var slugStrip = regexp.MustCompile(`[^a-z0-9-]+`)

// Workspace is one project directory under the projects root.
type Workspace struct {
	// Name is the directory name, also the workspace identifier.
	Name string `json:"name"`

	// Path is the absolute (or root-relative) filesystem location.
	Path string `json:"path"`

	// ModifiedAt is the directory's last modification time.
	ModifiedAt time.Time `json:"modified_at"`
}

// Sanitize normalizes a raw slug candidate into a safe directory name:
// lowercase, hyphen-separated, ASCII alphanumerics only, bounded length.
// Anything that sanitizes to nothing becomes the fallback name.
func Sanitize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	s = slugStrip.ReplaceAllString(s, "")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLength {
		s = strings.Trim(s[:maxSlugLength], "-")
	}
	if s == "" {
		return fallbackSlug
	}
	return s
}

// uniqueDir returns the first unused directory name for slug under root:
// the slug itself, then slug-2, slug-3, and so on.
func uniqueDir(root, slug string) string {
	candidate := slug
	for i := 2; ; i++ {
		if _, err := os.Stat(filepath.Join(root, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", slug, i)
	}
}

// listWorkspaces returns the directories under root, newest first.
func listWorkspaces(root string) ([]Workspace, error) {
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read projects root: %w", err)
	}

	var out []Workspace
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Workspace{
			Name:       e.Name(),
			Path:       filepath.Join(root, e.Name()),
			ModifiedAt: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModifiedAt.After(out[j].ModifiedAt) })
	return out, nil
}
