package project

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// ignoreSet holds exclusion patterns for workspace file loading, combining
// the built-in dependency-directory skips with the workspace's .gitignore.
// Negation patterns are not supported; a negated line is ignored.
type ignoreSet struct {
	patterns []string
}

// loadIgnoreSet reads .gitignore from the workspace root. A missing file
// yields an empty set.
func loadIgnoreSet(root string) (*ignoreSet, error) {
	file, err := os.Open(filepath.Join(root, ".gitignore"))
	if os.IsNotExist(err) {
		return &ignoreSet{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	set := &ignoreSet{}
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		pattern := parseIgnoreLine(scanner.Text())
		if pattern == "" || seen[pattern] {
			continue
		}
		seen[pattern] = true
		set.patterns = append(set.patterns, pattern)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// Match reports whether the slash-separated relative path is excluded.
func (s *ignoreSet) Match(rel string) bool {
	if s == nil {
		return false
	}
	segments := strings.Split(rel, "/")
	for _, pattern := range s.patterns {
		if strings.Contains(pattern, "/") {
			// Anchored pattern: match against the full relative path.
			if ok, _ := filepath.Match(pattern, rel); ok {
				return true
			}
			if strings.HasSuffix(pattern, "/") && strings.HasPrefix(rel, pattern) {
				return true
			}
			continue
		}
		// Bare pattern: match any path segment.
		for _, seg := range segments {
			if ok, _ := filepath.Match(pattern, seg); ok {
				return true
			}
		}
	}
	return false
}

// parseIgnoreLine normalizes one .gitignore line. Comments, blanks, and
// negations yield the empty string.
func parseIgnoreLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
		return ""
	}
	line = strings.TrimPrefix(line, "/")
	return line
}
