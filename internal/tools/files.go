package tools

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// workspace resolves artifact paths under a single root directory.
type workspace struct {
	root string
}

// resolve joins name onto the workspace root, rejecting escapes.
func (w *workspace) resolve(name string) (string, error) {
	root, err := filepath.Abs(w.root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace: %w", err)
	}
	candidate := filepath.Join(root, filepath.Clean("/"+name))
	if candidate != root && !strings.HasPrefix(candidate, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %s", name)
	}
	return candidate, nil
}

func writeArtifactTool(ws *workspace) Tool {
	return Tool{
		Name:        ToolWriteArtifact,
		Description: "Write content to a file in the project workspace. Overwrites the file if it exists.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"filename": map[string]any{
					"type":        "string",
					"description": "Relative path within the workspace, e.g. \"src/main.py\".",
				},
				"content": map[string]any{
					"type":        "string",
					"description": "The full content to write.",
				},
			},
			"required": []string{"filename", "content"},
		},
		Mutating: true,
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			filename := stringArg(args, "filename", "")
			if filename == "" {
				return "", fmt.Errorf("filename is required")
			}
			content := stringArg(args, "content", "")

			path, err := ws.resolve(filename)
			if err != nil {
				return "", err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return "", fmt.Errorf("failed to create directory: %w", err)
			}
			if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
				return "", fmt.Errorf("failed to write file: %w", err)
			}
			return fmt.Sprintf("Written %d bytes to %s", len(content), filename), nil
		},
	}
}

func readArtifactTool(ws *workspace) Tool {
	return Tool{
		Name:        ToolReadArtifact,
		Description: "Read a file from the project workspace.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"filename": map[string]any{
					"type":        "string",
					"description": "Relative path within the workspace.",
				},
			},
			"required": []string{"filename"},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			filename := stringArg(args, "filename", "")
			if filename == "" {
				return "", fmt.Errorf("filename is required")
			}
			path, err := ws.resolve(filename)
			if err != nil {
				return "", err
			}
			content, err := os.ReadFile(path)
			if os.IsNotExist(err) {
				// Not-found marker, not an error: the backend reacts to it.
				return fmt.Sprintf("File not found: %s", filename), nil
			}
			if err != nil {
				return "", fmt.Errorf("failed to read file: %w", err)
			}
			return string(content), nil
		},
	}
}

func listArtifactsTool(ws *workspace) Tool {
	return Tool{
		Name:        ToolListArtifacts,
		Description: "List files under a directory in the project workspace, recursively.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"directory": map[string]any{
					"type":        "string",
					"description": "Relative directory path. Defaults to the workspace root.",
				},
			},
		},
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			dir := stringArg(args, "directory", ".")
			base, err := ws.resolve(dir)
			if err != nil {
				return "", err
			}
			root, err := filepath.Abs(ws.root)
			if err != nil {
				return "", fmt.Errorf("failed to resolve workspace: %w", err)
			}

			var files []string
			err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					return nil
				}
				rel, err := filepath.Rel(root, path)
				if err != nil {
					return err
				}
				files = append(files, rel)
				return nil
			})
			if os.IsNotExist(err) || len(files) == 0 {
				// Absent or empty directory is an empty listing, not an error.
				return "(empty)", nil
			}
			if err != nil {
				return "", fmt.Errorf("failed to list files: %w", err)
			}
			sort.Strings(files)
			return strings.Join(files, "\n"), nil
		},
	}
}
