// Package fsops writes files confined to a root directory.
package fsops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that resolve outside the root.
var ErrOutsideRoot = errors.New("fsops: path resolves outside the root")

// Root is an absolute, symlink-resolved directory.
type Root struct {
	dir string
}

// NewRoot resolves dir (the working directory when empty) to an absolute
// path. dir need not exist yet.
func NewRoot(dir string) (Root, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Root{}, fmt.Errorf("getwd: %w", err)
		}
		dir = cwd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Root{}, fmt.Errorf("abs(%s): %w", dir, err)
	}
	// Resolve symlinks where possible so later boundary checks are reliable.
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		abs = r
	}
	return Root{dir: abs}, nil
}

// Dir returns the absolute root directory.
func (r Root) Dir() string { return r.dir }

// Resolve returns the absolute path of rel inside the root. Absolute inputs,
// parent traversal and symlinked escapes are rejected with ErrOutsideRoot.
func (r Root) Resolve(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: absolute path %q", ErrOutsideRoot, rel)
	}
	candidate := filepath.Join(r.dir, filepath.Clean(rel))

	// The leaf may not exist yet; resolve the parent to catch symlinked directories.
	if resolved, err := filepath.EvalSymlinks(candidate); err == nil {
		candidate = resolved
	} else if parent, err := filepath.EvalSymlinks(filepath.Dir(candidate)); err == nil {
		candidate = filepath.Join(parent, filepath.Base(candidate))
	}

	out, err := filepath.Rel(r.dir, candidate)
	if err != nil || out == "." || out == ".." || strings.HasPrefix(out, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, rel)
	}
	return candidate, nil
}

// WriteFile writes content to rel under the root, creating parent
// directories. The file is replaced atomically.
func (r Root) WriteFile(rel, content string) (string, error) {
	path, err := r.Resolve(rel)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, ".olier-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}
