package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind names the role of a file the builder reads. It appears in denial
// errors so the user can tell which request field pointed outside.
type Kind string

const (
	KindTemplate  Kind = "template"
	KindReference Kind = "reference"
	KindImage     Kind = "image"
	KindTools     Kind = "tools"
	KindPreset    Kind = "preset"
)

// AccessError reports a file outside every allowed root.
type AccessError struct {
	Kind    Kind
	Path    string
	Allowed []string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("access denied: %s file %q is outside the allowed directories %v", e.Kind, e.Path, e.Allowed)
}

// PathChecker confines file reads to a set of root directories. Roots and
// checked paths are resolved through symlinks, so a link inside a root that
// points elsewhere is denied. No roots means no restriction, and a nil
// checker allows everything.
type PathChecker struct {
	roots []string
}

// NewPathChecker resolves allowed into absolute roots. Blank entries are
// dropped and a leading ~ expands to the home directory.
func NewPathChecker(allowed []string) *PathChecker {
	roots := make([]string, 0, len(allowed))
	for _, p := range allowed {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if r, err := resolve(p); err == nil {
			roots = append(roots, r)
		}
	}
	return &PathChecker{roots: roots}
}

// Restricted reports whether any root is configured.
func (pc *PathChecker) Restricted() bool {
	return pc != nil && len(pc.roots) > 0
}

// Roots returns the resolved allowed roots.
func (pc *PathChecker) Roots() []string {
	if pc == nil {
		return nil
	}
	return pc.roots
}

// Allows reports whether path lies inside one of the roots.
func (pc *PathChecker) Allows(path string) bool {
	if !pc.Restricted() {
		return true
	}
	p, err := resolve(path)
	if err != nil {
		return false
	}
	for _, root := range pc.roots {
		if p == root || strings.HasPrefix(p, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Check returns an *AccessError when a kind file at path may not be read.
func (pc *PathChecker) Check(kind Kind, path string) error {
	if pc.Allows(path) {
		return nil
	}
	return &AccessError{Kind: kind, Path: path, Allowed: pc.Roots()}
}

// resolve returns the absolute, symlink-free form of path. For a path that
// does not exist yet, the deepest existing ancestor is resolved and the rest
// is appended unchanged.
func resolve(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	var rest []string
	cur := abs
	for {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}
