package catalogcache

import (
	"os"
	"path/filepath"
	"strings"
)

// canonicalPath resolves raw to an absolute path with symlinks and ".." segments removed.
// When resolution fails it falls back to the absolute form, then to the cleaned input,
// and reports false.
func canonicalPath(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return filepath.Clean(raw), false
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, false
	}
	return resolved, true
}

// absolutePath returns the cleaned absolute form of raw without resolving symlinks.
func absolutePath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		return filepath.Clean(raw)
	}
	return abs
}

// withinRoot reports whether path is root or lies beneath it.
// Unlike a plain prefix test, "/plugins-old/x" is not within "/plugins".
func withinRoot(path, root string) bool {
	if path == "" || root == "" {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}
