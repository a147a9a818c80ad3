// Package fsutil holds filename and path hygiene for user-supplied names.
package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var ErrPathTraversal = errors.New("path escapes root")

// ErrEmptyFilename is returned when nothing usable survives sanitizing.
var ErrEmptyFilename = errors.New("filename is empty after sanitizing")

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SanitizeFilename reduces a client-supplied upload name to a safe base name:
// directory components (either slash style) are dropped, whitespace becomes
// '_', anything outside [A-Za-z0-9_.-] is removed, and leading dots are
// trimmed so the result is never hidden or a relative reference.
func SanitizeFilename(name string) (string, error) {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, "._")
	if len(name) > 120 {
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:120-len(ext)] + ext
	}
	if name == "" {
		return "", ErrEmptyFilename
	}
	return name, nil
}

// ResolveWithinRoot maps a user-provided relative path under root and
// rejects anything that would land outside it, including through an
// existing symlink.
func ResolveWithinRoot(root, userPath string) (string, error) {
	if root == "" {
		return "", errors.New("root is required")
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	rootAbs = filepath.Clean(rootAbs)

	rel := filepath.FromSlash(strings.TrimLeft(userPath, `/\`))
	joined := filepath.Clean(filepath.Join(rootAbs, rel))
	if !isWithin(rootAbs, joined) {
		return "", ErrPathTraversal
	}

	// Walk the existing components below root; any symlink is refused.
	cur := rootAbs
	rest, _ := filepath.Rel(rootAbs, joined)
	for _, part := range strings.Split(rest, string(filepath.Separator)) {
		if part == "" || part == "." {
			continue
		}
		cur = filepath.Join(cur, part)
		st, err := os.Lstat(cur)
		if errors.Is(err, os.ErrNotExist) {
			break
		}
		if err != nil {
			return "", err
		}
		if st.Mode()&os.ModeSymlink != 0 {
			return "", ErrPathTraversal
		}
	}
	return joined, nil
}

func isWithin(root, candidate string) bool {
	if root == candidate {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(candidate, root)
}
