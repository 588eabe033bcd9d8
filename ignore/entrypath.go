// Package ignore implements gitignore-style exclusion patterns and the
// per-directory stack that cascades them down a source tree.
package ignore

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotChild is returned when a path is not contained under the root it
// is being resolved against.
var ErrNotChild = errors.New("path is not a child of root")

// EntryPath is a source-tree-relative path, decomposed into its ordered
// Unicode components, plus whether the entry is a directory.
type EntryPath struct {
	Parts []string
	IsDir bool
}

// NewEntryPath resolves entry relative to root and decomposes it into
// Unicode components. A ".." component pops the last part; popping past
// the start, or any other non-normal component, is an error.
func NewEntryPath(root, entry string, isDir bool) (EntryPath, error) {
	rel, err := filepath.Rel(root, entry)
	if err != nil {
		return EntryPath{}, errors.Wrapf(ErrNotChild, "%s relative to %s", entry, root)
	}

	rel = filepath.ToSlash(rel)
	if rel == "." {
		return EntryPath{IsDir: isDir}, nil
	}

	var parts []string

	for _, c := range strings.Split(rel, "/") {
		switch c {
		case "..":
			if len(parts) == 0 {
				return EntryPath{}, errors.Wrapf(ErrNotChild, "%s escapes root %s", entry, root)
			}

			parts = parts[:len(parts)-1]
		case ".", "":
			return EntryPath{}, errors.Errorf("invalid path component %q in %s", c, entry)
		default:
			parts = append(parts, c)
		}
	}

	return EntryPath{Parts: parts, IsDir: isDir}, nil
}
