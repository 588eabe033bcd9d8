package ignore

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/sbak-archive/sbak/core"
)

// DirIgnoreFileName is the per-directory ignore file consulted when
// pushing a child Stack frame.
const DirIgnoreFileName = ".sbakignore"

// Stack is a linked chain of per-directory ignore frames. The root frame
// carries a bank's bank-wide patterns; each child frame carries the
// patterns parsed from its own directory's .sbakignore file, cascading
// up to its parent when it has no opinion.
type Stack struct {
	rootPath string
	parent   *Stack
	patterns Patterns
}

// NewStack starts a root frame bound to rootPath (the bank's target
// directory) carrying the bank-wide patterns.
func NewStack(rootPath string, bankPatterns Patterns) *Stack {
	return &Stack{rootPath: rootPath, patterns: bankPatterns}
}

// Child derives the frame for the subdirectory dirName of s, loading
// <dirName>/.sbakignore if present.
func (s *Stack) Child(dirName string) (*Stack, error) {
	rootPath := s.rootPath
	if s.parent != nil {
		rootPath = filepath.Join(s.rootPath, dirName)
	}

	ignorePath := filepath.Join(rootPath, DirIgnoreFileName)

	data, err := os.ReadFile(ignorePath)

	var patterns Patterns

	switch {
	case err == nil:
		patterns, err = ParsePatterns(string(data))
		if err != nil {
			return nil, &core.ParseError{Path: ignorePath, Cause: err}
		}
	case os.IsNotExist(err):
		// no per-directory ignore file: empty pattern set
	default:
		return nil, errors.Wrapf(err, "reading %s", ignorePath)
	}

	return &Stack{rootPath: rootPath, parent: s, patterns: patterns}, nil
}

// Ignored reports whether path (a path under the bank's target tree,
// given in the same absolute or relative form as the stack's root path)
// is excluded, cascading to the parent frame when
// this frame has no opinion. A root frame with no opinion resolves to
// not-ignored.
func (s *Stack) Ignored(path string, isDir bool) (bool, error) {
	ep, err := NewEntryPath(s.rootPath, path, isDir)
	if err != nil {
		return false, err
	}

	switch s.patterns.Matches(ep) {
	case MatchAllowed:
		return false, nil
	case MatchIgnored:
		return true, nil
	}

	if s.parent != nil {
		return s.parent.Ignored(path, isDir)
	}

	return false, nil
}
