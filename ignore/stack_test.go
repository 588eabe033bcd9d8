package ignore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbak-archive/sbak/ignore"
)

func TestStackCascadesToParent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))

	bankPatterns, err := ignore.ParsePatterns("*.log\n")
	require.NoError(t, err)

	stack := ignore.NewStack(root, bankPatterns)

	subStack, err := stack.Child("sub")
	require.NoError(t, err)

	ignored, err := subStack.Ignored(filepath.Join(root, "sub", "a.log"), false)
	require.NoError(t, err)
	require.True(t, ignored)
}

func TestStackChildReadsOwnDirectory(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, ignore.DirIgnoreFileName), []byte("*.tmp\n"), 0o644))

	stack := ignore.NewStack(root, ignore.Patterns{})

	subStack, err := stack.Child("sub")
	require.NoError(t, err)

	ignored, err := subStack.Ignored(filepath.Join(sub, "a.tmp"), false)
	require.NoError(t, err)
	require.True(t, ignored)

	// The root frame never reads .sbakignore from disk: it only carries
	// the bank-wide patterns it was constructed with.
	ignoredAtRoot, err := stack.Ignored(filepath.Join(root, "a.tmp"), false)
	require.NoError(t, err)
	require.False(t, ignoredAtRoot)
}

func TestStackRootWithNoOpinionIsNotIgnored(t *testing.T) {
	root := t.TempDir()

	stack := ignore.NewStack(root, ignore.Patterns{})

	ignored, err := stack.Ignored(filepath.Join(root, "a.txt"), false)
	require.NoError(t, err)
	require.False(t, ignored)
}
