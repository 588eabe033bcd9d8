package scan_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sbak-archive/sbak/core"
	"github.com/sbak-archive/sbak/repo"
	"github.com/sbak-archive/sbak/scan"
)

func newTestBank(t *testing.T, target string) *repo.Bank {
	t.Helper()

	repoDir := t.TempDir()

	r, err := repo.Create(repoDir)
	require.NoError(t, err)
	require.NoError(t, r.CreateBank("b1", target))

	b, err := r.OpenBank("b1")
	require.NoError(t, err)

	return b
}

func TestScanDeterministicAcrossRuns(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(target, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "sub", "b.txt"), []byte("world"), 0o644))

	b := newTestBank(t, target)
	ctx := context.Background()

	first, err := scan.NewScanner(b).Scan(ctx)
	require.NoError(t, err)

	now, err := core.Now()
	require.NoError(t, err)
	require.NoError(t, b.SaveHistory(ctx, first.ID, now))

	second, err := scan.NewScanner(b).Scan(ctx)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
}

func TestScanChangedContentChangesID(t *testing.T) {
	target := t.TempDir()
	file := filepath.Join(target, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("hello"), 0o644))

	b := newTestBank(t, target)
	ctx := context.Background()

	first, err := scan.NewScanner(b).Scan(ctx)
	require.NoError(t, err)

	now, err := core.Now()
	require.NoError(t, err)
	require.NoError(t, b.SaveHistory(ctx, first.ID, now))

	// Advance the modification time so the scanner takes the re-hash path
	// instead of reusing the prior entry.
	future := now.Time().Add(48 * time.Hour)
	require.NoError(t, os.WriteFile(file, []byte("goodbye"), 0o644))
	require.NoError(t, os.Chtimes(file, future, future))

	second, err := scan.NewScanner(b).Scan(ctx)
	require.NoError(t, err)

	require.NotEqual(t, first.ID, second.ID)
}

func TestScanRespectsIgnorePatterns(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep.txt"), []byte("keep"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(target, "skip.log"), []byte("skip"), 0o644))

	repoDir := t.TempDir()
	r, err := repo.Create(repoDir)
	require.NoError(t, err)
	require.NoError(t, r.CreateBank("b1", target))

	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "banks", "b1", "ignore"), []byte("*.log\n"), 0o644))

	b, err := r.OpenBank("b1")
	require.NoError(t, err)

	ctx := context.Background()
	root, err := scan.NewScanner(b).Scan(ctx)
	require.NoError(t, err)

	now, err := core.Now()
	require.NoError(t, err)
	require.NoError(t, b.SaveHistory(ctx, root.ID, now))

	h, _, err := b.LastScan()
	require.NoError(t, err)

	dir, err := b.LoadRoot(ctx, h)
	require.NoError(t, err)

	_, hasKeep := dir.FindChild("keep.txt")
	_, hasSkip := dir.FindChild("skip.log")
	require.True(t, hasKeep)
	require.False(t, hasSkip)
}

func TestScanSymlink(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "real.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Symlink("real.txt", filepath.Join(target, "link.txt")))

	b := newTestBank(t, target)
	ctx := context.Background()

	root, err := scan.NewScanner(b).Scan(ctx)
	require.NoError(t, err)

	now, err := core.Now()
	require.NoError(t, err)
	require.NoError(t, b.SaveHistory(ctx, root.ID, now))

	h, _, err := b.LastScan()
	require.NoError(t, err)

	dir, err := b.LoadRoot(ctx, h)
	require.NoError(t, err)

	link, ok := dir.FindChild("link.txt")
	require.True(t, ok)
	require.Equal(t, core.EntryTypeSymlink, link.Type)

	entry, err := b.LoadEntry(ctx, link.ID)
	require.NoError(t, err)

	sym, err := core.AsSymlink(entry)
	require.NoError(t, err)
	require.Equal(t, "real.txt", sym.Target())
}
