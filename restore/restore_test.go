package restore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbak-archive/sbak/core"
	"github.com/sbak-archive/sbak/repo"
	"github.com/sbak-archive/sbak/restore"
	"github.com/sbak-archive/sbak/scan"
)

func scanIntoNewBank(t *testing.T, target string) (*repo.Bank, repo.History) {
	t.Helper()

	repoDir := t.TempDir()
	r, err := repo.Create(repoDir)
	require.NoError(t, err)
	require.NoError(t, r.CreateBank("b1", target))

	b, err := r.OpenBank("b1")
	require.NoError(t, err)

	ctx := context.Background()

	root, err := scan.NewScanner(b).Scan(ctx)
	require.NoError(t, err)

	now, err := core.Now()
	require.NoError(t, err)
	require.NoError(t, b.SaveHistory(ctx, root.ID, now))

	h, ok, err := b.LastScan()
	require.NoError(t, err)
	require.True(t, ok)

	return b, h
}

func TestRestoreRoundTrip(t *testing.T) {
	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(source, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "sub", "b.txt"), []byte("world"), 0o644))

	b, h := scanIntoNewBank(t, source)

	// The root entry's attributes include its name, so the restore target
	// carries the same base name as the source.
	restoreTarget := filepath.Join(t.TempDir(), filepath.Base(source))
	r := restore.NewRestorer(b)

	ctx := context.Background()
	require.NoError(t, r.Extend(ctx, restoreTarget, h))

	data, err := os.ReadFile(filepath.Join(restoreTarget, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	data, err = os.ReadFile(filepath.Join(restoreTarget, "sub", "b.txt"))
	require.NoError(t, err)
	require.Equal(t, "world", string(data))

	// scanning the restored tree into a fresh bank yields the same root id.
	restoredBank, restoredHistory := scanIntoNewBank(t, restoreTarget)
	_ = restoredBank

	require.Equal(t, h.ID, restoredHistory.ID)
}

func TestRestoreSkipsExistingFileWithoutOverwrite(t *testing.T) {
	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("hello"), 0o644))

	b, h := scanIntoNewBank(t, source)

	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "a.txt"), []byte("untouched"), 0o644))

	r := restore.NewRestorer(b)
	ctx := context.Background()
	require.NoError(t, r.Extend(ctx, target, h))

	data, err := os.ReadFile(filepath.Join(target, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "untouched", string(data))
}

func TestRestoreOverwriteReplacesFile(t *testing.T) {
	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("hello"), 0o644))

	b, h := scanIntoNewBank(t, source)

	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "a.txt"), []byte("untouched"), 0o644))

	r := restore.NewRestorer(b)
	r.AllowOverwrite = true

	ctx := context.Background()
	require.NoError(t, r.Extend(ctx, target, h))

	data, err := os.ReadFile(filepath.Join(target, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestRestoreRemoveDeletesStaleFiles(t *testing.T) {
	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("hello"), 0o644))

	b, h := scanIntoNewBank(t, source)

	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "extra.txt"), []byte("stale"), 0o644))

	r := restore.NewRestorer(b)
	r.AllowOverwrite = true
	r.AllowRemove = true

	ctx := context.Background()
	require.NoError(t, r.Extend(ctx, target, h))

	_, err := os.Stat(filepath.Join(target, "extra.txt"))
	require.True(t, os.IsNotExist(err))
}

func TestRestoreDefersSymlinkCreation(t *testing.T) {
	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "real.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Symlink("real.txt", filepath.Join(source, "link.txt")))

	b, h := scanIntoNewBank(t, source)

	target := t.TempDir()
	r := restore.NewRestorer(b)

	ctx := context.Background()
	require.NoError(t, r.Extend(ctx, target, h))

	_, err := os.Lstat(filepath.Join(target, "link.txt"))
	require.True(t, os.IsNotExist(err), "restore must not create the symlink itself")

	symlinks := r.Symlinks()
	require.Len(t, symlinks, 1)
	require.Equal(t, "real.txt", symlinks[0].To)
}
