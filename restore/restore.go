// Package restore rematerialises a bank snapshot onto a target directory.
package restore

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/sbak-archive/sbak/core"
	"github.com/sbak-archive/sbak/internal/slog"
	"github.com/sbak-archive/sbak/repo"
)

var restoreLog = slog.Module("sbak/restore")

// bank is the subset of *repo.Bank the restorer needs.
type bank interface {
	LoadRoot(ctx context.Context, h repo.History) (*core.DirEntry, error)
	LoadEntry(ctx context.Context, id core.HashID) (core.Entry, error)
	OpenObject(ctx context.Context, id core.HashID) (*os.File, error)
}

// Symlink is a deferred symlink-creation record: the snapshot did not
// recreate the link itself, because doing so may require elevated
// privileges the restoring process does not have.
type Symlink struct {
	From  string
	To    string
	IsDir bool
}

// Restorer rematerialises a bank's snapshot tree under a target directory.
type Restorer struct {
	bank           bank
	AllowOverwrite bool
	AllowRemove    bool
	symlinks       []Symlink
}

// NewRestorer returns a Restorer reading objects from b. AllowOverwrite
// and AllowRemove both default to false.
func NewRestorer(b *repo.Bank) *Restorer {
	return &Restorer{bank: b}
}

// Symlinks returns the symlink records accumulated by the most recent
// call to Extend. The caller is responsible for actually creating them.
func (r *Restorer) Symlinks() []Symlink {
	return r.symlinks
}

// Extend rematerialises history's snapshot under target.
func (r *Restorer) Extend(ctx context.Context, target string, history repo.History) error {
	r.symlinks = nil

	root, err := r.bank.LoadRoot(ctx, history)
	if err != nil {
		return errors.Wrap(err, "loading snapshot root")
	}

	restoreLog(ctx).Infof("extending to %s from history %s %s", target, history.Timestamp, history.ID)

	return r.extendDir(ctx, target, root)
}

func (r *Restorer) extendDir(ctx context.Context, path string, dir *core.DirEntry) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.Mkdir(path, 0o755); err != nil {
			return errors.Wrapf(err, "creating directory %s", path)
		}
	}

	if r.AllowOverwrite {
		if err := setReadOnly(path, false); err != nil {
			return errors.Wrapf(err, "clearing readonly on %s", path)
		}
	}

	created := make(map[string]bool)

	for _, ch := range dir.Children() {
		childPath := filepath.Join(path, ch.Attr.Name)

		switch ch.Type {
		case core.EntryTypeDir:
			e, err := r.bank.LoadEntry(ctx, ch.ID)
			if err != nil {
				return errors.Wrapf(err, "loading directory entry for %s", childPath)
			}

			chDir, err := core.AsDir(e)
			if err != nil {
				return errors.Wrapf(err, "entry for %s", childPath)
			}

			if err := r.extendDir(ctx, childPath, chDir); err != nil {
				return err
			}
		case core.EntryTypeFile:
			if err := r.extendFile(ctx, childPath, ch); err != nil {
				return err
			}
		case core.EntryTypeSymlink:
			e, err := r.bank.LoadEntry(ctx, ch.ID)
			if err != nil {
				return errors.Wrapf(err, "loading symlink entry for %s", childPath)
			}

			sym, err := core.AsSymlink(e)
			if err != nil {
				return errors.Wrapf(err, "entry for %s", childPath)
			}

			r.symlinks = append(r.symlinks, Symlink{From: childPath, To: sym.Target(), IsDir: sym.IsDir()})
		default:
			return errors.Errorf("unknown entry type %q for %s", ch.Type, childPath)
		}

		created[childPath] = true
	}

	if err := r.removeStale(ctx, path, created); err != nil {
		return err
	}

	modTime := dir.Attr().Modified.Time()
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		return errors.Wrapf(err, "setting modification time on %s", path)
	}

	if r.AllowOverwrite {
		if err := setReadOnly(path, dir.Attr().ReadOnly); err != nil {
			return errors.Wrapf(err, "restoring readonly on %s", path)
		}
	}

	return nil
}

// removeStale deletes (or logs and skips) every entry under path not in
// the created set.
func (r *Restorer) removeStale(ctx context.Context, path string, created map[string]bool) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return errors.Wrapf(err, "listing %s", path)
	}

	for _, e := range entries {
		childPath := filepath.Join(path, e.Name())
		if created[childPath] {
			continue
		}

		if !r.AllowRemove {
			restoreLog(ctx).Infof("skip removing %s", childPath)
			continue
		}

		restoreLog(ctx).Infof("removing %s", childPath)

		if e.IsDir() {
			if err := os.RemoveAll(childPath); err != nil {
				return errors.Wrapf(err, "removing directory %s", childPath)
			}
		} else if err := os.Remove(childPath); err != nil {
			return errors.Wrapf(err, "removing file %s", childPath)
		}
	}

	return nil
}

// extendFile skips an existing file when overwrite is disallowed, or
// when allowed but the target's modification time already matches the
// snapshot's (assumed identical content). Otherwise it streams the
// verified object over the target path.
func (r *Restorer) extendFile(ctx context.Context, path string, ch core.FsHash) error {
	info, statErr := os.Stat(path)
	exists := statErr == nil

	if exists && !r.AllowOverwrite {
		restoreLog(ctx).Infof("skip existing file %s", path)
		return nil
	}

	if exists {
		modified, err := core.NewTimestamp(info.ModTime())
		if err == nil && modified.Equal(ch.Attr.Modified) {
			restoreLog(ctx).Infof("skip unchanged file %s", path)
			return nil
		}
	}

	src, err := r.bank.OpenObject(ctx, ch.ID)
	if err != nil {
		return errors.Wrapf(err, "opening object for %s", path)
	}
	defer src.Close()

	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return errors.Wrapf(err, "writing %s", path)
	}

	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", path)
	}

	if err := setReadOnly(path, ch.Attr.ReadOnly); err != nil {
		return errors.Wrapf(err, "setting readonly on %s", path)
	}

	modTime := ch.Attr.Modified.Time()
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		return errors.Wrapf(err, "setting modification time on %s", path)
	}

	return nil
}

func setReadOnly(path string, readOnly bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if readOnly {
		mode &^= 0o222
	} else {
		mode |= 0o200
	}

	return os.Chmod(path, mode)
}
