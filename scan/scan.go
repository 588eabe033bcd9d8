// Package scan implements the incremental directory walk that turns a
// bank's target tree into a new snapshot, reusing unchanged file entries
// from the prior scan wherever possible.
package scan

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/sbak-archive/sbak/core"
	"github.com/sbak-archive/sbak/ignore"
	"github.com/sbak-archive/sbak/internal/slog"
	"github.com/sbak-archive/sbak/repo"
)

var scanLog = slog.Module("sbak/scan")

type scanSessionKeyType int

const scanSessionKey scanSessionKeyType = 0

// withScanSession attaches id to ctx so every log line emitted during this
// Scan call can be traced back to the same run.
func withScanSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, scanSessionKey, id)
}

func scanSessionID(ctx context.Context) string {
	id, _ := ctx.Value(scanSessionKey).(string)
	return id
}

// bank is the subset of *repo.Bank the scanner needs, narrowed so tests
// can exercise the algorithm against a fake.
type bank interface {
	TargetPath() string
	LastScan() (repo.History, bool, error)
	LoadRoot(ctx context.Context, h repo.History) (*core.DirEntry, error)
	LoadEntry(ctx context.Context, id core.HashID) (core.Entry, error)
	LoadIgnorePatterns() (ignore.Patterns, error)
	SaveObject(ctx context.Context, id core.HashID, r io.Reader) error
}

// Scanner walks a bank's target tree and materialises a new snapshot.
type Scanner struct {
	bank   bank
	hasher core.Hasher
}

// NewScanner returns a Scanner over b.
func NewScanner(b *repo.Bank) *Scanner {
	return &Scanner{bank: b, hasher: core.NewHasher()}
}

// Scan walks the bank's target tree and returns the root FsHash of the
// new snapshot. The caller is responsible for recording it via
// (*repo.Bank).SaveHistory; Scan never writes history itself.
func (s *Scanner) Scan(ctx context.Context) (core.FsHash, error) {
	sessionID := uuid.New().String()
	ctx = withScanSession(ctx, sessionID)

	target := s.bank.TargetPath()

	scanLog(ctx).Infof("scan %s: starting at %s", sessionID, target)

	info, err := os.Lstat(target)
	if err != nil {
		return core.FsHash{}, errors.Wrapf(err, "stat %s", target)
	}

	attr, err := attributesFrom(target, info)
	if err != nil {
		return core.FsHash{}, err
	}

	priorRoot, err := s.loadPriorRoot(ctx)
	if err != nil {
		return core.FsHash{}, err
	}

	patterns, err := s.bank.LoadIgnorePatterns()
	if err != nil {
		return core.FsHash{}, err
	}

	root := ignore.NewStack(target, patterns)

	dir, err := s.scanDir(ctx, target, root, attr, priorRoot)
	if err != nil {
		return core.FsHash{}, err
	}

	hash, err := core.ToHash(dir)
	if err != nil {
		return core.FsHash{}, err
	}

	scanLog(ctx).Infof("scan %s: finished, root %s", sessionID, hash.ID)

	return hash, nil
}

func (s *Scanner) loadPriorRoot(ctx context.Context) (*core.DirEntry, error) {
	last, ok, err := s.bank.LastScan()
	if err != nil {
		return nil, errors.Wrap(err, "reading last scan")
	}

	if !ok {
		return core.NewDirEntryBuilder(core.Attributes{}).Build(), nil
	}

	root, err := s.bank.LoadRoot(ctx, last)
	if err != nil {
		return nil, errors.Wrap(err, "loading prior snapshot root")
	}

	return root, nil
}

// scanDir pushes the ignore frame for path, enumerates its children in
// canonical (sorted) order, recurses, and emits the resulting DirEntry as
// an object.
func (s *Scanner) scanDir(ctx context.Context, path string, parent *ignore.Stack, attr core.Attributes, prior *core.DirEntry) (*core.DirEntry, error) {
	frame, err := parent.Child(filepath.Base(path))
	if err != nil {
		return nil, errors.Wrapf(err, "loading ignore rules for %s", path)
	}

	names, err := readDirNames(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading directory %s", path)
	}

	builder := core.NewDirEntryBuilder(attr)

	for _, name := range names {
		if !utf8.ValidString(name) {
			return nil, &core.InvalidFileNameError{Raw: name}
		}

		childPath := filepath.Join(path, name)

		info, err := os.Lstat(childPath)
		if err != nil {
			if os.IsPermission(err) {
				scanLog(ctx).Warnf("scan %s: permission denied, skipping %s", scanSessionID(ctx), childPath)
				continue
			}

			return nil, errors.Wrapf(err, "stat %s", childPath)
		}

		isDir := info.IsDir()

		ignored, err := frame.Ignored(childPath, isDir)
		if err != nil {
			return nil, errors.Wrapf(err, "testing ignore rules for %s", childPath)
		}

		if ignored {
			continue
		}

		priorChild, _ := prior.FindChild(name)

		ch, err := s.scanNode(ctx, childPath, info, frame, priorChild)
		if err != nil {
			if os.IsPermission(errors.Cause(err)) {
				scanLog(ctx).Warnf("scan %s: permission denied, skipping %s", scanSessionID(ctx), childPath)
				continue
			}

			return nil, err
		}

		builder.Append(ch)
	}

	dir := builder.Build()

	if err := s.writeEntry(ctx, dir); err != nil {
		return nil, errors.Wrapf(err, "writing directory entry %s", path)
	}

	return dir, nil
}

// scanNode dispatches by file type. A permission error here is the
// caller's responsibility to swallow; everything else propagates.
func (s *Scanner) scanNode(ctx context.Context, path string, info os.FileInfo, frame *ignore.Stack, prior core.FsHash) (core.FsHash, error) {
	attr, err := attributesFrom(path, info)
	if err != nil {
		return core.FsHash{}, err
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return s.scanSymlink(ctx, path, attr)
	case info.IsDir():
		var priorDir *core.DirEntry

		if prior.Type == core.EntryTypeDir && !prior.ID.IsZero() {
			e, err := s.bank.LoadEntry(ctx, prior.ID)
			if err == nil {
				priorDir, _ = core.AsDir(e)
			}
		}

		if priorDir == nil {
			priorDir = core.NewDirEntryBuilder(attr).Build()
		}

		dir, err := s.scanDir(ctx, path, frame, attr, priorDir)
		if err != nil {
			return core.FsHash{}, err
		}

		return core.ToHash(dir)
	case info.Mode().IsRegular():
		return s.scanFile(ctx, path, attr, prior)
	default:
		return core.FsHash{}, errors.Errorf("%s is neither a regular file, directory, nor symlink", path)
	}
}

// scanFile reuses prior verbatim when its modification time matches
// attr's; otherwise it streams and hashes the file's content fresh.
func (s *Scanner) scanFile(ctx context.Context, path string, attr core.Attributes, prior core.FsHash) (core.FsHash, error) {
	if prior.Type == core.EntryTypeFile && prior.Attr.Modified.Equal(attr.Modified) {
		return prior, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return core.FsHash{}, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	id, temp, err := s.hasher.Hash(f)
	if err != nil {
		return core.FsHash{}, errors.Wrapf(err, "hashing %s", path)
	}
	defer func() {
		temp.Close()
		os.Remove(temp.Name())
	}()

	if err := s.bank.SaveObject(ctx, id, temp); err != nil {
		return core.FsHash{}, errors.Wrapf(err, "saving object for %s", path)
	}

	entry := core.NewFileEntry(attr)
	core.AssignID(entry, id)

	return core.ToHash(entry)
}

// scanSymlink reads the link target, stats it (without following for
// recursion) to determine is_dir, and writes the resulting object.
func (s *Scanner) scanSymlink(ctx context.Context, path string, attr core.Attributes) (core.FsHash, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return core.FsHash{}, errors.Wrapf(err, "reading link %s", path)
	}

	if !utf8.ValidString(target) {
		return core.FsHash{}, &core.InvalidFileNameError{Raw: target}
	}

	isDir := false
	if info, err := os.Stat(path); err == nil {
		isDir = info.IsDir()
	}

	entry := core.NewSymlinkEntry(attr, target, isDir)

	if err := s.writeEntry(ctx, entry); err != nil {
		return core.FsHash{}, errors.Wrapf(err, "writing symlink entry %s", path)
	}

	return core.ToHash(entry)
}

// writeEntry marshals e's canonical form, hashes it, writes the object
// (rewriting an existing object with identical bytes is harmless), and
// assigns the resulting id.
func (s *Scanner) writeEntry(ctx context.Context, e core.Entry) error {
	data, err := core.MarshalEntry(e)
	if err != nil {
		return err
	}

	id, temp, err := s.hasher.Hash(bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer func() {
		temp.Close()
		os.Remove(temp.Name())
	}()

	if err := s.bank.SaveObject(ctx, id, temp); err != nil {
		return err
	}

	core.AssignID(e, id)

	return nil
}

// attributesFrom builds Attributes for path from an already-obtained
// os.FileInfo, validating that its final path component is valid Unicode.
func attributesFrom(path string, info os.FileInfo) (core.Attributes, error) {
	name := filepath.Base(path)
	if !utf8.ValidString(name) {
		return core.Attributes{}, &core.InvalidFileNameError{Raw: name}
	}

	modified, err := core.NewTimestamp(info.ModTime())
	if err != nil {
		return core.Attributes{}, errors.Wrapf(err, "modification time of %s", path)
	}

	return core.Attributes{
		Name:     name,
		ReadOnly: isReadOnly(info),
		Modified: modified,
	}, nil
}

func isReadOnly(info os.FileInfo) bool {
	return info.Mode().Perm()&0o200 == 0
}

// readDirNames lists path's immediate children. The final hashed child
// order is always the canonical (attr, id) order imposed by
// DirEntryBuilder.Build, so the order returned here does not affect
// correctness.
func readDirNames(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}

	return names, nil
}
