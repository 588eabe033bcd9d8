package repo

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/sbak-archive/sbak/core"
	"github.com/sbak-archive/sbak/ignore"
	"github.com/sbak-archive/sbak/internal/atomicfile"
	"github.com/sbak-archive/sbak/internal/slog"
)

var bankLog = slog.Module("sbak/bank")

const (
	bankConfigFile   = "config.json"
	bankIgnoreFile   = "ignore"
	bankHistoryDir   = "history"
	bankLastScanFile = "last_scan.json"
	historyExt       = ".history.json"
)

// Bank is a named, per-source-tree namespace inside a Repository: a
// target directory, a linear history log, an optional bank-wide ignore
// file, and a pointer to the newest history record.
type Bank struct {
	store  *objectStore
	name   string
	dir    string // <repo>/banks/<name>
	config bankConfig
}

// Name returns the bank's name.
func (b *Bank) Name() string { return b.name }

// TargetPath returns the source directory this bank scans and restores.
func (b *Bank) TargetPath() string { return b.config.TargetPath }

// SaveObject delegates to the repository's shared object store.
func (b *Bank) SaveObject(ctx context.Context, id core.HashID, r io.Reader) error {
	return b.store.write(ctx, id, r)
}

// OpenObject opens and verifies an object by id.
func (b *Bank) OpenObject(ctx context.Context, id core.HashID) (*os.File, error) {
	return b.store.open(ctx, id)
}

// SaveHistory writes history/<unix_epoch>.history.json for (id, ts), then
// overwrites last_scan.json with the same record. Both are written via
// create-and-rename so a crash never leaves a torn file. Overwriting an
// existing history file for the same epoch second is permitted: last
// writer wins.
func (b *Bank) SaveHistory(ctx context.Context, id core.HashID, ts core.Timestamp) error {
	h := History{Timestamp: ts, ID: id}

	data, err := marshalHistory(h)
	if err != nil {
		return err
	}

	historyPath := filepath.Join(b.dir, bankHistoryDir, strconv.FormatInt(ts.Unix(), 10)+historyExt)
	if err := atomicfile.WriteBytes(historyPath, data); err != nil {
		return errors.Wrapf(err, "writing history record for bank %s", b.name)
	}

	lastScanPath := filepath.Join(b.dir, bankLastScanFile)
	if err := atomicfile.WriteBytes(lastScanPath, data); err != nil {
		return errors.Wrapf(err, "updating last scan pointer for bank %s", b.name)
	}

	bankLog(ctx).Infof("bank %s: recorded history %s at %s", b.name, id, ts)

	return nil
}

// LastScan reads last_scan.json. The second return is false when the
// bank has never been scanned.
func (b *Bank) LastScan() (History, bool, error) {
	data, err := os.ReadFile(filepath.Join(b.dir, bankLastScanFile))
	if err != nil {
		if os.IsNotExist(err) {
			return History{}, false, nil
		}

		return History{}, false, errors.Wrapf(err, "reading last scan for bank %s", b.name)
	}

	h, err := unmarshalHistory(data)
	if err != nil {
		return History{}, false, &core.ParseError{Path: filepath.Join(b.dir, bankLastScanFile), Cause: err}
	}

	return h, true, nil
}

// Histories enumerates history/*.history.json, sorted ascending by
// (timestamp, id).
func (b *Bank) Histories() ([]History, error) {
	dir := filepath.Join(b.dir, bankHistoryDir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing history for bank %s", b.name)
	}

	var out []History

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), historyExt) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "reading history file %s", e.Name())
		}

		h, err := unmarshalHistory(data)
		if err != nil {
			return nil, &core.ParseError{Path: filepath.Join(dir, e.Name()), Cause: err}
		}

		out = append(out, h)
	}

	sortHistories(out)

	return out, nil
}

// FindHash returns every history whose root id begins with prefix.
func (b *Bank) FindHash(prefix string) ([]History, error) {
	all, err := b.Histories()
	if err != nil {
		return nil, err
	}

	var out []History

	for _, h := range all {
		if h.ID.HasPrefix(prefix) {
			out = append(out, h)
		}
	}

	return out, nil
}

// LoadEntry opens the object for id (verifying its hash), parses it as an
// entry, and reinjects id so the returned entry satisfies ID() == (id, true).
func (b *Bank) LoadEntry(ctx context.Context, id core.HashID) (core.Entry, error) {
	f, err := b.store.open(ctx, id)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading object %s", id)
	}

	e, err := core.UnmarshalEntry(data)
	if err != nil {
		return nil, &core.ParseError{Path: b.store.path(id), Cause: err}
	}

	core.AssignID(e, id)

	return e, nil
}

// LoadRoot loads h.ID as an entry and narrows it to a DirEntry.
func (b *Bank) LoadRoot(ctx context.Context, h History) (*core.DirEntry, error) {
	e, err := b.LoadEntry(ctx, h.ID)
	if err != nil {
		return nil, err
	}

	return core.AsDir(e)
}

// LoadIgnorePatterns parses the bank-wide ignore file, or returns the
// empty pattern set if it is absent.
func (b *Bank) LoadIgnorePatterns() (ignore.Patterns, error) {
	data, err := os.ReadFile(filepath.Join(b.dir, bankIgnoreFile))
	if err != nil {
		if os.IsNotExist(err) {
			return ignore.Patterns{}, nil
		}

		return ignore.Patterns{}, errors.Wrapf(err, "reading ignore file for bank %s", b.name)
	}

	patterns, err := ignore.ParsePatterns(string(data))
	if err != nil {
		return ignore.Patterns{}, &core.ParseError{Path: filepath.Join(b.dir, bankIgnoreFile), Cause: err}
	}

	return patterns, nil
}

func sortBankNames(names []string) {
	sort.Strings(names)
}
