// Package repo implements the content-addressed object store and the
// repository/bank container model built on top of it.
package repo

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/sbak-archive/sbak/core"
	"github.com/sbak-archive/sbak/internal/atomicfile"
	"github.com/sbak-archive/sbak/internal/slog"
)

var objectStoreLog = slog.Module("sbak/objectstore")

// objectStore is a content-addressed blob directory shared by every bank
// in a Repository. It is the trust boundary for the whole snapshot graph:
// every read rehashes the bytes and rejects a mismatch.
type objectStore struct {
	hasher core.Hasher
	root   string // <repo>/objects
}

func newObjectStore(root string) *objectStore {
	return &objectStore{hasher: core.NewHasher(), root: root}
}

// path returns the partitioned on-disk path for id, following the
// [0..4]/[4..8]/[8..64] split from spec §3.
func (s *objectStore) path(id core.HashID) string {
	p0, p1, p2 := id.Parts()
	return filepath.Join(s.root, p0, p1, p2)
}

// write creates the partitioned directory chain (if needed) and writes r
// to the object path for id. Overwriting an existing object with
// (presumptively) identical content is permitted and cheap.
func (s *objectStore) write(ctx context.Context, id core.HashID, r io.Reader) error {
	path := s.path(id)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating object directory for %s", id)
	}

	if err := atomicfile.Write(path, r); err != nil {
		return errors.Wrapf(err, "writing object %s", id)
	}

	objectStoreLog(ctx).Debugf("wrote object %s", id)

	return nil
}

// open opens the object for id, rehashes it end-to-end, and compares the
// result to id. On mismatch it fails with *core.BrokenObjectError; if the
// path does not exist, with *core.EntryNotFoundError. On success, the
// returned file is rewound to offset 0.
func (s *objectStore) open(ctx context.Context, id core.HashID) (*os.File, error) {
	path := s.path(id)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &core.EntryNotFoundError{ID: id}
		}

		return nil, errors.Wrapf(err, "opening object %s", id)
	}

	actual, err := s.hasher.HashFile(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "verifying object %s", id)
	}

	if actual != id {
		f.Close()
		return nil, &core.BrokenObjectError{Expected: id, Actual: actual}
	}

	objectStoreLog(ctx).Debugf("verified object %s", id)

	return f, nil
}
