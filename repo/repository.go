package repo

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/sbak-archive/sbak/core"
	"github.com/sbak-archive/sbak/internal/atomicfile"
)

const (
	objectsDirName = "objects"
	banksDirName   = "banks"
)

// Repository is the top-level container: a shared object store and many
// named banks, all rooted at one directory on a local filesystem.
type Repository struct {
	root  string
	store *objectStore
}

// Create ensures path, path/objects, and path/banks exist. It is
// idempotent: calling it again on an already-initialized repository is a
// no-op.
func Create(path string) (*Repository, error) {
	for _, sub := range []string{"", objectsDirName, banksDirName} {
		if err := os.MkdirAll(filepath.Join(path, sub), 0o755); err != nil {
			return nil, errors.Wrapf(err, "creating repository directory %s", filepath.Join(path, sub))
		}
	}

	return Open(path)
}

// Open opens an existing repository, requiring path, path/objects, and
// path/banks to all exist and be writable.
func Open(path string) (*Repository, error) {
	for _, sub := range []string{"", objectsDirName, banksDirName} {
		full := filepath.Join(path, sub)

		info, err := os.Stat(full)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, &core.IncompleteRepoError{Which: full, Reason: "missing"}
			}

			return nil, errors.Wrapf(err, "statting %s", full)
		}

		if !info.IsDir() {
			return nil, &core.IncompleteRepoError{Which: full, Reason: "not a directory"}
		}

		if err := checkWritable(full); err != nil {
			return nil, &core.IncompleteRepoError{Which: full, Reason: "read only"}
		}
	}

	return &Repository{
		root:  path,
		store: newObjectStore(filepath.Join(path, objectsDirName)),
	}, nil
}

func checkWritable(dir string) error {
	probe, err := os.CreateTemp(dir, ".sbak-write-check-*")
	if err != nil {
		return err
	}

	name := probe.Name()
	probe.Close()

	return os.Remove(name)
}

func (r *Repository) bankDir(name string) string {
	return filepath.Join(r.root, banksDirName, name)
}

// BankExists reports whether a bank named name has been created.
func (r *Repository) BankExists(name string) bool {
	_, err := os.Stat(filepath.Join(r.bankDir(name), bankConfigFile))
	return err == nil
}

// OpenBank reads banks/<name>/config.json and returns a handle to the bank.
func (r *Repository) OpenBank(name string) (*Bank, error) {
	data, err := os.ReadFile(filepath.Join(r.bankDir(name), bankConfigFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &core.BankNotFoundError{Name: name}
		}

		return nil, errors.Wrapf(err, "reading config for bank %q", name)
	}

	cfg, err := unmarshalBankConfig(data)
	if err != nil {
		return nil, &core.ParseError{Path: filepath.Join(r.bankDir(name), bankConfigFile), Cause: err}
	}

	return &Bank{store: r.store, name: name, dir: r.bankDir(name), config: cfg}, nil
}

// CreateBank canonicalises targetPath, requires it to be an existing
// directory, and writes banks/<name>/config.json plus an empty history/
// directory.
func (r *Repository) CreateBank(name, targetPath string) error {
	abs, err := filepath.Abs(targetPath)
	if err != nil {
		return errors.Wrapf(err, "resolving target path %s", targetPath)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return &core.InvalidInputError{Msg: "target path " + abs + " is not an existing directory"}
	}

	dir := r.bankDir(name)
	if err := os.MkdirAll(filepath.Join(dir, bankHistoryDir), 0o755); err != nil {
		return errors.Wrapf(err, "creating bank directory for %q", name)
	}

	data, err := marshalBankConfig(bankConfig{TargetPath: abs})
	if err != nil {
		return err
	}

	if err := atomicfile.WriteBytes(filepath.Join(dir, bankConfigFile), data); err != nil {
		return errors.Wrapf(err, "writing config for bank %q", name)
	}

	return nil
}

// OpenAllBanks returns every bank under banks/ in ascending name order.
// A bank whose config fails to parse is reported via errs, keyed by name,
// and omitted from the returned slice.
func (r *Repository) OpenAllBanks() ([]*Bank, map[string]error, error) {
	entries, err := os.ReadDir(filepath.Join(r.root, banksDirName))
	if err != nil {
		return nil, nil, errors.Wrap(err, "listing banks")
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}

	sortBankNames(names)

	var banks []*Bank

	errs := make(map[string]error)

	for _, name := range names {
		b, err := r.OpenBank(name)
		if err != nil {
			errs[name] = err
			continue
		}

		banks = append(banks, b)
	}

	return banks, errs, nil
}
