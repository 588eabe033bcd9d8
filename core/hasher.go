package core

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

const hashStreamBufferSize = 64 * 1024

// Hasher streams a byte source through SHA3-256.
type Hasher struct{}

// NewHasher returns a Hasher. It carries no state: every call is
// independent.
func NewHasher() Hasher {
	return Hasher{}
}

// Hash reads r to EOF, feeding every byte to a SHA3-256 sponge and to a
// private scratch file. It returns the resulting digest and the scratch
// file, rewound to offset 0 and ready for the caller to read or pass to
// an object store write. The caller owns the returned file and must close
// (and, typically, remove) it when done.
func (Hasher) Hash(r io.Reader) (HashID, *os.File, error) {
	temp, err := os.CreateTemp("", "sbak-hash-*")
	if err != nil {
		return "", nil, errors.Wrap(err, "creating scratch file")
	}

	h := sha3.New256()
	buf := make([]byte, hashStreamBufferSize)

	if _, err := io.CopyBuffer(io.MultiWriter(h, temp), r, buf); err != nil {
		temp.Close()
		os.Remove(temp.Name())

		return "", nil, errors.Wrap(err, "hashing stream")
	}

	if err := temp.Sync(); err != nil {
		temp.Close()
		os.Remove(temp.Name())

		return "", nil, errors.Wrap(err, "flushing scratch file")
	}

	if _, err := temp.Seek(0, io.SeekStart); err != nil {
		temp.Close()
		os.Remove(temp.Name())

		return "", nil, errors.Wrap(err, "rewinding scratch file")
	}

	return HashID(hex.EncodeToString(h.Sum(nil))), temp, nil
}

// HashFile digests a positioned file end-to-end from its current offset
// and rewinds it to 0 afterwards, without spilling to a new scratch file.
// Used to verify an object already on disk.
func (Hasher) HashFile(f *os.File) (HashID, error) {
	h := sha3.New256()
	buf := make([]byte, hashStreamBufferSize)

	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", errors.Wrap(err, "hashing file")
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", errors.Wrap(err, "rewinding file")
	}

	return HashID(hex.EncodeToString(h.Sum(nil))), nil
}
