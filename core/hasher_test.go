package core_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/sbak-archive/sbak/core"
)

func sha3Hex(data []byte) string {
	h := sha3.New256()
	h.Write(data)

	return hex.EncodeToString(h.Sum(nil))
}

func TestHasherHashMatchesSha3(t *testing.T) {
	h := core.NewHasher()

	data := []byte("hello")
	id, temp, err := h.Hash(bytes.NewReader(data))
	require.NoError(t, err)

	defer os.Remove(temp.Name())
	defer temp.Close()

	require.Equal(t, sha3Hex(data), id.String())

	// Temp file is rewound and contains the same bytes that were hashed.
	got, err := io.ReadAll(temp)
	require.NoError(t, err)
	require.Equal(t, data, got)

	require.NotEqual(t, id.String(), hex.EncodeToString(sha256Sum(data)), "sanity: not accidentally sha256")
}

func sha256Sum(data []byte) []byte {
	h := sha256.New()
	h.Write(data)

	return h.Sum(nil)
}

func TestHasherHashFileRewinds(t *testing.T) {
	h := core.NewHasher()

	f, err := os.CreateTemp(t.TempDir(), "obj-*")
	require.NoError(t, err)
	defer f.Close()

	data := []byte("world")
	_, err = f.Write(data)
	require.NoError(t, err)
	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)

	id, err := h.HashFile(f)
	require.NoError(t, err)
	require.Equal(t, sha3Hex(data), id.String())

	// Rewound: reading again yields the same bytes.
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, data, got)
}
