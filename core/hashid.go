package core

import (
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
)

// HashID is the lowercase hexadecimal SHA3-256 digest of some byte stream:
// 64 characters, ordered lexicographically, byte-equal for equality.
type HashID string

const hashIDLength = 64

// ErrMalformedHashID is returned when a string does not decode to a valid HashID.
var ErrMalformedHashID = errors.New("malformed hash id")

// ParseHashID validates s as a lowercase 64-character hex string and
// returns it as a HashID.
func ParseHashID(s string) (HashID, error) {
	if len(s) != hashIDLength {
		return "", errors.Wrapf(ErrMalformedHashID, "want %d chars, got %d", hashIDLength, len(s))
	}

	if _, err := hex.DecodeString(s); err != nil {
		return "", errors.Wrap(ErrMalformedHashID, err.Error())
	}

	for _, r := range s {
		if r >= 'A' && r <= 'F' {
			return "", errors.Wrap(ErrMalformedHashID, "must be lowercase")
		}
	}

	return HashID(s), nil
}

// IsZero reports whether id is the empty HashID (never assigned).
func (id HashID) IsZero() bool {
	return id == ""
}

// String returns the hex representation of id.
func (id HashID) String() string {
	return string(id)
}

// Parts splits id into its three storage-partition segments: a 4-character
// directory, a 4-character sub-directory, and a 56-character leaf name.
func (id HashID) Parts() (p0, p1, p2 string) {
	s := string(id)
	return s[0:4], s[4:8], s[8:64]
}

// Less reports whether id sorts before other, lexicographically.
func (id HashID) Less(other HashID) bool {
	return id < other
}

// HasPrefix reports whether id's hex text begins with prefix.
func (id HashID) HasPrefix(prefix string) bool {
	s := string(id)
	if len(prefix) > len(s) {
		return false
	}

	return s[:len(prefix)] == prefix
}

// MarshalJSON renders id as a plain JSON string.
func (id HashID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// UnmarshalJSON parses id from a plain JSON string without re-validating
// its shape (validation happens at the call sites that need it, e.g.
// ParseHashID, so that stored, already-trusted ids load cheaply).
func (id *HashID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "decoding hash id")
	}

	*id = HashID(s)

	return nil
}
