package core_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbak-archive/sbak/core"
)

func validHash(fill byte) string {
	return strings.Repeat(string(rune(fill)), 64)
}

func TestHashIDParts(t *testing.T) {
	s := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	id, err := core.ParseHashID(s)
	require.NoError(t, err)

	p0, p1, p2 := id.Parts()
	require.Equal(t, 4, len(p0))
	require.Equal(t, 4, len(p1))
	require.Equal(t, 56, len(p2))
	require.Equal(t, s, p0+p1+p2)
}

func TestParseHashIDRejectsBadInput(t *testing.T) {
	_, err := core.ParseHashID("too-short")
	require.Error(t, err)

	_, err = core.ParseHashID(strings.Repeat("g", 64))
	require.Error(t, err)

	_, err = core.ParseHashID(strings.Repeat("A", 64))
	require.Error(t, err, "must reject uppercase")
}

func TestHashIDOrderingAndPrefix(t *testing.T) {
	a := core.HashID(strings.Repeat("a", 64))
	b := core.HashID(strings.Repeat("b", 64))

	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
	require.True(t, a.HasPrefix("aaaa"))
	require.False(t, a.HasPrefix("bbbb"))
}
