package atomicfile

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var veryLongSegment = strings.Repeat("f", 270)

func TestMaybePrefixLongFilenameOnWindows(t *testing.T) {
	if runtime.GOOS != "windows" {
		return
	}

	cases := []struct {
		input string
		want  string
	}{
		{"C:\\Short.txt", "C:\\Short.txt"},
		{"C:\\" + veryLongSegment + "\\foo", "\\\\?\\C:\\" + veryLongSegment + "\\foo"},
		{"C:\\" + veryLongSegment + "/foo/bar", "\\\\?\\C:\\" + veryLongSegment + "\\foo\\bar"},
		{"C:\\" + veryLongSegment + "/foo/./././bar", "\\\\?\\C:\\" + veryLongSegment + "\\foo\\bar"},
		{"\\\\?\\C:\\" + veryLongSegment + "\\foo", "\\\\?\\C:\\" + veryLongSegment + "\\foo"},
		{veryLongSegment + "\\foo", veryLongSegment + "\\foo"},
	}

	for i, tc := range cases {
		if got := MaybePrefixLongFilenameOnWindows(tc.input); got != tc.want {
			t.Errorf("(%v) invalid result for %v: got %v, want %v", i, tc.input, got, tc.want)
		}
	}
}

func TestWriteBytesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	require.NoError(t, WriteBytes(path, []byte(`{"a":1}`)))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, string(got))

	// Overwriting is also atomic and yields the new content.
	require.NoError(t, WriteBytes(path, []byte(`{"a":2}`)))

	got, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, `{"a":2}`, string(got))
}
