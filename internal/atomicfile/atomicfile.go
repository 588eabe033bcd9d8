// Package atomicfile provides create-and-rename writes for the small
// per-bank JSON files (config.json, last_scan.json, history/*.history.json)
// that must never be observed half-written.
package atomicfile

import (
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
)

// Write atomically replaces the file at path with the content read from r:
// it writes to a sibling temp file first and renames it into place, so a
// reader never observes a torn write.
func Write(path string, r io.Reader) error {
	if err := atomic.WriteFile(MaybePrefixLongFilenameOnWindows(path), r); err != nil {
		return errors.Wrapf(err, "atomic write of %q", path)
	}

	return nil
}

// WriteBytes is a convenience wrapper around Write for in-memory payloads.
func WriteBytes(path string, data []byte) error {
	f, err := os.CreateTemp("", "sbak-atomicfile-*")
	if err != nil {
		return errors.Wrap(err, "creating staging file")
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return errors.Wrap(err, "staging write")
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "rewinding staging file")
	}

	return Write(path, f)
}

// MaybePrefixLongFilenameOnWindows extends path with the \\?\ long-path
// prefix on Windows when it would otherwise exceed MAX_PATH, after
// collapsing "." segments and normalizing separators. On non-Windows
// platforms it returns path unchanged.
func MaybePrefixLongFilenameOnWindows(path string) string {
	if runtime.GOOS != "windows" {
		return path
	}

	return maybePrefixLongFilenameOnWindows(path)
}

const windowsMaxPathWithoutPrefix = 259

const longPathPrefix = `\\?\`

func maybePrefixLongFilenameOnWindows(path string) string {
	if strings.HasPrefix(path, longPathPrefix) {
		return path
	}

	// relative paths can't be prefixed - the prefix disables the usual
	// relative-to-cwd resolution.
	if len(path) < 2 || path[1] != ':' {
		return path
	}

	normalized := strings.ReplaceAll(path, "/", `\`)
	normalized = collapseDotSegments(normalized)

	if len(normalized) <= windowsMaxPathWithoutPrefix {
		return normalized
	}

	return longPathPrefix + normalized
}

func collapseDotSegments(path string) string {
	parts := strings.Split(path, `\`)
	out := parts[:0]

	for _, p := range parts {
		if p == "." {
			continue
		}

		out = append(out, p)
	}

	return strings.Join(out, `\`)
}
