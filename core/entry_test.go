package core_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/sbak-archive/sbak/core"
)

func mustAttr(t *testing.T, name string, ro bool, sec int64) core.Attributes {
	t.Helper()

	ts, err := core.NewTimestamp(time.Unix(sec, 0))
	require.NoError(t, err)

	return core.Attributes{Name: name, ReadOnly: ro, Modified: ts}
}

func TestDirEntryBuilderCanonicalOrder(t *testing.T) {
	b := core.NewDirEntryBuilder(mustAttr(t, "root", false, 100))

	b.Append(core.FsHash{Type: core.EntryTypeFile, Attr: mustAttr(t, "b.txt", false, 1), ID: core.HashID("2222222222222222222222222222222222222222222222222222222222222222")})
	b.Append(core.FsHash{Type: core.EntryTypeFile, Attr: mustAttr(t, "a.txt", false, 1), ID: core.HashID("1111111111111111111111111111111111111111111111111111111111111111")})

	dir := b.Build()
	children := dir.Children()
	require.Len(t, children, 2)
	require.Equal(t, "a.txt", children[0].Attr.Name)
	require.Equal(t, "b.txt", children[1].Attr.Name)
}

func TestEntryMarshalExcludesID(t *testing.T) {
	f := core.NewFileEntry(mustAttr(t, "a.txt", false, 1))
	data, err := core.MarshalEntry(f)
	require.NoError(t, err)
	require.NotContains(t, string(data), `"id"`)
	require.Contains(t, string(data), `"file"`)
}

func TestEntryMarshalUnmarshalRoundTrip(t *testing.T) {
	b := core.NewDirEntryBuilder(mustAttr(t, "root", false, 100))
	b.Append(core.FsHash{
		Type: core.EntryTypeFile,
		Attr: mustAttr(t, "a.txt", false, 1),
		ID:   core.HashID("11111111111111111111111111111111111111111111111111111111111111"),
	})
	dir := b.Build()

	data, err := core.MarshalEntry(dir)
	require.NoError(t, err)

	parsed, err := core.UnmarshalEntry(data)
	require.NoError(t, err)

	parsedDir, err := core.AsDir(parsed)
	require.NoError(t, err)

	if diff := cmp.Diff(dir.Children(), parsedDir.Children()); diff != "" {
		t.Fatalf("children structurally differ after round trip (-want +got):\n%s", diff)
	}

	_, ok := parsedDir.ID()
	require.False(t, ok, "freshly parsed entry must have no id until assigned")

	core.AssignID(parsedDir, core.HashID("22222222222222222222222222222222222222222222222222222222222222"))
	id, ok := parsedDir.ID()
	require.True(t, ok)
	require.Equal(t, core.HashID("22222222222222222222222222222222222222222222222222222222222222"), id)
}

func TestToHashFailsWithoutID(t *testing.T) {
	f := core.NewFileEntry(mustAttr(t, "a.txt", false, 1))
	_, err := core.ToHash(f)
	require.ErrorIs(t, err, core.ErrNoID)
}

func TestAsFileRejectsDir(t *testing.T) {
	dir := core.NewDirEntryBuilder(mustAttr(t, "root", false, 1)).Build()
	_, err := core.AsFile(dir)
	require.ErrorIs(t, err, core.ErrMismatchHashType)
}
