package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paduszym/bomkit/pkg/bom"
)

func sampleEntries() []Entry {
	return []Entry{
		{Path: ".", Info: PathInfo2{Type: uint8(Directory), Mode: 0o755}},
		{Path: "./usr", Info: PathInfo2{Type: uint8(Directory), Mode: 0o755}},
		{Path: "./usr/bin", Info: PathInfo2{Type: uint8(Directory), Mode: 0o755}},
		{Path: "./usr/bin/ls", Info: PathInfo2{Type: uint8(File), Mode: 0o755, Size: 1234, Checksum: 99}},
		{Path: "./usr/bin/list", Info: PathInfo2{Type: uint8(Link), Mode: 0o755, LinkName: "ls"}},
	}
}

func TestManifestRoundTrip(t *testing.T) {
	w := bom.NewWriter()
	require.NoError(t, BuildManifest(w, sampleEntries()))

	a, err := bom.Load(w.Serialize())
	require.NoError(t, err)

	got, err := ReadManifest(a)
	require.NoError(t, err)
	assert.Equal(t, sampleEntries(), got)

	var vars Variables
	require.NoError(t, bom.NewDecoder(a).Decode(&vars))
	assert.Len(t, vars.Paths, 5)
	assert.Empty(t, vars.HLIndex)
	assert.Empty(t, vars.Size64)
	assert.Equal(t, uint32(5), vars.VIndex)
}

func TestBuildManifestParentIDs(t *testing.T) {
	w := bom.NewWriter()
	require.NoError(t, BuildManifest(w, sampleEntries()))
	a, err := bom.Load(w.Serialize())
	require.NoError(t, err)

	entries, err := a.TreeEntries(PathsVariable)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	want := []FileKey{
		{Parent: 0, Name: "."},
		{Parent: 1, Name: "usr"},
		{Parent: 2, Name: "bin"},
		{Parent: 3, Name: "ls"},
		{Parent: 3, Name: "list"},
	}
	for i, e := range entries {
		key, ok := ParseFileKey(e.Key)
		require.True(t, ok)
		assert.Equal(t, want[i], key)
		info, ok := ParsePathInfo1(e.Value)
		require.True(t, ok)
		assert.Equal(t, uint32(i+1), info.ID)
	}
}

func TestReadManifestMissingTree(t *testing.T) {
	a, err := bom.Load(bom.NewWriter().Serialize())
	require.NoError(t, err)
	_, err = ReadManifest(a)
	require.ErrorIs(t, err, bom.ErrTreeNotFound)
}

func TestReadManifestSkipsBrokenRecords(t *testing.T) {
	w := bom.NewWriter()
	good, _ := PathInfo2{Type: uint8(File), Size: 1}.MarshalBinary()
	goodIndex := w.AddBlock(good)
	key := func(parent uint32, name string) []byte {
		b, _ := FileKey{Parent: parent, Name: name}.MarshalBinary()
		return b
	}
	value := func(id, index uint32) []byte {
		b, _ := PathInfo1{ID: id, Index: index}.MarshalBinary()
		return b
	}
	tree := []bom.TreeEntry{
		{Key: []byte{1}, Value: value(1, goodIndex)},
		{Key: key(0, "short-value"), Value: []byte{1}},
		{Key: key(0, "dangling"), Value: value(2, 9999)},
		{Key: key(0, "short-info"), Value: value(3, w.AddBlock([]byte{1, 2}))},
		{Key: key(0, "ok"), Value: value(4, goodIndex)},
	}
	w.AddVariable(PathsVariable, w.BuildTree(tree))
	a, err := bom.Load(w.Serialize())
	require.NoError(t, err)

	var skipped []string
	got, err := ReadManifest(a, WithSkipHandler(func(k FileKey, err error) {
		assert.ErrorIs(t, err, bom.ErrIndexOutOfRange)
		skipped = append(skipped, k.Name)
	}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Path)
	assert.Equal(t, []string{"dangling"}, skipped)
}

func TestSplitPath(t *testing.T) {
	for path, want := range map[string][2]string{
		".":         {"", "."},
		"./a":       {".", "a"},
		"./a/b":     {"./a", "b"},
		"top":       {".", "top"},
		"/absolute": {".", "absolute"},
	} {
		parent, name := splitPath(path)
		assert.Equal(t, want, [2]string{parent, name}, path)
	}
}
