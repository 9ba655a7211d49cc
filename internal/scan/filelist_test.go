package scan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paduszym/bomkit/pkg/bom/paths"
)

const listing = `.	40755	0/0
./bin	40755	0/0

./bin/ls	100755	0/0	1234	987654321
./bin/list	120755	0/0	2	3	ls
./dev/disk0	60640	0/5	256
./dev/tty	20666	0/0	512
./plain	644	501/20
`

func TestParseFilelist(t *testing.T) {
	entries, err := ParseFilelist(strings.NewReader(listing))
	require.NoError(t, err)
	require.Len(t, entries, 7)

	assert.Equal(t, paths.Entry{Path: ".", Info: paths.PathInfo2{Type: uint8(paths.Directory), Mode: 0o40755}}, entries[0])
	assert.Equal(t, paths.Directory, entries[1].Info.PathType())

	ls := entries[2].Info
	assert.Equal(t, paths.File, ls.PathType())
	assert.Equal(t, uint32(1234), ls.Size)
	assert.Equal(t, uint32(987654321), ls.Checksum)

	link := entries[3].Info
	assert.Equal(t, paths.Link, link.PathType())
	assert.Equal(t, "ls", link.LinkName)
	assert.Equal(t, uint32(3), link.Checksum)

	disk := entries[4].Info
	assert.Equal(t, paths.Device, disk.PathType())
	assert.Equal(t, uint32(256), disk.Size)
	assert.Equal(t, uint32(5), disk.Group)
	assert.Equal(t, paths.Device, entries[5].Info.PathType())

	plain := entries[6].Info
	assert.Equal(t, paths.File, plain.PathType())
	assert.Equal(t, uint16(0o644), plain.Mode)
	assert.Equal(t, uint32(501), plain.User)
	assert.Equal(t, uint32(20), plain.Group)
}

func TestParseFilelistPathOnly(t *testing.T) {
	entries, err := ParseFilelist(strings.NewReader("./a\n./b\n"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "./b", entries[1].Path)
	assert.Equal(t, paths.File, entries[1].Info.PathType())
}

func TestParseFilelistErrors(t *testing.T) {
	for _, line := range []string{
		"./a\t9z9\t0/0",
		"./a\t644\tx/0",
		"./a\t644\t0",
		"./a\t644\t0/0\tbig",
		"./a\t644\t0/0\t1\t-1",
	} {
		_, err := ParseFilelist(strings.NewReader(".\t40755\t0/0\n" + line + "\n"))
		require.Error(t, err, line)
		assert.Contains(t, err.Error(), "line 2", line)
	}
}

func TestReadFilelist(t *testing.T) {
	entries, err := ReadFilelist("-", strings.NewReader("./x\t644\t0/0\n"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	path := filepath.Join(t.TempDir(), "list.txt")
	require.NoError(t, os.WriteFile(path, []byte(listing), 0o644))
	entries, err = ReadFilelist(path, nil)
	require.NoError(t, err)
	assert.Len(t, entries, 7)

	_, err = ReadFilelist(filepath.Join(t.TempDir(), "nope"), nil)
	require.ErrorIs(t, err, os.ErrNotExist)
}
