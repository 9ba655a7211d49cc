package listing

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paduszym/bomkit/pkg/bom/paths"
)

func sampleEntries() []paths.Entry {
	return []paths.Entry{
		{Path: "./usr/bin/ls", Info: paths.PathInfo2{Type: uint8(paths.File), Mode: 0o100755, User: 0, Group: 0, Size: 2048, Checksum: 77, ModTime: 1700000000, Architecture: 0x07}},
		{Path: ".", Info: paths.PathInfo2{Type: uint8(paths.Directory), Mode: 0o40755, ModTime: 5}},
		{Path: "./usr/bin/list", Info: paths.PathInfo2{Type: uint8(paths.Link), Mode: 0o120755, User: 501, Group: 20, Size: 2, Checksum: 3, LinkName: "ls"}},
		{Path: "./dev/tty", Info: paths.PathInfo2{Type: uint8(paths.Device), Mode: 0o20666, Size: 512}},
	}
}

func TestPrintDefault(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Printer{}).Print(&buf, sampleEntries()))
	assert.Equal(t, ".\t40755\t0/0\n"+
		"./dev/tty\t20666\t0/0\t512\n"+
		"./usr/bin/list\t120755\t501/20\t2\t3\tls\n"+
		"./usr/bin/ls\t100755\t0/0\t2048\t77\n", buf.String())
}

func TestPrintFlags(t *testing.T) {
	e := sampleEntries()
	p := &Printer{NoModes: true, ModTime: true}
	assert.Equal(t, ".\t5", p.Line(e[1]))
	assert.Equal(t, "./usr/bin/list\t2\t3\tls\t0", p.Line(e[2]))
	assert.Equal(t, "./usr/bin/ls\t100755\t0/0\t2048\t77\t1700000000", p.Line(e[0]))

	p = &Printer{PathsOnly: true}
	assert.Equal(t, "./dev/tty", p.Line(e[3]))
}

func TestPrintFormat(t *testing.T) {
	items, err := ParseFormat("FMUGS?cT")
	require.NoError(t, err)
	ids, err := ParseIDFile(bytes.NewBufferString("root:x:0:0::/:\n"))
	require.NoError(t, err)
	p := &Printer{Format: items, Names: &Names{users: ids, groups: map[uint32]string{0: "wheel"}}, Location: time.UTC}

	e := sampleEntries()
	assert.Equal(t, "\"./usr/bin/ls\"\t-rwxr-xr-x\troot\twheel\t2.0K\troot/wheel\t77\tTue Nov 14 22:13:20 2023", p.Line(e[0]))
	// Size, checksum and time are blank for directories.
	assert.Equal(t, "\".\"\tdrwxr-xr-x\troot\twheel\t\troot/wheel\t\t", p.Line(e[1]))

	items, err = ParseFormat("fm/ugst")
	require.NoError(t, err)
	p = &Printer{Format: items, PathsOnly: true}
	assert.Equal(t, "./usr/bin/list\t120755\t501/20\t501\t20\t2\t0", p.Line(e[2]))
}

func TestFilter(t *testing.T) {
	e := sampleEntries()
	match := func(f Filter) []string {
		var out []string
		for _, entry := range e {
			if f.Match(entry.Info) {
				out = append(out, entry.Path)
			}
		}
		return out
	}

	assert.Len(t, match(Filter{}), 4)
	assert.Equal(t, []string{"./usr/bin/ls"}, match(Filter{Files: true}))
	assert.Equal(t, []string{".", "./usr/bin/list"}, match(Filter{Directories: true, Links: true}))
	assert.Equal(t, []string{"./dev/tty"}, match(Filter{CharacterDevices: true}))
	assert.Empty(t, match(Filter{BlockDevices: true}))

	arm, err := CPUType("arm64")
	require.NoError(t, err)
	assert.Equal(t, []string{".", "./usr/bin/list", "./dev/tty"}, match(Filter{Arch: arm}))
	intel, err := CPUType("x86_64")
	require.NoError(t, err)
	assert.Len(t, match(Filter{Arch: intel}), 4)

	_, err = CPUType("sparc")
	require.Error(t, err)
}
