package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/paduszym/bomkit/internal/bomfile"
	"github.com/paduszym/bomkit/internal/config"
	"github.com/paduszym/bomkit/pkg/bom"
)

func writeSample(t *testing.T, name string) string {
	t.Helper()
	w := bom.NewWriter()
	w.AddVariable("Paths", w.BuildTree([]bom.TreeEntry{
		{Key: []byte("ab"), Value: []byte("cdef")},
	}))
	w.AddVariable("VIndex", w.AddBlock([]byte{0, 0, 0, 1}))
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, bomfile.Write(path, w, config.CompressionNone))
	return path
}

func dump(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &bytes.Buffer{}
	err := app.Run(append([]string{"dump-bom"}, args...))
	return out.String(), err
}

func TestDumpText(t *testing.T) {
	out, err := dump(t, writeSample(t, "sample.bom"))
	require.NoError(t, err)
	// Blocks: 1 value, 2 key, 3 leaf, 4 tree header, 5 VIndex.
	assert.Equal(t, "Number of useful index blocks: 5\n"+
		"\n"+
		"variables:\n"+
		"\tPaths: index 4\n"+
		"\tFound BOM Tree:\n"+
		"\t\tEntry with key of size 2 and value of size 4\n"+
		"\tVIndex: index 5\n"+
		"\n"+
		"index:\n"+
		"\t0: data (0 bytes)\n"+
		"\t1: data (4 bytes)\n"+
		"\t2: data (2 bytes)\n"+
		"\t3: data (14 bytes)\n"+
		"\t4: data (15 bytes)\n"+
		"\t5: data (4 bytes)\n", out)
}

func TestDumpYAML(t *testing.T) {
	out, err := dump(t, "--format", "yaml", writeSample(t, "sample.bom.zst"))
	require.NoError(t, err)

	var r report
	require.NoError(t, yaml.Unmarshal([]byte(out), &r))
	assert.Equal(t, uint32(5), r.BlockCount)
	assert.Equal(t, uint32(4+6*8), r.IndexLength)
	assert.Equal(t, uint32(4+(5+5)+(5+6)), r.VariablesLength)
	require.Len(t, r.Variables, 2)
	assert.Equal(t, []treeEntry{{KeySize: 2, ValueSize: 4}}, r.Variables[0].Tree)
	assert.Nil(t, r.Variables[1].Tree)
	assert.Len(t, r.Index, 6)
}

func TestDumpErrors(t *testing.T) {
	_, err := dump(t)
	require.Error(t, err)

	_, err = dump(t, "--format", "xml", writeSample(t, "sample.bom"))
	require.Error(t, err)

	_, err = dump(t, filepath.Join(t.TempDir(), "missing.bom"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
