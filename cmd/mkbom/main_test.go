package main

import (
	"bytes"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paduszym/bomkit/internal/bomfile"
	"github.com/paduszym/bomkit/internal/config"
	"github.com/paduszym/bomkit/pkg/bom/paths"
)

func mkbom(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })
	app := newApp()
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}
	return app.Run(append([]string{"mkbom"}, args...))
}

func readEntries(t *testing.T, path string) map[string]paths.PathInfo2 {
	t.Helper()
	a, err := bomfile.Read(path)
	require.NoError(t, err)
	entries, err := paths.ReadManifest(a)
	require.NoError(t, err)
	out := make(map[string]paths.PathInfo2, len(entries))
	for _, e := range entries {
		out[e.Path] = e.Info
	}
	return out
}

func makeDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "etc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "etc", "hosts"), []byte("127.0.0.1 localhost\n"), 0o644))
	require.NoError(t, os.Symlink("etc/hosts", filepath.Join(root, "hosts")))
	return root
}

func TestMkbomDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.bom")
	require.NoError(t, mkbom(t, "--workers", "2", makeDir(t), out))

	got := readEntries(t, out)
	require.Len(t, got, 4)
	assert.Equal(t, paths.Directory, got["."].PathType())
	assert.Equal(t, paths.Directory, got["./etc"].PathType())
	hosts := got["./etc/hosts"]
	assert.Equal(t, paths.File, hosts.PathType())
	assert.Equal(t, crc32.ChecksumIEEE([]byte("127.0.0.1 localhost\n")), hosts.Checksum)
	assert.Equal(t, "etc/hosts", got["./hosts"].LinkName)
}

func TestMkbomSimplifiedCompressed(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.bom")
	require.NoError(t, mkbom(t, "-s", "--compression", "zstd", makeDir(t), out))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, config.CompressionZstd, bomfile.Detect(raw))

	for path, info := range readEntries(t, out) {
		assert.Zero(t, info.Checksum, path)
		assert.Zero(t, info.ModTime, path)
	}
}

func TestMkbomFilelistFromStdin(t *testing.T) {
	stdin = strings.NewReader(".\t40755\t0/0\n./bin\t40755\t0/0\n./bin/sh\t100755\t0/0\t10\t5\n")
	t.Cleanup(func() { stdin = os.Stdin })

	out := filepath.Join(t.TempDir(), "out.bom.gz")
	require.NoError(t, mkbom(t, "-i", "-", out))

	got := readEntries(t, out)
	require.Len(t, got, 3)
	assert.Equal(t, uint32(5), got["./bin/sh"].Checksum)
	assert.Equal(t, uint32(10), got["./bin/sh"].Size)
}

func TestMkbomErrors(t *testing.T) {
	dir := t.TempDir()
	require.Error(t, mkbom(t, dir))
	require.Error(t, mkbom(t, "-i", "-", dir, filepath.Join(dir, "x.bom")))

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	err := mkbom(t, "-i", empty, filepath.Join(dir, "x.bom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entries")

	require.Error(t, mkbom(t, "--compression", "brotli", makeDir(t), filepath.Join(dir, "y.bom")))
	_, err = os.Stat(filepath.Join(dir, "y.bom"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMkbomSimplifiedFromConfig(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "bomkit.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("mkbom:\n  simplified: true\n"), 0o644))

	out := filepath.Join(t.TempDir(), "out.bom")
	require.NoError(t, mkbom(t, "--config", cfg, makeDir(t), out))
	assert.Zero(t, readEntries(t, out)["./etc/hosts"].Checksum)

	out = filepath.Join(t.TempDir(), "out.bom")
	require.NoError(t, mkbom(t, "--config", cfg, "--s=false", makeDir(t), out))
	assert.Equal(t, crc32.ChecksumIEEE([]byte("127.0.0.1 localhost\n")), readEntries(t, out)["./etc/hosts"].Checksum)
}
