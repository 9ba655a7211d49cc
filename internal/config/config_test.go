package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bomkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvVar, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, CompressionNone, cfg.Mkbom.Compression)
	assert.Equal(t, runtime.NumCPU(), cfg.Mkbom.Workers)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
lsbom:
  format: fMugs
  arch: arm64
mkbom:
  simplified: true
  workers: 2
  compression: zstd
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "fMugs", cfg.Lsbom.Format)
	assert.Equal(t, "arm64", cfg.Lsbom.Arch)
	assert.True(t, cfg.Mkbom.Simplified)
	assert.Equal(t, 2, cfg.Mkbom.Workers)
	assert.Equal(t, CompressionZstd, cfg.Mkbom.Compression)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv(EnvVar, writeConfig(t, "log_level: info\n"))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsBadInput(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "mkbom:\n  compresion: zstd\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")

	_, err = LoadFile(writeConfig(t, "mkbom:\n  compression: brotli\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mkbom.compression")

	_, err = LoadFile(writeConfig(t, "mkbom:\n  workers: -1\n"))
	require.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateRecordsStack(t *testing.T) {
	c := Default()
	c.Mkbom.Workers = -1
	err := c.Validate()
	require.Error(t, err)
	assert.Equal(t, "mkbom.workers: must not be negative, got -1", err.Error())
	assert.Contains(t, fmt.Sprintf("%+v", err), "(*Config).Validate")
}
