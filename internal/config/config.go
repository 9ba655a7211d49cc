// Package config loads the optional YAML configuration shared by the
// bomkit tools.
//
// The file is named by the --config flag or the BOMKIT_CONFIG
// environment variable. There is no automatic discovery: without
// either, the defaults apply. Command line flags override values from
// the file.
package config

import (
	"bytes"
	"io"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable that points at a config file.
const EnvVar = "BOMKIT_CONFIG"

// Compression selects the transport compression for written archives.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionGzip Compression = "gzip"
)

// Config is the tool configuration.
type Config struct {
	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log_level"`

	Lsbom LsbomConfig `yaml:"lsbom"`
	Mkbom MkbomConfig `yaml:"mkbom"`
}

// LsbomConfig holds defaults for lsbom.
type LsbomConfig struct {
	// Format is a print format string as accepted by -p.
	Format string `yaml:"format"`

	// Arch restricts file entries to one architecture.
	Arch string `yaml:"arch"`
}

// MkbomConfig holds defaults for mkbom.
type MkbomConfig struct {
	// Simplified omits ownership, times and checksums.
	Simplified bool `yaml:"simplified"`

	// Workers bounds the number of files checksummed at once.
	// Default: number of CPUs.
	Workers int `yaml:"workers"`

	// Compression wraps the written archive. An output name ending in
	// .zst or .gz selects the matching compression regardless.
	Compression Compression `yaml:"compression"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "warn",
		Mkbom: MkbomConfig{
			Workers:     runtime.NumCPU(),
			Compression: CompressionNone,
		},
	}
}

// Load reads path, or the file named by BOMKIT_CONFIG when path is
// empty. With neither set it returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a config file on top of the defaults. Unknown keys
// are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Mkbom.Compression {
	case CompressionNone, CompressionZstd, CompressionGzip:
	case "":
		c.Mkbom.Compression = CompressionNone
	default:
		return errors.Errorf("mkbom.compression: unknown value %q", c.Mkbom.Compression)
	}
	if c.Mkbom.Workers < 0 {
		return errors.Errorf("mkbom.workers: must not be negative, got %d", c.Mkbom.Workers)
	}
	if c.Mkbom.Workers == 0 {
		c.Mkbom.Workers = runtime.NumCPU()
	}
	return nil
}
