// Package command holds the flag and startup handling shared by the
// bomkit tools.
package command

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/paduszym/bomkit/internal/config"
	"github.com/paduszym/bomkit/internal/logging"
	"github.com/paduszym/bomkit/internal/version"
)

// Flag names shared by every tool.
const (
	FlagLogLevel = "log-level"
	FlagConfig   = "config"
)

// NewApp returns an app with the common flags and version wired in.
// The app's Before hook loads the configuration and sets up logging;
// actions read the result with Config.
func NewApp(name, usage, usageText string) *cli.App {
	return &cli.App{
		Name:                   name,
		Usage:                  usage,
		UsageText:              usageText,
		Version:                version.Info(),
		HideHelpCommand:        true,
		UseShortOptionHandling: true,
		Flags:                  CommonFlags(),
		Before:                 Setup,
	}
}

// CommonFlags returns the flags every tool accepts.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: FlagLogLevel, Usage: "Set log level (panic, fatal, error, warn, info, debug, trace)", EnvVars: []string{"BOMKIT_LOG_LEVEL"}},
		&cli.StringFlag{Name: FlagConfig, Usage: "Read defaults from this YAML file", TakesFile: true, EnvVars: []string{config.EnvVar}},
	}
}

const metadataConfig = "config"

// Setup loads the configuration and configures logging. The flag log
// level takes precedence over the configured one.
func Setup(c *cli.Context) error {
	cfg, err := config.Load(c.String(FlagConfig))
	if err != nil {
		return err
	}
	level := cfg.LogLevel
	if c.IsSet(FlagLogLevel) {
		level = c.String(FlagLogLevel)
	}
	if err := logging.Setup(ErrWriter(c), level); err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]interface{})
	}
	c.App.Metadata[metadataConfig] = cfg
	logrus.Debugf("%s %s", c.App.Name, version.Info())
	return nil
}

// Config returns the configuration loaded by Setup, or the defaults
// when Setup did not run.
func Config(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[metadataConfig].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// Writer returns the app's output stream.
func Writer(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// ErrWriter returns the app's error stream.
func ErrWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}

// ExactArgs fails unless the command got n positional arguments.
func ExactArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return errors.Errorf("expected %d arguments, got %d; see --help", n, c.NArg())
	}
	return nil
}
