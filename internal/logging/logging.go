// Package logging configures the logrus logger shared by the command
// line tools. Library packages never log.
package logging

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultLevel is used when neither a flag nor the config sets a level.
const DefaultLevel = "warn"

// Setup points the standard logrus logger at out and sets its level.
// level accepts the logrus names (panic, fatal, error, warn, info,
// debug, trace); an empty level means DefaultLevel.
func Setup(out io.Writer, level string) error {
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}
	logrus.SetOutput(out)
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return nil
}
