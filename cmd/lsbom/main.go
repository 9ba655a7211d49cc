package main

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/paduszym/bomkit/internal/bomfile"
	"github.com/paduszym/bomkit/internal/command"
	"github.com/paduszym/bomkit/internal/listing"
	"github.com/paduszym/bomkit/pkg/bom/paths"
)

// Account databases, replaced in tests.
var (
	passwdFile = listing.PasswdFile
	groupFile  = listing.GroupFile
)

func newPrinter(c *cli.Context) (*listing.Printer, error) {
	cfg := command.Config(c)
	p := &listing.Printer{
		PathsOnly: c.Bool("s"),
		NoModes:   c.Bool("x"),
		ModTime:   c.Bool("m"),
	}

	format := cfg.Lsbom.Format
	if c.IsSet("p") {
		format = c.String("p")
	}
	if format != "" {
		items, err := listing.ParseFormat(format)
		if err != nil {
			return nil, err
		}
		p.Format = items
	}

	names, err := listing.LoadNames(passwdFile, groupFile)
	if err != nil {
		return nil, err
	}
	p.Names = names
	return p, nil
}

func newFilter(c *cli.Context) (listing.Filter, error) {
	f := listing.Filter{
		BlockDevices:     c.Bool("b"),
		CharacterDevices: c.Bool("c"),
		Directories:      c.Bool("d"),
		Files:            c.Bool("f"),
		Links:            c.Bool("l"),
	}
	arch := command.Config(c).Lsbom.Arch
	if c.IsSet("arch") {
		arch = c.String("arch")
	}
	if arch != "" {
		t, err := listing.CPUType(arch)
		if err != nil {
			return f, err
		}
		f.Arch = t
	}
	return f, nil
}

func list(path string, filter listing.Filter) ([]paths.Entry, error) {
	a, err := bomfile.Read(path)
	if err != nil {
		return nil, err
	}
	entries, err := paths.ReadManifest(a, paths.WithSkipHandler(func(key paths.FileKey, err error) {
		logrus.Warnf("%s: skipping %q: no path info: %v", path, key.Name, err)
	}))
	if err != nil {
		return nil, errors.Wrapf(err, "read paths of %s", path)
	}
	kept := entries[:0]
	for _, e := range entries {
		if filter.Match(e.Info) {
			kept = append(kept, e)
		}
	}
	logrus.Debugf("%s: listing %d of %d entries", path, len(kept), len(entries))
	return kept, nil
}

func run(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("input is required; see --help")
	}
	printer, err := newPrinter(c)
	if err != nil {
		return err
	}
	filter, err := newFilter(c)
	if err != nil {
		return err
	}

	out := command.Writer(c)
	for _, input := range c.Args().Slice() {
		entries, err := list(input, filter)
		if err != nil {
			return err
		}
		if err := printer.Print(out, entries); err != nil {
			return errors.Wrap(err, "write listing")
		}
	}
	return nil
}

func newApp() *cli.App {
	app := command.NewApp("lsbom", "List the contents of BOM archives", "lsbom [options] bom...")
	app.Flags = append(app.Flags,
		&cli.BoolFlag{Name: "b", Usage: "Include block devices"},
		&cli.BoolFlag{Name: "c", Usage: "Include character devices"},
		&cli.BoolFlag{Name: "d", Usage: "Include directories"},
		&cli.BoolFlag{Name: "f", Usage: "Include files"},
		&cli.BoolFlag{Name: "l", Usage: "Include symbolic links"},
		&cli.BoolFlag{Name: "m", Usage: "Print modification times"},
		&cli.BoolFlag{Name: "s", Usage: "Print only paths"},
		&cli.BoolFlag{Name: "x", Usage: "Print no modes for directories and links"},
		&cli.StringFlag{Name: "p", Usage: "Print the columns named by `FORMAT`:\n" + listing.FormatUsage()},
		&cli.StringFlag{Name: "arch", Usage: "List only files for this architecture (i386, x86_64, arm64, ppc, ...)"},
	)
	app.Action = run
	return app
}

// expandFormatArg splits an attached format such as "-pfMugs" into
// "-p" "fMugs" so short option grouping does not read it as flags.
func expandFormatArg(args []string) []string {
	out := make([]string, 0, len(args)+1)
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if i > 0 && len(arg) > 2 && strings.HasPrefix(arg, "-p") && arg[2] != '=' {
			out = append(out, "-p", arg[2:])
			continue
		}
		out = append(out, arg)
	}
	return out
}

func main() {
	if err := newApp().Run(expandFormatArg(os.Args)); err != nil {
		logrus.Fatal(err)
	}
}
