package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/paduszym/bomkit/internal/bomfile"
	"github.com/paduszym/bomkit/internal/command"
	"github.com/paduszym/bomkit/internal/config"
	"github.com/paduszym/bomkit/internal/scan"
	"github.com/paduszym/bomkit/pkg/bom"
	"github.com/paduszym/bomkit/pkg/bom/paths"
)

// stdin is read for "-i -", replaced in tests.
var stdin io.Reader = os.Stdin

func collect(c *cli.Context, cfg *config.Config) ([]paths.Entry, string, error) {
	simplified := cfg.Mkbom.Simplified
	if c.IsSet("s") {
		simplified = c.Bool("s")
	}

	if c.IsSet("i") {
		if err := command.ExactArgs(c, 1); err != nil {
			return nil, "", err
		}
		entries, err := scan.ReadFilelist(c.String("i"), stdin)
		if err != nil {
			return nil, "", err
		}
		if simplified {
			for i := range entries {
				info := &entries[i].Info
				info.User, info.Group, info.ModTime, info.Checksum = 0, 0, 0, 0
			}
		}
		return entries, c.Args().Get(0), nil
	}

	if err := command.ExactArgs(c, 2); err != nil {
		return nil, "", err
	}
	workers := cfg.Mkbom.Workers
	if c.IsSet("workers") {
		workers = c.Int("workers")
	}
	entries, err := scan.Dir(c.Context, c.Args().Get(0), scan.Options{
		Simplified: simplified,
		Workers:    workers,
	})
	if err != nil {
		return nil, "", err
	}
	return entries, c.Args().Get(1), nil
}

func run(c *cli.Context) error {
	cfg := command.Config(c)
	entries, output, err := collect(c, cfg)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return errors.New("no entries to write")
	}

	compression := cfg.Mkbom.Compression
	if c.IsSet("compression") {
		compression = config.Compression(c.String("compression"))
	}

	w := bom.NewWriter()
	if err := paths.BuildManifest(w, entries); err != nil {
		return err
	}
	logrus.Infof("writing %d entries to %s", len(entries), output)
	return bomfile.Write(output, w, compression)
}

func newApp() *cli.App {
	app := command.NewApp("mkbom", "Create a BOM archive from a directory or a file list",
		"mkbom [options] directory bom\n   mkbom [options] -i filelist bom")
	app.Flags = append(app.Flags,
		&cli.BoolFlag{Name: "s", Usage: "Create a simplified BOM without ownership, times and checksums"},
		&cli.StringFlag{Name: "i", Usage: "Read entries from lsbom output in `FILELIST` (- for stdin) instead of scanning a directory", TakesFile: true},
		&cli.IntFlag{Name: "workers", Usage: "Number of files checksummed concurrently (default: config or number of CPUs)"},
		&cli.StringFlag{Name: "compression", Usage: "Compress the written archive (none, zstd, gzip); .zst and .gz names imply it"},
	)
	app.Action = run
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
