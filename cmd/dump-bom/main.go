package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/paduszym/bomkit/internal/bomfile"
	"github.com/paduszym/bomkit/internal/command"
	"github.com/paduszym/bomkit/pkg/bom"
)

type report struct {
	BlockCount      uint32     `yaml:"block_count"`
	IndexLength     uint32     `yaml:"index_length"`
	VariablesLength uint32     `yaml:"variables_length"`
	Variables       []variable `yaml:"variables"`
	Index           []block    `yaml:"index"`
}

type variable struct {
	Name  string      `yaml:"name"`
	Index uint32      `yaml:"index"`
	Tree  []treeEntry `yaml:"tree,omitempty"`
}

type treeEntry struct {
	KeySize   int `yaml:"key_size"`
	ValueSize int `yaml:"value_size"`
}

type block struct {
	Index uint32 `yaml:"index"`
	Size  int    `yaml:"size"`
}

func newReport(a *bom.Archive) *report {
	r := &report{
		BlockCount:      a.BlockCount(),
		IndexLength:     a.IndexLength(),
		VariablesLength: a.VariablesLength(),
	}
	for _, v := range a.Variables() {
		rv := variable{Name: v.Name, Index: v.Index}
		if a.IsTree(v.Index) {
			entries, err := a.Tree(v.Index)
			if err != nil {
				logrus.Warnf("variable %s: %v", v.Name, err)
			}
			rv.Tree = make([]treeEntry, 0, len(entries))
			for _, e := range entries {
				rv.Tree = append(rv.Tree, treeEntry{KeySize: len(e.Key), ValueSize: len(e.Value)})
			}
		}
		r.Variables = append(r.Variables, rv)
	}
	for _, ie := range a.Indices() {
		if data, ok := a.Block(ie.Index); ok {
			r.Index = append(r.Index, block{Index: ie.Index, Size: len(data)})
		}
	}
	return r
}

func (r *report) writeText(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("Number of useful index blocks: %d\n\n", r.BlockCount)
	ew.printf("variables:\n")
	for _, v := range r.Variables {
		ew.printf("\t%s: index %x\n", v.Name, v.Index)
		if v.Tree == nil {
			continue
		}
		ew.printf("\tFound BOM Tree:\n")
		for _, e := range v.Tree {
			ew.printf("\t\tEntry with key of size %d and value of size %d\n", e.KeySize, e.ValueSize)
		}
	}
	ew.printf("\nindex:\n")
	for _, b := range r.Index {
		ew.printf("\t%d: data (%x bytes)\n", b.Index, b.Size)
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err == nil {
		_, ew.err = fmt.Fprintf(ew.w, format, args...)
	}
}

func run(c *cli.Context) error {
	if err := command.ExactArgs(c, 1); err != nil {
		return err
	}
	a, err := bomfile.Read(c.Args().First())
	if err != nil {
		return err
	}
	r := newReport(a)

	out := command.Writer(c)
	switch format := c.String("format"); format {
	case "text":
		return r.writeText(out)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return errors.Wrap(err, "encode yaml")
		}
		return enc.Close()
	default:
		return errors.Errorf("unknown output format %q", format)
	}
}

func newApp() *cli.App {
	app := command.NewApp("dump-bom", "Print the internal structure of a BOM archive", "dump-bom [options] file")
	app.Flags = append(app.Flags,
		&cli.StringFlag{Name: "format", Value: "text", Usage: "Output format (text, yaml)"},
	)
	app.Action = run
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}
