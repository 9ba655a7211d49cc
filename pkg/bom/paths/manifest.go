package paths

import (
	"fmt"
	"strings"

	"github.com/paduszym/bomkit/pkg/bom"
)

// PathsVariable names the tree that holds the path entries.
const PathsVariable = "Paths"

// Variables is the variable set written by BuildManifest.
type Variables struct {
	Paths   bom.Tree `bom:"Paths"`
	HLIndex bom.Tree `bom:"HLIndex"`
	Size64  bom.Tree `bom:"Size64"`
	VIndex  uint32   `bom:"VIndex"`
}

// Entry is one filesystem entry of a manifest.
type Entry struct {
	Path string
	Info PathInfo2
}

type readOptions struct {
	skipped func(key FileKey, err error)
}

// ReadOption configures ReadManifest.
type ReadOption func(*readOptions)

// WithSkipHandler registers fn to be told about entries whose metadata
// block cannot be found. Such entries are always left out.
func WithSkipHandler(fn func(key FileKey, err error)) ReadOption {
	return func(o *readOptions) { o.skipped = fn }
}

// ReadManifest returns the entries of the Paths tree in tree order.
// Records that cannot be decoded are skipped. Each path is resolved
// against the entries that precede it in the tree.
func ReadManifest(a *bom.Archive, opts ...ReadOption) ([]Entry, error) {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}

	if _, ok := a.Variable(PathsVariable); !ok {
		return nil, &bom.TreeNotFoundError{Name: PathsVariable}
	}
	var vars struct {
		Paths bom.Tree `bom:"Paths"`
	}
	if err := bom.NewDecoder(a).Decode(&vars); err != nil {
		return nil, err
	}

	files := make(map[uint32]Node, len(vars.Paths))
	entries := make([]Entry, 0, len(vars.Paths))
	for _, te := range vars.Paths {
		key, ok := ParseFileKey(te.Key)
		if !ok {
			continue
		}
		info1, ok := ParsePathInfo1(te.Value)
		if !ok {
			continue
		}
		files[info1.ID] = Node{Parent: key.Parent, Name: key.Name}

		data, ok := a.Block(info1.Index)
		if !ok {
			if o.skipped != nil {
				o.skipped(key, &bom.IndexError{Index: info1.Index})
			}
			continue
		}
		info2, ok := ParsePathInfo2(data)
		if !ok {
			continue
		}

		path, err := ResolvePath(key, files)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Path: path, Info: info2})
	}
	return entries, nil
}

// BuildManifest writes entries to w as a Paths tree together with the
// HLIndex, Size64 and VIndex variables. Ids are assigned from 1 in input
// order, so a parent must precede its children to be linked to them.
// Paths are "."-rooted, as in "./usr/bin".
func BuildManifest(w *bom.Writer, entries []Entry) error {
	ids := make(map[string]uint32, len(entries))
	tree := make(bom.Tree, 0, len(entries))
	for i, e := range entries {
		id := uint32(i + 1)
		parentPath, name := splitPath(e.Path)
		var parent uint32
		if e.Path != "." {
			parent = ids[parentPath]
		}
		ids[e.Path] = id

		info2, err := e.Info.MarshalBinary()
		if err != nil {
			return fmt.Errorf("paths: encoding %s: %w", e.Path, err)
		}
		key, err := FileKey{Parent: parent, Name: name}.MarshalBinary()
		if err != nil {
			return fmt.Errorf("paths: encoding %s: %w", e.Path, err)
		}
		value, err := PathInfo1{ID: id, Index: w.AddBlock(info2)}.MarshalBinary()
		if err != nil {
			return fmt.Errorf("paths: encoding %s: %w", e.Path, err)
		}
		tree = append(tree, bom.TreeEntry{Key: key, Value: value})
	}

	return w.Encode(&Variables{
		Paths:   tree,
		HLIndex: bom.Tree{},
		Size64:  bom.Tree{},
		VIndex:  uint32(len(entries)),
	})
}

func splitPath(path string) (parent, name string) {
	if path == "." {
		return "", "."
	}
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return ".", path
	}
	if i == 0 {
		return ".", path[1:]
	}
	return path[:i], path[i+1:]
}
