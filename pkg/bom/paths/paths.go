// Package paths implements the path records stored in the "Paths" tree
// of a BOM: the FileKey tree key, the PathInfo1 tree value and the
// PathInfo2 metadata block it points at.
package paths

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var be = binary.BigEndian

// ErrCyclicPath is returned by ResolvePath when a parent chain loops.
var ErrCyclicPath = errors.New("paths: cyclic parent chain")

const (
	pathInfo1Size    = 8
	pathInfo2MinSize = 22
	checksumEnd      = 27
	linkHeaderEnd    = 31
)

// PathType is the kind of filesystem entry a PathInfo2 describes.
type PathType uint8

const (
	File      PathType = 1
	Directory PathType = 2
	Link      PathType = 3
	Device    PathType = 4
)

func (t PathType) String() string {
	switch t {
	case File:
		return "file"
	case Directory:
		return "directory"
	case Link:
		return "link"
	case Device:
		return "device"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// FileKey is the tree key of a path entry: the id of its parent and
// its own name.
type FileKey struct {
	Parent uint32
	Name   string
}

// ParseFileKey decodes a FileKey. The name ends at the first NUL byte
// or at the end of data.
func ParseFileKey(data []byte) (FileKey, bool) {
	if len(data) < 5 {
		return FileKey{}, false
	}
	name := data[4:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return FileKey{
		Parent: be.Uint32(data[0:4]),
		Name:   strings.ToValidUTF8(string(name), "\uFFFD"),
	}, true
}

func (k FileKey) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 4+len(k.Name)+1)
	b = be.AppendUint32(b, k.Parent)
	b = append(b, k.Name...)
	return append(b, 0), nil
}

// PathInfo1 is the tree value of a path entry.
type PathInfo1 struct {
	ID    uint32
	Index uint32 // block holding the PathInfo2
}

func ParsePathInfo1(data []byte) (PathInfo1, bool) {
	if len(data) < pathInfo1Size {
		return PathInfo1{}, false
	}
	return PathInfo1{
		ID:    be.Uint32(data[0:4]),
		Index: be.Uint32(data[4:8]),
	}, true
}

func (p PathInfo1) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, pathInfo1Size)
	b = be.AppendUint32(b, p.ID)
	return be.AppendUint32(b, p.Index), nil
}

// PathInfo2 is the metadata block of a path entry.
type PathInfo2 struct {
	Type         uint8
	Architecture uint16
	Mode         uint16
	User         uint32
	Group        uint32
	ModTime      uint32
	Size         uint32
	Checksum     uint32
	LinkName     string
}

// ParsePathInfo2 decodes a metadata block. Only the first 22 bytes are
// required; a missing checksum reads as 0 and a missing or truncated
// link target reads as "".
func ParsePathInfo2(data []byte) (PathInfo2, bool) {
	if len(data) < pathInfo2MinSize {
		return PathInfo2{}, false
	}
	p := PathInfo2{
		Type:         data[0],
		Architecture: be.Uint16(data[2:4]),
		Mode:         be.Uint16(data[4:6]),
		User:         be.Uint32(data[6:10]),
		Group:        be.Uint32(data[10:14]),
		ModTime:      be.Uint32(data[14:18]),
		Size:         be.Uint32(data[18:22]),
	}
	if len(data) >= checksumEnd {
		p.Checksum = be.Uint32(data[23:27])
	}
	if len(data) >= linkHeaderEnd {
		n := uint64(be.Uint32(data[27:31]))
		if uint64(len(data)) >= linkHeaderEnd+n {
			p.LinkName = strings.ToValidUTF8(string(data[linkHeaderEnd:linkHeaderEnd+n]), "\uFFFD")
		}
	}
	return p, true
}

func (p PathInfo2) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, linkHeaderEnd+len(p.LinkName))
	b = append(b, p.Type, 0)
	b = be.AppendUint16(b, p.Architecture)
	b = be.AppendUint16(b, p.Mode)
	b = be.AppendUint32(b, p.User)
	b = be.AppendUint32(b, p.Group)
	b = be.AppendUint32(b, p.ModTime)
	b = be.AppendUint32(b, p.Size)
	b = append(b, 0)
	b = be.AppendUint32(b, p.Checksum)
	b = be.AppendUint32(b, uint32(len(p.LinkName)))
	return append(b, p.LinkName...), nil
}

// PathType maps the stored type code, treating unknown codes as File.
func (p PathInfo2) PathType() PathType {
	switch t := PathType(p.Type); t {
	case File, Directory, Link, Device:
		return t
	default:
		return File
	}
}

// Node is the parent/name pair recorded for an id while reading a tree.
type Node struct {
	Parent uint32
	Name   string
}

// ResolvePath builds the path of key by prepending the names of its
// ancestors until a parent id is not present in files.
func ResolvePath(key FileKey, files map[uint32]Node) (string, error) {
	parts := []string{key.Name}
	visited := make(map[uint32]struct{})
	next := key.Parent
	for {
		node, ok := files[next]
		if !ok {
			break
		}
		if _, seen := visited[next]; seen {
			return "", fmt.Errorf("%w at id %d", ErrCyclicPath, next)
		}
		visited[next] = struct{}{}
		parts = append(parts, node.Name)
		next = node.Parent
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/"), nil
}
