package bom

import "encoding/binary"

const (
	headerSize       = 32
	blockPointerSize = 8
	variableSize     = 5

	treeHeaderSize     = 21
	treeNodeHeaderSize = 12
	treeNodeEntrySize  = 8

	// EntriesPerLeaf is the maximum number of key/value pairs written to
	// a single leaf node.
	EntriesPerLeaf = 256

	// TreeBlockSize is the node size recorded in tree headers.
	TreeBlockSize = 4096
)

var (
	headerMagic   = [8]byte{'B', 'O', 'M', 'S', 't', 'o', 'r', 'e'}
	treeMagic     = [4]byte{'t', 'r', 'e', 'e'}
	nilBlockIndex = uint32(0)
)

var be = binary.BigEndian

// header is the fixed 32-byte archive header.
type header struct {
	Magic          [8]byte
	Version        uint32
	NumberOfBlocks uint32
	IndexOffset    uint32
	IndexLength    uint32
	VarsOffset     uint32
	VarsLength     uint32
}

func (h *header) marshal() []byte {
	b := make([]byte, headerSize)
	copy(b[0:8], h.Magic[:])
	be.PutUint32(b[8:12], h.Version)
	be.PutUint32(b[12:16], h.NumberOfBlocks)
	be.PutUint32(b[16:20], h.IndexOffset)
	be.PutUint32(b[20:24], h.IndexLength)
	be.PutUint32(b[24:28], h.VarsOffset)
	be.PutUint32(b[28:32], h.VarsLength)
	return b
}

// BlockPointer is one entry of the index table.
type BlockPointer struct {
	Address uint32
	Length  uint32
}

// IndexEntry pairs a block index with its pointer.
type IndexEntry struct {
	Index uint32
	BlockPointer
}

// Variable is a named root pointer into the block store.
type Variable struct {
	Name  string
	Index uint32
}

// TreeEntry is one key/value pair stored in a tree.
type TreeEntry struct {
	Key   []byte
	Value []byte
}

// Tree is a list of entries stored as a BOM tree. Struct fields of this
// type are written with BuildTree by the Encoder.
type Tree []TreeEntry

// TreeHeader is the decoded root block of a tree.
type TreeHeader struct {
	Version   uint32
	Child     uint32
	BlockSize uint32
	PathCount uint32
}

// ReadTreeHeader decodes a tree root block.
func ReadTreeHeader(b []byte) (TreeHeader, error) {
	if len(b) < treeHeaderSize || [4]byte(b[0:4]) != treeMagic {
		return TreeHeader{}, ErrInvalidTreeMagic
	}
	th := TreeHeader{
		Version:   be.Uint32(b[4:8]),
		Child:     be.Uint32(b[8:12]),
		BlockSize: be.Uint32(b[12:16]),
		PathCount: be.Uint32(b[16:20]),
	}
	if th.Version != 1 {
		return th, ErrInvalidTreeVersion
	}
	return th, nil
}

func (th *TreeHeader) marshal() []byte {
	b := make([]byte, treeHeaderSize)
	copy(b[0:4], treeMagic[:])
	be.PutUint32(b[4:8], th.Version)
	be.PutUint32(b[8:12], th.Child)
	be.PutUint32(b[12:16], th.BlockSize)
	be.PutUint32(b[16:20], th.PathCount)
	return b
}

// treeNode is a decoded leaf or non-leaf node.
type treeNode struct {
	IsLeaf   uint16
	Forward  uint32
	Backward uint32
	Entries  []treeNodeEntry
}

type treeNodeEntry struct {
	Value uint32
	Key   uint32
}

func (n *treeNode) marshal() []byte {
	b := make([]byte, treeNodeHeaderSize+treeNodeEntrySize*len(n.Entries))
	be.PutUint16(b[0:2], n.IsLeaf)
	be.PutUint16(b[2:4], uint16(len(n.Entries)))
	be.PutUint32(b[4:8], n.Forward)
	be.PutUint32(b[8:12], n.Backward)
	for i, e := range n.Entries {
		off := treeNodeHeaderSize + i*treeNodeEntrySize
		be.PutUint32(b[off:off+4], e.Value)
		be.PutUint32(b[off+4:off+8], e.Key)
	}
	return b
}
