package bom

import (
	"bytes"
	"fmt"
	"strings"
)

// Archive is a read-only view over a serialized BOM. It never modifies
// the underlying buffer and may be shared between goroutines.
type Archive struct {
	data            []byte
	indexOffset     uint64
	indexCount      uint32
	variablesOffset uint64
}

// Load validates the header of data and returns an Archive over it.
// Index entries are not validated here; every lookup checks its own
// bounds.
func Load(data []byte) (*Archive, error) {
	if len(data) < headerSize {
		return nil, ErrFileTooSmall
	}
	if !bytes.Equal(data[0:8], headerMagic[:]) {
		return nil, ErrInvalidMagic
	}
	if v := be.Uint32(data[8:12]); v != 1 {
		return nil, &VersionError{Version: v}
	}

	size := uint64(len(data))
	indexOffset := uint64(be.Uint32(data[16:20]))
	indexLength := uint64(be.Uint32(data[20:24]))
	if indexOffset+4 > size || indexOffset+indexLength > size {
		return nil, ErrIndexOutOfBounds
	}
	variablesOffset := uint64(be.Uint32(data[24:28]))
	if variablesOffset+4 > size {
		return nil, ErrVariablesOutOfBounds
	}

	return &Archive{
		data:            data,
		indexOffset:     indexOffset,
		indexCount:      be.Uint32(data[indexOffset : indexOffset+4]),
		variablesOffset: variablesOffset,
	}, nil
}

// Bytes returns the buffer the archive was loaded from.
func (a *Archive) Bytes() []byte { return a.data }

// BlockCount returns the block count declared in the header.
func (a *Archive) BlockCount() uint32 { return be.Uint32(a.data[12:16]) }

// IndexCount returns the number of entries in the index table.
func (a *Archive) IndexCount() uint32 { return a.indexCount }

// IndexLength returns the index table length declared in the header.
func (a *Archive) IndexLength() uint32 { return be.Uint32(a.data[20:24]) }

// VariablesLength returns the variables table length declared in the header.
func (a *Archive) VariablesLength() uint32 { return be.Uint32(a.data[28:32]) }

func (a *Archive) pointer(i uint32) (BlockPointer, bool) {
	if i >= a.indexCount {
		return BlockPointer{}, false
	}
	off := a.indexOffset + 4 + uint64(i)*blockPointerSize
	if off+blockPointerSize > uint64(len(a.data)) {
		return BlockPointer{}, false
	}
	return BlockPointer{
		Address: be.Uint32(a.data[off : off+4]),
		Length:  be.Uint32(a.data[off+4 : off+8]),
	}, true
}

// Block returns the bytes of block i. It reports false when i is not in
// the index table or the block does not fit inside the buffer.
func (a *Archive) Block(i uint32) ([]byte, bool) {
	b, err := a.block(i)
	return b, err == nil
}

func (a *Archive) block(i uint32) ([]byte, error) {
	if i >= a.indexCount {
		return nil, &IndexError{Index: i}
	}
	bp, ok := a.pointer(i)
	if !ok {
		return nil, fmt.Errorf("%w: index entry %d", ErrDataOutOfBounds, i)
	}
	start := uint64(bp.Address)
	end := start + uint64(bp.Length)
	if end > uint64(len(a.data)) {
		return nil, fmt.Errorf("%w: block %d", ErrDataOutOfBounds, i)
	}
	return a.data[start:end:end], nil
}

// Indices lists the index table. Listing stops at the first entry that
// would be read from beyond the buffer.
func (a *Archive) Indices() []IndexEntry {
	var entries []IndexEntry
	for i := uint32(0); i < a.indexCount; i++ {
		bp, ok := a.pointer(i)
		if !ok {
			break
		}
		entries = append(entries, IndexEntry{Index: i, BlockPointer: bp})
	}
	return entries
}

// Variables lists the variable table. A record that would overrun the
// buffer ends the listing and the records read so far are returned.
func (a *Archive) Variables() []Variable {
	var vars []Variable
	size := uint64(len(a.data))
	off := a.variablesOffset
	if off+4 > size {
		return vars
	}
	count := be.Uint32(a.data[off : off+4])
	off += 4

	for i := uint32(0); i < count; i++ {
		if off+variableSize > size {
			break
		}
		index := be.Uint32(a.data[off : off+4])
		nameLength := uint64(a.data[off+4])
		off += variableSize
		if off+nameLength > size {
			break
		}
		name := strings.ToValidUTF8(string(a.data[off:off+nameLength]), "\uFFFD")
		off += nameLength
		vars = append(vars, Variable{Name: name, Index: index})
	}
	return vars
}

// Variable returns the block index of the first variable called name.
func (a *Archive) Variable(name string) (uint32, bool) {
	for _, v := range a.Variables() {
		if v.Name == name {
			return v.Index, true
		}
	}
	return 0, false
}

// IsTree reports whether block i holds a valid tree header.
func (a *Archive) IsTree(i uint32) bool {
	b, ok := a.Block(i)
	if !ok {
		return false
	}
	_, err := ReadTreeHeader(b)
	return err == nil
}
