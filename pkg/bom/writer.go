package bom

import (
	"bytes"
	"io"
	"math"
)

// Writer assembles a BOM in memory. Block 0 is reserved and always
// empty, so every index returned by AddBlock is non-zero.
//
// A Writer must not be used from more than one goroutine.
type Writer struct {
	blocks [][]byte
	vars   []Variable
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{blocks: [][]byte{{}}}
}

// AddBlock stores a copy of data as a new block and returns its index.
func (w *Writer) AddBlock(data []byte) uint32 {
	w.blocks = append(w.blocks, bytes.Clone(data))
	return uint32(len(w.blocks) - 1)
}

// AddVariable registers name as a root pointer to block index. Names
// longer than 255 bytes are truncated.
func (w *Writer) AddVariable(name string, index uint32) {
	if len(name) > math.MaxUint8 {
		name = name[:math.MaxUint8]
	}
	w.vars = append(w.vars, Variable{Name: name, Index: index})
}

// BlockCount returns the number of blocks added so far, excluding the
// reserved block 0.
func (w *Writer) BlockCount() int { return len(w.blocks) - 1 }

func (w *Writer) createHeader() *header {
	dataLength := 0
	for _, b := range w.blocks {
		dataLength += len(b)
	}
	varsLength := 4
	for _, v := range w.vars {
		varsLength += variableSize + len(v.Name)
	}
	indexOffset := headerSize + dataLength
	indexLength := 4 + blockPointerSize*len(w.blocks)
	return &header{
		Magic:          headerMagic,
		Version:        1,
		NumberOfBlocks: uint32(w.BlockCount()),
		IndexOffset:    uint32(indexOffset),
		IndexLength:    uint32(indexLength),
		VarsOffset:     uint32(indexOffset + indexLength),
		VarsLength:     uint32(varsLength),
	}
}

// Serialize lays out the header, the blocks in index order, the index
// table and the variable table, and returns the resulting archive.
func (w *Writer) Serialize() []byte {
	hdr := w.createHeader()
	buf := bytes.NewBuffer(make([]byte, 0, int(hdr.VarsOffset)+int(hdr.VarsLength)))
	_, _ = w.writeTo(buf, hdr)
	return buf.Bytes()
}

// WriteTo streams the serialized archive to dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	return w.writeTo(dst, w.createHeader())
}

func (w *Writer) writeTo(dst io.Writer, hdr *header) (int64, error) {
	cw := &countingWriter{w: dst}
	if _, err := cw.Write(hdr.marshal()); err != nil {
		return cw.n, err
	}
	if err := w.writeBlocks(cw); err != nil {
		return cw.n, err
	}
	if err := w.writeIndex(cw, headerSize); err != nil {
		return cw.n, err
	}
	return cw.n, w.writeVars(cw)
}

func (w *Writer) writeBlocks(dst io.Writer) error {
	for _, b := range w.blocks {
		if _, err := dst.Write(b); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeIndex(dst io.Writer, startAddress uint32) error {
	buf := make([]byte, 4, 4+blockPointerSize*len(w.blocks))
	be.PutUint32(buf, uint32(len(w.blocks)))
	address := startAddress
	for i, b := range w.blocks {
		length := uint32(len(b))
		if i == 0 {
			buf = be.AppendUint32(buf, 0)
			buf = be.AppendUint32(buf, 0)
			continue
		}
		buf = be.AppendUint32(buf, address)
		buf = be.AppendUint32(buf, length)
		address += length
	}
	_, err := dst.Write(buf)
	return err
}

func (w *Writer) writeVars(dst io.Writer) error {
	buf := be.AppendUint32(nil, uint32(len(w.vars)))
	for _, v := range w.vars {
		buf = be.AppendUint32(buf, v.Index)
		buf = append(buf, uint8(len(v.Name)))
		buf = append(buf, v.Name...)
	}
	_, err := dst.Write(buf)
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
