package bom

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
)

var treeType = reflect.TypeFor[Tree]()

// Encoder writes a struct as a complete archive. Every exported field
// tagged `bom:"Name"` becomes a variable called Name.
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w}
}

func (e *Encoder) Encode(v any) error {
	bw := NewWriter()
	if err := bw.Encode(v); err != nil {
		return err
	}
	_, err := bw.WriteTo(e.w)
	return err
}

// Marshal returns the archive encoding of v.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode adds the tagged fields of v to w as variables. Blocks added to
// w earlier keep their indices, so v may refer to them by number.
func (w *Writer) Encode(v any) error {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("bom: Writer.Encode(non-struct %v)", rv.Type())
	}
	return newEncodeOp(w).encode(rv)
}

type encodeOp struct {
	w             *Writer
	pointerBlocks map[any]uint32
}

func newEncodeOp(w *Writer) *encodeOp {
	return &encodeOp{w: w, pointerBlocks: make(map[any]uint32)}
}

func (op *encodeOp) encode(rv reflect.Value) error {
	t := rv.Type()
	for i, n := 0, t.NumField(); i < n; i++ {
		ft := t.Field(i)
		if ft.IsExported() {
			if name, ok := ft.Tag.Lookup("bom"); ok {
				if err := op.encodeVar(name, rv.Field(i)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (op *encodeOp) encodeVar(name string, rv reflect.Value) error {
	if rv.Type() == treeType {
		op.w.AddVariable(name, op.w.BuildTree(rv.Interface().(Tree)))
		return nil
	}
	index := op.w.reserveBlock()
	var b bytes.Buffer
	if err := op.encodeBlock(&b, rv); err != nil {
		return err
	}
	op.w.blocks[index] = b.Bytes()
	op.w.AddVariable(name, index)
	return nil
}

func (op *encodeOp) encodeBlock(b *bytes.Buffer, rv reflect.Value) error {
	if rv.Type() == treeType {
		return binaryWrite(b, op.w.BuildTree(rv.Interface().(Tree)))
	}

	switch rv.Kind() {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return binaryWrite(b, rv.Interface())

	case reflect.String:
		_, _ = b.WriteString(rv.String())
		return nil

	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			_, _ = b.Write(rv.Bytes())
			return nil
		}
		return op.encodeList(b, rv)

	case reflect.Array:
		return op.encodeList(b, rv)

	case reflect.Struct:
		return op.encodeStruct(b, rv)

	case reflect.Pointer:
		return op.encodePointer(b, rv)

	case reflect.Interface:
		return op.encodeInterface(b, rv)

	default:
		return fmt.Errorf("bom: cannot encode value of kind %v", rv.Kind())
	}
}

func (op *encodeOp) encodeList(b *bytes.Buffer, rv reflect.Value) error {
	for i, n := 0, rv.Len(); i < n; i++ {
		if err := op.encodeBlock(b, rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (op *encodeOp) encodeStruct(b *bytes.Buffer, rv reflect.Value) error {
	t := rv.Type()
	for i, n := 0, t.NumField(); i < n; i++ {
		if t.Field(i).IsExported() {
			if err := op.encodeBlock(b, rv.Field(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

// encodePointer writes the index of the block holding the pointee. Each
// distinct pointer is encoded once and shared by every reference to it.
func (op *encodeOp) encodePointer(b *bytes.Buffer, rv reflect.Value) error {
	if rv.IsNil() {
		return binaryWrite(b, nilBlockIndex)
	}
	key := rv.Interface()
	if index, ok := op.pointerBlocks[key]; ok {
		return binaryWrite(b, index)
	}
	index := op.w.reserveBlock()
	op.pointerBlocks[key] = index
	if err := binaryWrite(b, index); err != nil {
		return err
	}
	var pb bytes.Buffer
	if err := op.encodeBlock(&pb, rv.Elem()); err != nil {
		return err
	}
	op.w.blocks[index] = pb.Bytes()
	return nil
}

func (op *encodeOp) encodeInterface(b *bytes.Buffer, rv reflect.Value) error {
	if rv.IsNil() {
		return binaryWrite(b, nilBlockIndex)
	}
	return op.encodeBlock(b, rv.Elem())
}

// reserveBlock appends an empty block whose contents are filled in once
// they have been encoded.
func (w *Writer) reserveBlock() uint32 {
	w.blocks = append(w.blocks, nil)
	return uint32(len(w.blocks) - 1)
}

func binaryWrite(w io.Writer, data any) error {
	return binary.Write(w, binary.BigEndian, data)
}
