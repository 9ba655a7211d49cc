package bom

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
	"sync"
)

// Decoder fills tagged struct fields from the variables of an archive.
// Fields whose variable is missing are left untouched.
type Decoder struct {
	a *Archive
}

func NewDecoder(a *Archive) *Decoder {
	return &Decoder{a}
}

// Unmarshal loads data and decodes it into v.
func Unmarshal(data []byte, v any) error {
	a, err := Load(data)
	if err != nil {
		return err
	}
	return NewDecoder(a).Decode(v)
}

func (d *Decoder) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return fmt.Errorf("bom: Decoder.Decode(non-pointer %v)", rv.Type())
	}
	if rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bom: Decoder.Decode(non-struct pointer %v)", rv.Type())
	}
	return newDecodeOp(d.a).decode(rv.Elem())
}

type decodeOp struct {
	a             *Archive
	blockPointers map[uint32]reflect.Value
}

func newDecodeOp(a *Archive) *decodeOp {
	return &decodeOp{a: a, blockPointers: make(map[uint32]reflect.Value)}
}

func (op *decodeOp) decode(rv reflect.Value) error {
	t := rv.Type()
	for i, n := 0, t.NumField(); i < n; i++ {
		ft := t.Field(i)
		if ft.IsExported() {
			if name, ok := ft.Tag.Lookup("bom"); ok {
				if err := op.decodeVar(name, rv.Field(i)); err != nil {
					return fmt.Errorf("bom: variable %q: %w", name, err)
				}
			}
		}
	}
	return nil
}

func (op *decodeOp) decodeVar(name string, rv reflect.Value) error {
	index, ok := op.a.Variable(name)
	if !ok {
		return nil
	}
	if rv.Type() == treeType {
		return op.decodeTree(index, rv)
	}
	data, err := op.a.block(index)
	if err != nil {
		return err
	}
	return op.decodeBlock(bytes.NewReader(data), rv, rv.Type(), nil)
}

func (op *decodeOp) decodeBlock(b *bytes.Reader, rv reflect.Value, typ reflect.Type, ctx any) error {
	if typ == treeType {
		var index uint32
		if err := binaryRead(b, &index); err != nil {
			return err
		}
		return op.decodeTree(index, rv)
	}

	switch typ.Kind() {
	case reflect.Bool:
		return decodeBool(b, rv)

	case reflect.Int8:
		return decodeInt[int8](b, rv)
	case reflect.Int16:
		return decodeInt[int16](b, rv)
	case reflect.Int32:
		return decodeInt[int32](b, rv)
	case reflect.Int64:
		return decodeInt[int64](b, rv)

	case reflect.Uint8:
		return decodeUint[uint8](b, rv)
	case reflect.Uint16:
		return decodeUint[uint16](b, rv)
	case reflect.Uint32:
		return decodeUint[uint32](b, rv)
	case reflect.Uint64:
		return decodeUint[uint64](b, rv)

	case reflect.String:
		return decodeString(b, rv)

	case reflect.Array:
		return op.decodeArray(b, rv, typ.Elem(), typ.Len(), ctx)

	case reflect.Slice:
		if typ.Elem().Kind() == reflect.Uint8 {
			return decodeBytes(b, rv)
		}
		return op.decodeSlice(b, rv, typ.Elem(), ctx)

	case reflect.Struct:
		return op.decodeStruct(b, rv, typ)

	case reflect.Pointer:
		return op.decodePointer(b, rv, typ, ctx)

	case reflect.Interface:
		return op.decodeInterface(b, rv, ctx)

	default:
		return fmt.Errorf("cannot decode to value of kind %v", rv.Kind())
	}
}

func (op *decodeOp) decodeTree(index uint32, rv reflect.Value) error {
	entries, err := op.a.Tree(index)
	if err != nil {
		return err
	}
	rv.Set(reflect.ValueOf(Tree(entries)))
	return nil
}

func (op *decodeOp) decodeArray(b *bytes.Reader, rv reflect.Value, itemType reflect.Type, size int, ctx any) error {
	array := reflect.New(reflect.ArrayOf(size, itemType)).Elem()
	for i := 0; i < size; i++ {
		item := reflect.New(itemType).Elem()
		if err := op.decodeBlock(b, item, itemType, ctx); err != nil {
			return err
		}
		array.Index(i).Set(item)
	}
	rv.Set(array)
	return nil
}

// decodeSlice reads items until the block is exhausted.
func (op *decodeOp) decodeSlice(b *bytes.Reader, rv reflect.Value, itemType reflect.Type, ctx any) error {
	slice := reflect.New(reflect.SliceOf(itemType)).Elem()
	for b.Len() > 0 {
		item := reflect.New(itemType).Elem()
		if err := op.decodeBlock(b, item, itemType, ctx); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		slice = reflect.Append(slice, item)
	}
	rv.Set(slice.Convert(rv.Type()))
	return nil
}

func (op *decodeOp) decodeStruct(b *bytes.Reader, rv reflect.Value, structType reflect.Type) error {
	structure := reflect.New(structType).Elem()
	for i, n := 0, structType.NumField(); i < n; i++ {
		if structType.Field(i).IsExported() {
			structField := structure.Field(i)
			if err := op.decodeBlock(b, structField, structField.Type(), structure.Interface()); err != nil {
				return err
			}
		}
	}
	rv.Set(structure)
	return nil
}

func (op *decodeOp) decodePointer(b *bytes.Reader, rv reflect.Value, pointerType reflect.Type, ctx any) error {
	var blockIndex uint32
	if err := binaryRead(b, &blockIndex); err != nil {
		return err
	}
	if blockIndex == nilBlockIndex {
		return nil
	}

	if pointer, ok := op.blockPointers[blockIndex]; ok {
		rv.Set(pointer)
		return nil
	}

	data, err := op.a.block(blockIndex)
	if err != nil {
		return err
	}
	pointer := reflect.New(pointerType.Elem())
	value := pointer.Elem()
	op.blockPointers[blockIndex] = pointer

	if err := op.decodeBlock(bytes.NewReader(data), value, value.Type(), ctx); err != nil {
		return err
	}
	rv.Set(pointer)
	return nil
}

func (op *decodeOp) decodeInterface(b *bytes.Reader, rv reflect.Value, ctx any) error {
	if resolver, ok := interfaceTypeResolvers.Load(rv.Type()); ok {
		typ, err := resolver.(InterfaceTypeResolver)(ctx)
		if err != nil {
			return err
		}
		concrete := reflect.New(typ).Elem()
		if err := op.decodeBlock(b, concrete, typ, ctx); err != nil {
			return err
		}
		rv.Set(concrete)
		return nil
	}
	return fmt.Errorf("don't know how to decode type %v", rv.Type())
}

func decodeBool(b *bytes.Reader, rv reflect.Value) error {
	var v bool
	if err := binaryRead(b, &v); err != nil {
		return err
	}
	rv.SetBool(v)
	return nil
}

func decodeInt[TInt int8 | int16 | int32 | int64](b *bytes.Reader, rv reflect.Value) error {
	var v TInt
	if err := binaryRead(b, &v); err != nil {
		return err
	}
	rv.SetInt(int64(v))
	return nil
}

func decodeUint[Uint uint8 | uint16 | uint32 | uint64](b *bytes.Reader, rv reflect.Value) error {
	var v Uint
	if err := binaryRead(b, &v); err != nil {
		return err
	}
	rv.SetUint(uint64(v))
	return nil
}

func decodeString(b *bytes.Reader, rv reflect.Value) error {
	s, err := io.ReadAll(b)
	if err != nil {
		return err
	}
	rv.SetString(string(s))
	return nil
}

func decodeBytes(b *bytes.Reader, rv reflect.Value) error {
	s, err := io.ReadAll(b)
	if err != nil {
		return err
	}
	rv.SetBytes(s)
	return nil
}

func binaryRead(r io.Reader, data any) error {
	return binary.Read(r, binary.BigEndian, data)
}

// InterfaceTypeResolver picks the concrete type to decode into an
// interface field. ctx is the enclosing struct as decoded so far.
type InterfaceTypeResolver func(ctx any) (reflect.Type, error)

var interfaceTypeResolvers sync.Map // map[reflect.Type]InterfaceTypeResolver

func RegisterInterfaceTypeResolver[T any](resolver InterfaceTypeResolver) {
	interfaceTypeResolvers.Store(reflect.TypeFor[T](), resolver)
}
