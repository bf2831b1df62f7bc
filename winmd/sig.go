package winmd

import (
	"encoding/binary"
	"fmt"
	"math"

	bin "github.com/bindcraft/winmd-gen/winmd/internal/binary"

	"github.com/bindcraft/winmd-gen/model"
)

// typeToken is a resolved TypeDefOrRef coded index plus the reference
// kind it should be encoded with. Delegates are reference types and use
// ELEMENT_TYPE_CLASS; everything else here is a value type.
type typeToken struct {
	coded uint32
	class bool
}

// tokenResolver maps a declared type name to its token within the file
// being written.
type tokenResolver func(name string) (typeToken, error)

// fieldSig encodes a FieldSig blob (II.23.2.4).
func fieldSig(t model.CType, res tokenResolver) ([]byte, error) {
	w := bin.NewWriter()
	w.Byte(sigField)
	if err := encodeType(w, t, res); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// methodSig encodes a MethodDefSig blob (II.23.2.1).
func methodSig(hasThis bool, ret model.CType, params []model.Param, res tokenResolver) ([]byte, error) {
	w := bin.NewWriter()
	if hasThis {
		w.Byte(sigHasThis)
	} else {
		w.Byte(sigDefault)
	}
	w.Compressed(uint32(len(params)))
	if err := encodeType(w, ret, res); err != nil {
		return nil, err
	}
	for _, p := range params {
		if err := encodeType(w, p.Type, res); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

var elementCodes = map[model.Kind]byte{
	model.KindVoid:  elemVoid,
	model.KindBool:  elemBoolean,
	model.KindI8:    elemI1,
	model.KindU8:    elemU1,
	model.KindI16:   elemI2,
	model.KindU16:   elemU2,
	model.KindI32:   elemI4,
	model.KindU32:   elemU4,
	model.KindI64:   elemI8,
	model.KindU64:   elemU8,
	model.KindF32:   elemR4,
	model.KindF64:   elemR8,
	model.KindISize: elemISize,
	model.KindUSize: elemUSize,
}

// encodeType writes the signature encoding of one type tree.
//
// Pointers are always encoded as plain PTR chains with no const
// modifiers: at least one consumer of the format faults on modifier
// blobs nested inside pointer types, so constness travels out of band
// as a parameter attribute. Bare function pointers collapse to ISize;
// only delegate typedefs keep their shape.
func encodeType(w *bin.Writer, t model.CType, res tokenResolver) error {
	switch t.Kind {
	case model.KindPtr:
		w.Byte(elemPtr)
		return encodeType(w, *t.Pointee, res)

	case model.KindArray:
		w.Byte(elemArray)
		if err := encodeType(w, *t.Elem, res); err != nil {
			return err
		}
		w.Compressed(1)     // rank
		w.Compressed(1)     // one dimension size follows
		w.Compressed(t.Len) // size
		w.Compressed(0)     // no lower bounds
		return nil

	case model.KindNamed:
		tok, err := res(t.Name)
		if err != nil {
			if t.Resolved != nil {
				return encodeType(w, *t.Resolved, res)
			}
			return err
		}
		if tok.class {
			w.Byte(elemClass)
		} else {
			w.Byte(elemValueType)
		}
		w.Compressed(tok.coded)
		return nil

	case model.KindFuncPtr:
		w.Byte(elemISize)
		return nil

	default:
		code, ok := elementCodes[t.Kind]
		if !ok {
			return fmt.Errorf("no signature encoding for type kind %s", t.Kind)
		}
		w.Byte(code)
		return nil
	}
}

// valueTypeSig is a FieldSig whose type is a VALUETYPE token, used for
// enum variant fields typed as the enum itself.
func valueTypeSig(coded uint32) []byte {
	w := bin.NewWriter()
	w.Byte(sigField)
	w.Byte(elemValueType)
	w.Compressed(coded)
	return w.Bytes()
}

// attrCtorSig is the MethodRefSig of a parameterless attribute
// constructor: instance void .ctor().
func attrCtorSig() []byte {
	return []byte{sigHasThis, 0x00, elemVoid}
}

// attrEmptyValue is a custom attribute blob with no fixed or named
// arguments: prolog 0x0001 followed by a zero named-argument count.
func attrEmptyValue() []byte {
	return []byte{0x01, 0x00, 0x00, 0x00}
}

// enumConstant encodes one enum variant value in the enum's underlying
// type, returning the constant type code and the little-endian bytes.
func enumConstant(underlying model.Kind, v model.EnumVariant) (byte, []byte) {
	switch underlying {
	case model.KindI8:
		return elemI1, []byte{byte(int8(v.Signed))}
	case model.KindU8:
		return elemU1, []byte{byte(v.Unsigned)}
	case model.KindI16:
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(int16(v.Signed)))
		return elemI2, b
	case model.KindU16:
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(v.Unsigned))
		return elemU2, b
	case model.KindU32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(v.Unsigned))
		return elemU4, b
	case model.KindI64:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, uint64(v.Signed))
		return elemI8, b
	case model.KindU64:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, v.Unsigned)
		return elemU8, b
	default: // KindI32 and anything exotic
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(int32(v.Signed)))
		return elemI4, b
	}
}

// constValue encodes a standalone constant, choosing the narrowest of
// i4/i8/u4/u8 that holds the value; floats are always r8.
func constValue(v model.ConstValue) (model.Kind, byte, []byte) {
	switch v.Kind {
	case model.ConstUnsigned:
		if v.Unsigned <= math.MaxUint32 {
			b := make([]byte, 4)
			binary.LittleEndian.PutUint32(b, uint32(v.Unsigned))
			return model.KindU32, elemU4, b
		}
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, v.Unsigned)
		return model.KindU64, elemU8, b
	case model.ConstFloat:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, math.Float64bits(v.Float))
		return model.KindF64, elemR8, b
	default:
		if v.Signed >= math.MinInt32 && v.Signed <= math.MaxInt32 {
			b := make([]byte, 4)
			binary.LittleEndian.PutUint32(b, uint32(int32(v.Signed)))
			return model.KindI32, elemI4, b
		}
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, uint64(v.Signed))
		return model.KindI64, elemI8, b
	}
}
