package model

import (
	"fmt"
	"strings"
)

// Kind discriminates the CType union.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindI8
	KindU8
	KindI16
	KindU16
	KindI32
	KindU32
	KindI64
	KindU64
	KindF32
	KindF64
	KindISize
	KindUSize
	KindPtr
	KindArray
	KindNamed
	KindFuncPtr
)

var kindNames = [...]string{
	KindVoid:    "void",
	KindBool:    "bool",
	KindI8:      "i8",
	KindU8:      "u8",
	KindI16:     "i16",
	KindU16:     "u16",
	KindI32:     "i32",
	KindU32:     "u32",
	KindI64:     "i64",
	KindU64:     "u64",
	KindF32:     "f32",
	KindF64:     "f64",
	KindISize:   "isize",
	KindUSize:   "usize",
	KindPtr:     "ptr",
	KindArray:   "array",
	KindNamed:   "named",
	KindFuncPtr: "funcptr",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsPrimitive reports whether the kind is a leaf scalar type.
func (k Kind) IsPrimitive() bool {
	return k <= KindUSize
}

// CallConv is the calling convention of a function or function pointer.
type CallConv uint8

const (
	// CallCdecl is the platform default.
	CallCdecl CallConv = iota
	CallStdcall
	CallFastcall
)

// CType is one node of a C type tree.
//
// Only the fields relevant to Kind are populated. Pointers are modeled
// uniformly: Mutable records whether the immediate pointee was declared
// non-const, and that is the only const information the model carries.
// Nested const qualifiers are intentionally dropped: emitting modifier
// blobs mid-chain crashes at least one consumer of the output format, so
// mutability is applied at emission time as a parameter attribute instead.
type CType struct {
	Kind Kind

	// KindPtr
	Pointee *CType
	Mutable bool

	// KindArray (pre-decay only; never survives into a parameter)
	Elem *CType
	Len  uint32

	// KindNamed: a typedef, struct, union or enum reference. Resolved is
	// the compiler-resolved canonical primitive used as a fallback when
	// Name is not registered anywhere; nil for records and enums.
	Name     string
	Resolved *CType

	// KindFuncPtr
	Return *CType
	Params []CType
	Conv   CallConv
}

// Prim returns a primitive CType of the given kind.
func Prim(k Kind) CType {
	return CType{Kind: k}
}

// PtrTo returns a pointer to t.
func PtrTo(t CType, mutable bool) CType {
	return CType{Kind: KindPtr, Pointee: &t, Mutable: mutable}
}

// ArrayOf returns a fixed-size array of element type t.
func ArrayOf(t CType, n uint32) CType {
	return CType{Kind: KindArray, Elem: &t, Len: n}
}

// NamedRef returns a reference to a declared type name. resolved may be
// nil when no canonical fallback exists (records, enums).
func NamedRef(name string, resolved *CType) CType {
	return CType{Kind: KindNamed, Name: name, Resolved: resolved}
}

// FuncPtr returns a function pointer type.
func FuncPtr(ret CType, params []CType, conv CallConv) CType {
	return CType{Kind: KindFuncPtr, Return: &ret, Params: params, Conv: conv}
}

// OuterPtrMutable reports whether the type is a pointer whose immediate
// pointee was declared non-const. Used for the Out-attribute annotation
// on parameters.
func (t *CType) OuterPtrMutable() bool {
	return t.Kind == KindPtr && t.Mutable
}

// String renders a compact, diagnostic-only form of the type.
func (t CType) String() string {
	switch t.Kind {
	case KindPtr:
		if t.Mutable {
			return "*mut " + t.Pointee.String()
		}
		return "*const " + t.Pointee.String()
	case KindArray:
		return fmt.Sprintf("[%s; %d]", t.Elem, t.Len)
	case KindNamed:
		return t.Name
	case KindFuncPtr:
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = p.String()
		}
		return fmt.Sprintf("fn(%s) -> %s", strings.Join(params, ", "), t.Return)
	default:
		return t.Kind.String()
	}
}

// Walk calls fn for t and every type nested inside it.
func (t *CType) Walk(fn func(*CType)) {
	fn(t)
	switch t.Kind {
	case KindPtr:
		t.Pointee.Walk(fn)
	case KindArray:
		t.Elem.Walk(fn)
	case KindFuncPtr:
		t.Return.Walk(fn)
		for i := range t.Params {
			t.Params[i].Walk(fn)
		}
	}
}
