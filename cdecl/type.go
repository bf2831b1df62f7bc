package cdecl

// TypeKind enumerates the structural kinds the front-end reports.
type TypeKind uint8

const (
	TypeVoid TypeKind = iota
	TypeBool
	TypeChar  // plain char (signedness per target; treated as signed)
	TypeSChar // signed char
	TypeUChar // unsigned char
	TypeShort
	TypeUShort
	TypeInt
	TypeUInt
	TypeLong // 64-bit under the LP64 ABI assumed throughout
	TypeULong
	TypeLongLong
	TypeULongLong
	TypeInt128 // unrepresentable downstream; extraction skips it
	TypeUInt128
	TypeFloat
	TypeDouble
	TypePointer
	TypeConstantArray
	TypeIncompleteArray
	TypeRecord // struct or union
	TypeEnum
	TypeTypedef
	TypeFuncProto
)

// CallConv is the calling convention the front-end saw on a function
// type. Conventions other than these collapse to CallCdecl.
type CallConv uint8

const (
	CallCdecl CallConv = iota
	CallStdcall
	CallFastcall
)

// FieldInfo is one record member as reported by the front-end.
type FieldInfo struct {
	Name string
	Type *Type
	// BitWidth is the bitfield width in bits; 0 means not a bitfield.
	BitWidth uint32
}

// Type is the structural type tree the front-end hands over.
//
// Const is the qualifier on this node. Canonical, when non-nil, is the
// fully resolved type with all typedef sugar removed. It is present on
// typedef nodes so the consumer can fall back to the primitive
// representation of system typedefs it never extracts.
type Type struct {
	Kind  TypeKind
	Const bool

	// TypePointer
	Pointee *Type

	// TypeConstantArray / TypeIncompleteArray
	Elem *Type
	Len  uint32

	// TypeRecord / TypeEnum / TypeTypedef
	Name      string
	Canonical *Type
	// Complete is false for records that are only forward-declared in
	// this translation unit.
	Complete bool
	// Anonymous marks an unnamed record or enum.
	Anonymous bool
	Union     bool
	// Fields is populated for complete records.
	Fields []FieldInfo
	// Size and Align are the target layout of a complete record, in
	// bytes, as computed by the front-end's target info. Zero when the
	// front-end did not provide them.
	Size  uint32
	Align uint32

	// TypeFuncProto
	Ret      *Type
	Params   []*Type
	Variadic bool
	Conv     CallConv
}
