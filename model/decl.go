package model

// Field is one member of a struct or union.
type Field struct {
	Name string
	Type CType
	// BitWidth is the declared bitfield width in bits, or 0 for a plain
	// field.
	BitWidth uint32
}

// StructDef is a C struct or union definition.
//
// Fields preserve source declaration order. When IsUnion is set, every
// field occupies offset 0 and Size is the size of the largest member.
type StructDef struct {
	Name    string
	Fields  []Field
	IsUnion bool
	Size    uint32
	Align   uint32
}

// EnumVariant is a single named enum value. The value is carried in both
// signednesses because C permits variants outside the int64 range.
type EnumVariant struct {
	Name     string
	Signed   int64
	Unsigned uint64
}

// EnumDef is a named C enum. Anonymous enums never become EnumDefs; their
// variants are extracted as standalone ConstantDefs instead.
type EnumDef struct {
	Name       string
	Underlying CType
	Variants   []EnumVariant
}

// Param is a named function or delegate parameter.
type Param struct {
	Name string
	Type CType
}

// FunctionDef is an exported C function. Variadic functions are never
// constructed; the extractor skips them with a diagnostic.
type FunctionDef struct {
	Name   string
	Return CType
	Params []Param
	Conv   CallConv
}

// TypedefDef is a named alias for another type.
type TypedefDef struct {
	Name       string
	Underlying CType
}

// ConstKind discriminates ConstValue.
type ConstKind uint8

const (
	ConstSigned ConstKind = iota
	ConstUnsigned
	ConstFloat
)

// ConstValue is the evaluated value of a preprocessor constant.
type ConstValue struct {
	Kind     ConstKind
	Signed   int64
	Unsigned uint64
	Float    float64
}

// SignedValue returns a signed constant.
func SignedValue(v int64) ConstValue {
	return ConstValue{Kind: ConstSigned, Signed: v}
}

// UnsignedValue returns an unsigned constant.
func UnsignedValue(v uint64) ConstValue {
	return ConstValue{Kind: ConstUnsigned, Unsigned: v}
}

// FloatValue returns a floating-point constant.
func FloatValue(v float64) ConstValue {
	return ConstValue{Kind: ConstFloat, Float: v}
}

// ConstantDef is a numeric `#define` or anonymous enum variant.
type ConstantDef struct {
	Name  string
	Value ConstValue
}

// DelegateDef is a named function pointer type that needs a first-class
// type definition of its own (emitted as a callable type extending the
// universal delegate base).
type DelegateDef struct {
	Name   string
	Return CType
	Params []Param
	Conv   CallConv
}

// Partition is the extracted content of one configured partition: one
// namespace, one target shared library.
type Partition struct {
	Namespace string
	Library   string

	Structs   []StructDef
	Enums     []EnumDef
	Functions []FunctionDef
	Typedefs  []TypedefDef
	Constants []ConstantDef
	Delegates []DelegateDef
}
