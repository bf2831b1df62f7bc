package winmd

// TypeAttributes (II.23.1.15).
const (
	typePublic           = 0x0001
	typeSequentialLayout = 0x0008
	typeExplicitLayout   = 0x0010
	typeAbstract         = 0x0080
	typeSealed           = 0x0100
)

// FieldAttributes (II.23.1.5).
const (
	fieldPublic        = 0x0006
	fieldStatic        = 0x0010
	fieldLiteral       = 0x0040
	fieldSpecialName   = 0x0200
	fieldRTSpecialName = 0x0400
	fieldHasDefault    = 0x8000
)

// MethodAttributes (II.23.1.10).
const (
	methodPublic      = 0x0006
	methodStatic      = 0x0010
	methodVirtual     = 0x0040
	methodHideBySig   = 0x0080
	methodNewSlot     = 0x0100
	methodPinvokeImpl = 0x2000
)

// MethodImplAttributes (II.23.1.11).
const methodImplPreserveSig = 0x0080

// ParamAttributes (II.23.1.13).
const (
	paramIn  = 0x0001
	paramOut = 0x0002
)

// PInvokeAttributes (II.23.1.8).
const (
	pinvokeCallConvPlatformapi = 0x0100
	pinvokeCallConvCdecl       = 0x0200
	pinvokeCallConvStdcall     = 0x0300
	pinvokeCallConvFastcall    = 0x0500
)

// AssemblyFlags: the WindowsRuntime bit identifies a winmd assembly.
const assemblyWindowsRuntime = 0x0200

// AssemblyHashAlgorithm SHA1.
const hashAlgSHA1 = 0x8004

// Element types used in signature blobs (II.23.1.16).
const (
	elemVoid      = 0x01
	elemBoolean   = 0x02
	elemI1        = 0x04
	elemU1        = 0x05
	elemI2        = 0x06
	elemU2        = 0x07
	elemI4        = 0x08
	elemU4        = 0x09
	elemI8        = 0x0A
	elemU8        = 0x0B
	elemR4        = 0x0C
	elemR8        = 0x0D
	elemPtr       = 0x0F
	elemValueType = 0x11
	elemClass     = 0x12
	elemArray     = 0x14
	elemISize     = 0x18
	elemUSize     = 0x19
)

// Signature calling-convention bytes (II.23.2.1).
const (
	sigDefault = 0x00
	sigHasThis = 0x20
	sigField   = 0x06
)
