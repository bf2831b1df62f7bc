package winmd

import (
	"crypto/md5"

	"github.com/bindcraft/winmd-gen/winmd/internal/binary"
)

// metadataVersion is the version string carried in the metadata root.
const metadataVersion = "WindowsRuntime 1.4"

type typeRefKey struct {
	scope uint32
	ns    string
	name  string
}

// File accumulates metadata rows and heaps for one output file and
// serializes them into the physical format. Row indexes are 1-based, as
// in the format itself.
type File struct {
	strings *stringHeap
	blobs   *blobHeap
	guids   *guidHeap
	rows    [tableMax][][]uint32

	moduleRefs   map[string]uint32
	typeRefs     map[typeRefKey]uint32
	assemblyRefs map[string]uint32
	sysScope     uint32
}

// NewFile creates a file with its Module, Assembly and <Module> rows in
// place. The module version id is derived from the assembly name so that
// identical inputs produce byte-identical output.
func NewFile(assembly string) *File {
	f := &File{
		strings:      newStringHeap(),
		blobs:        newBlobHeap(),
		guids:        newGUIDHeap(),
		moduleRefs:   make(map[string]uint32),
		typeRefs:     make(map[typeRefKey]uint32),
		assemblyRefs: make(map[string]uint32),
	}

	mvid := md5.Sum([]byte("winmd/" + assembly))
	f.appendRow(tableModule, []uint32{
		0,
		f.strings.Add(assembly + ".winmd"),
		f.guids.Add(mvid),
		0, 0,
	})

	f.appendRow(tableTypeDef, []uint32{
		0,
		f.strings.Add("<Module>"),
		f.strings.Add(""),
		0,
		1, 1,
	})

	f.appendRow(tableAssembly, []uint32{
		hashAlgSHA1,
		255, 255, 255, 255,
		assemblyWindowsRuntime,
		0,
		f.strings.Add(assembly),
		0,
	})

	mscorlib := f.appendRow(tableAssemblyRef, []uint32{
		4, 0, 0, 0,
		0,
		f.blobs.Add([]byte{0xB7, 0x7A, 0x5C, 0x56, 0x19, 0x34, 0xE0, 0x89}),
		f.strings.Add("mscorlib"),
		0, 0,
	})
	f.sysScope = codedValue(codedResolutionScope, tableAssemblyRef, mscorlib)

	return f
}

func (f *File) appendRow(t int, cells []uint32) uint32 {
	f.rows[t] = append(f.rows[t], cells)
	return uint32(len(f.rows[t]))
}

func (f *File) rowCount(t int) uint32 {
	return uint32(len(f.rows[t]))
}

// TypeDef appends a type definition whose field and method ranges start
// at the current end of the Field and MethodDef tables. extends is a
// TypeDefOrRef coded index (0 for no base type).
func (f *File) TypeDef(flags uint32, ns, name string, extends uint32) uint32 {
	return f.appendRow(tableTypeDef, []uint32{
		flags,
		f.strings.Add(name),
		f.strings.Add(ns),
		extends,
		f.rowCount(tableField) + 1,
		f.rowCount(tableMethodDef) + 1,
	})
}

// Field appends a field row owned by the most recent TypeDef.
func (f *File) Field(flags uint32, name string, sig []byte) uint32 {
	return f.appendRow(tableField, []uint32{
		flags,
		f.strings.Add(name),
		f.blobs.Add(sig),
	})
}

// MethodDef appends a method row owned by the most recent TypeDef; its
// parameter range starts at the current end of the Param table.
func (f *File) MethodDef(flags, implFlags uint32, name string, sig []byte) uint32 {
	return f.appendRow(tableMethodDef, []uint32{
		0, // RVA: no IL body
		implFlags,
		flags,
		f.strings.Add(name),
		f.blobs.Add(sig),
		f.rowCount(tableParam) + 1,
	})
}

// Param appends a parameter row owned by the most recent MethodDef.
func (f *File) Param(flags, sequence uint32, name string) uint32 {
	return f.appendRow(tableParam, []uint32{flags, sequence, f.strings.Add(name)})
}

// Constant attaches a default value to a field. parent is a HasConstant
// coded index and code an element type constant.
func (f *File) Constant(parent uint32, code byte, value []byte) {
	f.appendRow(tableConstant, []uint32{uint32(code), parent, f.blobs.Add(value)})
}

// ClassLayout records packing and total size for a TypeDef row.
func (f *File) ClassLayout(packing uint16, size, typeDef uint32) {
	f.appendRow(tableClassLayout, []uint32{uint32(packing), size, typeDef})
}

// FieldLayout records the explicit byte offset of a field row.
func (f *File) FieldLayout(offset, field uint32) {
	f.appendRow(tableFieldLayout, []uint32{offset, field})
}

// ModuleRef returns the row of the named import library, creating it on
// first use.
func (f *File) ModuleRef(name string) uint32 {
	if row, ok := f.moduleRefs[name]; ok {
		return row
	}
	row := f.appendRow(tableModuleRef, []uint32{f.strings.Add(name)})
	f.moduleRefs[name] = row
	return row
}

// ImplMap binds a method row to an unmanaged export.
func (f *File) ImplMap(flags uint32, method uint32, importName string, moduleRef uint32) {
	f.appendRow(tableImplMap, []uint32{
		flags,
		codedValue(codedMemberForwarded, tableMethodDef, method),
		f.strings.Add(importName),
		moduleRef,
	})
}

// MemberRef appends a member reference. parent is a MemberRefParent
// coded index.
func (f *File) MemberRef(parent uint32, name string, sig []byte) uint32 {
	return f.appendRow(tableMemberRef, []uint32{parent, f.strings.Add(name), f.blobs.Add(sig)})
}

// CustomAttribute attaches an attribute blob. parent is HasCustomAttribute
// coded, ctor is CustomAttributeType coded.
func (f *File) CustomAttribute(parent, ctor uint32, value []byte) {
	f.appendRow(tableCustomAttribute, []uint32{parent, ctor, f.blobs.Add(value)})
}

// TypeRef returns the row for a type reference under the given
// ResolutionScope coded index, creating it on first use.
func (f *File) TypeRef(scope uint32, ns, name string) uint32 {
	key := typeRefKey{scope: scope, ns: ns, name: name}
	if row, ok := f.typeRefs[key]; ok {
		return row
	}
	row := f.appendRow(tableTypeRef, []uint32{scope, f.strings.Add(name), f.strings.Add(ns)})
	f.typeRefs[key] = row
	return row
}

// AssemblyRef returns the row referencing another metadata file by
// assembly name, creating it on first use.
func (f *File) AssemblyRef(name string) uint32 {
	if row, ok := f.assemblyRefs[name]; ok {
		return row
	}
	row := f.appendRow(tableAssemblyRef, []uint32{
		255, 255, 255, 255,
		assemblyWindowsRuntime,
		0,
		f.strings.Add(name),
		0, 0,
	})
	f.assemblyRefs[name] = row
	return row
}

// SystemTypeRef returns the TypeRef row for System.<name> in the core
// library.
func (f *File) SystemTypeRef(name string) uint32 {
	return f.TypeRef(f.sysScope, "System", name)
}

// moduleScope is the ResolutionScope coded index of this module.
func moduleScope() uint32 {
	return codedValue(codedResolutionScope, tableModule, 1)
}

func typeDefToken(row uint32) uint32 {
	return codedValue(codedTypeDefOrRef, tableTypeDef, row)
}

func typeRefToken(row uint32) uint32 {
	return codedValue(codedTypeDefOrRef, tableTypeRef, row)
}

// Bytes serializes the metadata root, the #~ table stream and the four
// heaps.
func (f *File) Bytes() []byte {
	sz := layoutSizes{
		rows:       make(map[int]uint32, 16),
		bigStrings: f.strings.Len() > 0xFFFF,
		bigGUID:    f.guids.Len() > 0xFFFF,
		bigBlob:    f.blobs.Len() > 0xFFFF,
	}
	var valid uint64
	for t := 0; t < tableMax; t++ {
		if n := uint32(len(f.rows[t])); n > 0 {
			sz.rows[t] = n
			valid |= uint64(1) << t
		}
	}

	tw := binary.NewWriter()
	tw.U32(0) // reserved
	tw.Byte(2)
	tw.Byte(0)
	tw.Byte(sz.heapSizesByte())
	tw.Byte(1) // reserved
	tw.U64(valid)
	tw.U64(sortedMask & valid)
	for t := 0; t < tableMax; t++ {
		if n, ok := sz.rows[t]; ok {
			tw.U32(n)
		}
	}
	for t := 0; t < tableMax; t++ {
		schema := tableSchema[t]
		for _, row := range f.rows[t] {
			for i, c := range schema {
				tw.Index(row[i], sz.colWidth(c) == 4)
			}
		}
	}
	tw.Align(4)

	streams := []struct {
		name string
		data []byte
	}{
		{"#~", tw.Bytes()},
		{"#Strings", pad4(f.strings.buf)},
		{"#US", []byte{0, 0, 0, 0}},
		{"#GUID", f.guids.bytes()},
		{"#Blob", pad4(f.blobs.buf)},
	}

	version := pad4([]byte(metadataVersion + "\x00"))

	headerLen := 16 + len(version) + 4
	for _, s := range streams {
		headerLen += 8 + padLen4(len(s.name)+1)
	}

	w := binary.NewWriter()
	w.U32(0x424A5342) // BSJB
	w.U16(1)
	w.U16(1)
	w.U32(0)
	w.U32(uint32(len(version)))
	w.WriteBytes(version)
	w.U16(0)
	w.U16(uint16(len(streams)))

	offset := headerLen
	for _, s := range streams {
		w.U32(uint32(offset))
		w.U32(uint32(len(s.data)))
		w.WriteString(s.name)
		for n := padLen4(len(s.name) + 1); n > len(s.name); n-- {
			w.Byte(0)
		}
		offset += len(s.data)
	}
	for _, s := range streams {
		w.WriteBytes(s.data)
	}
	return w.Bytes()
}

func pad4(b []byte) []byte {
	out := make([]byte, padLen4(len(b)))
	copy(out, b)
	return out
}

func padLen4(n int) int {
	return (n + 3) &^ 3
}
