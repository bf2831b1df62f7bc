package winmd

// Table identifiers from the physical metadata schema (II.22). Only the
// tables this writer produces are listed; the reader rejects files whose
// Valid mask names anything else.
const (
	tableModule          = 0x00
	tableTypeRef         = 0x01
	tableTypeDef         = 0x02
	tableField           = 0x04
	tableMethodDef       = 0x06
	tableParam           = 0x08
	tableMemberRef       = 0x0A
	tableConstant        = 0x0B
	tableCustomAttribute = 0x0C
	tableClassLayout     = 0x0F
	tableFieldLayout     = 0x10
	tableModuleRef       = 0x1A
	tableImplMap         = 0x1C
	tableAssembly        = 0x20
	tableAssemblyRef     = 0x23

	tableMax = 0x40
)

// Coded index families (II.24.2.6). The slice position of a table is its
// tag value; -1 marks a tag whose table is never emitted here.
const (
	codedResolutionScope = iota
	codedTypeDefOrRef
	codedHasConstant
	codedHasCustomAttribute
	codedCustomAttributeType
	codedMemberRefParent
	codedMemberForwarded
)

var codedFamilies = [...]struct {
	bits   uint
	tables []int
}{
	codedResolutionScope: {2, []int{tableModule, tableModuleRef, tableAssemblyRef, tableTypeRef}},
	codedTypeDefOrRef:    {2, []int{tableTypeDef, tableTypeRef, -1}},
	codedHasConstant:     {2, []int{tableField, tableParam, -1}},
	codedHasCustomAttribute: {5, []int{
		tableMethodDef, tableField, tableTypeRef, tableTypeDef, tableParam,
		-1, tableMemberRef, tableModule, -1, -1,
		-1, -1, tableModuleRef, -1, tableAssembly,
		tableAssemblyRef, -1, -1, -1,
	}},
	codedCustomAttributeType: {3, []int{-1, -1, tableMethodDef, tableMemberRef, -1}},
	codedMemberRefParent:     {3, []int{tableTypeDef, tableTypeRef, tableModuleRef, tableMethodDef, -1}},
	codedMemberForwarded:     {1, []int{tableField, tableMethodDef}},
}

// codedValue packs a 1-based row of table into the family's coded form.
func codedValue(family, table int, row uint32) uint32 {
	fam := codedFamilies[family]
	for tag, t := range fam.tables {
		if t == table {
			return row<<fam.bits | uint32(tag)
		}
	}
	panic("winmd: table not a member of coded family")
}

type colKind uint8

const (
	colU16 colKind = iota
	colU32
	colString
	colGUID
	colBlob
	colIndex // simple index into another table
	colCoded // coded index
)

type column struct {
	kind colKind
	ref  int // table id for colIndex, coded family for colCoded
}

func cU16() column           { return column{kind: colU16} }
func cU32() column           { return column{kind: colU32} }
func cStr() column           { return column{kind: colString} }
func cGUID() column          { return column{kind: colGUID} }
func cBlob() column          { return column{kind: colBlob} }
func cIndex(table int) column { return column{kind: colIndex, ref: table} }
func cCoded(family int) column { return column{kind: colCoded, ref: family} }

// tableSchema gives the column layout of every table this package
// understands, in physical column order.
var tableSchema = map[int][]column{
	tableModule:          {cU16(), cStr(), cGUID(), cGUID(), cGUID()},
	tableTypeRef:         {cCoded(codedResolutionScope), cStr(), cStr()},
	tableTypeDef:         {cU32(), cStr(), cStr(), cCoded(codedTypeDefOrRef), cIndex(tableField), cIndex(tableMethodDef)},
	tableField:           {cU16(), cStr(), cBlob()},
	tableMethodDef:       {cU32(), cU16(), cU16(), cStr(), cBlob(), cIndex(tableParam)},
	tableParam:           {cU16(), cU16(), cStr()},
	tableMemberRef:       {cCoded(codedMemberRefParent), cStr(), cBlob()},
	tableConstant:        {cU16(), cCoded(codedHasConstant), cBlob()},
	tableCustomAttribute: {cCoded(codedHasCustomAttribute), cCoded(codedCustomAttributeType), cBlob()},
	tableClassLayout:     {cU16(), cU32(), cIndex(tableTypeDef)},
	tableFieldLayout:     {cU32(), cIndex(tableField)},
	tableModuleRef:       {cStr()},
	tableImplMap:         {cU16(), cCoded(codedMemberForwarded), cStr(), cIndex(tableModuleRef)},
	tableAssembly:        {cU32(), cU16(), cU16(), cU16(), cU16(), cU32(), cBlob(), cStr(), cStr()},
	tableAssemblyRef:     {cU16(), cU16(), cU16(), cU16(), cU32(), cBlob(), cStr(), cStr(), cBlob()},
}

// sortedMask marks the tables this writer emits in sorted order by
// construction: their sort keys are parent indexes that only grow as
// rows are appended.
const sortedMask = uint64(1)<<tableConstant |
	uint64(1)<<tableCustomAttribute |
	uint64(1)<<tableClassLayout |
	uint64(1)<<tableFieldLayout |
	uint64(1)<<tableImplMap

// layoutSizes decides the physical width of every column from the row
// counts and heap sizes of a concrete file.
type layoutSizes struct {
	rows       map[int]uint32
	bigStrings bool
	bigGUID    bool
	bigBlob    bool
}

func (s layoutSizes) tableWide(t int) bool {
	return s.rows[t] >= 1<<16
}

func (s layoutSizes) codedWide(family int) bool {
	fam := codedFamilies[family]
	limit := uint32(1) << (16 - fam.bits)
	for _, t := range fam.tables {
		if t >= 0 && s.rows[t] >= limit {
			return true
		}
	}
	return false
}

func (s layoutSizes) colWidth(c column) int {
	switch c.kind {
	case colU16:
		return 2
	case colU32:
		return 4
	case colString:
		if s.bigStrings {
			return 4
		}
		return 2
	case colGUID:
		if s.bigGUID {
			return 4
		}
		return 2
	case colBlob:
		if s.bigBlob {
			return 4
		}
		return 2
	case colIndex:
		if s.tableWide(c.ref) {
			return 4
		}
		return 2
	default: // colCoded
		if s.codedWide(c.ref) {
			return 4
		}
		return 2
	}
}

func (s layoutSizes) rowWidth(t int) int {
	w := 0
	for _, c := range tableSchema[t] {
		w += s.colWidth(c)
	}
	return w
}

// heapSizesByte encodes the wide-heap flags for the #~ header.
func (s layoutSizes) heapSizesByte() byte {
	var b byte
	if s.bigStrings {
		b |= 0x01
	}
	if s.bigGUID {
		b |= 0x02
	}
	if s.bigBlob {
		b |= 0x04
	}
	return b
}
