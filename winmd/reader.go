package winmd

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	xerrors "github.com/bindcraft/winmd-gen/errors"
)

// TypeRow is one decoded type definition, with member names resolved
// from the owning ranges.
type TypeRow struct {
	Namespace string
	Name      string
	Flags     uint32
	Fields    []string
	Methods   []string
}

// Reader decodes a metadata file produced by this package or by another
// writer emitting the same table subset. Files whose Valid mask names a
// table outside that subset are rejected rather than misread.
type Reader struct {
	assembly string
	types    []TypeRow
}

// NewReader parses raw metadata bytes.
func NewReader(data []byte) (*Reader, error) {
	streams, err := parseRoot(data)
	if err != nil {
		return nil, err
	}
	tables, ok := streams["#~"]
	if !ok {
		return nil, readErr("missing #~ stream")
	}
	strs, ok := streams["#Strings"]
	if !ok {
		return nil, readErr("missing #Strings stream")
	}

	rows, err := parseTables(tables)
	if err != nil {
		return nil, err
	}

	strAt := func(off uint32) (string, error) {
		if off >= uint32(len(strs)) {
			return "", readErr("string offset %d out of range", off)
		}
		end := off
		for end < uint32(len(strs)) && strs[end] != 0 {
			end++
		}
		return string(strs[off:end]), nil
	}

	r := &Reader{}
	if arows := rows[tableAssembly]; len(arows) > 0 {
		if r.assembly, err = strAt(arows[0][7]); err != nil {
			return nil, err
		}
	}

	fieldNames, err := memberNames(rows[tableField], 1, strAt)
	if err != nil {
		return nil, err
	}
	methodNames, err := memberNames(rows[tableMethodDef], 3, strAt)
	if err != nil {
		return nil, err
	}

	defs := rows[tableTypeDef]
	for i, row := range defs {
		name, err := strAt(row[1])
		if err != nil {
			return nil, err
		}
		ns, err := strAt(row[2])
		if err != nil {
			return nil, err
		}
		t := TypeRow{Namespace: ns, Name: name, Flags: row[0]}
		t.Fields = memberRange(fieldNames, row[4], nextStart(defs, i, 4, len(fieldNames)))
		t.Methods = memberRange(methodNames, row[5], nextStart(defs, i, 5, len(methodNames)))
		r.types = append(r.types, t)
	}
	return r, nil
}

// Assembly returns the file's assembly name.
func (r *Reader) Assembly() string {
	return r.assembly
}

// Types returns every type definition, including the <Module> row.
func (r *Reader) Types() []TypeRow {
	return r.types
}

// Category classifies a type row from its flags and members using the
// emission conventions of this package.
func (t *TypeRow) Category() string {
	switch {
	case t.Flags&typeExplicitLayout != 0:
		return "union"
	case t.Flags&typeAbstract != 0 && t.Flags&typeSealed != 0:
		return "api"
	case t.Flags&typeSealed != 0:
		for _, f := range t.Fields {
			if f == "value__" {
				return "enum"
			}
		}
		return "delegate"
	default:
		return "struct"
	}
}

func memberNames(rows [][]uint32, nameCol int, strAt func(uint32) (string, error)) ([]string, error) {
	names := make([]string, len(rows))
	for i, row := range rows {
		n, err := strAt(row[nameCol])
		if err != nil {
			return nil, err
		}
		names[i] = n
	}
	return names, nil
}

// nextStart returns the 1-based start of the following type's member
// range, which ends the current one.
func nextStart(defs [][]uint32, i, col, total int) uint32 {
	if i+1 < len(defs) {
		return defs[i+1][col]
	}
	return uint32(total) + 1
}

func memberRange(names []string, start, end uint32) []string {
	if start < 1 || start > end || end > uint32(len(names))+1 {
		return nil
	}
	return names[start-1 : end-1]
}

// parseRoot decodes the BSJB metadata root and slices out each stream.
func parseRoot(data []byte) (map[string][]byte, error) {
	if len(data) < 20 {
		return nil, readErr("truncated metadata root")
	}
	if binary.LittleEndian.Uint32(data) != 0x424A5342 {
		return nil, readErr("bad magic, not a metadata file")
	}
	vlen := binary.LittleEndian.Uint32(data[12:])
	pos := 16 + int(vlen)
	if vlen > 255 || pos+4 > len(data) {
		return nil, readErr("bad version length %d", vlen)
	}
	count := int(binary.LittleEndian.Uint16(data[pos+2:]))
	pos += 4

	streams := make(map[string][]byte, count)
	for i := 0; i < count; i++ {
		if pos+8 > len(data) {
			return nil, readErr("truncated stream header %d", i)
		}
		off := binary.LittleEndian.Uint32(data[pos:])
		size := binary.LittleEndian.Uint32(data[pos+4:])
		pos += 8
		start := pos
		for pos < len(data) && data[pos] != 0 {
			pos++
		}
		if pos >= len(data) {
			return nil, readErr("unterminated stream name")
		}
		name := string(data[start:pos])
		pos = start + padLen4(pos-start+1)

		if uint64(off)+uint64(size) > uint64(len(data)) {
			return nil, readErr("stream %s extends past end of file", name)
		}
		streams[name] = data[off : off+size]
	}
	return streams, nil
}

// parseTables decodes the #~ stream into raw rows, using the same
// schema and width rules as the writer.
func parseTables(data []byte) (map[int][][]uint32, error) {
	if len(data) < 24 {
		return nil, readErr("truncated table stream")
	}
	heapSizes := data[6]
	valid := binary.LittleEndian.Uint64(data[8:])
	pos := 24

	sz := layoutSizes{
		rows:       make(map[int]uint32),
		bigStrings: heapSizes&0x01 != 0,
		bigGUID:    heapSizes&0x02 != 0,
		bigBlob:    heapSizes&0x04 != 0,
	}
	present := make([]int, 0, bits.OnesCount64(valid))
	for t := 0; t < 64; t++ {
		if valid&(uint64(1)<<t) == 0 {
			continue
		}
		if _, ok := tableSchema[t]; !ok {
			return nil, &xerrors.Error{
				Phase:  xerrors.PhaseRead,
				Kind:   xerrors.KindUnsupported,
				Detail: fmt.Sprintf("table 0x%02X is outside the supported subset", t),
			}
		}
		if pos+4 > len(data) {
			return nil, readErr("truncated row counts")
		}
		sz.rows[t] = binary.LittleEndian.Uint32(data[pos:])
		pos += 4
		present = append(present, t)
	}

	rows := make(map[int][][]uint32, len(present))
	for _, t := range present {
		schema := tableSchema[t]
		n := int(sz.rows[t])
		width := sz.rowWidth(t)
		if pos+n*width > len(data) {
			return nil, readErr("table 0x%02X truncated", t)
		}
		table := make([][]uint32, n)
		for i := 0; i < n; i++ {
			row := make([]uint32, len(schema))
			for c, col := range schema {
				if sz.colWidth(col) == 4 {
					row[c] = binary.LittleEndian.Uint32(data[pos:])
					pos += 4
				} else {
					row[c] = uint32(binary.LittleEndian.Uint16(data[pos:]))
					pos += 2
				}
			}
			table[i] = row
		}
		rows[t] = table
	}
	return rows, nil
}

func readErr(format string, args ...any) error {
	return xerrors.InvalidData(xerrors.PhaseRead, fmt.Sprintf(format, args...))
}
