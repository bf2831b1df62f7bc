// Package layout computes C record layout (field offsets, size,
// alignment) for the LP64 target the pipeline assumes.
//
// The parsing front-end normally reports record layout itself; the
// calculator fills the gap when it does not, and computes the offsets
// the emitter writes for explicit-layout types.
package layout

import "github.com/bindcraft/winmd-gen/model"

// Info is the computed layout of a type.
type Info struct {
	Size  uint32
	Align uint32
	// FieldOffs maps field name to byte offset for record layouts.
	FieldOffs map[string]uint32
}

// Resolver looks up a named type's definition so references to other
// records can be sized. Returning false means the name is unknown here.
type Resolver func(name string) (*model.StructDef, bool)

// Calculator computes layouts, caching named records.
type Calculator struct {
	resolve Resolver
	cache   map[string]Info
}

// NewCalculator creates a calculator. resolve may be nil when the input
// contains no cross-record references.
func NewCalculator(resolve Resolver) *Calculator {
	return &Calculator{
		resolve: resolve,
		cache:   make(map[string]Info),
	}
}

const ptrSize = 8 // LP64

// Type returns the layout of a single type.
func (c *Calculator) Type(t *model.CType) Info {
	switch t.Kind {
	case model.KindBool, model.KindI8, model.KindU8:
		return Info{Size: 1, Align: 1}
	case model.KindI16, model.KindU16:
		return Info{Size: 2, Align: 2}
	case model.KindI32, model.KindU32, model.KindF32:
		return Info{Size: 4, Align: 4}
	case model.KindI64, model.KindU64, model.KindF64:
		return Info{Size: 8, Align: 8}
	case model.KindISize, model.KindUSize, model.KindPtr, model.KindFuncPtr:
		return Info{Size: ptrSize, Align: ptrSize}
	case model.KindArray:
		elem := c.Type(t.Elem)
		return Info{Size: elem.Size * t.Len, Align: elem.Align}
	case model.KindNamed:
		return c.named(t)
	default: // void
		return Info{Size: 0, Align: 1}
	}
}

func (c *Calculator) named(t *model.CType) Info {
	if cached, ok := c.cache[t.Name]; ok {
		return cached
	}
	if c.resolve != nil {
		if def, ok := c.resolve(t.Name); ok {
			info := c.Struct(def)
			c.cache[t.Name] = info
			return info
		}
	}
	if t.Resolved != nil {
		return c.Type(t.Resolved)
	}
	// Unknown named type: only ever reached behind a pointer, where the
	// size does not matter.
	return Info{Size: 0, Align: 1}
}

// Struct returns the layout of a struct or union definition. When the
// definition already carries front-end sizes, those are trusted and only
// the offsets are computed.
func (c *Calculator) Struct(s *model.StructDef) Info {
	var info Info
	if s.IsUnion {
		info = c.union(s)
	} else {
		info = c.sequential(s)
	}
	if s.Size != 0 {
		info.Size = s.Size
	}
	if s.Align != 0 {
		info.Align = s.Align
	}
	return info
}

func (c *Calculator) sequential(s *model.StructDef) Info {
	offs := make(map[string]uint32, len(s.Fields))
	maxAlign := uint32(1)
	offset := uint32(0)

	// Bitfield run state: bits consumed inside the current storage unit.
	bitUnitStart := uint32(0)
	bitUnitSize := uint32(0)
	bitsUsed := uint32(0)

	for _, f := range s.Fields {
		fl := c.Type(&f.Type)
		if f.BitWidth > 0 {
			unit := fl.Size * 8
			if bitUnitSize != fl.Size || bitsUsed+f.BitWidth > unit || bitsUsed == 0 {
				// Open a new storage unit.
				offset = AlignTo(offset, fl.Align)
				bitUnitStart = offset
				bitUnitSize = fl.Size
				bitsUsed = 0
				offset += fl.Size
			}
			offs[f.Name] = bitUnitStart
			bitsUsed += f.BitWidth
			if fl.Align > maxAlign {
				maxAlign = fl.Align
			}
			continue
		}
		bitUnitSize, bitsUsed = 0, 0

		offset = AlignTo(offset, fl.Align)
		offs[f.Name] = offset
		if fl.Align > maxAlign {
			maxAlign = fl.Align
		}
		offset += fl.Size
	}

	return Info{
		Size:      AlignTo(offset, maxAlign),
		Align:     maxAlign,
		FieldOffs: offs,
	}
}

func (c *Calculator) union(s *model.StructDef) Info {
	offs := make(map[string]uint32, len(s.Fields))
	maxAlign := uint32(1)
	maxSize := uint32(0)

	for _, f := range s.Fields {
		fl := c.Type(&f.Type)
		offs[f.Name] = 0
		if fl.Align > maxAlign {
			maxAlign = fl.Align
		}
		if fl.Size > maxSize {
			maxSize = fl.Size
		}
	}

	return Info{
		Size:      AlignTo(maxSize, maxAlign),
		Align:     maxAlign,
		FieldOffs: offs,
	}
}

// AlignTo rounds n up to the next multiple of align.
func AlignTo(n, align uint32) uint32 {
	if align == 0 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}
