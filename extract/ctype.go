package extract

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/bindcraft/winmd-gen/cdecl"
	"github.com/bindcraft/winmd-gen/model"
)

// mapType converts a front-end type tree into the model representation.
func (w *walker) mapType(t *cdecl.Type) (model.CType, error) {
	if t == nil {
		return model.CType{}, fmt.Errorf("missing type")
	}

	switch t.Kind {
	case cdecl.TypeVoid:
		return model.Prim(model.KindVoid), nil
	case cdecl.TypeBool:
		return model.Prim(model.KindBool), nil
	case cdecl.TypeChar, cdecl.TypeSChar:
		return model.Prim(model.KindI8), nil
	case cdecl.TypeUChar:
		return model.Prim(model.KindU8), nil
	case cdecl.TypeShort:
		return model.Prim(model.KindI16), nil
	case cdecl.TypeUShort:
		return model.Prim(model.KindU16), nil
	case cdecl.TypeInt:
		return model.Prim(model.KindI32), nil
	case cdecl.TypeUInt:
		return model.Prim(model.KindU32), nil
	case cdecl.TypeLong, cdecl.TypeLongLong:
		// long is 64-bit under LP64, the only target supported.
		return model.Prim(model.KindI64), nil
	case cdecl.TypeULong, cdecl.TypeULongLong:
		return model.Prim(model.KindU64), nil
	case cdecl.TypeFloat:
		return model.Prim(model.KindF32), nil
	case cdecl.TypeDouble:
		return model.Prim(model.KindF64), nil
	case cdecl.TypeInt128, cdecl.TypeUInt128:
		return model.CType{}, fmt.Errorf("128-bit integers are unrepresentable")

	case cdecl.TypePointer:
		if t.Pointee == nil {
			return model.CType{}, fmt.Errorf("pointer has no pointee")
		}
		inner, err := w.mapType(t.Pointee)
		if err != nil {
			return model.CType{}, err
		}
		// Constness of the immediate pointee is the only qualifier that
		// survives, and only as the Mutable annotation.
		return model.PtrTo(inner, !t.Pointee.Const), nil

	case cdecl.TypeConstantArray:
		if t.Elem == nil {
			return model.CType{}, fmt.Errorf("array has no element type")
		}
		inner, err := w.mapType(t.Elem)
		if err != nil {
			return model.CType{}, err
		}
		return model.ArrayOf(inner, t.Len), nil

	case cdecl.TypeIncompleteArray:
		if t.Elem == nil {
			return model.CType{}, fmt.Errorf("array has no element type")
		}
		inner, err := w.mapType(t.Elem)
		if err != nil {
			return model.CType{}, err
		}
		return model.PtrTo(inner, !t.Elem.Const), nil

	case cdecl.TypeTypedef:
		return w.mapTypedefRef(t)

	case cdecl.TypeRecord:
		return w.mapRecordRef(t)

	case cdecl.TypeEnum:
		if t.Name == "" || t.Anonymous {
			return model.CType{}, fmt.Errorf("anonymous enum type in unsupported position")
		}
		return model.NamedRef(t.Name, nil), nil

	case cdecl.TypeFuncProto:
		ret, err := w.mapType(t.Ret)
		if err != nil {
			return model.CType{}, err
		}
		params := make([]model.CType, 0, len(t.Params))
		for _, pt := range t.Params {
			p, err := w.mapType(pt)
			if err != nil {
				return model.CType{}, err
			}
			params = append(params, p)
		}
		return model.FuncPtr(ret, params, mapCallConv(t.Conv)), nil

	default:
		return model.CType{}, fmt.Errorf("unsupported type kind %d", t.Kind)
	}
}

// mapTypedefRef keeps the typedef name for cross-partition resolution
// and records the canonical type as fallback for system typedefs no
// partition ever extracts.
func (w *walker) mapTypedefRef(t *cdecl.Type) (model.CType, error) {
	// va_list is a compiler built-in with no portable canonical type.
	switch t.Name {
	case "va_list", "__builtin_va_list", "__gnuc_va_list":
		return model.PtrTo(model.Prim(model.KindVoid), true), nil
	}
	if t.Name == "" {
		if t.Canonical == nil {
			return model.CType{}, fmt.Errorf("unnamed typedef without canonical type")
		}
		return w.mapType(t.Canonical)
	}
	var resolved *model.CType
	if t.Canonical != nil {
		if canon, err := w.mapType(t.Canonical); err == nil {
			resolved = &canon
		}
	}
	return model.NamedRef(t.Name, resolved), nil
}

// mapRecordRef resolves a struct/union reference. Forward-declared-only
// records are opaque: they collapse to Void so pointers to them become
// untyped pointers instead of dangling named references.
func (w *walker) mapRecordRef(t *cdecl.Type) (model.CType, error) {
	// __va_list_tag backs va_list on x86-64; it has no header location
	// and must not leak into the output.
	if t.Name == "__va_list_tag" {
		return model.Prim(model.KindVoid), nil
	}
	if t.Name == "" || t.Anonymous {
		return model.CType{}, fmt.Errorf("anonymous record type in unsupported position")
	}
	if !t.Complete {
		w.log.Debug("incomplete record type, mapping to opaque", zap.String("name", t.Name))
		return model.Prim(model.KindVoid), nil
	}
	return model.NamedRef(t.Name, nil), nil
}

// mapTypeOrVoid maps t, degrading to Void (with a warning) on failure,
// matching how return and parameter types tolerate exotic constructs.
func (w *walker) mapTypeOrVoid(t *cdecl.Type, context string) model.CType {
	mapped, err := w.mapType(t)
	if err != nil {
		w.log.Warn("type degraded to void",
			zap.String("context", context),
			zap.Error(err))
		return model.Prim(model.KindVoid)
	}
	return mapped
}
