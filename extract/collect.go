package extract

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/bindcraft/winmd-gen/cdecl"
	"github.com/bindcraft/winmd-gen/model"
)

// collectStructs extracts every named struct/union definition in scope,
// including structs whose only surface is a typedef and any anonymous
// records nested inside fields.
func (w *walker) collectStructs(tu *cdecl.TranslationUnit, p *model.Partition) {
	for _, d := range tu.Decls {
		rec, ok := d.(*cdecl.RecordDecl)
		if !ok || !rec.Definition || rec.Name == "" {
			continue
		}
		if !w.target.Scope.Contains(rec.Location) {
			continue
		}
		if _, dup := w.seen[rec.Name]; dup {
			continue
		}
		w.seen[rec.Name] = struct{}{}

		def, nested, err := w.extractRecord(rec.Type, rec.Name)
		if err != nil {
			w.skip("struct", rec.Name, err.Error())
			continue
		}
		// Register only once extraction succeeded, so a skipped record
		// does not shadow a later partition's good definition.
		w.register(rec.Name)
		for _, ns := range nested {
			w.seen[ns.Name] = struct{}{}
			w.register(ns.Name)
			p.Structs = append(p.Structs, ns)
		}
		p.Structs = append(p.Structs, def)
		w.log.Debug("extracted struct",
			zap.String("name", def.Name),
			zap.Int("fields", len(def.Fields)),
			zap.Uint32("size", def.Size))
	}
}

// extractRecord builds a StructDef from a complete record type. Nested
// anonymous records come back as additional definitions named
// Parent_Field, emitted before the parent so references resolve in
// declaration order.
func (w *walker) extractRecord(t *cdecl.Type, name string) (model.StructDef, []model.StructDef, error) {
	if t == nil || t.Kind != cdecl.TypeRecord {
		return model.StructDef{}, nil, fmt.Errorf("declaration has no record type")
	}

	var nested []model.StructDef
	fields := make([]model.Field, 0, len(t.Fields))
	for _, f := range t.Fields {
		var ft model.CType
		if synth, more, ok := w.extractAnonymousField(f.Type, name, f.Name); ok {
			nested = append(nested, more...)
			ft = model.NamedRef(synth, nil)
		} else {
			mapped, err := w.mapType(f.Type)
			if err != nil {
				return model.StructDef{}, nil, fmt.Errorf("unsupported type for field %q: %w", f.Name, err)
			}
			ft = mapped
		}
		fields = append(fields, model.Field{Name: f.Name, Type: ft, BitWidth: f.BitWidth})
	}

	return model.StructDef{
		Name:    name,
		Fields:  fields,
		IsUnion: t.Union,
		Size:    t.Size,
		Align:   t.Align,
	}, nested, nil
}

// extractAnonymousField handles a field whose type is an unnamed record
// (`union { int a; float b; } value;`). The record is extracted as its
// own definition under the synthesized name Parent_Field and that name
// is returned for the field to reference.
func (w *walker) extractAnonymousField(ft *cdecl.Type, parent, field string) (string, []model.StructDef, bool) {
	t := ft
	if t != nil && t.Kind == cdecl.TypeTypedef && t.Canonical != nil {
		t = t.Canonical
	}
	if t == nil || t.Kind != cdecl.TypeRecord || !t.Anonymous {
		return "", nil, false
	}

	synth := parent + "_" + field
	def, more, err := w.extractRecord(t, synth)
	if err != nil {
		w.skip("struct", synth, "anonymous nested record: "+err.Error())
		return "", nil, false
	}
	w.log.Debug("extracted anonymous nested record",
		zap.String("parent", parent),
		zap.String("field", field),
		zap.String("synthesized", synth))
	// Deeply nested anonymous records first, then the record itself.
	return synth, append(more, def), true
}

// collectEnums extracts named enums. Anonymous enums have no valid type
// name, so their variants become standalone constants instead.
func (w *walker) collectEnums(tu *cdecl.TranslationUnit, p *model.Partition) {
	for _, d := range tu.Decls {
		en, ok := d.(*cdecl.EnumDecl)
		if !ok {
			continue
		}
		if !w.target.Scope.Contains(en.Location) {
			continue
		}

		if en.Anonymous || en.Name == "" {
			for _, v := range en.Variants {
				value := model.UnsignedValue(v.Unsigned)
				if v.Signed < 0 {
					value = model.SignedValue(v.Signed)
				}
				p.Constants = append(p.Constants, model.ConstantDef{Name: v.Name, Value: value})
			}
			w.log.Debug("anonymous enum variants emitted as constants",
				zap.Int("variants", len(en.Variants)))
			continue
		}

		if _, dup := w.seen[en.Name]; dup {
			continue
		}
		w.seen[en.Name] = struct{}{}
		w.register(en.Name)

		underlying := model.Prim(model.KindI32)
		if en.Underlying != nil {
			if mapped, err := w.mapType(en.Underlying); err == nil {
				underlying = mapped
			}
		}
		variants := make([]model.EnumVariant, 0, len(en.Variants))
		for _, v := range en.Variants {
			variants = append(variants, model.EnumVariant{Name: v.Name, Signed: v.Signed, Unsigned: v.Unsigned})
		}
		p.Enums = append(p.Enums, model.EnumDef{Name: en.Name, Underlying: underlying, Variants: variants})
		w.log.Debug("extracted enum", zap.String("name", en.Name), zap.Int("variants", len(variants)))
	}
}

// collectFunctions extracts function declarations. Variadic functions
// are unrepresentable and skipped; redeclarations of one name (platform
// redirect macros produce these) keep the first occurrence.
func (w *walker) collectFunctions(tu *cdecl.TranslationUnit, p *model.Partition) {
	for _, d := range tu.Decls {
		fn, ok := d.(*cdecl.FunctionDecl)
		if !ok {
			continue
		}
		if !w.target.Scope.Contains(fn.Location) {
			continue
		}
		if fn.Variadic {
			w.skip("function", fn.Name, "variadic functions have no metadata representation")
			continue
		}
		if _, dup := w.seen["fn "+fn.Name]; dup {
			w.log.Debug("skipping duplicate function", zap.String("name", fn.Name))
			continue
		}
		w.seen["fn "+fn.Name] = struct{}{}

		ret := w.mapTypeOrVoid(fn.Ret, "return of "+fn.Name)
		params := make([]model.Param, 0, len(fn.Params))
		for i, pr := range fn.Params {
			name := pr.Name
			if name == "" {
				name = fmt.Sprintf("param%d", i)
			}
			t := w.mapTypeOrVoid(pr.Type, "param of "+fn.Name)
			params = append(params, model.Param{Name: name, Type: decayArray(t)})
		}

		p.Functions = append(p.Functions, model.FunctionDef{
			Name:   fn.Name,
			Return: ret,
			Params: params,
			Conv:   mapCallConv(fn.Conv),
		})
		w.log.Debug("extracted function", zap.String("name", fn.Name), zap.Int("params", len(params)))
	}
}

// decayArray rewrites a fixed-array parameter to a mutable pointer.
// This is C's own parameter-passing semantics, and it also sidesteps a
// cross-implementation mismatch in how array-shape signature blobs are
// consumed downstream.
func decayArray(t model.CType) model.CType {
	if t.Kind == model.KindArray {
		return model.PtrTo(*t.Elem, true)
	}
	return t
}

// collectTypedefs extracts typedefs, preserving alias-of-alias chains.
// Trivial `typedef struct Foo Foo;` pass-throughs carry no information
// and are dropped. Function-pointer typedefs become delegates.
func (w *walker) collectTypedefs(tu *cdecl.TranslationUnit, p *model.Partition) {
	for _, d := range tu.Decls {
		td, ok := d.(*cdecl.TypedefDecl)
		if !ok || td.Name == "" {
			continue
		}
		if !w.target.Scope.Contains(td.Location) {
			continue
		}
		if _, dup := w.seen[td.Name]; dup {
			continue
		}
		if td.Underlying == nil {
			continue
		}
		if isPassthrough(td.Underlying, td.Name) {
			w.log.Debug("skipping pass-through typedef", zap.String("name", td.Name))
			continue
		}
		w.seen[td.Name] = struct{}{}

		// typedef struct { ... } Foo; defines a record whose only name is
		// the typedef. Extract it as a struct under that name.
		if rec := td.Underlying; rec.Kind == cdecl.TypeRecord && rec.Anonymous && rec.Complete {
			def, nested, err := w.extractRecord(rec, td.Name)
			if err != nil {
				w.skip("struct", td.Name, err.Error())
				continue
			}
			w.register(td.Name)
			for _, ns := range nested {
				w.seen[ns.Name] = struct{}{}
				w.register(ns.Name)
				p.Structs = append(p.Structs, ns)
			}
			p.Structs = append(p.Structs, def)
			w.log.Debug("extracted typedef-named record", zap.String("name", td.Name))
			continue
		}

		if ret, params, conv, isFn := funcPointerShape(td.Underlying); isFn {
			w.register(td.Name)
			p.Delegates = append(p.Delegates, w.extractDelegate(td.Name, ret, params, conv))
			continue
		}

		underlying, err := w.mapType(td.Underlying)
		if err != nil {
			w.skip("typedef", td.Name, err.Error())
			continue
		}
		w.register(td.Name)
		p.Typedefs = append(p.Typedefs, model.TypedefDef{Name: td.Name, Underlying: underlying})
		w.log.Debug("extracted typedef", zap.String("name", td.Name))
	}
}

// funcPointerShape matches `typedef ret (*Name)(...)` and bare function
// prototypes used as typedef targets.
func funcPointerShape(t *cdecl.Type) (*cdecl.Type, []*cdecl.Type, cdecl.CallConv, bool) {
	switch t.Kind {
	case cdecl.TypeFuncProto:
		return t.Ret, t.Params, t.Conv, true
	case cdecl.TypePointer:
		if t.Pointee != nil && t.Pointee.Kind == cdecl.TypeFuncProto {
			fp := t.Pointee
			return fp.Ret, fp.Params, fp.Conv, true
		}
	}
	return nil, nil, cdecl.CallCdecl, false
}

func (w *walker) extractDelegate(name string, ret *cdecl.Type, params []*cdecl.Type, conv cdecl.CallConv) model.DelegateDef {
	retType := w.mapTypeOrVoid(ret, "return of delegate "+name)
	ps := make([]model.Param, 0, len(params))
	for i, pt := range params {
		t := w.mapTypeOrVoid(pt, "param of delegate "+name)
		ps = append(ps, model.Param{
			Name: fmt.Sprintf("param%d", i),
			Type: decayArray(t),
		})
	}
	w.log.Debug("extracted delegate", zap.String("name", name), zap.Int("params", len(ps)))
	return model.DelegateDef{Name: name, Return: retType, Params: ps, Conv: mapCallConv(conv)}
}

// isPassthrough reports `typedef struct foo foo;` (and the enum/union
// forms), which add no information on top of the record itself.
func isPassthrough(t *cdecl.Type, typedefName string) bool {
	switch t.Kind {
	case cdecl.TypeRecord, cdecl.TypeEnum:
		return t.Name == typedefName
	}
	return false
}

func mapCallConv(c cdecl.CallConv) model.CallConv {
	switch c {
	case cdecl.CallStdcall:
		return model.CallStdcall
	case cdecl.CallFastcall:
		return model.CallFastcall
	default:
		return model.CallCdecl
	}
}
