package winmd

import (
	"fmt"

	"go.uber.org/zap"

	xerrors "github.com/bindcraft/winmd-gen/errors"
	"github.com/bindcraft/winmd-gen/model"
	"github.com/bindcraft/winmd-gen/registry"
)

// metadataNamespace hosts the marker attributes binding generators look
// for on typedef wrapper types.
const metadataNamespace = "Windows.Win32.Foundation.Metadata"

type planEntry struct {
	row       uint32
	namespace string
	delegate  bool
}

// Emitter turns extracted partitions into one metadata file.
//
// Emission is two-phase: every type definition row is assigned up front
// so signature blobs can reference types that are defined later in the
// file, then rows are written in exactly the planned order.
type Emitter struct {
	file *File
	reg  *registry.Registry
	log  *zap.Logger
	plan map[string]planEntry

	typedefCtor uint32
}

// NewEmitter creates an emitter writing the named assembly, resolving
// cross-partition references through reg.
func NewEmitter(assembly string, reg *registry.Registry) *Emitter {
	return &Emitter{
		file: NewFile(assembly),
		reg:  reg,
		log:  Logger(),
		plan: make(map[string]planEntry),
	}
}

// Emit writes every partition into the file. A partition with dangling
// type references is withheld as a whole and reported; the remaining
// partitions are still emitted, so the returned errors are advisory on
// top of a usable file. Withholding cascades: a partition whose
// references only resolve into a withheld partition is itself withheld,
// never emitted with a reference to a type absent from the file. The
// returned error is reserved for conditions that invalidate the file
// itself.
func (e *Emitter) Emit(partitions []*model.Partition) ([]*xerrors.UnresolvedError, error) {
	valid := make([]*model.Partition, len(partitions))
	copy(valid, partitions)

	var unresolved []*xerrors.UnresolvedError
	for {
		defined := definedNames(valid)
		var kept []*model.Partition
		for _, p := range valid {
			refs := e.validate(p, defined)
			if len(refs) > 0 {
				e.log.Warn("withholding partition with unresolved references",
					zap.String("namespace", p.Namespace),
					zap.Int("refs", len(refs)))
				unresolved = append(unresolved, &xerrors.UnresolvedError{Partition: p.Namespace, Refs: refs})
				continue
			}
			kept = append(kept, p)
		}
		stable := len(kept) == len(valid)
		valid = kept
		if stable {
			break
		}
	}

	row := e.file.rowCount(tableTypeDef)
	for _, p := range valid {
		for _, en := range p.Enums {
			row++
			e.plan[en.Name] = planEntry{row: row, namespace: p.Namespace}
		}
		for _, s := range p.Structs {
			row++
			e.plan[s.Name] = planEntry{row: row, namespace: p.Namespace}
		}
		for _, td := range p.Typedefs {
			row++
			e.plan[td.Name] = planEntry{row: row, namespace: p.Namespace}
		}
		for _, dg := range p.Delegates {
			row++
			e.plan[dg.Name] = planEntry{row: row, namespace: p.Namespace, delegate: true}
		}
		if len(p.Functions) > 0 || len(p.Constants) > 0 {
			row++ // the namespace Apis type
		}
	}

	for _, p := range valid {
		if err := e.emitPartition(p); err != nil {
			return unresolved, err
		}
	}
	return unresolved, nil
}

// Bytes serializes the emitted file.
func (e *Emitter) Bytes() []byte {
	return e.file.Bytes()
}

func definedNames(partitions []*model.Partition) map[string]struct{} {
	defined := make(map[string]struct{})
	for _, p := range partitions {
		for _, s := range p.Structs {
			defined[s.Name] = struct{}{}
		}
		for _, en := range p.Enums {
			defined[en.Name] = struct{}{}
		}
		for _, td := range p.Typedefs {
			defined[td.Name] = struct{}{}
		}
		for _, dg := range p.Delegates {
			defined[dg.Name] = struct{}{}
		}
	}
	return defined
}

// validate walks every type reference of a partition and collects those
// that resolve to neither a surviving definition, nor a seeded external
// file, nor a canonical fallback. Local registry entries do not count on
// their own: the name must actually be defined in a partition this file
// will contain, or the reference would dangle.
func (e *Emitter) validate(p *model.Partition, defined map[string]struct{}) []xerrors.UnresolvedRef {
	var refs []xerrors.UnresolvedRef
	reported := make(map[string]struct{})

	check := func(t *model.CType, context string) {
		t.Walk(func(n *model.CType) {
			if n.Kind != model.KindNamed || n.Resolved != nil {
				return
			}
			if _, ok := defined[n.Name]; ok {
				return
			}
			if entry, ok := e.reg.Lookup(n.Name); ok && entry.External {
				return
			}
			key := n.Name + "\x00" + context
			if _, dup := reported[key]; dup {
				return
			}
			reported[key] = struct{}{}
			refs = append(refs, xerrors.UnresolvedRef{
				Type:      n.Name,
				Namespace: p.Namespace,
				Context:   context,
			})
		})
	}

	for i := range p.Structs {
		s := &p.Structs[i]
		for j := range s.Fields {
			f := &s.Fields[j]
			check(&f.Type, fmt.Sprintf("field `%s` of struct `%s`", f.Name, s.Name))
		}
	}
	for i := range p.Functions {
		fn := &p.Functions[i]
		check(&fn.Return, fmt.Sprintf("return of function `%s`", fn.Name))
		for j := range fn.Params {
			check(&fn.Params[j].Type, fmt.Sprintf("param `%s` of function `%s`", fn.Params[j].Name, fn.Name))
		}
	}
	for i := range p.Typedefs {
		check(&p.Typedefs[i].Underlying, fmt.Sprintf("typedef `%s`", p.Typedefs[i].Name))
	}
	for i := range p.Delegates {
		dg := &p.Delegates[i]
		check(&dg.Return, fmt.Sprintf("return of delegate `%s`", dg.Name))
		for j := range dg.Params {
			check(&dg.Params[j].Type, fmt.Sprintf("param `%s` of delegate `%s`", dg.Params[j].Name, dg.Name))
		}
	}
	return refs
}

// tokenFor resolves a type name from the perspective of namespace ns.
// Same-namespace definitions get a direct TypeDef token, planned
// definitions in other namespaces a module-scope TypeRef, and seeded
// names a TypeRef under the external assembly that owns them. A
// module-scope TypeRef is only ever minted for a planned definition, so
// it cannot dangle; names known to the registry but absent from the
// plan (withheld or deduplicated away) fail here and fall back to their
// canonical type when one exists.
func (e *Emitter) tokenFor(name, ns string) (typeToken, error) {
	if pl, ok := e.plan[name]; ok {
		if pl.namespace == ns {
			return typeToken{coded: typeDefToken(pl.row), class: pl.delegate}, nil
		}
		tr := e.file.TypeRef(moduleScope(), pl.namespace, name)
		return typeToken{coded: typeRefToken(tr), class: pl.delegate}, nil
	}
	if entry, ok := e.reg.Lookup(name); ok && entry.External {
		scope := codedValue(codedResolutionScope, tableAssemblyRef, e.file.AssemblyRef(entry.Assembly))
		tr := e.file.TypeRef(scope, entry.Namespace, name)
		return typeToken{coded: typeRefToken(tr)}, nil
	}
	return typeToken{}, fmt.Errorf("type %q is not defined, imported or resolvable", name)
}

// defineType appends a TypeDef and cross-checks it against the plan.
func (e *Emitter) defineType(ns, name string, flags, extends uint32) (uint32, error) {
	td := e.file.TypeDef(flags, ns, name, extends)
	if pl, ok := e.plan[name]; ok && pl.row != td {
		return 0, xerrors.InvalidData(xerrors.PhaseEmit,
			fmt.Sprintf("type %q emitted at row %d but planned at row %d", name, td, pl.row))
	}
	return td, nil
}

func (e *Emitter) emitPartition(p *model.Partition) error {
	ns := p.Namespace
	res := func(name string) (typeToken, error) {
		return e.tokenFor(name, ns)
	}

	for i := range p.Enums {
		if err := e.emitEnum(ns, &p.Enums[i], res); err != nil {
			return err
		}
	}
	for i := range p.Structs {
		if err := e.emitStruct(ns, &p.Structs[i], res); err != nil {
			return err
		}
	}
	for i := range p.Typedefs {
		if err := e.emitTypedef(ns, &p.Typedefs[i], res); err != nil {
			return err
		}
	}
	for i := range p.Delegates {
		if err := e.emitDelegate(ns, &p.Delegates[i], res); err != nil {
			return err
		}
	}
	if len(p.Functions) > 0 || len(p.Constants) > 0 {
		if err := e.emitApis(p, res); err != nil {
			return err
		}
	}

	e.log.Info("partition emitted",
		zap.String("namespace", ns),
		zap.Uint32("types", e.file.rowCount(tableTypeDef)))
	return nil
}

// emitEnum writes the enum as a sealed type extending System.Enum: a
// value__ instance field of the underlying type plus one literal static
// field per variant, each typed as the enum itself and carrying its
// value as a Constant row.
func (e *Emitter) emitEnum(ns string, en *model.EnumDef, res tokenResolver) error {
	base := typeRefToken(e.file.SystemTypeRef("Enum"))
	td, err := e.defineType(ns, en.Name, typePublic|typeSealed, base)
	if err != nil {
		return err
	}

	valueSig, err := fieldSig(en.Underlying, res)
	if err != nil {
		return emitErr(en.Name, ns, err)
	}
	e.file.Field(fieldPublic|fieldSpecialName|fieldRTSpecialName, "value__", valueSig)

	selfSig := valueTypeSig(typeDefToken(td))
	for _, v := range en.Variants {
		row := e.file.Field(fieldPublic|fieldStatic|fieldLiteral|fieldHasDefault, v.Name, selfSig)
		code, value := enumConstant(en.Underlying.Kind, v)
		e.file.Constant(codedValue(codedHasConstant, tableField, row), code, value)
	}
	return nil
}

// emitStruct writes a sequential-layout value type, or an explicit
// layout one with every field at offset zero for unions. ClassLayout
// carries the C size and alignment so readers do not need to re-derive
// them from managed layout rules.
func (e *Emitter) emitStruct(ns string, s *model.StructDef, res tokenResolver) error {
	flags := uint32(typePublic | typeSequentialLayout)
	if s.IsUnion {
		flags = typePublic | typeExplicitLayout
	}
	base := typeRefToken(e.file.SystemTypeRef("ValueType"))
	td, err := e.defineType(ns, s.Name, flags, base)
	if err != nil {
		return err
	}
	e.file.ClassLayout(uint16(s.Align), s.Size, td)

	for i := range s.Fields {
		f := &s.Fields[i]
		sig, err := fieldSig(f.Type, res)
		if err != nil {
			return emitErr(s.Name, ns, err)
		}
		row := e.file.Field(fieldPublic, f.Name, sig)
		if s.IsUnion {
			e.file.FieldLayout(0, row)
		}
	}
	return nil
}

// emitTypedef writes the alias as a single-field wrapper struct marked
// with NativeTypedefAttribute, the convention binding generators use to
// unwrap it back to the underlying type. void aliases wrap a pointer-
// sized integer.
func (e *Emitter) emitTypedef(ns string, td *model.TypedefDef, res tokenResolver) error {
	base := typeRefToken(e.file.SystemTypeRef("ValueType"))
	row, err := e.defineType(ns, td.Name, typePublic|typeSequentialLayout, base)
	if err != nil {
		return err
	}

	underlying := td.Underlying
	if underlying.Kind == model.KindVoid {
		underlying = model.Prim(model.KindISize)
	}
	sig, err := fieldSig(underlying, res)
	if err != nil {
		return emitErr(td.Name, ns, err)
	}
	e.file.Field(fieldPublic, "Value", sig)

	e.file.CustomAttribute(
		codedValue(codedHasCustomAttribute, tableTypeDef, row),
		codedValue(codedCustomAttributeType, tableMemberRef, e.typedefAttrCtor()),
		attrEmptyValue())
	return nil
}

func (e *Emitter) typedefAttrCtor() uint32 {
	if e.typedefCtor != 0 {
		return e.typedefCtor
	}
	scope := codedValue(codedResolutionScope, tableAssemblyRef, e.file.AssemblyRef(metadataNamespace))
	tr := e.file.TypeRef(scope, metadataNamespace, "NativeTypedefAttribute")
	e.typedefCtor = e.file.MemberRef(codedValue(codedMemberRefParent, tableTypeRef, tr), ".ctor", attrCtorSig())
	return e.typedefCtor
}

// emitDelegate writes a function pointer typedef as a sealed type
// extending System.MulticastDelegate with a single Invoke method.
func (e *Emitter) emitDelegate(ns string, dg *model.DelegateDef, res tokenResolver) error {
	base := typeRefToken(e.file.SystemTypeRef("MulticastDelegate"))
	if _, err := e.defineType(ns, dg.Name, typePublic|typeSealed, base); err != nil {
		return err
	}

	sig, err := methodSig(true, dg.Return, dg.Params, res)
	if err != nil {
		return emitErr(dg.Name, ns, err)
	}
	e.file.MethodDef(methodPublic|methodVirtual|methodHideBySig|methodNewSlot, 0, "Invoke", sig)
	emitParams(e.file, dg.Params)
	return nil
}

// emitApis writes the namespace's function and constant surface onto a
// single abstract sealed Apis type: literal fields for constants and
// P/Invoke methods bound to the partition's library for functions.
func (e *Emitter) emitApis(p *model.Partition, res tokenResolver) error {
	base := typeRefToken(e.file.SystemTypeRef("Object"))
	e.file.TypeDef(typePublic|typeAbstract|typeSealed, p.Namespace, "Apis", base)

	for _, c := range p.Constants {
		kind, code, value := constValue(c.Value)
		sig, err := fieldSig(model.Prim(kind), res)
		if err != nil {
			return emitErr(c.Name, p.Namespace, err)
		}
		row := e.file.Field(fieldPublic|fieldStatic|fieldLiteral|fieldHasDefault, c.Name, sig)
		e.file.Constant(codedValue(codedHasConstant, tableField, row), code, value)
	}

	if len(p.Functions) == 0 {
		return nil
	}
	lib := e.file.ModuleRef(p.Library)
	for i := range p.Functions {
		fn := &p.Functions[i]
		sig, err := methodSig(false, fn.Return, fn.Params, res)
		if err != nil {
			return emitErr(fn.Name, p.Namespace, err)
		}
		md := e.file.MethodDef(
			methodPublic|methodStatic|methodHideBySig|methodPinvokeImpl,
			methodImplPreserveSig,
			fn.Name, sig)
		emitParams(e.file, fn.Params)
		e.file.ImplMap(pinvokeFlags(fn.Conv), md, fn.Name, lib)
	}
	return nil
}

// emitParams writes Param rows. A pointer parameter whose pointee was
// declared non-const is marked Out; that is the only place pointee
// constness survives into the output.
func emitParams(f *File, params []model.Param) {
	for i := range params {
		var flags uint32
		if params[i].Type.OuterPtrMutable() {
			flags = paramOut
		}
		f.Param(flags, uint32(i+1), params[i].Name)
	}
}

func pinvokeFlags(conv model.CallConv) uint32 {
	switch conv {
	case model.CallStdcall:
		return pinvokeCallConvStdcall
	case model.CallFastcall:
		return pinvokeCallConvFastcall
	default:
		return pinvokeCallConvCdecl
	}
}

func emitErr(typeName, ns string, cause error) error {
	return &xerrors.Error{
		Cause:     cause,
		Phase:     xerrors.PhaseEmit,
		Kind:      xerrors.KindInvalidData,
		Type:      typeName,
		Namespace: ns,
	}
}
