package winmd

import (
	"bytes"
	"errors"
	"testing"

	xerrors "github.com/bindcraft/winmd-gen/errors"
	"github.com/bindcraft/winmd-gen/model"
	"github.com/bindcraft/winmd-gen/registry"
)

// demoPartition covers every construct the emitter handles.
func demoPartition() *model.Partition {
	return &model.Partition{
		Namespace: "demo",
		Library:   "libdemo",
		Enums: []model.EnumDef{{
			Name:       "Color",
			Underlying: model.Prim(model.KindI32),
			Variants: []model.EnumVariant{
				{Name: "RED", Signed: 0, Unsigned: 0},
				{Name: "GREEN", Signed: 1, Unsigned: 1},
			},
		}},
		Structs: []model.StructDef{
			{
				Name: "Point",
				Fields: []model.Field{
					{Name: "x", Type: model.Prim(model.KindI32)},
					{Name: "y", Type: model.Prim(model.KindI32)},
				},
				Size: 8, Align: 4,
			},
			{
				Name:    "Value",
				IsUnion: true,
				Fields: []model.Field{
					{Name: "i", Type: model.Prim(model.KindI64)},
					{Name: "d", Type: model.Prim(model.KindF64)},
				},
				Size: 8, Align: 8,
			},
		},
		Typedefs: []model.TypedefDef{
			{Name: "Handle", Underlying: model.Prim(model.KindU64)},
		},
		Delegates: []model.DelegateDef{{
			Name:   "Callback",
			Return: model.Prim(model.KindVoid),
			Params: []model.Param{
				{Name: "ctx", Type: model.PtrTo(model.Prim(model.KindVoid), true)},
			},
		}},
		Functions: []model.FunctionDef{{
			Name:   "demo_read",
			Return: model.Prim(model.KindI64),
			Params: []model.Param{
				{Name: "h", Type: model.NamedRef("Handle", nil)},
				{Name: "buf", Type: model.PtrTo(model.Prim(model.KindU8), true)},
			},
		}},
		Constants: []model.ConstantDef{
			{Name: "DEMO_MAX", Value: model.SignedValue(4096)},
		},
	}
}

func emitDemo(t *testing.T) []byte {
	t.Helper()
	reg := registry.New()
	p := demoPartition()
	registerPartition(reg, p)

	em := NewEmitter("demo", reg)
	unresolved, err := em.Emit([]*model.Partition{p})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(unresolved) != 0 {
		t.Fatalf("unexpected unresolved: %v", unresolved)
	}
	return em.Bytes()
}

func registerPartition(reg *registry.Registry, p *model.Partition) {
	for _, s := range p.Structs {
		reg.Register(s.Name, p.Namespace)
	}
	for _, en := range p.Enums {
		reg.Register(en.Name, p.Namespace)
	}
	for _, td := range p.Typedefs {
		reg.Register(td.Name, p.Namespace)
	}
	for _, dg := range p.Delegates {
		reg.Register(dg.Name, p.Namespace)
	}
}

func typeByName(t *testing.T, rd *Reader, name string) *TypeRow {
	t.Helper()
	types := rd.Types()
	for i := range types {
		if types[i].Name == name {
			return &types[i]
		}
	}
	t.Fatalf("type %q not found", name)
	return nil
}

func TestEmitReadRoundTrip(t *testing.T) {
	data := emitDemo(t)
	rd, err := NewReader(data)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if rd.Assembly() != "demo" {
		t.Errorf("assembly: got %q, want demo", rd.Assembly())
	}

	// <Module> + Color + Point + Value + Handle + Callback + Apis.
	if got := len(rd.Types()); got != 7 {
		t.Fatalf("got %d types, want 7", got)
	}

	tests := []struct {
		name     string
		category string
		fields   []string
		methods  []string
	}{
		{"Color", "enum", []string{"value__", "RED", "GREEN"}, nil},
		{"Point", "struct", []string{"x", "y"}, nil},
		{"Value", "union", []string{"i", "d"}, nil},
		{"Handle", "struct", []string{"Value"}, nil},
		{"Callback", "delegate", nil, []string{"Invoke"}},
		{"Apis", "api", []string{"DEMO_MAX"}, []string{"demo_read"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := typeByName(t, rd, tt.name)
			if row.Namespace != "demo" {
				t.Errorf("namespace: got %q, want demo", row.Namespace)
			}
			if got := row.Category(); got != tt.category {
				t.Errorf("category: got %q, want %q", got, tt.category)
			}
			if !equalStrings(row.Fields, tt.fields) {
				t.Errorf("fields: got %v, want %v", row.Fields, tt.fields)
			}
			if !equalStrings(row.Methods, tt.methods) {
				t.Errorf("methods: got %v, want %v", row.Methods, tt.methods)
			}
		})
	}
}

func equalStrings(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestEmitDeterministic(t *testing.T) {
	a := emitDemo(t)
	b := emitDemo(t)
	if !bytes.Equal(a, b) {
		t.Error("identical inputs must produce identical bytes")
	}
}

func TestEmitWithholdsUnresolvedPartition(t *testing.T) {
	good := &model.Partition{
		Namespace: "demo.good",
		Library:   "libgood",
		Structs: []model.StructDef{{
			Name:   "Fine",
			Fields: []model.Field{{Name: "x", Type: model.Prim(model.KindI32)}},
			Size:   4, Align: 4,
		}},
	}
	bad := &model.Partition{
		Namespace: "demo.bad",
		Library:   "libbad",
		Structs: []model.StructDef{{
			Name:   "Broken",
			Fields: []model.Field{{Name: "dep", Type: model.NamedRef("Missing", nil)}},
		}},
	}
	reg := registry.New()
	registerPartition(reg, good)
	registerPartition(reg, bad)

	em := NewEmitter("demo", reg)
	unresolved, err := em.Emit([]*model.Partition{good, bad})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(unresolved) != 1 {
		t.Fatalf("got %d unresolved errors, want 1", len(unresolved))
	}
	ue := unresolved[0]
	if ue.Partition != "demo.bad" || len(ue.Refs) != 1 || ue.Refs[0].Type != "Missing" {
		t.Errorf("unexpected unresolved error: %+v", ue)
	}
	if !errors.Is(ue, &xerrors.UnresolvedError{}) {
		t.Error("should match UnresolvedError by type")
	}

	rd, err := NewReader(em.Bytes())
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	typeByName(t, rd, "Fine")
	for _, row := range rd.Types() {
		if row.Name == "Broken" {
			t.Error("withheld partition leaked into the output")
		}
	}
}

func TestEmitWithholdingCascades(t *testing.T) {
	depender := &model.Partition{
		Namespace: "demo.a",
		Library:   "liba",
		Structs: []model.StructDef{{
			Name:   "Depender",
			Fields: []model.Field{{Name: "b", Type: model.NamedRef("Broken", nil)}},
		}},
	}
	broken := &model.Partition{
		Namespace: "demo.b",
		Library:   "libb",
		Structs: []model.StructDef{{
			Name:   "Broken",
			Fields: []model.Field{{Name: "dep", Type: model.NamedRef("Missing", nil)}},
		}},
	}
	reg := registry.New()
	registerPartition(reg, depender)
	registerPartition(reg, broken)

	em := NewEmitter("demo", reg)
	unresolved, err := em.Emit([]*model.Partition{depender, broken})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	// Withholding demo.b strands demo.a's reference to Broken, so demo.a
	// must be withheld too rather than emitted with a dangling reference.
	if len(unresolved) != 2 {
		t.Fatalf("got %d unresolved errors, want 2", len(unresolved))
	}
	missing := make(map[string]string, 2)
	for _, ue := range unresolved {
		if len(ue.Refs) != 1 {
			t.Fatalf("partition %s: refs %+v, want exactly 1", ue.Partition, ue.Refs)
		}
		missing[ue.Partition] = ue.Refs[0].Type
	}
	if missing["demo.b"] != "Missing" || missing["demo.a"] != "Broken" {
		t.Errorf("unexpected unresolved set: %v", missing)
	}

	rd, err := NewReader(em.Bytes())
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	for _, row := range rd.Types() {
		if row.Name == "Depender" || row.Name == "Broken" {
			t.Errorf("%s leaked into the output", row.Name)
		}
	}
}

func TestEmitCrossNamespaceReference(t *testing.T) {
	inner := &model.Partition{
		Namespace: "demo.a",
		Library:   "liba",
		Structs: []model.StructDef{{
			Name:   "Inner",
			Fields: []model.Field{{Name: "v", Type: model.Prim(model.KindI32)}},
			Size:   4, Align: 4,
		}},
	}
	outer := &model.Partition{
		Namespace: "demo.b",
		Library:   "libb",
		Structs: []model.StructDef{{
			Name:   "Outer",
			Fields: []model.Field{{Name: "in", Type: model.NamedRef("Inner", nil)}},
			Size:   4, Align: 4,
		}},
	}
	reg := registry.New()
	registerPartition(reg, inner)
	registerPartition(reg, outer)

	em := NewEmitter("demo", reg)
	unresolved, err := em.Emit([]*model.Partition{inner, outer})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(unresolved) != 0 {
		t.Fatalf("cross-namespace reference should resolve: %v", unresolved)
	}

	rd, err := NewReader(em.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if row := typeByName(t, rd, "Inner"); row.Namespace != "demo.a" {
		t.Errorf("Inner namespace: got %q", row.Namespace)
	}
	if row := typeByName(t, rd, "Outer"); row.Namespace != "demo.b" {
		t.Errorf("Outer namespace: got %q", row.Namespace)
	}
}

func TestEmitSeedsRegistryRoundTrip(t *testing.T) {
	data := emitDemo(t)
	rd, err := NewReader(data)
	if err != nil {
		t.Fatal(err)
	}

	reg := registry.New()
	var types []registry.SeededType
	for _, row := range rd.Types() {
		types = append(types, registry.SeededType{Namespace: row.Namespace, Name: row.Name})
	}
	n := reg.Seed(types, "demo", rd.Assembly())
	// Color, Point, Value, Handle, Callback; <Module> and Apis excluded.
	if n != 5 {
		t.Errorf("seeded %d, want 5", n)
	}
	e, ok := reg.Lookup("Point")
	if !ok || !e.External || e.Assembly != "demo" {
		t.Errorf("Point entry: %+v", e)
	}
}

func TestReaderRejectsGarbage(t *testing.T) {
	for _, data := range [][]byte{
		nil,
		[]byte("definitely not metadata"),
		bytes.Repeat([]byte{0x42}, 64),
	} {
		if _, err := NewReader(data); err == nil {
			t.Errorf("input % X should be rejected", data)
		}
	}
}
