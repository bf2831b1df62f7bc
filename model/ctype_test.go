package model

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindVoid, "void"},
		{KindI32, "i32"},
		{KindUSize, "usize"},
		{KindFuncPtr, "funcptr"},
		{Kind(200), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestCTypeString(t *testing.T) {
	tests := []struct {
		name string
		typ  CType
		want string
	}{
		{"mutable pointer", PtrTo(Prim(KindU8), true), "*mut u8"},
		{"const pointer", PtrTo(Prim(KindI32), false), "*const i32"},
		{"array", ArrayOf(Prim(KindI16), 8), "[i16; 8]"},
		{"named", NamedRef("timespec", nil), "timespec"},
		{
			"function pointer",
			FuncPtr(Prim(KindI32), []CType{Prim(KindF64)}, CallCdecl),
			"fn(f64) -> i32",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOuterPtrMutable(t *testing.T) {
	mut := PtrTo(Prim(KindU8), true)
	if !mut.OuterPtrMutable() {
		t.Error("mutable pointer should report OuterPtrMutable")
	}
	im := PtrTo(Prim(KindU8), false)
	if im.OuterPtrMutable() {
		t.Error("const pointer should not report OuterPtrMutable")
	}
	plain := Prim(KindU8)
	if plain.OuterPtrMutable() {
		t.Error("non-pointer should not report OuterPtrMutable")
	}
}

func TestWalk(t *testing.T) {
	typ := FuncPtr(
		PtrTo(NamedRef("stat", nil), true),
		[]CType{
			ArrayOf(NamedRef("dirent", nil), 2),
			Prim(KindI32),
		},
		CallCdecl,
	)

	var named []string
	typ.Walk(func(n *CType) {
		if n.Kind == KindNamed {
			named = append(named, n.Name)
		}
	})

	if len(named) != 2 || named[0] != "stat" || named[1] != "dirent" {
		t.Errorf("walk found %v, want [stat dirent]", named)
	}
}
