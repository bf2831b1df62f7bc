package winmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bindcraft/winmd-gen/model"
)

func staticResolver(tokens map[string]typeToken) tokenResolver {
	return func(name string) (typeToken, error) {
		if tok, ok := tokens[name]; ok {
			return tok, nil
		}
		return typeToken{}, errors.New("unknown type " + name)
	}
}

func TestFieldSig(t *testing.T) {
	res := staticResolver(map[string]typeToken{
		"Point":    {coded: typeDefToken(2)},
		"Callback": {coded: typeDefToken(3), class: true},
	})

	tests := []struct {
		name string
		typ  model.CType
		want []byte
	}{
		{"i32", model.Prim(model.KindI32), []byte{0x06, 0x08}},
		{"usize", model.Prim(model.KindUSize), []byte{0x06, 0x19}},
		{"ptr to u8", model.PtrTo(model.Prim(model.KindU8), true), []byte{0x06, 0x0F, 0x05}},
		{
			"ptr to ptr to void",
			model.PtrTo(model.PtrTo(model.Prim(model.KindVoid), true), true),
			[]byte{0x06, 0x0F, 0x0F, 0x01},
		},
		{
			"fixed array",
			model.ArrayOf(model.Prim(model.KindU16), 8),
			[]byte{0x06, 0x14, 0x07, 0x01, 0x01, 0x08, 0x00},
		},
		{
			"named value type",
			model.NamedRef("Point", nil),
			[]byte{0x06, 0x11, 0x08}, // TypeDef row 2 coded = 8
		},
		{
			"named delegate",
			model.NamedRef("Callback", nil),
			[]byte{0x06, 0x12, 0x0C}, // TypeDef row 3 coded = 12
		},
		{
			"bare function pointer",
			model.FuncPtr(model.Prim(model.KindVoid), nil, model.CallCdecl),
			[]byte{0x06, 0x18},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fieldSig(tt.typ, res)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got % X, want % X", got, tt.want)
			}
		})
	}
}

func TestFieldSigCanonicalFallback(t *testing.T) {
	res := staticResolver(nil)
	i64 := model.Prim(model.KindI64)
	got, err := fieldSig(model.NamedRef("time_t", &i64), res)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{0x06, 0x0A}) {
		t.Errorf("got % X, want 06 0A", got)
	}
}

func TestFieldSigUnresolved(t *testing.T) {
	if _, err := fieldSig(model.NamedRef("Missing", nil), staticResolver(nil)); err == nil {
		t.Error("unresolvable name without fallback should fail")
	}
}

func TestMethodSig(t *testing.T) {
	res := staticResolver(nil)
	sig, err := methodSig(false, model.Prim(model.KindI64), []model.Param{
		{Name: "fd", Type: model.Prim(model.KindI32)},
		{Name: "buf", Type: model.PtrTo(model.Prim(model.KindVoid), true)},
	}, res)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x00, 0x02, 0x0A, 0x08, 0x0F, 0x01}
	if !bytes.Equal(sig, want) {
		t.Errorf("got % X, want % X", sig, want)
	}

	this, err := methodSig(true, model.Prim(model.KindVoid), nil, res)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(this, []byte{0x20, 0x00, 0x01}) {
		t.Errorf("instance sig: got % X, want 20 00 01", this)
	}
}

func TestEnumConstant(t *testing.T) {
	tests := []struct {
		name       string
		underlying model.Kind
		variant    model.EnumVariant
		wantCode   byte
		wantBytes  []byte
	}{
		{"i32 negative", model.KindI32, model.EnumVariant{Signed: -1, Unsigned: 0xFFFFFFFFFFFFFFFF}, elemI4, []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{"u8", model.KindU8, model.EnumVariant{Signed: 200, Unsigned: 200}, elemU1, []byte{0xC8}},
		{"u32", model.KindU32, model.EnumVariant{Signed: 0x80000000, Unsigned: 0x80000000}, elemU4, []byte{0x00, 0x00, 0x00, 0x80}},
		{"i64", model.KindI64, model.EnumVariant{Signed: -2, Unsigned: 0xFFFFFFFFFFFFFFFE}, elemI8, []byte{0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, b := enumConstant(tt.underlying, tt.variant)
			if code != tt.wantCode || !bytes.Equal(b, tt.wantBytes) {
				t.Errorf("got code=%#x bytes=% X, want code=%#x bytes=% X",
					code, b, tt.wantCode, tt.wantBytes)
			}
		})
	}
}

func TestConstValue(t *testing.T) {
	tests := []struct {
		name     string
		value    model.ConstValue
		wantKind model.Kind
		wantCode byte
		wantLen  int
	}{
		{"small signed", model.SignedValue(42), model.KindI32, elemI4, 4},
		{"wide signed", model.SignedValue(1 << 40), model.KindI64, elemI8, 8},
		{"small unsigned", model.UnsignedValue(7), model.KindU32, elemU4, 4},
		{"wide unsigned", model.UnsignedValue(1 << 40), model.KindU64, elemU8, 8},
		{"float", model.FloatValue(1.5), model.KindF64, elemR8, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, code, b := constValue(tt.value)
			if kind != tt.wantKind || code != tt.wantCode || len(b) != tt.wantLen {
				t.Errorf("got kind=%s code=%#x len=%d, want kind=%s code=%#x len=%d",
					kind, code, len(b), tt.wantKind, tt.wantCode, tt.wantLen)
			}
		})
	}
}
