package cdecl

import (
	"strings"
	"testing"
)

const sampleStream = `{
  "decls": [
    {
      "kind": "record", "name": "Point", "file": "/inc/demo.h", "line": 3,
      "definition": true,
      "type": {
        "kind": "record", "name": "Point", "complete": true,
        "size": 8, "align": 4,
        "fields": [
          {"name": "x", "type": {"kind": "int"}},
          {"name": "y", "type": {"kind": "int"}}
        ]
      }
    },
    {
      "kind": "enum", "name": "Color", "file": "/inc/demo.h", "line": 9,
      "underlying": {"kind": "uint"},
      "variants": [
        {"name": "RED", "signed": 0, "unsigned": 0},
        {"name": "GREEN", "signed": 1, "unsigned": 1}
      ]
    },
    {
      "kind": "function", "name": "demo_read", "file": "/inc/demo.h", "line": 14,
      "ret": {"kind": "longlong"},
      "params": [
        {"name": "buf", "type": {"kind": "pointer", "pointee": {"kind": "void"}}},
        {"name": "n", "type": {"kind": "ulong"}}
      ]
    },
    {
      "kind": "typedef", "name": "Handle", "file": "/inc/demo.h", "line": 17,
      "underlying": {"kind": "ulonglong"}
    },
    {
      "kind": "macro", "name": "DEMO_MAX", "file": "/inc/demo.h", "line": 1,
      "tokens": ["4096"]
    }
  ]
}`

func TestDecodeStream(t *testing.T) {
	tu, err := DecodeStream([]byte(sampleStream))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tu.Decls) != 5 {
		t.Fatalf("got %d decls, want 5", len(tu.Decls))
	}

	rec, ok := tu.Decls[0].(*RecordDecl)
	if !ok || rec.Name != "Point" || !rec.Definition {
		t.Fatalf("decl 0: %+v", tu.Decls[0])
	}
	if len(rec.Type.Fields) != 2 || rec.Type.Fields[0].Type.Kind != TypeInt {
		t.Errorf("Point fields: %+v", rec.Type.Fields)
	}
	if rec.Loc().File != "/inc/demo.h" || rec.Loc().Line != 3 {
		t.Errorf("Point location: %+v", rec.Loc())
	}

	en, ok := tu.Decls[1].(*EnumDecl)
	if !ok || en.Underlying.Kind != TypeUInt || len(en.Variants) != 2 {
		t.Fatalf("decl 1: %+v", tu.Decls[1])
	}
	if en.Variants[1].Name != "GREEN" || en.Variants[1].Signed != 1 {
		t.Errorf("variants: %+v", en.Variants)
	}

	fn, ok := tu.Decls[2].(*FunctionDecl)
	if !ok || fn.Ret.Kind != TypeLongLong || len(fn.Params) != 2 {
		t.Fatalf("decl 2: %+v", tu.Decls[2])
	}
	if fn.Params[0].Type.Kind != TypePointer || fn.Params[0].Type.Pointee.Kind != TypeVoid {
		t.Errorf("param 0: %+v", fn.Params[0].Type)
	}
	if fn.Conv != CallCdecl {
		t.Errorf("default conv: got %d", fn.Conv)
	}

	td, ok := tu.Decls[3].(*TypedefDecl)
	if !ok || td.Underlying.Kind != TypeULongLong {
		t.Fatalf("decl 3: %+v", tu.Decls[3])
	}

	mc, ok := tu.Decls[4].(*MacroDecl)
	if !ok || mc.FunctionLike || len(mc.Tokens) != 1 || mc.Tokens[0] != "4096" {
		t.Fatalf("decl 4: %+v", tu.Decls[4])
	}
}

func TestDecodeStreamOptionalPayloads(t *testing.T) {
	stream := `{
	  "decls": [
	    {"kind": "record", "name": "Fwd", "file": "/inc/demo.h", "line": 2},
	    {"kind": "enum", "name": "Bare", "file": "/inc/demo.h", "line": 3,
	     "variants": [{"name": "A", "signed": 0, "unsigned": 0}]}
	  ]
	}`
	tu, err := DecodeStream([]byte(stream))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rec, ok := tu.Decls[0].(*RecordDecl)
	if !ok || rec.Definition || rec.Type != nil {
		t.Errorf("forward declaration: %+v", tu.Decls[0])
	}
	en, ok := tu.Decls[1].(*EnumDecl)
	if !ok || en.Underlying != nil || len(en.Variants) != 1 {
		t.Errorf("underlying-less enum: %+v", tu.Decls[1])
	}
}

func TestDecodeStreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{"not json", "garbage", "invalid stream"},
		{"unknown decl kind", `{"decls":[{"kind":"namespace","name":"x"}]}`, "unknown declaration kind"},
		{"unknown type kind", `{"decls":[{"kind":"typedef","name":"T","underlying":{"kind":"quaternion"}}]}`, "unknown type kind"},
		{"missing type", `{"decls":[{"kind":"typedef","name":"T"}]}`, "missing type node"},
		{"bad conv", `{"decls":[{"kind":"function","name":"f","ret":{"kind":"void"},"conv":"vectorcall"}]}`, "unknown calling convention"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeStream([]byte(tt.stream))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}
