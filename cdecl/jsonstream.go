package cdecl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// CommandParser runs an external declaration dumper and decodes the
// JSON translation unit it prints on stdout. The dumper is invoked as
//
//	<path> <header...> -- <compiler arg...>
type CommandParser struct {
	// Path is the dumper executable.
	Path string
}

func (p *CommandParser) Parse(ctx context.Context, headers []string, args []string) (*TranslationUnit, error) {
	argv := make([]string, 0, len(headers)+1+len(args))
	argv = append(argv, headers...)
	if len(args) > 0 {
		argv = append(argv, "--")
		argv = append(argv, args...)
	}

	cmd := exec.CommandContext(ctx, p.Path, argv...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("cdecl: %s failed: %w: %s", p.Path, err, stderr.String())
		}
		return nil, fmt.Errorf("cdecl: %s failed: %w", p.Path, err)
	}
	return DecodeStream(stdout.Bytes())
}

// DecodeStream decodes a JSON-encoded translation unit.
func DecodeStream(data []byte) (*TranslationUnit, error) {
	var raw struct {
		Decls []json.RawMessage `json:"decls"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("cdecl: invalid stream: %w", err)
	}
	tu := &TranslationUnit{Decls: make([]Decl, 0, len(raw.Decls))}
	for i, msg := range raw.Decls {
		var jd jsonDecl
		if err := json.Unmarshal(msg, &jd); err != nil {
			return nil, fmt.Errorf("cdecl: decl %d: %w", i, err)
		}
		d, err := jd.decl()
		if err != nil {
			return nil, fmt.Errorf("cdecl: decl %d: %w", i, err)
		}
		tu.Decls = append(tu.Decls, d)
	}
	return tu, nil
}

type jsonDecl struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	File string `json:"file"`
	Line uint32 `json:"line"`

	Type       *jsonType `json:"type,omitempty"`
	Definition bool      `json:"definition,omitempty"`

	Anonymous  bool          `json:"anonymous,omitempty"`
	Underlying *jsonType     `json:"underlying,omitempty"`
	Variants   []jsonVariant `json:"variants,omitempty"`

	Ret      *jsonType   `json:"ret,omitempty"`
	Params   []jsonParam `json:"params,omitempty"`
	Variadic bool        `json:"variadic,omitempty"`
	Conv     string      `json:"conv,omitempty"`

	FunctionLike bool     `json:"function_like,omitempty"`
	Tokens       []string `json:"tokens,omitempty"`
}

type jsonVariant struct {
	Name     string `json:"name"`
	Signed   int64  `json:"signed"`
	Unsigned uint64 `json:"unsigned"`
}

type jsonParam struct {
	Name string    `json:"name"`
	Type *jsonType `json:"type"`
}

type jsonType struct {
	Kind  string `json:"kind"`
	Const bool   `json:"const,omitempty"`

	Pointee *jsonType `json:"pointee,omitempty"`

	Elem *jsonType `json:"elem,omitempty"`
	Len  uint32    `json:"len,omitempty"`

	Name      string      `json:"name,omitempty"`
	Canonical *jsonType   `json:"canonical,omitempty"`
	Complete  bool        `json:"complete,omitempty"`
	Anonymous bool        `json:"anonymous,omitempty"`
	Union     bool        `json:"union,omitempty"`
	Fields    []jsonField `json:"fields,omitempty"`
	Size      uint32      `json:"size,omitempty"`
	Align     uint32      `json:"align,omitempty"`

	Ret      *jsonType   `json:"ret,omitempty"`
	Params   []*jsonType `json:"params,omitempty"`
	Variadic bool        `json:"variadic,omitempty"`
	Conv     string      `json:"conv,omitempty"`
}

type jsonField struct {
	Name     string    `json:"name"`
	Type     *jsonType `json:"type"`
	BitWidth uint32    `json:"bit_width,omitempty"`
}

func (jd *jsonDecl) decl() (Decl, error) {
	loc := Location{File: jd.File, Line: jd.Line}
	switch jd.Kind {
	case "record":
		// Forward declarations carry no type payload.
		var t *Type
		if jd.Type != nil {
			var err error
			if t, err = jd.Type.build(); err != nil {
				return nil, err
			}
		}
		return &RecordDecl{Name: jd.Name, Location: loc, Type: t, Definition: jd.Definition}, nil
	case "enum":
		// A missing underlying type defaults downstream.
		var u *Type
		if jd.Underlying != nil {
			var err error
			if u, err = jd.Underlying.build(); err != nil {
				return nil, err
			}
		}
		variants := make([]EnumVariant, len(jd.Variants))
		for i, v := range jd.Variants {
			variants[i] = EnumVariant{Name: v.Name, Signed: v.Signed, Unsigned: v.Unsigned}
		}
		return &EnumDecl{
			Name: jd.Name, Location: loc, Anonymous: jd.Anonymous,
			Underlying: u, Variants: variants,
		}, nil
	case "function":
		ret, err := jd.Ret.build()
		if err != nil {
			return nil, err
		}
		params := make([]ParamInfo, len(jd.Params))
		for i, p := range jd.Params {
			pt, err := p.Type.build()
			if err != nil {
				return nil, err
			}
			params[i] = ParamInfo{Name: p.Name, Type: pt}
		}
		conv, err := callConv(jd.Conv)
		if err != nil {
			return nil, err
		}
		return &FunctionDecl{
			Name: jd.Name, Location: loc, Ret: ret,
			Params: params, Variadic: jd.Variadic, Conv: conv,
		}, nil
	case "typedef":
		u, err := jd.Underlying.build()
		if err != nil {
			return nil, err
		}
		return &TypedefDecl{Name: jd.Name, Location: loc, Underlying: u}, nil
	case "macro":
		return &MacroDecl{
			Name: jd.Name, Location: loc,
			FunctionLike: jd.FunctionLike, Tokens: jd.Tokens,
		}, nil
	default:
		return nil, fmt.Errorf("unknown declaration kind %q", jd.Kind)
	}
}

var typeKinds = map[string]TypeKind{
	"void":             TypeVoid,
	"bool":             TypeBool,
	"char":             TypeChar,
	"schar":            TypeSChar,
	"uchar":            TypeUChar,
	"short":            TypeShort,
	"ushort":           TypeUShort,
	"int":              TypeInt,
	"uint":             TypeUInt,
	"long":             TypeLong,
	"ulong":            TypeULong,
	"longlong":         TypeLongLong,
	"ulonglong":        TypeULongLong,
	"int128":           TypeInt128,
	"uint128":          TypeUInt128,
	"float":            TypeFloat,
	"double":           TypeDouble,
	"pointer":          TypePointer,
	"array":            TypeConstantArray,
	"incomplete_array": TypeIncompleteArray,
	"record":           TypeRecord,
	"enum":             TypeEnum,
	"typedef":          TypeTypedef,
	"funcproto":        TypeFuncProto,
}

func callConv(s string) (CallConv, error) {
	switch s {
	case "", "cdecl":
		return CallCdecl, nil
	case "stdcall":
		return CallStdcall, nil
	case "fastcall":
		return CallFastcall, nil
	default:
		return 0, fmt.Errorf("unknown calling convention %q", s)
	}
}

func (jt *jsonType) build() (*Type, error) {
	if jt == nil {
		return nil, fmt.Errorf("missing type node")
	}
	kind, ok := typeKinds[jt.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown type kind %q", jt.Kind)
	}
	t := &Type{
		Kind: kind, Const: jt.Const,
		Len: jt.Len, Name: jt.Name,
		Complete: jt.Complete, Anonymous: jt.Anonymous, Union: jt.Union,
		Size: jt.Size, Align: jt.Align,
		Variadic: jt.Variadic,
	}
	var err error
	if jt.Pointee != nil {
		if t.Pointee, err = jt.Pointee.build(); err != nil {
			return nil, err
		}
	}
	if jt.Elem != nil {
		if t.Elem, err = jt.Elem.build(); err != nil {
			return nil, err
		}
	}
	if jt.Canonical != nil {
		if t.Canonical, err = jt.Canonical.build(); err != nil {
			return nil, err
		}
	}
	if jt.Ret != nil {
		if t.Ret, err = jt.Ret.build(); err != nil {
			return nil, err
		}
	}
	if len(jt.Params) > 0 {
		t.Params = make([]*Type, len(jt.Params))
		for i, p := range jt.Params {
			if t.Params[i], err = p.build(); err != nil {
				return nil, err
			}
		}
	}
	if len(jt.Fields) > 0 {
		t.Fields = make([]FieldInfo, len(jt.Fields))
		for i, f := range jt.Fields {
			ft, err := f.Type.build()
			if err != nil {
				return nil, err
			}
			t.Fields[i] = FieldInfo{Name: f.Name, Type: ft, BitWidth: f.BitWidth}
		}
	}
	if t.Conv, err = callConv(jt.Conv); err != nil {
		return nil, err
	}
	return t, nil
}
