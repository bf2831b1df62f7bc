package cdecl

// Location is the source position of a declaration.
type Location struct {
	File string
	Line uint32
}

// Decl is a single top-level declaration in a translation unit.
type Decl interface {
	// DeclName returns the declared name, which may be empty for
	// anonymous declarations.
	DeclName() string
	// Loc returns where the declaration appears.
	Loc() Location
}

// RecordDecl is a struct or union declaration. Type carries the member
// list when the declaration is a full definition.
type RecordDecl struct {
	Name       string
	Location   Location
	Type       *Type
	Definition bool
}

func (d *RecordDecl) DeclName() string { return d.Name }
func (d *RecordDecl) Loc() Location    { return d.Location }

// EnumVariant is one enumerator with its value in both signednesses.
type EnumVariant struct {
	Name     string
	Signed   int64
	Unsigned uint64
}

// EnumDecl is an enum declaration.
type EnumDecl struct {
	Name       string
	Location   Location
	Anonymous  bool
	Underlying *Type
	Variants   []EnumVariant
}

func (d *EnumDecl) DeclName() string { return d.Name }
func (d *EnumDecl) Loc() Location    { return d.Location }

// ParamInfo is a declared function parameter.
type ParamInfo struct {
	Name string
	Type *Type
}

// FunctionDecl is a function declaration.
type FunctionDecl struct {
	Name     string
	Location Location
	Ret      *Type
	Params   []ParamInfo
	Variadic bool
	Conv     CallConv
}

func (d *FunctionDecl) DeclName() string { return d.Name }
func (d *FunctionDecl) Loc() Location    { return d.Location }

// TypedefDecl is a typedef declaration.
type TypedefDecl struct {
	Name       string
	Location   Location
	Underlying *Type
}

func (d *TypedefDecl) DeclName() string { return d.Name }
func (d *TypedefDecl) Loc() Location    { return d.Location }

// MacroDecl is an object-like or function-like preprocessor definition.
// Tokens holds the replacement list spelling, excluding the macro name.
type MacroDecl struct {
	Name         string
	Location     Location
	FunctionLike bool
	Tokens       []string
}

func (d *MacroDecl) DeclName() string { return d.Name }
func (d *MacroDecl) Loc() Location    { return d.Location }

// TranslationUnit is the parsed-declaration stream for one partition's
// entry header (plus everything it includes).
type TranslationUnit struct {
	Decls []Decl
}
