package ast

// Decl is implemented by every declaration node.
type Decl interface {
	Node
	isDecl()
}

// Module is the top-level unit: one source file's declarations plus its
// import list (module names, not yet resolved to Module values).
type Module struct {
	base
	Name    string
	Decls   []Decl
	Imports []string
}

// NewModule constructs a module. Imports is mutated by the bundle loader to
// inject the implicit Prelude import (spec.md §4.6 rule 3).
func NewModule(id int, loc Range, name string, decls []Decl, imports []string) *Module {
	return &Module{base: NewBase(id, loc), Name: name, Decls: decls, Imports: imports}
}

// DeclHead names a type/class head and its formal type-variable parameters,
// e.g. the "T a b" in "data T a b = ...".
type DeclHead struct {
	base
	Name          string
	CanonicalName string
	TyVars        []*TyVar
}

// NewDeclHead constructs a declaration head.
func NewDeclHead(id int, loc Range, name string, tyVars []*TyVar) *DeclHead {
	return &DeclHead{base: NewBase(id, loc), Name: name, TyVars: tyVars}
}

// TypeDecl is "type T a... = τ"; removed from every module by the synonym
// expander once expansion has converged (spec.md §4.2).
type TypeDecl struct {
	base
	Head *DeclHead
	Ty   Ty
}

func (*TypeDecl) isDecl() {}

// NewTypeDecl constructs a type-synonym declaration.
func NewTypeDecl(id int, loc Range, head *DeclHead, ty Ty) *TypeDecl {
	return &TypeDecl{base: NewBase(id, loc), Head: head, Ty: ty}
}

// DataCon is one constructor alternative of a data declaration.
type DataCon struct {
	base
	Name          string
	CanonicalName string
	Tys           []Ty
}

// NewDataCon constructs a data-constructor alternative.
func NewDataCon(id int, loc Range, name string, tys []Ty) *DataCon {
	return &DataCon{base: NewBase(id, loc), Name: name, Tys: tys}
}

// DataDecl is "data T a... = K1 τ... | K2 τ... deriving (D...)".
type DataDecl struct {
	base
	Head         *DeclHead
	Constructors []*DataCon
	Deriving     []*TyCon
}

func (*DataDecl) isDecl() {}

// NewDataDecl constructs a data declaration.
func NewDataDecl(id int, loc Range, head *DeclHead, cons []*DataCon, deriving []*TyCon) *DataDecl {
	return &DataDecl{base: NewBase(id, loc), Head: head, Constructors: cons, Deriving: deriving}
}

// ClassDecl is "class [ctx =>] C a where { sig... }".
type ClassDecl struct {
	base
	Context *Context // nil if no superclass context
	Head    *DeclHead
	Decls   []Decl // method TypeSig declarations
}

func (*ClassDecl) isDecl() {}

// NewClassDecl constructs a class declaration.
func NewClassDecl(id int, loc Range, ctx *Context, head *DeclHead, decls []Decl) *ClassDecl {
	return &ClassDecl{base: NewBase(id, loc), Context: ctx, Head: head, Decls: decls}
}

// InstDecl is "instance [ctx =>] C τ".
type InstDecl struct {
	base
	Context       *Context // nil if no context
	Name          string   // the class name as written
	Module        *string
	CanonicalName string // the class's canonical name, filled in by the renamer
	Tys           []Ty   // the instance head's type arguments (arity is not checked; constraint generation reads only the first)
	Body          []Decl
}

func (*InstDecl) isDecl() {}

// NewInstDecl constructs an instance declaration.
func NewInstDecl(id int, loc Range, ctx *Context, name string, module *string, tys []Ty, body []Decl) *InstDecl {
	return &InstDecl{base: NewBase(id, loc), Context: ctx, Name: name, Module: module, Tys: tys, Body: body}
}

// PatBind is a pattern binding "p = rhs"; a function definition "f x y = e"
// is desugared by the AST builder into a PatBind whose pattern is a PVar
// and whose rhs wraps a lambda over the parameters (spec.md §4.1).
type PatBind struct {
	base
	Pat Pat
	Rhs Rhs
}

func (*PatBind) isDecl() {}

// NewPatBind constructs a pattern binding.
func NewPatBind(id int, loc Range, pat Pat, rhs Rhs) *PatBind {
	return &PatBind{base: NewBase(id, loc), Pat: pat, Rhs: rhs}
}

// TypeSig is "f, g :: τ" naming one or more identifiers at a single type.
type TypeSig struct {
	base
	Names          []string
	CanonicalNames []string // filled in by the renamer, parallel to Names
	Ty             Ty
}

func (*TypeSig) isDecl() {}

// NewTypeSig constructs a type signature.
func NewTypeSig(id int, loc Range, names []string, ty Ty) *TypeSig {
	return &TypeSig{base: NewBase(id, loc), Names: names, Ty: ty}
}
