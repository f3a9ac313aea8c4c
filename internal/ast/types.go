package ast

// Ty is implemented by every type-expression node.
//
// Every Ty additionally carries Axiom, marking a position that must be
// asserted unconditionally. The AST builder creates every type with Axiom
// false, including constructor and class signatures; only the synonym
// expander sets it, on the positions nested below the top of an inlined
// synonym body. See internal/constraint for how this flag selects axiom
// vs. rule emission.
type Ty interface {
	Node
	isTy()
	IsAxiom() bool
	SetAxiom(bool)
}

type tyBase struct {
	base
	axiom bool
}

func (t tyBase) IsAxiom() bool    { return t.axiom }
func (t *tyBase) SetAxiom(v bool) { t.axiom = v }

// TyVar is a type variable reference.
type TyVar struct {
	tyBase
	Name          string
	CanonicalName string
}

func (*TyVar) isTy() {}

// NewTyVar constructs a type-variable reference.
func NewTyVar(id int, loc Range, name string, axiom bool) *TyVar {
	return &TyVar{tyBase: tyBase{base: NewBase(id, loc), axiom: axiom}, Name: name}
}

// TyCon is a type-constructor reference, e.g. "Int" or a qualified "M.T".
type TyCon struct {
	tyBase
	Name          string
	Module        *string
	CanonicalName string
}

func (*TyCon) isTy() {}

// NewTyCon constructs a type-constructor reference.
func NewTyCon(id int, loc Range, name string, module *string, axiom bool) *TyCon {
	return &TyCon{tyBase: tyBase{base: NewBase(id, loc), axiom: axiom}, Name: name, Module: module}
}

// TyApp is type application "τ1 τ2".
type TyApp struct {
	tyBase
	Ty1, Ty2 Ty
}

func (*TyApp) isTy() {}

// NewTyApp constructs a type application.
func NewTyApp(id int, loc Range, t1, t2 Ty, axiom bool) *TyApp {
	return &TyApp{tyBase: tyBase{base: NewBase(id, loc), axiom: axiom}, Ty1: t1, Ty2: t2}
}

// TyFun is the function arrow "τ1 -> τ2".
type TyFun struct {
	tyBase
	Ty1, Ty2 Ty
}

func (*TyFun) isTy() {}

// NewTyFun constructs a function-arrow type.
func NewTyFun(id int, loc Range, t1, t2 Ty, axiom bool) *TyFun {
	return &TyFun{tyBase: tyBase{base: NewBase(id, loc), axiom: axiom}, Ty1: t1, Ty2: t2}
}

// TyTuple is "(τ1, τ2, ...)".
type TyTuple struct {
	tyBase
	Tys []Ty
}

func (*TyTuple) isTy() {}

// NewTyTuple constructs a tuple type.
func NewTyTuple(id int, loc Range, tys []Ty, axiom bool) *TyTuple {
	return &TyTuple{tyBase: tyBase{base: NewBase(id, loc), axiom: axiom}, Tys: tys}
}

// TyList is "[τ]".
type TyList struct {
	tyBase
	Ty Ty
}

func (*TyList) isTy() {}

// NewTyList constructs a list type.
func NewTyList(id int, loc Range, t Ty, axiom bool) *TyList {
	return &TyList{tyBase: tyBase{base: NewBase(id, loc), axiom: axiom}, Ty: t}
}

// TyPrefixList is the prefix form of the built-in list type constructor "[]".
type TyPrefixList struct {
	tyBase
}

func (*TyPrefixList) isTy() {}

// NewTyPrefixList constructs the prefix list type constructor.
func NewTyPrefixList(id int, loc Range) *TyPrefixList {
	return &TyPrefixList{tyBase{base: NewBase(id, loc)}}
}

// TyPrefixTuple is the prefix form of the built-in tuple type constructor
// "(,...,)" of the given arity.
type TyPrefixTuple struct {
	tyBase
	Arity int
}

func (*TyPrefixTuple) isTy() {}

// NewTyPrefixTuple constructs the prefix tuple type constructor.
func NewTyPrefixTuple(id int, loc Range, arity int) *TyPrefixTuple {
	return &TyPrefixTuple{tyBase: tyBase{base: NewBase(id, loc)}, Arity: arity}
}

// TyPrefixFunction is the prefix form of the built-in function arrow "(->)".
type TyPrefixFunction struct {
	tyBase
}

func (*TyPrefixFunction) isTy() {}

// NewTyPrefixFunction constructs the prefix function type constructor.
func NewTyPrefixFunction(id int, loc Range) *TyPrefixFunction {
	return &TyPrefixFunction{tyBase{base: NewBase(id, loc)}}
}

// Context is a list of class assertions, e.g. "(Eq a, Ord b) =>".
type Context struct {
	base
	Assertions []Ty // each a TyApp(TyCon(class), TyVar(param)) or bare TyCon
}

// ID and Loc are inherited from base; Context is not itself a Ty or Pat,
// it is an optional field of TyForall, ClassDecl and InstDecl.
func NewContext(id int, loc Range, assertions []Ty) *Context {
	return &Context{base: NewBase(id, loc), Assertions: assertions}
}

// TyForall is "forall [ctx =>] τ" (in practice surfaced as a signature's
// outermost context, since the surface language has no explicit quantifier).
type TyForall struct {
	tyBase
	Context *Context // nil if there is no context
	Ty      Ty
}

func (*TyForall) isTy() {}

// NewTyForall constructs a (possibly contextless) forall type.
func NewTyForall(id int, loc Range, ctx *Context, t Ty, axiom bool) *TyForall {
	return &TyForall{tyBase: tyBase{base: NewBase(id, loc), axiom: axiom}, Context: ctx, Ty: t}
}
