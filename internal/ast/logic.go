package ast

import (
	"strconv"
	"strings"
)

// LogicTerm is a node in the closed Herbrand term algebra the constraint
// generator emits: variable, atom, structure, or list (spec.md §3 "Logic
// terms"). The algebra is total: the sugar constructors below reject
// empty-arity calls rather than emit a malformed structure.
type LogicTerm interface {
	isLogicTerm()
	// String renders the term the way the downstream solver expects: "="
	// infix for eq, "functor(arg,...)" otherwise, "[a,b,...]" for lists.
	String() string
}

// LVar is a logic variable.
type LVar struct {
	Name string
}

func (LVar) isLogicTerm()  {}
func (v LVar) String() string { return v.Name }

// LAtom is a logic atom (a nullary, lowercase-leading constant symbol).
type LAtom struct {
	Value string
}

func (LAtom) isLogicTerm()  {}
func (a LAtom) String() string { return a.Value }

// LStruct is a compound term "functor(args...)". The "eq" functor prints
// infix as "a = b" to match the downstream solver's source syntax.
type LStruct struct {
	Functor string
	Args    []LogicTerm
}

func (LStruct) isLogicTerm() {}

func (s LStruct) String() string {
	if s.Functor == "eq" && len(s.Args) == 2 {
		return s.Args[0].String() + " = " + s.Args[1].String()
	}
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.String()
	}
	return s.Functor + "(" + strings.Join(parts, ", ") + ")"
}

// LList is a logic list "[a, b, ...]".
type LList struct {
	Elems []LogicTerm
}

func (LList) isLogicTerm() {}

func (l LList) String() string {
	parts := make([]string, len(l.Elems))
	for i, e := range l.Elems {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Well-known logic variables every call site must agree on the spelling of
// (spec.md §9 Design Notes). These correspond to the most recent
// constraint.py variant named as canonical by SPEC_FULL.md §C.1: class
// membership goes through HasClass/ClassesVar (the underscored "_Classes"
// collector), and function references go through internal/constraint's
// typeOf with a fresh collector variable.
var (
	TVar       = LVar{Name: "T"}
	CallsVar   = LVar{Name: "Calls"}
	CallsVar_  = LVar{Name: "Calls_"}
	ZetaVar    = LVar{Name: "Zeta"}
	ZetaVar_   = LVar{Name: "Zeta_"}
	ClassesVar = LVar{Name: "_Classes"}
)

// Wildcard is the anonymous logic variable "_".
var Wildcard = LVar{Name: "_"}

// Pair builds a left-associative chain of binary "pair" structures over
// terms: Pair(a) = a, Pair(a,b) = pair(a,b), Pair(a,b,c) = pair(pair(a,b),c).
// It panics on zero terms, per spec.md §9's "reject empty-arity calls".
func Pair(terms ...LogicTerm) LogicTerm {
	switch len(terms) {
	case 0:
		panic("ast: Pair needs at least one argument")
	case 1:
		return terms[0]
	default:
		return LStruct{Functor: "pair", Args: []LogicTerm{Pair(terms[:len(terms)-1]...), terms[len(terms)-1]}}
	}
}

// ListOf builds "pair(list, elem)", the sugar for a homogeneous-list type.
func ListOf(elem LogicTerm) LogicTerm {
	return Pair(LAtom{Value: "list"}, elem)
}

// FunOf builds a right-associative chain of function-type pairs:
// FunOf(a) = a, FunOf(a,b) = pair(pair(function,a),b),
// FunOf(a,b,c) = pair(pair(function,a), FunOf(b,c)). Panics on zero terms.
func FunOf(terms ...LogicTerm) LogicTerm {
	switch len(terms) {
	case 0:
		panic("ast: FunOf needs at least one argument")
	case 1:
		return terms[0]
	default:
		return Pair(Pair(LAtom{Value: "function"}, terms[0]), FunOf(terms[1:]...))
	}
}

// TupleOf builds a left-associative chain of tuple-type pairs headed by the
// atom "tuple": TupleOf(a) = pair(tuple,a), TupleOf(a,b) = pair(pair(tuple,a),b).
// Panics on zero terms.
func TupleOf(terms ...LogicTerm) LogicTerm {
	switch len(terms) {
	case 0:
		panic("ast: TupleOf needs at least one argument")
	case 1:
		return Pair(LAtom{Value: "tuple"}, terms[0])
	default:
		return Pair(TupleOf(terms[:len(terms)-1]...), terms[len(terms)-1])
	}
}

// Unify builds the "eq(a, b)" predicate.
func Unify(a, b LogicTerm) LogicTerm {
	return LStruct{Functor: "eq", Args: []LogicTerm{a, b}}
}

// UnifyAll builds "all_equal([terms...])".
func UnifyAll(terms []LogicTerm) LogicTerm {
	return LStruct{Functor: "all_equal", Args: []LogicTerm{LList{Elems: terms}}}
}

// Once wraps a term in "once(term)" (a single-solution cut, used for
// class-membership checks that must not backtrack over alternatives).
func Once(term LogicTerm) LogicTerm {
	return LStruct{Functor: "once", Args: []LogicTerm{term}}
}

// HasClass builds the class-membership check "once(member(with(className,
// v), _Classes))", used wherever a type variable must carry a class
// constraint (spec.md §9 Design Notes' canonical `hasClass`/`_Classes`
// naming, per SPEC_FULL.md §C.1).
func HasClass(v LogicTerm, className string) LogicTerm {
	return Once(LStruct{Functor: "member", Args: []LogicTerm{
		LStruct{Functor: "with", Args: []LogicTerm{LAtom{Value: className}, v}},
		ClassesVar,
	}})
}

// NodeVar returns the per-node logic variable "_<id>" used to stand for a
// node's type in a rule body.
func NodeVar(n Node) LVar {
	return LVar{Name: "_" + strconv.Itoa(n.ID())}
}

// TypeVar returns the per-declaration type-variable logic variable
// "_<declHead>_<tyVarName>".
func TypeVar(tyVarName, declHead string) LVar {
	return LVar{Name: "_" + declHead + "_" + tyVarName}
}
