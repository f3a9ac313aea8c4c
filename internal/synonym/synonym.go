// Package synonym expands type-synonym declarations to a fixed point and
// removes them from the module, per spec.md §4.2. Grounded directly on
// original_source/parser/parser/synonym.py: gather_synonyms,
// collapse_type_metadata, replace, replace_synonyms,
// replace_synonyms_recursive, translate_synonyms.
package synonym

import (
	"fmt"

	"github.com/maybetonyfu/goanna/internal/ast"
)

// maxRounds bounds the fix-point loop (spec.md §4.2): a cyclic synonym
// definition is a FatalError, not an infinite loop.
const maxRounds = 50

// Def is one synonym's formal parameters and right-hand-side type.
type Def struct {
	Params []string
	Ty     ast.Ty
}

// Table maps a synonym's declared name to its definition. Synonym names are
// shared across every module in the bundle (translate_synonyms merges all
// modules' gathered synonyms into one table before expanding any of them),
// so two modules declaring "type T = ..." under the same name collide; the
// later module in bundle order wins, matching dict.update order in
// merge_synonyms. This is a carried-over simplification from the original,
// not a deliberate redesign: SPEC_FULL.md does not ask for per-module
// synonym namespacing, and nothing downstream resolves a synonym the way a
// qualified Buyer resolves a vendor.
type Table map[string]Def

// CyclicError reports that a module's synonym expansion did not converge
// within maxRounds rounds.
type CyclicError struct {
	Module string
}

func (e *CyclicError) Error() string {
	return fmt.Sprintf("synonym: possible cyclic definition in module %q", e.Module)
}

// ArityError reports that a synonym was used with a different number of
// arguments than it was declared with.
type ArityError struct {
	Name string
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("synonym: %q expects %d argument(s), used with %d", e.Name, e.Want, e.Got)
}

// Gather collects every module's top-level "type T a... = τ" declarations
// into one shared table (gather_synonyms + merge_synonyms).
func Gather(modules []*ast.Module) Table {
	table := make(Table)
	for _, m := range modules {
		for _, d := range m.Decls {
			if td, ok := d.(*ast.TypeDecl); ok {
				params := make([]string, len(td.Head.TyVars))
				for i, tv := range td.Head.TyVars {
					params[i] = tv.Name
				}
				table[td.Head.Name] = Def{Params: params, Ty: td.Ty}
			}
		}
	}
	return table
}

// Expand runs Gather followed by a per-module fix-point expansion, and
// returns new modules with every TypeDecl removed (translate_synonyms).
func Expand(modules []*ast.Module, gen *ast.IDGen) ([]*ast.Module, error) {
	table := Gather(modules)
	out := make([]*ast.Module, len(modules))
	for i, m := range modules {
		expanded, err := expandModule(table, m, gen)
		if err != nil {
			return nil, err
		}
		out[i] = expanded
	}
	return out, nil
}

func expandModule(table Table, m *ast.Module, gen *ast.IDGen) (*ast.Module, error) {
	decls := m.Decls
	for round := 1; ; round++ {
		if round > maxRounds {
			return nil, &CyclicError{Module: m.Name}
		}
		newDecls, changed, err := replaceDeclList(table, decls, gen)
		if err != nil {
			return nil, err
		}
		decls = newDecls
		if !changed {
			break
		}
	}
	final := make([]ast.Decl, 0, len(decls))
	for _, d := range decls {
		if _, ok := d.(*ast.TypeDecl); !ok {
			final = append(final, d)
		}
	}
	return ast.NewModule(m.ID(), m.Loc(), m.Name, final, m.Imports), nil
}

// --- Ty-level substitution (collapse_type_metadata / replace) ---

// collapse deep-copies ty with fresh ids and newLoc throughout, setting
// Axiom to !topLevel at every level. Used when a parameterless synonym's
// body is spliced in wholesale at a usage site. Unlike
// collapse_type_metadata, this recurses into TyApp/TyFun/TyCon's own
// substructure too: the Python original reuses ty1/ty2 by reference there,
// which aliases the same node across every usage site of the synonym and
// would violate the bundle-wide unique-id invariant (spec.md §4.1) the
// moment a parameterless synonym's body contains a TyApp or TyFun.
func collapse(ty ast.Ty, newLoc ast.Range, topLevel bool, gen *ast.IDGen) ast.Ty {
	axiom := !topLevel
	switch t := ty.(type) {
	case *ast.TyVar:
		nv := ast.NewTyVar(gen.Next(), newLoc, t.Name, axiom)
		nv.CanonicalName = t.CanonicalName
		return nv
	case *ast.TyCon:
		nc := ast.NewTyCon(gen.Next(), newLoc, t.Name, t.Module, axiom)
		nc.CanonicalName = t.CanonicalName
		return nc
	case *ast.TyApp:
		return ast.NewTyApp(gen.Next(), newLoc, collapse(t.Ty1, newLoc, false, gen), collapse(t.Ty2, newLoc, false, gen), axiom)
	case *ast.TyFun:
		return ast.NewTyFun(gen.Next(), newLoc, collapse(t.Ty1, newLoc, false, gen), collapse(t.Ty2, newLoc, false, gen), axiom)
	case *ast.TyTuple:
		tys := make([]ast.Ty, len(t.Tys))
		for i, sub := range t.Tys {
			tys[i] = collapse(sub, newLoc, false, gen)
		}
		return ast.NewTyTuple(gen.Next(), newLoc, tys, axiom)
	case *ast.TyList:
		return ast.NewTyList(gen.Next(), newLoc, collapse(t.Ty, newLoc, false, gen), axiom)
	case *ast.TyForall:
		return ast.NewTyForall(gen.Next(), newLoc, collapseContext(t.Context, newLoc, gen), collapse(t.Ty, newLoc, false, gen), axiom)
	case *ast.TyPrefixList:
		return ast.NewTyPrefixList(gen.Next(), newLoc)
	case *ast.TyPrefixTuple:
		return ast.NewTyPrefixTuple(gen.Next(), newLoc, t.Arity)
	case *ast.TyPrefixFunction:
		return ast.NewTyPrefixFunction(gen.Next(), newLoc)
	default:
		return ty
	}
}

func collapseContext(ctx *ast.Context, newLoc ast.Range, gen *ast.IDGen) *ast.Context {
	if ctx == nil {
		return nil
	}
	assertions := make([]ast.Ty, len(ctx.Assertions))
	for i, a := range ctx.Assertions {
		assertions[i] = collapse(a, newLoc, false, gen)
	}
	return ast.NewContext(gen.Next(), newLoc, assertions)
}

// retag shallow-copies ty with a fresh id and the given axiom, keeping its
// own Loc and substructure untouched (the "**{k: v for k in ... if k !=
// 'id'}" shallow copy in replace's TyVar-match branch).
func retag(ty ast.Ty, gen *ast.IDGen, axiom bool) ast.Ty {
	switch t := ty.(type) {
	case *ast.TyVar:
		nv := ast.NewTyVar(gen.Next(), t.Loc(), t.Name, axiom)
		nv.CanonicalName = t.CanonicalName
		return nv
	case *ast.TyCon:
		nc := ast.NewTyCon(gen.Next(), t.Loc(), t.Name, t.Module, axiom)
		nc.CanonicalName = t.CanonicalName
		return nc
	case *ast.TyApp:
		return ast.NewTyApp(gen.Next(), t.Loc(), t.Ty1, t.Ty2, axiom)
	case *ast.TyFun:
		return ast.NewTyFun(gen.Next(), t.Loc(), t.Ty1, t.Ty2, axiom)
	case *ast.TyTuple:
		return ast.NewTyTuple(gen.Next(), t.Loc(), t.Tys, axiom)
	case *ast.TyList:
		return ast.NewTyList(gen.Next(), t.Loc(), t.Ty, axiom)
	case *ast.TyForall:
		return ast.NewTyForall(gen.Next(), t.Loc(), t.Context, t.Ty, axiom)
	case *ast.TyPrefixList:
		return ast.NewTyPrefixList(gen.Next(), t.Loc())
	case *ast.TyPrefixTuple:
		return ast.NewTyPrefixTuple(gen.Next(), t.Loc(), t.Arity)
	case *ast.TyPrefixFunction:
		return ast.NewTyPrefixFunction(gen.Next(), t.Loc())
	default:
		return ty
	}
}

// substitute deep-copies a synonym's body, replacing each formal parameter
// with its matching argument (the "replace" function). args[i] is spliced
// in with a fresh id but its own Loc and substructure, since each argument
// subtree came from a single usage site and is never aliased elsewhere.
func substitute(ty ast.Ty, params []string, args []ast.Ty, gen *ast.IDGen, topLevel bool) ast.Ty {
	axiom := !topLevel
	switch t := ty.(type) {
	case *ast.TyVar:
		for i, p := range params {
			if p == t.Name {
				return retag(args[i], gen, axiom)
			}
		}
		nv := ast.NewTyVar(gen.Next(), t.Loc(), t.Name, axiom)
		nv.CanonicalName = t.CanonicalName
		return nv
	case *ast.TyCon:
		nc := ast.NewTyCon(gen.Next(), t.Loc(), t.Name, t.Module, axiom)
		nc.CanonicalName = t.CanonicalName
		return nc
	case *ast.TyApp:
		return ast.NewTyApp(gen.Next(), t.Loc(), substitute(t.Ty1, params, args, gen, false), substitute(t.Ty2, params, args, gen, false), axiom)
	case *ast.TyFun:
		return ast.NewTyFun(gen.Next(), t.Loc(), substitute(t.Ty1, params, args, gen, false), substitute(t.Ty2, params, args, gen, false), axiom)
	case *ast.TyTuple:
		tys := make([]ast.Ty, len(t.Tys))
		for i, sub := range t.Tys {
			tys[i] = substitute(sub, params, args, gen, false)
		}
		return ast.NewTyTuple(gen.Next(), t.Loc(), tys, axiom)
	case *ast.TyList:
		return ast.NewTyList(gen.Next(), t.Loc(), substitute(t.Ty, params, args, gen, false), axiom)
	case *ast.TyForall:
		// The original does not substitute inside a nested forall's
		// context either; only the inner type is rewritten.
		return ast.NewTyForall(gen.Next(), t.Loc(), t.Context, substitute(t.Ty, params, args, gen, false), axiom)
	default:
		return retag(ty, gen, axiom)
	}
}

func unroll(ty ast.Ty) []ast.Ty {
	if app, ok := ty.(*ast.TyApp); ok {
		return append(unroll(app.Ty1), app.Ty2)
	}
	return []ast.Ty{ty}
}

// replaceTy applies one round of synonym expansion to ty (replace_synonyms'
// Ty-specific cases), reporting whether anything changed.
func replaceTy(table Table, ty ast.Ty, gen *ast.IDGen) (ast.Ty, bool, error) {
	switch t := ty.(type) {
	case *ast.TyCon:
		if def, ok := table[t.Name]; ok {
			if len(def.Params) != 0 {
				return nil, false, &ArityError{Name: t.Name, Want: len(def.Params), Got: 0}
			}
			return collapse(def.Ty, t.Loc(), true, gen), true, nil
		}
		return t, false, nil
	case *ast.TyApp:
		spine := unroll(t)
		if head, ok := spine[0].(*ast.TyCon); ok {
			if def, ok2 := table[head.Name]; ok2 {
				args := spine[1:]
				if len(args) != len(def.Params) {
					return nil, false, &ArityError{Name: head.Name, Want: len(def.Params), Got: len(args)}
				}
				return substitute(def.Ty, def.Params, args, gen, true), true, nil
			}
		}
		newTy1, r1, err := replaceTy(table, t.Ty1, gen)
		if err != nil {
			return nil, false, err
		}
		newTy2, r2, err := replaceTy(table, t.Ty2, gen)
		if err != nil {
			return nil, false, err
		}
		if !r1 && !r2 {
			return t, false, nil
		}
		return ast.NewTyApp(t.ID(), t.Loc(), newTy1, newTy2, t.IsAxiom()), true, nil
	case *ast.TyFun:
		newTy1, r1, err := replaceTy(table, t.Ty1, gen)
		if err != nil {
			return nil, false, err
		}
		newTy2, r2, err := replaceTy(table, t.Ty2, gen)
		if err != nil {
			return nil, false, err
		}
		if !r1 && !r2 {
			return t, false, nil
		}
		return ast.NewTyFun(t.ID(), t.Loc(), newTy1, newTy2, t.IsAxiom()), true, nil
	case *ast.TyTuple:
		changed := false
		tys := make([]ast.Ty, len(t.Tys))
		for i, sub := range t.Tys {
			nt, r, err := replaceTy(table, sub, gen)
			if err != nil {
				return nil, false, err
			}
			tys[i] = nt
			changed = changed || r
		}
		if !changed {
			return t, false, nil
		}
		return ast.NewTyTuple(t.ID(), t.Loc(), tys, t.IsAxiom()), true, nil
	case *ast.TyList:
		nt, r, err := replaceTy(table, t.Ty, gen)
		if err != nil {
			return nil, false, err
		}
		if !r {
			return t, false, nil
		}
		return ast.NewTyList(t.ID(), t.Loc(), nt, t.IsAxiom()), true, nil
	case *ast.TyForall:
		ctx, rc, err := replaceContext(table, t.Context, gen)
		if err != nil {
			return nil, false, err
		}
		nt, rt, err := replaceTy(table, t.Ty, gen)
		if err != nil {
			return nil, false, err
		}
		if !rc && !rt {
			return t, false, nil
		}
		return ast.NewTyForall(t.ID(), t.Loc(), ctx, nt, t.IsAxiom()), true, nil
	default:
		return t, false, nil
	}
}

func replaceContext(table Table, ctx *ast.Context, gen *ast.IDGen) (*ast.Context, bool, error) {
	if ctx == nil {
		return nil, false, nil
	}
	changed := false
	assertions := make([]ast.Ty, len(ctx.Assertions))
	for i, a := range ctx.Assertions {
		nt, r, err := replaceTy(table, a, gen)
		if err != nil {
			return nil, false, err
		}
		assertions[i] = nt
		changed = changed || r
	}
	if !changed {
		return ctx, false, nil
	}
	return ast.NewContext(ctx.ID(), ctx.Loc(), assertions), true, nil
}

// --- AST-level recursion to reach every Ty-bearing field ---

func replaceDeclList(table Table, decls []ast.Decl, gen *ast.IDGen) ([]ast.Decl, bool, error) {
	changed := false
	out := make([]ast.Decl, len(decls))
	for i, d := range decls {
		nd, r, err := replaceDecl(table, d, gen)
		if err != nil {
			return nil, false, err
		}
		out[i] = nd
		changed = changed || r
	}
	return out, changed, nil
}

func replaceDecl(table Table, decl ast.Decl, gen *ast.IDGen) (ast.Decl, bool, error) {
	switch d := decl.(type) {
	case *ast.TypeDecl:
		nt, r, err := replaceTy(table, d.Ty, gen)
		if err != nil || !r {
			return d, r, err
		}
		return ast.NewTypeDecl(d.ID(), d.Loc(), d.Head, nt), true, nil
	case *ast.DataDecl:
		changed := false
		cons := make([]*ast.DataCon, len(d.Constructors))
		for i, c := range d.Constructors {
			tys := make([]ast.Ty, len(c.Tys))
			for j, ty := range c.Tys {
				nt, r, err := replaceTy(table, ty, gen)
				if err != nil {
					return nil, false, err
				}
				tys[j] = nt
				changed = changed || r
			}
			cons[i] = ast.NewDataCon(c.ID(), c.Loc(), c.Name, tys)
		}
		if !changed {
			return d, false, nil
		}
		return ast.NewDataDecl(d.ID(), d.Loc(), d.Head, cons, d.Deriving), true, nil
	case *ast.ClassDecl:
		ctx, rc, err := replaceContext(table, d.Context, gen)
		if err != nil {
			return nil, false, err
		}
		decls, rd, err := replaceDeclList(table, d.Decls, gen)
		if err != nil {
			return nil, false, err
		}
		if !rc && !rd {
			return d, false, nil
		}
		return ast.NewClassDecl(d.ID(), d.Loc(), ctx, d.Head, decls), true, nil
	case *ast.InstDecl:
		ctx, rc, err := replaceContext(table, d.Context, gen)
		if err != nil {
			return nil, false, err
		}
		changed := rc
		tys := make([]ast.Ty, len(d.Tys))
		for i, ty := range d.Tys {
			nt, r, err := replaceTy(table, ty, gen)
			if err != nil {
				return nil, false, err
			}
			tys[i] = nt
			changed = changed || r
		}
		body, rb, err := replaceDeclList(table, d.Body, gen)
		if err != nil {
			return nil, false, err
		}
		changed = changed || rb
		if !changed {
			return d, false, nil
		}
		return ast.NewInstDecl(d.ID(), d.Loc(), ctx, d.Name, d.Module, tys, body), true, nil
	case *ast.TypeSig:
		nt, r, err := replaceTy(table, d.Ty, gen)
		if err != nil || !r {
			return d, r, err
		}
		return ast.NewTypeSig(d.ID(), d.Loc(), d.Names, nt), true, nil
	case *ast.PatBind:
		rhs, r, err := replaceRhs(table, d.Rhs, gen)
		if err != nil || !r {
			return d, r, err
		}
		return ast.NewPatBind(d.ID(), d.Loc(), d.Pat, rhs), true, nil
	default:
		return decl, false, nil
	}
}

func replaceRhs(table Table, rhs ast.Rhs, gen *ast.IDGen) (ast.Rhs, bool, error) {
	switch r := rhs.(type) {
	case *ast.UnguardedRhs:
		wheres, rw, err := replaceDeclList(table, r.Wheres, gen)
		if err != nil {
			return nil, false, err
		}
		exp, re, err := replaceExp(table, r.Exp, gen)
		if err != nil {
			return nil, false, err
		}
		if !rw && !re {
			return r, false, nil
		}
		return ast.NewUnguardedRhs(r.ID(), r.Loc(), exp, wheres), true, nil
	case *ast.GuardedRhs:
		wheres, rw, err := replaceDeclList(table, r.Wheres, gen)
		if err != nil {
			return nil, false, err
		}
		changed := rw
		branches := make([]*ast.GuardBranch, len(r.Branches))
		for i, br := range r.Branches {
			guards := make([]ast.Exp, len(br.Guards))
			for j, g := range br.Guards {
				ng, rg, err := replaceExp(table, g, gen)
				if err != nil {
					return nil, false, err
				}
				guards[j] = ng
				changed = changed || rg
			}
			exp, re, err := replaceExp(table, br.Exp, gen)
			if err != nil {
				return nil, false, err
			}
			changed = changed || re
			branches[i] = ast.NewGuardBranch(br.ID(), br.Loc(), guards, exp)
		}
		if !changed {
			return r, false, nil
		}
		return ast.NewGuardedRhs(r.ID(), r.Loc(), branches, wheres), true, nil
	default:
		return rhs, false, nil
	}
}

func replaceExp(table Table, exp ast.Exp, gen *ast.IDGen) (ast.Exp, bool, error) {
	switch e := exp.(type) {
	case *ast.ExpVar, *ast.ExpCon, *ast.ExpLit:
		return exp, false, nil
	case *ast.ExpApp:
		e1, r1, err := replaceExp(table, e.Exp1, gen)
		if err != nil {
			return nil, false, err
		}
		e2, r2, err := replaceExp(table, e.Exp2, gen)
		if err != nil {
			return nil, false, err
		}
		if !r1 && !r2 {
			return e, false, nil
		}
		return ast.NewExpApp(e.ID(), e.Loc(), e1, e2), true, nil
	case *ast.ExpInfixApp:
		e1, r1, err := replaceExp(table, e.Exp1, gen)
		if err != nil {
			return nil, false, err
		}
		e2, r2, err := replaceExp(table, e.Exp2, gen)
		if err != nil {
			return nil, false, err
		}
		if !r1 && !r2 {
			return e, false, nil
		}
		return ast.NewExpInfixApp(e.ID(), e.Loc(), e1, e.Op, e2), true, nil
	case *ast.ExpLambda:
		body, r, err := replaceExp(table, e.Exp, gen)
		if err != nil || !r {
			return e, r, err
		}
		return ast.NewExpLambda(e.ID(), e.Loc(), e.Pats, body), true, nil
	case *ast.ExpLet:
		binds, rb, err := replaceDeclList(table, e.Binds, gen)
		if err != nil {
			return nil, false, err
		}
		body, rbody, err := replaceExp(table, e.Exp, gen)
		if err != nil {
			return nil, false, err
		}
		if !rb && !rbody {
			return e, false, nil
		}
		return ast.NewExpLet(e.ID(), e.Loc(), binds, body), true, nil
	case *ast.ExpIf:
		cond, r1, err := replaceExp(table, e.Cond, gen)
		if err != nil {
			return nil, false, err
		}
		t, r2, err := replaceExp(table, e.IfTrue, gen)
		if err != nil {
			return nil, false, err
		}
		f, r3, err := replaceExp(table, e.IfFalse, gen)
		if err != nil {
			return nil, false, err
		}
		if !r1 && !r2 && !r3 {
			return e, false, nil
		}
		return ast.NewExpIf(e.ID(), e.Loc(), cond, t, f), true, nil
	case *ast.ExpDo:
		changed := false
		stmts := make([]ast.Stmt, len(e.Stmts))
		for i, s := range e.Stmts {
			ns, r, err := replaceStmt(table, s, gen)
			if err != nil {
				return nil, false, err
			}
			stmts[i] = ns
			changed = changed || r
		}
		if !changed {
			return e, false, nil
		}
		return ast.NewExpDo(e.ID(), e.Loc(), stmts), true, nil
	case *ast.ExpCase:
		scrutinee, rs, err := replaceExp(table, e.Exp, gen)
		if err != nil {
			return nil, false, err
		}
		changed := rs
		alts := make([]*ast.Alt, len(e.Alts))
		for i, a := range e.Alts {
			body, rb, err := replaceExp(table, a.Exp, gen)
			if err != nil {
				return nil, false, err
			}
			binds, rbind, err := replaceDeclList(table, a.Binds, gen)
			if err != nil {
				return nil, false, err
			}
			changed = changed || rb || rbind
			alts[i] = ast.NewAlt(a.ID(), a.Loc(), a.Pat, body, binds)
		}
		if !changed {
			return e, false, nil
		}
		return ast.NewExpCase(e.ID(), e.Loc(), scrutinee, alts), true, nil
	case *ast.ExpTuple:
		changed := false
		exps := make([]ast.Exp, len(e.Exps))
		for i, sub := range e.Exps {
			ns, r, err := replaceExp(table, sub, gen)
			if err != nil {
				return nil, false, err
			}
			exps[i] = ns
			changed = changed || r
		}
		if !changed {
			return e, false, nil
		}
		return ast.NewExpTuple(e.ID(), e.Loc(), exps), true, nil
	case *ast.ExpList:
		changed := false
		exps := make([]ast.Exp, len(e.Exps))
		for i, sub := range e.Exps {
			ns, r, err := replaceExp(table, sub, gen)
			if err != nil {
				return nil, false, err
			}
			exps[i] = ns
			changed = changed || r
		}
		if !changed {
			return e, false, nil
		}
		return ast.NewExpList(e.ID(), e.Loc(), exps), true, nil
	case *ast.ExpLeftSection:
		left, r1, err := replaceExp(table, e.Left, gen)
		if err != nil {
			return nil, false, err
		}
		op, r2, err := replaceExp(table, e.Op, gen)
		if err != nil {
			return nil, false, err
		}
		if !r1 && !r2 {
			return e, false, nil
		}
		return ast.NewExpLeftSection(e.ID(), e.Loc(), left, op), true, nil
	case *ast.ExpRightSection:
		op, r1, err := replaceExp(table, e.Op, gen)
		if err != nil {
			return nil, false, err
		}
		right, r2, err := replaceExp(table, e.Right, gen)
		if err != nil {
			return nil, false, err
		}
		if !r1 && !r2 {
			return e, false, nil
		}
		return ast.NewExpRightSection(e.ID(), e.Loc(), op, right), true, nil
	case *ast.ExpEnumFrom:
		inner, r, err := replaceExp(table, e.Exp, gen)
		if err != nil || !r {
			return e, r, err
		}
		return ast.NewExpEnumFrom(e.ID(), e.Loc(), inner), true, nil
	case *ast.ExpEnumTo:
		inner, r, err := replaceExp(table, e.Exp, gen)
		if err != nil || !r {
			return e, r, err
		}
		return ast.NewExpEnumTo(e.ID(), e.Loc(), inner), true, nil
	case *ast.ExpEnumFromTo:
		e1, r1, err := replaceExp(table, e.Exp1, gen)
		if err != nil {
			return nil, false, err
		}
		e2, r2, err := replaceExp(table, e.Exp2, gen)
		if err != nil {
			return nil, false, err
		}
		if !r1 && !r2 {
			return e, false, nil
		}
		return ast.NewExpEnumFromTo(e.ID(), e.Loc(), e1, e2), true, nil
	case *ast.ExpComprehension:
		body, rb, err := replaceExp(table, e.Exp, gen)
		if err != nil {
			return nil, false, err
		}
		changed := rb
		quants := make([]*ast.Generator, len(e.Quantifiers))
		for i, q := range e.Quantifiers {
			qe, rq, err := replaceExp(table, q.Exp, gen)
			if err != nil {
				return nil, false, err
			}
			changed = changed || rq
			quants[i] = ast.NewGenerator(q.ID(), q.Loc(), q.Pat, qe)
		}
		guards := make([]ast.Exp, len(e.Guards))
		for i, g := range e.Guards {
			ng, rg, err := replaceExp(table, g, gen)
			if err != nil {
				return nil, false, err
			}
			changed = changed || rg
			guards[i] = ng
		}
		if !changed {
			return e, false, nil
		}
		return ast.NewExpComprehension(e.ID(), e.Loc(), body, quants, guards), true, nil
	default:
		return exp, false, nil
	}
}

func replaceStmt(table Table, stmt ast.Stmt, gen *ast.IDGen) (ast.Stmt, bool, error) {
	switch s := stmt.(type) {
	case *ast.Generator:
		exp, r, err := replaceExp(table, s.Exp, gen)
		if err != nil || !r {
			return s, r, err
		}
		return ast.NewGenerator(s.ID(), s.Loc(), s.Pat, exp), true, nil
	case *ast.Qualifier:
		exp, r, err := replaceExp(table, s.Exp, gen)
		if err != nil || !r {
			return s, r, err
		}
		return ast.NewQualifier(s.ID(), s.Loc(), exp), true, nil
	case *ast.LetStmt:
		binds, r, err := replaceDeclList(table, s.Binds, gen)
		if err != nil || !r {
			return s, r, err
		}
		return ast.NewLetStmt(s.ID(), s.Loc(), binds), true, nil
	default:
		return stmt, false, nil
	}
}
