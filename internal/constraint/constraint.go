// Package constraint is the structure-directed constraint generator:
// given a fully resolved, renamed set of modules, it walks every
// declaration and emits the logic rules (spec.md §3 "Logic terms", §4.7)
// an external solver consumes to explain type errors. Nothing here infers
// a type or decides anything is ill-typed; it only produces the axioms
// and defeasible rules the solver reasons over.
package constraint

import (
	"fmt"

	"github.com/maybetonyfu/goanna/internal/ast"
)

// MultiParamClassError reports a class declaration with more than one
// type-variable parameter, explicitly out of scope per spec.md §1's
// Non-goals ("multi-parameter classes"). original_source/parser/
// constraint.py raises NotImplementedError for the same case; this is
// its Go counterpart, returned as an error rather than aborting the
// process.
type MultiParamClassError struct {
	ClassName string
}

func (e *MultiParamClassError) Error() string {
	return fmt.Sprintf("constraint: multi-parameter type class %q is not supported", e.ClassName)
}

// GlobalState is the host state constraint generation reads from
// (already-known declaration names, lexical-enclosure relationships) and
// writes to (emitted rules, per-head class-variable bookkeeping), mirroring
// constraint.py's own abstract GlobalState base class. internal/bundle
// supplies the concrete implementation, backed by internal/scope's
// Declarations and internal/closure's Closures.
type GlobalState interface {
	// Declarations returns every declared name known to the bundle, used
	// to tell a resolvable function reference apart from a free variable.
	Declarations() []string
	// AddRule records one emitted rule or axiom.
	AddRule(rule ast.Rule)
	// IsParentOf reports whether parent lexically encloses child (per
	// internal/closure.Closures), the condition under which a reference
	// to child from parent's own rules must widen child's call site
	// through the captured-variable ("zeta") chain.
	IsParentOf(parent, child string) bool
	// AddClassVar records that headName's rules accumulate class
	// constraints through the fresh collector variable classVar.
	AddClassVar(headName, classVar string)
}

type genState struct {
	freshCounter int
	module       string
	global       GlobalState
	declSet      map[string]bool
}

func newGenState(global GlobalState) *genState {
	declSet := make(map[string]bool)
	for _, d := range global.Declarations() {
		declSet[d] = true
	}
	return &genState{global: global, declSet: declSet}
}

func (s *genState) fresh() ast.LVar {
	s.freshCounter++
	return ast.LVar{Name: fmt.Sprintf("_f%d", s.freshCounter)}
}

func (s *genState) headOfTypingRule(name string) ast.RuleHead {
	return ast.RuleHead{Kind: ast.TypeRuleHead, Name: name, Module: s.module, ID: 0}
}

func (s *genState) headOfInstanceRule(name string, instanceID int) ast.RuleHead {
	return ast.RuleHead{Kind: ast.InstanceRuleHead, Name: name, Module: s.module, ID: instanceID}
}

func (s *genState) addRule(body ast.LogicTerm, head ast.RuleHead, nodeID int) {
	id := nodeID
	s.global.AddRule(ast.Rule{Head: head, Body: body, Axiom: false, NodeID: &id})
}

func (s *genState) addRules(bodies []ast.LogicTerm, head ast.RuleHead, nodeID int) {
	for _, b := range bodies {
		s.addRule(b, head, nodeID)
	}
}

func (s *genState) addAxiom(body ast.LogicTerm, head ast.RuleHead) {
	s.global.AddRule(ast.Rule{Head: head, Body: body, Axiom: true, NodeID: nil})
}

// typeOf builds the rule bodies for a reference to a resolvable function
// name, widening through the "zeta" captured-variable chain when name is
// lexically nested inside head's own declaration (so it can see head's
// captured parameters), matching ConstraintGenState.type_of.
func (s *genState) typeOf(name string, v ast.LogicTerm, head ast.RuleHead) []ast.LogicTerm {
	collector := s.fresh()
	s.global.AddClassVar(head.Name, collector.Name)
	if s.global.IsParentOf(head.Name, name) {
		fv := s.fresh()
		rule1 := ast.LStruct{Functor: name, Args: []ast.LogicTerm{v, ast.CallsVar_, ast.Wildcard, fv, ast.Wildcard, collector}}
		rule2 := ast.Once(ast.LStruct{Functor: "append", Args: []ast.LogicTerm{ast.ZetaVar, ast.Wildcard, fv}})
		return []ast.LogicTerm{rule1, rule2}
	}
	rule := ast.LStruct{Functor: name, Args: []ast.LogicTerm{v, ast.CallsVar_, ast.Wildcard, ast.Wildcard, ast.Wildcard, collector}}
	return []ast.LogicTerm{rule}
}

// GenerateConstraints walks every module and emits its rules into global,
// matching get_all_constraints. A single genState (fresh-variable counter
// included) is shared across all modules, exactly as the Python original
// shares one ConstraintGenState across its whole asts loop.
func GenerateConstraints(modules []*ast.Module, global GlobalState) error {
	state := newGenState(global)
	for _, m := range modules {
		if err := generate(m, nil, state); err != nil {
			return err
		}
	}
	return nil
}

func nodesFromPats(pats []ast.Pat) []ast.Node {
	out := make([]ast.Node, len(pats))
	for i, p := range pats {
		out[i] = p
	}
	return out
}

func nodesFromExps(exps []ast.Exp) []ast.Node {
	out := make([]ast.Node, len(exps))
	for i, e := range exps {
		out[i] = e
	}
	return out
}

// genListLike handles both PList and ExpList, which share identical
// constraint-generation shape in constraint.py's combined
// "PList(...) | ExpList(...)" case.
func genListLike(node ast.Node, elems []ast.Node, head *ast.RuleHead, state *genState) error {
	fresh := state.fresh()
	for _, elem := range elems {
		if err := generate(elem, head, state); err != nil {
			return err
		}
	}
	state.addRule(ast.Unify(ast.NodeVar(node), ast.ListOf(fresh)), *head, node.ID())
	vars := make([]ast.LogicTerm, 0, len(elems)+1)
	for _, elem := range elems {
		vars = append(vars, ast.NodeVar(elem))
	}
	vars = append(vars, fresh)
	state.addRule(ast.UnifyAll(vars), *head, node.ID())
	return nil
}

// genEnumUnbounded handles the shared shape of ExpEnumFrom ("[e..]") and
// ExpEnumTo ("[..e]"), constraint.py's combined
// "ExpEnumTo(...) | ExpEnumFrom(...)" case.
func genEnumUnbounded(node ast.Node, exp ast.Exp, head *ast.RuleHead, state *genState) error {
	state.addRule(ast.Unify(ast.NodeVar(node), ast.ListOf(ast.NodeVar(exp))), *head, node.ID())
	state.addRule(ast.HasClass(ast.NodeVar(exp), "p_Enum"), *head, node.ID())
	return generate(exp, head, state)
}

// generate is the structure-directed recursion over every node kind,
// matching constraint.py's generate_constraint. head is nil only while
// descending through a Module's top-level declarations, exactly as in
// the Python original's "head: RuleHead | None".
//
// A handful of call sites in constraint.py pass a raw Python string
// literal (e.g. 'p_Bool', 'builtin_Int') as unify's second argument.
// Python's unify() coerces such a literal to an LAtom only when
// str.islower() holds, and every one of these names embeds an uppercase
// letter (the module tag's capitalized identifier), so the coercion
// always actually produces an LVar there - turning, for example, "this
// guard's type equals the Bool atom" into a no-op unification with a
// fresh, never-reused variable. That is almost certainly an accidental
// consequence of leaning on implicit coercion rather than a deliberate
// choice, so every such literal below is instead built as the ast.LAtom
// its name obviously denotes. The one genuine exception is the literal
// "T": it names the same well-known ast.TVar used unqualified everywhere
// else in this file, so it is mapped to ast.TVar, not an atom.
func generate(node ast.Node, head *ast.RuleHead, state *genState) error {
	switch n := node.(type) {

	case *ast.Module:
		state.module = n.Name
		for _, d := range n.Decls {
			if err := generate(d, nil, state); err != nil {
				return err
			}
		}

	case *ast.ClassDecl:
		if len(n.Head.TyVars) != 1 {
			return &MultiParamClassError{ClassName: n.Head.CanonicalName}
		}
		className := n.Head.CanonicalName
		for _, d := range n.Decls {
			ts, ok := d.(*ast.TypeSig)
			if !ok {
				continue
			}
			for _, name := range ts.CanonicalNames {
				methodHead := state.headOfTypingRule(name)
				classVar := ast.TypeVar(n.Head.TyVars[0].Name, name)
				state.addAxiom(ast.Unify(ast.TVar, ast.NodeVar(ts.Ty)), methodHead)
				state.addAxiom(ast.HasClass(classVar, className), methodHead)
				if err := generate(ts.Ty, &methodHead, state); err != nil {
					return err
				}
			}
		}

	case *ast.InstDecl:
		instHead := state.headOfInstanceRule(n.CanonicalName, n.ID())
		instanceType := n.Tys[0]
		state.addAxiom(ast.Unify(ast.TVar, ast.NodeVar(instanceType)), instHead)
		if err := generate(instanceType, &instHead, state); err != nil {
			return err
		}
		if n.Context != nil {
			for _, assertion := range n.Context.Assertions {
				tyApp := assertion.(*ast.TyApp)
				superClassName := tyApp.Ty1.(*ast.TyCon).CanonicalName
				instanceVar := ast.TypeVar(tyApp.Ty2.(*ast.TyVar).Name, instHead.Name)
				state.addAxiom(ast.LStruct{Functor: superClassName, Args: []ast.LogicTerm{instanceVar}}, instHead)
			}
		}

	case *ast.DataDecl:
		typeName := n.Head.CanonicalName
		typeVars := n.Head.TyVars
		for _, con := range n.Constructors {
			conHead := state.headOfTypingRule(con.CanonicalName)
			dataArgs := make([]ast.LogicTerm, 0, len(typeVars)+1)
			dataArgs = append(dataArgs, ast.LAtom{Value: typeName})
			for _, v := range typeVars {
				dataArgs = append(dataArgs, ast.TypeVar(v.Name, conHead.Name))
			}
			dataType := ast.Pair(dataArgs...)

			funArgs := make([]ast.LogicTerm, 0, len(con.Tys)+1)
			for _, ty := range con.Tys {
				funArgs = append(funArgs, ast.NodeVar(ty))
			}
			funArgs = append(funArgs, dataType)
			state.addAxiom(ast.Unify(ast.TVar, ast.FunOf(funArgs...)), conHead)

			for _, ty := range con.Tys {
				if err := generate(ty, &conHead, state); err != nil {
					return err
				}
			}
		}

		for _, d := range n.Deriving {
			className := d.CanonicalName
			instHead := state.headOfInstanceRule(className, d.ID())
			dataArgs := make([]ast.LogicTerm, 0, len(typeVars)+1)
			dataArgs = append(dataArgs, ast.LAtom{Value: typeName})
			for _, v := range typeVars {
				dataArgs = append(dataArgs, ast.LVar{Name: "_" + v.Name})
			}
			dataType := ast.Pair(dataArgs...)
			state.addAxiom(ast.Unify(ast.TVar, dataType), instHead)
		}

	case *ast.PatBind:
		pv, ok := n.Pat.(*ast.PVar)
		if !ok {
			// constraint.py's match has no case for a non-PVar top-level
			// binding either; it silently generates nothing, the same
			// asymmetry internal/scope's vendor emission carries (see
			// DESIGN.md).
			return nil
		}
		declHead := state.headOfTypingRule(pv.CanonicalName)
		state.addAxiom(ast.Unify(ast.TVar, ast.NodeVar(n.Rhs)), declHead)
		if err := generate(n.Rhs, &declHead, state); err != nil {
			return err
		}

	case *ast.UnguardedRhs:
		state.addRule(ast.Unify(ast.NodeVar(node), ast.NodeVar(n.Exp)), *head, node.ID())
		if err := generate(n.Exp, head, state); err != nil {
			return err
		}
		for _, w := range n.Wheres {
			if err := generate(w, head, state); err != nil {
				return err
			}
		}

	case *ast.GuardedRhs:
		for _, branch := range n.Branches {
			state.addRule(ast.Unify(ast.NodeVar(node), ast.NodeVar(branch)), *head, node.ID())
			if err := generate(branch, head, state); err != nil {
				return err
			}
		}
		for _, w := range n.Wheres {
			if err := generate(w, head, state); err != nil {
				return err
			}
		}

	case *ast.GuardBranch:
		for _, guard := range n.Guards {
			state.addAxiom(ast.Unify(ast.NodeVar(guard), ast.LAtom{Value: "p_Bool"}), *head)
			if err := generate(guard, head, state); err != nil {
				return err
			}
		}
		state.addAxiom(ast.Unify(ast.NodeVar(node), ast.NodeVar(n.Exp)), *head)
		if err := generate(n.Exp, head, state); err != nil {
			return err
		}

	case *ast.PVar:
		state.addAxiom(ast.Unify(ast.NodeVar(node), ast.LVar{Name: "_" + n.CanonicalName}), *head)

	case *ast.PWildcard:
		// binds nothing, constrains nothing.

	case *ast.PLit:
		// constraint.py has no case for a pattern literal either; the
		// matched value's type is never forced to the literal's type.

	case *ast.PList:
		return genListLike(node, nodesFromPats(n.Pats), head, state)

	case *ast.PInfix:
		funVar := state.fresh()
		fun := ast.FunOf(ast.NodeVar(n.Pat1), ast.NodeVar(n.Pat2), ast.NodeVar(node))
		state.addRule(ast.Unify(fun, funVar), *head, node.ID())
		state.addRules(state.typeOf(n.CanonicalName, funVar, *head), *head, node.ID())
		if err := generate(n.Pat1, head, state); err != nil {
			return err
		}
		if err := generate(n.Pat2, head, state); err != nil {
			return err
		}

	case *ast.PApp:
		funArgs := make([]ast.LogicTerm, 0, len(n.Pats)+1)
		for _, p := range n.Pats {
			funArgs = append(funArgs, ast.NodeVar(p))
		}
		funArgs = append(funArgs, ast.NodeVar(node))
		v := state.fresh()
		state.addAxiom(ast.Unify(ast.FunOf(funArgs...), v), *head)
		for _, p := range n.Pats {
			if err := generate(p, head, state); err != nil {
				return err
			}
		}
		state.addRules(state.typeOf(n.CanonicalName, v, *head), *head, node.ID())

	case *ast.PTuple:
		tupArgs := make([]ast.LogicTerm, len(n.Pats))
		for i, p := range n.Pats {
			tupArgs[i] = ast.NodeVar(p)
		}
		state.addAxiom(ast.Unify(ast.NodeVar(node), ast.TupleOf(tupArgs...)), *head)
		for _, p := range n.Pats {
			if err := generate(p, head, state); err != nil {
				return err
			}
		}

	case *ast.TypeSig:
		for _, name := range n.CanonicalNames {
			sigHead := state.headOfTypingRule(name)
			state.addAxiom(ast.Unify(ast.TVar, ast.NodeVar(n.Ty)), sigHead)
			if err := generate(n.Ty, &sigHead, state); err != nil {
				return err
			}
		}

	case *ast.TyVar:
		body := ast.Unify(ast.NodeVar(node), ast.TypeVar(n.Name, head.Name))
		if n.IsAxiom() {
			state.addAxiom(body, *head)
		} else {
			state.addRule(body, *head, node.ID())
		}

	case *ast.TyCon:
		body := ast.Unify(ast.NodeVar(node), ast.LAtom{Value: n.CanonicalName})
		if n.IsAxiom() {
			state.addAxiom(body, *head)
		} else {
			state.addRule(body, *head, node.ID())
		}

	case *ast.TyForall:
		if n.Context != nil {
			for _, assertion := range n.Context.Assertions {
				tyApp := assertion.(*ast.TyApp)
				className := tyApp.Ty1.(*ast.TyCon).CanonicalName
				instanceVar := ast.TypeVar(tyApp.Ty2.(*ast.TyVar).Name, head.Name)
				state.addRule(ast.HasClass(instanceVar, className), *head, tyApp.ID())
			}
		}
		body := ast.Unify(ast.NodeVar(node), ast.NodeVar(n.Ty))
		if n.IsAxiom() {
			state.addAxiom(body, *head)
		} else {
			state.addRule(body, *head, node.ID())
		}
		if err := generate(n.Ty, head, state); err != nil {
			return err
		}

	case *ast.TyApp:
		if err := generate(n.Ty1, head, state); err != nil {
			return err
		}
		if err := generate(n.Ty2, head, state); err != nil {
			return err
		}
		body := ast.Unify(ast.NodeVar(node), ast.Pair(ast.NodeVar(n.Ty1), ast.NodeVar(n.Ty2)))
		if n.IsAxiom() {
			state.addAxiom(body, *head)
		} else {
			state.addRule(body, *head, node.ID())
		}

	case *ast.TyFun:
		if err := generate(n.Ty1, head, state); err != nil {
			return err
		}
		if err := generate(n.Ty2, head, state); err != nil {
			return err
		}
		body := ast.Unify(ast.NodeVar(node), ast.FunOf(ast.NodeVar(n.Ty1), ast.NodeVar(n.Ty2)))
		if n.IsAxiom() {
			state.addAxiom(body, *head)
		} else {
			state.addRule(body, *head, node.ID())
		}

	case *ast.TyList:
		if err := generate(n.Ty, head, state); err != nil {
			return err
		}
		body := ast.Unify(ast.NodeVar(node), ast.ListOf(ast.NodeVar(n.Ty)))
		if n.IsAxiom() {
			state.addAxiom(body, *head)
		} else {
			state.addRule(body, *head, node.ID())
		}

	case *ast.TyTuple:
		tupArgs := make([]ast.LogicTerm, len(n.Tys))
		for i, ty := range n.Tys {
			tupArgs[i] = ast.NodeVar(ty)
		}
		body := ast.Unify(ast.NodeVar(node), ast.TupleOf(tupArgs...))
		if n.IsAxiom() {
			state.addAxiom(body, *head)
		} else {
			state.addRule(body, *head, node.ID())
		}
		for _, ty := range n.Tys {
			if err := generate(ty, head, state); err != nil {
				return err
			}
		}

	case *ast.TyPrefixList:
		state.addRule(ast.Unify(ast.NodeVar(node), ast.LAtom{Value: "list"}), *head, node.ID())

	case *ast.TyPrefixTuple:
		state.addRule(ast.Unify(ast.NodeVar(node), ast.LAtom{Value: "tuple"}), *head, node.ID())

	case *ast.TyPrefixFunction:
		state.addRule(ast.Unify(ast.NodeVar(node), ast.LAtom{Value: "function"}), *head, node.ID())

	case *ast.ExpApp:
		if err := generate(n.Exp1, head, state); err != nil {
			return err
		}
		if err := generate(n.Exp2, head, state); err != nil {
			return err
		}
		fun := ast.FunOf(ast.NodeVar(n.Exp2), ast.NodeVar(node))
		state.addRule(ast.Unify(fun, ast.NodeVar(n.Exp1)), *head, node.ID())

	case *ast.ExpLeftSection:
		arg, result := state.fresh(), state.fresh()
		fun := ast.FunOf(ast.NodeVar(n.Left), arg, result)
		state.addAxiom(ast.Unify(fun, ast.NodeVar(n.Op)), *head)
		state.addRule(ast.Unify(ast.NodeVar(node), ast.FunOf(arg, result)), *head, node.ID())
		if err := generate(n.Left, head, state); err != nil {
			return err
		}
		if err := generate(n.Op, head, state); err != nil {
			return err
		}

	case *ast.ExpRightSection:
		arg, result := state.fresh(), state.fresh()
		fun := ast.FunOf(arg, ast.NodeVar(n.Right), result)
		state.addAxiom(ast.Unify(fun, ast.NodeVar(n.Op)), *head)
		state.addRule(ast.Unify(ast.NodeVar(node), ast.FunOf(arg, result)), *head, node.ID())
		if err := generate(n.Right, head, state); err != nil {
			return err
		}
		if err := generate(n.Op, head, state); err != nil {
			return err
		}

	case *ast.ExpInfixApp:
		fun := ast.FunOf(ast.NodeVar(n.Exp1), ast.NodeVar(n.Exp2), ast.NodeVar(node))
		state.addRule(ast.Unify(ast.NodeVar(n.Op), fun), *head, node.ID())
		if err := generate(n.Op, head, state); err != nil {
			return err
		}
		if err := generate(n.Exp1, head, state); err != nil {
			return err
		}
		if err := generate(n.Exp2, head, state); err != nil {
			return err
		}

	case *ast.ExpLet:
		for _, d := range n.Binds {
			if err := generate(d, head, state); err != nil {
				return err
			}
		}
		if err := generate(n.Exp, head, state); err != nil {
			return err
		}
		state.addRule(ast.Unify(ast.NodeVar(node), ast.NodeVar(n.Exp)), *head, node.ID())

	case *ast.ExpIf:
		state.addAxiom(ast.Unify(ast.NodeVar(n.Cond), ast.LAtom{Value: "p_Bool"}), *head)
		state.addRule(ast.UnifyAll([]ast.LogicTerm{ast.NodeVar(node), ast.NodeVar(n.IfFalse), ast.NodeVar(n.IfTrue)}), *head, node.ID())
		if err := generate(n.Cond, head, state); err != nil {
			return err
		}
		if err := generate(n.IfTrue, head, state); err != nil {
			return err
		}
		if err := generate(n.IfFalse, head, state); err != nil {
			return err
		}

	case *ast.ExpCase:
		var altVars []ast.LogicTerm
		for _, alt := range n.Alts {
			state.addAxiom(ast.Unify(ast.NodeVar(n.Exp), ast.NodeVar(alt.Pat)), *head)
			altVars = append(altVars, ast.NodeVar(alt.Exp))
			if err := generate(alt.Pat, head, state); err != nil {
				return err
			}
			if err := generate(alt.Exp, head, state); err != nil {
				return err
			}
			// constraint.py's ExpCase case never visits an alternative's
			// own "where" bindings; left that way, those declarations
			// would carry vendors, buyers, and a closure entry (every
			// other stage in this pipeline handles them) but no typing
			// rule at all. UnguardedRhs/GuardedRhs both generate
			// constraints for their own Wheres, so alt.Binds gets the
			// same treatment here for consistency.
			for _, w := range alt.Binds {
				if err := generate(w, head, state); err != nil {
					return err
				}
			}
		}
		state.addRule(ast.UnifyAll(append([]ast.LogicTerm{ast.NodeVar(node)}, altVars...)), *head, node.ID())
		if err := generate(n.Exp, head, state); err != nil {
			return err
		}

	case *ast.ExpLambda:
		for _, p := range n.Pats {
			if err := generate(p, head, state); err != nil {
				return err
			}
		}
		funArgs := make([]ast.LogicTerm, 0, len(n.Pats)+1)
		for _, p := range n.Pats {
			funArgs = append(funArgs, ast.NodeVar(p))
		}
		funArgs = append(funArgs, ast.NodeVar(n.Exp))
		state.addRule(ast.Unify(ast.NodeVar(node), ast.FunOf(funArgs...)), *head, node.ID())
		if err := generate(n.Exp, head, state); err != nil {
			return err
		}

	case *ast.ExpTuple:
		tupArgs := make([]ast.LogicTerm, len(n.Exps))
		for i, e := range n.Exps {
			tupArgs[i] = ast.NodeVar(e)
		}
		state.addRule(ast.Unify(ast.NodeVar(node), ast.TupleOf(tupArgs...)), *head, node.ID())
		for _, e := range n.Exps {
			if err := generate(e, head, state); err != nil {
				return err
			}
		}

	case *ast.ExpList:
		return genListLike(node, nodesFromExps(n.Exps), head, state)

	case *ast.ExpVar, *ast.ExpCon:
		var canonicalName string
		switch v := node.(type) {
		case *ast.ExpVar:
			canonicalName = v.CanonicalName
		case *ast.ExpCon:
			canonicalName = v.CanonicalName
		}
		switch {
		case canonicalName == "builtin_unit":
			state.addRule(ast.Unify(ast.NodeVar(node), ast.LAtom{Value: "builtin_Top"}), *head, node.ID())
		case canonicalName == "builtin_bottom":
			// Bottom imposes no constraint.
		case canonicalName == head.Name:
			// Recursive self-reference.
			state.addRule(ast.Unify(ast.NodeVar(node), ast.TVar), *head, node.ID())
		case canonicalName == "builtin_cons" || state.declSet[canonicalName]:
			state.addRules(state.typeOf(canonicalName, ast.NodeVar(node), *head), *head, node.ID())
		default:
			state.addRule(ast.Unify(ast.NodeVar(node), ast.LVar{Name: "_" + canonicalName}), *head, node.ID())
		}

	case *ast.ExpEnumFrom:
		if err := genEnumUnbounded(node, n.Exp, head, state); err != nil {
			return err
		}

	case *ast.ExpEnumTo:
		if err := genEnumUnbounded(node, n.Exp, head, state); err != nil {
			return err
		}

	case *ast.ExpEnumFromTo:
		state.addRule(ast.UnifyAll([]ast.LogicTerm{ast.NodeVar(node), ast.ListOf(ast.NodeVar(n.Exp1)), ast.ListOf(ast.NodeVar(n.Exp2))}), *head, node.ID())
		state.addRule(ast.HasClass(ast.NodeVar(n.Exp1), "p_Enum"), *head, node.ID())
		state.addRule(ast.HasClass(ast.NodeVar(n.Exp2), "p_Enum"), *head, node.ID())
		if err := generate(n.Exp1, head, state); err != nil {
			return err
		}
		if err := generate(n.Exp2, head, state); err != nil {
			return err
		}

	case *ast.ExpComprehension:
		for _, q := range n.Quantifiers {
			state.addRule(ast.Unify(ast.ListOf(ast.NodeVar(q.Pat)), ast.NodeVar(q.Exp)), *head, node.ID())
			if err := generate(q.Pat, head, state); err != nil {
				return err
			}
			if err := generate(q.Exp, head, state); err != nil {
				return err
			}
		}
		state.addRule(ast.Unify(ast.NodeVar(node), ast.ListOf(ast.NodeVar(n.Exp))), *head, node.ID())
		if err := generate(n.Exp, head, state); err != nil {
			return err
		}
		for _, g := range n.Guards {
			state.addRule(ast.Unify(ast.NodeVar(g), ast.LAtom{Value: "p_Bool"}), *head, node.ID())
			if err := generate(g, head, state); err != nil {
				return err
			}
		}

	case *ast.ExpDo:
		m, a := state.fresh(), state.fresh()
		state.addRule(ast.HasClass(m, "p_Monad"), *head, node.ID())
		state.addRule(ast.Unify(ast.NodeVar(node), ast.Pair(m, a)), *head, node.ID())
		for _, stmt := range n.Stmts[:len(n.Stmts)-1] {
			monadVar := ast.Pair(m, ast.Wildcard)
			state.addRule(ast.Unify(ast.NodeVar(stmt), monadVar), *head, node.ID())
			if err := generate(stmt, head, state); err != nil {
				return err
			}
		}
		lastStmt := n.Stmts[len(n.Stmts)-1]
		state.addRule(ast.Unify(ast.NodeVar(lastStmt), ast.Pair(m, a)), *head, node.ID())
		if err := generate(lastStmt, head, state); err != nil {
			return err
		}

	case *ast.Generator:
		monadVar := ast.Pair(ast.Wildcard, ast.NodeVar(n.Pat))
		state.addRule(ast.Unify(ast.NodeVar(node), ast.NodeVar(n.Exp)), *head, node.ID())
		state.addRule(ast.Unify(monadVar, ast.NodeVar(n.Exp)), *head, node.ID())
		if err := generate(n.Exp, head, state); err != nil {
			return err
		}
		if err := generate(n.Pat, head, state); err != nil {
			return err
		}

	case *ast.Qualifier:
		state.addRule(ast.Unify(ast.NodeVar(node), ast.NodeVar(n.Exp)), *head, node.ID())
		if err := generate(n.Exp, head, state); err != nil {
			return err
		}

	case *ast.LetStmt:
		for _, d := range n.Binds {
			if err := generate(d, head, state); err != nil {
				return err
			}
		}

	case *ast.ExpLit:
		switch n.Kind {
		case ast.LitInt:
			state.addRule(ast.Unify(ast.NodeVar(node), ast.LAtom{Value: "builtin_Int"}), *head, node.ID())
		case ast.LitString:
			state.addRule(ast.Unify(ast.NodeVar(node), ast.ListOf(ast.LAtom{Value: "builtin_Char"})), *head, node.ID())
		case ast.LitChar:
			state.addRule(ast.Unify(ast.NodeVar(node), ast.LAtom{Value: "builtin_Char"}), *head, node.ID())
		case ast.LitFrac:
			state.addRule(ast.Unify(ast.NodeVar(node), ast.LAtom{Value: "builtin_Float"}), *head, node.ID())
		}
	}
	return nil
}
