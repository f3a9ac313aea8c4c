package ast

// Visitor is the "tagged-union plus explicit visitor trait" pattern
// (spec.md §9 Design Notes): each pass owns an accumulator type T and
// supplies its own Enter/Leave; Walk never mutates shared state itself,
// it only threads the accumulator returned by the visitor.
type Visitor[T any] interface {
	// Enter is called when descending into node, before its children.
	// parent is nil at the root of a traversal.
	Enter(acc T, node Node, parent Node) T
	// Leave is called after all of node's children have been visited.
	Leave(acc T, node Node, parent Node) T
}

// Walk recursively visits node and its children in AST declaration order,
// threading acc through Enter/Leave calls. It is the traversal engine
// reused by internal/scope's vendor and buyer gatherers and renamer and by
// internal/closure's gatherers.
func Walk[T any](node Node, parent Node, v Visitor[T], acc T) T {
	if node == nil {
		return acc
	}
	acc = v.Enter(acc, node, parent)
	switch n := node.(type) {
	case *Module:
		for _, d := range n.Decls {
			acc = Walk(d, n, v, acc)
		}
	case *TypeDecl:
		acc = Walk(n.Head, n, v, acc)
		acc = Walk(n.Ty, n, v, acc)
	case *DataDecl:
		acc = Walk(n.Head, n, v, acc)
		for _, c := range n.Constructors {
			acc = Walk(c, n, v, acc)
		}
		for _, d := range n.Deriving {
			acc = Walk(d, n, v, acc)
		}
	case *DataCon:
		for _, t := range n.Tys {
			acc = Walk(t, n, v, acc)
		}
	case *DeclHead:
		for _, tv := range n.TyVars {
			acc = Walk(tv, n, v, acc)
		}
	case *ClassDecl:
		if n.Context != nil {
			acc = Walk(n.Context, n, v, acc)
		}
		acc = Walk(n.Head, n, v, acc)
		for _, d := range n.Decls {
			acc = Walk(d, n, v, acc)
		}
	case *InstDecl:
		if n.Context != nil {
			acc = Walk(n.Context, n, v, acc)
		}
		for _, t := range n.Tys {
			acc = Walk(t, n, v, acc)
		}
		for _, d := range n.Body {
			acc = Walk(d, n, v, acc)
		}
	case *PatBind:
		acc = Walk(n.Pat, n, v, acc)
		acc = Walk(n.Rhs, n, v, acc)
	case *TypeSig:
		acc = Walk(n.Ty, n, v, acc)
	case *UnguardedRhs:
		acc = Walk(n.Exp, n, v, acc)
		for _, w := range n.Wheres {
			acc = Walk(w, n, v, acc)
		}
	case *GuardedRhs:
		for _, br := range n.Branches {
			acc = Walk(br, n, v, acc)
		}
		for _, w := range n.Wheres {
			acc = Walk(w, n, v, acc)
		}
	case *GuardBranch:
		for _, g := range n.Guards {
			acc = Walk(g, n, v, acc)
		}
		acc = Walk(n.Exp, n, v, acc)
	case *Alt:
		acc = Walk(n.Pat, n, v, acc)
		acc = Walk(n.Exp, n, v, acc)
		for _, b := range n.Binds {
			acc = Walk(b, n, v, acc)
		}
	case *Generator:
		acc = Walk(n.Pat, n, v, acc)
		acc = Walk(n.Exp, n, v, acc)
	case *Qualifier:
		acc = Walk(n.Exp, n, v, acc)
	case *LetStmt:
		for _, b := range n.Binds {
			acc = Walk(b, n, v, acc)
		}

	// Patterns
	case *PApp:
		for _, p := range n.Pats {
			acc = Walk(p, n, v, acc)
		}
	case *PList:
		for _, p := range n.Pats {
			acc = Walk(p, n, v, acc)
		}
	case *PTuple:
		for _, p := range n.Pats {
			acc = Walk(p, n, v, acc)
		}
	case *PInfix:
		acc = Walk(n.Pat1, n, v, acc)
		acc = Walk(n.Pat2, n, v, acc)
	case *PVar, *PWildcard, *PLit:
		// leaves

	// Types
	case *TyApp:
		acc = Walk(n.Ty1, n, v, acc)
		acc = Walk(n.Ty2, n, v, acc)
	case *TyFun:
		acc = Walk(n.Ty1, n, v, acc)
		acc = Walk(n.Ty2, n, v, acc)
	case *TyTuple:
		for _, t := range n.Tys {
			acc = Walk(t, n, v, acc)
		}
	case *TyList:
		acc = Walk(n.Ty, n, v, acc)
	case *TyForall:
		if n.Context != nil {
			acc = Walk(n.Context, n, v, acc)
		}
		acc = Walk(n.Ty, n, v, acc)
	case *Context:
		for _, a := range n.Assertions {
			acc = Walk(a, n, v, acc)
		}
	case *TyVar, *TyCon, *TyPrefixList, *TyPrefixTuple, *TyPrefixFunction:
		// leaves

	// Expressions
	case *ExpApp:
		acc = Walk(n.Exp1, n, v, acc)
		acc = Walk(n.Exp2, n, v, acc)
	case *ExpInfixApp:
		acc = Walk(n.Op, n, v, acc)
		acc = Walk(n.Exp1, n, v, acc)
		acc = Walk(n.Exp2, n, v, acc)
	case *ExpLambda:
		for _, p := range n.Pats {
			acc = Walk(p, n, v, acc)
		}
		acc = Walk(n.Exp, n, v, acc)
	case *ExpLet:
		for _, b := range n.Binds {
			acc = Walk(b, n, v, acc)
		}
		acc = Walk(n.Exp, n, v, acc)
	case *ExpIf:
		acc = Walk(n.Cond, n, v, acc)
		acc = Walk(n.IfTrue, n, v, acc)
		acc = Walk(n.IfFalse, n, v, acc)
	case *ExpDo:
		for _, s := range n.Stmts {
			acc = Walk(s, n, v, acc)
		}
	case *ExpCase:
		acc = Walk(n.Exp, n, v, acc)
		for _, a := range n.Alts {
			acc = Walk(a, n, v, acc)
		}
	case *ExpTuple:
		for _, e := range n.Exps {
			acc = Walk(e, n, v, acc)
		}
	case *ExpList:
		for _, e := range n.Exps {
			acc = Walk(e, n, v, acc)
		}
	case *ExpLeftSection:
		acc = Walk(n.Left, n, v, acc)
		acc = Walk(n.Op, n, v, acc)
	case *ExpRightSection:
		acc = Walk(n.Op, n, v, acc)
		acc = Walk(n.Right, n, v, acc)
	case *ExpEnumFrom:
		acc = Walk(n.Exp, n, v, acc)
	case *ExpEnumTo:
		acc = Walk(n.Exp, n, v, acc)
	case *ExpEnumFromTo:
		acc = Walk(n.Exp1, n, v, acc)
		acc = Walk(n.Exp2, n, v, acc)
	case *ExpComprehension:
		for _, q := range n.Quantifiers {
			acc = Walk(q, n, v, acc)
		}
		acc = Walk(n.Exp, n, v, acc)
		for _, g := range n.Guards {
			acc = Walk(g, n, v, acc)
		}
	case *ExpVar, *ExpCon, *ExpLit:
		// leaves
	}
	acc = v.Leave(acc, node, parent)
	return acc
}

// WalkAll walks a sequence of modules in order, threading a single
// accumulator across all of them (gatherers need ids unique and ordered
// across the whole bundle, not per-module).
func WalkAll[T any](modules []*Module, v Visitor[T], acc T) T {
	for _, m := range modules {
		acc = Walk(m, nil, v, acc)
	}
	return acc
}

// FuncVisitor adapts a pair of plain functions to the Visitor interface;
// either function may be nil, in which case that hook is a no-op.
type FuncVisitor[T any] struct {
	EnterFunc func(acc T, node Node, parent Node) T
	LeaveFunc func(acc T, node Node, parent Node) T
}

func (f FuncVisitor[T]) Enter(acc T, node Node, parent Node) T {
	if f.EnterFunc == nil {
		return acc
	}
	return f.EnterFunc(acc, node, parent)
}

func (f FuncVisitor[T]) Leave(acc T, node Node, parent Node) T {
	if f.LeaveFunc == nil {
		return acc
	}
	return f.LeaveFunc(acc, node, parent)
}
