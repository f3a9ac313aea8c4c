package closure

import (
	"bitbucket.org/creachadair/stringset"

	"github.com/maybetonyfu/goanna/internal/ast"
)

// Closures maps a declaration's canonical name to the canonical names of
// the declarations lexically enclosing it, outermost first, matching
// original_source/parser/closure.py's ClosureGatherer.
type Closures map[string][]string

type closureState struct {
	stack  []string
	result Closures
}

type closureVisitor struct{}

func declName(node ast.Node) (string, bool) {
	pb, ok := node.(*ast.PatBind)
	if !ok {
		return "", false
	}
	pv, ok := pb.Pat.(*ast.PVar)
	if !ok {
		return "", false
	}
	return pv.CanonicalName, true
}

func (closureVisitor) Enter(acc closureState, node ast.Node, parent ast.Node) closureState {
	name, ok := declName(node)
	if !ok {
		return acc
	}
	acc.result[name] = append([]string(nil), acc.stack...)
	acc.stack = append(acc.stack, name)
	return acc
}

func (closureVisitor) Leave(acc closureState, node ast.Node, parent ast.Node) closureState {
	if _, ok := declName(node); !ok {
		return acc
	}
	acc.stack = acc.stack[:len(acc.stack)-1]
	return acc
}

// GatherClosures computes, for every PVar-bound declaration, the list of
// declarations lexically enclosing it, matching closure.py's gather_closures.
func GatherClosures(modules []*ast.Module) Closures {
	state := closureState{result: make(Closures)}
	state = ast.WalkAll(modules, closureVisitor{}, state)
	return state.result
}

// Arguments maps a declaration's canonical name to the canonical names of
// every pattern variable bound directly in one of its Alt/lambda clauses,
// plus (transitively) every enclosing declaration's own argument names,
// matching original_source/parser/arguments.py's gather_arguments.
//
// Unlike arguments.py, which stores each declaration's own argument set as
// a Python set() (so entry order is non-deterministic across runs),
// argumentsVisitor below tracks first-seen order and dedups within a
// declaration. The cross-declaration concatenation in GatherArguments still
// mirrors arguments.py exactly: an ancestor's own duplicate names are not
// deduped against a descendant's, only within the ancestor's own set.
type Arguments map[string][]string

type argumentsState struct {
	currentDecl string
	arguments   map[string][]string
	seen        map[string]stringset.Set
}

type argumentsVisitor struct{}

func (argumentsVisitor) Enter(acc argumentsState, node ast.Node, parent ast.Node) argumentsState {
	add := func(names []string) {
		if acc.currentDecl == "" {
			return
		}
		seen := acc.seen[acc.currentDecl]
		if seen == nil {
			seen = stringset.New()
			acc.seen[acc.currentDecl] = seen
		}
		for _, name := range names {
			if seen.Contains(name) {
				continue
			}
			seen.Add(name)
			acc.arguments[acc.currentDecl] = append(acc.arguments[acc.currentDecl], name)
		}
	}

	switch n := node.(type) {
	case *ast.PatBind:
		if pv, ok := n.Pat.(*ast.PVar); ok {
			acc.currentDecl = pv.CanonicalName
		}
	case *ast.Alt:
		add(ast.CanonicalNamesFromPat(n.Pat))
	case *ast.ExpLambda:
		for _, pat := range n.Pats {
			add(ast.CanonicalNamesFromPat(pat))
		}
	}
	return acc
}

func (argumentsVisitor) Leave(acc argumentsState, node ast.Node, parent ast.Node) argumentsState {
	return acc
}

// GatherArguments combines each declaration's own argument names with
// every ancestor closure's (per Closures) argument names, ancestor-first,
// matching arguments.py's gather_arguments post-processing step exactly
// (including its lack of cross-declaration deduplication).
func GatherArguments(modules []*ast.Module, closures Closures) Arguments {
	state := argumentsState{
		arguments: make(map[string][]string),
		seen:      make(map[string]stringset.Set),
	}
	state = ast.WalkAll(modules, argumentsVisitor{}, state)

	result := make(Arguments, len(closures))
	for child, parents := range closures {
		var combined []string
		for _, p := range parents {
			combined = append(combined, state.arguments[p]...)
		}
		combined = append(combined, state.arguments[child]...)
		result[child] = combined
	}
	return result
}
