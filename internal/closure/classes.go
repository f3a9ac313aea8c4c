package closure

import (
	"fmt"
	"strings"

	"bitbucket.org/creachadair/stringset"

	"github.com/maybetonyfu/goanna/internal/ast"
)

// Classes maps a class's canonical name to the canonical names of every
// superclass reachable transitively through its context, matching
// original_source/parser/typeclass.py's gather_classes.
//
// typeclass.py builds this via a networkx.DiGraph and nx.descendants; none
// of the example repos pulls in a graph library, so this package walks the
// class/superclass edges with a small hand-rolled DFS instead (see
// transitiveSuperclasses below). The result is an explicitly ordered,
// first-seen-deduplicated list rather than Python's unordered set, the
// same determinism fix applied to internal/scope's Declarations.
type Classes map[string][]string

// CyclicClassError reports that the class hierarchy contains a cycle
// (e.g. "class A a => B a" and "class B a => A a"), violating the DAG
// invariant spec.md §3 states for the class hierarchy. typeclass.py has
// no explicit check for this - nx.descendants would simply report every
// class on the cycle as its own superclass - but silently accepting a
// cyclic hierarchy would leave every class on the cycle listed among its
// own superclasses in Classes and GatherTypeVars, so this is surfaced as
// an error up front instead, the same way internal/synonym.CyclicError covers the
// analogous case for type synonyms.
type CyclicClassError struct {
	Cycle []string // class names in cycle order, first repeated at the end
}

func (e *CyclicClassError) Error() string {
	return fmt.Sprintf("cyclic class hierarchy: %s", strings.Join(e.Cycle, " => "))
}

type classGraph struct {
	nodes    []string
	nodeSeen stringset.Set
	edges    map[string][]string
	edgeSeen map[string]stringset.Set
}

type classVisitor struct{}

func (classVisitor) Enter(acc classGraph, node ast.Node, parent ast.Node) classGraph {
	cd, ok := node.(*ast.ClassDecl)
	if !ok {
		return acc
	}

	addNode := func(name string) {
		if !acc.nodeSeen.Contains(name) {
			acc.nodeSeen.Add(name)
			acc.nodes = append(acc.nodes, name)
		}
	}

	className := cd.Head.CanonicalName
	addNode(className)
	if cd.Context == nil {
		return acc
	}

	for _, assertion := range cd.Context.Assertions {
		ty := assertion
		for {
			app, ok := ty.(*ast.TyApp)
			if !ok {
				break
			}
			ty = app.Ty1
		}
		con, ok := ty.(*ast.TyCon)
		if !ok {
			continue
		}
		superClass := con.CanonicalName
		addNode(superClass)

		if acc.edgeSeen[className].Contains(superClass) {
			continue
		}
		if acc.edgeSeen[className] == nil {
			acc.edgeSeen[className] = stringset.New()
		}
		acc.edgeSeen[className].Add(superClass)
		acc.edges[className] = append(acc.edges[className], superClass)
	}
	return acc
}

func (classVisitor) Leave(acc classGraph, node ast.Node, parent ast.Node) classGraph {
	return acc
}

// transitiveSuperclasses returns every class reachable from start by
// following class->superclass edges, depth-first, excluding start itself.
func transitiveSuperclasses(start string, edges map[string][]string) []string {
	visited := map[string]bool{start: true}
	var order []string
	var dfs func(string)
	dfs = func(n string) {
		for _, sup := range edges[n] {
			if visited[sup] {
				continue
			}
			visited[sup] = true
			order = append(order, sup)
			dfs(sup)
		}
	}
	dfs(start)
	return order
}

// detectCycle runs a standard white/gray/black DFS over the class edge
// graph and returns the first cycle found, walking nodes in order for
// a deterministic result across runs.
func detectCycle(nodes []string, edges map[string][]string) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(nodes))
	var path []string
	var cycle []string

	var dfs func(string) bool
	dfs = func(n string) bool {
		color[n] = gray
		path = append(path, n)
		for _, sup := range edges[n] {
			switch color[sup] {
			case gray:
				// Found the back edge; trim path down to the repeated node.
				start := 0
				for i, p := range path {
					if p == sup {
						start = i
						break
					}
				}
				cycle = append(append([]string(nil), path[start:]...), sup)
				return true
			case white:
				if dfs(sup) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		color[n] = black
		return false
	}

	for _, n := range nodes {
		if color[n] == white {
			if dfs(n) {
				return cycle
			}
		}
	}
	return nil
}

// GatherClasses computes Classes for every class declared across modules,
// matching typeclass.py's gather_classes, and fails with a
// *CyclicClassError if the class hierarchy is not a DAG.
func GatherClasses(modules []*ast.Module) (Classes, error) {
	acc := classGraph{
		nodeSeen: stringset.New(),
		edges:    make(map[string][]string),
		edgeSeen: make(map[string]stringset.Set),
	}
	acc = ast.WalkAll(modules, classVisitor{}, acc)

	if cycle := detectCycle(acc.nodes, acc.edges); cycle != nil {
		return nil, &CyclicClassError{Cycle: cycle}
	}

	result := make(Classes, len(acc.nodes))
	for _, node := range acc.nodes {
		result[node] = transitiveSuperclasses(node, acc.edges)
	}
	return result, nil
}
