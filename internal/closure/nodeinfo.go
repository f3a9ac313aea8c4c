// Package closure gathers the auxiliary per-node and per-declaration
// tables the constraint generator needs once name resolution has
// converged: node depth and parent/child edges (for error localization
// and traversal order), declaration closures and argument sets (for
// deciding which outer bindings a nested declaration can see), and the
// class hierarchy and per-declaration type-variable class sets (for
// attaching superclass constraints during constraint generation).
package closure

import "github.com/maybetonyfu/goanna/internal/ast"

// NodeDepth maps a node id to its depth from its module's root (the
// module itself is depth 0), matching original_source/parser/node_depth.py.
type NodeDepth map[int]int

type nodeDepthVisitor struct{}

func (nodeDepthVisitor) Enter(acc NodeDepth, node ast.Node, parent ast.Node) NodeDepth {
	if parent == nil {
		acc[node.ID()] = 0
	} else {
		acc[node.ID()] = acc[parent.ID()] + 1
	}
	return acc
}

func (nodeDepthVisitor) Leave(acc NodeDepth, node ast.Node, parent ast.Node) NodeDepth {
	return acc
}

// GatherNodeDepth computes NodeDepth for every node across modules,
// matching original_source/parser/node_depth.py's gather_label.
func GatherNodeDepth(modules []*ast.Module) NodeDepth {
	return ast.WalkAll(modules, nodeDepthVisitor{}, NodeDepth{})
}

// Edge is a (parent id, child id) pair.
type Edge struct {
	Parent int
	Child  int
}

type nodeGraphVisitor struct{}

func (nodeGraphVisitor) Enter(acc []Edge, node ast.Node, parent ast.Node) []Edge {
	if parent != nil {
		acc = append(acc, Edge{Parent: parent.ID(), Child: node.ID()})
	}
	return acc
}

func (nodeGraphVisitor) Leave(acc []Edge, node ast.Node, parent ast.Node) []Edge {
	return acc
}

// GatherNodeGraph collects every parent/child node-id edge in traversal
// order, matching original_source/parser/node_graph.py's gather_node_graph.
func GatherNodeGraph(modules []*ast.Module) []Edge {
	return ast.WalkAll(modules, nodeGraphVisitor{}, []Edge(nil))
}

// NodeTable maps a node id to its source range, matching
// original_source/parser/node_table.py.
type NodeTable map[int]ast.Range

type nodeTableVisitor struct{}

func (nodeTableVisitor) Enter(acc NodeTable, node ast.Node, parent ast.Node) NodeTable {
	acc[node.ID()] = node.Loc()
	return acc
}

func (nodeTableVisitor) Leave(acc NodeTable, node ast.Node, parent ast.Node) NodeTable {
	return acc
}

// GatherNodeTable computes NodeTable for every node across modules,
// matching original_source/parser/node_table.py's gather_node_table.
func GatherNodeTable(modules []*ast.Module) NodeTable {
	return ast.WalkAll(modules, nodeTableVisitor{}, NodeTable{})
}
