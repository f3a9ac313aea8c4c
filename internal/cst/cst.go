// Package cst defines the boundary between this front-end and its surface
// parser, which spec.md §1 places out of scope: "the concrete syntax tree
// parser (an off-the-shelf tree-sitter grammar is assumed to yield a
// concrete syntax tree)". Anything producing a tree-sitter-shaped node
// satisfying the Node interface below can feed internal/builder; this
// package does not itself implement a surface grammar.
package cst

import "github.com/maybetonyfu/goanna/internal/ast"

// Node is the minimal surface a concrete-syntax-tree node must offer for
// the AST builder to lower it. It mirrors tree-sitter's node API: a kind
// tag, source range, source text, and named (possibly repeated) children.
type Node interface {
	// Kind returns the grammar rule name this node was produced from,
	// e.g. "function" or "infix".
	Kind() string
	// Range returns this node's source span.
	Range() ast.Range
	// Text returns the verbatim source text this node spans. Leaf nodes
	// (identifiers, literals) use this to carry their payload.
	Text() string
	// Child returns the single named child for a field that occurs at
	// most once, or nil if absent (e.g. a type application's "constructor").
	Child(field string) Node
	// FieldChildren returns every child tagged with the given repeated
	// field name, in source order (e.g. a tuple's "element" children).
	FieldChildren(field string) []Node
	// Children returns every named child in source order, regardless of
	// field tag (tree-sitter's named_children). The builder uses this
	// where the grammar exposes a span's substructure positionally
	// rather than through a field name, e.g. an "apply" spine or a
	// "literal" node's single payload child.
	Children() []Node
	// IsError reports whether the surface parser could not recognize this
	// span (tree-sitter's ERROR node).
	IsError() bool
	// IsMissing reports whether the surface parser synthesized this node
	// to recover from a missing required token.
	IsMissing() bool
}

// Parser turns module source text into a concrete syntax tree. Production
// deployments plug in a tree-sitter-backed implementation; this package
// only declares the contract internal/builder depends on.
type Parser interface {
	Parse(moduleName, source string) (Node, error)
}
