package ast

// Node is the marker interface implemented by every AST node. Every node
// carries a bundle-unique id and a source range; id assignment and range
// computation are the AST builder's responsibility (see package builder).
type Node interface {
	// ID returns this node's bundle-unique integer id.
	ID() int
	// Loc returns this node's source range.
	Loc() Range
}

// base is embedded by every concrete node type to satisfy Node.
type base struct {
	id  int
	loc Range
}

// ID implements Node.
func (b base) ID() int { return b.id }

// Loc implements Node.
func (b base) Loc() Range { return b.loc }

// NewBase constructs the embeddable id/range pair for a new node. Callers
// obtain ids from a single IDGen shared across the whole bundle so that ids
// stay unique across modules (see the builder's id counter).
func NewBase(id int, loc Range) base {
	return base{id: id, loc: loc}
}

// IDGen is a monotonic, bundle-wide AST node id counter. A single IDGen
// instance must be shared by every stage that mints fresh nodes (the AST
// builder and the synonym expander) so that node ids stay unique across
// the whole bundle, matching the single shared counter in the Python
// original's ParseEnv.
type IDGen struct {
	next int
}

// NewIDGen returns a counter that starts handing out ids at 1.
func NewIDGen() *IDGen {
	return &IDGen{next: 1}
}

// Next returns a fresh id and advances the counter.
func (g *IDGen) Next() int {
	id := g.next
	g.next++
	return id
}

// NewIDGenFrom returns a counter that starts handing out ids at seed,
// letting a caller drive the whole front-end as a pure function of its
// inputs plus a fixed starting id - useful for deterministic round-trip
// tests that compare two runs over the same sources.
func NewIDGenFrom(seed int) *IDGen {
	return &IDGen{next: seed}
}
