package ast

// Stmt is implemented by every do-block statement node.
type Stmt interface {
	Node
	isStmt()
}

// Generator is a do-block bind statement "p <- e" (also reused by list
// comprehension quantifiers).
type Generator struct {
	base
	Pat Pat
	Exp Exp
}

func (*Generator) isStmt() {}

// NewGenerator constructs a generator statement.
func NewGenerator(id int, loc Range, pat Pat, exp Exp) *Generator {
	return &Generator{base: NewBase(id, loc), Pat: pat, Exp: exp}
}

// Qualifier is a bare do-block expression statement "e".
type Qualifier struct {
	base
	Exp Exp
}

func (*Qualifier) isStmt() {}

// NewQualifier constructs a qualifier statement.
func NewQualifier(id int, loc Range, exp Exp) *Qualifier {
	return &Qualifier{base: NewBase(id, loc), Exp: exp}
}

// LetStmt is a do-block "let p = e; ..." statement. Its bindings are only
// visible to statements strictly after it in the enclosing do-block
// (spec.md §4.4, §8 "Boundary").
type LetStmt struct {
	base
	Binds []Decl
}

func (*LetStmt) isStmt() {}

// NewLetStmt constructs a do-block let statement.
func NewLetStmt(id int, loc Range, binds []Decl) *LetStmt {
	return &LetStmt{base: NewBase(id, loc), Binds: binds}
}
