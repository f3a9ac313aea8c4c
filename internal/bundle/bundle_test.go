package bundle

import (
	"testing"

	"github.com/maybetonyfu/goanna/internal/ast"
	"github.com/maybetonyfu/goanna/internal/cst"
)

// fakeNode is a hand-rolled cst.Node double, the same shape
// internal/builder's own test double takes, duplicated here since a test
// double is not something either package exports to the other.
type fakeNode struct {
	kind      string
	text      string
	rng       ast.Range
	children  []*fakeNode
	fields    map[string][]*fakeNode
	isError   bool
	isMissing bool
}

func leaf(kind, text string) *fakeNode {
	return &fakeNode{kind: kind, text: text, fields: map[string][]*fakeNode{}}
}

func branch(kind string) *fakeNode {
	return &fakeNode{kind: kind, fields: map[string][]*fakeNode{}}
}

func (n *fakeNode) add(field string, c *fakeNode) *fakeNode {
	n.children = append(n.children, c)
	if field != "" {
		n.fields[field] = append(n.fields[field], c)
	}
	return n
}

func (n *fakeNode) Kind() string     { return n.kind }
func (n *fakeNode) Range() ast.Range { return n.rng }
func (n *fakeNode) Text() string     { return n.text }

func (n *fakeNode) Child(field string) cst.Node {
	cs := n.fields[field]
	if len(cs) == 0 {
		return nil
	}
	return cs[0]
}

func (n *fakeNode) FieldChildren(field string) []cst.Node {
	cs := n.fields[field]
	if cs == nil {
		return nil
	}
	out := make([]cst.Node, len(cs))
	for i, c := range cs {
		out[i] = c
	}
	return out
}

func (n *fakeNode) Children() []cst.Node {
	if n.children == nil {
		return nil
	}
	out := make([]cst.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *fakeNode) IsError() bool   { return n.isError }
func (n *fakeNode) IsMissing() bool { return n.isMissing }

func wrapModule(decls ...*fakeNode) *fakeNode {
	declsNode := branch("declarations")
	for _, d := range decls {
		declsNode.add("", d)
	}
	root := branch("module")
	root.add("declarations", declsNode)
	return root
}

func intLitDecl(name string) *fakeNode {
	literal := branch("literal")
	literal.add("", leaf("integer", "1"))
	match := branch("match")
	match.add("expression", literal)
	decl := branch("bind")
	decl.add("", leaf("variable", name))
	decl.add("match", match)
	return decl
}

func varRefDecl(name, ref string) *fakeNode {
	match := branch("match")
	match.add("expression", leaf("variable", ref))
	decl := branch("bind")
	decl.add("", leaf("variable", name))
	decl.add("match", match)
	return decl
}

// fakeParser hands back a pre-built tree per module name, standing in for a
// real tree-sitter parse the way internal/builder's fake cst.Node stands in
// for a real parse tree one level down.
type fakeParser struct {
	trees map[string]*fakeNode
}

func (p *fakeParser) Parse(moduleName, source string) (cst.Node, error) {
	tree, ok := p.trees[moduleName]
	if !ok {
		return nil, &builderlessError{moduleName}
	}
	return tree, nil
}

type builderlessError struct{ moduleName string }

func (e *builderlessError) Error() string { return "no fixture tree for module " + e.moduleName }

func TestPipelineRunLowersSimplePatternBinding(t *testing.T) {
	parser := &fakeParser{trees: map[string]*fakeNode{
		"Main": wrapModule(intLitDecl("x")),
	}}
	pipeline := NewPipeline(parser)

	out, err := pipeline.Run([]Source{{ModuleName: "Main", Content: "x = 1"}}, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out.Rules) == 0 {
		t.Fatal("expected at least one rule for \"x = 1\"")
	}
	found := false
	for _, r := range out.Rules {
		if containsSubstring(r.Body, "builtin_Int") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a rule unifying x's type with builtin_Int, got rules: %+v", out.Rules)
	}
}

func containsSubstring(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// funAddDecl builds "f x = x + x": a function binding whose body is an
// infix application of the parameter to itself.
func funAddDecl(name, arg string) *fakeNode {
	patterns := branch("patterns")
	patterns.add("", leaf("variable", arg))

	infix := branch("infix")
	infix.add("left_operand", leaf("variable", arg))
	infix.add("operator", leaf("operator", "+"))
	infix.add("right_operand", leaf("variable", arg))

	match := branch("match")
	match.add("expression", infix)

	decl := branch("function")
	decl.add("", leaf("variable", name))
	decl.add("patterns", patterns)
	decl.add("match", match)
	return decl
}

// plusDecl builds "(+) a b = a", a same-module binding for the infix
// operator funAddDecl references, so this test exercises operator
// resolution without needing a separate Prelude fixture.
func plusDecl() *fakeNode {
	patterns := branch("patterns")
	patterns.add("", leaf("variable", "a"))
	patterns.add("", leaf("variable", "b"))
	match := branch("match")
	match.add("expression", leaf("variable", "a"))
	decl := branch("function")
	decl.add("", leaf("variable", "+"))
	decl.add("patterns", patterns)
	decl.add("match", match)
	return decl
}

func TestPipelineRunLowersFunctionBindingWithInfixBody(t *testing.T) {
	parser := &fakeParser{trees: map[string]*fakeNode{
		"Main": wrapModule(plusDecl(), funAddDecl("f", "x")),
	}}
	pipeline := NewPipeline(parser)

	out, err := pipeline.Run([]Source{{ModuleName: "Main", Content: "(+) a b = a\nf x = x + x"}}, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !containsString(out.Declarations, "m0_f") {
		t.Errorf("Declarations = %v, want it to contain %q", out.Declarations, "m0_f")
	}
	if !containsString(out.Declarations, "m0_XOp") {
		t.Errorf("Declarations = %v, want it to contain the encoded \"+\" name %q", out.Declarations, "m0_XOp")
	}
	if args := out.Arguments["m0_f"]; len(args) != 1 {
		t.Errorf("Arguments[m0_f] = %v, want exactly 1 parameter", args)
	}
}

func containsString(haystack []string, want string) bool {
	for _, s := range haystack {
		if s == want {
			return true
		}
	}
	return false
}

// letInDecl builds "x = let y = 1 in y".
func letInDecl(outer, inner string) *fakeNode {
	innerLiteral := branch("literal")
	innerLiteral.add("", leaf("integer", "1"))
	innerMatch := branch("match")
	innerMatch.add("expression", innerLiteral)
	innerDecl := branch("bind")
	innerDecl.add("", leaf("variable", inner))
	innerDecl.add("match", innerMatch)

	binds := branch("binds")
	binds.add("decl", innerDecl)

	letExp := branch("let_in")
	letExp.add("binds", binds)
	letExp.add("expression", leaf("variable", inner))

	match := branch("match")
	match.add("expression", letExp)

	decl := branch("bind")
	decl.add("", leaf("variable", outer))
	decl.add("match", match)
	return decl
}

func TestPipelineRunLowersLetInExpression(t *testing.T) {
	parser := &fakeParser{trees: map[string]*fakeNode{
		"Main": wrapModule(letInDecl("x", "y")),
	}}
	pipeline := NewPipeline(parser)

	out, err := pipeline.Run([]Source{{ModuleName: "Main", Content: "x = let y = 1 in y"}}, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !containsString(out.Declarations, "m0_x") {
		t.Errorf("Declarations = %v, want it to contain %q", out.Declarations, "m0_x")
	}
}

func TestPipelineRunReportsImportErrorForUnresolvedReference(t *testing.T) {
	parser := &fakeParser{trees: map[string]*fakeNode{
		"Main": wrapModule(varRefDecl("x", "y")),
	}}
	pipeline := NewPipeline(parser)

	out, err := pipeline.Run([]Source{{ModuleName: "Main", Content: "x = y"}}, 0)
	if err == nil {
		t.Fatal("expected an import-resolution error for an unbound \"y\"")
	}
	if len(out.ImportErrors) != 1 {
		t.Fatalf("expected exactly one import error, got %+v", out.ImportErrors)
	}
	if out.ImportErrors[0].Name != "y" {
		t.Errorf("ImportErrors[0].Name = %q, want %q", out.ImportErrors[0].Name, "y")
	}
}

// typeSynonymModule builds:
//
//	type Age = Int
//	x :: Age
//	x = 1
func typeSynonymModule() *fakeNode {
	synonymDecl := branch("type_synonym")
	synonymDecl.add("name", leaf("name", "Age"))
	synonymDecl.add("type", leaf("name", "Int"))

	sig := branch("signature")
	sig.add("name", leaf("variable", "x"))
	sig.add("type", leaf("name", "Age"))

	return wrapModule(synonymDecl, sig, intLitDecl("x"))
}

func TestPipelineRunExpandsTypeSynonymInSignature(t *testing.T) {
	parser := &fakeParser{trees: map[string]*fakeNode{
		"Main": typeSynonymModule(),
	}}
	pipeline := NewPipeline(parser)

	out, err := pipeline.Run([]Source{{ModuleName: "Main", Content: "type Age = Int\nx :: Age\nx = 1"}}, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !containsString(out.Declarations, "m0_x") {
		t.Errorf("Declarations = %v, want it to contain %q", out.Declarations, "m0_x")
	}
}

// classInstanceModule builds:
//
//	class Eq a
//	instance Eq Int
func classInstanceModule() *fakeNode {
	patterns := branch("patterns")
	patterns.add("bind", leaf("variable", "a"))
	class := branch("class")
	class.add("name", leaf("name", "Eq"))
	class.add("patterns", patterns)

	instPatterns := branch("patterns")
	instPatterns.add("", leaf("name", "Int"))
	instBody := branch("declarations")
	inst := branch("instance")
	inst.add("name", leaf("variable", "Eq"))
	inst.add("patterns", instPatterns)
	inst.add("declarations", instBody)

	return wrapModule(class, inst)
}

func TestPipelineRunLowersClassAndInstanceDeclarations(t *testing.T) {
	parser := &fakeParser{trees: map[string]*fakeNode{
		"Main": classInstanceModule(),
	}}
	pipeline := NewPipeline(parser)

	out, err := pipeline.Run([]Source{{ModuleName: "Main", Content: "class Eq a\ninstance Eq Int"}}, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := out.Classes["m0_Eq"]; !ok {
		t.Errorf("Classes = %v, want an entry for %q", out.Classes, "m0_Eq")
	}
}

func TestPipelineRunStopsAtFirstParseFailure(t *testing.T) {
	parser := &fakeParser{trees: map[string]*fakeNode{}}
	pipeline := NewPipeline(parser)

	out, err := pipeline.Run([]Source{{ModuleName: "Missing", Content: "x = 1"}}, 0)
	if err == nil {
		t.Fatal("expected a parsing error for a module with no fixture tree")
	}
	if _, ok := err.(*ParsingError); !ok {
		t.Fatalf("expected *ParsingError, got %T: %v", err, err)
	}
	if out == nil {
		t.Fatal("expected a non-nil partial Output even on parse failure")
	}
}
