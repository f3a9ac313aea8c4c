package builder

import (
	"testing"

	"github.com/maybetonyfu/goanna/internal/ast"
	"github.com/maybetonyfu/goanna/internal/cst"
)

// fakeNode is a hand-rolled cst.Node double. Fields are tagged on add;
// Children returns every child regardless of tag, mirroring tree-sitter's
// named_children, the way internal/builder itself expects.
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

func (n *fakeNode) Kind() string    { return n.kind }
func (n *fakeNode) Range() ast.Range { return n.rng }
func (n *fakeNode) Text() string    { return n.text }

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

// wrapModule builds a bare "module" root with the given decl nodes placed
// under a "declarations" field, the shape Build expects at its entry point.
func wrapModule(decls ...*fakeNode) *fakeNode {
	declsNode := branch("declarations")
	for _, d := range decls {
		declsNode.add("", d)
	}
	root := branch("module")
	root.add("declarations", declsNode)
	return root
}

// patBindDecl builds a "bind" decl node for "<name> = <literal 1>", the
// simplest pattern binding shape buildDecl/buildRhs expect.
func patBindDecl(name string) *fakeNode {
	litPayload := leaf("integer", "1")
	literal := branch("literal")
	literal.add("", litPayload)

	match := branch("match")
	match.add("expression", literal)

	decl := branch("bind")
	decl.add("", leaf("variable", name))
	decl.add("match", match)
	return decl
}

func TestBuildLowersSimplePatternBinding(t *testing.T) {
	root := wrapModule(patBindDecl("x"))
	gen := ast.NewIDGen()

	mod, err := Build(root, gen, "Main")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(mod.Decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(mod.Decls))
	}
	bind, ok := mod.Decls[0].(*ast.PatBind)
	if !ok {
		t.Fatalf("expected *ast.PatBind, got %T", mod.Decls[0])
	}
	pv, ok := bind.Pat.(*ast.PVar)
	if !ok || pv.Name != "x" {
		t.Fatalf("expected PVar \"x\", got %#v", bind.Pat)
	}
	rhs, ok := bind.Rhs.(*ast.UnguardedRhs)
	if !ok {
		t.Fatalf("expected *ast.UnguardedRhs, got %T", bind.Rhs)
	}
	lit, ok := rhs.Exp.(*ast.ExpLit)
	if !ok || lit.Kind != ast.LitInt {
		t.Fatalf("expected an integer ExpLit, got %#v", rhs.Exp)
	}
}

// funBindDecl builds a "function" decl node for "<name> <arg> = <arg>",
// exercising buildRhs's patterns-present lambda desugaring.
func funBindDecl(name, arg string) *fakeNode {
	patterns := branch("patterns")
	patterns.add("", leaf("variable", arg))

	match := branch("match")
	match.add("expression", leaf("variable", arg))

	decl := branch("function")
	decl.add("", leaf("variable", name))
	decl.add("patterns", patterns)
	decl.add("match", match)
	return decl
}

func TestBuildDesugarsFunctionBindingIntoLambda(t *testing.T) {
	root := wrapModule(funBindDecl("f", "x"))
	gen := ast.NewIDGen()

	mod, err := Build(root, gen, "Main")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	bind := mod.Decls[0].(*ast.PatBind)
	if pv, ok := bind.Pat.(*ast.PVar); !ok || pv.Name != "f" {
		t.Fatalf("expected PVar \"f\" as the bound name, got %#v", bind.Pat)
	}
	rhs := bind.Rhs.(*ast.UnguardedRhs)
	lambda, ok := rhs.Exp.(*ast.ExpLambda)
	if !ok {
		t.Fatalf("expected function binding to desugar to ExpLambda, got %T", rhs.Exp)
	}
	if len(lambda.Pats) != 1 {
		t.Fatalf("expected 1 lambda parameter, got %d", len(lambda.Pats))
	}
	if pv, ok := lambda.Pats[0].(*ast.PVar); !ok || pv.Name != "x" {
		t.Fatalf("expected lambda parameter PVar \"x\", got %#v", lambda.Pats[0])
	}
	body, ok := lambda.Exp.(*ast.ExpVar)
	if !ok || body.Name != "x" {
		t.Fatalf("expected lambda body to reference \"x\", got %#v", lambda.Exp)
	}
}

func TestBuildLowersApplicationAndInfixExpressions(t *testing.T) {
	// apply = f a
	applyMatch := branch("match")
	applyExp := branch("apply")
	applyExp.add("", leaf("variable", "f"))
	applyExp.add("", leaf("variable", "a"))
	applyMatch.add("expression", applyExp)
	applyDecl := branch("bind")
	applyDecl.add("", leaf("variable", "apply"))
	applyDecl.add("match", applyMatch)

	// summed = a + b
	infixExp := branch("infix")
	infixExp.add("left_operand", leaf("variable", "a"))
	infixExp.add("operator", leaf("operator", "+"))
	infixExp.add("right_operand", leaf("variable", "b"))
	infixMatch := branch("match")
	infixMatch.add("expression", infixExp)
	infixDecl := branch("bind")
	infixDecl.add("", leaf("variable", "summed"))
	infixDecl.add("match", infixMatch)

	root := wrapModule(applyDecl, infixDecl)
	gen := ast.NewIDGen()

	mod, err := Build(root, gen, "Main")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(mod.Decls) != 2 {
		t.Fatalf("expected 2 decls, got %d", len(mod.Decls))
	}

	applyBind := mod.Decls[0].(*ast.PatBind)
	applyRhs := applyBind.Rhs.(*ast.UnguardedRhs)
	app, ok := applyRhs.Exp.(*ast.ExpApp)
	if !ok {
		t.Fatalf("expected *ast.ExpApp, got %T", applyRhs.Exp)
	}
	if fn, ok := app.Exp1.(*ast.ExpVar); !ok || fn.Name != "f" {
		t.Fatalf("expected ExpApp function \"f\", got %#v", app.Exp1)
	}
	if arg, ok := app.Exp2.(*ast.ExpVar); !ok || arg.Name != "a" {
		t.Fatalf("expected ExpApp argument \"a\", got %#v", app.Exp2)
	}

	infixBind := mod.Decls[1].(*ast.PatBind)
	infixRhs := infixBind.Rhs.(*ast.UnguardedRhs)
	infixApp, ok := infixRhs.Exp.(*ast.ExpInfixApp)
	if !ok {
		t.Fatalf("expected *ast.ExpInfixApp, got %T", infixRhs.Exp)
	}
	if infixApp.Op.Name != "+" {
		t.Fatalf("expected infix operator \"+\", got %q", infixApp.Op.Name)
	}
	if left, ok := infixApp.Exp1.(*ast.ExpVar); !ok || left.Name != "a" {
		t.Fatalf("expected infix left operand \"a\", got %#v", infixApp.Exp1)
	}
	if right, ok := infixApp.Exp2.(*ast.ExpVar); !ok || right.Name != "b" {
		t.Fatalf("expected infix right operand \"b\", got %#v", infixApp.Exp2)
	}
}

// classDeclNode builds "class Eq a" with one method signature "eq :: a",
// exercising buildDeclHead's type-variable parameter list and a nested
// declaration inside the class body.
func classDeclNode() *fakeNode {
	patterns := branch("patterns")
	patterns.add("bind", leaf("variable", "a"))

	sigType := leaf("variable", "a")
	sig := branch("signature")
	sig.add("name", leaf("variable", "eq"))
	sig.add("type", sigType)

	decls := branch("declarations")
	decls.add("", sig)

	class := branch("class")
	class.add("name", leaf("name", "Eq"))
	class.add("patterns", patterns)
	class.add("declarations", decls)
	return class
}

// instanceDeclNode builds "instance Eq Int where eq = 1" (a trivial body,
// enough to exercise instance lowering without a real equality primitive).
func instanceDeclNode() *fakeNode {
	patterns := branch("patterns")
	patterns.add("", leaf("name", "Int"))

	body := branch("declarations")
	body.add("", patBindDecl("eq"))

	inst := branch("instance")
	inst.add("name", leaf("variable", "Eq"))
	inst.add("patterns", patterns)
	inst.add("declarations", body)
	return inst
}

func TestBuildLowersClassAndInstanceDeclarations(t *testing.T) {
	root := wrapModule(classDeclNode(), instanceDeclNode())
	gen := ast.NewIDGen()

	mod, err := Build(root, gen, "Main")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(mod.Decls) != 2 {
		t.Fatalf("expected 2 decls, got %d", len(mod.Decls))
	}

	class, ok := mod.Decls[0].(*ast.ClassDecl)
	if !ok {
		t.Fatalf("expected *ast.ClassDecl, got %T", mod.Decls[0])
	}
	if class.Head.Name != "Eq" {
		t.Errorf("class head name = %q, want \"Eq\"", class.Head.Name)
	}
	if len(class.Head.TyVars) != 1 || class.Head.TyVars[0].Name != "a" {
		t.Errorf("class head tyvars = %#v, want [a]", class.Head.TyVars)
	}
	if len(class.Decls) != 1 {
		t.Fatalf("expected 1 method signature, got %d", len(class.Decls))
	}
	if _, ok := class.Decls[0].(*ast.TypeSig); !ok {
		t.Errorf("expected class body decl to be *ast.TypeSig, got %T", class.Decls[0])
	}

	inst, ok := mod.Decls[1].(*ast.InstDecl)
	if !ok {
		t.Fatalf("expected *ast.InstDecl, got %T", mod.Decls[1])
	}
	if inst.Name != "Eq" {
		t.Errorf("instance name = %q, want \"Eq\"", inst.Name)
	}
	if len(inst.Tys) != 1 {
		t.Fatalf("expected 1 instance type argument, got %d", len(inst.Tys))
	}
	if con, ok := inst.Tys[0].(*ast.TyCon); !ok || con.Name != "Int" {
		t.Errorf("instance type argument = %#v, want TyCon Int", inst.Tys[0])
	}
	if len(inst.Body) != 1 {
		t.Fatalf("expected 1 instance body decl, got %d", len(inst.Body))
	}
}

func TestBuildUsesModuleNameFromHeader(t *testing.T) {
	header := branch("header")
	modNameNode := branch("module")
	modNameNode.add("", leaf("conid", "Widget"))
	header.add("module", modNameNode)

	root := wrapModule(patBindDecl("x"))
	root.add("header", header)

	gen := ast.NewIDGen()
	mod, err := Build(root, gen, "Main")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if mod.Name != "Widget" {
		t.Errorf("module name = %q, want %q", mod.Name, "Widget")
	}
}

func TestBuildFallsBackToModuleNameAltWithoutHeader(t *testing.T) {
	root := wrapModule(patBindDecl("x"))
	gen := ast.NewIDGen()
	mod, err := Build(root, gen, "Scratch")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if mod.Name != "Scratch" {
		t.Errorf("module name = %q, want %q", mod.Name, "Scratch")
	}
}

func TestBuildPropagatesErrorNodeAsParsingError(t *testing.T) {
	bad := branch("ERROR")
	bad.isError = true
	root := wrapModule(patBindDecl("x"))
	root.children = append(root.children, bad)

	gen := ast.NewIDGen()
	_, err := Build(root, gen, "Main")
	if err == nil {
		t.Fatal("expected a ParsingError when the tree contains an ERROR node")
	}
	if _, ok := err.(*ParsingError); !ok {
		t.Fatalf("expected *ParsingError, got %T: %v", err, err)
	}
}

func TestBuildPropagatesMissingNodeAsParsingError(t *testing.T) {
	missing := branch("variable")
	missing.isMissing = true
	decl := branch("bind")
	decl.add("", missing)
	match := branch("match")
	match.add("expression", leaf("variable", "x"))
	decl.add("match", match)

	root := wrapModule(decl)
	gen := ast.NewIDGen()
	_, err := Build(root, gen, "Main")
	if err == nil {
		t.Fatal("expected a ParsingError when the tree contains a missing node")
	}
	if _, ok := err.(*ParsingError); !ok {
		t.Fatalf("expected *ParsingError, got %T: %v", err, err)
	}
}
