package constraint

import (
	"strings"
	"testing"

	"github.com/maybetonyfu/goanna/internal/ast"
)

// fakeGlobal is a minimal GlobalState double for exercising generate in
// isolation, the way a hand-rolled fake stands in for the full bundle
// state in a unit test.
type fakeGlobal struct {
	declarations []string
	parents      map[string]string // child -> parent, for IsParentOf
	rules        []ast.Rule
	collectors   map[string][]string
}

func newFakeGlobal(decls ...string) *fakeGlobal {
	return &fakeGlobal{declarations: decls, parents: map[string]string{}, collectors: map[string][]string{}}
}

func (g *fakeGlobal) Declarations() []string { return g.declarations }
func (g *fakeGlobal) AddRule(r ast.Rule)      { g.rules = append(g.rules, r) }
func (g *fakeGlobal) IsParentOf(parent, child string) bool {
	return g.parents[child] == parent
}
func (g *fakeGlobal) AddClassVar(headName, classVar string) {
	g.collectors[headName] = append(g.collectors[headName], classVar)
}

func (g *fakeGlobal) bodies() []string {
	out := make([]string, len(g.rules))
	for i, r := range g.rules {
		out[i] = r.Body.String()
	}
	return out
}

func containsSubstring(haystack []string, substr string) bool {
	for _, s := range haystack {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

func TestGenerateConstraints_SimplePatBind(t *testing.T) {
	lit := ast.NewExpLit(2, ast.Range{}, ast.LitInt)
	rhs := ast.NewUnguardedRhs(4, ast.Range{}, lit, nil)
	pv := ast.NewPVar(3, ast.Range{}, "x")
	pv.CanonicalName = "x"
	bind := ast.NewPatBind(1, ast.Range{}, pv, rhs)
	mod := ast.NewModule(0, ast.Range{}, "Main", []ast.Decl{bind}, nil)

	global := newFakeGlobal("x")
	if err := GenerateConstraints([]*ast.Module{mod}, global); err != nil {
		t.Fatalf("GenerateConstraints: %v", err)
	}

	bodies := global.bodies()
	if !containsSubstring(bodies, "T = _4") {
		t.Errorf("expected axiom unifying T with the rhs node var, got bodies: %v", bodies)
	}
	if !containsSubstring(bodies, "builtin_Int") {
		t.Errorf("expected the int literal to unify with builtin_Int, got bodies: %v", bodies)
	}
}

func TestTypeOf_WidensThroughZetaChain_WhenIsParentOf(t *testing.T) {
	ref := ast.NewExpVar(5, ast.Range{}, "helper", nil)
	ref.CanonicalName = "helper"

	global := newFakeGlobal("helper")
	global.parents["helper"] = "outer"

	state := newGenState(global)
	state.module = "Main"
	head := state.headOfTypingRule("outer")

	if err := generate(ref, &head, state); err != nil {
		t.Fatalf("generate: %v", err)
	}

	bodies := global.bodies()
	if !containsSubstring(bodies, "append(Zeta, _, ") {
		t.Errorf("expected a zeta-chain append call when IsParentOf holds, got: %v", bodies)
	}
	if !containsSubstring(bodies, "helper(_5") {
		t.Errorf("expected a call to the referenced name's predicate, got: %v", bodies)
	}
	if len(global.collectors["outer"]) != 1 {
		t.Errorf("expected exactly one collector variable registered for head %q, got %v", "outer", global.collectors)
	}
}

func TestTypeOf_NoWidening_WhenNotParent(t *testing.T) {
	ref := ast.NewExpVar(5, ast.Range{}, "helper", nil)
	ref.CanonicalName = "helper"

	global := newFakeGlobal("helper")
	state := newGenState(global)
	state.module = "Main"
	head := state.headOfTypingRule("outer")

	if err := generate(ref, &head, state); err != nil {
		t.Fatalf("generate: %v", err)
	}

	bodies := global.bodies()
	if containsSubstring(bodies, "append(") {
		t.Errorf("expected no zeta-chain widening without IsParentOf, got: %v", bodies)
	}
}

func TestGuardUnifiesWithBoolAtomNotVariable(t *testing.T) {
	// Regression test for the unify() raw-string coercion bug in
	// original_source/parser/constraint.py: 'p_Bool' must become an
	// LAtom, not an LVar, in the emitted rule body.
	cond := ast.NewExpCon(7, ast.Range{}, "True", nil)
	cond.CanonicalName = "builtin_true"
	branch := ast.NewExpLit(8, ast.Range{}, ast.LitInt)

	guardBranch := ast.NewGuardBranch(9, ast.Range{}, []ast.Exp{cond}, branch)
	guardedRhs := ast.NewGuardedRhs(10, ast.Range{}, []*ast.GuardBranch{guardBranch}, nil)

	global := newFakeGlobal("builtin_true")
	state := newGenState(global)
	state.module = "Main"
	head := state.headOfTypingRule("f")

	if err := generate(guardedRhs, &head, state); err != nil {
		t.Fatalf("generate: %v", err)
	}

	bodies := global.bodies()
	if !containsSubstring(bodies, "= p_Bool") {
		t.Fatalf("expected the guard to unify with the p_Bool atom, got: %v", bodies)
	}
}

func TestMultiParamClassError(t *testing.T) {
	a := ast.NewTyVar(1, ast.Range{}, "a", false)
	b := ast.NewTyVar(2, ast.Range{}, "b", false)
	head := ast.NewDeclHead(3, ast.Range{}, "Convert", []*ast.TyVar{a, b})
	head.CanonicalName = "Convert"
	classDecl := ast.NewClassDecl(4, ast.Range{}, nil, head, nil)
	mod := ast.NewModule(0, ast.Range{}, "Main", []ast.Decl{classDecl}, nil)

	global := newFakeGlobal()
	err := GenerateConstraints([]*ast.Module{mod}, global)
	if err == nil {
		t.Fatal("expected an error for a two-parameter class declaration")
	}
	if _, ok := err.(*MultiParamClassError); !ok {
		t.Fatalf("expected *MultiParamClassError, got %T: %v", err, err)
	}
}

func TestExpCaseGeneratesConstraintsForAltWhereBindings(t *testing.T) {
	// Regression test for the ExpCase/Alt.Binds gap: constraint.py's
	// ExpCase case never visits an alternative's own where-bindings, but
	// every other Rhs variant does, so this port's generate visits them
	// too. A where-binding inside the single alt below must get its own
	// typing axiom.
	innerLit := ast.NewExpLit(20, ast.Range{}, ast.LitInt)
	innerRhs := ast.NewUnguardedRhs(24, ast.Range{}, innerLit, nil)
	innerVar := ast.NewPVar(21, ast.Range{}, "y")
	innerVar.CanonicalName = "y"
	whereBind := ast.NewPatBind(19, ast.Range{}, innerVar, innerRhs)

	altPat := ast.NewPWildcard(22, ast.Range{})
	altExp := ast.NewExpLit(23, ast.Range{}, ast.LitInt)
	alt := ast.NewAlt(18, ast.Range{}, altPat, altExp, []ast.Decl{whereBind})

	scrutinee := ast.NewExpLit(17, ast.Range{}, ast.LitInt)
	caseExp := ast.NewExpCase(16, ast.Range{}, scrutinee, []*ast.Alt{alt})

	global := newFakeGlobal()
	state := newGenState(global)
	state.module = "Main"
	head := state.headOfTypingRule("f")

	if err := generate(caseExp, &head, state); err != nil {
		t.Fatalf("generate: %v", err)
	}

	bodies := global.bodies()
	if !containsSubstring(bodies, "T = _24") {
		t.Errorf("expected the where-binding's own typing axiom to be emitted, got: %v", bodies)
	}
}

func TestPLitIsANoOp(t *testing.T) {
	// PLit carries no constraint-generation case at all, faithfully
	// reproducing original_source/parser/constraint.py's own gap: a
	// literal pattern like "0" in "f 0 = ..." never forces the matched
	// argument's type.
	lit := ast.NewPLit(1, ast.Range{}, ast.LitInt)
	global := newFakeGlobal()
	state := newGenState(global)
	state.module = "Main"
	head := state.headOfTypingRule("f")

	if err := generate(lit, &head, state); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(global.rules) != 0 {
		t.Errorf("expected no rules emitted for a bare pattern literal, got: %v", global.bodies())
	}
}

func TestHasClassBuildsMemberCheck(t *testing.T) {
	term := ast.HasClass(ast.LVar{Name: "_x"}, "p_Eq")
	got := term.String()
	want := "once(member(with(p_Eq, _x), _Classes))"
	if got != want {
		t.Errorf("HasClass string = %q, want %q", got, want)
	}
}
