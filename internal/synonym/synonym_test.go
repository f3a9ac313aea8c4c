package synonym

import (
	"testing"

	"github.com/maybetonyfu/goanna/internal/ast"
)

// tyCon builds a fresh TyCon logic-free of any builder machinery, matching
// how internal/constraint's own tests construct fixtures directly.
func tyCon(gen *ast.IDGen, name string) *ast.TyCon {
	return ast.NewTyCon(gen.Next(), ast.Range{}, name, nil, false)
}

func tyVar(gen *ast.IDGen, name string) *ast.TyVar {
	return ast.NewTyVar(gen.Next(), ast.Range{}, name, false)
}

func TestGatherCollectsEveryModulesSynonyms(t *testing.T) {
	gen := ast.NewIDGen()
	head := ast.NewDeclHead(gen.Next(), ast.Range{}, "Age", nil)
	td := ast.NewTypeDecl(gen.Next(), ast.Range{}, head, tyCon(gen, "Int"))
	mod := ast.NewModule(gen.Next(), ast.Range{}, "Main", []ast.Decl{td}, nil)

	table := Gather([]*ast.Module{mod})
	def, ok := table["Age"]
	if !ok {
		t.Fatal("expected Gather to find the \"Age\" synonym")
	}
	if len(def.Params) != 0 {
		t.Errorf("expected Age to have zero params, got %v", def.Params)
	}
	if con, ok := def.Ty.(*ast.TyCon); !ok || con.Name != "Int" {
		t.Errorf("expected Age's definition to be TyCon Int, got %#v", def.Ty)
	}
}

func TestExpandSplicesParameterlessSynonymAtUsageSite(t *testing.T) {
	gen := ast.NewIDGen()
	head := ast.NewDeclHead(gen.Next(), ast.Range{}, "Age", nil)
	td := ast.NewTypeDecl(gen.Next(), ast.Range{}, head, tyCon(gen, "Int"))

	sigTy := tyCon(gen, "Age")
	sig := ast.NewTypeSig(gen.Next(), ast.Range{}, []string{"x"}, sigTy)

	mod := ast.NewModule(gen.Next(), ast.Range{}, "Main", []ast.Decl{td, sig}, nil)

	expanded, err := Expand([]*ast.Module{mod}, gen)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(expanded) != 1 {
		t.Fatalf("expected 1 module back, got %d", len(expanded))
	}
	decls := expanded[0].Decls
	if len(decls) != 1 {
		t.Fatalf("expected the TypeDecl to be removed, leaving 1 decl, got %d", len(decls))
	}
	outSig, ok := decls[0].(*ast.TypeSig)
	if !ok {
		t.Fatalf("expected a *ast.TypeSig, got %T", decls[0])
	}
	con, ok := outSig.Ty.(*ast.TyCon)
	if !ok || con.Name != "Int" {
		t.Fatalf("expected the signature's type to expand to Int, got %#v", outSig.Ty)
	}
	if con.ID() == sigTy.ID() {
		t.Errorf("expected the spliced-in type to get a fresh node id, not reuse the usage site's")
	}
}

func TestExpandSubstitutesParameterizedSynonymArguments(t *testing.T) {
	gen := ast.NewIDGen()
	// type Pair a = (a, a)
	a := tyVar(gen, "a")
	head := ast.NewDeclHead(gen.Next(), ast.Range{}, "Pair", []*ast.TyVar{a})
	pairBody := ast.NewTyTuple(gen.Next(), ast.Range{}, []ast.Ty{tyVar(gen, "a"), tyVar(gen, "a")}, false)
	td := ast.NewTypeDecl(gen.Next(), ast.Range{}, head, pairBody)

	// f :: Pair Int
	appTy := ast.NewTyApp(gen.Next(), ast.Range{}, tyCon(gen, "Pair"), tyCon(gen, "Int"), false)
	sig := ast.NewTypeSig(gen.Next(), ast.Range{}, []string{"f"}, appTy)

	mod := ast.NewModule(gen.Next(), ast.Range{}, "Main", []ast.Decl{td, sig}, nil)

	expanded, err := Expand([]*ast.Module{mod}, gen)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	outSig := expanded[0].Decls[0].(*ast.TypeSig)
	tup, ok := outSig.Ty.(*ast.TyTuple)
	if !ok || len(tup.Tys) != 2 {
		t.Fatalf("expected a 2-tuple, got %#v", outSig.Ty)
	}
	for i, elem := range tup.Tys {
		con, ok := elem.(*ast.TyCon)
		if !ok || con.Name != "Int" {
			t.Errorf("tuple element %d = %#v, want TyCon Int", i, elem)
		}
	}
}

func TestExpandReportsArityMismatch(t *testing.T) {
	gen := ast.NewIDGen()
	a := tyVar(gen, "a")
	head := ast.NewDeclHead(gen.Next(), ast.Range{}, "Box", []*ast.TyVar{a})
	td := ast.NewTypeDecl(gen.Next(), ast.Range{}, head, tyVar(gen, "a"))

	// f :: Box (too few arguments: zero instead of one)
	sig := ast.NewTypeSig(gen.Next(), ast.Range{}, []string{"f"}, tyCon(gen, "Box"))
	mod := ast.NewModule(gen.Next(), ast.Range{}, "Main", []ast.Decl{td, sig}, nil)

	_, err := Expand([]*ast.Module{mod}, gen)
	if err == nil {
		t.Fatal("expected an arity error")
	}
	ae, ok := err.(*ArityError)
	if !ok {
		t.Fatalf("expected *ArityError, got %T: %v", err, err)
	}
	if ae.Name != "Box" || ae.Want != 1 || ae.Got != 0 {
		t.Errorf("ArityError = %+v, want {Box 1 0}", ae)
	}
}

func TestExpandReportsArityMismatchForZeroParamSynonymAppliedToArgument(t *testing.T) {
	gen := ast.NewIDGen()
	head := ast.NewDeclHead(gen.Next(), ast.Range{}, "Foo", nil)
	td := ast.NewTypeDecl(gen.Next(), ast.Range{}, head, tyCon(gen, "Int"))

	// f :: Foo Int (too many arguments: one instead of zero)
	appTy := ast.NewTyApp(gen.Next(), ast.Range{}, tyCon(gen, "Foo"), tyCon(gen, "Int"), false)
	sig := ast.NewTypeSig(gen.Next(), ast.Range{}, []string{"f"}, appTy)
	mod := ast.NewModule(gen.Next(), ast.Range{}, "Main", []ast.Decl{td, sig}, nil)

	_, err := Expand([]*ast.Module{mod}, gen)
	if err == nil {
		t.Fatal("expected an arity error")
	}
	ae, ok := err.(*ArityError)
	if !ok {
		t.Fatalf("expected *ArityError, got %T: %v", err, err)
	}
	if ae.Name != "Foo" || ae.Want != 0 || ae.Got != 1 {
		t.Errorf("ArityError = %+v, want {Foo 0 1}", ae)
	}
}

func TestExpandDetectsCyclicSynonyms(t *testing.T) {
	gen := ast.NewIDGen()
	// type A = B ; type B = A
	headA := ast.NewDeclHead(gen.Next(), ast.Range{}, "A", nil)
	tdA := ast.NewTypeDecl(gen.Next(), ast.Range{}, headA, tyCon(gen, "B"))
	headB := ast.NewDeclHead(gen.Next(), ast.Range{}, "B", nil)
	tdB := ast.NewTypeDecl(gen.Next(), ast.Range{}, headB, tyCon(gen, "A"))

	sig := ast.NewTypeSig(gen.Next(), ast.Range{}, []string{"f"}, tyCon(gen, "A"))
	mod := ast.NewModule(gen.Next(), ast.Range{}, "Main", []ast.Decl{tdA, tdB, sig}, nil)

	_, err := Expand([]*ast.Module{mod}, gen)
	if err == nil {
		t.Fatal("expected a cyclic synonym error")
	}
	if ce, ok := err.(*CyclicError); !ok || ce.Module != "Main" {
		t.Fatalf("expected *CyclicError{Module: \"Main\"}, got %T: %v", err, err)
	}
}

func TestExpandLeavesNonSynonymTypesUntouched(t *testing.T) {
	gen := ast.NewIDGen()
	sig := ast.NewTypeSig(gen.Next(), ast.Range{}, []string{"f"}, tyCon(gen, "Int"))
	mod := ast.NewModule(gen.Next(), ast.Range{}, "Main", []ast.Decl{sig}, nil)

	expanded, err := Expand([]*ast.Module{mod}, gen)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	outSig := expanded[0].Decls[0].(*ast.TypeSig)
	if outSig.ID() != sig.ID() {
		t.Errorf("expected an unchanged declaration to keep its own node id, got %d want %d", outSig.ID(), sig.ID())
	}
}
