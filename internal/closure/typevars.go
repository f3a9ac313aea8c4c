package closure

import "github.com/maybetonyfu/goanna/internal/ast"

// TypeVars maps a declaration's canonical name to each type variable
// mentioned in its signature, and for each variable the canonical names
// of the classes (including transitive superclasses, via Classes) it is
// constrained by, matching original_source/parser/typevar.py's
// gather_type_vars. A variable with no class constraint still gets an
// entry with a nil/empty class list, mirroring typevar.py's
// `setdefault(name, set())`.
type TypeVars map[string]map[string][]string

type typeVarState struct {
	currentDecls []string
	typeVars     map[string]map[string][]string
	seen         map[string]map[string]map[string]bool
}

type typeVarVisitor struct{}

func (typeVarVisitor) Enter(acc typeVarState, node ast.Node, parent ast.Node) typeVarState {
	ensureDecl := func(decl string) {
		if acc.typeVars[decl] == nil {
			acc.typeVars[decl] = make(map[string][]string)
		}
		if acc.seen[decl] == nil {
			acc.seen[decl] = make(map[string]map[string]bool)
		}
	}
	ensureVar := func(decl, v string) {
		ensureDecl(decl)
		if _, ok := acc.typeVars[decl][v]; !ok {
			acc.typeVars[decl][v] = nil
			acc.seen[decl][v] = make(map[string]bool)
		}
	}
	addClass := func(decl, v, class string) {
		ensureVar(decl, v)
		if acc.seen[decl][v][class] {
			return
		}
		acc.seen[decl][v][class] = true
		acc.typeVars[decl][v] = append(acc.typeVars[decl][v], class)
	}

	switch n := node.(type) {
	case *ast.ClassDecl:
		// Every method signature declared by this class implicitly
		// requires the class constraint on the class's own type variable,
		// even if the method's own signature never mentions that
		// constraint explicitly (typevar.py's ClassDecl branch; the
		// membership check there tests the wrong loop variable (`decl`,
		// not `name`) and so is a no-op guard against re-adding a class
		// already recorded for that name/var pair — addClass's own
		// seen-set dedup achieves the same end intentionally).
		if len(n.Head.TyVars) == 0 {
			return acc
		}
		className := n.Head.CanonicalName
		typeVarName := n.Head.TyVars[0].Name
		for _, d := range n.Decls {
			ts, ok := d.(*ast.TypeSig)
			if !ok {
				continue
			}
			for _, name := range ts.CanonicalNames {
				addClass(name, typeVarName, className)
			}
		}

	case *ast.TypeSig:
		acc.currentDecls = n.CanonicalNames

	case *ast.TyForall:
		if n.Context == nil {
			return acc
		}
		for _, assertion := range n.Context.Assertions {
			app, ok := assertion.(*ast.TyApp)
			if !ok {
				continue
			}
			con, ok := app.Ty1.(*ast.TyCon)
			if !ok {
				continue
			}
			tv, ok := app.Ty2.(*ast.TyVar)
			if !ok {
				continue
			}
			for _, decl := range acc.currentDecls {
				addClass(decl, tv.Name, con.CanonicalName)
			}
		}

	case *ast.TyVar:
		for _, decl := range acc.currentDecls {
			ensureVar(decl, n.Name)
		}
	}
	return acc
}

func (typeVarVisitor) Leave(acc typeVarState, node ast.Node, parent ast.Node) typeVarState {
	if _, ok := node.(*ast.TypeSig); ok {
		acc.currentDecls = nil
	}
	return acc
}

// GatherTypeVars computes TypeVars across modules, expanding every
// directly-recorded class constraint with its transitive superclasses per
// classes, matching typevar.py's gather_type_vars.
func GatherTypeVars(modules []*ast.Module, classes Classes) TypeVars {
	state := typeVarState{
		typeVars: make(map[string]map[string][]string),
		seen:     make(map[string]map[string]map[string]bool),
	}
	state = ast.WalkAll(modules, typeVarVisitor{}, state)

	result := make(TypeVars, len(state.typeVars))
	for decl, vars := range state.typeVars {
		result[decl] = make(map[string][]string, len(vars))
		for v, direct := range vars {
			seen := make(map[string]bool, len(direct))
			var expanded []string
			for _, c := range direct {
				if !seen[c] {
					seen[c] = true
					expanded = append(expanded, c)
				}
				for _, sup := range classes[c] {
					if seen[sup] {
						continue
					}
					seen[sup] = true
					expanded = append(expanded, sup)
				}
			}
			result[decl][v] = expanded
		}
	}
	return result
}
