// Package builder lowers a concrete syntax tree (internal/cst.Node) into the
// tagged-union AST in internal/ast. Grounded directly on
// original_source/parser/parser/walk.py, which performs the same lowering
// against a real tree-sitter-haskell tree; this package keeps the same node
// kind tags and field names so the mapping stays traceable one match case
// at a time.
package builder

import (
	"fmt"
	"strings"

	"github.com/maybetonyfu/goanna/internal/ast"
	"github.com/maybetonyfu/goanna/internal/cst"
)

// ParsingError reports that the surface parser could not recognize, or had
// to synthesize, some span of the input. The bundle halts a module's
// pipeline at this stage without attempting recovery (spec.md §7.1).
type ParsingError struct {
	Loc ast.Range
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("parsing error at %s", e.Loc)
}

func newParsingError(n cst.Node) *ParsingError {
	return &ParsingError{Loc: n.Range()}
}

func findFirstError(n cst.Node) cst.Node {
	if n.IsError() {
		return n
	}
	for _, c := range n.Children() {
		if r := findFirstError(c); r != nil {
			return r
		}
	}
	return nil
}

func findFirstMissing(n cst.Node) cst.Node {
	if n.IsMissing() {
		return n
	}
	for _, c := range n.Children() {
		if r := findFirstMissing(c); r != nil {
			return r
		}
	}
	return nil
}

// builder carries the bundle-wide id counter through one module's lowering.
type builder struct {
	gen *ast.IDGen
}

// Build lowers root into a Module. moduleNameAlt is used when the module
// has no explicit "module M where" header, matching the fallback in
// make_ast (walk.py) for bare-expression test fixtures and script files.
func Build(root cst.Node, gen *ast.IDGen, moduleNameAlt string) (*ast.Module, error) {
	if errNode := findFirstError(root); errNode != nil {
		return nil, newParsingError(errNode)
	}
	if missing := findFirstMissing(root); missing != nil {
		return nil, newParsingError(missing)
	}

	b := &builder{gen: gen}

	var decls []ast.Decl
	if declNode := root.Child("declarations"); declNode != nil {
		for _, d := range declNode.Children() {
			decl, err := b.buildDecl(d)
			if err != nil {
				return nil, err
			}
			decls = append(decls, decl)
		}
	}

	var imports []string
	if importNode := root.Child("imports"); importNode != nil {
		for _, i := range importNode.Children() {
			imports = append(imports, b.buildImport(i))
		}
	}

	moduleName := moduleNameAlt
	if header := root.Child("header"); header != nil {
		if modNode := header.Child("module"); modNode != nil {
			var parts []string
			for _, m := range modNode.Children() {
				parts = append(parts, m.Text())
			}
			if joined := strings.Join(parts, "."); joined != "" {
				moduleName = joined
			}
		}
	}

	id := b.gen.Next()
	return ast.NewModule(id, root.Range(), moduleName, decls, imports), nil
}

func (b *builder) buildImport(n cst.Node) string {
	modNode := n.Child("module")
	if modNode == nil {
		return ""
	}
	var parts []string
	for _, m := range modNode.Children() {
		parts = append(parts, m.Text())
	}
	return strings.Join(parts, ".")
}

// --- literals ---

func (b *builder) buildLit(n cst.Node) (ast.LitKind, error) {
	if n.IsMissing() {
		return 0, newParsingError(n)
	}
	switch n.Kind() {
	case "integer":
		return ast.LitInt, nil
	case "string":
		return ast.LitString, nil
	case "char":
		return ast.LitChar, nil
	case "float":
		return ast.LitFrac, nil
	default:
		return 0, newParsingError(n)
	}
}

// --- patterns ---

func (b *builder) buildPat(n cst.Node) (ast.Pat, error) {
	if n.IsMissing() {
		return nil, newParsingError(n)
	}
	switch n.Kind() {
	case "qualified":
		module := n.Child("module").Text()
		ident := n.Child("id")
		return ast.NewPApp(b.gen.Next(), n.Range(), ident.Text(), &module, nil), nil
	case "prefix_id":
		op := n.Children()[0]
		return ast.NewPVar(b.gen.Next(), n.Range(), op.Text()), nil
	case "variable":
		return ast.NewPVar(b.gen.Next(), n.Range(), n.Text()), nil
	case "constructor":
		return ast.NewPApp(b.gen.Next(), n.Range(), n.Text(), nil, nil), nil
	case "literal":
		kind, err := b.buildLit(n.Children()[0])
		if err != nil {
			return nil, err
		}
		return ast.NewPLit(b.gen.Next(), n.Range(), kind), nil
	case "tuple":
		var pats []ast.Pat
		for _, c := range n.FieldChildren("element") {
			p, err := b.buildPat(c)
			if err != nil {
				return nil, err
			}
			pats = append(pats, p)
		}
		return ast.NewPTuple(b.gen.Next(), n.Range(), pats), nil
	case "parens":
		return b.buildPat(n.Child("pattern"))
	case "wildcard":
		return ast.NewPWildcard(b.gen.Next(), n.Range()), nil
	case "apply":
		children := n.Children()
		head, args, err := b.buildPatSpine(children[0], []ast.Pat{})
		if err != nil {
			return nil, err
		}
		arg, err := b.buildPat(children[1])
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		app, ok := head.(*ast.PApp)
		if !ok {
			return nil, newParsingError(n)
		}
		return ast.NewPApp(b.gen.Next(), n.Range(), app.Name, app.Module, args), nil
	case "infix":
		left, err := b.buildPat(n.Child("left_operand"))
		if err != nil {
			return nil, err
		}
		right, err := b.buildPat(n.Child("right_operand"))
		if err != nil {
			return nil, err
		}
		name, module := b.buildOperatorName(n.Child("operator"))
		return ast.NewPInfix(b.gen.Next(), n.Range(), left, name, module, right), nil
	case "list":
		var pats []ast.Pat
		for _, c := range n.FieldChildren("element") {
			p, err := b.buildPat(c)
			if err != nil {
				return nil, err
			}
			pats = append(pats, p)
		}
		return ast.NewPList(b.gen.Next(), n.Range(), pats), nil
	default:
		return nil, newParsingError(n)
	}
}

// buildPatSpine collects a left-associated constructor-application pattern's
// head and already-collected arguments, mirroring walk.py's deque spine
// walk for "apply" patterns (PApp takes a name plus a flat pattern list,
// not curried sub-applications).
func (b *builder) buildPatSpine(n cst.Node, acc []ast.Pat) (ast.Pat, []ast.Pat, error) {
	if n.Kind() != "apply" {
		head, err := b.buildPat(n)
		return head, acc, err
	}
	children := n.Children()
	head, args, err := b.buildPatSpine(children[0], acc)
	if err != nil {
		return nil, nil, err
	}
	arg, err := b.buildPat(children[1])
	if err != nil {
		return nil, nil, err
	}
	return head, append(args, arg), nil
}

func (b *builder) buildOperatorName(op cst.Node) (string, *string) {
	switch op.Kind() {
	case "qualified":
		module := op.Child("module").Text()
		return op.Child("id").Text(), &module
	case "constructor_operator", "operator", "variable":
		return op.Text(), nil
	case "infix_id":
		inner := op.Children()[0]
		if inner.Kind() == "qualified" {
			module := inner.Child("module").Text()
			return inner.Child("id").Text(), &module
		}
		return inner.Text(), nil
	default:
		return op.Text(), nil
	}
}

// --- expressions ---

func (b *builder) buildExp(n cst.Node) (ast.Exp, error) {
	if n.IsMissing() {
		return nil, newParsingError(n)
	}
	switch n.Kind() {
	case "qualified":
		module := n.Child("module").Text()
		ident := n.Child("id")
		switch ident.Kind() {
		case "variable":
			return ast.NewExpVar(b.gen.Next(), n.Range(), ident.Text(), &module), nil
		case "constructor":
			return ast.NewExpCon(b.gen.Next(), n.Range(), ident.Text(), &module), nil
		default:
			return nil, newParsingError(n)
		}
	case "variable":
		return ast.NewExpVar(b.gen.Next(), n.Range(), n.Text(), nil), nil
	case "parens":
		return b.buildExp(n.Child("expression"))
	case "unit":
		return ast.NewExpCon(b.gen.Next(), n.Range(), "unit", nil), nil
	case "constructor":
		return ast.NewExpCon(b.gen.Next(), n.Range(), n.Text(), nil), nil
	case "prefix_id":
		return b.buildExp(n.Children()[0])
	case "operator":
		return ast.NewExpVar(b.gen.Next(), n.Range(), n.Text(), nil), nil
	case "apply":
		children := n.Children()
		e1, err := b.buildExp(children[0])
		if err != nil {
			return nil, err
		}
		e2, err := b.buildExp(children[1])
		if err != nil {
			return nil, err
		}
		return ast.NewExpApp(b.gen.Next(), n.Range(), e1, e2), nil
	case "infix":
		left, err := b.buildExp(n.Child("left_operand"))
		if err != nil {
			return nil, err
		}
		right, err := b.buildExp(n.Child("right_operand"))
		if err != nil {
			return nil, err
		}
		name, module := b.buildOperatorName(n.Child("operator"))
		id := b.gen.Next()
		op := ast.NewExpVar(b.gen.Next(), n.Child("operator").Range(), name, module)
		return ast.NewExpInfixApp(id, n.Range(), left, op, right), nil
	case "left_section":
		left, err := b.buildExp(n.Child("left_operand"))
		if err != nil {
			return nil, err
		}
		op, err := b.buildExp(n.Child("operator"))
		if err != nil {
			return nil, err
		}
		return ast.NewExpLeftSection(b.gen.Next(), n.Range(), left, op), nil
	case "right_section":
		op, err := b.buildExp(n.Child("operator"))
		if err != nil {
			return nil, err
		}
		right, err := b.buildExp(n.Child("right_operand"))
		if err != nil {
			return nil, err
		}
		return ast.NewExpRightSection(b.gen.Next(), n.Range(), op, right), nil
	case "lambda":
		var pats []ast.Pat
		for _, p := range n.Child("patterns").Children() {
			pat, err := b.buildPat(p)
			if err != nil {
				return nil, err
			}
			pats = append(pats, pat)
		}
		exp, err := b.buildExp(n.Child("expression"))
		if err != nil {
			return nil, err
		}
		return ast.NewExpLambda(b.gen.Next(), n.Range(), pats, exp), nil
	case "let_in":
		var binds []ast.Decl
		for _, d := range n.Child("binds").Children() {
			decl, err := b.buildDecl(d)
			if err != nil {
				return nil, err
			}
			binds = append(binds, decl)
		}
		exp, err := b.buildExp(n.Child("expression"))
		if err != nil {
			return nil, err
		}
		return ast.NewExpLet(b.gen.Next(), n.Range(), binds, exp), nil
	case "conditional":
		cond, err := b.buildExp(n.Child("if"))
		if err != nil {
			return nil, err
		}
		then, err := b.buildExp(n.Child("then"))
		if err != nil {
			return nil, err
		}
		els, err := b.buildExp(n.Child("else"))
		if err != nil {
			return nil, err
		}
		return ast.NewExpIf(b.gen.Next(), n.Range(), cond, then, els), nil
	case "case":
		scrutinee, err := b.buildExp(n.Child("expression"))
		if err != nil {
			return nil, err
		}
		var alts []*ast.Alt
		for _, a := range n.Child("alternatives").Children() {
			alt, err := b.buildAlt(a)
			if err != nil {
				return nil, err
			}
			alts = append(alts, alt)
		}
		return ast.NewExpCase(b.gen.Next(), n.Range(), scrutinee, alts), nil
	case "do":
		var stmts []ast.Stmt
		for _, s := range n.FieldChildren("statement") {
			stmt, err := b.buildStmt(s)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
		}
		return ast.NewExpDo(b.gen.Next(), n.Range(), stmts), nil
	case "tuple":
		var exps []ast.Exp
		for _, c := range n.FieldChildren("element") {
			e, err := b.buildExp(c)
			if err != nil {
				return nil, err
			}
			exps = append(exps, e)
		}
		return ast.NewExpTuple(b.gen.Next(), n.Range(), exps), nil
	case "list":
		var exps []ast.Exp
		for _, c := range n.FieldChildren("element") {
			e, err := b.buildExp(c)
			if err != nil {
				return nil, err
			}
			exps = append(exps, e)
		}
		return ast.NewExpList(b.gen.Next(), n.Range(), exps), nil
	case "arithmetic_sequence":
		from := n.Child("from")
		to := n.Child("to")
		switch {
		case from == nil:
			e, err := b.buildExp(to)
			if err != nil {
				return nil, err
			}
			return ast.NewExpEnumTo(b.gen.Next(), n.Range(), e), nil
		case to == nil:
			e, err := b.buildExp(from)
			if err != nil {
				return nil, err
			}
			return ast.NewExpEnumFrom(b.gen.Next(), n.Range(), e), nil
		default:
			e1, err := b.buildExp(from)
			if err != nil {
				return nil, err
			}
			e2, err := b.buildExp(to)
			if err != nil {
				return nil, err
			}
			return ast.NewExpEnumFromTo(b.gen.Next(), n.Range(), e1, e2), nil
		}
	case "comprehension":
		body, err := b.buildExp(n.Child("expression"))
		if err != nil {
			return nil, err
		}
		var quals []*ast.Generator
		for _, q := range n.FieldChildren("qualifier") {
			gen, err := b.buildStmt(q)
			if err != nil {
				return nil, err
			}
			g, ok := gen.(*ast.Generator)
			if !ok {
				return nil, newParsingError(q)
			}
			quals = append(quals, g)
		}
		var guards []ast.Exp
		for _, g := range n.FieldChildren("guard") {
			e, err := b.buildExp(g)
			if err != nil {
				return nil, err
			}
			guards = append(guards, e)
		}
		return ast.NewExpComprehension(b.gen.Next(), n.Range(), body, quals, guards), nil
	case "literal":
		kind, err := b.buildLit(n.Children()[0])
		if err != nil {
			return nil, err
		}
		return ast.NewExpLit(b.gen.Next(), n.Range(), kind), nil
	default:
		return nil, newParsingError(n)
	}
}

func (b *builder) buildAlt(n cst.Node) (*ast.Alt, error) {
	pat, err := b.buildPat(n.Child("pattern"))
	if err != nil {
		return nil, err
	}
	matchNode := n.Child("match")
	exp, err := b.buildExp(matchNode.Child("expression"))
	if err != nil {
		return nil, err
	}
	var binds []ast.Decl
	if bindNode := n.Child("binds"); bindNode != nil {
		for _, d := range bindNode.FieldChildren("decl") {
			decl, err := b.buildDecl(d)
			if err != nil {
				return nil, err
			}
			binds = append(binds, decl)
		}
	}
	return ast.NewAlt(b.gen.Next(), n.Range(), pat, exp, binds), nil
}

// --- statements ---

func (b *builder) buildStmt(n cst.Node) (ast.Stmt, error) {
	switch n.Kind() {
	case "exp":
		exp, err := b.buildExp(n.Children()[0])
		if err != nil {
			return nil, err
		}
		return ast.NewQualifier(b.gen.Next(), n.Range(), exp), nil
	case "bind":
		pat, err := b.buildPat(n.Child("pattern"))
		if err != nil {
			return nil, err
		}
		exp, err := b.buildExp(n.Child("expression"))
		if err != nil {
			return nil, err
		}
		return ast.NewGenerator(b.gen.Next(), n.Range(), pat, exp), nil
	case "let":
		var binds []ast.Decl
		for _, d := range n.Child("binds").FieldChildren("decl") {
			decl, err := b.buildDecl(d)
			if err != nil {
				return nil, err
			}
			binds = append(binds, decl)
		}
		return ast.NewLetStmt(b.gen.Next(), n.Range(), binds), nil
	case "qualifier", "generator":
		// Reused directly when a list comprehension's "qualifier" field
		// points at a generator or bare-expression node instead of a
		// do-block "statement" wrapper.
		if n.Kind() == "generator" {
			pat, err := b.buildPat(n.Child("pattern"))
			if err != nil {
				return nil, err
			}
			exp, err := b.buildExp(n.Child("expression"))
			if err != nil {
				return nil, err
			}
			return ast.NewGenerator(b.gen.Next(), n.Range(), pat, exp), nil
		}
		exp, err := b.buildExp(n.Child("expression"))
		if err != nil {
			return nil, err
		}
		return ast.NewQualifier(b.gen.Next(), n.Range(), exp), nil
	default:
		return nil, newParsingError(n)
	}
}

// --- types ---

func (b *builder) buildType(n cst.Node) (ast.Ty, error) {
	if n.IsMissing() {
		return nil, newParsingError(n)
	}
	switch n.Kind() {
	case "qualified":
		module := n.Child("module").Text()
		ident := n.Child("id")
		return ast.NewTyCon(b.gen.Next(), n.Range(), ident.Text(), &module, false), nil
	case "context":
		ctx, err := b.buildContext(n.Child("context"))
		if err != nil {
			return nil, err
		}
		ty, err := b.buildType(n.Child("type"))
		if err != nil {
			return nil, err
		}
		return ast.NewTyForall(b.gen.Next(), n.Range(), ctx, ty, false), nil
	case "unit":
		return ast.NewTyCon(b.gen.Next(), n.Range(), "Top", nil, false), nil
	case "name":
		return ast.NewTyCon(b.gen.Next(), n.Range(), n.Text(), nil, false), nil
	case "variable":
		return ast.NewTyVar(b.gen.Next(), n.Range(), n.Text(), false), nil
	case "apply":
		ty1, err := b.buildType(n.Child("constructor"))
		if err != nil {
			return nil, err
		}
		ty2, err := b.buildType(n.Child("argument"))
		if err != nil {
			return nil, err
		}
		return ast.NewTyApp(b.gen.Next(), n.Range(), ty1, ty2, false), nil
	case "parens":
		return b.buildType(n.Child("type"))
	case "function":
		ty1, err := b.buildType(n.Child("parameter"))
		if err != nil {
			return nil, err
		}
		ty2, err := b.buildType(n.Child("result"))
		if err != nil {
			return nil, err
		}
		return ast.NewTyFun(b.gen.Next(), n.Range(), ty1, ty2, false), nil
	case "tuple":
		var tys []ast.Ty
		for _, c := range n.FieldChildren("element") {
			t, err := b.buildType(c)
			if err != nil {
				return nil, err
			}
			tys = append(tys, t)
		}
		return ast.NewTyTuple(b.gen.Next(), n.Range(), tys, false), nil
	case "list":
		t, err := b.buildType(n.Child("element"))
		if err != nil {
			return nil, err
		}
		return ast.NewTyList(b.gen.Next(), n.Range(), t, false), nil
	default:
		return nil, newParsingError(n)
	}
}

func (b *builder) buildContext(n cst.Node) (*ast.Context, error) {
	if n == nil {
		return nil, nil
	}
	if n.IsMissing() {
		return nil, newParsingError(n)
	}
	var assertions []ast.Ty
	switch n.Kind() {
	case "parens":
		t, err := b.buildType(n.Child("type"))
		if err != nil {
			return nil, err
		}
		assertions = append(assertions, t)
	case "tuple":
		for _, c := range n.FieldChildren("element") {
			t, err := b.buildType(c)
			if err != nil {
				return nil, err
			}
			assertions = append(assertions, t)
		}
	case "apply":
		t, err := b.buildType(n)
		if err != nil {
			return nil, err
		}
		assertions = append(assertions, t)
	default:
		return nil, newParsingError(n)
	}
	return ast.NewContext(b.gen.Next(), n.Range(), assertions), nil
}

func (b *builder) buildDeclHead(n cst.Node) (*ast.DeclHead, error) {
	name := n.Child("name").Text()
	var tyVars []*ast.TyVar
	if patterns := n.Child("patterns"); patterns != nil {
		for _, t := range patterns.FieldChildren("bind") {
			ty, err := b.buildType(t)
			if err != nil {
				return nil, err
			}
			tv, ok := ty.(*ast.TyVar)
			if !ok {
				return nil, newParsingError(t)
			}
			tyVars = append(tyVars, tv)
		}
	}
	return ast.NewDeclHead(b.gen.Next(), n.Range(), name, tyVars), nil
}

// --- right-hand sides ---

// buildRhs mirrors match_rhs in walk.py: it reads the enclosing decl node's
// "match"/"patterns"/"binds" fields directly, since tree-sitter-haskell
// attaches them there rather than on a separate rhs node. Function bindings
// (patterns != nil) are desugared into a lambda over the parameter list,
// per spec.md §4.1.
func (b *builder) buildRhs(n cst.Node) (ast.Rhs, error) {
	matchNodes := n.FieldChildren("match")
	if len(matchNodes) == 0 {
		return nil, newParsingError(n)
	}
	var wheres []ast.Decl
	if bindsNode := n.Child("binds"); bindsNode != nil {
		for _, d := range bindsNode.FieldChildren("decl") {
			decl, err := b.buildDecl(d)
			if err != nil {
				return nil, err
			}
			wheres = append(wheres, decl)
		}
	}

	patternsNode := n.Child("patterns")
	isPatBinding := patternsNode == nil
	isUnguarded := matchNodes[0].Child("guards") == nil

	var branches []*ast.GuardBranch
	var unguardedExp ast.Exp

	for _, matchNode := range matchNodes {
		var rhsExp ast.Exp
		var err error
		if isPatBinding {
			rhsExp, err = b.buildExp(matchNode.Child("expression"))
			if err != nil {
				return nil, err
			}
		} else {
			var pats []ast.Pat
			for _, p := range patternsNode.Children() {
				pat, perr := b.buildPat(p)
				if perr != nil {
					return nil, perr
				}
				pats = append(pats, pat)
			}
			inner, ierr := b.buildExp(matchNode.Child("expression"))
			if ierr != nil {
				return nil, ierr
			}
			lambdaLoc := ast.Range{Start: patternsNode.Range().Start, End: matchNode.Range().End}
			rhsExp = ast.NewExpLambda(b.gen.Next(), lambdaLoc, pats, inner)
		}

		if isUnguarded {
			unguardedExp = rhsExp
			break
		}

		guardsNode := matchNode.Child("guards")
		var guards []ast.Exp
		for _, g := range guardsNode.FieldChildren("guard") {
			guardExp, err := b.buildExp(g.Children()[0])
			if err != nil {
				return nil, err
			}
			guards = append(guards, guardExp)
		}
		branches = append(branches, ast.NewGuardBranch(b.gen.Next(), matchNode.Range(), guards, rhsExp))
	}

	if isUnguarded {
		return ast.NewUnguardedRhs(b.gen.Next(), matchNodes[0].Range(), unguardedExp, wheres), nil
	}
	return ast.NewGuardedRhs(b.gen.Next(), n.Range(), branches, wheres), nil
}

// --- declarations ---

func (b *builder) buildDecl(n cst.Node) (ast.Decl, error) {
	if n.IsMissing() {
		return nil, newParsingError(n)
	}
	switch n.Kind() {
	case "signature":
		var nameNodes []cst.Node
		if nameBinds := n.Child("names"); nameBinds != nil {
			nameNodes = nameBinds.FieldChildren("name")
		} else {
			nameNodes = []cst.Node{n.Child("name")}
		}
		var names []string
		for _, nm := range nameNodes {
			if nm.Kind() == "prefix_id" {
				names = append(names, nm.Children()[0].Text())
			} else {
				names = append(names, nm.Text())
			}
		}
		ty, err := b.buildType(n.Child("type"))
		if err != nil {
			return nil, err
		}
		return ast.NewTypeSig(b.gen.Next(), n.Range(), names, ty), nil

	case "type_synonym":
		head, err := b.buildDeclHead(n)
		if err != nil {
			return nil, err
		}
		ty, err := b.buildType(n.Child("type"))
		if err != nil {
			return nil, err
		}
		return ast.NewTypeDecl(b.gen.Next(), n.Range(), head, ty), nil

	case "data_type":
		head, err := b.buildDeclHead(n)
		if err != nil {
			return nil, err
		}
		var cons []*ast.DataCon
		if consNode := n.Child("constructors"); consNode != nil {
			for _, c := range consNode.FieldChildren("constructor") {
				dataConNode := c.Child("constructor")
				name := dataConNode.Child("name").Text()
				var fields []ast.Ty
				for _, fn := range dataConNode.FieldChildren("field") {
					ty, err := b.buildType(fn)
					if err != nil {
						return nil, err
					}
					fields = append(fields, ty)
				}
				cons = append(cons, ast.NewDataCon(b.gen.Next(), c.Range(), name, fields))
			}
		}
		// walk.py never populates a data declaration's deriving clause
		// either; surface "deriving" support is left for a future parser
		// upgrade rather than invented here without a grounding source.
		return ast.NewDataDecl(b.gen.Next(), n.Range(), head, cons, nil), nil

	case "class":
		var ctx *ast.Context
		if ctxNode := n.Child("context"); ctxNode != nil {
			var err error
			ctx, err = b.buildContext(ctxNode.Child("context"))
			if err != nil {
				return nil, err
			}
		}
		head, err := b.buildDeclHead(n)
		if err != nil {
			return nil, err
		}
		var decls []ast.Decl
		if declNode := n.Child("declarations"); declNode != nil {
			for _, d := range declNode.Children() {
				decl, err := b.buildDecl(d)
				if err != nil {
					return nil, err
				}
				decls = append(decls, decl)
			}
		}
		return ast.NewClassDecl(b.gen.Next(), n.Range(), ctx, head, decls), nil

	case "instance":
		var ctx *ast.Context
		if ctxNode := n.Child("context"); ctxNode != nil {
			var err error
			ctx, err = b.buildContext(ctxNode.Child("context"))
			if err != nil {
				return nil, err
			}
		}
		nameNode := n.Child("name")
		var name string
		var module *string
		if nameNode.Kind() == "qualified" {
			m := nameNode.Child("module").Text()
			module = &m
			name = nameNode.Child("id").Text()
		} else {
			name = nameNode.Text()
		}
		var tys []ast.Ty
		if patternsNode := n.Child("patterns"); patternsNode != nil {
			for _, t := range patternsNode.Children() {
				ty, err := b.buildType(t)
				if err != nil {
					return nil, err
				}
				tys = append(tys, ty)
			}
		}
		var body []ast.Decl
		if bodyNode := n.Child("declarations"); bodyNode != nil {
			for _, d := range bodyNode.Children() {
				decl, err := b.buildDecl(d)
				if err != nil {
					return nil, err
				}
				body = append(body, decl)
			}
		}
		return ast.NewInstDecl(b.gen.Next(), n.Range(), ctx, name, module, tys, body), nil

	case "function", "bind":
		patNode := n.Children()[0]
		pat, err := b.buildPat(patNode)
		if err != nil {
			return nil, err
		}
		rhs, err := b.buildRhs(n)
		if err != nil {
			return nil, err
		}
		return ast.NewPatBind(b.gen.Next(), n.Range(), pat, rhs), nil

	default:
		return nil, newParsingError(n)
	}
}
