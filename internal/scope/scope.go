// Package scope resolves every name use in a bundle to a canonical name:
// it walks each module collecting binding sites ("vendors") and use sites
// ("buyers"), matches each buyer against the vendor visible at its usage
// point, and writes the resolved canonical names back onto the AST
// (spec.md §3, §4.6).
package scope

import (
	"fmt"
	"sort"

	"bitbucket.org/creachadair/stringset"
	"go.uber.org/multierr"

	"github.com/maybetonyfu/goanna/internal/ast"
	"github.com/maybetonyfu/goanna/internal/encode"
)

// EffectiveRangeError reports a declaration node whose enclosing parent
// kind has no defined effective range. Every TypeSig/PatBind reachable
// from a Module's declaration tree has a parent that is one of
// Module/ClassDecl/InstDecl/GuardedRhs/UnguardedRhs/Alt/ExpLet; a TypeSig
// nested directly inside a do-block's LetStmt is the one surface form
// this does not cover (original_source/parser/scope.py's get_effective_range
// has no LetStmt case either), so it surfaces as this error rather than a
// panic.
type EffectiveRangeError struct {
	NodeID     int
	ParentKind string
}

func (e *EffectiveRangeError) Error() string {
	return fmt.Sprintf("scope: node %d has no effective range under parent kind %s", e.NodeID, e.ParentKind)
}

func getEffectiveRange(nodeID int, parent ast.Node) (ast.EffectiveRange, error) {
	switch p := parent.(type) {
	case *ast.Module, *ast.ClassDecl, *ast.InstDecl:
		return ast.Global, nil
	case *ast.GuardedRhs:
		return rangeExcludingBefore(nodeID, p.Loc(), declsToNodes(p.Wheres)), nil
	case *ast.UnguardedRhs:
		return rangeExcludingBefore(nodeID, p.Loc(), declsToNodes(p.Wheres)), nil
	case *ast.Alt:
		return rangeExcludingBefore(nodeID, p.Loc(), declsToNodes(p.Binds)), nil
	case *ast.ExpLet:
		return rangeExcludingBefore(nodeID, p.Loc(), declsToNodes(p.Binds)), nil
	default:
		kind := fmt.Sprintf("%T", parent)
		return ast.EffectiveRange{}, &EffectiveRangeError{NodeID: nodeID, ParentKind: kind}
	}
}

func declsToNodes(decls []ast.Decl) []ast.Node {
	out := make([]ast.Node, len(decls))
	for i, d := range decls {
		out[i] = d
	}
	return out
}

// rangeExcludingBefore builds the effective range for a binding declared
// among siblings: visible across the whole enclosing span, except inside
// any sibling that appears earlier in the list than the binding itself.
func rangeExcludingBefore(nodeID int, bound ast.Range, siblings []ast.Node) ast.EffectiveRange {
	var excludes []ast.Range
	for _, sib := range siblings {
		if sib.ID() == nodeID {
			break
		}
		excludes = append(excludes, sib.Loc())
	}
	return ast.EffectiveRange{Range: bound, Excludes: excludes}
}

func canonicalName(moduleMapping map[string]string, moduleName, name string, er ast.EffectiveRange) (string, error) {
	enc, err := encode.Encode(name)
	if err != nil {
		return "", err
	}
	tag := moduleMapping[moduleName]
	if er.IsGlobal {
		return fmt.Sprintf("%s_%s", tag, enc), nil
	}
	p := er.Range.Start
	return fmt.Sprintf("%s_%s_%d_%d", tag, enc, p.Line, p.Column), nil
}

// vendorState is the GatherVendors accumulator: the vendor list collected
// so far, plus the first error encountered (an encoding or
// effective-range error); traversal keeps running, but no vendor is added
// once an error is recorded.
type vendorState struct {
	vendors []ast.Vendor
	err     error
}

type vendorVisitor struct {
	moduleMapping map[string]string
	moduleName    string
}

func (v vendorVisitor) Enter(acc vendorState, node ast.Node, parent ast.Node) vendorState {
	if acc.err != nil {
		return acc
	}
	addRanged := func(nodeID int, name string, kind ast.NameKind, isDecl bool, er ast.EffectiveRange) {
		canonical, err := canonicalName(v.moduleMapping, v.moduleName, name, er)
		if err != nil {
			acc.err = err
			return
		}
		acc.vendors = append(acc.vendors, ast.Vendor{
			NodeID:         nodeID,
			Name:           name,
			Kind:           kind,
			IsDeclaration:  isDecl,
			Module:         v.moduleName,
			CanonicalName:  canonical,
			EffectiveRange: er,
		})
	}

	switch n := node.(type) {
	case *ast.TypeSig:
		er, err := getEffectiveRange(n.ID(), parent)
		if err != nil {
			acc.err = err
			return acc
		}
		for _, name := range n.Names {
			addRanged(n.ID(), name, ast.TermName, true, er)
		}

	case *ast.PatBind:
		pv, ok := n.Pat.(*ast.PVar)
		if !ok {
			return acc
		}
		if _, underLet := parent.(*ast.LetStmt); underLet {
			// emitted via the enclosing ExpDo case instead.
			return acc
		}
		er, err := getEffectiveRange(n.ID(), parent)
		if err != nil {
			acc.err = err
			return acc
		}
		addRanged(pv.ID(), pv.Name, ast.TermName, true, er)

	case *ast.DataCon:
		acc.vendors = append(acc.vendors, ast.Vendor{
			NodeID: n.ID(), Name: n.Name, Kind: ast.TermName, IsDeclaration: true,
			Module: v.moduleName, CanonicalName: fmt.Sprintf("%s_%s", v.moduleMapping[v.moduleName], n.Name),
			EffectiveRange: ast.Global,
		})

	case *ast.DataDecl:
		h := n.Head
		acc.vendors = append(acc.vendors, ast.Vendor{
			NodeID: h.ID(), Name: h.Name, Kind: ast.TypeName,
			Module: v.moduleName, CanonicalName: fmt.Sprintf("%s_%s", v.moduleMapping[v.moduleName], h.Name),
			EffectiveRange: ast.Global,
		})

	case *ast.ClassDecl:
		h := n.Head
		acc.vendors = append(acc.vendors, ast.Vendor{
			NodeID: h.ID(), Name: h.Name, Kind: ast.TypeName,
			Module: v.moduleName, CanonicalName: fmt.Sprintf("%s_%s", v.moduleMapping[v.moduleName], h.Name),
			EffectiveRange: ast.Global,
		})

	case *ast.ExpDo:
		end := n.Loc().End
		for _, stmt := range n.Stmts {
			let, ok := stmt.(*ast.LetStmt)
			if !ok {
				continue
			}
			for _, bind := range let.Binds {
				pb, ok := bind.(*ast.PatBind)
				if !ok {
					continue
				}
				start := pb.Loc().End
				er := ast.EffectiveRange{Range: ast.Range{Start: start, End: end}}
				for _, nm := range ast.NamesFromPat(pb.Pat) {
					addRanged(nm.ID, nm.Name, ast.TermName, true, er)
				}
			}
		}

	case *ast.ExpLambda:
		er := ast.EffectiveRange{Range: n.Loc()}
		for _, pat := range n.Pats {
			for _, nm := range ast.NamesFromPat(pat) {
				addRanged(nm.ID, nm.Name, ast.TermName, false, er)
			}
		}

	case *ast.Alt:
		er := ast.EffectiveRange{Range: n.Loc()}
		for _, nm := range ast.NamesFromPat(n.Pat) {
			addRanged(nm.ID, nm.Name, ast.TermName, false, er)
		}
	}
	return acc
}

func (vendorVisitor) Leave(acc vendorState, node ast.Node, parent ast.Node) vendorState {
	return acc
}

// GatherVendors walks every module collecting binding sites, in module and
// then declaration order, matching original_source/parser/scope.py's
// get_vendors. moduleMapping supplies each module's canonical-name tag
// ("p" for Prelude, "m<i>" for everything else).
func GatherVendors(modules []*ast.Module, moduleMapping map[string]string) ([]ast.Vendor, error) {
	state := vendorState{}
	for _, m := range modules {
		v := vendorVisitor{moduleMapping: moduleMapping, moduleName: m.Name}
		state = ast.Walk(m, nil, v, state)
		if state.err != nil {
			return nil, state.err
		}
	}
	return state.vendors, nil
}

// Declarations returns the deduplicated, first-seen-order canonical names
// of every term-level declaration vendor (original_source/parser/system.py:
// state.declarations). The original collects these into a Python set,
// whose iteration order is not source-order-stable; returning a
// first-seen-order slice instead keeps this deterministic, matching
// spec.md §8's determinism requirement.
func Declarations(vendors []ast.Vendor) []string {
	seen := make(map[string]bool, len(vendors))
	var out []string
	for _, v := range vendors {
		if v.Kind != ast.TermName || !v.IsDeclaration {
			continue
		}
		if seen[v.CanonicalName] {
			continue
		}
		seen[v.CanonicalName] = true
		out = append(out, v.CanonicalName)
	}
	return out
}

type buyerVisitor struct {
	moduleName string
}

func (b buyerVisitor) Enter(acc []ast.Buyer, node ast.Node, parent ast.Node) []ast.Buyer {
	add := func(nodeID int, name string, kind ast.NameKind, module *string, loc ast.Range) []ast.Buyer {
		return append(acc, ast.Buyer{
			NodeID:      nodeID,
			Name:        name,
			Kind:        kind,
			Module:      module,
			UsageModule: b.moduleName,
			UsageLoc:    loc,
		})
	}

	switch n := node.(type) {
	// ExpInfixApp's operator is itself a *ast.ExpVar (n.Op), walked as a
	// plain child below, so it is covered by the ExpVar case already;
	// original_source/parser/scope.py special-cases ExpInfixApp directly
	// because its port of the AST stores the operator's name/module on
	// the infix node itself rather than as a nested variable reference.
	case *ast.ExpVar:
		return add(n.ID(), n.Name, ast.TermName, n.Module, n.Loc())
	case *ast.ExpCon:
		return add(n.ID(), n.Name, ast.TermName, n.Module, n.Loc())
	case *ast.PApp:
		return add(n.ID(), n.Name, ast.TermName, n.Module, n.Loc())
	case *ast.PInfix:
		return add(n.ID(), n.Name, ast.TermName, n.Module, n.Loc())
	case *ast.TyCon:
		return add(n.ID(), n.Name, ast.TypeName, n.Module, n.Loc())
	case *ast.InstDecl:
		return add(n.ID(), n.Name, ast.TypeName, n.Module, n.Loc())
	}
	return acc
}

func (buyerVisitor) Leave(acc []ast.Buyer, node ast.Node, parent ast.Node) []ast.Buyer {
	return acc
}

// GatherBuyers walks every module collecting use sites, matching
// original_source/parser/scope.py's get_buyers.
func GatherBuyers(modules []*ast.Module) []ast.Buyer {
	var buyers []ast.Buyer
	for _, m := range modules {
		buyers = ast.Walk(m, nil, buyerVisitor{moduleName: m.Name}, buyers)
	}
	return buyers
}

// InRange reports whether vendor is visible from buyer's usage site,
// matching original_source/parser/scope.py's in_range. importMap gives, per
// module, the set of module names it imports (bitbucket.org/creachadair/
// stringset, the same set type packages.go's declarationMappings uses for
// a module's visible-names set).
func InRange(buyer ast.Buyer, vendor ast.Vendor, importMap map[string]stringset.Set) bool {
	if vendor.Name != buyer.Name {
		return false
	}
	if buyer.Module != nil && vendor.Module != *buyer.Module {
		return false
	}
	if vendor.Kind != buyer.Kind {
		return false
	}
	if vendor.EffectiveRange.IsGlobal {
		if vendor.Module == buyer.UsageModule {
			return true
		}
		return importMap[buyer.UsageModule].Contains(vendor.Module)
	}
	if vendor.Module != buyer.UsageModule {
		return false
	}
	if !ast.Within(buyer.UsageLoc, vendor.EffectiveRange.Range) {
		return false
	}
	for _, ex := range vendor.EffectiveRange.Excludes {
		if ast.Within(buyer.UsageLoc, ex) {
			return false
		}
	}
	return true
}

// builtinFallback is the fixed table allocate_buyers falls back to when no
// vendor is in range for a buyer's name: the handful of names the surface
// language treats as always available without an explicit Prelude
// declaration (spec.md §4.6 rule 5).
var builtinFallback = map[string]string{
	"undefined": "builtin_bottom",
	"unit":      "builtin_unit",
	"Top":       "builtin_Top",
	":":         "builtin_cons",
	"Int":       "builtin_Int",
	"Char":      "builtin_Char",
	"Float":     "builtin_Float",
}

const builtinModule = "builtin"

// ImportError reports a use site that resolved to no vendor and has no
// builtin fallback (original_source/parser/scope.py's allocate_buyers
// import_errors list, surfaced here as a proper error type instead of a
// side list the caller must remember to check).
type ImportError struct {
	Buyer ast.Buyer
}

func (e *ImportError) Error() string {
	kind := "value"
	if e.Buyer.Kind == ast.TypeName {
		kind = "type"
	}
	return fmt.Sprintf("%s: unresolved %s %q at %s", e.Buyer.UsageModule, kind, e.Buyer.Name, e.Buyer.UsageLoc)
}

// AllocateBuyers resolves every buyer against the vendor list, matching
// original_source/parser/scope.py's allocate_buyers. When more than one
// vendor is in range for a buyer, a non-global vendor always wins over a
// global one, and among ranged vendors the one whose range starts latest
// (the innermost, most recently declared) wins - shadowing semantics.
// Returns every resolved buyer plus a combined error (via go.uber.org/
// multierr) naming every unresolved
// use site, so a caller can report them all instead of only the first.
func AllocateBuyers(vendors []ast.Vendor, buyers []ast.Buyer, importMap map[string]stringset.Set) ([]ast.Buyer, error) {
	resolved := make([]ast.Buyer, 0, len(buyers))
	var errs error
	for _, buyer := range buyers {
		var candidates []ast.Vendor
		for _, v := range vendors {
			if InRange(buyer, v, importMap) {
				candidates = append(candidates, v)
			}
		}
		if len(candidates) == 0 {
			canonical, ok := builtinFallback[buyer.Name]
			if !ok {
				errs = multierr.Append(errs, &ImportError{Buyer: buyer})
				continue
			}
			buyer.CanonicalName = canonical
			buyer.ResolvedModule = builtinModule
			resolved = append(resolved, buyer)
			continue
		}

		smallest := candidates[0]
		for _, v := range candidates[1:] {
			if smallest.EffectiveRange.IsGlobal {
				smallest = v
				continue
			}
			if v.EffectiveRange.Range.Start.After(smallest.EffectiveRange.Range.Start) {
				smallest = v
			}
		}
		buyer.CanonicalName = smallest.CanonicalName
		buyer.ResolvedModule = smallest.Module
		resolved = append(resolved, buyer)
	}
	return resolved, errs
}

type renameVisitor struct {
	vendorsByNode map[int][]ast.Vendor
	buyersByNode  map[int]ast.Buyer
}

func (r renameVisitor) Enter(acc struct{}, node ast.Node, parent ast.Node) struct{} {
	switch n := node.(type) {
	case *ast.PVar:
		if vs, ok := r.vendorsByNode[n.ID()]; ok {
			n.CanonicalName = vs[0].CanonicalName
		}
	case *ast.DataCon:
		if vs, ok := r.vendorsByNode[n.ID()]; ok {
			n.CanonicalName = vs[0].CanonicalName
		}
	case *ast.DeclHead:
		if vs, ok := r.vendorsByNode[n.ID()]; ok {
			n.CanonicalName = vs[0].CanonicalName
		}
	case *ast.TypeSig:
		byName := make(map[string]string, len(r.vendorsByNode[n.ID()]))
		for _, v := range r.vendorsByNode[n.ID()] {
			byName[v.Name] = v.CanonicalName
		}
		canon := make([]string, len(n.Names))
		for i, name := range n.Names {
			canon[i] = byName[name]
		}
		n.CanonicalNames = canon

	case *ast.ExpVar:
		if b, ok := r.buyersByNode[n.ID()]; ok {
			mod := b.ResolvedModule
			n.CanonicalName = b.CanonicalName
			n.Module = &mod
		}
	case *ast.ExpCon:
		if b, ok := r.buyersByNode[n.ID()]; ok {
			mod := b.ResolvedModule
			n.CanonicalName = b.CanonicalName
			n.Module = &mod
		}
	case *ast.PApp:
		if b, ok := r.buyersByNode[n.ID()]; ok {
			mod := b.ResolvedModule
			n.CanonicalName = b.CanonicalName
			n.Module = &mod
		}
	case *ast.PInfix:
		if b, ok := r.buyersByNode[n.ID()]; ok {
			mod := b.ResolvedModule
			n.CanonicalName = b.CanonicalName
			n.Module = &mod
		}
	case *ast.TyCon:
		if b, ok := r.buyersByNode[n.ID()]; ok {
			mod := b.ResolvedModule
			n.CanonicalName = b.CanonicalName
			n.Module = &mod
		}
	case *ast.InstDecl:
		if b, ok := r.buyersByNode[n.ID()]; ok {
			mod := b.ResolvedModule
			n.CanonicalName = b.CanonicalName
			n.Module = &mod
		}
	}
	return acc
}

func (renameVisitor) Leave(acc struct{}, node ast.Node, parent ast.Node) struct{} {
	return acc
}

// Rename writes every resolved canonical name (and, for buyers, resolved
// module) back onto the AST in place, matching original_source/parser/
// rename.py's update_rename/rename. Must run after AllocateBuyers has
// returned with no ImportErrors (spec.md §4.6).
func Rename(modules []*ast.Module, vendors []ast.Vendor, buyers []ast.Buyer) {
	vendorsByNode := make(map[int][]ast.Vendor, len(vendors))
	for _, v := range vendors {
		vendorsByNode[v.NodeID] = append(vendorsByNode[v.NodeID], v)
	}
	buyersByNode := make(map[int]ast.Buyer, len(buyers))
	for _, b := range buyers {
		buyersByNode[b.NodeID] = b
	}
	visitor := renameVisitor{vendorsByNode: vendorsByNode, buyersByNode: buyersByNode}
	for _, m := range modules {
		ast.Walk(m, nil, visitor, struct{}{})
	}
}

// ModuleTags assigns each module its canonical-name tag in file-list
// order: "p" for Prelude, "m<i>" for every other module, where i is the
// module's position in names (original_source/parser/system.py's
// parse_modules: state.module_mapping[module.name] = 'm' + str(i), i the
// overall enumerate() index, not a Prelude-excluded counter).
func ModuleTags(names []string) map[string]string {
	tags := make(map[string]string, len(names))
	for i, name := range names {
		if name == "Prelude" {
			tags[name] = "p"
			continue
		}
		tags[name] = fmt.Sprintf("m%d", i)
	}
	return tags
}

// InjectPrelude appends an implicit "Prelude" import to every non-Prelude
// module that does not already import it, matching
// original_source/parser/system.py's parse_modules. Mutates each module's
// Imports slice in place.
func InjectPrelude(modules []*ast.Module) {
	for _, m := range modules {
		if m.Name == "Prelude" {
			continue
		}
		hasPrelude := false
		for _, imp := range m.Imports {
			if imp == "Prelude" {
				hasPrelude = true
				break
			}
		}
		if !hasPrelude {
			m.Imports = append(m.Imports, "Prelude")
		}
	}
}

// ImportMap builds the module-name -> imported-module-names set lookup
// AllocateBuyers and InRange need, from each module's (already
// Prelude-injected) Imports list.
func ImportMap(modules []*ast.Module) map[string]stringset.Set {
	out := make(map[string]stringset.Set, len(modules))
	for _, m := range modules {
		out[m.Name] = stringset.New(m.Imports...)
	}
	return out
}

// SortedModuleNames is a small convenience for callers that need a
// deterministic iteration order over a module-name set (e.g. reporting);
// not used by the resolution pipeline itself, which is already
// file-list-order-driven throughout.
func SortedModuleNames(modules []*ast.Module) []string {
	names := make([]string, len(modules))
	for i, m := range modules {
		names[i] = m.Name
	}
	sort.Strings(names)
	return names
}
