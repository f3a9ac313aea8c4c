// Package bundle orchestrates the whole front-end pipeline: parse every
// module's source through a cst.Parser, expand type synonyms, resolve
// names across the whole set, generate constraints, and gather the
// auxiliary tables (closures, arguments, classes, type variables) an
// external solver consumes, matching
// original_source/parser/system.py's parse_modules/static_analysis/
// run_modules. Pipeline.Run is the single entry point cmd/goannacli and
// any other host drive.
package bundle

import (
	"fmt"
	"sort"

	"github.com/golang/glog"
	"go.uber.org/multierr"

	"github.com/maybetonyfu/goanna/internal/ast"
	"github.com/maybetonyfu/goanna/internal/builder"
	"github.com/maybetonyfu/goanna/internal/closure"
	"github.com/maybetonyfu/goanna/internal/constraint"
	"github.com/maybetonyfu/goanna/internal/cst"
	"github.com/maybetonyfu/goanna/internal/scope"
	"github.com/maybetonyfu/goanna/internal/synonym"
)

// Source is one input module: its name and surface source text, matching
// original_source/parser/system.py's parse_modules "files: list[tuple[str,
// str]]" parameter.
type Source struct {
	ModuleName string
	Content    string
}

// ParsingError reports that a module's surface source could not be
// lowered to an AST, matching original_source/parser/state.py's
// HaskellParsingError. parse_modules stops at the first parse failure
// (its loop breaks rather than continuing to the next file); Pipeline.Run
// does the same.
type ParsingError struct {
	ModuleName string
	Err        error
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("bundle: %s: %v", e.ModuleName, e.Err)
}

func (e *ParsingError) Unwrap() error { return e.Err }

// FatalError wraps a condition that aborts the pipeline outright, beyond
// ordinary parsing or import-resolution failures: a cyclic type-synonym
// chain (internal/synonym.CyclicError), a cyclic class hierarchy
// (internal/closure.CyclicClassError), an unsupported multi-parameter
// class (internal/constraint.MultiParamClassError), or a malformed type
// synonym application (internal/synonym.ArityError). The Python original
// has no equivalent name for this category - each stage's exception just
// propagates out of run_modules uncaught - so this is the Go port's own
// uniform wrapper, letting a caller branch on "was this fatal" without
// knowing which stage produced it.
type FatalError struct {
	Stage string
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("bundle: %s: %v", e.Stage, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func fatal(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Stage: stage, Err: err}
}

// RuleOut is a Rule in the shape the external solver reads, matching
// original_source/parser/web.py's translate handler's inline dict
// construction ("head": r.head.model_dump(), "id": r.id, "axiom": r.axiom,
// "body": str(r.body)) - body is the term's printed form, not a nested
// structure, since the solver parses it back out of its own syntax.
type RuleOut struct {
	Head  RuleHeadOut `json:"head"`
	ID    *int        `json:"id"`
	Axiom bool        `json:"axiom"`
	Body  string      `json:"body"`
}

// RuleHeadOut mirrors original_source/parser/state.py's RuleHead pydantic
// model's field names exactly (type/name/module/id).
type RuleHeadOut struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Module string `json:"module"`
	ID     int    `json:"id"`
}

// NodeRangeOut mirrors original_source/parser/state.py's NodeRange model.
type NodeRangeOut struct {
	FromLine int `json:"from_line"`
	ToLine   int `json:"to_line"`
	FromCol  int `json:"from_col"`
	ToCol    int `json:"to_col"`
}

func nodeRangeOf(r ast.Range) NodeRangeOut {
	return NodeRangeOut{FromLine: r.Start.Line, ToLine: r.End.Line, FromCol: r.Start.Column, ToCol: r.End.Column}
}

// EdgeOut is a parent/child node-id pair, matching web.py's
// {"parent": parent, "child": child} node_graph entries.
type EdgeOut struct {
	Parent int `json:"parent"`
	Child  int `json:"child"`
}

// IdentifierOut reports one unresolved use site, matching
// original_source/parser/state.py's Identifier.from_buyer.
type IdentifierOut struct {
	NodeID    int          `json:"node_id"`
	Name      string       `json:"name"`
	NodeRange NodeRangeOut `json:"node_range"`
	IsType    bool         `json:"is_type"`
	IsTerm    bool         `json:"is_term"`
}

func identifierOf(b ast.Buyer) IdentifierOut {
	return IdentifierOut{
		NodeID:    b.NodeID,
		Name:      b.Name,
		NodeRange: nodeRangeOf(b.UsageLoc),
		IsType:    b.Kind == ast.TypeName,
		IsTerm:    b.Kind == ast.TermName,
	}
}

// Output is everything a consumer downstream of this front-end needs,
// matching original_source/parser/state.py's InventoryInput - the record
// web.py actually serializes and returns from its "/translate" endpoint.
//
// TopLevels is carried for shape parity with InventoryInput but, as in
// the original (state.top_levels is declared, defaulted to an empty
// list, and never assigned anywhere in parse_modules/static_analysis/
// web.py), nothing in this pipeline ever populates it; it is always nil.
type Output struct {
	Declarations  []string                      `json:"declarations"`
	TopLevels     []string                      `json:"top_levels"`
	BaseModules   []string                      `json:"base_modules"`
	Rules         []RuleOut                     `json:"rules"`
	Arguments     closure.Arguments             `json:"arguments"`
	Classes       closure.Classes               `json:"classes"`
	TypeVars      closure.TypeVars              `json:"type_vars"`
	NodeDepth     closure.NodeDepth             `json:"node_depth"`
	NodeGraph     []EdgeOut                     `json:"node_graph"`
	MaxDepth      int                           `json:"max_depth"`
	Collectors    map[string][]string           `json:"collectors"`
	NodeRange     map[int]NodeRangeOut          `json:"node_range"`
	ParsingErrors []NodeRangeOut                `json:"parsing_errors"`
	ImportErrors  []IdentifierOut               `json:"import_errors"`
}

// bundleState is the concrete GlobalState constraint generation reads
// from and writes to, matching original_source/parser/state.py's State
// class's own implementation of the abstract GlobalState methods.
type bundleState struct {
	declarations []string
	closures     closure.Closures
	rules        []ast.Rule
	collectors   map[string][]string
}

func (s *bundleState) Declarations() []string { return s.declarations }

func (s *bundleState) AddRule(rule ast.Rule) {
	s.rules = append(s.rules, rule)
}

func (s *bundleState) IsParentOf(parent, child string) bool {
	parents, ok := s.closures[child]
	if !ok {
		return false
	}
	for _, p := range parents {
		if p == parent {
			return true
		}
	}
	return false
}

func (s *bundleState) AddClassVar(headName, classVar string) {
	s.collectors[headName] = append(s.collectors[headName], classVar)
}

// Pipeline runs the front-end over a fixed cst.Parser.
type Pipeline struct {
	Parser cst.Parser
}

// NewPipeline returns a Pipeline that lowers surface source through parser.
func NewPipeline(parser cst.Parser) *Pipeline {
	return &Pipeline{Parser: parser}
}

// Run is a pure function of sources and idCounterSeed (SPEC_FULL.md §C.6):
// the same inputs always produce the same Output, letting a caller diff
// two runs (e.g. with cmp.Diff) to confirm the pipeline is deterministic.
// When parsing or import resolution fails it returns the partial Output
// built so far (parsing-error ranges, or declarations plus import errors)
// alongside the non-nil error; when a fatal stage fails it returns a nil
// Output and a *FatalError.
func (p *Pipeline) Run(sources []Source, idCounterSeed int) (*Output, error) {
	glog.Infof("bundle: running pipeline over %d module(s)", len(sources))
	gen := ast.NewIDGenFrom(idCounterSeed)

	modules, parseErr := p.parseModules(sources, gen)
	if parseErr != nil {
		glog.Infof("bundle: parseModules failed: %v", parseErr)
		var ranges []NodeRangeOut
		if pe, ok := parseErr.(*ParsingError); ok {
			if be, ok := pe.Err.(*builder.ParsingError); ok {
				ranges = append(ranges, nodeRangeOf(be.Loc))
			}
		}
		return &Output{ParsingErrors: ranges}, parseErr
	}
	if glog.V(2) {
		glog.V(2).Infof("bundle: parsed %d module(s)", len(modules))
	}

	modules, err := synonym.Expand(modules, gen)
	if err != nil {
		glog.Infof("bundle: synonym.Expand failed: %v", err)
		return nil, fatal("synonym.Expand", err)
	}

	scope.InjectPrelude(modules)
	importMap := scope.ImportMap(modules)

	names := make([]string, len(modules))
	for i, m := range modules {
		names[i] = m.Name
	}
	moduleTags := scope.ModuleTags(names)

	vendors, err := scope.GatherVendors(modules, moduleTags)
	if err != nil {
		glog.Infof("bundle: scope.GatherVendors failed: %v", err)
		return nil, fatal("scope.GatherVendors", err)
	}
	declarations := scope.Declarations(vendors)
	glog.V(2).Infof("bundle: gathered %d vendor(s), %d declaration(s)", len(vendors), len(declarations))

	buyers := scope.GatherBuyers(modules)
	resolvedBuyers, importErr := scope.AllocateBuyers(vendors, buyers, importMap)
	if importErr != nil {
		glog.Infof("bundle: scope.AllocateBuyers reported %d import error(s)", len(multierr.Errors(importErr)))
		out := &Output{
			Declarations: declarations,
			ImportErrors: importErrorsOf(importErr),
		}
		return out, importErr
	}
	scope.Rename(modules, vendors, resolvedBuyers)

	nodeTable := closure.GatherNodeTable(modules)
	nodeDepth := closure.GatherNodeDepth(modules)
	maxDepth := 0
	for _, d := range nodeDepth {
		if d > maxDepth {
			maxDepth = d
		}
	}
	nodeGraph := closure.GatherNodeGraph(modules)

	// original_source/parser/system.py's static_analysis calls
	// gather_closures only after get_all_constraints has already run, and
	// never stores the result back into the state object constraint
	// generation reads through - so is_parent_of was always False in
	// every actual run, permanently disabling the zeta-chain widening
	// type_of's own logic is clearly written to perform for a reference
	// to a lexically nested declaration. Treated here as a pipeline-
	// wiring oversight rather than intended behavior: closures are
	// computed first and wired into the concrete GlobalState below.
	closures := closure.GatherClosures(modules)

	classes, err := closure.GatherClasses(modules)
	if err != nil {
		glog.Infof("bundle: closure.GatherClasses failed: %v", err)
		return nil, fatal("closure.GatherClasses", err)
	}
	typeVars := closure.GatherTypeVars(modules, classes)
	arguments := closure.GatherArguments(modules, closures)
	glog.V(2).Infof("bundle: gathered %d closure(s), %d class(es)", len(closures), len(classes))

	state := &bundleState{
		declarations: declarations,
		closures:     closures,
		collectors:   make(map[string][]string),
	}
	if err := constraint.GenerateConstraints(modules, state); err != nil {
		glog.Infof("bundle: constraint.GenerateConstraints failed: %v", err)
		return nil, fatal("constraint.GenerateConstraints", err)
	}
	glog.Infof("bundle: pipeline produced %d rule(s)", len(state.rules))

	nodeRangeOut := make(map[int]NodeRangeOut, len(nodeTable))
	for id, r := range nodeTable {
		nodeRangeOut[id] = nodeRangeOf(r)
	}

	edges := make([]EdgeOut, len(nodeGraph))
	for i, e := range nodeGraph {
		edges[i] = EdgeOut{Parent: e.Parent, Child: e.Child}
	}

	rules := make([]RuleOut, len(state.rules))
	for i, r := range state.rules {
		rules[i] = RuleOut{
			Head:  RuleHeadOut{Type: r.Head.Kind.String(), Name: r.Head.Name, Module: r.Head.Module, ID: r.Head.ID},
			ID:    r.NodeID,
			Axiom: r.Axiom,
			Body:  r.Body.String(),
		}
	}

	var baseModules []string
	for _, m := range modules {
		if m.Name == "Prelude" {
			baseModules = append(baseModules, "Prelude")
		}
	}

	return &Output{
		Declarations: declarations,
		BaseModules:  baseModules,
		Rules:        rules,
		Arguments:    arguments,
		Classes:      classes,
		TypeVars:     typeVars,
		NodeDepth:    nodeDepth,
		NodeGraph:    edges,
		MaxDepth:     maxDepth,
		Collectors:   state.collectors,
		NodeRange:    nodeRangeOut,
	}, nil
}

func (p *Pipeline) parseModules(sources []Source, gen *ast.IDGen) ([]*ast.Module, error) {
	modules := make([]*ast.Module, 0, len(sources))
	for _, src := range sources {
		root, err := p.Parser.Parse(src.ModuleName, src.Content)
		if err != nil {
			return nil, &ParsingError{ModuleName: src.ModuleName, Err: err}
		}
		m, err := builder.Build(root, gen, src.ModuleName)
		if err != nil {
			return nil, &ParsingError{ModuleName: src.ModuleName, Err: err}
		}
		modules = append(modules, m)
	}
	return modules, nil
}

func importErrorsOf(err error) []IdentifierOut {
	var out []IdentifierOut
	for _, e := range multierr.Errors(err) {
		if ie, ok := e.(*scope.ImportError); ok {
			out = append(out, identifierOf(ie.Buyer))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out
}
