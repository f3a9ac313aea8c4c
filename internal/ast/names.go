package ast

// NameKind distinguishes term-level names (values, constructors) from
// type-level names (type constructors, classes).
type NameKind int

const (
	// TermName is the kind for value and data-constructor names.
	TermName NameKind = iota
	// TypeName is the kind for type-constructor and class names.
	TypeName
)

func (k NameKind) String() string {
	if k == TypeName {
		return "type"
	}
	return "term"
}

// EffectiveRange is the source region a local vendor is visible in: either
// the global marker, or a single range plus a list of excluded sub-ranges
// carved out for the sibling where/let bindings declared before it
// (spec.md §3).
type EffectiveRange struct {
	IsGlobal bool
	Range    Range   // meaningful only when !IsGlobal
	Excludes []Range // earlier sibling bindings the vendor is not visible in
}

// Global is the effective range of a module-, class-, or instance-level
// binding: visible to any module that imports the vendor's module.
var Global = EffectiveRange{IsGlobal: true}

// Visible reports whether loc, used from usageModule, can see this
// effective range given vendorModule and the caller's allowed-imports set.
// allowedImports must already include usageModule itself and its
// transitive Prelude injection (spec.md §4.6 rules 3-4).
func (r EffectiveRange) Visible(loc Range, usageModule, vendorModule string, allowedImports map[string]bool) bool {
	if r.IsGlobal {
		return allowedImports[vendorModule]
	}
	if usageModule != vendorModule {
		return false
	}
	if !Within(loc, r.Range) {
		return false
	}
	for _, ex := range r.Excludes {
		if Within(loc, ex) {
			return false
		}
	}
	return true
}

// Vendor is a binding site: a declaration, parameter, pattern variable,
// constructor, or class/type head, together with the range it is visible
// in (spec.md §3 "Vendor"). Immutable after creation.
type Vendor struct {
	NodeID          int
	Name            string
	Kind            NameKind
	IsDeclaration   bool
	Module          string
	CanonicalName   string
	EffectiveRange  EffectiveRange
}

// Buyer is a use site: a variable, constructor, type constructor, or
// instance head reference (spec.md §3 "Buyer"). CanonicalName and Module
// are filled in by the allocator.
type Buyer struct {
	NodeID        int
	Name          string
	Kind          NameKind
	Module        *string // the qualifier, if the reference was "M.x"
	UsageModule   string
	UsageLoc      Range
	CanonicalName string // empty until the allocator resolves it
	ResolvedModule string
}

// RuleHead identifies the accumulation point rules attach to: a type rule
// per declared name, or an instance rule per (class, instance-id) pair
// (spec.md §3 "Rule head").
type RuleHead struct {
	Kind   RuleHeadKind
	Name   string
	Module string
	ID     int // 0 for type rules; disambiguates overlapping instances
}

// RuleHeadKind distinguishes a per-declaration type rule from a
// per-instance rule.
type RuleHeadKind int

const (
	// TypeRuleHead accumulates rules for a declared name's type.
	TypeRuleHead RuleHeadKind = iota
	// InstanceRuleHead accumulates rules for one class instance.
	InstanceRuleHead
)

func (k RuleHeadKind) String() string {
	if k == InstanceRuleHead {
		return "instance"
	}
	return "type"
}

func (h RuleHead) String() string {
	return h.Name
}

// Rule is a single emitted logic rule: either an axiom (always true,
// unattributed) or a defeasible rule attributed to the AST node it came
// from, for error localization (spec.md §3 "Rule").
type Rule struct {
	Head   RuleHead
	Body   LogicTerm
	Axiom  bool
	NodeID *int // nil for axioms
}
