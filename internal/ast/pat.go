package ast

// Pat is implemented by every pattern node.
type Pat interface {
	Node
	isPat()
}

// PWildcard is the "_" pattern; it binds nothing.
type PWildcard struct {
	base
}

func (PWildcard) isPat() {}

// NewPWildcard constructs a wildcard pattern.
func NewPWildcard(id int, loc Range) *PWildcard {
	return &PWildcard{NewBase(id, loc)}
}

// PVar is a variable-binding pattern, e.g. the "x" in "f x = ...".
type PVar struct {
	base
	Name          string
	CanonicalName string // filled in by the renamer
}

func (*PVar) isPat() {}

// NewPVar constructs a variable pattern.
func NewPVar(id int, loc Range, name string) *PVar {
	return &PVar{base: NewBase(id, loc), Name: name}
}

// PLit wraps a literal pattern; Kind distinguishes int/char/string/frac.
type LitKind int

const (
	LitInt LitKind = iota
	LitChar
	LitString
	LitFrac
)

// PLit is a literal pattern (matches against int/char/string/float constants).
type PLit struct {
	base
	Kind LitKind
}

func (*PLit) isPat() {}

// NewPLit constructs a literal pattern.
func NewPLit(id int, loc Range, kind LitKind) *PLit {
	return &PLit{base: NewBase(id, loc), Kind: kind}
}

// PList is a list pattern "[p1, p2, ...]".
type PList struct {
	base
	Pats []Pat
}

func (*PList) isPat() {}

// NewPList constructs a list pattern.
func NewPList(id int, loc Range, pats []Pat) *PList {
	return &PList{base: NewBase(id, loc), Pats: pats}
}

// PTuple is a tuple pattern "(p1, p2, ...)".
type PTuple struct {
	base
	Pats []Pat
}

func (*PTuple) isPat() {}

// NewPTuple constructs a tuple pattern.
func NewPTuple(id int, loc Range, pats []Pat) *PTuple {
	return &PTuple{base: NewBase(id, loc), Pats: pats}
}

// PApp is a constructor-application pattern "K p1 p2 ...".
type PApp struct {
	base
	Name          string
	Module        *string // non-nil for a qualified constructor reference "M.K"
	CanonicalName string  // filled in by the renamer
	Pats          []Pat
}

func (*PApp) isPat() {}

// NewPApp constructs a constructor-application pattern.
func NewPApp(id int, loc Range, name string, module *string, pats []Pat) *PApp {
	return &PApp{base: NewBase(id, loc), Name: name, Module: module, Pats: pats}
}

// PInfix is an infix constructor pattern "p1 : p2".
type PInfix struct {
	base
	Pat1          Pat
	Name          string
	Module        *string
	CanonicalName string // filled in by the renamer
	Pat2          Pat
}

func (*PInfix) isPat() {}

// NewPInfix constructs an infix constructor pattern.
func NewPInfix(id int, loc Range, pat1 Pat, name string, module *string, pat2 Pat) *PInfix {
	return &PInfix{base: NewBase(id, loc), Pat1: pat1, Name: name, Module: module, Pat2: pat2}
}

// NamesFromPat collects the (name, nodeID) pairs bound by pat, in
// left-to-right order, the way the original's scope.names_from_pat does.
func NamesFromPat(pat Pat) []struct {
	Name string
	ID   int
} {
	var out []struct {
		Name string
		ID   int
	}
	var walk func(Pat)
	walk = func(p Pat) {
		switch n := p.(type) {
		case *PVar:
			out = append(out, struct {
				Name string
				ID   int
			}{n.Name, n.id})
		case *PApp:
			for _, sub := range n.Pats {
				walk(sub)
			}
		case *PList:
			for _, sub := range n.Pats {
				walk(sub)
			}
		case *PTuple:
			for _, sub := range n.Pats {
				walk(sub)
			}
		case *PInfix:
			walk(n.Pat1)
			walk(n.Pat2)
		case *PWildcard, *PLit:
			// binds nothing
		}
	}
	walk(pat)
	return out
}

// CanonicalNamesFromPat collects the canonical names bound by pat, in
// left-to-right order. Every PVar reached must already have been renamed.
func CanonicalNamesFromPat(pat Pat) []string {
	var out []string
	var walk func(Pat)
	walk = func(p Pat) {
		switch n := p.(type) {
		case *PVar:
			out = append(out, n.CanonicalName)
		case *PApp:
			for _, sub := range n.Pats {
				walk(sub)
			}
		case *PList:
			for _, sub := range n.Pats {
				walk(sub)
			}
		case *PTuple:
			for _, sub := range n.Pats {
				walk(sub)
			}
		case *PInfix:
			walk(n.Pat1)
			walk(n.Pat2)
		case *PWildcard, *PLit:
		}
	}
	walk(pat)
	return out
}
