// Copyright 2022 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ast contains the internal abstract syntax tree, the logic-term
// algebra emitted by the constraint generator, and the name-resolution
// bookkeeping types (vendors, buyers, rule heads) shared across the
// front-end's stages.
package ast

import "fmt"

// Point is a (line, column) source position, both 1-based as produced by
// the concrete-syntax-tree layer.
type Point struct {
	Line   int
	Column int
}

// Before reports whether p is lexicographically no later than q.
func (p Point) Before(q Point) bool {
	return p.Line < q.Line || (p.Line == q.Line && p.Column <= q.Column)
}

// After reports whether p is lexicographically no earlier than q.
func (p Point) After(q Point) bool {
	return p.Line > q.Line || (p.Line == q.Line && p.Column >= q.Column)
}

func (p Point) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Range is a source span, ordered so that Start is lexicographically no
// later than End.
type Range struct {
	Start Point
	End   Point
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// Within reports whether loc lies inside bound, boundaries included: bound's start is
// no later than loc's start, and loc's end is no later than bound's end.
func Within(loc, bound Range) bool {
	return loc.Start.After(bound.Start) && loc.End.Before(bound.End)
}
