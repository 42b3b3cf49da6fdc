/**
 * Copyright (c) 2019, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package declaration defines the parsed declaration tree consumed by the extractor.
//
// Declarations can be built in memory with the constructors in this package or loaded from YAML
// files with Load and Parse. Either way the tree is plain data: shapes are not validated here. A
// shape the extractor cannot classify is reported by the extractor with the declaration location.
package declaration

import (
	"github.com/botobag/typegraph/metadata"
)

// ShapeKind classifies a Shape.
type ShapeKind uint8

// Enumeration of ShapeKind
const (
	// ShapeInvalid marks a shape the front end could not make sense of. The extractor rejects it.
	ShapeInvalid ShapeKind = iota
	ShapePrimitive
	ShapeNamed
	ShapeObject
	ShapeLiteral
	ShapeEnum
	ShapeUnion
	ShapeIntersection

	// ShapeModel wraps a target object with per-field resolver arguments.
	ShapeModel

	// ShapeOperation describes a function from Input to Returns.
	ShapeOperation
)

// Field is a named member of an object shape.
type Field struct {
	Name     string
	Shape    *Shape
	Optional bool

	// Args is an object shape describing resolver arguments of the field.
	Args *Shape

	Description string
	Deprecated  string
	Location    metadata.Location
}

// EnumEntry is one constant of an enum shape.
type EnumEntry struct {
	Key         string
	Value       interface{}
	Description string
	Deprecated  string
}

// Shape is the declared form of a type.
type Shape struct {
	Kind ShapeKind

	// Primitive holds the primitive name as written (e.g., "string").
	Primitive string

	// Name is the target of a ShapeNamed.
	Name string

	Fields  []*Field
	Literal interface{}
	Enum    []*EnumEntry
	Members []*Shape

	// Target and FieldArgs are set for ShapeModel.
	Target    *Shape
	FieldArgs []*Field

	// Input and Returns are set for ShapeOperation.
	Input   *Shape
	Returns *Shape

	Array    bool
	Nullable bool

	// Raw is the source text for shapes that came from a file. Used in error messages.
	Raw string
}

// Declaration binds a name to a shape in one section.
type Declaration struct {
	Name        string
	Shape       *Shape
	Description string
	Deprecated  string
	Location    metadata.Location
}

// Declarations is the root of the tree.
type Declarations struct {
	Models        []*Declaration
	Inputs        []*Declaration
	Context       []*Declaration
	Queries       []*Declaration
	Mutations     []*Declaration
	Subscriptions []*Declaration

	// Actions are keyed by route, e.g. "GET /posts/:id".
	Actions []*Declaration
}

// Section returns the declarations of a section.
func (d *Declarations) Section(section metadata.Section) []*Declaration {
	switch section {
	case metadata.SectionModels:
		return d.Models
	case metadata.SectionInputs:
		return d.Inputs
	case metadata.SectionContext:
		return d.Context
	case metadata.SectionQueries:
		return d.Queries
	case metadata.SectionMutations:
		return d.Mutations
	case metadata.SectionSubscriptions:
		return d.Subscriptions
	case metadata.SectionActions:
		return d.Actions
	}
	return nil
}

// Add appends decl to a section.
func (d *Declarations) Add(section metadata.Section, decl *Declaration) {
	switch section {
	case metadata.SectionModels:
		d.Models = append(d.Models, decl)
	case metadata.SectionInputs:
		d.Inputs = append(d.Inputs, decl)
	case metadata.SectionContext:
		d.Context = append(d.Context, decl)
	case metadata.SectionQueries:
		d.Queries = append(d.Queries, decl)
	case metadata.SectionMutations:
		d.Mutations = append(d.Mutations, decl)
	case metadata.SectionSubscriptions:
		d.Subscriptions = append(d.Subscriptions, decl)
	case metadata.SectionActions:
		d.Actions = append(d.Actions, decl)
	}
}

// Merge appends every declaration of other.
func (d *Declarations) Merge(other *Declarations) {
	for _, section := range Sections {
		for _, decl := range other.Section(section) {
			d.Add(section, decl)
		}
	}
}

// Sections lists sections in the order they are processed.
var Sections = []metadata.Section{
	metadata.SectionModels,
	metadata.SectionInputs,
	metadata.SectionContext,
	metadata.SectionQueries,
	metadata.SectionMutations,
	metadata.SectionSubscriptions,
	metadata.SectionActions,
}
