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

// Package extractor turns a declaration tree into raw metadata nodes.
//
// Extraction never stops at the first problem. Every declaration is visited and every shape that
// cannot be classified is reported, so one run surfaces everything that is wrong with the
// declarations. References stay unresolved; linking them is the job of the graph package.
package extractor

import (
	"fmt"
	"strings"

	"github.com/botobag/typegraph/declaration"
	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/metadata"
)

// Extract produces one raw node or operation per declared name. The returned error, if any, is a
// gqlerrors.Errors.
func Extract(decls *declaration.Declarations) (*metadata.AppMetadata, error) {
	x := &extractor{
		decls:     decls,
		app:       metadata.New(),
		unwrapped: map[string]bool{},
	}

	for _, section := range []metadata.Section{
		metadata.SectionModels,
		metadata.SectionInputs,
		metadata.SectionContext,
	} {
		types := x.app.Types(section)
		for _, decl := range decls.Section(section) {
			if node := x.declaredType(section, decl); node != nil {
				types.Add(node)
			}
		}
	}

	for _, kind := range metadata.OperationKinds {
		ops := x.app.Operations(kind)
		for _, decl := range decls.Section(metadata.SectionOf(kind)) {
			if op := x.operation(kind, decl); op != nil {
				ops.Add(op)
			}
		}
	}

	if x.errs.HaveOccurred() {
		return nil, x.errs
	}
	return x.app, nil
}

type extractor struct {
	decls *declaration.Declarations
	app   *metadata.AppMetadata
	errs  gqlerrors.Errors

	// unwrapped marks model wrappers whose targets are being expanded.
	unwrapped map[string]bool
}

// scope locates the shape being extracted for error reporting.
type scope struct {
	decl *declaration.Declaration
	path []string
	loc  metadata.Location
}

func (s scope) field(field *declaration.Field) scope {
	loc := s.loc
	if !field.Location.IsZero() {
		loc = field.Location
	}
	path := make([]string, len(s.path), len(s.path)+1)
	copy(path, s.path)
	return scope{
		decl: s.decl,
		path: append(path, field.Name),
		loc:  loc,
	}
}

func (s scope) String() string {
	if len(s.path) == 0 {
		return s.decl.Name
	}
	return s.decl.Name + "." + strings.Join(s.path, ".")
}

func (x *extractor) fail(s scope, format string, args ...interface{}) {
	errArgs := []interface{}{gqlerrors.Op("extractor.Extract"), gqlerrors.ErrKindUnsupportedType}
	if !s.loc.IsZero() {
		errArgs = append(errArgs, gqlerrors.ErrorLocation{File: s.loc.File, Line: s.loc.Line, Column: s.loc.Column})
	}
	x.errs.Emplace(fmt.Sprintf(`cannot extract "%s": %s`, s, fmt.Sprintf(format, args...)), errArgs...)
}

func (x *extractor) declaredType(section metadata.Section, decl *declaration.Declaration) *metadata.TypeNode {
	s := scope{decl: decl, loc: decl.Location}

	if section != metadata.SectionContext && decl.Shape != nil {
		switch decl.Shape.Kind {
		case declaration.ShapeObject,
			declaration.ShapeEnum,
			declaration.ShapeUnion,
			declaration.ShapeIntersection,
			declaration.ShapeModel:
		case declaration.ShapeInvalid:
			// Reported by typeNode.
		default:
			x.fail(s, "%s must declare an object, enum, union or intersection", section)
			return nil
		}
	}

	node := x.typeNode(s, decl.Shape)
	if node == nil {
		return nil
	}
	node.Name = decl.Name
	node.Description = decl.Description
	node.DeprecationReason = decl.Deprecated
	node.Location = decl.Location
	return node
}

func (x *extractor) operation(kind metadata.OperationKind, decl *declaration.Declaration) *metadata.OperationMetadata {
	s := scope{decl: decl, loc: decl.Location}
	shape := decl.Shape
	if shape == nil || shape.Kind != declaration.ShapeOperation {
		x.fail(s, "%s must be declared as an operation", kind)
		return nil
	}

	op := &metadata.OperationMetadata{
		Name:              decl.Name,
		Kind:              kind,
		Description:       decl.Description,
		DeprecationReason: decl.Deprecated,
		Location:          decl.Location,
	}

	ok := true
	if kind == metadata.OperationAction {
		route, err := metadata.ParseRoute(decl.Name)
		if err != nil {
			x.fail(s, "%s", err)
			ok = false
		}
		op.Route = route
	}

	if shape.Input != nil {
		op.InputType = x.typeNode(s, shape.Input)
		ok = ok && op.InputType != nil
	}

	if shape.Returns == nil {
		x.fail(s, "missing return type")
		return nil
	}
	op.ReturnType = x.typeNode(s, shape.Returns)
	if !ok || op.ReturnType == nil {
		return nil
	}
	return op
}

// typeNode classifies shape. It returns nil after reporting an error.
func (x *extractor) typeNode(s scope, shape *declaration.Shape) *metadata.TypeNode {
	if shape == nil {
		x.fail(s, "missing type")
		return nil
	}

	var node *metadata.TypeNode
	switch shape.Kind {
	case declaration.ShapePrimitive:
		primitive, ok := metadata.PrimitiveOf(shape.Primitive)
		if !ok {
			x.fail(s, `unknown primitive "%s"`, shape.Primitive)
			return nil
		}
		node = &metadata.TypeNode{Kind: metadata.KindPrimitive, Primitive: primitive}

	case declaration.ShapeNamed:
		node = &metadata.TypeNode{Kind: metadata.KindReference, ReferenceName: shape.Name}

	case declaration.ShapeLiteral:
		node = x.literal(s, shape.Literal)

	case declaration.ShapeObject:
		node = x.object(s, shape.Fields)

	case declaration.ShapeEnum:
		node = x.enum(s, shape.Enum)

	case declaration.ShapeUnion:
		node = x.union(s, shape.Members)

	case declaration.ShapeIntersection:
		node = x.intersection(s, shape.Members)

	case declaration.ShapeModel:
		node = x.model(s, shape)

	case declaration.ShapeOperation:
		x.fail(s, "an operation cannot be used as a type")
		return nil

	default:
		if shape.Raw != "" {
			x.fail(s, `unsupported type "%s"`, shape.Raw)
		} else {
			x.fail(s, "unsupported type")
		}
		return nil
	}

	if node == nil {
		return nil
	}
	if shape.Array {
		node.Array = true
	}
	if shape.Nullable {
		node.Nullable = true
	}
	node.Location = s.loc
	return node
}

func (x *extractor) literal(s scope, value interface{}) *metadata.TypeNode {
	node := &metadata.TypeNode{Kind: metadata.KindLiteral, Literal: value}
	switch value.(type) {
	case string:
		node.Primitive = metadata.PrimitiveString
	case int, int32, int64, float32, float64:
		node.Primitive = metadata.PrimitiveNumber
	case bool:
		node.Primitive = metadata.PrimitiveBoolean
	default:
		x.fail(s, "unsupported literal %v of type %T", value, value)
		return nil
	}
	return node
}

func (x *extractor) object(s scope, fields []*declaration.Field) *metadata.TypeNode {
	node := &metadata.TypeNode{
		Kind:       metadata.KindObject,
		Properties: make([]*metadata.PropertyEdge, 0, len(fields)),
	}

	ok := true
	seen := make(map[string]bool, len(fields))
	for _, field := range fields {
		fs := s.field(field)
		if seen[field.Name] {
			x.fail(fs, "duplicate field")
			ok = false
			continue
		}
		seen[field.Name] = true

		typ := x.typeNode(fs, field.Shape)
		if typ == nil {
			ok = false
			continue
		}
		if field.Optional {
			typ.CanBeUndefined = true
		}

		prop := &metadata.PropertyEdge{
			Name:              field.Name,
			Type:              typ,
			Description:       field.Description,
			DeprecationReason: field.Deprecated,
		}
		if field.Args != nil {
			prop.Args = x.arguments(fs, field.Args)
			if prop.Args == nil {
				ok = false
				continue
			}
		}
		node.Properties = append(node.Properties, prop)
	}

	if !ok {
		return nil
	}
	return node
}

// arguments extracts the argument shape of a field. Arguments are always an inline object.
func (x *extractor) arguments(s scope, shape *declaration.Shape) *metadata.TypeNode {
	if shape.Kind != declaration.ShapeObject {
		x.fail(s, "arguments must be an object")
		return nil
	}
	return x.typeNode(s, shape)
}

func (x *extractor) enum(s scope, entries []*declaration.EnumEntry) *metadata.TypeNode {
	if len(entries) == 0 {
		x.fail(s, "enum has no values")
		return nil
	}

	node := &metadata.TypeNode{Kind: metadata.KindEnum}
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if seen[entry.Key] {
			x.fail(s, `duplicate enum key "%s"`, entry.Key)
			return nil
		}
		seen[entry.Key] = true
		node.Values = append(node.Values, &metadata.EnumValue{
			Key:               entry.Key,
			Value:             entry.Value,
			Description:       entry.Description,
			DeprecationReason: entry.Deprecated,
		})
	}
	return node
}

func (x *extractor) union(s scope, members []*declaration.Shape) *metadata.TypeNode {
	if len(members) == 0 {
		x.fail(s, "union has no members")
		return nil
	}

	// A union of constants is an enum.
	allLiterals := true
	for _, member := range members {
		if member.Kind != declaration.ShapeLiteral || member.Array {
			allLiterals = false
			break
		}
	}
	if allLiterals {
		return x.enum(s, literalEntries(members))
	}

	node := &metadata.TypeNode{Kind: metadata.KindUnion}
	ok := true
	for _, member := range members {
		switch member.Kind {
		case declaration.ShapeNamed, declaration.ShapeObject, declaration.ShapeIntersection:
		default:
			x.fail(s, `union member "%s" must be an object or a named type`, shapeString(member))
			ok = false
			continue
		}
		if member.Array {
			x.fail(s, `union member "%s" cannot be a list`, shapeString(member))
			ok = false
			continue
		}
		m := x.typeNode(s, member)
		if m == nil {
			ok = false
			continue
		}
		node.Members = append(node.Members, m)
	}
	if !ok {
		return nil
	}
	return node
}

func literalEntries(members []*declaration.Shape) []*declaration.EnumEntry {
	entries := make([]*declaration.EnumEntry, len(members))
	for i, member := range members {
		entries[i] = &declaration.EnumEntry{
			Key:   fmt.Sprint(member.Literal),
			Value: member.Literal,
		}
	}
	return entries
}

func (x *extractor) intersection(s scope, members []*declaration.Shape) *metadata.TypeNode {
	if len(members) < 2 {
		x.fail(s, "intersection needs at least two members")
		return nil
	}

	node := &metadata.TypeNode{Kind: metadata.KindIntersection}
	ok := true
	for _, member := range members {
		switch member.Kind {
		case declaration.ShapeNamed, declaration.ShapeObject, declaration.ShapeIntersection, declaration.ShapeModel:
		default:
			x.fail(s, `intersection member "%s" must be an object or a named type`, shapeString(member))
			ok = false
			continue
		}
		m := x.typeNode(s, member)
		if m == nil {
			ok = false
			continue
		}
		node.Members = append(node.Members, m)
	}
	if !ok {
		return nil
	}
	return node
}

// model unwraps a model-with-arguments wrapper into its underlying object node and attaches the
// per-field argument shapes.
func (x *extractor) model(s scope, shape *declaration.Shape) *metadata.TypeNode {
	target := shape.Target
	if target == nil {
		x.fail(s, "model wrapper has no target")
		return nil
	}

	var node *metadata.TypeNode
	switch target.Kind {
	case declaration.ShapeObject:
		node = x.typeNode(s, target)

	case declaration.ShapeNamed:
		decl := x.lookup(target.Name)
		if decl == nil {
			x.fail(s, `model wrapper targets "%s" which is not a declared model or input`, target.Name)
			return nil
		}
		if x.unwrapped[decl.Name] {
			x.fail(s, `model wrapper around "%s" wraps itself`, decl.Name)
			return nil
		}
		x.unwrapped[decl.Name] = true
		node = x.typeNode(scope{decl: decl, loc: decl.Location}, decl.Shape)
		delete(x.unwrapped, decl.Name)
		if node != nil {
			node.Description = decl.Description
			node.DeprecationReason = decl.Deprecated
		}

	default:
		x.fail(s, `model wrapper target "%s" must be an object`, shapeString(target))
		return nil
	}

	if node == nil {
		return nil
	}
	if node.Kind != metadata.KindObject {
		x.fail(s, "model wrapper target must be an object, got %s", node.Kind)
		return nil
	}

	ok := true
	for _, args := range shape.FieldArgs {
		fs := s.field(args)
		prop := node.Property(args.Name)
		if prop == nil {
			x.fail(fs, "model wrapper declares arguments for an unknown field")
			ok = false
			continue
		}
		prop.Args = x.arguments(fs, args.Shape)
		ok = ok && prop.Args != nil
	}
	if !ok {
		return nil
	}
	return node
}

// lookup finds a declared model or input by name.
func (x *extractor) lookup(name string) *declaration.Declaration {
	for _, decls := range [][]*declaration.Declaration{x.decls.Models, x.decls.Inputs} {
		for _, decl := range decls {
			if decl.Name == name {
				return decl
			}
		}
	}
	return nil
}

func shapeString(shape *declaration.Shape) string {
	if shape.Raw != "" {
		return shape.Raw
	}
	switch shape.Kind {
	case declaration.ShapePrimitive:
		return shape.Primitive
	case declaration.ShapeNamed:
		return shape.Name
	case declaration.ShapeLiteral:
		return fmt.Sprintf("%#v", shape.Literal)
	case declaration.ShapeObject:
		return "{...}"
	case declaration.ShapeEnum:
		return "enum"
	case declaration.ShapeUnion:
		return "union"
	case declaration.ShapeIntersection:
		return "intersection"
	case declaration.ShapeModel:
		return "model"
	case declaration.ShapeOperation:
		return "operation"
	}
	return "invalid"
}
