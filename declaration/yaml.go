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

package declaration

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/internal/util"
	"github.com/botobag/typegraph/metadata"
)

var sectionNames = map[string]metadata.Section{
	"models":        metadata.SectionModels,
	"inputs":        metadata.SectionInputs,
	"context":       metadata.SectionContext,
	"queries":       metadata.SectionQueries,
	"mutations":     metadata.SectionMutations,
	"subscriptions": metadata.SectionSubscriptions,
	"actions":       metadata.SectionActions,
}

// Load reads declarations from a YAML file.
func Load(path string) (*Declarations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gqlerrors.NewError("cannot read declarations", gqlerrors.Op("declaration.Load"), err)
	}
	return Parse(data, path)
}

// LoadAll reads and merges declarations from several YAML files in order.
func LoadAll(paths ...string) (*Declarations, error) {
	var (
		result = &Declarations{}
		errs   gqlerrors.Errors
	)
	for _, path := range paths {
		decls, err := Load(path)
		if err != nil {
			errs.Append(err)
			continue
		}
		result.Merge(decls)
	}
	if errs.HaveOccurred() {
		return nil, errs
	}
	return result, nil
}

// Parse decodes declarations from YAML. A document looks like:
//
//	models:
//	  Post:
//	    description: A blog post
//	    fields:
//	      id: string
//	      title: string
//	      summary?: string | null
//	      category: Category
//	      comments:
//	        type: Comment[]
//	        args:
//	          first: number
//	  Status:
//	    enum: [DRAFT, PUBLISHED]
//	mutations:
//	  postSave:
//	    input: PostInput
//	    returns: Post
//	actions:
//	  "GET /posts/:id":
//	    args:
//	      id: string
//	    returns: Post | null
//
// filename is used in error locations only.
func Parse(data []byte, filename string) (*Declarations, error) {
	l := &loader{file: filename}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, gqlerrors.NewError("malformed declaration file", gqlerrors.Op("declaration.Parse"),
			gqlerrors.ErrorLocation{File: filename}, err)
	}

	decls := &Declarations{}
	if len(root.Content) == 0 {
		return decls, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		l.fail(doc, "declaration file must be a mapping of sections")
		return nil, l.errs
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, value := doc.Content[i], doc.Content[i+1]
		section, ok := sectionNames[key.Value]
		if !ok {
			l.fail(key, fmt.Sprintf(`unknown section "%s".%s`, key.Value,
				util.DidYouMean(key.Value, sectionList())))
			continue
		}
		if value.Kind != yaml.MappingNode {
			l.fail(value, fmt.Sprintf(`section "%s" must be a mapping`, key.Value))
			continue
		}
		for j := 0; j+1 < len(value.Content); j += 2 {
			decls.Add(section, l.declaration(section, value.Content[j], value.Content[j+1]))
		}
	}

	if l.errs.HaveOccurred() {
		return nil, l.errs
	}
	return decls, nil
}

func sectionList() []string {
	names := make([]string, 0, len(sectionNames))
	for _, section := range Sections {
		names = append(names, section.String())
	}
	return names
}

type loader struct {
	file string
	errs gqlerrors.Errors
}

func (l *loader) location(node *yaml.Node) metadata.Location {
	return metadata.Location{
		File:   l.file,
		Line:   uint(node.Line),
		Column: uint(node.Column),
	}
}

func (l *loader) fail(node *yaml.Node, message string) {
	loc := l.location(node)
	l.errs.Emplace(message,
		gqlerrors.Op("declaration.Parse"),
		gqlerrors.ErrorLocation{File: loc.File, Line: loc.Line, Column: loc.Column},
		gqlerrors.ErrKindUnsupportedType)
}

func (l *loader) declaration(section metadata.Section, key *yaml.Node, value *yaml.Node) *Declaration {
	decl := &Declaration{
		Name:     key.Value,
		Location: l.location(key),
	}

	switch section {
	case metadata.SectionQueries,
		metadata.SectionMutations,
		metadata.SectionSubscriptions,
		metadata.SectionActions:
		decl.Shape, decl.Description, decl.Deprecated = l.operation(value)
	default:
		decl.Shape, decl.Description, decl.Deprecated = l.shape(value)
	}
	return decl
}

// entries returns the value node of each key in a mapping.
func entries(node *yaml.Node) map[string]*yaml.Node {
	result := map[string]*yaml.Node{}
	if node.Kind != yaml.MappingNode {
		return result
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		result[node.Content[i].Value] = node.Content[i+1]
	}
	return result
}

func (l *loader) expr(node *yaml.Node) *Shape {
	if node.Kind != yaml.ScalarNode {
		shape, _, _ := l.shape(node)
		return shape
	}
	shape, err := ParseType(node.Value)
	if err != nil {
		l.fail(node, err.Error())
		return &Shape{Kind: ShapeInvalid, Raw: node.Value}
	}
	return shape
}

func (l *loader) exprs(node *yaml.Node) []*Shape {
	if node.Kind != yaml.SequenceNode {
		l.fail(node, "expected a list of type expressions")
		return nil
	}
	shapes := make([]*Shape, len(node.Content))
	for i, item := range node.Content {
		shapes[i] = l.expr(item)
	}
	return shapes
}

// shape decodes a type declaration along with its description and deprecation reason.
func (l *loader) shape(node *yaml.Node) (shape *Shape, description string, deprecated string) {
	switch node.Kind {
	case yaml.ScalarNode:
		return l.expr(node), "", ""
	case yaml.MappingNode:
	default:
		return &Shape{Kind: ShapeInvalid, Raw: "sequence"}, "", ""
	}

	m := entries(node)
	if v, ok := m["description"]; ok {
		description = v.Value
	}
	if v, ok := m["deprecated"]; ok {
		deprecated = v.Value
	}

	switch {
	case m["fields"] != nil:
		shape = Object(l.fields(m["fields"])...)
	case m["enum"] != nil:
		shape = Enum(l.enum(m["enum"])...)
	case m["union"] != nil:
		shape = Union(l.exprs(m["union"])...)
	case m["intersection"] != nil:
		shape = Intersection(l.exprs(m["intersection"])...)
	case m["model"] != nil:
		shape = Model(l.expr(m["model"]))
		if args := m["args"]; args != nil {
			shape.FieldArgs = l.modelArgs(args)
		}
	case m["type"] != nil:
		shape = l.expr(m["type"])
	default:
		keys := make([]string, 0, len(m))
		for i := 0; i+1 < len(node.Content); i += 2 {
			keys = append(keys, node.Content[i].Value)
		}
		shape = &Shape{Kind: ShapeInvalid, Raw: "mapping with keys " + strings.Join(keys, ", ")}
	}
	return shape, description, deprecated
}

func (l *loader) fields(node *yaml.Node) []*Field {
	if node.Kind != yaml.MappingNode {
		l.fail(node, "fields must be a mapping")
		return nil
	}

	fields := make([]*Field, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		field := &Field{
			Name:     strings.TrimSuffix(key.Value, "?"),
			Optional: strings.HasSuffix(key.Value, "?"),
			Location: l.location(key),
		}

		if value.Kind == yaml.MappingNode {
			m := entries(value)
			if args := m["args"]; args != nil {
				field.Args = Object(l.fields(args)...)
			}
			if optional := m["optional"]; optional != nil && optional.Value == "true" {
				field.Optional = true
			}
			if m["type"] == nil && m["fields"] == nil && m["enum"] == nil &&
				m["union"] == nil && m["intersection"] == nil && m["model"] == nil {
				// Only arguments and docs, e.g. {args: ..., description: ...} without a type.
				l.fail(value, fmt.Sprintf(`field "%s" has no type`, field.Name))
				field.Shape = &Shape{Kind: ShapeInvalid}
				fields = append(fields, field)
				continue
			}
		}

		field.Shape, field.Description, field.Deprecated = l.shape(value)
		fields = append(fields, field)
	}
	return fields
}

// modelArgs decodes a mapping from field name to the arguments of the field.
func (l *loader) modelArgs(node *yaml.Node) []*Field {
	if node.Kind != yaml.MappingNode {
		l.fail(node, "model args must be a mapping")
		return nil
	}
	result := make([]*Field, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		result = append(result, &Field{
			Name:     key.Value,
			Shape:    Object(l.fields(value)...),
			Location: l.location(key),
		})
	}
	return result
}

func (l *loader) enum(node *yaml.Node) []*EnumEntry {
	switch node.Kind {
	case yaml.SequenceNode:
		result := make([]*EnumEntry, 0, len(node.Content))
		for _, item := range node.Content {
			result = append(result, &EnumEntry{Key: item.Value, Value: item.Value})
		}
		return result

	case yaml.MappingNode:
		result := make([]*EnumEntry, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			entry := &EnumEntry{Key: key.Value}
			if value.Kind == yaml.MappingNode {
				m := entries(value)
				if v := m["value"]; v != nil {
					l.decodeValue(v, &entry.Value)
				} else {
					entry.Value = key.Value
				}
				if v := m["description"]; v != nil {
					entry.Description = v.Value
				}
				if v := m["deprecated"]; v != nil {
					entry.Deprecated = v.Value
				}
			} else {
				l.decodeValue(value, &entry.Value)
			}
			result = append(result, entry)
		}
		return result
	}

	l.fail(node, "enum must be a list or a mapping")
	return nil
}

func (l *loader) decodeValue(node *yaml.Node, v *interface{}) {
	if err := node.Decode(v); err != nil {
		l.fail(node, err.Error())
	}
}

// operation decodes an operation. A scalar is shorthand for the return type of an operation without
// input.
func (l *loader) operation(node *yaml.Node) (shape *Shape, description string, deprecated string) {
	if node.Kind == yaml.ScalarNode {
		return Operation(nil, l.expr(node)), "", ""
	}
	if node.Kind != yaml.MappingNode {
		return &Shape{Kind: ShapeInvalid, Raw: "sequence"}, "", ""
	}

	m := entries(node)
	if v, ok := m["description"]; ok {
		description = v.Value
	}
	if v, ok := m["deprecated"]; ok {
		deprecated = v.Value
	}

	shape = Operation(nil, nil)
	if returns := m["returns"]; returns != nil {
		shape.Returns = l.expr(returns)
	}
	switch {
	case m["input"] != nil:
		shape.Input = l.expr(m["input"])
	case m["args"] != nil:
		shape.Input = Object(l.fields(m["args"])...)
	}
	return shape, description, deprecated
}
