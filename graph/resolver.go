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

package graph

import (
	"fmt"
	"strings"

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/metadata"
)

// Resolve links raw metadata produced by the extractor. The raw nodes are reused and must not be
// shared with another graph. The returned error, if any, is a gqlerrors.Errors.
func Resolve(raw *metadata.AppMetadata) (*Graph, error) {
	r := &resolver{
		arena:     map[string]*metadata.TypeNode{},
		resolved:  map[string]*metadata.TypeNode{},
		resolving: map[string]bool{},
	}

	models := r.merge(raw.Models)
	inputs := r.merge(raw.Inputs)
	for _, nodes := range []*metadata.TypeMap{models, inputs} {
		for _, name := range nodes.Names() {
			if _, exists := r.arena[name]; !exists {
				node, _ := nodes.Get(name)
				r.arena[name] = node
			}
		}
	}

	app := metadata.New()
	r.section = metadata.SectionModels
	for _, name := range models.Names() {
		app.Models.Add(r.resolveNamed(name))
	}

	r.section = metadata.SectionInputs
	for _, name := range inputs.Names() {
		if !models.Has(name) {
			app.Inputs.Add(r.resolveNamed(name))
			continue
		}
		// Shadowed by a model of the same name.
		node, _ := inputs.Get(name)
		app.Inputs.Add(r.resolveBody(node, name))
	}

	r.section = metadata.SectionContext
	for _, node := range r.merge(raw.Context).Values() {
		app.Context.Add(r.resolveNode(node, node.Name))
	}

	for _, kind := range metadata.OperationKinds {
		r.section = metadata.SectionOf(kind)
		ops := app.Operations(kind)
		for _, op := range raw.Operations(kind).Values() {
			if op.InputType != nil {
				op.InputType = r.resolveNode(op.InputType, op.Name)
			}
			op.ReturnType = r.resolveNode(op.ReturnType, op.Name)
			ops.Add(op)
		}
	}

	// Point every reference at the final node. Intersections replace their arena entry once
	// flattened so a back-edge taken mid-resolution may have seen the intersection node.
	for _, ref := range r.references {
		ref.Target = r.arena[ref.ReferenceName]
	}

	if r.errs.HaveOccurred() {
		return nil, r.errs
	}
	return &Graph{
		app:      app,
		arena:    r.arena,
		dangling: r.dangling,
	}, nil
}

type resolver struct {
	arena     map[string]*metadata.TypeNode
	resolved  map[string]*metadata.TypeNode
	resolving map[string]bool

	references []*metadata.TypeNode
	dangling   []Dangling
	section    metadata.Section
	errs       gqlerrors.Errors
}

func (r *resolver) fail(node *metadata.TypeNode, format string, args ...interface{}) {
	errArgs := []interface{}{gqlerrors.Op("graph.Resolve"), gqlerrors.ErrKindUnsupportedType}
	if loc := node.Location; !loc.IsZero() {
		errArgs = append(errArgs, gqlerrors.ErrorLocation{File: loc.File, Line: loc.Line, Column: loc.Column})
	}
	r.errs.Emplace(fmt.Sprintf(format, args...), errArgs...)
}

// merge folds declarations sharing a name into one node. Properties and enum values of later
// declarations replace earlier ones with the same name and are otherwise appended.
func (r *resolver) merge(nodes *metadata.TypeMap) *metadata.TypeMap {
	result := metadata.NewTypeMap()
	for _, name := range nodes.Names() {
		all := nodes.All(name)
		merged := all[0]
		for _, next := range all[1:] {
			merged = r.mergeNodes(merged, next)
		}
		result.Add(merged)
	}
	return result
}

func (r *resolver) mergeNodes(a, b *metadata.TypeNode) *metadata.TypeNode {
	if a.Kind != b.Kind {
		r.fail(b, `"%s" is declared as both %s and %s`, b.Name, a.Kind, b.Kind)
		return a
	}

	merged := a.Clone()
	if b.Description != "" {
		merged.Description = b.Description
	}
	if b.DeprecationReason != "" {
		merged.DeprecationReason = b.DeprecationReason
	}

	switch a.Kind {
	case metadata.KindObject:
		for _, prop := range b.Properties {
			replaced := false
			for i, existing := range merged.Properties {
				if existing.Name == prop.Name {
					merged.Properties[i] = prop
					replaced = true
					break
				}
			}
			if !replaced {
				merged.Properties = append(merged.Properties, prop)
			}
		}

	case metadata.KindEnum:
		for _, value := range b.Values {
			replaced := false
			for i, existing := range merged.Values {
				if existing.Key == value.Key {
					merged.Values[i] = value
					replaced = true
					break
				}
			}
			if !replaced {
				merged.Values = append(merged.Values, value)
			}
		}

	default:
		merged.Members = append(merged.Members, b.Members...)
	}
	return merged
}

// resolveNamed returns the shared node for name. It returns nil when name is not declared or is
// being resolved further up the stack.
func (r *resolver) resolveNamed(name string) *metadata.TypeNode {
	if node, ok := r.resolved[name]; ok {
		return node
	}
	if r.resolving[name] {
		return nil
	}
	node := r.arena[name]
	if node == nil {
		return nil
	}

	r.resolving[name] = true
	result := r.resolveBody(node, name)
	delete(r.resolving, name)

	r.resolved[name] = result
	r.arena[name] = result
	return result
}

// resolveBody resolves the nodes reachable from a declared or inline node.
func (r *resolver) resolveBody(node *metadata.TypeNode, owner string) *metadata.TypeNode {
	switch node.Kind {
	case metadata.KindObject:
		for _, prop := range node.Properties {
			path := owner + "." + prop.Name
			prop.Type = r.resolveNode(prop.Type, path)
			if prop.Args != nil {
				prop.Args = r.resolveNode(prop.Args, path)
			}
		}

	case metadata.KindUnion:
		for i, member := range node.Members {
			node.Members[i] = r.resolveNode(member, owner)
		}

	case metadata.KindIntersection:
		return r.flatten(node, owner)
	}
	return node
}

// resolveNode resolves a node at a use site. References keep their own array and nullability flags
// and are linked to the shared target.
func (r *resolver) resolveNode(node *metadata.TypeNode, owner string) *metadata.TypeNode {
	if node.Kind != metadata.KindReference {
		return r.resolveBody(node, owner)
	}

	name := node.ReferenceName
	if _, declared := r.arena[name]; !declared {
		r.dangling = append(r.dangling, Dangling{
			Reference: node,
			Owner:     owner,
			Section:   r.section,
		})
		return node
	}

	if r.resolving[name] {
		node.BackEdge = true
	} else {
		r.resolveNamed(name)
	}
	r.references = append(r.references, node)
	return node
}

// flatten merges the properties of every intersection member into one object node. A later member
// wins when two members declare the same property.
func (r *resolver) flatten(node *metadata.TypeNode, owner string) *metadata.TypeNode {
	result := &metadata.TypeNode{
		Kind:              metadata.KindObject,
		Name:              node.Name,
		Array:             node.Array,
		Nullable:          node.Nullable,
		CanBeUndefined:    node.CanBeUndefined,
		Description:       node.Description,
		DeprecationReason: node.DeprecationReason,
		Location:          node.Location,
	}

	var (
		descriptions []string
		index        = map[string]int{}
	)
	for _, member := range node.Members {
		var object *metadata.TypeNode
		switch member.Kind {
		case metadata.KindReference:
			name := member.ReferenceName
			if _, declared := r.arena[name]; !declared {
				r.dangling = append(r.dangling, Dangling{
					Reference: member,
					Owner:     owner,
					Section:   r.section,
				})
				continue
			}
			if !r.resolving[name] {
				object = r.resolveNamed(name)
				break
			}
			// An object further up the stack shares its property edges, which are completed in place
			// once its resolution returns. Only an intersection in progress has no properties yet.
			object = r.arena[name]
			if object.Kind == metadata.KindIntersection {
				r.fail(node, `intersection "%s" includes "%s" which includes it in turn`, owner, name)
				continue
			}

		case metadata.KindObject, metadata.KindIntersection:
			object = r.resolveBody(member, owner)
		}

		if object == nil || object.Kind != metadata.KindObject {
			r.fail(node, `intersection "%s" has member %s which is not an object`, owner, member)
			continue
		}

		if object.Description != "" {
			descriptions = append(descriptions, object.Description)
		}
		for _, prop := range object.Properties {
			if i, exists := index[prop.Name]; exists {
				result.Properties[i] = prop
				continue
			}
			index[prop.Name] = len(result.Properties)
			result.Properties = append(result.Properties, prop)
		}
	}

	if result.Description == "" {
		result.Description = strings.Join(descriptions, " & ")
	}
	return result
}
