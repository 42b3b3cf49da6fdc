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

package schema

import (
	"fmt"
	"strings"

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/graph"
	"github.com/botobag/typegraph/metadata"
	"github.com/botobag/typegraph/naming"
)

// Config controls synthesis.
type Config struct {
	// Naming derives type names. Defaults to naming.Default.
	Naming naming.Strategy

	// Assert rejects graphs which cannot be served faithfully, such as unions with members that are
	// not objects or objects without fields, instead of dropping the offending parts.
	Assert bool

	ResolveFactory   ResolveFactory
	SubscribeFactory SubscribeFactory
}

// Synthesize projects a resolved and checked graph into a schema. It does not modify the graph and
// produces structurally identical schemas when called repeatedly on the same graph.
//
// Every declared model becomes an object type and every declared input an input object, in
// declaration order. Inline shapes are named by composing the owner name and the field name. A model
// used as an input is given an input object named by composing its name with "Input".
func Synthesize(g *graph.Graph, config Config) (*Schema, error) {
	if config.Naming == nil {
		config.Naming = naming.Default{}
	}

	s := &synthesizer{
		graph:   g,
		config:  config,
		naming:  config.Naming,
		outputs: map[*metadata.TypeNode]NamedType{},
		inputs:  map[*metadata.TypeNode]NamedType{},
		schema: &Schema{
			types: map[string]NamedType{},
		},
	}

	app := g.App()
	for _, node := range app.Models.Values() {
		s.outputOf(node, "", "")
	}
	for _, node := range app.Inputs.Values() {
		s.inputOf(node, "", "")
	}

	s.schema.Query = s.root(metadata.OperationQuery, "Query")
	s.schema.Mutation = s.root(metadata.OperationMutation, "Mutation")
	s.schema.Subscription = s.root(metadata.OperationSubscription, "Subscription")

	// Fields are filled after every type exists so cyclic references can be bound.
	for i := 0; i < len(s.pending); i++ {
		s.pending[i]()
	}

	if s.errs.HaveOccurred() {
		return nil, s.errs
	}
	return s.schema, nil
}

type synthesizer struct {
	graph  *graph.Graph
	config Config
	naming naming.Strategy

	// outputs and inputs cache the types synthesized for a node in each context.
	outputs map[*metadata.TypeNode]NamedType
	inputs  map[*metadata.TypeNode]NamedType

	// pending fills fields of objects and input objects. It may grow while being drained.
	pending []func()

	schema *Schema
	errs   gqlerrors.Errors
}

func (s *synthesizer) fail(node *metadata.TypeNode, format string, args ...interface{}) {
	errArgs := []interface{}{gqlerrors.Op("schema.Synthesize"), gqlerrors.ErrKindInvalidSchema}
	if node != nil && !node.Location.IsZero() {
		loc := node.Location
		errArgs = append(errArgs, gqlerrors.ErrorLocation{File: loc.File, Line: loc.Line, Column: loc.Column})
	}
	s.errs.Emplace(fmt.Sprintf(format, args...), errArgs...)
}

// register adds t to the schema and reports a name taken by another type.
func (s *synthesizer) register(node *metadata.TypeNode, t NamedType) bool {
	name := t.TypeName()
	if existing, exists := s.schema.types[name]; exists {
		if existing != t {
			s.fail(node, `type name "%s" is used by more than one type`, name)
		}
		return false
	}
	s.schema.types[name] = t
	s.schema.Types = append(s.schema.Types, t)
	return true
}

// typeName names the type of node. Declared nodes keep their name; inline nodes are named after
// where they are used.
func (s *synthesizer) typeName(node *metadata.TypeNode, owner string, field string) string {
	if node.Name != "" {
		return s.naming.Capitalize(node.Name)
	}
	return s.naming.Compose(owner, field)
}

func (s *synthesizer) target(node *metadata.TypeNode) *metadata.TypeNode {
	if node.Kind != metadata.KindReference {
		return node
	}
	target := s.graph.Target(node)
	if target == nil {
		s.fail(node, `reference to "%s" is not resolved`, node.ReferenceName)
	}
	return target
}

func (s *synthesizer) scalar(primitive metadata.Primitive) *Scalar {
	scalar := ScalarOf(primitive)
	if !scalar.BuiltIn {
		s.register(nil, scalar)
	}
	return scalar
}

// outputType returns the type of a value of node used as a field type.
func (s *synthesizer) outputType(node *metadata.TypeNode, owner string, field string) *TypeRef {
	target := s.target(node)
	if target == nil {
		return nil
	}
	named := s.outputOf(target, owner, field)
	if named == nil {
		return nil
	}
	return &TypeRef{
		Named:   named,
		List:    node.Array,
		NonNull: node.IsRequired(),
	}
}

func (s *synthesizer) outputOf(node *metadata.TypeNode, owner string, field string) NamedType {
	if t, exists := s.outputs[node]; exists {
		return t
	}

	switch node.Kind {
	case metadata.KindPrimitive, metadata.KindLiteral:
		return s.scalar(node.Primitive)

	case metadata.KindEnum:
		return s.enum(node, owner, field)

	case metadata.KindObject:
		object := &Object{
			Name:        s.typeName(node, owner, field),
			Description: node.Description,
			Node:        node,
		}
		s.outputs[node] = object
		s.register(node, object)
		s.pending = append(s.pending, func() { s.objectFields(object) })
		return object

	case metadata.KindUnion:
		union := &Union{
			Name:        s.typeName(node, owner, field),
			Description: node.Description,
			Node:        node,
		}
		s.outputs[node] = union
		s.register(node, union)
		s.unionMembers(union)
		return union
	}

	s.fail(node, "%s %s cannot be served", node.Kind, node)
	return nil
}

func (s *synthesizer) enum(node *metadata.TypeNode, owner string, field string) *Enum {
	if t, exists := s.outputs[node]; exists {
		return t.(*Enum)
	}
	enum := &Enum{
		Name:        s.typeName(node, owner, field),
		Description: node.Description,
		Node:        node,
	}
	for _, value := range node.Values {
		enum.Values = append(enum.Values, &EnumValue{
			Name:              enumValueName(value.Key),
			Value:             value.Value,
			Description:       value.Description,
			DeprecationReason: value.DeprecationReason,
		})
	}
	s.outputs[node] = enum
	s.inputs[node] = enum
	s.register(node, enum)
	return enum
}

// enumValueName turns a key into a valid name by replacing invalid characters with underscores.
func enumValueName(key string) string {
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c == '_', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
			b.WriteByte(c)
		case c >= '0' && c <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

func (s *synthesizer) objectFields(object *Object) {
	node := object.Node
	if len(node.Properties) == 0 && s.config.Assert {
		s.fail(node, `object type "%s" has no fields`, object.Name)
	}

	for _, prop := range node.Properties {
		fieldType := s.outputType(prop.Type, object.Name, prop.Name)
		if fieldType == nil {
			continue
		}
		field := &Field{
			Name:              prop.Name,
			Type:              fieldType,
			Description:       prop.Description,
			DeprecationReason: prop.DeprecationReason,
			Property:          prop,
		}
		if prop.Args != nil {
			field.Args = s.arguments(prop.Args, s.naming.Compose(object.Name, prop.Name))
		}
		if s.config.ResolveFactory != nil {
			field.Resolve = s.config.ResolveFactory(object, field)
		}
		object.Fields = append(object.Fields, field)
	}
}

func (s *synthesizer) unionMembers(union *Union) {
	for _, member := range union.Node.Members {
		target := s.target(member)
		if target == nil {
			continue
		}
		if target.Kind != metadata.KindObject {
			if s.config.Assert {
				s.fail(union.Node, `union "%s" has member %s which is not an object type`, union.Name, member)
			}
			continue
		}
		object, ok := s.outputOf(target, union.Name, fmt.Sprintf("Member%d", len(union.Members)+1)).(*Object)
		if ok {
			union.Members = append(union.Members, object)
		}
	}
	if len(union.Members) == 0 && s.config.Assert {
		s.fail(union.Node, `union "%s" has no object members`, union.Name)
	}
}

// inputType returns the type of a value of node used as an argument or input field.
func (s *synthesizer) inputType(node *metadata.TypeNode, owner string, field string) *TypeRef {
	target := s.target(node)
	if target == nil {
		return nil
	}
	named := s.inputOf(target, owner, field)
	if named == nil {
		return nil
	}
	return &TypeRef{
		Named:   named,
		List:    node.Array,
		NonNull: node.IsRequired(),
	}
}

func (s *synthesizer) inputOf(node *metadata.TypeNode, owner string, field string) NamedType {
	if t, exists := s.inputs[node]; exists {
		return t
	}

	switch node.Kind {
	case metadata.KindPrimitive, metadata.KindLiteral:
		return s.scalar(node.Primitive)

	case metadata.KindEnum:
		return s.enum(node, owner, field)

	case metadata.KindObject:
		name := s.typeName(node, owner, field)
		if node.Name != "" {
			if declared, _ := s.graph.App().Inputs.Get(node.Name); declared != node {
				// A model used as an input.
				name = s.naming.Compose(node.Name, "Input")
			}
		}
		input := &InputObject{
			Name:        name,
			Description: node.Description,
			Node:        node,
		}
		s.inputs[node] = input
		s.register(node, input)
		s.pending = append(s.pending, func() { s.inputFields(input) })
		return input
	}

	s.fail(node, "%s %s cannot be used as an input", node.Kind, node)
	return nil
}

func (s *synthesizer) inputFields(input *InputObject) {
	node := input.Node
	if len(node.Properties) == 0 && s.config.Assert {
		s.fail(node, `input type "%s" has no fields`, input.Name)
	}
	input.Fields = s.arguments(node, input.Name)
}

func (s *synthesizer) arguments(node *metadata.TypeNode, owner string) []*InputValue {
	var args []*InputValue
	for _, prop := range node.Properties {
		argType := s.inputType(prop.Type, owner, prop.Name)
		if argType == nil {
			continue
		}
		args = append(args, &InputValue{
			Name:              prop.Name,
			Type:              argType,
			Description:       prop.Description,
			DeprecationReason: prop.DeprecationReason,
		})
	}
	return args
}

// InputArgumentName names the single argument of an operation whose input is not an object.
const InputArgumentName = "input"

// operationArguments derives the arguments of a root field. The properties of an object input become
// arguments; any other input is passed as one argument named "input".
func (s *synthesizer) operationArguments(op *metadata.OperationMetadata) []*InputValue {
	input := op.InputType
	if input == nil {
		return nil
	}
	target := s.target(input)
	if target == nil {
		return nil
	}
	if target.Kind == metadata.KindObject && !input.Array {
		owner := s.naming.Compose(op.Name, "Input")
		if target.Name != "" {
			owner = s.naming.Capitalize(target.Name)
		}
		return s.arguments(target, owner)
	}

	argType := s.inputType(input, op.Name, "Input")
	if argType == nil {
		return nil
	}
	return []*InputValue{{Name: InputArgumentName, Type: argType}}
}

func (s *synthesizer) root(kind metadata.OperationKind, name string) *Object {
	ops := s.graph.App().Operations(kind)
	if ops.Len() == 0 {
		return nil
	}

	root := &Object{
		Name: name,
		Root: true,
		Kind: kind,
	}
	s.register(nil, root)

	for _, opName := range ops.Names() {
		op, _ := ops.Get(opName)
		fieldType := s.outputType(op.ReturnType, op.Name, "Result")
		if fieldType == nil {
			continue
		}
		field := &Field{
			Name:              op.Name,
			Type:              fieldType,
			Args:              s.operationArguments(op),
			Description:       op.Description,
			DeprecationReason: op.DeprecationReason,
			Operation:         op,
		}
		if s.config.ResolveFactory != nil {
			field.Resolve = s.config.ResolveFactory(root, field)
		}
		if kind == metadata.OperationSubscription && s.config.SubscribeFactory != nil {
			field.Subscribe = s.config.SubscribeFactory(root, field)
		}
		root.Fields = append(root.Fields, field)
	}
	return root
}
