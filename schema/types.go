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
	"strings"

	"github.com/botobag/typegraph/metadata"
)

// NamedType is implemented by *Object, *InputObject, *Enum, *Union and *Scalar.
type NamedType interface {
	TypeName() string
	TypeDescription() string

	// namedType puts a special mark for a NamedType.
	namedType()
}

// Binding is the runtime handler attached to a field by a ResolveFactory or SubscribeFactory. Its
// concrete type is owned by whoever installs the factories.
type Binding interface{}

// ResolveFactory creates the binding used to resolve field of parent. It returns nil when the field
// has no handler, in which case the value is read from the parent.
type ResolveFactory func(parent *Object, field *Field) Binding

// SubscribeFactory creates the binding producing the source events of a subscription field.
type SubscribeFactory func(root *Object, field *Field) Binding

// Scalar is a leaf type.
type Scalar struct {
	Name        string
	Description string
	Primitive   metadata.Primitive

	// BuiltIn is false for custom scalars, which have to be declared in SDL.
	BuiltIn bool
}

// TypeName implements NamedType.
func (s *Scalar) TypeName() string { return s.Name }

// TypeDescription implements NamedType.
func (s *Scalar) TypeDescription() string { return s.Description }

func (*Scalar) namedType() {}

// Built-in and custom scalars for every primitive.
var (
	StringScalar = &Scalar{
		Name:      "String",
		Primitive: metadata.PrimitiveString,
		BuiltIn:   true,
	}
	FloatScalar = &Scalar{
		Name:      "Float",
		Primitive: metadata.PrimitiveNumber,
		BuiltIn:   true,
	}
	BooleanScalar = &Scalar{
		Name:      "Boolean",
		Primitive: metadata.PrimitiveBoolean,
		BuiltIn:   true,
	}
	DateScalar = &Scalar{
		Name:        "Date",
		Description: "A date-time string in RFC 3339 format.",
		Primitive:   metadata.PrimitiveDate,
	}
	BigIntScalar = &Scalar{
		Name:        "BigInt",
		Description: "An arbitrary precision integer serialized as a string.",
		Primitive:   metadata.PrimitiveBigInt,
	}
)

// ScalarOf returns the scalar serving values of a primitive.
func ScalarOf(primitive metadata.Primitive) *Scalar {
	switch primitive {
	case metadata.PrimitiveNumber:
		return FloatScalar
	case metadata.PrimitiveBoolean:
		return BooleanScalar
	case metadata.PrimitiveDate:
		return DateScalar
	case metadata.PrimitiveBigInt:
		return BigIntScalar
	}
	return StringScalar
}

// EnumValue is one value of an Enum.
type EnumValue struct {
	Name              string
	Value             interface{}
	Description       string
	DeprecationReason string
}

// Enum is a set of named constants.
type Enum struct {
	Name        string
	Description string
	Values      []*EnumValue
	Node        *metadata.TypeNode
}

// TypeName implements NamedType.
func (e *Enum) TypeName() string { return e.Name }

// TypeDescription implements NamedType.
func (e *Enum) TypeDescription() string { return e.Description }

func (*Enum) namedType() {}

// ValueOf finds the enum value whose name or internal value equals v.
func (e *Enum) ValueOf(v interface{}) *EnumValue {
	for _, value := range e.Values {
		if sameValue(value.Value, v) {
			return value
		}
	}
	if name, ok := v.(string); ok {
		for _, value := range e.Values {
			if value.Name == name {
				return value
			}
		}
	}
	return nil
}

// sameValue compares enum constants. Numbers compare by value regardless of their Go type.
func sameValue(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch a := a.(type) {
	case string:
		b, ok := b.(string)
		return ok && a == b
	case bool:
		b, ok := b.(bool)
		return ok && a == b
	}
	return false
}

func toFloat(v interface{}) (float64, bool) {
	switch v := v.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// InputValue is an argument or a field of an input object.
type InputValue struct {
	Name              string
	Type              *TypeRef
	Description       string
	DeprecationReason string
}

// InputObject is a named set of input values.
type InputObject struct {
	Name        string
	Description string
	Fields      []*InputValue
	Node        *metadata.TypeNode
}

// TypeName implements NamedType.
func (o *InputObject) TypeName() string { return o.Name }

// TypeDescription implements NamedType.
func (o *InputObject) TypeDescription() string { return o.Description }

func (*InputObject) namedType() {}

// Field is a field of an Object.
type Field struct {
	Name              string
	Type              *TypeRef
	Args              []*InputValue
	Description       string
	DeprecationReason string

	// Property is set for fields of model types.
	Property *metadata.PropertyEdge

	// Operation is set for fields of root types.
	Operation *metadata.OperationMetadata

	// Resolve and Subscribe are installed by the factories passed to Synthesize.
	Resolve   Binding
	Subscribe Binding
}

// Object is a named set of fields.
type Object struct {
	Name        string
	Description string
	Fields      []*Field
	Node        *metadata.TypeNode

	// Root is set for the query, mutation and subscription types.
	Root bool
	Kind metadata.OperationKind
}

// TypeName implements NamedType.
func (o *Object) TypeName() string { return o.Name }

// TypeDescription implements NamedType.
func (o *Object) TypeDescription() string { return o.Description }

func (*Object) namedType() {}

// Field finds the field with the given name.
func (o *Object) Field(name string) *Field {
	for _, field := range o.Fields {
		if field.Name == name {
			return field
		}
	}
	return nil
}

// Union is one of several object types.
type Union struct {
	Name        string
	Description string
	Members     []*Object
	Node        *metadata.TypeNode
}

// TypeName implements NamedType.
func (u *Union) TypeName() string { return u.Name }

// TypeDescription implements NamedType.
func (u *Union) TypeDescription() string { return u.Description }

func (*Union) namedType() {}

// Member finds the member with the given name.
func (u *Union) Member(name string) *Object {
	for _, member := range u.Members {
		if member.Name == name {
			return member
		}
	}
	return nil
}

// TypeRef is a use of a named type. List elements are always non-null.
type TypeRef struct {
	Named   NamedType
	List    bool
	NonNull bool
}

func (t *TypeRef) String() string {
	var b strings.Builder
	if t.List {
		b.WriteByte('[')
	}
	b.WriteString(t.Named.TypeName())
	if t.List {
		b.WriteString("!]")
	}
	if t.NonNull {
		b.WriteByte('!')
	}
	return b.String()
}

// Schema is the servable projection of a metadata graph.
type Schema struct {
	Query        *Object
	Mutation     *Object
	Subscription *Object

	// Types lists every named type except built-in scalars in the order they were synthesized.
	Types []NamedType

	types map[string]NamedType
}

// Type finds a named type, built-in scalars included.
func (s *Schema) Type(name string) NamedType {
	if t, ok := s.types[name]; ok {
		return t
	}
	for _, scalar := range []*Scalar{StringScalar, FloatScalar, BooleanScalar} {
		if scalar.Name == name {
			return scalar
		}
	}
	return nil
}

// Object finds an object type.
func (s *Schema) Object(name string) *Object {
	object, _ := s.types[name].(*Object)
	return object
}

// Root returns the root type serving operations of kind. It is nil when no operation of the kind is
// declared and for actions, which are not part of the schema.
func (s *Schema) Root(kind metadata.OperationKind) *Object {
	switch kind {
	case metadata.OperationQuery:
		return s.Query
	case metadata.OperationMutation:
		return s.Mutation
	case metadata.OperationSubscription:
		return s.Subscription
	}
	return nil
}
