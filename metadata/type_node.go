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

package metadata

import (
	"strconv"
	"strings"
)

// Kind classifies a TypeNode.
type Kind uint8

// Enumeration of Kind
const (
	KindPrimitive Kind = iota
	KindObject
	KindReference
	KindEnum
	KindUnion
	KindIntersection
	KindLiteral
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindObject:
		return "object"
	case KindReference:
		return "reference"
	case KindEnum:
		return "enum"
	case KindUnion:
		return "union"
	case KindIntersection:
		return "intersection"
	case KindLiteral:
		return "literal"
	}
	return "unknown"
}

// Primitive names the scalar carried by a primitive or literal node.
type Primitive uint8

// Enumeration of Primitive
const (
	PrimitiveNone Primitive = iota
	PrimitiveString
	PrimitiveNumber
	PrimitiveBoolean
	PrimitiveDate
	PrimitiveBigInt
)

func (p Primitive) String() string {
	switch p {
	case PrimitiveString:
		return "string"
	case PrimitiveNumber:
		return "number"
	case PrimitiveBoolean:
		return "boolean"
	case PrimitiveDate:
		return "date"
	case PrimitiveBigInt:
		return "bigint"
	}
	return "none"
}

// PrimitiveOf maps a primitive name as written in declarations to a Primitive.
func PrimitiveOf(name string) (Primitive, bool) {
	switch name {
	case "string":
		return PrimitiveString, true
	case "number", "float", "int":
		return PrimitiveNumber, true
	case "boolean", "bool":
		return PrimitiveBoolean, true
	case "date", "Date":
		return PrimitiveDate, true
	case "bigint", "BigInt":
		return PrimitiveBigInt, true
	}
	return PrimitiveNone, false
}

// Location identifies where a declaration was written.
type Location struct {
	File   string
	Line   uint
	Column uint
}

// IsZero returns true if the location is unknown.
func (loc Location) IsZero() bool {
	return loc.File == "" && loc.Line == 0 && loc.Column == 0
}

func (loc Location) String() string {
	if loc.IsZero() {
		return "<unknown>"
	}
	var b strings.Builder
	if loc.File != "" {
		b.WriteString(loc.File)
		b.WriteByte(':')
	}
	b.WriteString(strconv.FormatUint(uint64(loc.Line), 10))
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(uint64(loc.Column), 10))
	return b.String()
}

// EnumValue is one constant of an enum node.
type EnumValue struct {
	Key               string
	Value             interface{}
	Description       string
	DeprecationReason string
}

// PropertyEdge connects an object node to the type of one of its properties.
type PropertyEdge struct {
	Name string
	Type *TypeNode

	// Args is an object node describing the arguments accepted by the resolver of this property. It
	// is nil when the property takes no arguments.
	Args *TypeNode

	Description       string
	DeprecationReason string
}

// TypeNode is the universal metadata unit.
type TypeNode struct {
	Kind      Kind
	Primitive Primitive

	// Name is the declared name for a top-level declaration and empty for inline shapes.
	Name string

	// Array wraps the node as a sequence of itself.
	Array bool

	// Nullable indicates the value may be null. CanBeUndefined indicates the property may be omitted
	// entirely. Both are independent.
	Nullable       bool
	CanBeUndefined bool

	// Properties of an object node in declaration order.
	Properties []*PropertyEdge

	// Members of a union or intersection node.
	Members []*TypeNode

	// Values of an enum node in declaration order.
	Values []*EnumValue

	// Literal holds the constant of a literal node.
	Literal interface{}

	Description       string
	DeprecationReason string

	// ReferenceName is set only for reference nodes.
	ReferenceName string

	// Target is filled by the graph package with the shared node named by ReferenceName. BackEdge is
	// set when the reference closes a cycle.
	Target   *TypeNode
	BackEdge bool

	Location Location
}

// DeclaredName implements Named.
func (n *TypeNode) DeclaredName() string {
	return n.Name
}

// IsRequired returns true if a value must be present and non-null.
func (n *TypeNode) IsRequired() bool {
	return !n.Nullable && !n.CanBeUndefined
}

// IsComposite returns true for object-like nodes which are served with a selection set.
func (n *TypeNode) IsComposite() bool {
	switch n.Kind {
	case KindObject, KindUnion, KindIntersection:
		return true
	}
	return false
}

// Property finds the property with the given name.
func (n *TypeNode) Property(name string) *PropertyEdge {
	for _, prop := range n.Properties {
		if prop.Name == name {
			return prop
		}
	}
	return nil
}

// Resolved follows a linked reference to its target. Other nodes are returned as-is.
func (n *TypeNode) Resolved() *TypeNode {
	if n.Kind == KindReference && n.Target != nil {
		return n.Target
	}
	return n
}

// Clone makes a copy of the node. Slices are copied so the clone can be modified without affecting
// the original but their elements are shared.
func (n *TypeNode) Clone() *TypeNode {
	c := *n
	if n.Properties != nil {
		c.Properties = append([]*PropertyEdge(nil), n.Properties...)
	}
	if n.Members != nil {
		c.Members = append([]*TypeNode(nil), n.Members...)
	}
	if n.Values != nil {
		c.Values = append([]*EnumValue(nil), n.Values...)
	}
	return &c
}

// String returns a compact type expression such as "Post[] | null".
func (n *TypeNode) String() string {
	var b strings.Builder
	n.writeTo(&b)
	return b.String()
}

func (n *TypeNode) writeTo(b *strings.Builder) {
	switch n.Kind {
	case KindPrimitive:
		b.WriteString(n.Primitive.String())
	case KindReference:
		b.WriteString(n.ReferenceName)
	case KindLiteral:
		if s, ok := n.Literal.(string); ok {
			b.WriteString(strconv.Quote(s))
		} else {
			b.WriteString(literalString(n.Literal))
		}
	case KindObject, KindEnum:
		if n.Name != "" {
			b.WriteString(n.Name)
		} else if n.Kind == KindObject {
			b.WriteString("{...}")
		} else {
			b.WriteString("enum{...}")
		}
	case KindUnion, KindIntersection:
		if n.Name != "" {
			b.WriteString(n.Name)
			break
		}
		sep := " | "
		if n.Kind == KindIntersection {
			sep = " & "
		}
		b.WriteByte('(')
		for i, m := range n.Members {
			if i > 0 {
				b.WriteString(sep)
			}
			m.writeTo(b)
		}
		b.WriteByte(')')
	}
	if n.Array {
		b.WriteString("[]")
	}
	if n.Nullable {
		b.WriteString(" | null")
	}
}

func literalString(v interface{}) string {
	switch v := v.(type) {
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case nil:
		return "null"
	}
	return "?"
}

// Walk visits node and every node reachable from it through properties, arguments and members in
// depth-first order. References are not followed, so Walk terminates on cyclic graphs. Returning
// false from visit skips the children of the visited node.
func Walk(node *TypeNode, visit func(node *TypeNode) bool) {
	if node == nil || !visit(node) {
		return
	}
	for _, prop := range node.Properties {
		Walk(prop.Type, visit)
		if prop.Args != nil {
			Walk(prop.Args, visit)
		}
	}
	for _, member := range node.Members {
		Walk(member, visit)
	}
}
