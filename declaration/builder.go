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

func primitive(name string) *Shape {
	return &Shape{Kind: ShapePrimitive, Primitive: name}
}

// String returns a string shape.
func String() *Shape { return primitive("string") }

// Number returns a number shape.
func Number() *Shape { return primitive("number") }

// Boolean returns a boolean shape.
func Boolean() *Shape { return primitive("boolean") }

// Date returns a date shape.
func Date() *Shape { return primitive("date") }

// BigInt returns a bigint shape.
func BigInt() *Shape { return primitive("bigint") }

// Ref returns a shape naming another declaration.
func Ref(name string) *Shape {
	return &Shape{Kind: ShapeNamed, Name: name}
}

// Literal returns a constant shape.
func Literal(value interface{}) *Shape {
	return &Shape{Kind: ShapeLiteral, Literal: value}
}

// Object returns an object shape with the given fields.
func Object(fields ...*Field) *Shape {
	return &Shape{Kind: ShapeObject, Fields: fields}
}

// Enum returns an enum shape.
func Enum(entries ...*EnumEntry) *Shape {
	return &Shape{Kind: ShapeEnum, Enum: entries}
}

// Keys returns enum entries whose values equal their keys.
func Keys(keys ...string) []*EnumEntry {
	entries := make([]*EnumEntry, len(keys))
	for i, key := range keys {
		entries[i] = &EnumEntry{Key: key, Value: key}
	}
	return entries
}

// Union returns a union of members.
func Union(members ...*Shape) *Shape {
	return &Shape{Kind: ShapeUnion, Members: members}
}

// Intersection returns an intersection of members.
func Intersection(members ...*Shape) *Shape {
	return &Shape{Kind: ShapeIntersection, Members: members}
}

// Model wraps target with resolver arguments for some of its fields. Each args field names a
// property of target and carries an object shape.
func Model(target *Shape, args ...*Field) *Shape {
	return &Shape{Kind: ShapeModel, Target: target, FieldArgs: args}
}

// Operation returns a function shape. input may be nil.
func Operation(input *Shape, returns *Shape) *Shape {
	return &Shape{Kind: ShapeOperation, Input: input, Returns: returns}
}

// List returns a copy of s marked as an array.
func (s *Shape) List() *Shape {
	c := *s
	c.Array = true
	return &c
}

// OrNull returns a copy of s marked as nullable.
func (s *Shape) OrNull() *Shape {
	c := *s
	c.Nullable = true
	return &c
}

// F creates a required field.
func F(name string, shape *Shape) *Field {
	return &Field{Name: name, Shape: shape}
}

// Opt creates an optional field.
func Opt(name string, shape *Shape) *Field {
	return &Field{Name: name, Shape: shape, Optional: true}
}

// WithArgs sets the resolver arguments of the field.
func (f *Field) WithArgs(args ...*Field) *Field {
	f.Args = Object(args...)
	return f
}

// Doc sets the description of the field.
func (f *Field) Doc(description string) *Field {
	f.Description = description
	return f
}

// Deprecate marks the field deprecated.
func (f *Field) Deprecate(reason string) *Field {
	f.Deprecated = reason
	return f
}

// Decl creates a declaration.
func Decl(name string, shape *Shape) *Declaration {
	return &Declaration{Name: name, Shape: shape}
}

// Doc sets the description of the declaration.
func (d *Declaration) Doc(description string) *Declaration {
	d.Description = description
	return d
}

// Deprecate marks the declaration deprecated.
func (d *Declaration) Deprecate(reason string) *Declaration {
	d.Deprecated = reason
	return d
}
