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
	"math"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/botobag/typegraph/metadata"
)

// Type expressions accept the following forms:
//
//	Post                  a named declaration
//	string                a primitive (string, number, boolean, date, bigint)
//	'draft' | 42 | true   literals
//	Post[]                an array
//	Post | null           a nullable value
//	A | B, A & B          unions and intersections; & binds tighter than |
//	(A | B)[]             grouping
var typeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `'[^']*'|"[^"]*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `\[\]|[|&()]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type unionExpr struct {
	Members []*intersectionExpr `parser:"@@ ( '|' @@ )*"`
}

type intersectionExpr struct {
	Members []*postfixExpr `parser:"@@ ( '&' @@ )*"`
}

type postfixExpr struct {
	Atom   *atomExpr `parser:"@@"`
	Arrays []string  `parser:"@'[]'*"`
}

type atomExpr struct {
	String *string    `parser:"  @String"`
	Number *float64   `parser:"| @Number"`
	Ident  *string    `parser:"| @Ident"`
	Group  *unionExpr `parser:"| '(' @@ ')'"`
}

var typeParser = participle.MustBuild[unionExpr](
	participle.Lexer(typeLexer),
	participle.Elide("Whitespace"),
)

// ParseType parses a type expression into a Shape.
func ParseType(expr string) (*Shape, error) {
	ast, err := typeParser.ParseString("", expr)
	if err != nil {
		return nil, fmt.Errorf(`invalid type expression "%s": %w`, expr, err)
	}
	shape, err := ast.shape()
	if err != nil {
		return nil, fmt.Errorf(`invalid type expression "%s": %w`, expr, err)
	}
	shape.Raw = strings.TrimSpace(expr)
	return shape, nil
}

func (e *unionExpr) shape() (*Shape, error) {
	var (
		members  []*Shape
		nullable bool
	)
	for _, member := range e.Members {
		if member.isNull() {
			nullable = true
			continue
		}
		shape, err := member.shape()
		if err != nil {
			return nil, err
		}
		members = append(members, shape)
	}

	var result *Shape
	switch len(members) {
	case 0:
		return nil, fmt.Errorf("null is not a type on its own")
	case 1:
		c := *members[0]
		result = &c
	default:
		result = Union(members...)
	}
	if nullable {
		result.Nullable = true
	}
	return result, nil
}

func (e *intersectionExpr) isNull() bool {
	if len(e.Members) != 1 {
		return false
	}
	p := e.Members[0]
	return len(p.Arrays) == 0 && p.Atom.Ident != nil && *p.Atom.Ident == "null"
}

func (e *intersectionExpr) shape() (*Shape, error) {
	members := make([]*Shape, 0, len(e.Members))
	for _, member := range e.Members {
		shape, err := member.shape()
		if err != nil {
			return nil, err
		}
		members = append(members, shape)
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return Intersection(members...), nil
}

func (e *postfixExpr) shape() (*Shape, error) {
	shape, err := e.Atom.shape()
	if err != nil {
		return nil, err
	}
	switch {
	case len(e.Arrays) == 0:
		return shape, nil
	case len(e.Arrays) > 1 || shape.Array:
		// Nested lists cannot be represented by a single array flag.
		return &Shape{Kind: ShapeInvalid}, nil
	}
	shape.Array = true
	return shape, nil
}

func (e *atomExpr) shape() (*Shape, error) {
	switch {
	case e.String != nil:
		s := *e.String
		return Literal(s[1 : len(s)-1]), nil

	case e.Number != nil:
		n := *e.Number
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return Literal(int(n)), nil
		}
		return Literal(n), nil

	case e.Ident != nil:
		switch name := *e.Ident; name {
		case "true":
			return Literal(true), nil
		case "false":
			return Literal(false), nil
		case "null":
			return nil, fmt.Errorf("null must be a member of a union")
		default:
			if _, ok := metadata.PrimitiveOf(name); ok {
				return primitive(name), nil
			}
			return Ref(name), nil
		}

	case e.Group != nil:
		return e.Group.shape()
	}
	return &Shape{Kind: ShapeInvalid}, nil
}
