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

package executor

import (
	"github.com/botobag/typegraph/metadata"
)

// Request is a parsed request against the schema.
type Request struct {
	// ID identifies the request in results and error events. A random one is generated when empty.
	ID string

	// Kind selects the root type. Actions are executed with ExecuteAction instead.
	Kind metadata.OperationKind

	// Selection lists the requested root fields.
	Selection []*Selection

	// Variables supply values to Variable arguments.
	Variables map[string]interface{}

	// Metadata carries transport-level values handed to context resolvers.
	Metadata map[string]string
}

// Selection requests one field, or an inline fragment when On is set.
type Selection struct {
	// Alias names the field in the response. Defaults to Name.
	Alias string
	Name  string
	Args  map[string]interface{}

	// On restricts the nested selection to the object type of the given name.
	On string

	Selection []*Selection
}

// Variable is an argument value supplied through Request.Variables.
type Variable string

// EnumLiteral is an unquoted identifier used as an argument value. It names an enum value.
type EnumLiteral string

// Field builds a Selection.
func Field(name string, selection ...*Selection) *Selection {
	return &Selection{
		Name:      name,
		Selection: selection,
	}
}

// On builds an inline fragment.
func On(typeName string, selection ...*Selection) *Selection {
	return &Selection{
		On:        typeName,
		Selection: selection,
	}
}

// WithArgs sets the arguments of s and returns s.
func (s *Selection) WithArgs(args map[string]interface{}) *Selection {
	s.Args = args
	return s
}

// As sets the alias of s and returns s.
func (s *Selection) As(alias string) *Selection {
	s.Alias = alias
	return s
}

// ResponseKey is the alias if defined, otherwise the field name.
func (s *Selection) ResponseKey() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Name
}

// IsFragment returns true for inline fragments.
func (s *Selection) IsFragment() bool {
	return s.On != ""
}
