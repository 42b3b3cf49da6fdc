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
	"fmt"
	"strings"
)

// OperationKind identifies the section an operation is declared in.
type OperationKind uint8

// Enumeration of OperationKind
const (
	OperationQuery OperationKind = iota
	OperationMutation
	OperationSubscription
	OperationAction
)

func (k OperationKind) String() string {
	switch k {
	case OperationQuery:
		return "query"
	case OperationMutation:
		return "mutation"
	case OperationSubscription:
		return "subscription"
	case OperationAction:
		return "action"
	}
	return "unknown"
}

// Route is the HTTP binding of an action.
type Route struct {
	Method string

	// Path is the pattern as declared, with ":name" placeholders.
	Path string

	// Params lists placeholder names in the order they appear in Path.
	Params []string
}

var routeMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"PATCH":  true,
	"DELETE": true,
}

// ParseRoute parses a key of the form "METHOD /path/:param".
func ParseRoute(key string) (*Route, error) {
	fields := strings.Fields(key)
	if len(fields) != 2 {
		return nil, fmt.Errorf(`route "%s" must have the form "METHOD /path"`, key)
	}

	method := strings.ToUpper(fields[0])
	if !routeMethods[method] {
		return nil, fmt.Errorf(`route "%s" has unsupported method "%s"`, key, fields[0])
	}

	path := fields[1]
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf(`route "%s" must have an absolute path`, key)
	}

	route := &Route{
		Method: method,
		Path:   path,
	}
	for _, segment := range strings.Split(path, "/") {
		if strings.HasPrefix(segment, ":") {
			param := segment[1:]
			if param == "" {
				return nil, fmt.Errorf(`route "%s" has an unnamed parameter`, key)
			}
			route.Params = append(route.Params, param)
		}
	}
	return route, nil
}

// Pattern returns the path with placeholders written as "{name}".
func (r *Route) Pattern() string {
	segments := strings.Split(r.Path, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, ":") {
			segments[i] = "{" + segment[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}

func (r *Route) String() string {
	return r.Method + " " + r.Path
}

// OperationMetadata describes one query, mutation, subscription or action.
type OperationMetadata struct {
	Name string
	Kind OperationKind

	// InputType is nil for operations without arguments.
	InputType  *TypeNode
	ReturnType *TypeNode

	// Route is set for actions only.
	Route *Route

	Description       string
	DeprecationReason string
	Location          Location
}

// DeclaredName implements Named.
func (op *OperationMetadata) DeclaredName() string {
	return op.Name
}
