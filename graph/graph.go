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

// Package graph links raw metadata into a cycle-safe graph.
//
// Resolve merges declarations sharing a name, flattens intersections into objects and points every
// reference node at the shared node it names. Named nodes live in an arena keyed by name; a
// reference is never expanded in place, so cyclic declarations such as a post referring to its
// category which lists its posts produce exactly one node per name. References closing a cycle are
// flagged as back-edges.
//
// References to undeclared names are recorded rather than rejected. The check package reports them.
package graph

import (
	"github.com/botobag/typegraph/metadata"
)

// Dangling records a reference whose target is not declared.
type Dangling struct {
	Reference *metadata.TypeNode

	// Owner names the declaration holding the reference, e.g. "Post.category".
	Owner   string
	Section metadata.Section
}

// Graph is the resolved metadata of an application. It is read-only once built.
type Graph struct {
	app      *metadata.AppMetadata
	arena    map[string]*metadata.TypeNode
	dangling []Dangling
}

// App returns the resolved sections.
func (g *Graph) App() *metadata.AppMetadata {
	return g.app
}

// Lookup returns the shared node for a declared model or input. Models take precedence when a name
// is declared in both sections.
func (g *Graph) Lookup(name string) *metadata.TypeNode {
	return g.arena[name]
}

// Target returns the node a reference points at. Non-reference nodes are returned as-is.
func (g *Graph) Target(node *metadata.TypeNode) *metadata.TypeNode {
	if node.Kind != metadata.KindReference {
		return node
	}
	if node.Target != nil {
		return node.Target
	}
	return g.arena[node.ReferenceName]
}

// Dangling returns the references whose targets are not declared.
func (g *Graph) Dangling() []Dangling {
	return g.dangling
}

// Names returns the names of every declared model and input in declaration order, models first.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.arena))
	names = append(names, g.app.Models.Names()...)
	for _, name := range g.app.Inputs.Names() {
		if !g.app.Models.Has(name) {
			names = append(names, name)
		}
	}
	return names
}
