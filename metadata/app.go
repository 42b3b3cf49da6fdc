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

// Section names a part of the application declarations.
type Section uint8

// Enumeration of Section
const (
	SectionModels Section = iota
	SectionInputs
	SectionContext
	SectionQueries
	SectionMutations
	SectionSubscriptions
	SectionActions
)

func (s Section) String() string {
	switch s {
	case SectionModels:
		return "models"
	case SectionInputs:
		return "inputs"
	case SectionContext:
		return "context"
	case SectionQueries:
		return "queries"
	case SectionMutations:
		return "mutations"
	case SectionSubscriptions:
		return "subscriptions"
	case SectionActions:
		return "actions"
	}
	return "unknown"
}

// SectionOf returns the section holding operations of the given kind.
func SectionOf(kind OperationKind) Section {
	switch kind {
	case OperationMutation:
		return SectionMutations
	case OperationSubscription:
		return SectionSubscriptions
	case OperationAction:
		return SectionActions
	}
	return SectionQueries
}

// AppMetadata is the root of the metadata graph.
type AppMetadata struct {
	Models  *TypeMap
	Inputs  *TypeMap
	Context *TypeMap

	Queries       *OperationList
	Mutations     *OperationList
	Subscriptions *OperationList
	Actions       *OperationList
}

// New creates an AppMetadata with every section empty.
func New() *AppMetadata {
	return &AppMetadata{
		Models:        NewTypeMap(),
		Inputs:        NewTypeMap(),
		Context:       NewTypeMap(),
		Queries:       NewOperationList(),
		Mutations:     NewOperationList(),
		Subscriptions: NewOperationList(),
		Actions:       NewOperationList(),
	}
}

// Types returns the type map of a type section and nil for operation sections.
func (app *AppMetadata) Types(section Section) *TypeMap {
	switch section {
	case SectionModels:
		return app.Models
	case SectionInputs:
		return app.Inputs
	case SectionContext:
		return app.Context
	}
	return nil
}

// Operations returns the operation list of the given kind.
func (app *AppMetadata) Operations(kind OperationKind) *OperationList {
	switch kind {
	case OperationMutation:
		return app.Mutations
	case OperationSubscription:
		return app.Subscriptions
	case OperationAction:
		return app.Actions
	}
	return app.Queries
}

// OperationKinds lists operation kinds in section order.
var OperationKinds = []OperationKind{
	OperationQuery,
	OperationMutation,
	OperationSubscription,
	OperationAction,
}

// LookupType finds a declared model or input. Models take precedence when a name is declared in
// both sections.
func (app *AppMetadata) LookupType(name string) (*TypeNode, Section, bool) {
	if node, ok := app.Models.Get(name); ok {
		return node, SectionModels, true
	}
	if node, ok := app.Inputs.Get(name); ok {
		return node, SectionInputs, true
	}
	return nil, 0, false
}
