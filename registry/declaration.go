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

package registry

import (
	"context"

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/metadata"
)

// Context is the per-request context object. It maps each key of the context section to the value
// produced by its ContextValue resolver.
type Context map[string]interface{}

// RequestInfo describes the request a context value is resolved for.
type RequestInfo struct {
	// ID uniquely identifies the request.
	ID string

	Operation string
	Kind      metadata.OperationKind

	// Metadata carries transport-level values such as HTTP headers.
	Metadata map[string]string
}

// Params is passed to every resolver.
type Params struct {
	// Args holds the parsed arguments of the field.
	Args map[string]interface{}

	// Input is the operation input. It is Args for object inputs and the value of the single "input"
	// argument otherwise. It is nil for model fields.
	Input interface{}

	// Context is the context object assembled for the request.
	Context Context

	// Path of the field being resolved.
	Path gqlerrors.ResponsePath

	Request *RequestInfo
}

// OperationFunc resolves a query or mutation.
type OperationFunc func(ctx context.Context, params Params) (interface{}, error)

// FieldFunc resolves a field for one parent.
type FieldFunc func(ctx context.Context, parent interface{}, params Params) (interface{}, error)

// BatchFunc resolves a field for a batch of parents. It must return one value per parent in the
// order of parents.
type BatchFunc func(ctx context.Context, parents []interface{}, params Params) ([]interface{}, error)

// SubscribeFunc produces the source events of a subscription. The channel is closed when the
// subscription ends; it should also stop sending once ctx is done.
type SubscribeFunc func(ctx context.Context, params Params) (<-chan interface{}, error)

// EventFunc maps a source event to the value of a subscription field.
type EventFunc func(ctx context.Context, event interface{}, params Params) (interface{}, error)

// ActionFunc handles an action. Params.Args contains route parameters merged with the body fields.
type ActionFunc func(ctx context.Context, params Params) (interface{}, error)

// ContextFunc produces one value of the context object.
type ContextFunc func(ctx context.Context, request *RequestInfo) (interface{}, error)

// Declaration is a resolver declaration accepted by Bind. It is one of Operation, Subscription,
// Model, Batch, Handlers, Action and ContextValue.
type Declaration interface {
	// declaration puts a special mark for a Declaration.
	declaration()
}

// Operation binds a resolver to a query or mutation.
type Operation struct {
	Kind    metadata.OperationKind
	Name    string
	Resolve OperationFunc
}

// Subscription binds a source event stream to a subscription. Without Resolve each event is the
// value of the field.
type Subscription struct {
	Name      string
	Subscribe SubscribeFunc
	Resolve   EventFunc
}

// Model binds field resolvers invoked once per parent.
type Model struct {
	Name   string
	Fields map[string]FieldFunc
}

// Batch binds field resolvers invoked once per batch of parents.
type Batch struct {
	Name   string
	Fields map[string]BatchFunc
}

// Handlers binds many query or mutation resolvers keyed by operation name.
type Handlers struct {
	Kind    metadata.OperationKind
	Methods map[string]OperationFunc
}

// Action binds a handler to an action. Route is the action key, e.g. "GET /posts/:id". The method
// is matched case-insensitively.
type Action struct {
	Route  string
	Handle ActionFunc
}

// ContextValue binds the resolver of one key of the context section.
type ContextValue struct {
	Name    string
	Resolve ContextFunc
}

func (*Operation) declaration()    {}
func (*Subscription) declaration() {}
func (*Model) declaration()        {}
func (*Batch) declaration()        {}
func (*Handlers) declaration()     {}
func (*Action) declaration()       {}
func (*ContextValue) declaration() {}
