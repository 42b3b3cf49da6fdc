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

// Package registry binds runtime handlers to the operations, model fields, actions and context keys
// of a resolved graph.
//
// Resolver declarations are a closed set of variants. Bind checks every target against the graph
// and reports all unknown targets together. The resulting Registry is read-only and installs its
// resolvers on a schema through ResolveFactory and SubscribeFactory.
package registry

import (
	"fmt"
	"sort"

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/graph"
	"github.com/botobag/typegraph/internal/util"
	"github.com/botobag/typegraph/metadata"
	"github.com/botobag/typegraph/schema"
)

type fieldKey struct {
	model string
	field string
}

// Registry holds the resolvers bound to a graph.
type Registry struct {
	graph *graph.Graph

	operations    map[metadata.OperationKind]map[string]*OperationResolver
	subscriptions map[string]*SubscriptionResolver
	fields        map[fieldKey]Resolver
	actions       map[string]*ActionResolver
	contexts      map[string]ContextFunc
}

type binder struct {
	*Registry
	errs gqlerrors.Errors
}

// Bind creates a Registry from declarations. Targets absent from g fail with
// ErrKindUnknownResolverTarget; a target bound twice fails as well. Every error is collected before
// returning.
func Bind(g *graph.Graph, decls ...Declaration) (*Registry, error) {
	b := &binder{
		Registry: &Registry{
			graph:         g,
			operations:    map[metadata.OperationKind]map[string]*OperationResolver{},
			subscriptions: map[string]*SubscriptionResolver{},
			fields:        map[fieldKey]Resolver{},
			actions:       map[string]*ActionResolver{},
			contexts:      map[string]ContextFunc{},
		},
	}

	for _, decl := range decls {
		switch decl := decl.(type) {
		case *Operation:
			b.bindOperation(decl.Kind, decl.Name, decl.Resolve)

		case *Handlers:
			for _, name := range sortedKeys(decl.Methods) {
				b.bindOperation(decl.Kind, name, decl.Methods[name])
			}

		case *Subscription:
			b.bindSubscription(decl)

		case *Model:
			if !b.hasModel(decl.Name) {
				continue
			}
			for _, field := range sortedKeys(decl.Fields) {
				resolve := decl.Fields[field]
				b.bindField(decl.Name, field, resolve == nil, &FieldResolver{
					Model:   decl.Name,
					Field:   field,
					Resolve: resolve,
				})
			}

		case *Batch:
			if !b.hasModel(decl.Name) {
				continue
			}
			for _, field := range sortedKeys(decl.Fields) {
				resolve := decl.Fields[field]
				b.bindField(decl.Name, field, resolve == nil, &BatchResolver{
					Model:   decl.Name,
					Field:   field,
					Resolve: resolve,
				})
			}

		case *Action:
			b.bindAction(decl)

		case *ContextValue:
			b.bindContext(decl)

		case nil:
			b.errs.Emplace("nil resolver declaration", gqlerrors.Op("registry.Bind"))

		default:
			b.errs.Emplace(fmt.Sprintf("unsupported resolver declaration %T", decl), gqlerrors.Op("registry.Bind"))
		}
	}

	if b.errs.HaveOccurred() {
		return nil, b.errs
	}
	return b.Registry, nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (b *binder) unknown(target string, input string, message string, options []string) {
	b.errs.Emplace(message+util.DidYouMean(input, options),
		gqlerrors.Op("registry.Bind"),
		gqlerrors.ErrKindUnknownResolverTarget,
		gqlerrors.ErrorExtensions{"target": target})
}

func (b *binder) fail(format string, args ...interface{}) {
	b.errs.Emplace(fmt.Sprintf(format, args...), gqlerrors.Op("registry.Bind"))
}

func (b *binder) bindOperation(kind metadata.OperationKind, name string, resolve OperationFunc) {
	if kind != metadata.OperationQuery && kind != metadata.OperationMutation {
		b.fail(`cannot bind %s "%s" as an operation; use Subscription or Action`, kind, name)
		return
	}
	ops := b.graph.App().Operations(kind)
	op, exists := ops.Get(name)
	if !exists {
		b.unknown(name, name, fmt.Sprintf(`%s "%s" is not declared.`, kind, name), ops.Names())
		return
	}
	if resolve == nil {
		b.fail(`resolver of %s "%s" is nil`, kind, name)
		return
	}

	resolvers := b.operations[kind]
	if resolvers == nil {
		resolvers = map[string]*OperationResolver{}
		b.operations[kind] = resolvers
	}
	if _, bound := resolvers[name]; bound {
		b.fail(`%s "%s" is bound more than once`, kind, name)
		return
	}
	resolvers[name] = &OperationResolver{
		Operation: op,
		Resolve:   resolve,
	}
}

func (b *binder) bindSubscription(decl *Subscription) {
	ops := b.graph.App().Subscriptions
	op, exists := ops.Get(decl.Name)
	if !exists {
		b.unknown(decl.Name, decl.Name, fmt.Sprintf(`subscription "%s" is not declared.`, decl.Name), ops.Names())
		return
	}
	if decl.Subscribe == nil {
		b.fail(`subscription "%s" has no source event stream`, decl.Name)
		return
	}
	if _, bound := b.subscriptions[decl.Name]; bound {
		b.fail(`subscription "%s" is bound more than once`, decl.Name)
		return
	}
	b.subscriptions[decl.Name] = &SubscriptionResolver{
		Operation: op,
		Subscribe: decl.Subscribe,
		Resolve:   decl.Resolve,
	}
}

func (b *binder) hasModel(model string) bool {
	models := b.graph.App().Models
	if !models.Has(model) {
		b.unknown(model, model, fmt.Sprintf(`model "%s" is not declared.`, model), models.Names())
		return false
	}
	return true
}

func (b *binder) bindField(model string, field string, isNil bool, resolver Resolver) {
	node := b.graph.Lookup(model)
	if node.Property(field) == nil {
		var names []string
		for _, prop := range node.Properties {
			names = append(names, prop.Name)
		}
		b.unknown(model+"."+field, field, fmt.Sprintf(`model "%s" has no field "%s".`, model, field), names)
		return
	}
	if isNil {
		b.fail(`resolver of "%s.%s" is nil`, model, field)
		return
	}

	key := fieldKey{model, field}
	if _, bound := b.fields[key]; bound {
		b.fail(`field "%s.%s" is bound more than once`, model, field)
		return
	}
	b.fields[key] = resolver
}

func (b *binder) bindAction(decl *Action) {
	route, err := metadata.ParseRoute(decl.Route)
	if err != nil {
		b.errs.Emplace(err.Error(), gqlerrors.Op("registry.Bind"), gqlerrors.ErrKindUnknownResolverTarget,
			gqlerrors.ErrorExtensions{"target": decl.Route})
		return
	}

	var (
		routes []string
		op     *metadata.OperationMetadata
	)
	for _, action := range b.graph.App().Actions.Values() {
		if action.Route == nil {
			continue
		}
		routes = append(routes, action.Route.String())
		if action.Route.String() == route.String() {
			op = action
		}
	}
	if op == nil {
		b.unknown(route.String(), route.String(), fmt.Sprintf(`action "%s" is not declared.`, route), routes)
		return
	}
	if decl.Handle == nil {
		b.fail(`handler of action "%s" is nil`, route)
		return
	}
	if _, bound := b.actions[route.String()]; bound {
		b.fail(`action "%s" is bound more than once`, route)
		return
	}
	b.actions[route.String()] = &ActionResolver{
		Operation: op,
		Handle:    decl.Handle,
	}
}

func (b *binder) bindContext(decl *ContextValue) {
	keys := b.graph.App().Context
	if !keys.Has(decl.Name) {
		b.unknown(decl.Name, decl.Name, fmt.Sprintf(`context "%s" is not declared.`, decl.Name), keys.Names())
		return
	}
	if decl.Resolve == nil {
		b.fail(`resolver of context "%s" is nil`, decl.Name)
		return
	}
	if _, bound := b.contexts[decl.Name]; bound {
		b.fail(`context "%s" is bound more than once`, decl.Name)
		return
	}
	b.contexts[decl.Name] = decl.Resolve
}

// Graph returns the graph the registry is bound to.
func (r *Registry) Graph() *graph.Graph {
	return r.graph
}

// Operation returns the resolver bound to a query or mutation.
func (r *Registry) Operation(kind metadata.OperationKind, name string) *OperationResolver {
	return r.operations[kind][name]
}

// Subscription returns the resolver bound to a subscription.
func (r *Registry) Subscription(name string) *SubscriptionResolver {
	return r.subscriptions[name]
}

// Field returns the *FieldResolver or *BatchResolver bound to a model field, or nil.
func (r *Registry) Field(model string, field string) Resolver {
	return r.fields[fieldKey{model, field}]
}

// Action returns the handler bound to the action with the given route, e.g. "GET /posts/:id".
func (r *Registry) Action(route string) *ActionResolver {
	parsed, err := metadata.ParseRoute(route)
	if err != nil {
		return nil
	}
	return r.actions[parsed.String()]
}

// Actions returns the bound actions in declaration order.
func (r *Registry) Actions() []*ActionResolver {
	var result []*ActionResolver
	for _, op := range r.graph.App().Actions.Values() {
		if op.Route == nil {
			continue
		}
		if action, exists := r.actions[op.Route.String()]; exists && action.Operation == op {
			result = append(result, action)
		}
	}
	return result
}

// ContextKeys returns the keys of the context section that have a resolver, in declaration order.
func (r *Registry) ContextKeys() []string {
	var keys []string
	for _, name := range r.graph.App().Context.Names() {
		if _, exists := r.contexts[name]; exists {
			keys = append(keys, name)
		}
	}
	return keys
}

// Context returns the resolver of a context key.
func (r *Registry) Context(name string) ContextFunc {
	return r.contexts[name]
}

// Unbound lists operations and actions without a resolver, e.g. "query post".
func (r *Registry) Unbound() []string {
	var result []string
	for _, kind := range metadata.OperationKinds {
		for _, op := range r.graph.App().Operations(kind).Values() {
			var bound bool
			switch kind {
			case metadata.OperationSubscription:
				bound = r.subscriptions[op.Name] != nil
			case metadata.OperationAction:
				bound = op.Route != nil && r.actions[op.Route.String()] != nil
			default:
				bound = r.operations[kind][op.Name] != nil
			}
			if !bound {
				result = append(result, fmt.Sprintf("%s %s", kind, op.Name))
			}
		}
	}
	return result
}

// ResolveFactory installs the resolvers of root fields and model fields on a schema. Fields of
// inline objects and unbound model fields get no binding and are read from the parent value.
func (r *Registry) ResolveFactory() schema.ResolveFactory {
	return func(parent *schema.Object, field *schema.Field) schema.Binding {
		if parent.Root {
			if field.Operation == nil || parent.Kind == metadata.OperationSubscription {
				return nil
			}
			if resolver := r.Operation(parent.Kind, field.Operation.Name); resolver != nil {
				return resolver
			}
			return nil
		}

		if parent.Node == nil || parent.Node.Name == "" || !r.graph.App().Models.Has(parent.Node.Name) {
			return nil
		}
		if resolver := r.Field(parent.Node.Name, field.Name); resolver != nil {
			return resolver
		}
		return nil
	}
}

// SubscribeFactory installs the event sources of subscription fields on a schema.
func (r *Registry) SubscribeFactory() schema.SubscribeFactory {
	return func(root *schema.Object, field *schema.Field) schema.Binding {
		if field.Operation == nil {
			return nil
		}
		if resolver := r.Subscription(field.Operation.Name); resolver != nil {
			return resolver
		}
		return nil
	}
}
