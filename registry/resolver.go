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
	"github.com/botobag/typegraph/metadata"
)

// Resolver is the binding installed on a schema field. It is one of *OperationResolver,
// *FieldResolver, *BatchResolver and *SubscriptionResolver.
type Resolver interface {
	// resolver puts a special mark for a Resolver.
	resolver()
}

// OperationResolver resolves a root field.
type OperationResolver struct {
	Operation *metadata.OperationMetadata
	Resolve   OperationFunc
}

// FieldResolver resolves a model field once per parent.
type FieldResolver struct {
	Model   string
	Field   string
	Resolve FieldFunc
}

// BatchResolver resolves a model field once per batch of parents.
type BatchResolver struct {
	Model   string
	Field   string
	Resolve BatchFunc
}

// Key identifies the batched field. Requests of the same field share a batching window.
func (r *BatchResolver) Key() string {
	return r.Model + "." + r.Field
}

// SubscriptionResolver produces the events of a subscription field.
type SubscriptionResolver struct {
	Operation *metadata.OperationMetadata
	Subscribe SubscribeFunc
	Resolve   EventFunc
}

// ActionResolver handles an action.
type ActionResolver struct {
	Operation *metadata.OperationMetadata
	Handle    ActionFunc
}

func (*OperationResolver) resolver()    {}
func (*FieldResolver) resolver()        {}
func (*BatchResolver) resolver()        {}
func (*SubscriptionResolver) resolver() {}
