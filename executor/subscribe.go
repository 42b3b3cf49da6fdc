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
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/metadata"
	"github.com/botobag/typegraph/registry"
	"github.com/botobag/typegraph/schema"
)

// Subscribe starts a subscription. The request selects exactly one field of the subscription root.
// Every event produced by its source is resolved into one Result sent on the returned channel. The
// channel is closed when the source closes or ctx is done.
//
// An error is returned, and no channel, if the request fails before its source starts.
func (e *Executor) Subscribe(ctx context.Context, request *Request) (<-chan *Result, error) {
	x := e.newExecution(request, operationNames(request), metadata.OperationSubscription)

	root := e.config.Schema.Subscription
	if root == nil || request.Kind != metadata.OperationSubscription {
		x.emplaceError("schema does not serve the subscription", gqlerrors.Op("executor.Subscribe"),
			gqlerrors.ErrKindValidation)
		return nil, x.fail().Errors
	}

	var selected []*collectedField
	for _, f := range collectFields(root, request.Selection) {
		if f.name != TypeNameField {
			selected = append(selected, f)
		}
	}
	if len(selected) != 1 {
		x.emplaceError(fmt.Sprintf("subscription must select exactly one field, got %d", len(selected)),
			gqlerrors.Op("executor.Subscribe"),
			gqlerrors.ErrKindValidation)
		return nil, x.fail().Errors
	}

	if !x.gate(ctx, root) {
		return nil, x.fail().Errors
	}

	field := root.Field(selected[0].name)
	resolver, _ := field.Subscribe.(*registry.SubscriptionResolver)
	if resolver == nil {
		x.transition(StateFailed)
		x.emplaceError(fmt.Sprintf(`subscription "%s" has no resolver`, field.Name),
			gqlerrors.Op("executor.Subscribe"),
			gqlerrors.ErrKindResolver)
		return nil, x.errs
	}

	x.transition(StateResolving)
	job := &fieldJob{
		object:    root,
		field:     field,
		selection: selected[0].selection,
		args:      x.args[selected[0].selection[0]],
		path:      gqlerrors.ResponsePath{}.WithFieldName(selected[0].key),
	}
	params := x.params(job)

	var source <-chan interface{}
	_, job.err = safely(func() (interface{}, error) {
		var err error
		source, err = resolver.Subscribe(ctx, params)
		return nil, err
	}, `source of subscription "%s"`, field.Name)
	if job.err == nil && source == nil {
		job.err = fmt.Errorf(`source of subscription "%s" is nil`, field.Name)
	}
	if job.err != nil {
		x.resolverFailed(ctx, job, true)
		return nil, x.fail().Errors
	}

	results := make(chan *Result)
	go func() {
		defer close(results)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-source:
				if !ok {
					x.logger.Debug("subscription source closed", zap.String("field", field.Name))
					return
				}
				result := x.event(ctx, root, resolver, params, event)
				select {
				case results <- result:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return results, nil
}

// event resolves the response to one source event of a subscription.
func (x *execution) event(
	ctx context.Context,
	root *schema.Object,
	resolver *registry.SubscriptionResolver,
	params registry.Params,
	event interface{}) *Result {

	ex := &execution{
		executor: x.executor,
		request:  x.request,
		info:     x.info,
		logger:   x.logger,
		state:    StateResolving,
		context:  x.context,
		args:     x.args,
	}

	var jobs []*fieldJob
	data := ex.collectJobs(root, ex.request.Selection, nil, gqlerrors.ResponsePath{}, &jobs)
	for _, job := range jobs {
		job.resolved = true
		if resolver.Resolve == nil {
			job.value = event
			continue
		}
		job.value, job.err = safely(func() (interface{}, error) {
			return resolver.Resolve(ctx, event, params)
		}, `resolver of subscription "%s"`, job.field.Name)
		if job.err != nil {
			ex.resolverFailed(ctx, job, true)
			return ex.fail()
		}
	}

	var next []*fieldJob
	for _, job := range jobs {
		ex.completeField(job, &next)
	}
	if !ex.resolveDepths(ctx, next) {
		return ex.cancelled(ctx)
	}
	data.compact()

	ex.transition(StateCompleted)
	return &Result{
		ID:     ex.info.ID,
		State:  StateCompleted,
		Data:   data,
		Errors: ex.errs,
	}
}
