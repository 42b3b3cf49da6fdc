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

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/metadata"
	"github.com/botobag/typegraph/registry"
	"github.com/botobag/typegraph/schema"
)

// ExecuteAction runs the handler of the action bound to route, e.g. "GET /posts/:id". args holds
// route parameters merged with body fields. The request goes through the same rate limiting, context
// assembly and input validation as queries and mutations. Failures are returned as gqlerrors.Errors.
func (e *Executor) ExecuteAction(
	ctx context.Context,
	route string,
	args map[string]interface{},
	requestMetadata map[string]string) (interface{}, error) {

	request := &Request{
		Kind:     metadata.OperationAction,
		Metadata: requestMetadata,
	}
	x := e.newExecution(request, route, metadata.OperationAction)

	resolver := e.config.Registry.Action(route)
	if resolver == nil {
		x.emplaceError(fmt.Sprintf(`action "%s" is not declared`, route),
			gqlerrors.Op("executor.ExecuteAction"),
			gqlerrors.ErrKindValidation,
			gqlerrors.ErrorExtensions{"route": route})
		return nil, x.fail().Errors
	}
	op := resolver.Operation
	x.info.Operation = op.Name

	if !x.rateLimit(ctx, op.Name) || !x.assembleContext(ctx) {
		return nil, x.fail().Errors
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	x.validateInput(ctx, x.operationInputNames(op), args, gqlerrors.PathOf(schema.InputArgumentName))
	if x.failed() {
		return nil, x.fail().Errors
	}
	x.transition(StateValidated)

	x.transition(StateResolving)
	params := registry.Params{
		Args:    args,
		Context: x.context,
		Request: x.info,
	}
	if x.spreadsInput(op) {
		params.Input = args
	} else {
		params.Input = args[schema.InputArgumentName]
	}

	value, err := safely(func() (interface{}, error) {
		return resolver.Handle(ctx, params)
	}, `handler of action "%s"`, op.Name)
	if err != nil {
		e.config.ErrorHandler.HandleActionError(ctx, &ActionErrorEvent{
			RequestID: x.info.ID,
			Route:     op.Route,
			Err:       err,
		})
		x.emplaceError(messageOf(err),
			gqlerrors.Op("executor.ExecuteAction"),
			gqlerrors.ErrKindResolver,
			err)
		return nil, x.fail().Errors
	}

	x.transition(StateCompleted)
	return value, nil
}
