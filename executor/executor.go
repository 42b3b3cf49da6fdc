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

// Package executor serves requests against a synthesized schema with the resolvers of a registry.
//
// A request moves through Received, Validated and Resolving to Completed or Failed. While received,
// the rate limiter is consulted, the context object is assembled and arguments are coerced and
// validated. Resolution proceeds breadth-first: every field at one depth of the response is resolved
// before any field below it, which lets batched resolvers see every parent of a depth in one call.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/metadata"
	"github.com/botobag/typegraph/ratelimit"
	"github.com/botobag/typegraph/registry"
	"github.com/botobag/typegraph/schema"
	"github.com/botobag/typegraph/validation"
)

// Config configures an Executor.
type Config struct {
	// (Required) Schema to serve. Its fields carry the bindings installed by Registry.
	Schema *schema.Schema

	// (Required) Registry providing operation, context and action resolvers.
	Registry *registry.Registry

	// (Optional) Validators of inputs and models, keyed by declared name.
	Validators *validation.Set

	// (Optional) Limiter consulted with the name of every requested operation.
	Limiter ratelimit.Limiter

	// WaitForRateLimit delays requests over the limit instead of rejecting them. It only applies to
	// limiters implementing ratelimit.Waiter.
	WaitForRateLimit bool

	// (Optional) ErrorHandler is notified of every resolver and action failure. Defaults to a
	// LogErrorHandler writing to Logger.
	ErrorHandler ErrorHandler

	// MaxConcurrency bounds the number of field resolvers running at the same time for one request.
	// Zero means unbounded.
	MaxConcurrency int

	// MaxBatchSize bounds the number of parents passed to one call of a batched resolver. Zero means
	// unbounded.
	MaxBatchSize uint

	// (Optional) Logger. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Executor executes requests. It is safe for concurrent use.
type Executor struct {
	config   Config
	resolver defaultFieldResolver
}

// New creates an Executor from config.
func New(config Config) (*Executor, error) {
	if config.Schema == nil {
		return nil, gqlerrors.NewError("schema is required to create an executor",
			gqlerrors.Op("executor.New"), gqlerrors.ErrKindInternal)
	}
	if config.Registry == nil {
		return nil, gqlerrors.NewError("registry is required to create an executor",
			gqlerrors.Op("executor.New"), gqlerrors.ErrKindInternal)
	}
	if config.MaxConcurrency < 0 {
		return nil, gqlerrors.NewError("max concurrency must not be negative",
			gqlerrors.Op("executor.New"), gqlerrors.ErrKindInternal)
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.ErrorHandler == nil {
		config.ErrorHandler = LogErrorHandler{Logger: config.Logger}
	}
	return &Executor{config: config}, nil
}

// Schema returns the schema served by e.
func (e *Executor) Schema() *schema.Schema {
	return e.config.Schema
}

// Registry returns the resolvers bound to the schema.
func (e *Executor) Registry() *registry.Registry {
	return e.config.Registry
}

// execution holds the state of one request.
type execution struct {
	executor *Executor
	request  *Request
	info     *registry.RequestInfo
	logger   *zap.Logger

	state State

	// context is assembled before validation.
	context registry.Context

	// args holds the coerced arguments of every field selection.
	args map[*Selection]map[string]interface{}

	errsMutex sync.Mutex
	errs      gqlerrors.Errors
}

func (e *Executor) newExecution(request *Request, operation string, kind metadata.OperationKind) *execution {
	id := request.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &execution{
		executor: e,
		request:  request,
		info: &registry.RequestInfo{
			ID:        id,
			Operation: operation,
			Kind:      kind,
			Metadata:  request.Metadata,
		},
		logger: e.config.Logger.With(zap.String("request", id)),
		state:  StateReceived,
		args:   map[*Selection]map[string]interface{}{},
	}
}

func (x *execution) transition(next State) {
	if !x.state.CanTransitionTo(next) {
		x.logger.Warn("unexpected state transition",
			zap.Stringer("from", x.state),
			zap.Stringer("to", next))
	}
	x.logger.Debug("state transition",
		zap.Stringer("from", x.state),
		zap.Stringer("to", next))
	x.state = next
}

func (x *execution) addError(err error) {
	x.errsMutex.Lock()
	x.errs.Append(err)
	x.errsMutex.Unlock()
}

func (x *execution) emplaceError(message string, args ...interface{}) {
	x.errsMutex.Lock()
	x.errs.Emplace(message, args...)
	x.errsMutex.Unlock()
}

func (x *execution) failed() bool {
	x.errsMutex.Lock()
	defer x.errsMutex.Unlock()
	return x.errs.HaveOccurred()
}

// fail finishes the request without data.
func (x *execution) fail() *Result {
	x.transition(StateFailed)
	return &Result{
		ID:     x.info.ID,
		State:  StateFailed,
		Errors: x.errs,
	}
}

// cancelled records the cancellation of ctx and finishes the request without data.
func (x *execution) cancelled(ctx context.Context) *Result {
	x.emplaceError(fmt.Sprintf("request is cancelled: %s", ctx.Err()),
		gqlerrors.Op("executor.Execute"),
		gqlerrors.ErrKindInternal,
		ctx.Err())
	return x.fail()
}

// Execute runs a query or mutation. Root fields of a query are resolved concurrently; root fields of
// a mutation run one after another in the order they are selected.
func (e *Executor) Execute(ctx context.Context, request *Request) *Result {
	x := e.newExecution(request, operationNames(request), request.Kind)

	root := e.config.Schema.Root(request.Kind)
	if root == nil || request.Kind == metadata.OperationSubscription {
		message := fmt.Sprintf("schema does not serve %s operations", request.Kind)
		if request.Kind == metadata.OperationSubscription {
			message = "subscriptions must be served with Subscribe"
		}
		x.emplaceError(message, gqlerrors.Op("executor.Execute"), gqlerrors.ErrKindValidation)
		return x.fail()
	}

	if !x.gate(ctx, root) {
		return x.fail()
	}

	x.transition(StateResolving)
	data, ok := x.resolveRoot(ctx, root)
	if ctx.Err() != nil {
		return x.cancelled(ctx)
	}
	if !ok {
		return x.fail()
	}

	x.transition(StateCompleted)
	return &Result{
		ID:     x.info.ID,
		State:  StateCompleted,
		Data:   data,
		Errors: x.errs,
	}
}

// operationNames lists the names of the root fields selected by request.
func operationNames(request *Request) string {
	var names string
	for _, selection := range request.Selection {
		if selection.IsFragment() {
			continue
		}
		if names != "" {
			names += ","
		}
		names += selection.Name
	}
	return names
}

// gate runs everything a request goes through before any resolver is called. It returns false if
// the request has to fail.
func (x *execution) gate(ctx context.Context, root *schema.Object) bool {
	for _, selection := range x.request.Selection {
		if selection.IsFragment() {
			continue
		}
		field := root.Field(selection.Name)
		if field == nil || field.Operation == nil {
			// Reported by validateSelection.
			continue
		}
		if !x.rateLimit(ctx, field.Operation.Name) {
			return false
		}
	}

	if !x.assembleContext(ctx) {
		return false
	}

	x.validateSelection(ctx, root, x.request.Selection, gqlerrors.ResponsePath{}, true)
	if x.failed() {
		return false
	}

	x.transition(StateValidated)
	return true
}

// rateLimit consults the limiter with the name of an operation.
func (x *execution) rateLimit(ctx context.Context, operation string) bool {
	limiter := x.executor.config.Limiter
	if limiter == nil {
		return true
	}

	if waiter, ok := limiter.(ratelimit.Waiter); ok && x.executor.config.WaitForRateLimit {
		if err := waiter.Wait(ctx, operation); err != nil {
			x.emplaceError(fmt.Sprintf(`rate limit of "%s" cannot be waited for: %s`, operation, err),
				gqlerrors.Op("executor.Execute"),
				gqlerrors.ErrKindRateLimited,
				gqlerrors.ErrorExtensions{"operation": operation},
				err)
			return false
		}
		return true
	}

	info, err := limiter.Allow(ctx, operation)
	if err != nil {
		x.emplaceError(fmt.Sprintf(`rate limiter failed for "%s"`, operation),
			gqlerrors.Op("executor.Execute"),
			gqlerrors.ErrKindInternal,
			err)
		return false
	}
	if !info.Allowed {
		extensions := gqlerrors.ErrorExtensions{
			"operation": operation,
			"limit":     info.Limit,
		}
		if !info.ResetAt.IsZero() {
			extensions["resetAt"] = info.ResetAt.UTC().Format(time.RFC3339)
		}
		x.emplaceError(fmt.Sprintf(`rate limit exceeded for "%s"`, operation),
			gqlerrors.Op("executor.Execute"),
			gqlerrors.ErrKindRateLimited,
			extensions)
		return false
	}
	return true
}

// assembleContext resolves every bound key of the context section concurrently.
func (x *execution) assembleContext(ctx context.Context) bool {
	reg := x.executor.config.Registry
	keys := reg.ContextKeys()
	values := make([]interface{}, len(keys))
	failures := make([]error, len(keys))

	var g errgroup.Group
	for i, key := range keys {
		i, key, resolve := i, key, reg.Context(key)
		g.Go(func() error {
			values[i], failures[i] = safely(func() (interface{}, error) {
				return resolve(ctx, x.info)
			}, `context "%s"`, key)
			return nil
		})
	}
	g.Wait()

	x.context = make(registry.Context, len(keys))
	ok := true
	for i, key := range keys {
		if err := failures[i]; err != nil {
			x.emplaceError(fmt.Sprintf(`context "%s" cannot be resolved: %s`, key, messageOf(err)),
				gqlerrors.Op("executor.Execute"),
				gqlerrors.ErrKindResolver,
				gqlerrors.ErrorExtensions{"context": key},
				err)
			x.executor.config.ErrorHandler.HandleResolverError(ctx, &ResolverErrorEvent{
				RequestID: x.info.ID,
				Kind:      x.info.Kind,
				Operation: x.info.Operation,
				Root:      true,
				Err:       err,
			})
			ok = false
			continue
		}
		x.context[key] = values[i]
	}
	return ok
}

// safely calls f and turns a panic into an error. The name of the failed resolver is formatted from
// format and args.
func safely(f func() (interface{}, error), format string, args ...interface{}) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = gqlerrors.NewError(
				fmt.Sprintf("%s panicked: %v", fmt.Sprintf(format, args...), r),
				gqlerrors.Op("executor.Execute"),
				gqlerrors.ErrKindInternal)
		}
	}()
	return f()
}

// messageOf returns the message of err without the operation prefix added by gqlerrors.
func messageOf(err error) string {
	var e *gqlerrors.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
