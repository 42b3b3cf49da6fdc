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

	"go.uber.org/zap"

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/metadata"
)

// ResolverErrorEvent describes a failed resolver.
type ResolverErrorEvent struct {
	RequestID string
	Kind      metadata.OperationKind

	// Operation is the root field the failing resolver belongs to.
	Operation string

	// Path of the failed field.
	Path gqlerrors.ResponsePath

	// Root is true when the operation resolver itself failed.
	Root bool

	Err error
}

// ActionErrorEvent describes a failed action.
type ActionErrorEvent struct {
	RequestID string
	Route     *metadata.Route
	Err       error
}

// ErrorHandler is notified of every resolver and action failure. It observes failures; the error
// still reaches the result.
type ErrorHandler interface {
	HandleResolverError(ctx context.Context, event *ResolverErrorEvent)
	HandleActionError(ctx context.Context, event *ActionErrorEvent)
}

// LogErrorHandler logs failures.
type LogErrorHandler struct {
	Logger *zap.Logger
}

var _ ErrorHandler = LogErrorHandler{}

// HandleResolverError implements ErrorHandler.
func (h LogErrorHandler) HandleResolverError(ctx context.Context, event *ResolverErrorEvent) {
	h.Logger.Error("resolver failed",
		zap.String("request", event.RequestID),
		zap.Stringer("kind", event.Kind),
		zap.String("operation", event.Operation),
		zap.Stringer("path", event.Path),
		zap.Bool("root", event.Root),
		zap.Error(event.Err))
}

// HandleActionError implements ErrorHandler.
func (h LogErrorHandler) HandleActionError(ctx context.Context, event *ActionErrorEvent) {
	h.Logger.Error("action failed",
		zap.String("request", event.RequestID),
		zap.Stringer("route", event.Route),
		zap.Error(event.Err))
}
