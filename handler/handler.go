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

// Package handler serves an executor over HTTP. Queries and mutations are served on one endpoint in
// the manner of GraphQL web services. Every bound action is mounted on its own route.
package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/botobag/typegraph/executor"
	"github.com/botobag/typegraph/registry"
)

// config contains configuration for a handler.
type config struct {
	path           string
	maxBodySize    uint
	logger         *zap.Logger
	errorPresenter ErrorPresenter
}

// Option configures the handler.
type Option func(c *config)

// Path sets the path of the query endpoint. Defaults to "/graphql".
func Path(path string) Option {
	return func(c *config) {
		c.path = path
	}
}

// MaxBodySize sets the maximum number of bytes to be read from a request body. Defaults to 10MB.
func MaxBodySize(size uint) Option {
	return func(c *config) {
		c.maxBodySize = size
	}
}

// Logger sets the logger for served requests.
func Logger(logger *zap.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// OverrideErrorPresenter overrides DefaultErrorPresenter.
func OverrideErrorPresenter(errorPresenter ErrorPresenter) Option {
	return func(c *config) {
		c.errorPresenter = errorPresenter
	}
}

var errMissingExecutor = errors.New("typegraph/handler: must specify an executor")

type handler struct {
	executor *executor.Executor
	config   config
}

// New creates a net/http.Handler serving e.
func New(e *executor.Executor, opts ...Option) (http.Handler, error) {
	if e == nil {
		return nil, errMissingExecutor
	}

	c := config{
		path:        "/graphql",
		maxBodySize: 10 << 20, // 10MB
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.errorPresenter == nil {
		c.errorPresenter = DefaultErrorPresenter{}
	}

	h := &handler{
		executor: e,
		config:   c,
	}

	router := chi.NewRouter()
	router.Get(c.path, h.serveQuery)
	router.Post(c.path, h.serveQuery)
	for _, action := range e.Registry().Actions() {
		route := action.Operation.Route
		router.Method(route.Method, route.Pattern(), h.actionHandler(action))
		c.logger.Debug("mount action",
			zap.String("route", route.String()),
			zap.String("operation", action.Operation.Name))
	}
	return router, nil
}

func (h *handler) serveQuery(w http.ResponseWriter, r *http.Request) {
	parsed, err := ParseHTTPRequest(r, h.config.maxBodySize)
	if err != nil {
		h.config.errorPresenter.Write(w, err)
		return
	}
	if len(parsed.Query) == 0 {
		h.config.errorPresenter.Write(w, &HTTPRequestParseError{
			Request: r,
			Err:     errors.New("empty query"),
		})
		return
	}

	request, err := executor.Parse(parsed.Query)
	if err != nil {
		h.config.errorPresenter.Write(w, err)
		return
	}
	request.Variables = parsed.Variables
	request.Metadata = requestMetadata(r)

	result := h.executor.Execute(r.Context(), request)
	h.config.logger.Debug("served request",
		zap.String("id", result.ID),
		zap.Stringer("state", result.State),
		zap.Int("errors", result.Errors.Len()))

	writeJSON(w, http.StatusOK, result)
}

func (h *handler) actionHandler(action *registry.ActionResolver) http.HandlerFunc {
	route := action.Operation.Route
	return func(w http.ResponseWriter, r *http.Request) {
		params := make(map[string]string, len(route.Params))
		for _, name := range route.Params {
			params[name] = chi.URLParam(r, name)
		}

		args, err := parseActionArgs(r, params, h.config.maxBodySize)
		if err != nil {
			h.config.errorPresenter.Write(w, err)
			return
		}

		value, err := h.executor.ExecuteAction(r.Context(), route.String(), args, requestMetadata(r))
		if err != nil {
			h.config.logger.Debug("action failed",
				zap.String("route", route.String()),
				zap.Error(err))
			h.config.errorPresenter.Write(w, err)
			return
		}

		if value == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, value)
	}
}

// requestMetadata collects the headers of r, keyed by lower-cased name.
func requestMetadata(r *http.Request) map[string]string {
	metadata := make(map[string]string, len(r.Header))
	for name := range r.Header {
		metadata[strings.ToLower(name)] = r.Header.Get(name)
	}
	return metadata
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	stream := json.BorrowStream(w)
	defer json.ReturnStream(stream)
	stream.WriteVal(value)
	stream.Flush()
}
