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

// Package app runs the whole pipeline of typegraph. Compile turns declarations into a checked
// metadata graph and a schema. Build additionally binds resolvers and creates an executor serving
// the schema.
package app

import (
	"go.uber.org/zap"

	"github.com/botobag/typegraph/check"
	"github.com/botobag/typegraph/declaration"
	"github.com/botobag/typegraph/executor"
	"github.com/botobag/typegraph/extractor"
	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/graph"
	"github.com/botobag/typegraph/metadata"
	"github.com/botobag/typegraph/naming"
	"github.com/botobag/typegraph/ratelimit"
	"github.com/botobag/typegraph/registry"
	"github.com/botobag/typegraph/schema"
	"github.com/botobag/typegraph/validation"
)

// Options configures Compile.
type Options struct {
	// Naming derives type names in the schema. Defaults to naming.Default.
	Naming naming.Strategy

	// Assert enables schema.Config.Assert.
	Assert bool

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

func (opts *Options) logger() *zap.Logger {
	if opts.Logger == nil {
		return zap.NewNop()
	}
	return opts.Logger
}

// Compiled is the result of Compile.
type Compiled struct {
	// Metadata is the output of the extractor.
	Metadata *metadata.AppMetadata
	Graph    *graph.Graph

	// Schema has no resolver bindings.
	Schema *schema.Schema
}

// Compile extracts, resolves, checks and synthesizes decls. Each phase reports every problem it
// finds, and the first failing phase stops the pipeline.
func Compile(decls *declaration.Declarations, opts Options) (*Compiled, error) {
	c, err := compile(decls, opts)
	if err != nil {
		return nil, err
	}

	s, err := synthesize(c.Graph, opts, schema.Config{})
	if err != nil {
		return nil, err
	}
	c.Schema = s
	return c, nil
}

func compile(decls *declaration.Declarations, opts Options) (*Compiled, error) {
	logger := opts.logger()

	raw, err := extractor.Extract(decls)
	if err != nil {
		return nil, failed(logger, "extract", err)
	}
	logger.Debug("extracted declarations",
		zap.Int("models", raw.Models.Len()),
		zap.Int("inputs", raw.Inputs.Len()),
		zap.Int("queries", raw.Queries.Len()),
		zap.Int("mutations", raw.Mutations.Len()),
		zap.Int("subscriptions", raw.Subscriptions.Len()),
		zap.Int("actions", raw.Actions.Len()))

	g, err := graph.Resolve(raw)
	if err != nil {
		return nil, failed(logger, "resolve", err)
	}
	logger.Debug("resolved references", zap.Int("types", len(g.Names())))

	if err := check.Check(g); err != nil {
		return nil, failed(logger, "check", err)
	}

	return &Compiled{
		Metadata: raw,
		Graph:    g,
	}, nil
}

func synthesize(g *graph.Graph, opts Options, config schema.Config) (*schema.Schema, error) {
	config.Naming = opts.Naming
	config.Assert = opts.Assert

	s, err := schema.Synthesize(g, config)
	if err != nil {
		return nil, failed(opts.logger(), "synthesize", err)
	}
	opts.logger().Debug("synthesized schema", zap.Int("types", len(s.Types)))
	return s, nil
}

func failed(logger *zap.Logger, phase string, err error) error {
	var count = 1
	if errs, ok := gqlerrors.AsErrors(err); ok {
		count = errs.Len()
	}
	logger.Error("build failed",
		zap.String("phase", phase),
		zap.Int("errors", count),
		zap.Error(err))
	return err
}

// Config configures Build.
type Config struct {
	Options

	// Validators, Limiter, WaitForRateLimit, ErrorHandler, MaxConcurrency and MaxBatchSize are passed
	// to the executor.
	Validators       *validation.Set
	Limiter          ratelimit.Limiter
	WaitForRateLimit bool
	ErrorHandler     executor.ErrorHandler
	MaxConcurrency   int
	MaxBatchSize     uint
}

// App is a built application ready to serve requests.
type App struct {
	Compiled

	Registry *registry.Registry
	Executor *executor.Executor
	Logger   *zap.Logger
}

// Build compiles decls, binds resolvers to the graph and creates the executor. Validators must be
// keyed by names declared in decls.
func Build(decls *declaration.Declarations, config Config, resolvers ...registry.Declaration) (*App, error) {
	logger := config.logger()

	c, err := compile(decls, config.Options)
	if err != nil {
		return nil, err
	}

	r, err := registry.Bind(c.Graph, resolvers...)
	if err != nil {
		return nil, failed(logger, "bind", err)
	}
	if unbound := r.Unbound(); len(unbound) > 0 {
		logger.Warn("operations without resolver", zap.Strings("operations", unbound))
	}

	s, err := synthesize(c.Graph, config.Options, schema.Config{
		ResolveFactory:   r.ResolveFactory(),
		SubscribeFactory: r.SubscribeFactory(),
	})
	if err != nil {
		return nil, err
	}
	c.Schema = s

	e, err := executor.New(executor.Config{
		Schema:           s,
		Registry:         r,
		Validators:       config.Validators,
		Limiter:          config.Limiter,
		WaitForRateLimit: config.WaitForRateLimit,
		ErrorHandler:     config.ErrorHandler,
		MaxConcurrency:   config.MaxConcurrency,
		MaxBatchSize:     config.MaxBatchSize,
		Logger:           logger,
	})
	if err != nil {
		return nil, failed(logger, "executor", err)
	}

	logger.Info("application built",
		zap.Int("types", len(s.Types)),
		zap.Int("actions", len(r.Actions())))

	return &App{
		Compiled: *c,
		Registry: r,
		Executor: e,
		Logger:   logger,
	}, nil
}
