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

package app

import (
	"go.uber.org/zap"

	"github.com/botobag/typegraph/config"
	"github.com/botobag/typegraph/declaration"
	"github.com/botobag/typegraph/ratelimit"
	"github.com/botobag/typegraph/registry"
	"github.com/botobag/typegraph/validation"
)

// Load builds the application described by c. Declarations and validation rules are read from the
// files c names.
func Load(c *config.Config, resolvers ...registry.Declaration) (*App, error) {
	logger, err := c.Log.NewLogger()
	if err != nil {
		return nil, err
	}

	decls, err := declaration.LoadAll(c.Declarations...)
	if err != nil {
		return nil, failed(logger, "load", err)
	}

	validators := validation.NewSet()
	if c.Validators != "" {
		if err := validators.LoadRules(c.Validators); err != nil {
			return nil, failed(logger, "load", err)
		}
	}

	limiter, err := ratelimit.New(c.RateLimit)
	if err != nil {
		return nil, failed(logger, "load", err)
	}
	logger.Debug("loaded configuration",
		zap.Strings("declarations", c.Declarations),
		zap.String("ratelimit", string(c.RateLimit.Driver)))

	return Build(decls, Config{
		Options: Options{
			Assert: c.Schema.Assert,
			Logger: logger,
		},
		Validators:       validators,
		Limiter:          limiter,
		WaitForRateLimit: c.Executor.WaitForRateLimit,
		MaxConcurrency:   c.Executor.MaxConcurrency,
		MaxBatchSize:     c.Executor.MaxBatchSize,
	}, resolvers...)
}
