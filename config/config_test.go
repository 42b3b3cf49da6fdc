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

package config_test

import (
	"os"
	"path/filepath"
	"time"

	"github.com/botobag/typegraph/config"
	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/ratelimit"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zapcore"
)

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "typegraph-config")
		Expect(err).ShouldNot(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	write := func(content string) string {
		path := filepath.Join(dir, "typegraph.yaml")
		Expect(os.WriteFile(path, []byte(content), 0o644)).Should(Succeed())
		return path
	}

	It("reads a configuration file", func() {
		c, err := config.Load(write(`
declarations:
  - blog.yaml
  - shop.yaml
schema:
  assert: true
executor:
  max_concurrency: 8
  max_batch_size: 100
ratelimit:
  driver: redis
  limit: 10
  window: 30s
  redis_addr: localhost:6379
log:
  level: debug
`))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(c.Declarations).Should(Equal([]string{"blog.yaml", "shop.yaml"}))
		Expect(c.Schema.Assert).Should(BeTrue())
		Expect(c.Executor.MaxConcurrency).Should(Equal(8))
		Expect(c.Executor.MaxBatchSize).Should(Equal(uint(100)))
		Expect(c.RateLimit).Should(Equal(ratelimit.Config{
			Driver:    ratelimit.DriverRedis,
			Limit:     10,
			Window:    30 * time.Second,
			RedisAddr: "localhost:6379",
			Prefix:    "typegraph",
		}))
		Expect(c.Server.Path).Should(Equal("/graphql"))
		Expect(c.Log.Level).Should(Equal("debug"))
	})

	It("lets the environment override the file", func() {
		os.Setenv("TYPEGRAPH_EXECUTOR_MAX_CONCURRENCY", "3")
		defer os.Unsetenv("TYPEGRAPH_EXECUTOR_MAX_CONCURRENCY")

		c, err := config.Load(write("executor:\n  max_concurrency: 8\n"))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(c.Executor.MaxConcurrency).Should(Equal(3))
	})

	It("fails on a missing explicit file", func() {
		_, err := config.Load(filepath.Join(dir, "missing.yaml"))
		Expect(err).Should(HaveOccurred())
	})

	It("reports every invalid setting", func() {
		_, err := config.Load(write(`
executor:
  max_concurrency: -1
ratelimit:
  driver: memcached
log:
  level: loud
`))
		errs, ok := gqlerrors.AsErrors(err)
		Expect(ok).Should(BeTrue())
		Expect(errs.Len()).Should(Equal(3))
	})

	It("requires the settings of the selected limiter", func() {
		c := config.Config{
			RateLimit: ratelimit.Config{Driver: ratelimit.DriverMemory},
		}
		Expect(c.Validate()).Should(MatchError(ContainSubstring("ratelimit.rate must be positive")))
	})

	It("builds a logger at the configured level", func() {
		logger, err := config.LogConfig{Level: "warn"}.NewLogger()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(logger.Core().Enabled(zapcore.InfoLevel)).Should(BeFalse())
		Expect(logger.Core().Enabled(zapcore.WarnLevel)).Should(BeTrue())
	})
})
