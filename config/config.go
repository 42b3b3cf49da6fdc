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

// Package config loads the settings of a typegraph application from a YAML file and the
// environment. Environment variables are prefixed with TYPEGRAPH and use "_" in place of ".", e.g.
// TYPEGRAPH_EXECUTOR_MAX_CONCURRENCY.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/ratelimit"
)

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "TYPEGRAPH"

// Config is the configuration of an application.
type Config struct {
	// Declarations lists the YAML declaration files, merged in order.
	Declarations []string `mapstructure:"declarations"`

	// Validators names a YAML file of validation rules.
	Validators string `mapstructure:"validators"`

	Schema    SchemaConfig     `mapstructure:"schema"`
	Executor  ExecutorConfig   `mapstructure:"executor"`
	RateLimit ratelimit.Config `mapstructure:"ratelimit"`
	Server    ServerConfig     `mapstructure:"server"`
	Log       LogConfig        `mapstructure:"log"`
}

// SchemaConfig configures schema synthesis.
type SchemaConfig struct {
	Assert bool `mapstructure:"assert"`
}

// ExecutorConfig configures request execution.
type ExecutorConfig struct {
	MaxConcurrency   int  `mapstructure:"max_concurrency"`
	MaxBatchSize     uint `mapstructure:"max_batch_size"`
	WaitForRateLimit bool `mapstructure:"wait_for_rate_limit"`
}

// ServerConfig configures the HTTP handler.
type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	Path        string `mapstructure:"path"`
	MaxBodySize uint   `mapstructure:"max_body_size"`
}

// LogConfig configures the logger.
type LogConfig struct {
	// Level is one of "debug", "info", "warn" and "error".
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("declarations", []string{})
	v.SetDefault("validators", "")
	v.SetDefault("schema.assert", false)
	v.SetDefault("executor.max_concurrency", 0)
	v.SetDefault("executor.max_batch_size", 0)
	v.SetDefault("executor.wait_for_rate_limit", false)
	v.SetDefault("ratelimit.driver", "")
	v.SetDefault("ratelimit.rate", 0)
	v.SetDefault("ratelimit.burst", 0)
	v.SetDefault("ratelimit.limit", 0)
	v.SetDefault("ratelimit.window", "1m")
	v.SetDefault("ratelimit.redis_addr", "")
	v.SetDefault("ratelimit.prefix", "typegraph")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.path", "/graphql")
	v.SetDefault("server.max_body_size", 10<<20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Load reads the configuration. path names the configuration file. When path is empty,
// "typegraph.yaml" is looked up in the working directory and defaults are used if it is absent.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("typegraph")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, gqlerrors.NewError("cannot read configuration", gqlerrors.Op("config.Load"), err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, gqlerrors.NewError("cannot decode configuration", gqlerrors.Op("config.Load"), err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs gqlerrors.Errors
	fail := func(format string, args ...interface{}) {
		errs.Emplace(fmt.Sprintf(format, args...), gqlerrors.Op("config.Validate"))
	}

	if c.Executor.MaxConcurrency < 0 {
		fail("executor.max_concurrency must not be negative, got %d", c.Executor.MaxConcurrency)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		fail(`log.level "%s" is not a valid level`, c.Log.Level)
	}
	if c.Server.Path != "" && !strings.HasPrefix(c.Server.Path, "/") {
		fail(`server.path must start with "/", got "%s"`, c.Server.Path)
	}

	switch c.RateLimit.Driver {
	case ratelimit.DriverNone:
	case ratelimit.DriverMemory:
		if c.RateLimit.Rate <= 0 {
			fail("ratelimit.rate must be positive for the memory driver")
		}
	case ratelimit.DriverRedis:
		if c.RateLimit.RedisAddr == "" {
			fail("ratelimit.redis_addr is required for the redis driver")
		}
	default:
		fail(`ratelimit.driver "%s" is not one of "memory" and "redis"`, c.RateLimit.Driver)
	}

	return errs.ErrorOrNil()
}

// NewLogger builds the logger described by c.
func (c LogConfig) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}

	var config zap.Config
	if c.Development {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(level)
	return config.Build()
}
