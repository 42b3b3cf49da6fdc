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

// Command typegraph inspects declaration files: it checks them, prints the schema they describe and
// lists their action routes.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/botobag/typegraph/app"
	"github.com/botobag/typegraph/config"
	"github.com/botobag/typegraph/declaration"
	"github.com/botobag/typegraph/naming"
)

type options struct {
	configPath string
	noColor    bool
	snake      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "typegraph",
		Short:         "Inspect typegraph declaration files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "",
		`configuration file (defaults to "typegraph.yaml" if present)`)
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&opts.snake, "snake-case", false, "name composed types in snake case")

	rootCmd.AddCommand(newCheckCmd(opts))
	rootCmd.AddCommand(newSchemaCmd(opts))
	rootCmd.AddCommand(newRoutesCmd(opts))
	return rootCmd
}

// compile loads the declaration files named by args, or by the configuration when args is empty,
// and compiles them.
func (opts *options) compile(args []string) (*app.Compiled, error) {
	c, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	paths := args
	if len(paths) == 0 {
		paths = c.Declarations
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no declaration files given")
	}

	decls, err := declaration.LoadAll(paths...)
	if err != nil {
		return nil, err
	}

	compileOpts := app.Options{
		Assert: c.Schema.Assert,
	}
	if opts.snake {
		compileOpts.Naming = naming.Snake{}
	}
	return app.Compile(decls, compileOpts)
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}
