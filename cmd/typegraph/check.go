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

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check [files...]",
		Short: "Check declarations and report every problem",
		RunE: func(cmd *cobra.Command, args []string) error {
			compiled, err := opts.compile(args)
			if err != nil {
				return err
			}

			app := compiled.Graph.App()
			out := cmd.OutOrStdout()
			successColor.Fprint(out, "ok")
			fmt.Fprintf(out, ": %d models, %d inputs, %d queries, %d mutations, %d subscriptions, %d actions\n",
				app.Models.Len(),
				app.Inputs.Len(),
				app.Queries.Len(),
				app.Mutations.Len(),
				app.Subscriptions.Len(),
				app.Actions.Len())
			return nil
		},
	}
}
