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
	"io"

	"github.com/fatih/color"

	"github.com/botobag/typegraph/gqlerrors"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	kindColor    = color.New(color.FgYellow)
	locColor     = color.New(color.Faint)
	successColor = color.New(color.FgGreen, color.Bold)
	methodColor  = color.New(color.FgCyan, color.Bold)
)

// printError writes one line per error, e.g.
//
//	blog.yaml:12:5: duplicate operation: mutation "postSave" is declared 2 times
func printError(w io.Writer, err error) {
	errs, ok := gqlerrors.AsErrors(err)
	if !ok {
		errorColor.Fprint(w, "error: ")
		fmt.Fprintln(w, err)
		return
	}

	for _, e := range errs.Errors {
		if len(e.Locations) > 0 {
			locColor.Fprintf(w, "%s: ", e.Locations[0])
		}
		if e.Kind != gqlerrors.ErrKindOther {
			kindColor.Fprintf(w, "%s: ", e.Kind)
		}
		fmt.Fprintln(w, e.Message)
	}
	errorColor.Fprintf(w, "%d error(s)\n", errs.Len())
}
