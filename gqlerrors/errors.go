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

package gqlerrors

import (
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Errors wraps a list of Error. Intentionally wrapped in a struct instead of a simple alias to
// []*Error to enforce error checks to use errs.HaveOccurred() instead of (errs != nil).
//
// Build-time phases collect every problem into an Errors before failing so a developer sees all of
// them in one pass. Use ErrorOrNil to return the collection as a Go error.
type Errors struct {
	Errors []*Error
}

var _ error = Errors{}

// ErrorsOf is an utility function to constructs an Errors value. It takes arguments in one of the
// form otherwise it panics:
//
//  1. A list of errors; or
//  2. Arguments that can be taken by NewError to construct an Error value; That is, a string
//     specified the error message followed by other error context (e.g., path).
func ErrorsOf(args ...interface{}) Errors {
	var errs Errors
	for i, arg := range args {
		switch arg := arg.(type) {
		case error:
			errs.Append(arg)

		case string:
			errs.Emplace(arg, args[(i+1):]...)
			return errs

		default:
			panic("Errors.Emplace: bad call")
		}
	}
	return errs
}

// NoErrors constructs an empty Errors.
func NoErrors() Errors {
	return Errors{}
}

// Emplace constructs an Error from arguments and append to the errs.
func (errs *Errors) Emplace(message string, args ...interface{}) {
	errs.Append(NewError(message, args...))
}

// Append appends errors to the end of the Errors. An Errors value is flattened into the list and
// any other non-*Error value is wrapped.
func (errs *Errors) Append(e ...error) {
	for _, err := range e {
		switch err := err.(type) {
		case nil:
		case *Error:
			errs.Errors = append(errs.Errors, err)
		case Errors:
			errs.Errors = append(errs.Errors, err.Errors...)
		case *Errors:
			errs.Errors = append(errs.Errors, err.Errors...)
		default:
			errs.Errors = append(errs.Errors, NewError(err.Error(), err).(*Error))
		}
	}
}

// AppendErrors takes a list of Errors's and pulls every Error in each Errors to append to "errs".
func (errs *Errors) AppendErrors(e ...Errors) {
	for _, err := range e {
		errs.Errors = append(errs.Errors, err.Errors...)
	}
}

// HaveOccurred returns true if some errors exist. Use this instead of relying on "errs != nil" for
// checking existence of error because errs may be an empty array.
func (errs Errors) HaveOccurred() bool {
	return len(errs.Errors) > 0
}

// Len returns the number of errors.
func (errs Errors) Len() int {
	return len(errs.Errors)
}

// OfKind returns the errors with the given kind.
func (errs Errors) OfKind(kind ErrKind) []*Error {
	var result []*Error
	for _, err := range errs.Errors {
		if err.Kind == kind {
			result = append(result, err)
		}
	}
	return result
}

// ErrorOrNil returns nil when no error has occurred, errs otherwise.
func (errs Errors) ErrorOrNil() error {
	if !errs.HaveOccurred() {
		return nil
	}
	return errs
}

// Error implements Go's error interface. Each error is printed on its own line.
func (errs Errors) Error() string {
	switch len(errs.Errors) {
	case 0:
		return "no errors"
	case 1:
		return errs.Errors[0].Error()
	}

	var b strings.Builder
	b.WriteString("multiple errors occurred:")
	for _, err := range errs.Errors {
		b.WriteString("\n - ")
		b.WriteString(strings.ReplaceAll(err.Error(), "\n", "\n   "))
	}
	return b.String()
}

// AsErrors extracts the aggregated errors from err. A single *Error becomes a one-element list.
func AsErrors(err error) (Errors, bool) {
	switch err := err.(type) {
	case Errors:
		return err, true
	case *Errors:
		return *err, true
	case *Error:
		return ErrorsOf(err), true
	}
	return Errors{}, false
}

func sortedExtensionKeys(extensions ErrorExtensions) []string {
	keys := make([]string, 0, len(extensions))
	for k := range extensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	jsoniter.RegisterTypeEncoder("gqlerrors.ResponsePath", responsePathMarshaller{})
	jsoniter.RegisterTypeEncoder("gqlerrors.Error", errorMarshaller{})
}
