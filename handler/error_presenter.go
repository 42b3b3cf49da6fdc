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

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/botobag/typegraph/gqlerrors"
)

// ErrorPresenter presents an error to a http.ResponseWriter.
type ErrorPresenter interface {
	// Write sends the given error to w.
	Write(w http.ResponseWriter, err error)
}

// StatusOf maps err to the HTTP status code of its response.
func StatusOf(err error) int {
	var parseErr *HTTPRequestParseError
	if errors.As(err, &parseErr) {
		if errors.Is(parseErr.Err, errRequestBodyTooLarge) {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	}

	errs, ok := gqlerrors.AsErrors(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch {
	case len(errs.OfKind(gqlerrors.ErrKindRateLimited)) > 0:
		return http.StatusTooManyRequests
	case len(errs.OfKind(gqlerrors.ErrKindValidation)) > 0:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// DefaultErrorPresenter writes errors as a JSON object {"errors": [...]} with the status code given
// by StatusOf. A Retry-After header is set on rate limited responses.
type DefaultErrorPresenter struct{}

// Write implements ErrorPresenter.
func (DefaultErrorPresenter) Write(w http.ResponseWriter, err error) {
	errs, ok := gqlerrors.AsErrors(err)
	if !ok {
		errs = gqlerrors.ErrorsOf(err.Error())
	}

	status := StatusOf(err)
	if status == http.StatusTooManyRequests {
		for _, e := range errs.OfKind(gqlerrors.ErrKindRateLimited) {
			if resetAt, ok := e.Extensions["resetAt"].(string); ok {
				if t, err := time.Parse(time.RFC3339, resetAt); err == nil {
					seconds := int(time.Until(t).Seconds()) + 1
					if seconds < 1 {
						seconds = 1
					}
					w.Header().Set("Retry-After", strconv.Itoa(seconds))
				}
			}
		}
	}

	writeJSON(w, status, map[string]interface{}{
		"errors": errs.Errors,
	})
}
