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
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// If the value doesn't contains value for the given key, return an empty string without error.
// If there're multiple values associated with the key, return an error. Otherwise, return the
// single value.
func getOneValue(values url.Values, key string) (string, error) {
	v := values[key]
	switch len(v) {
	case 0:
		return "", nil
	case 1:
		return v[0], nil
	default:
		return "", fmt.Errorf(`multiple values are provided to "%s", but only one expected`, key)
	}
}

func parseRequestFromValues(r *http.Request, values url.Values) (*HTTPRequest, error) {
	var (
		req HTTPRequest
		err error
	)

	if req.Query, err = getOneValue(values, "query"); err != nil {
		return nil, &HTTPRequestParseError{Request: r, Err: err}
	}

	variables, err := getOneValue(values, "variables")
	if err != nil {
		return nil, &HTTPRequestParseError{Request: r, Err: err}
	}
	if len(variables) > 0 {
		if err := json.UnmarshalFromString(variables, &req.Variables); err != nil {
			return nil, &HTTPRequestParseError{Request: r, Err: err}
		}
	}

	return &req, nil
}

// HTTPRequest contains result values of ParseHTTPRequest.
type HTTPRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// HTTPRequestParseError is returned by ParseHTTPRequest and readBody when parsing failed.
type HTTPRequestParseError struct {
	Request *http.Request
	Err     error
}

// Error implements Go's error interface.
func (err *HTTPRequestParseError) Error() string {
	return err.Err.Error()
}

// Unwrap returns the underlying error.
func (err *HTTPRequestParseError) Unwrap() error {
	return err.Err
}

var errRequestBodyTooLarge = errors.New("request body is too large")

// readBody reads at most maxBodySize bytes from r.Body.
func readBody(r *http.Request, maxBodySize uint) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, int64(maxBodySize+1)))
	if err != nil {
		return nil, &HTTPRequestParseError{Request: r, Err: err}
	}
	if len(body) > int(maxBodySize) {
		return nil, &HTTPRequestParseError{Request: r, Err: errRequestBodyTooLarge}
	}
	return body, nil
}

func mediaType(r *http.Request) string {
	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return contentType
}

// ParseHTTPRequest parses a request document and its variables from a http.Request. GET requests
// carry them in the URL. POST requests carry them in a JSON, form-encoded or application/graphql
// body.
func ParseHTTPRequest(r *http.Request, maxBodySize uint) (*HTTPRequest, error) {
	switch r.Method {
	case http.MethodGet:
		values, err := url.ParseQuery(r.URL.RawQuery)
		if err != nil {
			return nil, &HTTPRequestParseError{Request: r, Err: err}
		}
		return parseRequestFromValues(r, values)

	case http.MethodPost:
		body, err := readBody(r, maxBodySize)
		if err != nil {
			return nil, err
		}

		switch mediaType(r) {
		case "application/graphql":
			return &HTTPRequest{
				Query: string(body),
			}, nil

		case "application/x-www-form-urlencoded":
			values, err := url.ParseQuery(string(body))
			if err != nil {
				return nil, &HTTPRequestParseError{Request: r, Err: err}
			}
			return parseRequestFromValues(r, values)

		case "", "application/json":
			var req HTTPRequest
			if err := json.Unmarshal(body, &req); err != nil {
				return nil, &HTTPRequestParseError{Request: r, Err: err}
			}
			return &req, nil
		}
		return nil, &HTTPRequestParseError{
			Request: r,
			Err:     fmt.Errorf(`unsupported content type "%s"`, mediaType(r)),
		}
	}

	return nil, &HTTPRequestParseError{
		Request: r,
		Err:     fmt.Errorf(`unsupported method "%s"`, r.Method),
	}
}

// parseActionArgs collects the arguments of an action: query parameters first, then the fields of
// a JSON object body, then route parameters.
func parseActionArgs(r *http.Request, params map[string]string, maxBodySize uint) (map[string]interface{}, error) {
	args := map[string]interface{}{}

	for key, values := range r.URL.Query() {
		if len(values) == 1 {
			args[key] = values[0]
		} else {
			list := make([]interface{}, len(values))
			for i, value := range values {
				list[i] = value
			}
			args[key] = list
		}
	}

	body, err := readBody(r, maxBodySize)
	if err != nil {
		return nil, err
	}
	if len(body) > 0 {
		if t := mediaType(r); t != "" && t != "application/json" {
			return nil, &HTTPRequestParseError{
				Request: r,
				Err:     fmt.Errorf(`unsupported content type "%s"`, t),
			}
		}
		var fields map[string]interface{}
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, &HTTPRequestParseError{Request: r, Err: err}
		}
		for key, value := range fields {
			args[key] = value
		}
	}

	for key, value := range params {
		args[key] = value
	}
	return args, nil
}
