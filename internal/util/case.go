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

package util

import (
	"strings"
)

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }
func isLower(b byte) bool { return b >= 'a' && b <= 'z' }

func toUpper(b byte) byte {
	if isLower(b) {
		return b - 'a' + 'A'
	}
	return b
}

func toLower(b byte) byte {
	if isUpper(b) {
		return b - 'A' + 'a'
	}
	return b
}

// CamelCase converts a name of the form "/[_A-Za-z][_0-9A-Za-z]*/" into upper camel case. For
// example, it returns "PostCategory" for "post_category".
func CamelCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	upperNext := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || c == '-' || c == ' ' {
			upperNext = true
			continue
		}
		if upperNext {
			c = toUpper(c)
			upperNext = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

// SnakeCase converts a name into snake case. For example, it returns "post_category" for
// "PostCategory" and "http_route" for "HTTPRoute".
func SnakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)

	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUpper(c) && i > 0 && s[i-1] != '_' {
			prevLower := isLower(s[i-1])
			nextLower := i+1 < len(s) && isLower(s[i+1])
			if prevLower || (nextLower && isUpper(s[i-1])) {
				b.WriteByte('_')
			}
		}
		b.WriteByte(toLower(c))
	}
	return b.String()
}

// UpperFirst upper-cases the first byte of s.
func UpperFirst(s string) string {
	if len(s) == 0 || !isLower(s[0]) {
		return s
	}
	return string(toUpper(s[0])) + s[1:]
}

// LowerFirst lower-cases the first byte of s.
func LowerFirst(s string) string {
	if len(s) == 0 || !isUpper(s[0]) {
		return s
	}
	return string(toLower(s[0])) + s[1:]
}
