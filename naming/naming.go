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

// Package naming provides the naming strategy used to derive schema type names from declared names.
package naming

import (
	"strings"

	"github.com/botobag/typegraph/internal/util"
)

// Strategy derives names. Implementations must be deterministic.
type Strategy interface {
	Capitalize(name string) string
	Decapitalize(name string) string
	Pluralize(name string) string

	// Compose builds the name of a type nested under prefix, e.g. the inline type of field "meta" of
	// "Post".
	Compose(prefix, name string) string
}

// Default is the strategy used when none is configured. Compose concatenates the capitalized parts
// so "Post" and "meta" give "PostMeta".
type Default struct{}

var _ Strategy = Default{}

// Capitalize implements Strategy.
func (Default) Capitalize(name string) string {
	return util.UpperFirst(name)
}

// Decapitalize implements Strategy.
func (Default) Decapitalize(name string) string {
	return util.LowerFirst(name)
}

// Pluralize implements Strategy with the regular English rules.
func (Default) Pluralize(name string) string {
	lower := strings.ToLower(name)
	switch {
	case lower == "":
		return name
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !isVowel(lower[len(lower)-2]):
		return name[:len(name)-1] + "ies"
	case strings.HasSuffix(lower, "s"),
		strings.HasSuffix(lower, "x"),
		strings.HasSuffix(lower, "z"),
		strings.HasSuffix(lower, "ch"),
		strings.HasSuffix(lower, "sh"):
		return name + "es"
	}
	return name + "s"
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// Compose implements Strategy.
func (d Default) Compose(prefix, name string) string {
	return d.Capitalize(util.CamelCase(prefix)) + d.Capitalize(util.CamelCase(name))
}

// Snake lower-cases names with underscores. Used for storage identifiers.
type Snake struct {
	Default
}

var _ Strategy = Snake{}

// Capitalize implements Strategy.
func (Snake) Capitalize(name string) string {
	return util.SnakeCase(name)
}

// Decapitalize implements Strategy.
func (Snake) Decapitalize(name string) string {
	return util.SnakeCase(name)
}

// Pluralize implements Strategy. Only the last word is pluralized.
func (s Snake) Pluralize(name string) string {
	return s.Default.Pluralize(util.SnakeCase(name))
}

// Compose implements Strategy.
func (Snake) Compose(prefix, name string) string {
	return util.SnakeCase(prefix) + "_" + util.SnakeCase(name)
}
