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

package validation

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/botobag/typegraph/gqlerrors"
)

// ParseRules decodes validators keyed by type name from a YAML document:
//
//	Post:
//	  projection:
//	    title: { minLength: 1, maxLength: 100 }
//	  expressions:
//	    - expr: "len(tags) <= 5"
//	      message: "a post has at most 5 tags"
func ParseRules(data []byte) (map[string]Validator, error) {
	var rules map[string]Validator
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, gqlerrors.NewError("malformed validation rules",
			gqlerrors.Op("validation.ParseRules"), err)
	}
	return rules, nil
}

// LoadRules reads the file at path and registers its validators into s.
func (s *Set) LoadRules(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return gqlerrors.NewError("cannot read validation rules",
			gqlerrors.Op("validation.LoadRules"), err)
	}
	rules, err := ParseRules(data)
	if err != nil {
		return err
	}
	return s.RegisterAll(rules)
}
