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

// Package validation holds validation rules declared per model or input and applies them to request
// values before any resolver runs.
//
// A Validator combines three kinds of rules: a projection of per-field constraints (length, range
// and pattern), boolean expressions over the whole object evaluated with expr-lang, and a free-form
// validate function. Every violated rule is reported; validation does not stop at the first one.
package validation

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/botobag/typegraph/gqlerrors"
)

// Rule constrains the value of one field. Unset bounds are not checked. Length bounds apply to
// strings (in characters) and lists. Range bounds apply to numbers, BigInts and Dates; a Date is
// compared by its Unix time in seconds. Patterns apply to strings.
type Rule struct {
	MinLength *int     `yaml:"minLength"`
	MaxLength *int     `yaml:"maxLength"`
	Min       *float64 `yaml:"min"`
	Max       *float64 `yaml:"max"`
	Pattern   string   `yaml:"pattern"`
}

// Projection maps field names to rules.
type Projection map[string]Rule

// Int returns a pointer to v for use in rule literals.
func Int(v int) *int {
	return &v
}

// Float returns a pointer to v for use in rule literals.
func Float(v float64) *float64 {
	return &v
}

type compiledRule struct {
	Rule
	pattern *regexp.Regexp
}

func compileRule(field string, rule Rule) (*compiledRule, error) {
	compiled := &compiledRule{Rule: rule}
	if rule.Pattern != "" {
		pattern, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf(`invalid pattern for field "%s": %w`, field, err)
		}
		compiled.pattern = pattern
	}
	return compiled, nil
}

func violation(path gqlerrors.ResponsePath, field string, rule string, limit interface{}, message string) *gqlerrors.Error {
	extensions := gqlerrors.ErrorExtensions{
		"field": field,
		"rule":  rule,
	}
	if limit != nil {
		extensions[rule] = limit
	}
	return gqlerrors.NewError(message,
		gqlerrors.Op("validation.Validate"),
		gqlerrors.ErrKindValidation,
		path,
		extensions).(*gqlerrors.Error)
}

// check applies the rule to value and appends violations to errs. Absent values are not checked;
// whether a field is required is decided by its type.
func (rule *compiledRule) check(errs *gqlerrors.Errors, path gqlerrors.ResponsePath, field string, value interface{}) {
	if value == nil {
		return
	}
	fieldPath := path.WithFieldName(field)

	if length, ok := lengthOf(value); ok {
		if rule.MinLength != nil && length < *rule.MinLength {
			errs.Append(violation(fieldPath, field, "minLength", *rule.MinLength,
				fmt.Sprintf(`"%s" must be at least %d characters long`, field, *rule.MinLength)))
		}
		if rule.MaxLength != nil && length > *rule.MaxLength {
			errs.Append(violation(fieldPath, field, "maxLength", *rule.MaxLength,
				fmt.Sprintf(`"%s" must be at most %d characters long`, field, *rule.MaxLength)))
		}
	}

	if rule.Min != nil {
		if sign, ok := compare(value, *rule.Min); ok && sign < 0 {
			errs.Append(violation(fieldPath, field, "min", *rule.Min,
				fmt.Sprintf(`"%s" must be greater than or equal to %v`, field, *rule.Min)))
		}
	}
	if rule.Max != nil {
		if sign, ok := compare(value, *rule.Max); ok && sign > 0 {
			errs.Append(violation(fieldPath, field, "max", *rule.Max,
				fmt.Sprintf(`"%s" must be less than or equal to %v`, field, *rule.Max)))
		}
	}

	if s, ok := value.(string); ok && rule.pattern != nil && !rule.pattern.MatchString(s) {
		errs.Append(violation(fieldPath, field, "pattern", rule.Pattern,
			fmt.Sprintf(`"%s" must match %s`, field, rule.Pattern)))
	}
}

func lengthOf(value interface{}) (int, bool) {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(v), true
	case []interface{}:
		return len(v), true
	case []string:
		return len(v), true
	}
	return 0, false
}

// compare returns -1, 0 or +1 as value is less than, equal to or greater than bound. It returns
// false when value has no order.
func compare(value interface{}, bound float64) (int, bool) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil || math.IsNaN(bound) {
			return 0, false
		}
		return new(big.Float).SetInt(v).Cmp(big.NewFloat(bound)), true

	case time.Time:
		value = float64(v.Unix()) + float64(v.Nanosecond())/float64(time.Second)
	}

	number, ok := numberOf(value)
	switch {
	case !ok:
		return 0, false
	case number < bound:
		return -1, true
	case number > bound:
		return 1, true
	}
	return 0, true
}

func numberOf(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
