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
	"context"
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/botobag/typegraph/gqlerrors"
)

// Expression is a boolean expr-lang expression over the fields of an object, e.g.
// "endsAt > startsAt". Message replaces the default error message when set.
type Expression struct {
	Expr    string `yaml:"expr"`
	Message string `yaml:"message"`
}

// ValidateFunc validates a whole object. A returned gqlerrors.Errors is reported error by error.
type ValidateFunc func(ctx context.Context, value map[string]interface{}) error

// Validator is the set of rules declared for one model or input.
type Validator struct {
	Projection  Projection   `yaml:"projection"`
	Expressions []Expression `yaml:"expressions"`
	Validate    ValidateFunc `yaml:"-"`
}

type compiledExpression struct {
	Expression
	program *vm.Program
}

type compiledValidator struct {
	fields      []string
	rules       map[string]*compiledRule
	expressions []compiledExpression
	validate    ValidateFunc
}

// Set holds the validators of an application keyed by model or input name. A Set is read-only once
// registration is done and may be used from many requests concurrently.
type Set struct {
	validators map[string]*compiledValidator
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{
		validators: map[string]*compiledValidator{},
	}
}

// Register compiles the rules of v and attaches them to the type with the given name. Registering a
// name twice replaces the earlier validator.
func (s *Set) Register(name string, v Validator) error {
	compiled := &compiledValidator{
		rules:    make(map[string]*compiledRule, len(v.Projection)),
		validate: v.Validate,
	}

	var errs gqlerrors.Errors
	for field, rule := range v.Projection {
		r, err := compileRule(field, rule)
		if err != nil {
			errs.Emplace(err.Error(), gqlerrors.Op("validation.Register"))
			continue
		}
		compiled.fields = append(compiled.fields, field)
		compiled.rules[field] = r
	}
	// Report violations in a stable order.
	sort.Strings(compiled.fields)

	for _, e := range v.Expressions {
		program, err := expr.Compile(e.Expr, expr.AsBool())
		if err != nil {
			errs.Emplace(fmt.Sprintf(`invalid expression "%s" for "%s"`, e.Expr, name),
				gqlerrors.Op("validation.Register"), err)
			continue
		}
		compiled.expressions = append(compiled.expressions, compiledExpression{
			Expression: e,
			program:    program,
		})
	}

	if errs.HaveOccurred() {
		return errs
	}
	s.validators[name] = compiled
	return nil
}

// RegisterAll registers every validator in m.
func (s *Set) RegisterAll(m map[string]Validator) error {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs gqlerrors.Errors
	for _, name := range names {
		errs.Append(s.Register(name, m[name]))
	}
	return errs.ErrorOrNil()
}

// Has returns true if a validator is registered for name.
func (s *Set) Has(name string) bool {
	if s == nil {
		return false
	}
	_, exists := s.validators[name]
	return exists
}

// Validate applies the validator of typeName to value. Errors carry path extended with the field
// name of the violated rule. It returns no error when typeName has no validator.
func (s *Set) Validate(
	ctx context.Context,
	typeName string,
	value map[string]interface{},
	path gqlerrors.ResponsePath) gqlerrors.Errors {

	var errs gqlerrors.Errors
	if s == nil || value == nil {
		return errs
	}
	v, exists := s.validators[typeName]
	if !exists {
		return errs
	}

	for _, field := range v.fields {
		v.rules[field].check(&errs, path, field, value[field])
	}

	for _, e := range v.expressions {
		result, err := expr.Run(e.program, value)
		ok, isBool := result.(bool)
		if err == nil && isBool && ok {
			continue
		}
		message := e.Message
		if message == "" {
			message = fmt.Sprintf(`%s does not satisfy "%s"`, typeName, e.Expr)
		}
		args := []interface{}{
			gqlerrors.Op("validation.Validate"),
			gqlerrors.ErrKindValidation,
			path,
			gqlerrors.ErrorExtensions{"rule": "expression", "expression": e.Expr},
		}
		if err != nil {
			args = append(args, err)
		}
		errs.Emplace(message, args...)
	}

	if v.validate != nil {
		if err := v.validate(ctx, value); err != nil {
			if all, ok := gqlerrors.AsErrors(err); ok {
				for _, e := range all.Errors {
					errs.Emplace(e.Message, e, gqlerrors.ErrKindValidation, path)
				}
			} else {
				errs.Emplace(err.Error(),
					gqlerrors.Op("validation.Validate"),
					gqlerrors.ErrKindValidation,
					path,
					gqlerrors.ErrorExtensions{"rule": "validate"},
					err)
			}
		}
	}
	return errs
}
