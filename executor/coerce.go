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

package executor

import (
	"context"
	"fmt"
	"math/big"
	"reflect"
	"time"

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/internal/util"
	"github.com/botobag/typegraph/metadata"
	"github.com/botobag/typegraph/schema"
)

// TypeNameField is the meta field returning the name of the object type of its parent.
const TypeNameField = "__typename"

func (x *execution) validationError(path gqlerrors.ResponsePath, format string, args ...interface{}) {
	x.emplaceError(fmt.Sprintf(format, args...),
		gqlerrors.Op("executor.Execute"),
		gqlerrors.ErrKindValidation,
		path)
}

func (x *execution) appendErrors(errs gqlerrors.Errors) {
	if !errs.HaveOccurred() {
		return
	}
	x.errsMutex.Lock()
	x.errs.AppendErrors(errs)
	x.errsMutex.Unlock()
}

func fieldNames(object *schema.Object) []string {
	names := make([]string, 0, len(object.Fields)+1)
	for _, field := range object.Fields {
		names = append(names, field.Name)
	}
	return append(names, TypeNameField)
}

// validateSelection checks selection against object, coerces the arguments of every selected field
// and validates inputs.
func (x *execution) validateSelection(
	ctx context.Context,
	object *schema.Object,
	selection []*Selection,
	path gqlerrors.ResponsePath,
	root bool) {

	for _, s := range selection {
		if s.IsFragment() {
			if s.On != object.Name {
				x.validationError(path,
					`fragment cannot be spread here as objects of type "%s" can never be of type "%s"`,
					object.Name, s.On)
				continue
			}
			x.validateSelection(ctx, object, s.Selection, path, root)
			continue
		}

		fieldPath := path.WithFieldName(s.ResponseKey())
		if s.Name == TypeNameField {
			if len(s.Selection) > 0 {
				x.validationError(fieldPath, `field "%s" must not have a selection since type "String!" has no subfields`, s.Name)
			}
			continue
		}

		field := object.Field(s.Name)
		if field == nil {
			x.validationError(fieldPath, `cannot query field "%s" on type "%s".%s`,
				s.Name, object.Name, util.DidYouMean(s.Name, fieldNames(object)))
			continue
		}

		x.args[s] = x.coerceArgs(ctx, object, field, s, fieldPath, root)
		x.validateSubselection(ctx, field, s, fieldPath)
	}
}

func (x *execution) validateSubselection(
	ctx context.Context,
	field *schema.Field,
	s *Selection,
	path gqlerrors.ResponsePath) {

	switch named := field.Type.Named.(type) {
	case *schema.Object:
		if len(s.Selection) == 0 {
			x.validationError(path, `field "%s" of type "%s" must have a selection of subfields`,
				field.Name, field.Type)
			return
		}
		x.validateSelection(ctx, named, s.Selection, path, false)

	case *schema.Union:
		if len(s.Selection) == 0 {
			x.validationError(path, `field "%s" of type "%s" must have a selection of subfields`,
				field.Name, field.Type)
			return
		}
		for _, sub := range s.Selection {
			if !sub.IsFragment() {
				if sub.Name != TypeNameField {
					x.validationError(path.WithFieldName(sub.ResponseKey()),
						`cannot query field "%s" on union type "%s"; select it in a fragment on one of its members`,
						sub.Name, named.Name)
				}
				continue
			}
			member := named.Member(sub.On)
			if member == nil {
				names := make([]string, len(named.Members))
				for i, m := range named.Members {
					names[i] = m.Name
				}
				x.validationError(path, `"%s" is not a member of union "%s".%s`,
					sub.On, named.Name, util.DidYouMean(sub.On, names))
				continue
			}
			x.validateSelection(ctx, member, sub.Selection, path, false)
		}

	default:
		if len(s.Selection) > 0 {
			x.validationError(path, `field "%s" must not have a selection since type "%s" has no subfields`,
				field.Name, field.Type)
		}
	}
}

// coerceArgs coerces the arguments of a selected field. Arguments of a root field are reported under
// the "input" key of the field path.
func (x *execution) coerceArgs(
	ctx context.Context,
	object *schema.Object,
	field *schema.Field,
	s *Selection,
	path gqlerrors.ResponsePath,
	root bool) map[string]interface{} {

	if root {
		path = path.WithFieldName(schema.InputArgumentName)
	}

	names := make([]string, len(field.Args))
	for i, arg := range field.Args {
		names[i] = arg.Name
	}
	for name := range s.Args {
		if !hasArgument(field, name) {
			x.validationError(path, `unknown argument "%s" on field "%s.%s".%s`,
				name, object.Name, field.Name, util.DidYouMean(name, names))
		}
	}

	args := make(map[string]interface{}, len(field.Args))
	for _, arg := range field.Args {
		argPath := path
		if !root || arg.Name != schema.InputArgumentName {
			argPath = path.WithFieldName(arg.Name)
		}

		value, present := x.argumentValue(s.Args, arg.Name)
		if !present {
			if arg.Type.NonNull {
				x.validationError(argPath, `argument "%s" of required type "%s" was not provided`,
					arg.Name, arg.Type)
			}
			continue
		}
		args[arg.Name] = x.coerceInput(ctx, arg.Type, value, argPath)
	}

	if root && field.Operation != nil {
		x.validateInput(ctx, x.operationInputNames(field.Operation), args, path)
	}
	return args
}

func hasArgument(field *schema.Field, name string) bool {
	for _, arg := range field.Args {
		if arg.Name == name {
			return true
		}
	}
	return false
}

// argumentValue looks up an argument and substitutes variables.
func (x *execution) argumentValue(args map[string]interface{}, name string) (interface{}, bool) {
	value, present := args[name]
	if !present {
		return nil, false
	}
	if variable, ok := value.(Variable); ok {
		value, present = x.request.Variables[string(variable)]
	}
	return value, present
}

// operationInputNames returns the names under which validators of an operation input spread into
// arguments are registered.
func (x *execution) operationInputNames(op *metadata.OperationMetadata) []string {
	target := x.operationInputTarget(op)
	if target == nil || target.Kind != metadata.KindObject || op.InputType.Array || target.Name == "" {
		return nil
	}
	return []string{target.Name}
}

func (x *execution) operationInputTarget(op *metadata.OperationMetadata) *metadata.TypeNode {
	if op.InputType == nil {
		return nil
	}
	if op.InputType.Kind == metadata.KindReference {
		return x.executor.config.Registry.Graph().Target(op.InputType)
	}
	return op.InputType
}

// spreadsInput returns true if the object input of op is passed as the arguments of its field.
func (x *execution) spreadsInput(op *metadata.OperationMetadata) bool {
	target := x.operationInputTarget(op)
	return target != nil && target.Kind == metadata.KindObject && !op.InputType.Array
}

// validateInput applies the first validator registered under one of names.
func (x *execution) validateInput(
	ctx context.Context,
	names []string,
	value map[string]interface{},
	path gqlerrors.ResponsePath) {

	validators := x.executor.config.Validators
	for _, name := range names {
		if validators.Has(name) {
			x.appendErrors(validators.Validate(ctx, name, value, path))
			return
		}
	}
}

// coerceInput converts a request value to the Go value of type t.
func (x *execution) coerceInput(
	ctx context.Context,
	t *schema.TypeRef,
	value interface{},
	path gqlerrors.ResponsePath) interface{} {

	if variable, ok := value.(Variable); ok {
		value = x.request.Variables[string(variable)]
	}

	if isNull(value) {
		if t.NonNull {
			x.validationError(path, `expected non-null value of type "%s"`, t)
		}
		return nil
	}

	if t.List {
		element := &schema.TypeRef{Named: t.Named, NonNull: true}
		list := reflect.ValueOf(value)
		if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
			// A single value is coerced into a list of one.
			return []interface{}{x.coerceInput(ctx, element, value, path.WithIndex(0))}
		}
		result := make([]interface{}, list.Len())
		for i := range result {
			result[i] = x.coerceInput(ctx, element, list.Index(i).Interface(), path.WithIndex(i))
		}
		return result
	}

	switch named := t.Named.(type) {
	case *schema.Scalar:
		result, err := coerceScalarInput(named, value)
		if err != nil {
			x.validationError(path, "%s", err)
		}
		return result

	case *schema.Enum:
		var name string
		switch v := value.(type) {
		case EnumLiteral:
			name = string(v)
		case string:
			name = v
		}
		for _, enumValue := range named.Values {
			if enumValue.Name == name {
				return enumValue.Value
			}
		}
		names := make([]string, len(named.Values))
		for i, enumValue := range named.Values {
			names[i] = enumValue.Name
		}
		x.validationError(path, `enum "%s" has no value %v.%s`, named.Name, inspect(value),
			util.DidYouMean(name, names))
		return nil

	case *schema.InputObject:
		fields, ok := value.(map[string]interface{})
		if !ok {
			x.validationError(path, `expected value of type "%s", found %v`, named.Name, inspect(value))
			return nil
		}
		return x.coerceInputObject(ctx, named, fields, path)
	}

	x.validationError(path, `type "%s" cannot be used as an input`, t)
	return nil
}

func (x *execution) coerceInputObject(
	ctx context.Context,
	input *schema.InputObject,
	fields map[string]interface{},
	path gqlerrors.ResponsePath) map[string]interface{} {

	names := make([]string, len(input.Fields))
	known := make(map[string]bool, len(input.Fields))
	for i, field := range input.Fields {
		names[i] = field.Name
		known[field.Name] = true
	}
	for name := range fields {
		if !known[name] {
			x.validationError(path.WithFieldName(name), `field "%s" is not defined by type "%s".%s`,
				name, input.Name, util.DidYouMean(name, names))
		}
	}

	result := make(map[string]interface{}, len(input.Fields))
	for _, field := range input.Fields {
		fieldPath := path.WithFieldName(field.Name)
		value, present := x.argumentValue(fields, field.Name)
		if !present {
			if field.Type.NonNull {
				x.validationError(fieldPath, `field "%s.%s" of required type "%s" was not provided`,
					input.Name, field.Name, field.Type)
			}
			continue
		}
		result[field.Name] = x.coerceInput(ctx, field.Type, value, fieldPath)
	}

	var validatorNames []string
	if input.Node != nil && input.Node.Name != "" {
		validatorNames = append(validatorNames, input.Node.Name)
	}
	validatorNames = append(validatorNames, input.Name)
	x.validateInput(ctx, validatorNames, result, path)
	return result
}

// coerceScalarInput converts an input value to the Go representation of a scalar: string for
// String, float64 for Float, bool for Boolean, time.Time for Date and *big.Int for BigInt.
func coerceScalarInput(scalar *schema.Scalar, value interface{}) (interface{}, error) {
	switch scalar.Primitive {
	case metadata.PrimitiveString:
		if s, ok := value.(string); ok {
			return s, nil
		}

	case metadata.PrimitiveNumber:
		if f, ok := toFloat64(value); ok {
			return f, nil
		}

	case metadata.PrimitiveBoolean:
		if b, ok := value.(bool); ok {
			return b, nil
		}

	case metadata.PrimitiveDate:
		switch v := value.(type) {
		case time.Time:
			return v, nil
		case string:
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, fmt.Errorf(`Date cannot represent %s: %s`, inspect(value), err)
			}
			return t, nil
		}

	case metadata.PrimitiveBigInt:
		switch v := value.(type) {
		case *big.Int:
			return v, nil
		case string:
			if i, ok := new(big.Int).SetString(v, 10); ok {
				return i, nil
			}
		case int:
			return big.NewInt(int64(v)), nil
		case int64:
			return big.NewInt(v), nil
		case float64:
			if v == float64(int64(v)) {
				return big.NewInt(int64(v)), nil
			}
		}
	}
	return nil, fmt.Errorf(`%s cannot represent %s`, scalar.Name, inspect(value))
}

func toFloat64(value interface{}) (float64, bool) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return 0, false
}

// inspect formats a value for error messages.
func inspect(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", v)
	case EnumLiteral:
		return string(v)
	}
	return fmt.Sprintf("%v", value)
}

// isNull returns true for nil and nil pointers, maps, slices and interfaces.
func isNull(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
