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
	"reflect"
	"strings"

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/internal/util"
	"github.com/botobag/typegraph/registry"
)

// FieldTagName is the struct field tag naming the field a struct field serves. The "json" tag is
// consulted when it is absent.
const FieldTagName = "typegraph"

// undefinedValue is resolved for a field missing from a map parent. Such a field is omitted from the
// response instead of being null.
type undefinedValue struct{}

var undefined interface{} = undefinedValue{}

func isUndefined(value interface{}) bool {
	_, ok := value.(undefinedValue)
	return ok
}

// defaultFieldResolver reads the value of a field without a bound resolver from its parent.
//
// A map parent is indexed by the field name; a missing key leaves the field undefined. A struct parent is
// searched for a field whose tag names the field, then for a field or method named after the field
// in CamelCase. Embedded structs are searched too. A method may take no argument or a
// context.Context, and may return an error as its second result.
type defaultFieldResolver struct{}

func (defaultFieldResolver) unresolvedError(object string, field string) error {
	return gqlerrors.NewError(
		fmt.Sprintf(`default resolver cannot resolve value for "%s.%s"`, object, field),
		gqlerrors.Op("executor.defaultFieldResolver"),
		gqlerrors.ErrKindResolver)
}

func (resolver defaultFieldResolver) Resolve(
	ctx context.Context,
	object string,
	field string,
	source interface{}) (interface{}, error) {

	if m, ok := source.(map[string]interface{}); ok {
		if value, exists := m[field]; exists {
			return value, nil
		}
		return undefined, nil
	}
	if c, ok := source.(registry.Context); ok {
		return c[field], nil
	}

	value := reflect.ValueOf(source)
	if !value.IsValid() {
		return nil, nil
	}

	// If source is a pointer, resolve value from what it points to.
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil, nil
		}
		if result, found, err := resolver.resolveFromMethod(ctx, value, field); found {
			return result, err
		}
		value = value.Elem()
	}

	switch value.Kind() {
	case reflect.Struct:
		return resolver.resolveFromStruct(ctx, object, field, value)
	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			break
		}
		entry := value.MapIndex(reflect.ValueOf(field).Convert(value.Type().Key()))
		if !entry.IsValid() {
			return undefined, nil
		}
		return entry.Interface(), nil
	}

	return nil, resolver.unresolvedError(object, field)
}

func tagMatches(tag string, field string) bool {
	if tag == "" {
		return false
	}
	name := strings.Split(tag, ",")[0]
	return name == field
}

func (resolver defaultFieldResolver) resolveFromStruct(
	ctx context.Context,
	object string,
	field string,
	sourceValue reflect.Value) (interface{}, error) {

	camelFieldName := util.CamelCase(field)
	queue := []reflect.Value{sourceValue}

	for len(queue) > 0 {
		source := queue[0]
		queue = queue[1:]

		sourceType := source.Type()
		for i := 0; i < sourceType.NumField(); i++ {
			structField := sourceType.Field(i)

			// Handle anonymous contained structs.
			if structField.Anonymous && structField.Type.Kind() == reflect.Struct {
				queue = append(queue, source.Field(i))
				continue
			}

			if !structField.IsExported() {
				continue
			}

			if tag, ok := structField.Tag.Lookup(FieldTagName); ok {
				if tagMatches(tag, field) {
					return source.Field(i).Interface(), nil
				}
				continue
			}
			if tagMatches(structField.Tag.Get("json"), field) {
				return source.Field(i).Interface(), nil
			}
		}

		// Try finding the field that matches field name in CamelCase.
		if structField, ok := sourceType.FieldByName(camelFieldName); ok && structField.IsExported() {
			return source.FieldByIndex(structField.Index).Interface(), nil
		}
	}

	// Try finding the method that matches field name in CamelCase. Note that this is not in the loop.
	if result, found, err := resolver.resolveFromMethod(ctx, sourceValue, field); found {
		return result, err
	}

	return nil, resolver.unresolvedError(object, field)
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// resolveFromMethod calls the method named after field. found is false if source has no such method
// or the method has an unsupported signature.
func (defaultFieldResolver) resolveFromMethod(
	ctx context.Context,
	source reflect.Value,
	field string) (result interface{}, found bool, err error) {

	method := source.MethodByName(util.CamelCase(field))
	if !method.IsValid() {
		return nil, false, nil
	}

	methodType := method.Type()
	var in []reflect.Value
	switch {
	case methodType.NumIn() == 0:
	case methodType.NumIn() == 1 && methodType.In(0) == contextType:
		in = []reflect.Value{reflect.ValueOf(ctx)}
	default:
		return nil, false, nil
	}

	switch {
	case methodType.NumOut() == 1:
		return method.Call(in)[0].Interface(), true, nil
	case methodType.NumOut() == 2 && methodType.Out(1) == errorType:
		out := method.Call(in)
		if e := out[1].Interface(); e != nil {
			return nil, true, e.(error)
		}
		return out[0].Interface(), true, nil
	}
	return nil, false, nil
}
