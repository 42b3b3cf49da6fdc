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
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"time"

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/metadata"
	"github.com/botobag/typegraph/schema"
)

// collectedField is a response key with every selection requesting it.
type collectedField struct {
	key       string
	name      string
	selection []*Selection
}

// collectFields flattens the fragments applying to object and merges selections sharing a response
// key. Fields keep the order of their first appearance.
func collectFields(object *schema.Object, selection []*Selection) []*collectedField {
	var (
		fields []*collectedField
		index  = map[string]*collectedField{}
		queue  = append([]*Selection(nil), selection...)
	)
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]

		if s.IsFragment() {
			if s.On == object.Name {
				// Fragment fields take the place of the fragment.
				queue = append(append([]*Selection(nil), s.Selection...), queue...)
			}
			continue
		}

		key := s.ResponseKey()
		if field, exists := index[key]; exists {
			field.selection = append(field.selection, s)
			continue
		}
		field := &collectedField{
			key:       key,
			name:      s.Name,
			selection: []*Selection{s},
		}
		index[key] = field
		fields = append(fields, field)
	}
	return fields
}

// collectJobs creates the result object of parent and a job for every field selected on it.
func (x *execution) collectJobs(
	object *schema.Object,
	selection []*Selection,
	parent interface{},
	path gqlerrors.ResponsePath,
	jobs *[]*fieldJob) *ResultObject {

	fields := collectFields(object, selection)
	result := newResultObject(len(fields))
	for _, f := range fields {
		index := result.add(f.key)
		if f.name == TypeNameField {
			result.Values[index] = object.Name
			continue
		}
		*jobs = append(*jobs, &fieldJob{
			object:    object,
			field:     object.Field(f.name),
			selection: f.selection,
			args:      x.args[f.selection[0]],
			parent:    parent,
			path:      path.WithFieldName(f.key),
			target:    result,
			index:     index,
		})
	}
	return result
}

// subselection merges the selections below the field of job.
func (job *fieldJob) subselection() []*Selection {
	if len(job.selection) == 1 {
		return job.selection[0].Selection
	}
	var result []*Selection
	for _, s := range job.selection {
		result = append(result, s.Selection...)
	}
	return result
}

// completeField writes the value of job to its slot. Objects below it spawn jobs into next.
func (x *execution) completeField(job *fieldJob, next *[]*fieldJob) {
	if job.err != nil {
		job.target.Values[job.index] = nil
		return
	}

	if isUndefined(job.value) {
		if job.field.Type.NonNull {
			x.completionError(job.path, `cannot return null for non-nullable field "%s.%s"`,
				job.object.Name, job.field.Name)
			job.target.Values[job.index] = nil
			return
		}
		job.target.Values[job.index] = undefined
		return
	}

	job.target.Values[job.index] = x.completeValue(job, job.field.Type, job.path, job.value, next)
}

func (x *execution) completionError(path gqlerrors.ResponsePath, format string, args ...interface{}) {
	x.emplaceError(fmt.Sprintf(format, args...),
		gqlerrors.Op("executor.Execute"),
		gqlerrors.ErrKindResolver,
		path)
}

// completeValue converts a resolved value to its response representation according to t.
func (x *execution) completeValue(
	job *fieldJob,
	t *schema.TypeRef,
	path gqlerrors.ResponsePath,
	value interface{},
	next *[]*fieldJob) interface{} {

	if isNull(value) {
		if t.NonNull {
			x.completionError(path, `cannot return null for non-nullable field "%s.%s"`,
				job.object.Name, job.field.Name)
		}
		return nil
	}

	if t.List {
		list := reflect.ValueOf(value)
		if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
			x.completionError(path, `expected a list for field "%s.%s" but got %T`,
				job.object.Name, job.field.Name, value)
			return nil
		}
		element := &schema.TypeRef{Named: t.Named, NonNull: true}
		result := make([]interface{}, list.Len())
		for i := range result {
			result[i] = x.completeValue(job, element, path.WithIndex(i), list.Index(i).Interface(), next)
		}
		return result
	}

	switch named := t.Named.(type) {
	case *schema.Scalar:
		result, err := serializeScalar(named, value)
		if err != nil {
			x.completionError(path, "%s", err)
			return nil
		}
		return result

	case *schema.Enum:
		enumValue := named.ValueOf(value)
		if enumValue == nil {
			x.completionError(path, `enum "%s" cannot represent value %s`, named.Name, inspect(value))
			return nil
		}
		return enumValue.Name

	case *schema.Object:
		return x.collectJobs(named, job.subselection(), value, path, next)

	case *schema.Union:
		member, err := resolveType(named, value)
		if err != nil {
			x.completionError(path, "%s", err)
			return nil
		}
		return x.collectJobs(member, job.subselection(), value, path, next)
	}

	x.completionError(path, `type "%s" cannot be used as an output`, t)
	return nil
}

// typeNamer is implemented by values that tell the member of a union they belong to.
type typeNamer interface {
	TypeName() string
}

// resolveType finds the member of union describing value. The name is taken from the "__typename"
// key of a map, the TypeName method or the name of the struct type.
func resolveType(union *schema.Union, value interface{}) (*schema.Object, error) {
	var name string
	switch v := value.(type) {
	case map[string]interface{}:
		name, _ = v[TypeNameField].(string)
	case typeNamer:
		name = v.TypeName()
	default:
		t := reflect.TypeOf(value)
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		name = t.Name()
	}

	if member := union.Member(name); member != nil {
		return member, nil
	}
	return nil, fmt.Errorf(`union "%s" cannot resolve the type of %T; the value must carry "%s" `+
		`or implement TypeName() naming one of its members`, union.Name, value, TypeNameField)
}

// serializeScalar converts a resolved value to the representation of a scalar in a response.
func serializeScalar(scalar *schema.Scalar, value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case *big.Int:
		if scalar.Primitive == metadata.PrimitiveBigInt || scalar.Primitive == metadata.PrimitiveString {
			return v.String(), nil
		}
	case time.Time:
		if scalar.Primitive == metadata.PrimitiveDate || scalar.Primitive == metadata.PrimitiveString {
			return v.UTC().Format(time.RFC3339Nano), nil
		}
	case *time.Time:
		return serializeScalar(scalar, *v)
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}

	switch scalar.Primitive {
	case metadata.PrimitiveString:
		switch rv.Kind() {
		case reflect.String:
			return rv.String(), nil
		case reflect.Bool:
			return strconv.FormatBool(rv.Bool()), nil
		}
		if f, ok := toFloat64(rv.Interface()); ok {
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		}
		if s, ok := value.(fmt.Stringer); ok {
			return s.String(), nil
		}

	case metadata.PrimitiveNumber:
		if f, ok := toFloat64(rv.Interface()); ok {
			return f, nil
		}

	case metadata.PrimitiveBoolean:
		if rv.Kind() == reflect.Bool {
			return rv.Bool(), nil
		}

	case metadata.PrimitiveDate:
		if rv.Kind() == reflect.String {
			if _, err := time.Parse(time.RFC3339, rv.String()); err == nil {
				return rv.String(), nil
			}
		}

	case metadata.PrimitiveBigInt:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return strconv.FormatInt(rv.Int(), 10), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return strconv.FormatUint(rv.Uint(), 10), nil
		case reflect.String:
			if _, ok := new(big.Int).SetString(rv.String(), 10); ok {
				return rv.String(), nil
			}
		}
	}
	return nil, fmt.Errorf("%s cannot represent value %s", scalar.Name, inspect(value))
}
