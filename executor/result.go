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
	"unsafe"

	jsoniter "github.com/json-iterator/go"

	"github.com/botobag/typegraph/gqlerrors"
)

// ResultObject holds the value of an object in a response. Fields keep the order of the selection.
// A field is absent if it was not requested.
type ResultObject struct {
	Keys   []string
	Values []interface{}
}

func newResultObject(size int) *ResultObject {
	return &ResultObject{
		Keys:   make([]string, 0, size),
		Values: make([]interface{}, 0, size),
	}
}

// add reserves a slot for key and returns its index. Slots are reserved before values are resolved
// so concurrent resolvers write to distinct slots.
func (o *ResultObject) add(key string) int {
	o.Keys = append(o.Keys, key)
	o.Values = append(o.Values, nil)
	return len(o.Keys) - 1
}

// Get returns the value of the field with the given response key.
func (o *ResultObject) Get(key string) (interface{}, bool) {
	for i, k := range o.Keys {
		if k == key {
			return o.Values[i], true
		}
	}
	return nil, false
}

// Len returns the number of fields.
func (o *ResultObject) Len() int {
	return len(o.Keys)
}

// Map converts o and nested objects to plain maps.
func (o *ResultObject) Map() map[string]interface{} {
	if o == nil {
		return nil
	}
	result := make(map[string]interface{}, len(o.Keys))
	for i, key := range o.Keys {
		result[key] = plain(o.Values[i])
	}
	return result
}

func plain(value interface{}) interface{} {
	switch value := value.(type) {
	case *ResultObject:
		return value.Map()
	case []interface{}:
		list := make([]interface{}, len(value))
		for i, element := range value {
			list[i] = plain(element)
		}
		return list
	}
	return value
}

// MarshalJSON implements json.Marshaler.
func (o *ResultObject) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(o)
}

// Result is the outcome of a request.
type Result struct {
	// ID of the request.
	ID string

	// State is either StateCompleted or StateFailed.
	State State

	// Data is nil when the request failed.
	Data *ResultObject

	Errors gqlerrors.Errors
}

// MarshalJSON implements json.Marshaler. Errors are written before data.
func (result *Result) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(result)
}

// resultObjectEncoder implements jsoniter.ValEncoder to encode ResultObject. It walks the result
// tree with an explicit stack instead of recursion.
type resultObjectEncoder struct{}

var _ jsoniter.ValEncoder = resultObjectEncoder{}

// IsEmpty implements jsoniter.ValEncoder.
func (resultObjectEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return (*ResultObject)(ptr) == nil
}

type fieldName string

var (
	// objectEndTask calls stream.WriteObjectEnd().
	objectEndTask interface{} = &struct{ int }{1}
	// arrayEndTask calls stream.WriteArrayEnd().
	arrayEndTask interface{} = &struct{ int }{2}
	// moreTask calls stream.WriteMore().
	moreTask interface{} = &struct{ int }{3}
)

// Encode implements jsoniter.ValEncoder.
func (resultObjectEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	encodeValue((*ResultObject)(ptr), stream)
}

func encodeValue(root interface{}, stream *jsoniter.Stream) {
	stack := []interface{}{root}
	for len(stack) > 0 {
		var task interface{}
		task, stack = stack[len(stack)-1], stack[:len(stack)-1]

		switch task := task.(type) {
		case fieldName:
			stream.WriteObjectField(string(task))

		case *ResultObject:
			if task == nil {
				stream.WriteNil()
				continue
			}
			if task.Len() == 0 {
				stream.WriteEmptyObject()
				continue
			}
			stream.WriteObjectStart()
			stack = append(stack, objectEndTask)
			for i := task.Len() - 1; i >= 0; i-- {
				stack = append(stack, task.Values[i], fieldName(task.Keys[i]), moreTask)
			}
			// Pop the moreTask at the top. Don't write "," before first field.
			stack = stack[:len(stack)-1]

		case []interface{}:
			if len(task) == 0 {
				stream.WriteEmptyArray()
				continue
			}
			stream.WriteArrayStart()
			stack = append(stack, arrayEndTask)
			for i := len(task) - 1; i >= 0; i-- {
				stack = append(stack, task[i], moreTask)
			}
			stack = stack[:len(stack)-1]

		default:
			switch task {
			case objectEndTask:
				stream.WriteObjectEnd()
			case arrayEndTask:
				stream.WriteArrayEnd()
			case moreTask:
				stream.WriteMore()
			default:
				stream.WriteVal(task)
			}
		}
	}
}

// resultEncoder implements jsoniter.ValEncoder to encode Result.
type resultEncoder struct{}

var _ jsoniter.ValEncoder = resultEncoder{}

// IsEmpty implements jsoniter.ValEncoder.
func (resultEncoder) IsEmpty(ptr unsafe.Pointer) bool {
	return false
}

// Encode implements jsoniter.ValEncoder.
func (resultEncoder) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	result := (*Result)(ptr)
	stream.WriteObjectStart()

	if result.Errors.HaveOccurred() {
		stream.WriteObjectField("errors")
		stream.WriteVal(result.Errors.Errors)
		if result.Data != nil {
			stream.WriteMore()
		}
	}

	if result.Data != nil {
		stream.WriteObjectField("data")
		encodeValue(result.Data, stream)
	}

	stream.WriteObjectEnd()
}

func init() {
	jsoniter.RegisterTypeEncoder("executor.ResultObject", resultObjectEncoder{})
	jsoniter.RegisterTypeEncoder("executor.Result", resultEncoder{})
}

// compact removes fields left undefined from o and every object below it.
func (o *ResultObject) compact() {
	stack := []interface{}{o}
	for len(stack) > 0 {
		var value interface{}
		value, stack = stack[len(stack)-1], stack[:len(stack)-1]

		switch value := value.(type) {
		case *ResultObject:
			if value == nil {
				continue
			}
			keys, values := value.Keys[:0], value.Values[:0]
			for i, v := range value.Values {
				if isUndefined(v) {
					continue
				}
				keys = append(keys, value.Keys[i])
				values = append(values, v)
				stack = append(stack, v)
			}
			value.Keys, value.Values = keys, values

		case []interface{}:
			stack = append(stack, value...)
		}
	}
}
