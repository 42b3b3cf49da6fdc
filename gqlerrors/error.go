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

package gqlerrors

import (
	"fmt"
	"log"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"unsafe"

	jsoniter "github.com/json-iterator/go"
)

// Op describes an operation, usually as the package and method, such as "extractor.Extract".
type Op string

// ErrKind defines the kind of error this is.
type ErrKind uint8

// Enumeration of Kind
const (
	ErrKindOther                 ErrKind = iota // Unclassified error. This value is not printed in the error message.
	ErrKindUnsupportedType                      // A declaration whose shape cannot be classified.
	ErrKindUnknownModelReference                // A reference to a model or input that is never declared.
	ErrKindDuplicateOperation                   // Two operations with the same name in one section.
	ErrKindUndeclaredInputShape                 // An object-shaped operation input that is not a declared model/input.
	ErrKindInvalidSchema                        // The graph cannot be projected into a servable schema.
	ErrKindUnknownResolverTarget                // A resolver bound to a name absent from the metadata graph.
	ErrKindValidation                           // A request value violates a validation rule.
	ErrKindResolver                             // A resolver failed while serving a request.
	ErrKindRateLimited                          // A request was rejected by the rate limiter.
	ErrKindInternal                             // Internal error
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindOther:
		return "other error"
	case ErrKindUnsupportedType:
		return "unsupported type"
	case ErrKindUnknownModelReference:
		return "unknown model reference"
	case ErrKindDuplicateOperation:
		return "duplicate operation"
	case ErrKindUndeclaredInputShape:
		return "undeclared input shape"
	case ErrKindInvalidSchema:
		return "invalid schema"
	case ErrKindUnknownResolverTarget:
		return "unknown resolver target"
	case ErrKindValidation:
		return "validation error"
	case ErrKindResolver:
		return "resolver error"
	case ErrKindRateLimited:
		return "rate limited"
	case ErrKindInternal:
		return "internal error"
	}
	return "unknown error kind"
}

// IsBuildTime returns true for kinds that are raised while constructing the metadata graph, the
// schema or the resolver bindings. Such errors are fatal for the application instance.
func (k ErrKind) IsBuildTime() bool {
	switch k {
	case ErrKindUnsupportedType,
		ErrKindUnknownModelReference,
		ErrKindDuplicateOperation,
		ErrKindUndeclaredInputShape,
		ErrKindInvalidSchema,
		ErrKindUnknownResolverTarget:
		return true
	}
	return false
}

// ErrorExtensions provides an additional entry to an error with key "extensions". It is useful for
// attaching structured data such as the violated validation rule.
type ErrorExtensions map[string]interface{}

// ErrorLocation points at the declaration that caused a build-time error. File may be empty when
// the declarations were constructed in memory.
type ErrorLocation struct {
	File   string
	Line   uint
	Column uint
}

// String formats the location as "file:line:column".
func (loc ErrorLocation) String() string {
	var b strings.Builder
	if len(loc.File) > 0 {
		b.WriteString(loc.File)
		b.WriteByte(':')
	}
	b.WriteString(strconv.FormatUint(uint64(loc.Line), 10))
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(uint64(loc.Column), 10))
	return b.String()
}

// ResponsePath is an array of "key" where each key is either a string (indicating the field name)
// or an integer (indicating an index to list.)
type ResponsePath struct {
	// Currently this could only be either int or string.
	keys []interface{}
}

// Empty returns true if the path doesn't contain any path keys.
func (path ResponsePath) Empty() bool {
	return len(path.keys) == 0
}

// Keys returns the path keys.
func (path ResponsePath) Keys() []interface{} {
	return path.keys
}

// WithFieldName returns a new path with the given field name appended. The receiver is untouched
// so sibling fields resolving concurrently can share a parent path.
func (path ResponsePath) WithFieldName(name string) ResponsePath {
	keys := make([]interface{}, len(path.keys), len(path.keys)+1)
	copy(keys, path.keys)
	return ResponsePath{append(keys, name)}
}

// WithIndex returns a new path with the given list index appended.
func (path ResponsePath) WithIndex(index int) ResponsePath {
	keys := make([]interface{}, len(path.keys), len(path.keys)+1)
	copy(keys, path.keys)
	return ResponsePath{append(keys, index)}
}

// String serializes a ResponsePath to more readable format.
func (path ResponsePath) String() string {
	var b strings.Builder
	for _, key := range path.keys {
		switch key := key.(type) {
		case string:
			if b.Len() > 0 {
				b.WriteRune('.')
			}
			b.WriteString(key)

		case int:
			b.WriteRune('[')
			b.WriteString(strconv.Itoa(key))
			b.WriteRune(']')
		}
	}
	return b.String()
}

// PathOf builds a ResponsePath from field names and indices.
func PathOf(keys ...interface{}) ResponsePath {
	path := ResponsePath{}
	for _, key := range keys {
		switch key := key.(type) {
		case string:
			path = path.WithFieldName(key)
		case int:
			path = path.WithIndex(key)
		default:
			panic(fmt.Sprintf("unsupported response path key %T", key))
		}
	}
	return path
}

// responsePathMarshaller implements jsoniter.ValEncoder to encode ResponsePath to JSON.
type responsePathMarshaller struct{}

var _ jsoniter.ValEncoder = responsePathMarshaller{}

// IsEmpty implements jsoniter.ValEncoder.
func (responsePathMarshaller) IsEmpty(ptr unsafe.Pointer) bool {
	return len((*ResponsePath)(ptr).keys) == 0
}

// Encode implements jsoniter.ValEncoder.
func (responsePathMarshaller) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	path := (*ResponsePath)(ptr)
	stream.WriteArrayStart()
	for i, key := range path.keys {
		if i > 0 {
			stream.WriteMore()
		}
		switch key := key.(type) {
		case string:
			stream.WriteString(key)
		case int:
			stream.WriteInt(key)
		default:
			stream.Error = fmt.Errorf(`unsupported type "%T" of key in response path`, key)
			return
		}
	}
	stream.WriteArrayEnd()
}

// ErrorWithPath indicates an error that contains a path for reporting. If "path" is not given in
// the arguments to NewError, NewError will retrieve the one from the underlying error (if provided)
// that implements this interface.
type ErrorWithPath interface {
	Path() ResponsePath
}

// ErrorWithExtensions indicates an error that contains extensions data. If "extensions" is not
// given in the arguments to NewError, NewError will retrieve the one from the underlying error (if
// provided) that implements this interface.
type ErrorWithExtensions interface {
	Extensions() ErrorExtensions
}

// An Error describes a failure found while building the metadata graph, binding resolvers or
// serving a request. Request-time errors can be serialized to JSON for inclusion in a response.
//
// An Error can be built by wrapping an error value. Information (if unspecified in the arguments
// to NewError) in the wrapped value is propagated to the newly created Error.
//
// It also includes Op and ErrKind which show when printing the error value.
type Error struct {
	// Message describes the error for debugging purposes.
	Message string

	// Locations point at the declarations involved in a build-time error.
	Locations []ErrorLocation

	// Path describes the path of the response field which experienced the error.
	Path ResponsePath

	// Extensions contains data to be added to in the error response
	Extensions ErrorExtensions

	// The underlying error that triggered this one
	Err error

	// Op is the operation being performed, usually the name of the method being invoked.
	Op Op

	// Kind is the class of error
	Kind ErrKind
}

// Error implements Go error interface.
var _ error = (*Error)(nil)

// NewError builds an error value from arguments. Inspired by the design of upspin.io/errors [0].
//
// [0]: https://commandcenter.blogspot.com/2017/12/error-handling-in-upspin.html.
func NewError(message string, args ...interface{}) error {
	e := &Error{
		Message: message,
	}

	for _, arg := range args {
		switch arg := arg.(type) {
		case ErrorLocation:
			e.Locations = []ErrorLocation{arg}
		case []ErrorLocation:
			e.Locations = arg

		case ResponsePath:
			e.Path = arg

		case ErrorExtensions:
			e.Extensions = arg

		case error:
			e.Err = arg

		case Op:
			e.Op = arg

		case ErrKind:
			e.Kind = arg

		default:
			_, file, line, _ := runtime.Caller(1)
			log.Printf("NewError: bad call from %s:%d: %v", file, line, args)
			return fmt.Errorf("unknown type %T, value %v in error call", arg, arg)
		}
	}

	// Propagate locations, path or extensions from underlying error when one is not provided in
	// argument.
	if prev := e.Err; prev != nil {
		if p, ok := prev.(*Error); ok {
			if len(e.Locations) == 0 && len(p.Locations) > 0 {
				e.Locations = make([]ErrorLocation, len(p.Locations))
				copy(e.Locations, p.Locations)
			}
			if e.Path.Empty() {
				e.Path = p.Path
			}
			if e.Extensions == nil {
				e.Extensions = p.Extensions
			}
			if e.Kind == ErrKindOther {
				e.Kind = p.Kind
			}
		} else {
			if errWithPath, ok := prev.(ErrorWithPath); ok && e.Path.Empty() {
				e.Path = errWithPath.Path()
			}
			if errWithExtensions, ok := prev.(ErrorWithExtensions); ok && e.Extensions == nil {
				e.Extensions = errWithExtensions.Extensions()
			}
		}
	}

	return e
}

// WrapError is a convenient wrapper to build an Error value from an underlying error with a
// message.
func WrapError(err error, message string) error {
	return NewError(message, err)
}

// WrapErrorf is similar to WrapError but with the format specifier.
func WrapErrorf(err error, format string, args ...interface{}) error {
	return NewError(fmt.Sprintf(format, args...), err)
}

// KindOf returns the kind of err if it is an *Error; ErrKindOther otherwise.
func KindOf(err error) ErrKind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return ErrKindOther
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Error implements Go's error interface.
func (e *Error) Error() string {
	var b strings.Builder
	e.printError(&b, nil)
	return b.String()
}

func (e *Error) printError(b *strings.Builder, nextErr *Error) {
	// If the previous error was also one of ours. Suppress duplications so the message won't contain
	// the same kind, location or path twice.
	initialLen := b.Len()

	// pad appends str to the buffer if the buffer already has some data.
	pad := func(str string) {
		if b.Len() == initialLen {
			return
		}
		b.WriteString(str)
	}

	if len(e.Op) > 0 {
		b.WriteString(string(e.Op))
	}

	if len(e.Message) > 0 {
		pad(": ")
		b.WriteString(e.Message)
	}

	if len(e.Locations) > 0 {
		if nextErr == nil || !reflect.DeepEqual(nextErr.Locations, e.Locations) {
			if b.Len() == initialLen {
				b.WriteString("At ")
			} else {
				b.WriteString(" at ")
			}
			for i, loc := range e.Locations {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(loc.String())
			}
		}
	}

	if !e.Path.Empty() {
		if nextErr == nil || !reflect.DeepEqual(nextErr.Path, e.Path) {
			if b.Len() == initialLen {
				b.WriteString("For ")
			} else {
				b.WriteString(" for ")
			}
			b.WriteString("response field in the path ")
			b.WriteString(e.Path.String())
		}
	}

	if e.Kind != ErrKindOther {
		if nextErr == nil || nextErr.Kind != e.Kind {
			pad(": ")
			b.WriteString(e.Kind.String())
		}
	}

	if len(e.Extensions) > 0 {
		if nextErr == nil || !reflect.DeepEqual(nextErr.Extensions, e.Extensions) {
			pad(" (additional info: ")
			b.WriteString(fmt.Sprintf("%v)", e.Extensions))
		}
	}

	if e.Err != nil {
		if prev, ok := e.Err.(*Error); ok {
			// Indent on new line if we are cascading non-empty Error.
			pad(":\n  ")
			prev.printError(b, e)
		} else {
			pad(": ")
			b.WriteString(e.Err.Error())
		}
	}
}

// MarshalJSON implements json.Marshaler.
func (e *Error) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(e)
}

// errorMarshaller implements jsoniter.ValEncoder to encode Error to JSON. Op and the wrapped error
// are not part of the wire format.
type errorMarshaller struct{}

var _ jsoniter.ValEncoder = errorMarshaller{}

// IsEmpty implements jsoniter.ValEncoder.
func (errorMarshaller) IsEmpty(ptr unsafe.Pointer) bool {
	return (*Error)(ptr) == nil
}

// Encode implements jsoniter.ValEncoder.
func (errorMarshaller) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	err := (*Error)(ptr)
	stream.WriteObjectStart()

	stream.WriteObjectField("message")
	stream.WriteString(err.Message)

	if !err.Path.Empty() {
		stream.WriteMore()
		stream.WriteObjectField("path")
		stream.WriteVal(&err.Path)
	}

	if len(err.Extensions) > 0 || err.Kind != ErrKindOther {
		stream.WriteMore()
		stream.WriteObjectField("extensions")
		stream.WriteObjectStart()
		first := true
		if err.Kind != ErrKindOther {
			stream.WriteObjectField("kind")
			stream.WriteString(err.Kind.String())
			first = false
		}
		for _, k := range sortedExtensionKeys(err.Extensions) {
			if !first {
				stream.WriteMore()
			}
			first = false
			stream.WriteObjectField(k)
			stream.WriteVal(err.Extensions[k])
		}
		stream.WriteObjectEnd()
	}

	stream.WriteObjectEnd()
}
