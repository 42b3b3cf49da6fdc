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

package metadata

// Named is implemented by values stored in an OrderedMap.
type Named interface {
	DeclaredName() string
}

// OrderedMap keeps named values in insertion order. Adding a name twice keeps both values so callers
// can merge or report duplicates. Get returns the first one.
type OrderedMap[T Named] struct {
	entries []T
	index   map[string][]int
	names   []string
}

// NewOrderedMap creates an empty map.
func NewOrderedMap[T Named]() *OrderedMap[T] {
	return &OrderedMap[T]{
		index: map[string][]int{},
	}
}

// Add appends v under its declared name.
func (m *OrderedMap[T]) Add(v T) {
	name := v.DeclaredName()
	if _, exists := m.index[name]; !exists {
		m.names = append(m.names, name)
	}
	m.index[name] = append(m.index[name], len(m.entries))
	m.entries = append(m.entries, v)
}

// Get returns the first value added under name.
func (m *OrderedMap[T]) Get(name string) (T, bool) {
	indices := m.index[name]
	if len(indices) == 0 {
		var zero T
		return zero, false
	}
	return m.entries[indices[0]], true
}

// Has returns true if name was added.
func (m *OrderedMap[T]) Has(name string) bool {
	return len(m.index[name]) > 0
}

// All returns every value added under name in insertion order.
func (m *OrderedMap[T]) All(name string) []T {
	indices := m.index[name]
	result := make([]T, len(indices))
	for i, index := range indices {
		result[i] = m.entries[index]
	}
	return result
}

// Names returns the distinct names in order of first insertion.
func (m *OrderedMap[T]) Names() []string {
	return m.names
}

// Values returns every value in insertion order, duplicates included.
func (m *OrderedMap[T]) Values() []T {
	return m.entries
}

// Len returns the number of distinct names.
func (m *OrderedMap[T]) Len() int {
	return len(m.names)
}

// Duplicates returns the names added more than once.
func (m *OrderedMap[T]) Duplicates() []string {
	var result []string
	for _, name := range m.names {
		if len(m.index[name]) > 1 {
			result = append(result, name)
		}
	}
	return result
}

// TypeMap maps declared names to type nodes.
type TypeMap = OrderedMap[*TypeNode]

// OperationList maps operation names to their metadata.
type OperationList = OrderedMap[*OperationMetadata]

// NewTypeMap creates an empty TypeMap.
func NewTypeMap() *TypeMap {
	return NewOrderedMap[*TypeNode]()
}

// NewOperationList creates an empty OperationList.
func NewOperationList() *OperationList {
	return NewOrderedMap[*OperationMetadata]()
}
