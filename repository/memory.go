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

package repository

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/botobag/typegraph/gqlerrors"
)

// Memory is a Repository keeping records in memory. It is safe for concurrent use.
type Memory struct {
	model   *Model
	mutex   sync.RWMutex
	records []Record
}

var _ Repository = (*Memory)(nil)

// NewMemory creates an empty Memory storing records of model.
func NewMemory(model *Model) *Memory {
	return &Memory{model: model}
}

func criteriaFields(criteria Criteria) []string {
	fields := make([]string, 0, len(criteria))
	for field := range criteria {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

func matches(record Record, criteria Criteria) bool {
	for field, value := range criteria {
		if !reflect.DeepEqual(record[field], value) {
			return false
		}
	}
	return true
}

func copyRecord(record Record) Record {
	result := make(Record, len(record))
	for k, v := range record {
		result[k] = v
	}
	return result
}

// Find implements Repository.
func (m *Memory) Find(ctx context.Context, criteria Criteria) ([]Record, error) {
	if err := m.model.checkFields("repository.Find", criteriaFields(criteria)); err != nil {
		return nil, err
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []Record
	for _, record := range m.records {
		if matches(record, criteria) {
			result = append(result, copyRecord(record))
		}
	}
	return result, nil
}

// FindOne implements Repository.
func (m *Memory) FindOne(ctx context.Context, criteria Criteria) (Record, error) {
	if err := m.model.checkFields("repository.FindOne", criteriaFields(criteria)); err != nil {
		return nil, err
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, record := range m.records {
		if matches(record, criteria) {
			return copyRecord(record), nil
		}
	}
	return nil, notFound("repository.FindOne", m.model.Name, criteria)
}

// Save implements Repository. Properties which are not columns of the model are dropped.
func (m *Memory) Save(ctx context.Context, record Record) (Record, error) {
	stored := Record{}
	for _, column := range m.model.Columns {
		if value, exists := record[column]; exists {
			stored[column] = value
		}
	}
	if id := stored[IDField]; id == nil || id == "" {
		if !m.model.hasColumn(IDField) {
			return nil, gqlerrors.NewError(`model "`+m.model.Name+`" has no "id" property`,
				gqlerrors.Op("repository.Save"),
				gqlerrors.ErrKindValidation)
		}
		stored[IDField] = uuid.NewString()
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, existing := range m.records {
		if existing[IDField] == stored[IDField] {
			m.records[i] = stored
			return copyRecord(stored), nil
		}
	}
	m.records = append(m.records, stored)
	return copyRecord(stored), nil
}

// Remove implements Repository.
func (m *Memory) Remove(ctx context.Context, criteria Criteria) (int, error) {
	if err := m.model.checkFields("repository.Remove", criteriaFields(criteria)); err != nil {
		return 0, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	kept := m.records[:0]
	for _, record := range m.records {
		if !matches(record, criteria) {
			kept = append(kept, record)
		}
	}
	removed := len(m.records) - len(kept)
	for i := len(kept); i < len(m.records); i++ {
		m.records[i] = nil
	}
	m.records = kept
	return removed, nil
}
