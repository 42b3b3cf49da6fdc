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

// Package repository stores records of models. Resolvers use a Repository as an opaque data source
// finding, saving and removing records by criteria. Records are maps keyed by property name, the
// same shape the executor reads model fields from.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/graph"
	"github.com/botobag/typegraph/internal/util"
	"github.com/botobag/typegraph/metadata"
)

// IDField is the property identifying a record.
const IDField = "id"

// Record is one stored model value.
type Record = map[string]interface{}

// Criteria selects the records whose properties equal the given values. Empty criteria select every
// record.
type Criteria map[string]interface{}

// ErrNotFound is wrapped by errors of FindOne when no record matches.
var ErrNotFound = errors.New("record not found")

// Repository stores the records of one model.
type Repository interface {
	// Find returns the records matching criteria in insertion order.
	Find(ctx context.Context, criteria Criteria) ([]Record, error)

	// FindOne returns the first record matching criteria.
	FindOne(ctx context.Context, criteria Criteria) (Record, error)

	// Save inserts record, or replaces the stored record with the same id. A record without id is
	// given a random one. The stored record is returned.
	Save(ctx context.Context, record Record) (Record, error)

	// Remove deletes the records matching criteria and returns how many were deleted.
	Remove(ctx context.Context, criteria Criteria) (int, error)
}

// Model describes the stored properties of a model.
type Model struct {
	Name string

	// Columns lists the properties with scalar values in declaration order. Properties holding
	// objects, unions or lists are not stored.
	Columns []string
}

// ModelOf derives the stored properties of the model named name.
func ModelOf(g *graph.Graph, name string) (*Model, error) {
	node, exists := g.App().Models.Get(name)
	if !exists {
		return nil, gqlerrors.NewError(fmt.Sprintf(`model "%s" is not declared.%s`, name,
			util.DidYouMean(name, g.App().Models.Names())),
			gqlerrors.Op("repository.ModelOf"),
			gqlerrors.ErrKindUnknownModelReference)
	}

	model := &Model{Name: name}
	for _, property := range node.Properties {
		t := property.Type
		if t.Array {
			continue
		}
		if target := g.Target(t); target != nil {
			t = target
		}
		switch t.Kind {
		case metadata.KindPrimitive, metadata.KindEnum, metadata.KindLiteral:
			model.Columns = append(model.Columns, property.Name)
		}
	}
	return model, nil
}

func (m *Model) hasColumn(name string) bool {
	for _, column := range m.Columns {
		if column == name {
			return true
		}
	}
	return false
}

// checkFields fails on names that are not columns of m.
func (m *Model) checkFields(op gqlerrors.Op, names []string) error {
	var errs gqlerrors.Errors
	for _, name := range names {
		if !m.hasColumn(name) {
			errs.Emplace(fmt.Sprintf(`"%s" is not a stored property of "%s".%s`, name, m.Name,
				util.DidYouMean(name, m.Columns)),
				op,
				gqlerrors.ErrKindValidation)
		}
	}
	return errs.ErrorOrNil()
}

func notFound(op gqlerrors.Op, model string, criteria Criteria) error {
	return gqlerrors.NewError(fmt.Sprintf(`no "%s" matches %v`, model, map[string]interface{}(criteria)),
		op,
		ErrNotFound)
}

// Repositories holds one Repository per model.
type Repositories map[string]Repository

// ForModels creates a Repository for every declared model of g with create.
func ForModels(g *graph.Graph, create func(model *Model) Repository) (Repositories, error) {
	repositories := Repositories{}
	for _, name := range g.App().Models.Names() {
		model, err := ModelOf(g, name)
		if err != nil {
			return nil, err
		}
		repositories[name] = create(model)
	}
	return repositories, nil
}
