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
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/naming"
)

// Placeholder writes the bind parameter at 1-based position i.
type Placeholder func(i int) string

// Placeholders of common drivers.
var (
	DollarPlaceholder   Placeholder = func(i int) string { return "$" + strconv.Itoa(i) }
	QuestionPlaceholder Placeholder = func(int) string { return "?" }
)

// SQLConfig configures a SQL repository.
type SQLConfig struct {
	// Naming maps model and property names to table and column names. Tables are named by
	// pluralizing the model name. Defaults to naming.Snake.
	Naming naming.Strategy

	// Placeholder defaults to DollarPlaceholder.
	Placeholder Placeholder
}

// SQL is a Repository storing records in a table with one column per stored property. It works with
// any database/sql driver.
type SQL struct {
	db      *sql.DB
	model   *Model
	config  SQLConfig
	table   string
	columns map[string]string
}

var _ Repository = (*SQL)(nil)

// NewSQL creates a repository storing records of model in db.
func NewSQL(db *sql.DB, model *Model, config SQLConfig) *SQL {
	if config.Naming == nil {
		config.Naming = naming.Snake{}
	}
	if config.Placeholder == nil {
		config.Placeholder = DollarPlaceholder
	}

	columns := make(map[string]string, len(model.Columns))
	for _, property := range model.Columns {
		columns[property] = config.Naming.Decapitalize(property)
	}
	return &SQL{
		db:      db,
		model:   model,
		config:  config,
		table:   config.Naming.Pluralize(model.Name),
		columns: columns,
	}
}

// Table returns the name of the table.
func (s *SQL) Table() string {
	return s.table
}

func (s *SQL) selectList() string {
	names := make([]string, len(s.model.Columns))
	for i, property := range s.model.Columns {
		names[i] = s.columns[property]
	}
	return strings.Join(names, ", ")
}

// where builds the WHERE clause of criteria, numbering parameters from offset+1.
func (s *SQL) where(criteria Criteria, offset int) (string, []interface{}) {
	if len(criteria) == 0 {
		return "", nil
	}
	var (
		fields  = criteriaFields(criteria)
		clauses = make([]string, len(fields))
		args    = make([]interface{}, len(fields))
	)
	for i, field := range fields {
		clauses[i] = s.columns[field] + " = " + s.config.Placeholder(offset+i+1)
		args[i] = criteria[field]
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *SQL) failed(op gqlerrors.Op, err error) error {
	return gqlerrors.NewError(fmt.Sprintf(`cannot access "%s"`, s.table), op, err)
}

func (s *SQL) query(ctx context.Context, op gqlerrors.Op, criteria Criteria, limit int) ([]Record, error) {
	if err := s.model.checkFields(op, criteriaFields(criteria)); err != nil {
		return nil, err
	}

	where, args := s.where(criteria, 0)
	query := "SELECT " + s.selectList() + " FROM " + s.table + where
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.failed(op, err)
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		values := make([]interface{}, len(s.model.Columns))
		pointers := make([]interface{}, len(values))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, s.failed(op, err)
		}

		record := make(Record, len(values))
		for i, property := range s.model.Columns {
			if b, ok := values[i].([]byte); ok {
				record[property] = string(b)
			} else {
				record[property] = values[i]
			}
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, s.failed(op, err)
	}
	return result, nil
}

// Find implements Repository.
func (s *SQL) Find(ctx context.Context, criteria Criteria) ([]Record, error) {
	return s.query(ctx, "repository.Find", criteria, 0)
}

// FindOne implements Repository.
func (s *SQL) FindOne(ctx context.Context, criteria Criteria) (Record, error) {
	records, err := s.query(ctx, "repository.FindOne", criteria, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, notFound("repository.FindOne", s.model.Name, criteria)
	}
	return records[0], nil
}

// Save implements Repository. A record with id is updated in place and inserted when no row has
// the id.
func (s *SQL) Save(ctx context.Context, record Record) (Record, error) {
	if !s.model.hasColumn(IDField) {
		return nil, gqlerrors.NewError(fmt.Sprintf(`model "%s" has no "id" property`, s.model.Name),
			gqlerrors.Op("repository.Save"),
			gqlerrors.ErrKindValidation)
	}

	stored := Record{}
	for _, property := range s.model.Columns {
		if value, exists := record[property]; exists {
			stored[property] = value
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.failed("repository.Save", err)
	}
	defer tx.Rollback()

	if id := stored[IDField]; id != nil && id != "" {
		updated, err := s.update(ctx, tx, stored)
		if err != nil {
			return nil, err
		}
		if !updated {
			if err := s.insert(ctx, tx, stored); err != nil {
				return nil, err
			}
		}
	} else {
		stored[IDField] = uuid.NewString()
		if err := s.insert(ctx, tx, stored); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, s.failed("repository.Save", err)
	}
	return stored, nil
}

// properties lists the properties of record which are columns, in column order.
func (s *SQL) properties(record Record) []string {
	var properties []string
	for _, property := range s.model.Columns {
		if _, exists := record[property]; exists {
			properties = append(properties, property)
		}
	}
	return properties
}

func (s *SQL) update(ctx context.Context, tx *sql.Tx, record Record) (bool, error) {
	var (
		assignments []string
		args        []interface{}
	)
	for _, property := range s.properties(record) {
		if property == IDField {
			continue
		}
		args = append(args, record[property])
		assignments = append(assignments, s.columns[property]+" = "+s.config.Placeholder(len(args)))
	}
	if len(assignments) == 0 {
		// Nothing to update. The row exists when it can be found.
		var id interface{}
		err := tx.QueryRowContext(ctx,
			"SELECT "+s.columns[IDField]+" FROM "+s.table+
				" WHERE "+s.columns[IDField]+" = "+s.config.Placeholder(1),
			record[IDField]).Scan(&id)
		if err == sql.ErrNoRows {
			return false, nil
		}
		if err != nil {
			return false, s.failed("repository.Save", err)
		}
		return true, nil
	}

	where, whereArgs := s.where(Criteria{IDField: record[IDField]}, len(args))
	result, err := tx.ExecContext(ctx,
		"UPDATE "+s.table+" SET "+strings.Join(assignments, ", ")+where,
		append(args, whereArgs...)...)
	if err != nil {
		return false, s.failed("repository.Save", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, s.failed("repository.Save", err)
	}
	return affected > 0, nil
}

func (s *SQL) insert(ctx context.Context, tx *sql.Tx, record Record) error {
	var (
		properties   = s.properties(record)
		columns      = make([]string, len(properties))
		placeholders = make([]string, len(properties))
		args         = make([]interface{}, len(properties))
	)
	for i, property := range properties {
		columns[i] = s.columns[property]
		placeholders[i] = s.config.Placeholder(i + 1)
		args[i] = record[property]
	}

	_, err := tx.ExecContext(ctx,
		"INSERT INTO "+s.table+" ("+strings.Join(columns, ", ")+") VALUES ("+
			strings.Join(placeholders, ", ")+")",
		args...)
	if err != nil {
		return s.failed("repository.Save", err)
	}
	return nil
}

// Remove implements Repository.
func (s *SQL) Remove(ctx context.Context, criteria Criteria) (int, error) {
	if err := s.model.checkFields("repository.Remove", criteriaFields(criteria)); err != nil {
		return 0, err
	}

	where, args := s.where(criteria, 0)
	result, err := s.db.ExecContext(ctx, "DELETE FROM "+s.table+where, args...)
	if err != nil {
		return 0, s.failed("repository.Remove", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, s.failed("repository.Remove", err)
	}
	return int(affected), nil
}
