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

// Package check validates cross-section constraints of a resolved graph before any schema is
// synthesized from it.
package check

import (
	"fmt"

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/graph"
	"github.com/botobag/typegraph/internal/util"
	"github.com/botobag/typegraph/metadata"
)

// Check runs every check against g and returns all violations together as a gqlerrors.Errors. It
// returns nil when g is consistent.
func Check(g *graph.Graph) error {
	var errs gqlerrors.Errors
	errs.Append(
		DuplicateOperations(g),
		UnknownReferences(g),
		UndeclaredInputShapes(g),
	)
	return errs.ErrorOrNil()
}

func errorLocations(locs ...metadata.Location) []gqlerrors.ErrorLocation {
	var result []gqlerrors.ErrorLocation
	for _, loc := range locs {
		if !loc.IsZero() {
			result = append(result, gqlerrors.ErrorLocation{File: loc.File, Line: loc.Line, Column: loc.Column})
		}
	}
	return result
}

// DuplicateOperations reports operation names declared more than once in the same section.
func DuplicateOperations(g *graph.Graph) gqlerrors.Errors {
	var errs gqlerrors.Errors
	for _, kind := range metadata.OperationKinds {
		ops := g.App().Operations(kind)
		for _, name := range ops.Duplicates() {
			var locs []metadata.Location
			for _, op := range ops.All(name) {
				locs = append(locs, op.Location)
			}
			errs.Emplace(fmt.Sprintf(`%s "%s" is declared %d times`, kind, name, len(locs)),
				gqlerrors.Op("check.Check"),
				gqlerrors.ErrKindDuplicateOperation,
				errorLocations(locs...),
				gqlerrors.ErrorExtensions{
					"section": metadata.SectionOf(kind).String(),
					"name":    name,
				})
		}
	}
	return errs
}

// UnknownReferences reports references to names that are not declared as a model or input.
func UnknownReferences(g *graph.Graph) gqlerrors.Errors {
	var errs gqlerrors.Errors
	names := g.Names()
	for _, dangling := range g.Dangling() {
		ref := dangling.Reference
		errs.Emplace(
			fmt.Sprintf(`"%s" in %s refers to "%s" which is not a declared model or input.%s`,
				dangling.Owner, dangling.Section, ref.ReferenceName,
				util.DidYouMean(ref.ReferenceName, names)),
			gqlerrors.Op("check.Check"),
			gqlerrors.ErrKindUnknownModelReference,
			errorLocations(ref.Location),
			gqlerrors.ErrorExtensions{
				"reference": ref.ReferenceName,
			})
	}
	return errs
}

// UndeclaredInputShapes reports queries, mutations and subscriptions whose input is an object shape
// written inline instead of a declared model or input. Primitive, literal and enum inputs are
// exempt. Actions take their input from the route and body and are exempt too.
func UndeclaredInputShapes(g *graph.Graph) gqlerrors.Errors {
	var errs gqlerrors.Errors
	for _, kind := range []metadata.OperationKind{
		metadata.OperationQuery,
		metadata.OperationMutation,
		metadata.OperationSubscription,
	} {
		for _, op := range g.App().Operations(kind).Values() {
			input := op.InputType
			if input == nil || !input.IsComposite() {
				continue
			}
			errs.Emplace(
				fmt.Sprintf(`input of %s "%s" is an object shape that is not declared in models or inputs`,
					kind, op.Name),
				gqlerrors.Op("check.Check"),
				gqlerrors.ErrKindUndeclaredInputShape,
				errorLocations(op.Location))
		}
	}
	return errs
}
