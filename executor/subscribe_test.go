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

package executor_test

import (
	"context"
	"errors"

	"github.com/botobag/typegraph/executor"
	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/internal/testutil"
	"github.com/botobag/typegraph/registry"
	"github.com/botobag/typegraph/validation"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Subscribe", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("resolves one result per source event", func() {
		e := newExecutor(executor.Config{},
			&registry.Subscription{
				Name: "postAdded",
				Subscribe: func(ctx context.Context, params registry.Params) (<-chan interface{}, error) {
					source := make(chan interface{}, 2)
					source <- "1"
					source <- "2"
					close(source)
					return source, nil
				},
				Resolve: func(ctx context.Context, event interface{}, params registry.Params) (interface{}, error) {
					return post(event.(string)), nil
				},
			})

		results, err := e.Subscribe(ctx, mustParse(`subscription { postAdded { id title } }`))
		Expect(err).ShouldNot(HaveOccurred())

		var received []*executor.Result
		for result := range results {
			received = append(received, result)
		}
		Expect(received).Should(HaveLen(2))
		Expect(received[0]).Should(testutil.SerializeToJSONAs(`{"data":{"postAdded":{"id":"1","title":"Post 1"}}}`))
		Expect(received[1]).Should(testutil.SerializeToJSONAs(`{"data":{"postAdded":{"id":"2","title":"Post 2"}}}`))
		Expect(received[0].ID).Should(Equal(received[1].ID))
	})

	It("uses events as values without an event resolver", func() {
		source := make(chan interface{})
		e := newExecutor(executor.Config{},
			&registry.Subscription{
				Name: "postAdded",
				Subscribe: func(ctx context.Context, params registry.Params) (<-chan interface{}, error) {
					return source, nil
				},
			})

		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		results, err := e.Subscribe(subCtx, mustParse(`subscription { postAdded { title } }`))
		Expect(err).ShouldNot(HaveOccurred())

		source <- post("5")
		var result *executor.Result
		Eventually(results).Should(Receive(&result))
		Expect(result.Data.Map()).Should(Equal(map[string]interface{}{
			"postAdded": map[string]interface{}{"title": "Post 5"},
		}))

		cancel()
		Eventually(results).Should(BeClosed())
	})

	It("fails an event whose resolver fails and keeps the subscription", func() {
		e := newExecutor(executor.Config{},
			&registry.Subscription{
				Name: "postAdded",
				Subscribe: func(ctx context.Context, params registry.Params) (<-chan interface{}, error) {
					source := make(chan interface{}, 2)
					source <- "bad"
					source <- "3"
					close(source)
					return source, nil
				},
				Resolve: func(ctx context.Context, event interface{}, params registry.Params) (interface{}, error) {
					if event == "bad" {
						return nil, errors.New("bad event")
					}
					return post(event.(string)), nil
				},
			})

		results, err := e.Subscribe(ctx, mustParse(`subscription { postAdded { id } }`))
		Expect(err).ShouldNot(HaveOccurred())

		first, second := <-results, <-results
		Expect(first.State).Should(Equal(executor.StateFailed))
		Expect(first.Data).Should(BeNil())
		Expect(first.Errors.Errors).Should(ConsistOf(testutil.MatchError(
			testutil.MessageEqual("bad event"),
			testutil.PathEqual("postAdded"),
		)))
		Expect(second.State).Should(Equal(executor.StateCompleted))
	})

	It("rejects selections of more than one field", func() {
		e := newExecutor(executor.Config{})
		_, err := e.Subscribe(ctx, mustParse(`subscription { a: postAdded { id } b: postAdded { id } }`))
		Expect(err).Should(MatchError(ContainSubstring("subscription must select exactly one field, got 2")))
	})

	It("reports unbound subscriptions", func() {
		e := newExecutor(executor.Config{})
		_, err := e.Subscribe(ctx, mustParse(`subscription { postAdded { id } }`))
		Expect(err).Should(MatchError(ContainSubstring(`subscription "postAdded" has no resolver`)))
	})

	It("refuses to execute subscriptions as queries", func() {
		e := newExecutor(executor.Config{})
		result := e.Execute(ctx, mustParse(`subscription { postAdded { id } }`))
		Expect(result.State).Should(Equal(executor.StateFailed))
		Expect(result.Errors.Errors[0].Message).Should(Equal("subscriptions must be served with Subscribe"))
	})
})

var _ = Describe("ExecuteAction", func() {
	var (
		ctx     context.Context
		handler *recordingErrorHandler
	)

	BeforeEach(func() {
		ctx = context.Background()
		handler = &recordingErrorHandler{}
	})

	It("runs the handler of a route", func() {
		var params registry.Params
		e := newExecutor(executor.Config{ErrorHandler: handler},
			&registry.Action{
				Route: "GET /posts/:id",
				Handle: func(ctx context.Context, p registry.Params) (interface{}, error) {
					params = p
					return post(p.Args["id"].(string)), nil
				},
			})

		value, err := e.ExecuteAction(ctx, "get /posts/:id", map[string]interface{}{"id": "9"}, nil)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(value).Should(Equal(post("9")))
		Expect(params.Input).Should(Equal(map[string]interface{}{"id": "9"}))
		Expect(params.Request.Kind.String()).Should(Equal("action"))
		Expect(params.Request.Operation).Should(Equal("GET /posts/:id"))
	})

	It("routes handler failures to the error handler", func() {
		e := newExecutor(executor.Config{ErrorHandler: handler},
			&registry.Action{
				Route: "GET /posts/:id",
				Handle: func(ctx context.Context, p registry.Params) (interface{}, error) {
					return nil, errors.New("not found")
				},
			})

		_, err := e.ExecuteAction(ctx, "GET /posts/:id", map[string]interface{}{"id": "9"}, nil)
		errs, ok := gqlerrors.AsErrors(err)
		Expect(ok).Should(BeTrue())
		Expect(errs.Errors).Should(ConsistOf(testutil.MatchError(
			testutil.MessageEqual("not found"),
			testutil.KindIs(gqlerrors.ErrKindResolver),
		)))

		events := handler.ActionEvents()
		Expect(events).Should(HaveLen(1))
		Expect(events[0].Route.String()).Should(Equal("GET /posts/:id"))
		Expect(events[0].Err).Should(MatchError("not found"))
	})

	It("validates action inputs before the handler runs", func() {
		validators := validation.NewSet()
		Expect(validators.Register("PostInput", validation.Validator{
			Projection: validation.Projection{
				"title": {MinLength: validation.Int(3)},
			},
		})).Should(Succeed())

		var called bool
		e := newExecutor(executor.Config{Validators: validators, ErrorHandler: handler},
			&registry.Action{
				Route: "POST /posts",
				Handle: func(ctx context.Context, p registry.Params) (interface{}, error) {
					called = true
					return post("1"), nil
				},
			})

		_, err := e.ExecuteAction(ctx, "POST /posts", map[string]interface{}{"title": "a"}, nil)
		errs, ok := gqlerrors.AsErrors(err)
		Expect(ok).Should(BeTrue())
		Expect(errs.Errors).Should(ConsistOf(testutil.MatchError(
			testutil.PathEqual("input.title"),
			testutil.KindIs(gqlerrors.ErrKindValidation),
			testutil.ExtensionsInclude("rule", "minLength"),
		)))
		Expect(called).Should(BeFalse())
		Expect(handler.ActionEvents()).Should(BeEmpty())

		_, err = e.ExecuteAction(ctx, "POST /posts", map[string]interface{}{"title": "abc"}, nil)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(called).Should(BeTrue())
	})

	It("rejects undeclared routes", func() {
		e := newExecutor(executor.Config{})
		_, err := e.ExecuteAction(ctx, "DELETE /posts/:id", nil, nil)
		errs, ok := gqlerrors.AsErrors(err)
		Expect(ok).Should(BeTrue())
		Expect(errs.OfKind(gqlerrors.ErrKindValidation)).Should(HaveLen(1))
		Expect(err).Should(MatchError(ContainSubstring(`action "DELETE /posts/:id" is not declared`)))
	})
})
