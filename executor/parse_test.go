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
	"github.com/botobag/typegraph/executor"
	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/metadata"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Parse", func() {
	It("parses selections, aliases, arguments and fragments", func() {
		request, err := executor.Parse(`
			# Save a post.
			mutation SavePost {
				saved: postSave(title: "Hello \"world\"", rating: 4.5, views: 10, draft: true,
				                status: PUBLISHED, tags: ["a", "b"], meta: { key: $key }, note: null) {
					title
					... on Post { status }
				}
			}`)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(request.Kind).Should(Equal(metadata.OperationMutation))
		Expect(request.Selection).Should(HaveLen(1))

		saved := request.Selection[0]
		Expect(saved.Alias).Should(Equal("saved"))
		Expect(saved.Name).Should(Equal("postSave"))
		Expect(saved.ResponseKey()).Should(Equal("saved"))
		Expect(saved.Args).Should(Equal(map[string]interface{}{
			"title":  `Hello "world"`,
			"rating": 4.5,
			"views":  10,
			"draft":  true,
			"status": executor.EnumLiteral("PUBLISHED"),
			"tags":   []interface{}{"a", "b"},
			"meta":   map[string]interface{}{"key": executor.Variable("key")},
			"note":   nil,
		}))

		Expect(saved.Selection).Should(Equal([]*executor.Selection{
			executor.Field("title"),
			executor.On("Post", executor.Field("status")),
		}))
		Expect(saved.Selection[1].IsFragment()).Should(BeTrue())
	})

	It("parses a document without operation keyword as a query", func() {
		request, err := executor.Parse(`{ posts { title } }`)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(request.Kind).Should(Equal(metadata.OperationQuery))
		Expect(request.Selection).Should(Equal([]*executor.Selection{
			executor.Field("posts", executor.Field("title")),
		}))
	})

	It("parses empty lists and objects", func() {
		request, err := executor.Parse(`{ search(tags: [], meta: {}) { __typename } }`)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(request.Selection[0].Args).Should(Equal(map[string]interface{}{
			"tags": []interface{}{},
			"meta": map[string]interface{}{},
		}))
	})

	It("rejects malformed documents", func() {
		_, err := executor.Parse(`{ posts { title }`)
		Expect(err).Should(HaveOccurred())
		Expect(gqlerrors.KindOf(err)).Should(Equal(gqlerrors.ErrKindValidation))
		Expect(err.Error()).Should(ContainSubstring("syntax error"))
	})

	It("rejects repeated arguments", func() {
		_, err := executor.Parse(`{ post(input: "1", input: "2") { title } }`)
		Expect(err).Should(MatchError(ContainSubstring(`argument "input" is given more than once`)))
	})
})

var _ = Describe("Selection builders", func() {
	It("builds selections equivalent to parsed ones", func() {
		built := executor.Field("postSave", executor.Field("title")).
			WithArgs(map[string]interface{}{"title": "Hello"}).
			As("saved")

		request, err := executor.Parse(`mutation { saved: postSave(title: "Hello") { title } }`)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(request.Selection[0]).Should(Equal(built))
	})
})

var _ = Describe("State", func() {
	It("moves forward or to failed", func() {
		Expect(executor.StateReceived.CanTransitionTo(executor.StateValidated)).Should(BeTrue())
		Expect(executor.StateReceived.CanTransitionTo(executor.StateResolving)).Should(BeFalse())
		Expect(executor.StateValidated.CanTransitionTo(executor.StateFailed)).Should(BeTrue())
		Expect(executor.StateResolving.CanTransitionTo(executor.StateCompleted)).Should(BeTrue())
		Expect(executor.StateCompleted.CanTransitionTo(executor.StateFailed)).Should(BeFalse())
		Expect(executor.StateFailed.IsTerminal()).Should(BeTrue())
		Expect(executor.StateResolving.IsTerminal()).Should(BeFalse())
		Expect(executor.StateResolving.String()).Should(Equal("resolving"))
	})
})
