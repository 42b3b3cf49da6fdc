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

	"github.com/botobag/typegraph/executor"
	"github.com/botobag/typegraph/internal/testutil"
	"github.com/botobag/typegraph/metadata"
	"github.com/botobag/typegraph/registry"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type PostRecord struct {
	Identifier string `typegraph:"id"`
	Heading    string `json:"title,omitempty"`
	Status     string
	Comments   []CommentRecord
}

func (p *PostRecord) Subtitle(ctx context.Context) (string, error) {
	return "about " + p.Identifier, nil
}

type CommentRecord struct {
	Body string
}

var _ = Describe("Default field resolver", func() {
	returnRecords := func(ctx context.Context, params registry.Params) (interface{}, error) {
		return []*PostRecord{
			{
				Identifier: "1",
				Heading:    "Hello",
				Status:     "PUBLISHED",
				Comments:   []CommentRecord{{Body: "first"}},
			},
		}, nil
	}

	It("reads struct fields by tag, by name and through methods", func() {
		e := newExecutor(executor.Config{},
			query(metadata.OperationQuery, "posts", returnRecords))

		result := e.Execute(context.Background(), mustParse(`{
			posts { id title status subtitle comments { body } }
		}`))
		Expect(result.Errors.HaveOccurred()).Should(BeFalse())
		Expect(result).Should(testutil.SerializeToJSONAs(`{"data":{"posts":[{
			"id": "1",
			"title": "Hello",
			"status": "PUBLISHED",
			"subtitle": "about 1",
			"comments": [{"body": "first"}]
		}]}}`))
	})

	It("reports fields it cannot find", func() {
		e := newExecutor(executor.Config{},
			query(metadata.OperationQuery, "posts", returnRecords))

		result := e.Execute(context.Background(), mustParse(`{ posts { id author { name } } }`))
		Expect(result.State).Should(Equal(executor.StateCompleted))
		Expect(result.Errors.Errors).Should(ConsistOf(testutil.MatchError(
			testutil.MessageEqual(`default resolver cannot resolve value for "Post.author"`),
			testutil.PathEqual("posts[0].author"),
		)))
	})
})
