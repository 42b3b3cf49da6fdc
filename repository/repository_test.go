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

package repository_test

import (
	"context"
	"errors"

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/repository"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("ModelOf", func() {
	It("stores scalar properties only", func() {
		model, err := repository.ModelOf(blogGraph(), "BlogPost")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(model.Columns).Should(Equal([]string{"id", "title", "status", "createdAt", "views"}))
	})

	It("suggests declared models", func() {
		_, err := repository.ModelOf(blogGraph(), "BlogPosts")
		Expect(err).Should(MatchError(ContainSubstring(`Did you mean "BlogPost"?`)))
		Expect(gqlerrors.KindOf(err)).Should(Equal(gqlerrors.ErrKindUnknownModelReference))
	})

	It("creates a repository per model", func() {
		repositories, err := repository.ForModels(blogGraph(), func(model *repository.Model) repository.Repository {
			return repository.NewMemory(model)
		})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(repositories).Should(HaveLen(3))
		Expect(repositories).Should(HaveKey("Author"))
	})
})

var _ = Describe("Memory", func() {
	var (
		ctx   context.Context
		posts *repository.Memory
	)

	BeforeEach(func() {
		ctx = context.Background()
		model, err := repository.ModelOf(blogGraph(), "BlogPost")
		Expect(err).ShouldNot(HaveOccurred())
		posts = repository.NewMemory(model)
	})

	It("assigns ids to new records", func() {
		saved, err := posts.Save(ctx, repository.Record{"title": "Hello", "tags": []string{"go"}})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(saved["id"]).ShouldNot(BeEmpty())
		Expect(saved).ShouldNot(HaveKey("tags"))

		found, err := posts.FindOne(ctx, repository.Criteria{"id": saved["id"]})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(found).Should(Equal(saved))
	})

	It("replaces records with the same id", func() {
		_, err := posts.Save(ctx, repository.Record{"id": "1", "title": "Draft"})
		Expect(err).ShouldNot(HaveOccurred())
		_, err = posts.Save(ctx, repository.Record{"id": "1", "title": "Final"})
		Expect(err).ShouldNot(HaveOccurred())

		all, err := posts.Find(ctx, nil)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(all).Should(Equal([]repository.Record{{"id": "1", "title": "Final"}}))
	})

	It("finds and removes by criteria", func() {
		for _, record := range []repository.Record{
			{"id": "1", "status": "DRAFT"},
			{"id": "2", "status": "PUBLISHED"},
			{"id": "3", "status": "DRAFT"},
		} {
			_, err := posts.Save(ctx, record)
			Expect(err).ShouldNot(HaveOccurred())
		}

		drafts, err := posts.Find(ctx, repository.Criteria{"status": "DRAFT"})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(drafts).Should(HaveLen(2))
		Expect(drafts[0]["id"]).Should(Equal("1"))
		Expect(drafts[1]["id"]).Should(Equal("3"))

		removed, err := posts.Remove(ctx, repository.Criteria{"status": "DRAFT"})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(removed).Should(Equal(2))

		all, err := posts.Find(ctx, repository.Criteria{})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(all).Should(Equal([]repository.Record{{"id": "2", "status": "PUBLISHED"}}))
	})

	It("does not share stored records with callers", func() {
		saved, err := posts.Save(ctx, repository.Record{"id": "1", "title": "Hello"})
		Expect(err).ShouldNot(HaveOccurred())
		saved["title"] = "Changed"

		found, err := posts.FindOne(ctx, repository.Criteria{"id": "1"})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(found["title"]).Should(Equal("Hello"))
	})

	It("reports missing records", func() {
		_, err := posts.FindOne(ctx, repository.Criteria{"id": "42"})
		Expect(errors.Is(err, repository.ErrNotFound)).Should(BeTrue())
	})

	It("rejects criteria on properties which are not stored", func() {
		_, err := posts.Find(ctx, repository.Criteria{"tittle": "Hello", "tags": "go"})
		errs, ok := gqlerrors.AsErrors(err)
		Expect(ok).Should(BeTrue())
		Expect(errs.Len()).Should(Equal(2))
		Expect(errs.Errors[1].Message).Should(ContainSubstring(`Did you mean "title"?`))
	})

	It("requires an id property to save", func() {
		model, err := repository.ModelOf(blogGraph(), "Tag")
		Expect(err).ShouldNot(HaveOccurred())
		_, err = repository.NewMemory(model).Save(ctx, repository.Record{"label": "go"})
		Expect(err).Should(MatchError(ContainSubstring(`has no "id" property`)))
	})
})
