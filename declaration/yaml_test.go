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

package declaration_test

import (
	"os"
	"path/filepath"

	"github.com/botobag/typegraph/declaration"
	"github.com/botobag/typegraph/gqlerrors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

const blog = `
models:
  Post:
    description: A blog post
    fields:
      id: string
      title: string
      summary?: string | null
      category: Category
      comments:
        type: Comment[]
        description: Latest comments
        args:
          first: number
  Category:
    fields:
      name: string
      posts: Post[]
  Comment:
    fields:
      body: string
  Status:
    enum:
      DRAFT: 0
      PUBLISHED:
        value: 1
        deprecated: use LIVE
  PostPage:
    model: Post
    args:
      comments:
        after?: string
inputs:
  PostInput:
    fields:
      title: string
context:
  currentUser: string | null
queries:
  posts: Post[]
mutations:
  postSave:
    input: PostInput
    returns: Post
    description: Saves a post
actions:
  "GET /posts/:id":
    args:
      id: string
    returns: Post | null
`

var _ = Describe("Parse", func() {
	It("decodes every section in order", func() {
		decls, err := declaration.Parse([]byte(blog), "blog.yaml")
		Expect(err).ShouldNot(HaveOccurred())

		Expect(decls.Models).Should(HaveLen(5))
		post := decls.Models[0]
		Expect(post.Name).Should(Equal("Post"))
		Expect(post.Description).Should(Equal("A blog post"))
		Expect(post.Location.File).Should(Equal("blog.yaml"))
		Expect(post.Location.Line).Should(BeEquivalentTo(3))

		fields := post.Shape.Fields
		Expect(fields).Should(HaveLen(5))
		Expect(fields[2].Name).Should(Equal("summary"))
		Expect(fields[2].Optional).Should(BeTrue())
		Expect(fields[2].Shape.Nullable).Should(BeTrue())
		Expect(fields[3].Shape.Name).Should(Equal("Category"))
		Expect(fields[4].Shape.Array).Should(BeTrue())
		Expect(fields[4].Description).Should(Equal("Latest comments"))
		Expect(fields[4].Args.Fields[0].Name).Should(Equal("first"))

		status := decls.Models[3].Shape
		Expect(status.Kind).Should(Equal(declaration.ShapeEnum))
		Expect(status.Enum[0].Value).Should(Equal(0))
		Expect(status.Enum[1].Value).Should(Equal(1))
		Expect(status.Enum[1].Deprecated).Should(Equal("use LIVE"))

		page := decls.Models[4].Shape
		Expect(page.Kind).Should(Equal(declaration.ShapeModel))
		Expect(page.Target.Name).Should(Equal("Post"))
		Expect(page.FieldArgs[0].Name).Should(Equal("comments"))
		Expect(page.FieldArgs[0].Shape.Fields[0].Optional).Should(BeTrue())

		Expect(decls.Context[0].Shape.Nullable).Should(BeTrue())

		posts := decls.Queries[0].Shape
		Expect(posts.Kind).Should(Equal(declaration.ShapeOperation))
		Expect(posts.Input).Should(BeNil())
		Expect(posts.Returns.Array).Should(BeTrue())

		save := decls.Mutations[0]
		Expect(save.Description).Should(Equal("Saves a post"))
		Expect(save.Shape.Input.Name).Should(Equal("PostInput"))

		action := decls.Actions[0]
		Expect(action.Name).Should(Equal("GET /posts/:id"))
		Expect(action.Shape.Input.Kind).Should(Equal(declaration.ShapeObject))
	})

	It("leaves unrecognized shapes to the extractor", func() {
		decls, err := declaration.Parse([]byte("models:\n  Odd:\n    weird: 1\n"), "")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(decls.Models[0].Shape.Kind).Should(Equal(declaration.ShapeInvalid))
		Expect(decls.Models[0].Shape.Raw).Should(ContainSubstring("weird"))
	})

	It("reports every syntax problem together", func() {
		_, err := declaration.Parse([]byte(`
modles:
  Post:
    fields:
      id: string
inputs:
  PostInput:
    fields:
      title: "string |"
      body:
        description: no type
`), "bad.yaml")
		Expect(err).Should(HaveOccurred())

		errs, ok := gqlerrors.AsErrors(err)
		Expect(ok).Should(BeTrue())
		Expect(errs.Len()).Should(Equal(3))
		Expect(errs.Errors[0].Message).Should(ContainSubstring(`Did you mean "models"?`))
		Expect(errs.Errors[0].Locations[0].Line).Should(BeEquivalentTo(2))
	})

	It("accepts an empty document", func() {
		decls, err := declaration.Parse(nil, "")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(decls.Models).Should(BeEmpty())
	})
})

var _ = Describe("LoadAll", func() {
	It("merges files in order", func() {
		dir, err := os.MkdirTemp("", "declarations")
		Expect(err).ShouldNot(HaveOccurred())
		defer os.RemoveAll(dir)

		a := filepath.Join(dir, "a.yaml")
		b := filepath.Join(dir, "b.yaml")
		Expect(os.WriteFile(a, []byte("models:\n  A:\n    fields:\n      id: string\n"), 0o644)).Should(Succeed())
		Expect(os.WriteFile(b, []byte("models:\n  B:\n    fields:\n      a: A\n"), 0o644)).Should(Succeed())

		decls, err := declaration.LoadAll(a, b)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(decls.Models).Should(HaveLen(2))
		Expect(decls.Models[1].Name).Should(Equal("B"))

		_, err = declaration.LoadAll(filepath.Join(dir, "missing.yaml"))
		Expect(err).Should(HaveOccurred())
	})
})
