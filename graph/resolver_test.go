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

package graph_test

import (
	. "github.com/botobag/typegraph/declaration"
	"github.com/botobag/typegraph/extractor"
	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/graph"
	"github.com/botobag/typegraph/metadata"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func resolve(decls *Declarations) (*graph.Graph, error) {
	app, err := extractor.Extract(decls)
	Expect(err).ShouldNot(HaveOccurred())
	return graph.Resolve(app)
}

func mustResolve(decls *Declarations) *graph.Graph {
	g, err := resolve(decls)
	Expect(err).ShouldNot(HaveOccurred())
	return g
}

var _ = Describe("Resolve", func() {
	It("resolves mutually recursive models to one shared node each", func() {
		g := mustResolve(&Declarations{
			Models: []*Declaration{
				Decl("Post", Object(F("title", String()), F("category", Ref("Category")))),
				Decl("Category", Object(F("name", String()), F("posts", Ref("Post").List()))),
			},
		})

		post := g.Lookup("Post")
		category := g.Lookup("Category")
		Expect(post).ShouldNot(BeNil())
		Expect(category).ShouldNot(BeNil())

		toCategory := post.Property("category").Type
		Expect(toCategory.Kind).Should(Equal(metadata.KindReference))
		Expect(toCategory.Target).Should(BeIdenticalTo(category))
		Expect(g.Target(toCategory)).Should(BeIdenticalTo(category))

		toPosts := category.Property("posts").Type
		Expect(toPosts.Kind).Should(Equal(metadata.KindReference))
		Expect(toPosts.Array).Should(BeTrue())
		Expect(toPosts.Target).Should(BeIdenticalTo(post))

		// Category is resolved while Post is in progress so its reference back to Post closes the
		// cycle.
		Expect(toPosts.BackEdge).Should(BeTrue())
		Expect(toCategory.BackEdge).Should(BeFalse())

		Expect(g.App().Models.Names()).Should(Equal([]string{"Post", "Category"}))
		Expect(g.Dangling()).Should(BeEmpty())
	})

	It("resolves self references", func() {
		g := mustResolve(&Declarations{
			Models: []*Declaration{
				Decl("Comment", Object(F("replies", Ref("Comment").List()))),
			},
		})
		comment := g.Lookup("Comment")
		replies := comment.Property("replies").Type
		Expect(replies.BackEdge).Should(BeTrue())
		Expect(replies.Target).Should(BeIdenticalTo(comment))
	})

	It("keeps same-shaped declarations with different names distinct", func() {
		g := mustResolve(&Declarations{
			Inputs: []*Declaration{
				Decl("CreatePost", Object(F("title", String()))),
				Decl("UpdatePost", Object(F("title", String()))),
			},
		})
		Expect(g.Lookup("CreatePost")).ShouldNot(BeIdenticalTo(g.Lookup("UpdatePost")))
		Expect(g.App().Inputs.Len()).Should(Equal(2))
	})

	It("merges declarations sharing a name", func() {
		g := mustResolve(&Declarations{
			Models: []*Declaration{
				Decl("Post", Object(F("title", String()), F("body", String()))),
				Decl("Post", Object(F("body", String().OrNull()), F("views", Number()))).Doc("merged"),
			},
		})
		post := g.Lookup("Post")
		Expect(post.Description).Should(Equal("merged"))

		var names []string
		for _, prop := range post.Properties {
			names = append(names, prop.Name)
		}
		Expect(names).Should(Equal([]string{"title", "body", "views"}))
		Expect(post.Property("body").Type.Nullable).Should(BeTrue())
		Expect(g.App().Models.Values()).Should(HaveLen(1))
	})

	It("rejects merging declarations of different kinds", func() {
		_, err := resolve(&Declarations{
			Models: []*Declaration{
				Decl("Post", Object(F("title", String()))),
				Decl("Post", Enum(Keys("A")...)),
			},
		})
		Expect(err).Should(HaveOccurred())
		Expect(err.Error()).Should(ContainSubstring(`"Post" is declared as both object and enum`))
	})

	It("flattens intersections with later members winning", func() {
		g := mustResolve(&Declarations{
			Models: []*Declaration{
				Decl("Entity", Object(F("id", String()), F("kind", String()))).Doc("Entity"),
				Decl("Post", Intersection(
					Ref("Entity"),
					Object(F("kind", Number()), F("title", String())),
				)),
			},
			Queries: []*Declaration{
				Decl("tagged", Operation(nil, Intersection(Ref("Entity"), Object(F("tag", String()))).List())),
			},
		})

		post := g.Lookup("Post")
		Expect(post.Kind).Should(Equal(metadata.KindObject))
		Expect(post.Name).Should(Equal("Post"))
		Expect(post.Description).Should(Equal("Entity"))
		Expect(post.Properties).Should(HaveLen(3))
		Expect(post.Property("kind").Type.Primitive).Should(Equal(metadata.PrimitiveNumber))

		models := g.App().Models
		resolved, _ := models.Get("Post")
		Expect(resolved).Should(BeIdenticalTo(post))

		tagged, _ := g.App().Queries.Get("tagged")
		Expect(tagged.ReturnType.Kind).Should(Equal(metadata.KindObject))
		Expect(tagged.ReturnType.Array).Should(BeTrue())
		Expect(tagged.ReturnType.Properties).Should(HaveLen(3))
	})

	It("links back-edges into flattened intersections", func() {
		g := mustResolve(&Declarations{
			Models: []*Declaration{
				Decl("Entity", Object(F("id", String()))),
				Decl("Thread", Intersection(Ref("Entity"), Object(Opt("replies", Ref("Thread").List())))),
			},
		})
		thread := g.Lookup("Thread")
		Expect(thread.Kind).Should(Equal(metadata.KindObject))
		Expect(thread.Property("replies").Type.Target).Should(BeIdenticalTo(thread))
	})

	Context("with an intersection taking part in a cycle", func() {
		user := func() *Declaration {
			return Decl("User", Object(F("id", String()), Opt("friends", Ref("UserWithMeta").List())))
		}
		userWithMeta := func() *Declaration {
			return Decl("UserWithMeta", Intersection(Ref("User"), Object(F("since", Date()))))
		}

		expectLinked := func(g *graph.Graph) {
			u := g.Lookup("User")
			withMeta := g.Lookup("UserWithMeta")
			Expect(withMeta.Kind).Should(Equal(metadata.KindObject))
			Expect(withMeta.Properties).Should(HaveLen(3))
			Expect(withMeta.Property("since").Type.Primitive).Should(Equal(metadata.PrimitiveDate))

			friends := u.Property("friends").Type
			Expect(friends.Kind).Should(Equal(metadata.KindReference))
			Expect(friends.Target).Should(BeIdenticalTo(withMeta))
			Expect(withMeta.Property("friends").Type.Target).Should(BeIdenticalTo(withMeta))
			Expect(g.Dangling()).Should(BeEmpty())
		}

		It("resolves when the base object is declared first", func() {
			expectLinked(mustResolve(&Declarations{
				Models: []*Declaration{user(), userWithMeta()},
			}))
		})

		It("resolves when the intersection is declared first", func() {
			expectLinked(mustResolve(&Declarations{
				Models: []*Declaration{userWithMeta(), user()},
			}))
		})
	})

	It("rejects intersections that include themselves", func() {
		_, err := resolve(&Declarations{
			Models: []*Declaration{
				Decl("A", Intersection(Ref("B"), Object(F("a", String())))),
				Decl("B", Intersection(Ref("A"), Object(F("b", String())))),
			},
		})
		Expect(err).Should(HaveOccurred())
		errs, _ := gqlerrors.AsErrors(err)
		Expect(errs.OfKind(gqlerrors.ErrKindUnsupportedType)).ShouldNot(BeEmpty())
	})

	It("records dangling references for the checker", func() {
		g := mustResolve(&Declarations{
			Models: []*Declaration{
				Decl("Post", Object(F("author", Ref("Author")))),
			},
			Mutations: []*Declaration{
				Decl("postSave", Operation(Ref("PostInput"), Ref("Post"))),
			},
		})

		dangling := g.Dangling()
		Expect(dangling).Should(HaveLen(2))
		Expect(dangling[0].Owner).Should(Equal("Post.author"))
		Expect(dangling[0].Section).Should(Equal(metadata.SectionModels))
		Expect(dangling[1].Owner).Should(Equal("postSave"))
		Expect(dangling[1].Section).Should(Equal(metadata.SectionMutations))
		Expect(dangling[1].Reference.ReferenceName).Should(Equal("PostInput"))
	})
})
