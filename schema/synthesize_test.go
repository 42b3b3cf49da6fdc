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

package schema_test

import (
	"github.com/botobag/typegraph/check"
	. "github.com/botobag/typegraph/declaration"
	"github.com/botobag/typegraph/extractor"
	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/graph"
	"github.com/botobag/typegraph/metadata"
	"github.com/botobag/typegraph/schema"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func buildGraph(decls *Declarations) *graph.Graph {
	app, err := extractor.Extract(decls)
	Expect(err).ShouldNot(HaveOccurred())
	g, err := graph.Resolve(app)
	Expect(err).ShouldNot(HaveOccurred())
	Expect(check.Check(g)).Should(Succeed())
	return g
}

func synthesize(decls *Declarations, config schema.Config) *schema.Schema {
	s, err := schema.Synthesize(buildGraph(decls), config)
	Expect(err).ShouldNot(HaveOccurred())
	return s
}

func blog() *Declarations {
	return &Declarations{
		Models: []*Declaration{
			Decl("Post", Object(
				F("title", String()).Doc("The title"),
				F("category", Ref("Category").OrNull()),
				Opt("tags", String().List()),
				F("status", Ref("Status")),
				Opt("publishedAt", Date()),
			)).Doc("A post"),
			Decl("Category", Object(
				F("name", String()),
				F("posts", Ref("Post").List()).WithArgs(Opt("first", Number())),
			)),
			Decl("Status", Enum(
				&EnumEntry{Key: "DRAFT", Value: 0},
				&EnumEntry{Key: "PUBLISHED", Value: 1, Deprecated: "use LIVE"},
			)),
		},
		Inputs: []*Declaration{
			Decl("PostInput", Object(F("title", String()), F("status", Ref("Status")))),
		},
		Queries: []*Declaration{
			Decl("post", Operation(String(), Ref("Post").OrNull())),
		},
		Mutations: []*Declaration{
			Decl("postSave", Operation(Ref("PostInput"), Ref("Post"))),
		},
	}
}

const blogSDL = `"A date-time string in RFC 3339 format."
scalar Date

"A post"
type Post {
  "The title"
  title: String!
  category: Category
  tags: [String!]
  status: Status!
  publishedAt: Date
}

type Category {
  name: String!
  posts(first: Float): [Post!]!
}

enum Status {
  DRAFT
  PUBLISHED @deprecated(reason: "use LIVE")
}

input PostInput {
  title: String!
  status: Status!
}

type Query {
  post(input: String!): Post
}

type Mutation {
  postSave(title: String!, status: Status!): Post!
}
`

var _ = Describe("Synthesize", func() {
	It("projects models, inputs and operations", func() {
		s := synthesize(blog(), schema.Config{})
		Expect(schema.Print(s)).Should(Equal(blogSDL))
	})

	It("is deterministic", func() {
		g := buildGraph(blog())
		a, err := schema.Synthesize(g, schema.Config{})
		Expect(err).ShouldNot(HaveOccurred())
		b, err := schema.Synthesize(g, schema.Config{})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(schema.Print(a)).Should(Equal(schema.Print(b)))
		Expect(a).ShouldNot(BeIdenticalTo(b))
	})

	It("synthesizes each type of a cycle exactly once", func() {
		s := synthesize(blog(), schema.Config{})

		var names []string
		for _, t := range s.Types {
			names = append(names, t.TypeName())
		}
		Expect(names).Should(ConsistOf("Post", "Category", "Status", "PostInput", "Query", "Mutation", "Date"))

		post := s.Object("Post")
		category := s.Object("Category")
		Expect(post.Field("category").Type.Named).Should(BeIdenticalTo(category))
		Expect(category.Field("posts").Type.Named).Should(BeIdenticalTo(post))
		Expect(s.Query.Field("post").Type.Named).Should(BeIdenticalTo(post))
	})

	It("keeps same-shaped declarations with different names apart", func() {
		s := synthesize(&Declarations{
			Inputs: []*Declaration{
				Decl("CreatePost", Object(F("title", String()))),
				Decl("UpdatePost", Object(F("title", String()))),
			},
		}, schema.Config{})
		Expect(s.Type("CreatePost")).ShouldNot(BeNil())
		Expect(s.Type("UpdatePost")).ShouldNot(BeNil())
		Expect(s.Type("CreatePost")).ShouldNot(BeIdenticalTo(s.Type("UpdatePost")))
	})

	It("names inline shapes after their owner", func() {
		s := synthesize(&Declarations{
			Models: []*Declaration{
				Decl("Post", Object(
					F("meta", Object(F("views", Number()))),
					F("mood", Union(Literal("happy"), Literal("sad-ish"))),
				)),
				Decl("Category", Object(F("name", String()))),
			},
			Inputs: []*Declaration{
				Decl("CategoryFilter", Object(Opt("like", Ref("Category")))),
			},
			Queries: []*Declaration{
				Decl("stats", Operation(nil, Object(F("count", Number())))),
				Decl("search", Operation(String(), Union(Ref("Post"), Ref("Category")).List())),
			},
			Mutations: []*Declaration{
				Decl("categorySave", Operation(Ref("Category"), Boolean())),
			},
		}, schema.Config{})

		Expect(s.Object("PostMeta")).ShouldNot(BeNil())
		Expect(s.Object("Post").Field("meta").Type.Named.TypeName()).Should(Equal("PostMeta"))

		mood, ok := s.Type("PostMood").(*schema.Enum)
		Expect(ok).Should(BeTrue())
		Expect(mood.Values[1].Name).Should(Equal("sad_ish"))
		Expect(mood.ValueOf("sad-ish")).Should(BeIdenticalTo(mood.Values[1]))

		Expect(s.Object("StatsResult")).ShouldNot(BeNil())

		union, ok := s.Type("SearchResult").(*schema.Union)
		Expect(ok).Should(BeTrue())
		Expect(union.Members).Should(HaveLen(2))
		Expect(s.Query.Field("search").Type.String()).Should(Equal("[SearchResult!]!"))

		// Object inputs are spread into arguments.
		Expect(s.Mutation.Field("categorySave").Args[0].Name).Should(Equal("name"))

		// A model used as an input gets its own input type.
		input, ok := s.Type("CategoryInput").(*schema.InputObject)
		Expect(ok).Should(BeTrue())
		Expect(input.Node).Should(BeIdenticalTo(s.Object("Category").Node))
	})

	It("installs bindings from factories", func() {
		var resolved, subscribed []string
		decls := blog()
		decls.Subscriptions = []*Declaration{
			Decl("postAdded", Operation(nil, Ref("Post"))),
		}

		s := synthesize(decls, schema.Config{
			ResolveFactory: func(parent *schema.Object, field *schema.Field) schema.Binding {
				resolved = append(resolved, parent.Name+"."+field.Name)
				return parent.Name + "." + field.Name
			},
			SubscribeFactory: func(root *schema.Object, field *schema.Field) schema.Binding {
				subscribed = append(subscribed, field.Name)
				return field.Name
			},
		})

		Expect(resolved).Should(ContainElement("Post.title"))
		Expect(resolved).Should(ContainElement("Mutation.postSave"))
		Expect(subscribed).Should(Equal([]string{"postAdded"}))
		Expect(s.Subscription.Field("postAdded").Subscribe).Should(Equal("postAdded"))
		Expect(s.Subscription.Kind).Should(Equal(metadata.OperationSubscription))
		Expect(s.Object("Post").Field("title").Resolve).Should(Equal("Post.title"))
	})

	Describe("assert mode", func() {
		decls := func() *Declarations {
			return &Declarations{
				Models: []*Declaration{
					Decl("Empty", Object()),
					Decl("Status", Enum(Keys("A", "B")...)),
					Decl("Post", Object(F("title", String()))),
					Decl("Odd", Union(Ref("Post"), Ref("Status"))),
				},
			}
		}

		It("tolerates unservable parts when disabled", func() {
			s := synthesize(decls(), schema.Config{})
			odd := s.Type("Odd").(*schema.Union)
			Expect(odd.Members).Should(HaveLen(1))
		})

		It("rejects empty objects and unions of non-objects", func() {
			_, err := schema.Synthesize(buildGraph(decls()), schema.Config{Assert: true})
			Expect(err).Should(HaveOccurred())
			errs, _ := gqlerrors.AsErrors(err)
			Expect(errs.OfKind(gqlerrors.ErrKindInvalidSchema)).Should(HaveLen(2))
			Expect(err.Error()).Should(ContainSubstring(`object type "Empty" has no fields`))
			Expect(err.Error()).Should(ContainSubstring(`union "Odd" has member Status which is not an object type`))
		})
	})

	It("reports type names used twice", func() {
		_, err := schema.Synthesize(buildGraph(&Declarations{
			Models: []*Declaration{
				Decl("Query", Object(F("a", String()))),
			},
			Queries: []*Declaration{
				Decl("a", Operation(nil, String())),
			},
		}), schema.Config{})
		Expect(err).Should(HaveOccurred())
		Expect(err.Error()).Should(ContainSubstring(`type name "Query" is used by more than one type`))
	})
})
