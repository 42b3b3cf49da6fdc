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

package app_test

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/botobag/typegraph/app"
	"github.com/botobag/typegraph/config"
	. "github.com/botobag/typegraph/declaration"
	"github.com/botobag/typegraph/executor"
	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/internal/testutil"
	"github.com/botobag/typegraph/metadata"
	"github.com/botobag/typegraph/registry"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func blog() *Declarations {
	return &Declarations{
		Models: []*Declaration{
			Decl("Post", Object(F("id", String()), F("title", String()))),
		},
		Inputs: []*Declaration{
			Decl("PostInput", Object(F("title", String()))),
		},
		Queries: []*Declaration{
			Decl("posts", Operation(nil, Ref("Post").List())),
		},
		Mutations: []*Declaration{
			Decl("postSave", Operation(Ref("PostInput"), Ref("Post"))),
		},
	}
}

func listPosts(ctx context.Context, params registry.Params) (interface{}, error) {
	return []interface{}{
		map[string]interface{}{"id": "1", "title": "Hello"},
	}, nil
}

var _ = Describe("Compile", func() {
	It("produces the metadata, graph and schema of declarations", func() {
		c, err := app.Compile(blog(), app.Options{})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(c.Metadata.Models.Names()).Should(Equal([]string{"Post"}))
		Expect(c.Graph.Lookup("Post")).ShouldNot(BeNil())
		Expect(c.Schema.Query.Field("posts").Type.String()).Should(Equal("[Post!]!"))
		Expect(c.Schema.Query.Field("posts").Resolve).Should(BeNil())
	})

	It("stops at the first failing phase and logs it", func() {
		core, logs := observer.New(zapcore.DebugLevel)
		decls := blog()
		decls.Mutations = append(decls.Mutations, Decl("postSave", Operation(Ref("PostInput"), Ref("Post"))))

		_, err := app.Compile(decls, app.Options{Logger: zap.New(core)})
		errs, ok := gqlerrors.AsErrors(err)
		Expect(ok).Should(BeTrue())
		Expect(errs.OfKind(gqlerrors.ErrKindDuplicateOperation)).Should(HaveLen(1))

		failures := logs.FilterMessage("build failed").All()
		Expect(failures).Should(HaveLen(1))
		Expect(failures[0].ContextMap()).Should(HaveKeyWithValue("phase", "check"))
		Expect(logs.FilterMessage("synthesized schema").Len()).Should(BeZero())
	})
})

var _ = Describe("Build", func() {
	It("serves requests with bound resolvers", func() {
		a, err := app.Build(blog(), app.Config{},
			&registry.Operation{Kind: metadata.OperationQuery, Name: "posts", Resolve: listPosts})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(a.Schema.Query.Field("posts").Resolve).ShouldNot(BeNil())

		request, err := executor.Parse(`{ posts { title } }`)
		Expect(err).ShouldNot(HaveOccurred())
		result := a.Executor.Execute(context.Background(), request)
		Expect(result).Should(testutil.SerializeToJSONAs(`{"data":{"posts":[{"title":"Hello"}]}}`))
	})

	It("warns about operations without resolver", func() {
		core, logs := observer.New(zapcore.DebugLevel)
		_, err := app.Build(blog(), app.Config{Options: app.Options{Logger: zap.New(core)}},
			&registry.Operation{Kind: metadata.OperationQuery, Name: "posts", Resolve: listPosts})
		Expect(err).ShouldNot(HaveOccurred())

		warnings := logs.FilterMessage("operations without resolver").All()
		Expect(warnings).Should(HaveLen(1))
		Expect(warnings[0].ContextMap()).Should(HaveKeyWithValue("operations",
			[]interface{}{"mutation postSave"}))
	})

	It("fails on resolvers bound to undeclared targets", func() {
		_, err := app.Build(blog(), app.Config{},
			&registry.Operation{Kind: metadata.OperationQuery, Name: "post", Resolve: listPosts})
		errs, ok := gqlerrors.AsErrors(err)
		Expect(ok).Should(BeTrue())
		Expect(errs.OfKind(gqlerrors.ErrKindUnknownResolverTarget)).Should(HaveLen(1))
	})
})

var _ = Describe("Load", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "typegraph-app")
		Expect(err).ShouldNot(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	write := func(name string, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).Should(Succeed())
		return path
	}

	It("builds an application from configuration files", func() {
		c := &config.Config{
			Declarations: []string{write("blog.yaml", `
models:
  Post:
    fields:
      id: string
      title: string
inputs:
  PostInput:
    fields:
      title: string
mutations:
  postSave:
    input: PostInput
    returns: Post
`)},
			Validators: write("rules.yaml", `
PostInput:
  projection:
    title: { minLength: 3 }
`),
			Log: config.LogConfig{Level: "error"},
		}

		var saved bool
		a, err := app.Load(c, &registry.Operation{
			Kind: metadata.OperationMutation,
			Name: "postSave",
			Resolve: func(ctx context.Context, params registry.Params) (interface{}, error) {
				saved = true
				return map[string]interface{}{"id": "1", "title": "Hi"}, nil
			},
		})
		Expect(err).ShouldNot(HaveOccurred())

		request, err := executor.Parse(`mutation { postSave(title: "Hi") { id } }`)
		Expect(err).ShouldNot(HaveOccurred())
		result := a.Executor.Execute(context.Background(), request)
		Expect(result.Errors.Errors).Should(ConsistOf(testutil.MatchError(
			testutil.KindIs(gqlerrors.ErrKindValidation),
			testutil.PathEqual("postSave.input.title"),
		)))
		Expect(saved).Should(BeFalse())
	})

	It("fails on missing declaration files", func() {
		_, err := app.Load(&config.Config{
			Declarations: []string{filepath.Join(dir, "missing.yaml")},
		})
		Expect(err).Should(MatchError(ContainSubstring("cannot read declarations")))
	})
})
