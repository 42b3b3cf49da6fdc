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

package handler_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/botobag/typegraph/app"
	. "github.com/botobag/typegraph/declaration"
	"github.com/botobag/typegraph/handler"
	"github.com/botobag/typegraph/metadata"
	"github.com/botobag/typegraph/ratelimit"
	"github.com/botobag/typegraph/registry"
	"github.com/botobag/typegraph/validation"

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
		Context: []*Declaration{
			Decl("viewer", String().OrNull()),
		},
		Queries: []*Declaration{
			Decl("posts", Operation(nil, Ref("Post").List())),
		},
		Actions: []*Declaration{
			Decl("GET /posts/:id", Operation(Object(F("id", String())), Ref("Post").OrNull())),
			Decl("POST /posts", Operation(Ref("PostInput"), Ref("Post"))),
			Decl("DELETE /posts/:id", Operation(Object(F("id", String())), Boolean().OrNull())),
		},
	}
}

func post(id string) map[string]interface{} {
	return map[string]interface{}{"id": id, "title": "Post " + id}
}

var _ = Describe("Handler", func() {
	var (
		config    app.Config
		resolvers []registry.Declaration
		server    *httptest.Server
		deleted   []string
		getPost   registry.ActionFunc
	)

	BeforeEach(func() {
		config = app.Config{}
		deleted = nil
		getPost = func(ctx context.Context, p registry.Params) (interface{}, error) {
			return post(p.Args["id"].(string)), nil
		}
	})

	JustBeforeEach(func() {
		resolvers = []registry.Declaration{
			&registry.Operation{
				Kind: metadata.OperationQuery,
				Name: "posts",
				Resolve: func(ctx context.Context, p registry.Params) (interface{}, error) {
					return []interface{}{post("1"), post("2")}, nil
				},
			},
			&registry.ContextValue{
				Name: "viewer",
				Resolve: func(ctx context.Context, request *registry.RequestInfo) (interface{}, error) {
					return request.Metadata["x-viewer"], nil
				},
			},
			&registry.Action{
				Route: "GET /posts/:id",
				Handle: func(ctx context.Context, p registry.Params) (interface{}, error) {
					return getPost(ctx, p)
				},
			},
			&registry.Action{
				Route: "POST /posts",
				Handle: func(ctx context.Context, p registry.Params) (interface{}, error) {
					input := p.Input.(map[string]interface{})
					return map[string]interface{}{
						"id":     "3",
						"title":  input["title"],
						"author": p.Context["viewer"],
					}, nil
				},
			},
			&registry.Action{
				Route: "DELETE /posts/:id",
				Handle: func(ctx context.Context, p registry.Params) (interface{}, error) {
					deleted = append(deleted, p.Args["id"].(string))
					return nil, nil
				},
			},
		}

		a, err := app.Build(blog(), config, resolvers...)
		Expect(err).ShouldNot(HaveOccurred())
		h, err := handler.New(a.Executor, handler.MaxBodySize(1024))
		Expect(err).ShouldNot(HaveOccurred())
		server = httptest.NewServer(h)
	})

	AfterEach(func() {
		server.Close()
	})

	do := func(method string, path string, contentType string, body string) (int, http.Header, string) {
		req, err := http.NewRequest(method, server.URL+path, strings.NewReader(body))
		Expect(err).ShouldNot(HaveOccurred())
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("X-Viewer", "alice")

		resp, err := http.DefaultClient.Do(req)
		Expect(err).ShouldNot(HaveOccurred())
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		Expect(err).ShouldNot(HaveOccurred())
		return resp.StatusCode, resp.Header, string(b)
	}

	Describe("query endpoint", func() {
		It("serves JSON requests", func() {
			status, header, body := do("POST", "/graphql", "application/json",
				`{"query": "{ posts { id } }"}`)
			Expect(status).Should(Equal(http.StatusOK))
			Expect(header.Get("Content-Type")).Should(Equal("application/json"))
			Expect(body).Should(MatchJSON(`{"data":{"posts":[{"id":"1"},{"id":"2"}]}}`))
		})

		It("serves documents in the body", func() {
			status, _, body := do("POST", "/graphql", "application/graphql", `{ posts { title } }`)
			Expect(status).Should(Equal(http.StatusOK))
			Expect(body).Should(MatchJSON(`{"data":{"posts":[{"title":"Post 1"},{"title":"Post 2"}]}}`))
		})

		It("serves GET requests", func() {
			status, _, body := do("GET", "/graphql?query="+url.QueryEscape(`{ posts { id } }`), "", "")
			Expect(status).Should(Equal(http.StatusOK))
			Expect(body).Should(MatchJSON(`{"data":{"posts":[{"id":"1"},{"id":"2"}]}}`))
		})

		It("rejects empty queries", func() {
			status, _, body := do("POST", "/graphql", "application/json", `{}`)
			Expect(status).Should(Equal(http.StatusBadRequest))
			Expect(body).Should(MatchJSON(`{"errors":[{"message":"empty query"}]}`))
		})

		It("rejects malformed documents", func() {
			status, _, body := do("POST", "/graphql", "application/graphql", `{ posts { id `)
			Expect(status).Should(Equal(http.StatusBadRequest))
			Expect(body).Should(ContainSubstring("syntax error"))
		})

		It("rejects unsupported content types", func() {
			status, _, _ := do("POST", "/graphql", "text/plain", `{ posts { id } }`)
			Expect(status).Should(Equal(http.StatusBadRequest))
		})

		It("limits the body size", func() {
			status, _, _ := do("POST", "/graphql", "application/graphql",
				"{ posts { id } }"+strings.Repeat(" ", 2048))
			Expect(status).Should(Equal(http.StatusRequestEntityTooLarge))
		})
	})

	Describe("actions", func() {
		It("passes route parameters", func() {
			status, _, body := do("GET", "/posts/7", "", "")
			Expect(status).Should(Equal(http.StatusOK))
			Expect(body).Should(MatchJSON(`{"id":"7","title":"Post 7"}`))
		})

		It("merges the body and hands headers to context resolvers", func() {
			status, _, body := do("POST", "/posts", "application/json", `{"title":"Hello"}`)
			Expect(status).Should(Equal(http.StatusOK))
			Expect(body).Should(MatchJSON(`{"id":"3","title":"Hello","author":"alice"}`))
		})

		It("answers no content when the handler returns nothing", func() {
			status, _, body := do("DELETE", "/posts/9", "", "")
			Expect(status).Should(Equal(http.StatusNoContent))
			Expect(body).Should(BeEmpty())
			Expect(deleted).Should(Equal([]string{"9"}))
		})

		It("rejects undeclared routes", func() {
			status, _, _ := do("PUT", "/posts/9", "application/json", `{}`)
			Expect(status).Should(Equal(http.StatusMethodNotAllowed))

			status, _, _ = do("GET", "/authors/9", "", "")
			Expect(status).Should(Equal(http.StatusNotFound))
		})

		It("rejects malformed bodies", func() {
			status, _, _ := do("POST", "/posts", "application/json", `{"title":`)
			Expect(status).Should(Equal(http.StatusBadRequest))
		})

		It("reports handler failures", func() {
			getPost = func(ctx context.Context, p registry.Params) (interface{}, error) {
				return nil, errors.New("database is down")
			}
			status, _, body := do("GET", "/posts/7", "", "")
			Expect(status).Should(Equal(http.StatusInternalServerError))
			Expect(body).Should(ContainSubstring(`"message":"database is down"`))
		})

		Context("with validators", func() {
			BeforeEach(func() {
				validators := validation.NewSet()
				Expect(validators.Register("PostInput", validation.Validator{
					Projection: validation.Projection{
						"title": {MinLength: validation.Int(3)},
					},
				})).Should(Succeed())
				config.Validators = validators
			})

			It("answers 400 on invalid input", func() {
				status, _, body := do("POST", "/posts", "application/json", `{"title":"a"}`)
				Expect(status).Should(Equal(http.StatusBadRequest))
				Expect(body).Should(ContainSubstring(`"path":["input","title"]`))
			})
		})

		Context("with a rate limiter", func() {
			BeforeEach(func() {
				limiter, err := ratelimit.NewTokenBucket(ratelimit.TokenBucketConfig{Rate: 0.001, Burst: 1})
				Expect(err).ShouldNot(HaveOccurred())
				config.Limiter = limiter
			})

			It("answers 429 with Retry-After", func() {
				status, _, _ := do("GET", "/posts/1", "", "")
				Expect(status).Should(Equal(http.StatusOK))

				status, header, _ := do("GET", "/posts/1", "", "")
				Expect(status).Should(Equal(http.StatusTooManyRequests))
				Expect(header.Get("Retry-After")).ShouldNot(BeEmpty())
			})
		})
	})
})

var _ = Describe("New", func() {
	It("requires an executor", func() {
		_, err := handler.New(nil)
		Expect(err).Should(HaveOccurred())
	})
})
