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

package main

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

const blog = `
models:
  Post:
    fields:
      id: string
      title: string
inputs:
  PostInput:
    fields:
      title: string
queries:
  posts: Post[]
mutations:
  postSave:
    input: PostInput
    returns: Post
actions:
  "GET /posts/:id":
    args:
      id: string
    returns: Post | null
  "POST /posts":
    input: PostInput
    returns: Post
`

var _ = Describe("typegraph", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "typegraph-cmd")
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

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	It("checks declarations", func() {
		out, err := run("check", write("blog.yaml", blog))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(out).Should(Equal("ok: 1 models, 1 inputs, 1 queries, 1 mutations, 0 subscriptions, 2 actions\n"))
	})

	It("reports every problem", func() {
		_, err := run("check", write("bad.yaml", `
queries:
  posts: Post[]
  authors: Author[]
`))
		Expect(err).Should(HaveOccurred())

		var out bytes.Buffer
		printError(&out, err)
		Expect(out.String()).Should(ContainSubstring("unknown model reference"))
		Expect(out.String()).Should(ContainSubstring("bad.yaml:"))
		Expect(out.String()).Should(HaveSuffix("2 error(s)\n"))
	})

	It("prints the schema", func() {
		out, err := run("schema", write("blog.yaml", blog))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(out).Should(ContainSubstring("type Post {"))
		Expect(out).Should(ContainSubstring("postSave(title: String!): Post!"))
	})

	It("writes the schema to a file", func() {
		path := filepath.Join(dir, "schema.graphql")
		_, err := run("schema", "--out", path, write("blog.yaml", blog))
		Expect(err).ShouldNot(HaveOccurred())

		sdl, err := os.ReadFile(path)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(string(sdl)).Should(ContainSubstring("type Query {"))
	})

	It("lists action routes", func() {
		out, err := run("routes", write("blog.yaml", blog))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(out).Should(MatchRegexp(`METHOD\s+PATH\s+INPUT\s+RETURNS`))
		Expect(out).Should(MatchRegexp(`GET\s+/posts/\{id\}\s+\{\.\.\.\}\s+Post \| null`))
		Expect(out).Should(MatchRegexp(`POST\s+/posts\s+PostInput\s+Post`))
	})

	It("reads declaration files from the configuration", func() {
		path := write("blog.yaml", blog)
		config := write("typegraph.yaml", "declarations:\n  - "+path+"\n")

		out, err := run("check", "--config", config)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(out).Should(HavePrefix("ok: 1 models"))
	})

	It("requires declaration files", func() {
		_, err := run("check", "--config", write("typegraph.yaml", "log:\n  level: info\n"))
		Expect(err).Should(MatchError("no declaration files given"))
	})
})
