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

package dataloader_test

import (
	"context"
	"errors"
	"sync"

	"github.com/botobag/typegraph/dataloader"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type batchLoadLogger struct {
	// mutex that guards loadCalls
	loadCallsMutex sync.Mutex

	// keys that have been sent to identityLoader to load data
	loadCalls [][]dataloader.Key
}

func (logger *batchLoadLogger) LoadCalls() [][]dataloader.Key {
	mutex := &logger.loadCallsMutex
	mutex.Lock()
	defer mutex.Unlock()
	return logger.loadCalls
}

func (logger *batchLoadLogger) LogKeys(tasks *dataloader.TaskList) {
	keys := tasks.Keys()

	logger.loadCallsMutex.Lock()
	logger.loadCalls = append(logger.loadCalls, keys)
	logger.loadCallsMutex.Unlock()
}

// identityBatchLoader implements dataloader.BatchLoader which simply returns key as the loaded
// value. It also logs the batch load keys that sent to the loader.
type identityBatchLoader struct {
	logger batchLoadLogger
}

func (loader *identityBatchLoader) Load(ctx context.Context, tasks *dataloader.TaskList) {
	for taskIter, taskEnd := tasks.Begin(), tasks.End(); taskIter != taskEnd; taskIter = taskIter.Next() {
		task := taskIter.Task
		task.Complete(task.Key())
	}
	loader.logger.LogKeys(tasks)
}

func newIdentityLoader(config dataloader.Config) (*dataloader.DataLoader, *identityBatchLoader) {
	batchLoader := &identityBatchLoader{}
	config.BatchLoader = batchLoader
	loader, err := dataloader.New(config)
	Expect(err).ShouldNot(HaveOccurred())
	return loader, batchLoader
}

func wait(task *dataloader.Task) interface{} {
	value, err := task.Wait(context.Background())
	Expect(err).ShouldNot(HaveOccurred())
	return value
}

var _ = Describe("DataLoader", func() {
	It("requires a batch loader", func() {
		_, err := dataloader.New(dataloader.Config{})
		Expect(err).Should(HaveOccurred())
	})

	It("rejects nil keys", func() {
		loader, _ := newIdentityLoader(dataloader.Config{})
		_, err := loader.Load(nil)
		Expect(err).Should(HaveOccurred())
	})

	It("batches loads enqueued before dispatch", func() {
		loader, batchLoader := newIdentityLoader(dataloader.Config{})

		tasks, err := loader.LoadMany(1, 2, 3)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(loader.Pending()).Should(BeTrue())
		Expect(tasks[0].Completed()).Should(BeFalse())

		loader.Dispatch(context.Background())
		Expect(loader.Pending()).Should(BeFalse())

		Expect(wait(tasks[0])).Should(Equal(1))
		Expect(wait(tasks[1])).Should(Equal(2))
		Expect(wait(tasks[2])).Should(Equal(3))
		Expect(batchLoader.logger.LoadCalls()).Should(Equal([][]dataloader.Key{{1, 2, 3}}))
	})

	It("opens a new window after dispatch", func() {
		loader, batchLoader := newIdentityLoader(dataloader.Config{})

		a, _ := loader.Load("A")
		loader.Dispatch(context.Background())
		b, _ := loader.Load("B")
		loader.Dispatch(context.Background())

		Expect(wait(a)).Should(Equal("A"))
		Expect(wait(b)).Should(Equal("B"))
		Expect(batchLoader.logger.LoadCalls()).Should(Equal([][]dataloader.Key{{"A"}, {"B"}}))
	})

	It("does not call the batch loader for an empty queue", func() {
		loader, batchLoader := newIdentityLoader(dataloader.Config{})
		loader.Dispatch(context.Background())
		Expect(batchLoader.logger.LoadCalls()).Should(BeEmpty())
	})

	It("splits batches by MaxBatchSize", func() {
		loader, batchLoader := newIdentityLoader(dataloader.Config{
			MaxBatchSize: 2,
		})

		tasks, err := loader.LoadMany(1, 2, 3, 4, 5)
		Expect(err).ShouldNot(HaveOccurred())
		loader.Dispatch(context.Background())

		for i, task := range tasks {
			Expect(wait(task)).Should(Equal(i + 1))
		}
		// Batches run concurrently so the log order is not fixed.
		Expect(batchLoader.logger.LoadCalls()).Should(ConsistOf(
			[]dataloader.Key{1, 2},
			[]dataloader.Key{3, 4},
			[]dataloader.Key{5},
		))
	})

	It("fails tasks the batch loader leaves incomplete", func() {
		loader, err := dataloader.New(dataloader.Config{
			BatchLoader: dataloader.BatchLoadFunc(func(ctx context.Context, tasks *dataloader.TaskList) {
				tasks.Begin().Complete("first")
			}),
		})
		Expect(err).ShouldNot(HaveOccurred())

		tasks, _ := loader.LoadMany("a", "b")
		loader.Dispatch(context.Background())

		Expect(wait(tasks[0])).Should(Equal("first"))
		_, err = tasks[1].Wait(context.Background())
		Expect(err).Should(MatchError(ContainSubstring("doesn't complete task that loads data at key b")))
	})

	It("fails the batch when the batch loader panics", func() {
		loader, err := dataloader.New(dataloader.Config{
			BatchLoader: dataloader.BatchLoadFunc(func(ctx context.Context, tasks *dataloader.TaskList) {
				panic("boom")
			}),
		})
		Expect(err).ShouldNot(HaveOccurred())

		task, _ := loader.Load("a")
		loader.Dispatch(context.Background())

		_, err = task.Wait(context.Background())
		Expect(err).Should(MatchError(ContainSubstring("panicked: boom")))
	})

	It("stops waiting when the context is done", func() {
		loader, _ := newIdentityLoader(dataloader.Config{})
		task, _ := loader.Load("a")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := task.Wait(ctx)
		Expect(err).Should(MatchError(context.Canceled))
	})
})

var _ = Describe("Task", func() {
	It("completes only once", func() {
		loader, err := dataloader.New(dataloader.Config{
			BatchLoader: dataloader.BatchLoadFunc(func(ctx context.Context, tasks *dataloader.TaskList) {
				task := tasks.Begin().Task
				Expect(task.Complete(1)).Should(Succeed())
				Expect(task.Complete(2)).ShouldNot(Succeed())
				Expect(task.SetError(errors.New("late"))).ShouldNot(Succeed())
			}),
		})
		Expect(err).ShouldNot(HaveOccurred())

		task, _ := loader.Load("k")
		loader.Dispatch(context.Background())
		Expect(wait(task)).Should(Equal(1))
		Expect(task.Completed()).Should(BeTrue())
	})
})

var _ = Describe("SliceLoadFunc", func() {
	It("answers keys in order", func() {
		var calls int
		loader, err := dataloader.New(dataloader.Config{
			BatchLoader: dataloader.SliceLoadFunc(func(ctx context.Context, keys []dataloader.Key) ([]interface{}, error) {
				calls++
				values := make([]interface{}, len(keys))
				for i, key := range keys {
					values[i] = key.(int) * 10
				}
				return values, nil
			}),
		})
		Expect(err).ShouldNot(HaveOccurred())

		tasks, _ := loader.LoadMany(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
		loader.Dispatch(context.Background())

		Expect(calls).Should(Equal(1))
		for i, task := range tasks {
			Expect(wait(task)).Should(Equal((i + 1) * 10))
		}
	})

	It("fails every key when the result length does not match", func() {
		loader, err := dataloader.New(dataloader.Config{
			BatchLoader: dataloader.SliceLoadFunc(func(ctx context.Context, keys []dataloader.Key) ([]interface{}, error) {
				return []interface{}{"only one"}, nil
			}),
		})
		Expect(err).ShouldNot(HaveOccurred())

		tasks, _ := loader.LoadMany("a", "b")
		loader.Dispatch(context.Background())

		for _, task := range tasks {
			_, err := task.Wait(context.Background())
			Expect(err).Should(MatchError("batch loader returned 1 values for 2 keys"))
		}
	})

	It("fails every key with the loader error", func() {
		loadErr := errors.New("backend down")
		loader, err := dataloader.New(dataloader.Config{
			BatchLoader: dataloader.SliceLoadFunc(func(ctx context.Context, keys []dataloader.Key) ([]interface{}, error) {
				return nil, loadErr
			}),
		})
		Expect(err).ShouldNot(HaveOccurred())

		task, _ := loader.Load("a")
		loader.Dispatch(context.Background())
		_, err = task.Wait(context.Background())
		Expect(err).Should(MatchError(loadErr))
	})
})
