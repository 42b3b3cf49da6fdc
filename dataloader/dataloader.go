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

// Package dataloader coalesces loads of individual keys into batches. Keys requested through Load
// are queued until Dispatch hands the whole queue to a BatchLoader, split into batches of at most
// Config.MaxBatchSize keys.
//
// A DataLoader does not cache loaded values. The executor creates loaders per request and
// dispatches them once per resolution depth, which makes one queue a batching window.
package dataloader

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Key is an unique identifier of a value loaded by a DataLoader.
type Key interface{}

// A DataLoader loads data from a data backend with unique keys such as the id column of a SQL
// table.
type DataLoader struct {
	config Config

	// Lock that guard accesses to queue
	queueMutex sync.Mutex

	// Pending tasks for data loading
	queue TaskList
}

var (
	errMissingBatchLoader = errors.New("batch loader is required to construct a DataLoader")
	errMissingKey         = errors.New("must specify key to identify data to be loaded")
)

// New creates a DataLoader instance from given config.
func New(config Config) (*DataLoader, error) {
	// Check config.
	if config.BatchLoader == nil {
		return nil, errMissingBatchLoader
	}

	return &DataLoader{
		config: config,
	}, nil
}

// BatchLoader returns loader.config.BatchLoader.
func (loader *DataLoader) BatchLoader() BatchLoader {
	return loader.config.BatchLoader
}

// Load enqueues a load of the data identified by the key. The returned Task completes after the
// queue is dispatched.
func (loader *DataLoader) Load(key Key) (*Task, error) {
	if key == nil {
		return nil, errMissingKey
	}

	task := newTask(key)

	loader.queueMutex.Lock()
	loader.queue.push(task)
	loader.queueMutex.Unlock()

	return task, nil
}

// LoadMany enqueues loads of multiple keys. Tasks are returned in the order of keys.
func (loader *DataLoader) LoadMany(keys ...Key) ([]*Task, error) {
	tasks := make([]*Task, 0, len(keys))
	for _, key := range keys {
		task, err := loader.Load(key)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Pending returns true if some tasks wait for dispatch.
func (loader *DataLoader) Pending() bool {
	loader.queueMutex.Lock()
	defer loader.queueMutex.Unlock()
	return !loader.queue.Empty()
}

// Dispatch runs jobs to load data specified by tasks in current queue as of the time this function
// is called and waits for them. Batches run concurrently. Tasks enqueued while dispatching wait for
// the next call.
func (loader *DataLoader) Dispatch(ctx context.Context) {
	// Detach the queue from the loader.
	loader.queueMutex.Lock()
	tasks := loader.queue
	loader.queue = TaskList{}
	loader.queueMutex.Unlock()

	if tasks.Empty() {
		return
	}

	var g errgroup.Group
	for _, batch := range loader.split(tasks) {
		job := &batchLoadJob{
			loader: loader.config.BatchLoader,
			tasks:  batch,
		}
		g.Go(func() error {
			job.Run(ctx)
			return nil
		})
	}
	g.Wait()
}

// split cuts tasks into sub-lists each of which has at most MaxBatchSize tasks.
func (loader *DataLoader) split(tasks TaskList) []TaskList {
	maxBatchSize := loader.config.MaxBatchSize
	if maxBatchSize == 0 {
		return []TaskList{tasks}
	}

	var (
		batches []TaskList
		// firstTask marks the first task of the sub-list in current batch.
		firstTask = tasks.first
		task      = firstTask
		counter   = maxBatchSize
	)

	for task != nil && task != tasks.last.next {
		nextTask := task.next

		counter--
		if counter == 0 {
			batches = append(batches, TaskList{
				first: firstTask,
				last:  task,
			})

			// Reset counter.
			counter = maxBatchSize
			// Next batch starts from nextTask.
			firstTask = nextTask
		}

		// Move to the next task.
		task = nextTask
	}

	// The last batch.
	if counter != maxBatchSize {
		batches = append(batches, TaskList{
			first: firstTask,
			last:  tasks.last,
		})
	}

	return batches
}
