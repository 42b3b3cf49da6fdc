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

package dataloader

import (
	"context"
	"fmt"
)

// batchLoadJob performs a batch load to fetch data required by a list of tasks.
type batchLoadJob struct {
	loader BatchLoader

	// Tasks processed by this job stored in a linked list
	tasks TaskList
}

func (job *batchLoadJob) Run(ctx context.Context) {
	tasks := &job.tasks

	defer func() {
		if r := recover(); r != nil {
			job.failIncomplete(fmt.Errorf("batch loader %T panicked: %v", job.loader, r))
		}
	}()

	// Call BatchLoader to load data.
	job.loader.Load(ctx, tasks)

	// Make sure that all tasks were completed. If not, complete it with an error.
	for taskIter, taskEnd := tasks.Begin(), tasks.End(); taskIter != taskEnd; taskIter = taskIter.Next() {
		if !taskIter.Completed() {
			taskIter.SetError(fmt.Errorf("%T must complete every given data loading task with either a "+
				"value or an error but it doesn't complete task that loads data at key %v",
				job.loader, taskIter.Key()))
		}
	}
}

func (job *batchLoadJob) failIncomplete(err error) {
	tasks := &job.tasks
	for taskIter, taskEnd := tasks.Begin(), tasks.End(); taskIter != taskEnd; taskIter = taskIter.Next() {
		if !taskIter.Completed() {
			taskIter.SetError(err)
		}
	}
}
