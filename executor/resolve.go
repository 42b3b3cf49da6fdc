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

package executor

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/botobag/typegraph/dataloader"
	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/metadata"
	"github.com/botobag/typegraph/registry"
	"github.com/botobag/typegraph/schema"
)

// fieldJob resolves one field of one parent. Its value is written to a slot reserved in the result
// object of the parent.
type fieldJob struct {
	object    *schema.Object
	field     *schema.Field
	selection []*Selection
	args      map[string]interface{}
	parent    interface{}
	path      gqlerrors.ResponsePath

	target *ResultObject
	index  int

	// resolved is set when value is known before the depth of the job is resolved.
	resolved bool
	task     *dataloader.Task
	value    interface{}
	err      error
}

func (x *execution) params(job *fieldJob) registry.Params {
	params := registry.Params{
		Args:    job.args,
		Context: x.context,
		Path:    job.path,
		Request: x.info,
	}
	if op := job.field.Operation; op != nil && job.object.Root {
		if x.spreadsInput(op) {
			params.Input = job.args
		} else {
			params.Input = job.args[schema.InputArgumentName]
		}
	}
	return params
}

// resolveRoot resolves the selection of a root object and everything below it. It returns false if
// a root resolver failed.
func (x *execution) resolveRoot(ctx context.Context, root *schema.Object) (*ResultObject, bool) {
	var jobs []*fieldJob
	data := x.collectJobs(root, x.request.Selection, nil, gqlerrors.ResponsePath{}, &jobs)

	if root.Kind == metadata.OperationMutation {
		for _, job := range jobs {
			if err := x.resolveLevel(ctx, []*fieldJob{job}); err != nil {
				return nil, false
			}
			// Later mutations do not run once one has failed.
			if job.err != nil {
				break
			}
		}
	} else if err := x.resolveLevel(ctx, jobs); err != nil {
		return nil, false
	}

	ok := true
	for _, job := range jobs {
		if job.err != nil {
			x.resolverFailed(ctx, job, true)
			ok = false
		}
	}
	if !ok {
		return nil, false
	}

	var next []*fieldJob
	for _, job := range jobs {
		x.completeField(job, &next)
	}
	if !x.resolveDepths(ctx, next) {
		return nil, false
	}
	data.compact()
	return data, true
}

// resolveDepths resolves jobs and the jobs they spawn, one depth at a time. It returns false if ctx
// is done before every depth is resolved.
func (x *execution) resolveDepths(ctx context.Context, jobs []*fieldJob) bool {
	for len(jobs) > 0 {
		if err := x.resolveLevel(ctx, jobs); err != nil {
			return false
		}
		var next []*fieldJob
		for _, job := range jobs {
			if job.err != nil {
				x.resolverFailed(ctx, job, false)
			}
			x.completeField(job, &next)
		}
		jobs = next
	}
	return true
}

// resolveLevel runs the resolvers of jobs. Resolvers bound to fields run concurrently. Batched
// resolvers are coalesced per field and arguments into one DataLoader which is dispatched once
// every job has been enqueued. It returns an error only if ctx is done first.
func (x *execution) resolveLevel(ctx context.Context, jobs []*fieldJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		g       errgroup.Group
		loaders dataloader.Manager
	)
	if limit := x.executor.config.MaxConcurrency; limit > 0 {
		g.SetLimit(limit)
	}

	for _, job := range jobs {
		if job.resolved {
			continue
		}
		job := job

		if !job.object.Root {
			if value, ok := explicitValue(job.parent, job.field.Name); ok {
				job.value = value
				continue
			}
		}

		switch resolver := job.field.Resolve.(type) {
		case *registry.OperationResolver:
			params := x.params(job)
			g.Go(func() error {
				job.value, job.err = safely(func() (interface{}, error) {
					return resolver.Resolve(ctx, params)
				}, `resolver of %s "%s"`, job.object.Kind, job.field.Name)
				return nil
			})

		case *registry.FieldResolver:
			params := x.params(job)
			g.Go(func() error {
				job.value, job.err = safely(func() (interface{}, error) {
					return resolver.Resolve(ctx, job.parent, params)
				}, `resolver of "%s.%s"`, resolver.Model, resolver.Field)
				return nil
			})

		case *registry.BatchResolver:
			loader, err := loaders.GetOrCreate(x.loaderInfo(resolver, job))
			if err == nil {
				job.task, err = loader.Load(job.parent)
			}
			if err != nil {
				job.err = err
			}

		default:
			if job.object.Root {
				job.err = gqlerrors.NewError(
					fmt.Sprintf(`%s "%s" has no resolver`, job.object.Kind, job.field.Name),
					gqlerrors.Op("executor.Execute"),
					gqlerrors.ErrKindResolver)
				continue
			}
			job.value, job.err = x.executor.resolver.Resolve(ctx, job.object.Name, job.field.Name, job.parent)
		}
	}

	done := make(chan struct{})
	go func() {
		loaders.DispatchAll(ctx)
		g.Wait()
		close(done)
	}()

	// In-flight resolvers are abandoned when ctx is done.
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	for _, job := range jobs {
		if job.task != nil {
			job.value, job.err = job.task.Wait(ctx)
		}
	}
	return nil
}

// explicitValue returns the value a map parent carries for field. Bound resolvers of the field are
// skipped when it is present and not nil. Struct parents never carry one.
func explicitValue(parent interface{}, field string) (interface{}, bool) {
	m, ok := parent.(map[string]interface{})
	if !ok {
		return nil, false
	}
	value, exists := m[field]
	return value, exists && value != nil
}

// loaderInfo identifies the loader of a batched field by the field and its arguments.
func (x *execution) loaderInfo(resolver *registry.BatchResolver, job *fieldJob) *dataloader.RegisterInfo {
	key := resolver.Key()
	if len(job.args) > 0 {
		// Map keys are sorted so equal arguments yield equal keys.
		args, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalToString(job.args)
		if err != nil {
			args = fmt.Sprintf("%p", job.selection[0])
		}
		key += args
	}

	params := x.params(job)
	return &dataloader.RegisterInfo{
		Key: key,
		Factory: dataloader.FactoryFunc(func() (*dataloader.DataLoader, error) {
			return dataloader.New(dataloader.Config{
				BatchLoader: dataloader.SliceLoadFunc(func(ctx context.Context, keys []dataloader.Key) ([]interface{}, error) {
					parents := make([]interface{}, len(keys))
					for i, key := range keys {
						parents[i] = key
					}
					x.logger.Debug("load batch",
						zap.String("field", resolver.Key()),
						zap.Int("size", len(keys)))
					var values []interface{}
					_, err := safely(func() (interface{}, error) {
						var err error
						values, err = resolver.Resolve(ctx, parents, params)
						return nil, err
					}, `batch resolver of "%s"`, resolver.Key())
					return values, err
				}),
				MaxBatchSize: x.executor.config.MaxBatchSize,
			})
		}),
	}
}

// resolverFailed records the failure of a job and notifies the error handler.
func (x *execution) resolverFailed(ctx context.Context, job *fieldJob, root bool) {
	x.emplaceError(messageOf(job.err),
		gqlerrors.Op("executor.Execute"),
		gqlerrors.ErrKindResolver,
		job.path,
		job.err)

	operation := x.info.Operation
	if keys := job.path.Keys(); len(keys) > 0 {
		if name, ok := keys[0].(string); ok {
			operation = name
		}
	}
	x.executor.config.ErrorHandler.HandleResolverError(ctx, &ResolverErrorEvent{
		RequestID: x.info.ID,
		Kind:      x.info.Kind,
		Operation: operation,
		Path:      job.path,
		Root:      root,
		Err:       job.err,
	})
}
