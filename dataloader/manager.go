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
	"sync"

	"golang.org/x/sync/errgroup"
)

// Factory creates a DataLoader.
type Factory interface {
	Create() (*DataLoader, error)
}

// The FactoryFunc type is an adapter to allow the use of ordinary functions as Factory. If f is a
// function with the appropriate signature, FactoryFunc(f) is a Factory that calls f.
type FactoryFunc func() (*DataLoader, error)

// Create implements Factory by simply calling f()
func (f FactoryFunc) Create() (*DataLoader, error) {
	return f()
}

// RegisterInfo provides necessary information to register a DataLoader.
type RegisterInfo struct {
	// A string key that uniquely identifies the DataLoader registered in a Manager by this Info.
	Key string

	// Factory that creates DataLoader
	Factory Factory
}

// Manager provides a way to register and dispatch a collection of DataLoaders.
type Manager struct {
	mutex sync.Mutex

	// A map from RegisterInfo.Key to the created DataLoader instance
	loaders map[string]*DataLoader

	// Keys in registration order
	keys []string

	// Mutex that prevent multiple DispatchAll's to be executed concurrently.
	dispatchMutex sync.Mutex
}

// GetOrCreate creates and adds a new DataLoader if one does not already exist with the key given in
// info.Key.
func (manager *Manager) GetOrCreate(info *RegisterInfo) (*DataLoader, error) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	// Check whether the dataloader already exists.
	if loader, found := manager.loaders[info.Key]; found {
		return loader, nil
	}

	if info.Factory == nil {
		return nil, fmt.Errorf(`DataLoader factory for "%s" is not provided`, info.Key)
	}

	// Create a new one.
	loader, err := info.Factory.Create()
	if err != nil {
		return nil, err
	}

	// Reject nil loader.
	if loader == nil {
		return nil, fmt.Errorf(`DataLoader factory for "%s" returns a nil instance which is not `+
			`valid for registration`, info.Key)
	}

	if manager.loaders == nil {
		manager.loaders = map[string]*DataLoader{}
	}
	manager.loaders[info.Key] = loader
	manager.keys = append(manager.keys, info.Key)

	return loader, nil
}

// Len returns the number of registered DataLoaders.
func (manager *Manager) Len() int {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	return len(manager.keys)
}

// DispatchAll dispatches all registered DataLoaders concurrently and waits for every batch to
// complete.
func (manager *Manager) DispatchAll(ctx context.Context) {
	manager.dispatchMutex.Lock()
	defer manager.dispatchMutex.Unlock()

	manager.mutex.Lock()
	loaders := make([]*DataLoader, 0, len(manager.keys))
	for _, key := range manager.keys {
		loaders = append(loaders, manager.loaders[key])
	}
	manager.mutex.Unlock()

	var g errgroup.Group
	for _, loader := range loaders {
		loader := loader
		g.Go(func() error {
			loader.Dispatch(ctx)
			return nil
		})
	}
	g.Wait()
}
