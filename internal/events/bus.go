// Copyright 2026 The Logward Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package events carries the in-process event contracts of the
// authorization core: the inbound principal-deleted feed that triggers grant
// cleanup and the outbound grants-changed notifications consumed by
// downstream caches.
package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/logward/logward/internal/grn"
	"github.com/logward/logward/internal/observability/logger"
)

// PrincipalDeleted is published when a principal has been removed from the
// installation. Consumed by the grant collector.
type PrincipalDeleted struct {
	Principal grn.GRN
}

// GrantsChanged is published whenever grants are created, updated or
// deleted. GrantIDs carries the affected grant ids for cache invalidation.
type GrantsChanged struct {
	GrantIDs []string
}

// Handler consumes a published event. Handlers run on the publisher's
// dispatch goroutine and must not block indefinitely.
type Handler func(ctx context.Context, event any)

// Bus is a minimal in-process publish/subscribe bus. Delivery is
// asynchronous with respect to the publisher: each Publish dispatches on its
// own goroutine so grant mutations never block on slow consumers.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	wg       sync.WaitGroup
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all subsequently published events.
func (b *Bus) Subscribe(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish delivers the event to every subscribed handler asynchronously.
func (b *Bus) Publish(ctx context.Context, event any) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(ctx, "event handler panicked",
					logger.Component("events"), slog.Any("panic", r))
			}
		}()
		for _, handler := range handlers {
			handler(ctx, event)
		}
	}()
}

// Wait blocks until all events published so far have been delivered. Used by
// shutdown paths and tests.
func (b *Bus) Wait() {
	b.wg.Wait()
}
