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

package events_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/logward/logward/internal/events"
	"github.com/logward/logward/internal/grn"
)

// TestPurpose: Validates that published events reach every subscriber and
// that Wait observes complete delivery.
// Scope: Unit Test
// Expected: Both subscribers see both events after Wait returns.
func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := events.NewBus()

	var mu sync.Mutex
	var first, second []any

	bus.Subscribe(func(ctx context.Context, event any) {
		mu.Lock()
		defer mu.Unlock()
		first = append(first, event)
	})
	bus.Subscribe(func(ctx context.Context, event any) {
		mu.Lock()
		defer mu.Unlock()
		second = append(second, event)
	})

	ctx := context.Background()
	bus.Publish(ctx, events.PrincipalDeleted{Principal: grn.MustParse("grn::::user:carol")})
	bus.Publish(ctx, events.GrantsChanged{GrantIDs: []string{"g1", "g2"}})
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, first, 2)
	assert.Len(t, second, 2)
}

// TestPurpose: Validates that a panicking handler does not take down the
// dispatcher or the publisher.
// Scope: Unit Test
// Expected: Publish returns normally and Wait completes.
func TestBus_HandlerPanicIsContained(t *testing.T) {
	bus := events.NewBus()
	bus.Subscribe(func(ctx context.Context, event any) {
		panic("boom")
	})

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), events.GrantsChanged{GrantIDs: []string{"g1"}})
		bus.Wait()
	})
}
