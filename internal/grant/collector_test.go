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

package grant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logward/logward/internal/audit"
	"github.com/logward/logward/internal/capability"
	"github.com/logward/logward/internal/events"
	"github.com/logward/logward/internal/grn"
)

type memDirectory struct {
	ids []string
}

func (d *memDirectory) ListIDs(ctx context.Context) ([]string, error) {
	return d.ids, nil
}

func seedGrant(t *testing.T, repo *memRepo, grantee, target string, c capability.Capability) *Grant {
	t.Helper()
	g := &Grant{
		ID:         grantee + "/" + target,
		Grantee:    grn.MustParse(grantee),
		Capability: c,
		Target:     grn.MustParse(target),
		CreatedBy:  "grn::::user:admin",
		CreatedAt:  time.Now(),
		UpdatedBy:  "grn::::user:admin",
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), g))
	return g
}

// TestPurpose: Validates the orphaned-grant sweep. Grants of principals
// still present in the directory survive; grants of vanished principals are
// removed; team-typed grantees and the global grantee are never touched.
// Scope: Unit Test
// Expected: Exactly the vanished users' grants are removed and a second
// sweep removes nothing.
func TestCollector_Sweep(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()

	// carol exists, dave and erin have been deleted
	seedGrant(t, repo, "grn::::user:carol", "grn::::stream:s1", capability.View)
	seedGrant(t, repo, "grn::::user:dave", "grn::::stream:s1", capability.Manage)
	seedGrant(t, repo, "grn::::user:dave", "grn::::dashboard:d1", capability.Own)
	seedGrant(t, repo, "grn::::user:erin", "grn::::search:q1", capability.View)
	seedGrant(t, repo, "grn::::team:ops", "grn::::stream:s1", capability.View)
	seedGrant(t, repo, "grn::::user:*", "grn::::dashboard:d1", capability.View)

	collector := NewCollector(repo, &memDirectory{ids: []string{"carol"}}, events.NewBus(), audit.NewSlogLogger(), nil)

	removed, err := collector.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	remaining, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 3)
	for _, g := range remaining {
		assert.Contains(t, []string{
			"grn::::user:carol",
			"grn::::team:ops",
			"grn::::user:*",
		}, g.Grantee.String())
	}

	// Idempotence: a second pass finds nothing to remove.
	removed, err = collector.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

// TestPurpose: Validates that grantees sharing an entity id but differing
// in cluster or tenant are swept independently within a single pass.
// Scope: Unit Test
// Expected: One sweep removes both scoped variants of a vanished principal;
// with the principal present, both variants survive.
func TestCollector_Sweep_ScopedGrantees(t *testing.T) {
	ctx := context.Background()

	repo := newMemRepo()
	seedGrant(t, repo, "grn:c1:t1:user:dave", "grn::::stream:s1", capability.View)
	seedGrant(t, repo, "grn:c1:t2:user:dave", "grn::::dashboard:d1", capability.Manage)

	collector := NewCollector(repo, &memDirectory{}, events.NewBus(), audit.NewSlogLogger(), nil)
	removed, err := collector.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	remaining, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	repo = newMemRepo()
	seedGrant(t, repo, "grn:c1:t1:user:dave", "grn::::stream:s1", capability.View)
	seedGrant(t, repo, "grn:c1:t2:user:dave", "grn::::dashboard:d1", capability.Manage)

	collector = NewCollector(repo, &memDirectory{ids: []string{"dave"}}, events.NewBus(), audit.NewSlogLogger(), nil)
	removed, err = collector.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	remaining, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

// TestPurpose: Validates that a sweep over a store without user-typed
// grantees is a no-op that never queries the directory result destructively.
// Scope: Unit Test
// Expected: Zero removals, store unchanged.
func TestCollector_Sweep_CleanStore(t *testing.T) {
	repo := newMemRepo()
	seedGrant(t, repo, "grn::::team:ops", "grn::::stream:s1", capability.View)

	collector := NewCollector(repo, &memDirectory{}, events.NewBus(), audit.NewSlogLogger(), nil)

	removed, err := collector.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)

	remaining, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

// TestPurpose: Validates the event wiring: a PrincipalDeleted event on the
// bus triggers a sweep.
// Scope: Unit Test
// Expected: The deleted principal's grants are gone after the bus drains.
func TestCollector_Register(t *testing.T) {
	repo := newMemRepo()
	bus := events.NewBus()
	seedGrant(t, repo, "grn::::user:dave", "grn::::stream:s1", capability.View)

	collector := NewCollector(repo, &memDirectory{}, bus, audit.NewSlogLogger(), nil)
	collector.Register(bus)

	bus.Publish(context.Background(), events.PrincipalDeleted{
		Principal: grn.MustParse("grn::::user:dave"),
	})
	bus.Wait()

	remaining, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
