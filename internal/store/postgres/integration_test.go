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

//go:build integration
// +build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logward/logward/internal/capability"
	"github.com/logward/logward/internal/grant"
	"github.com/logward/logward/internal/grn"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	cfg := Config{
		Host:         "localhost",
		Port:         "5432",
		User:         "logward",
		Password:     "logward_dev_password",
		Database:     "logward",
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 5,
	}

	db, err := New(ctx, cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to database: %v", err)
	}
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx, InitialSchema))
	return db
}

func newStoredGrant(grantee, target string, c capability.Capability) *grant.Grant {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &grant.Grant{
		ID:         uuid.NewString(),
		Grantee:    grn.MustParse(grantee),
		Capability: c,
		Target:     grn.MustParse(target),
		CreatedBy:  "grn::::user:admin",
		CreatedAt:  now,
		UpdatedBy:  "grn::::user:admin",
		UpdatedAt:  now,
	}
}

// TestPurpose: Validates the grant repository round trip and the indexed
// lookup paths against a real database.
// Scope: Database Integration Test
// Expected: Stored grants come back field-for-field; grantee and target
// lookups return exactly the matching rows.
func TestGrantRepository_RoundTrip(t *testing.T) {
	db := testDB(t)
	repo := NewGrantRepository(db)
	ctx := context.Background()

	jane := "grn::::user:" + uuid.NewString()
	stream := "grn::::stream:" + uuid.NewString()

	g := newStoredGrant(jane, stream, capability.View)
	require.NoError(t, repo.Create(ctx, g))

	stored, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.Grantee, stored.Grantee)
	assert.Equal(t, g.Capability, stored.Capability)
	assert.Equal(t, g.Target, stored.Target)
	assert.Equal(t, g.CreatedBy, stored.CreatedBy)
	assert.Nil(t, stored.ExpiresAt)

	byTarget, err := repo.ForTarget(ctx, grn.MustParse(stream))
	require.NoError(t, err)
	require.Len(t, byTarget, 1)
	assert.Equal(t, g.ID, byTarget[0].ID)

	require.NoError(t, repo.Delete(ctx, g.ID))
	_, err = repo.GetByID(ctx, g.ID)
	assert.ErrorIs(t, err, grant.ErrGrantNotFound)
}

// TestPurpose: Validates that the grantee-or-global query includes the
// everyone sentinel's grants alongside the principal's own.
// Scope: Database Integration Test
// Expected: Both the direct grant and the global grant are returned for the
// principal; an unrelated principal sees only the global one.
func TestGrantRepository_ForGranteesOrGlobal(t *testing.T) {
	db := testDB(t)
	repo := NewGrantRepository(db)
	ctx := context.Background()

	jane := "grn::::user:" + uuid.NewString()
	stream := "grn::::stream:" + uuid.NewString()
	dashboard := "grn::::dashboard:" + uuid.NewString()

	direct := newStoredGrant(jane, stream, capability.View)
	require.NoError(t, repo.Create(ctx, direct))

	global := newStoredGrant(grn.GlobalGrantee.String(), dashboard, capability.View)
	require.NoError(t, repo.Create(ctx, global))
	t.Cleanup(func() { repo.Delete(ctx, global.ID) })

	grants, err := repo.ForGranteesOrGlobal(ctx, []grn.GRN{grn.MustParse(jane)})
	require.NoError(t, err)

	ids := make([]string, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.ID)
	}
	assert.Contains(t, ids, direct.ID)
	assert.Contains(t, ids, global.ID)

	other, err := repo.ForGranteesOrGlobal(ctx, []grn.GRN{grn.MustParse("grn::::user:" + uuid.NewString())})
	require.NoError(t, err)
	otherIDs := make([]string, 0, len(other))
	for _, g := range other {
		otherIDs = append(otherIDs, g.ID)
	}
	assert.NotContains(t, otherIDs, direct.ID)
	assert.Contains(t, otherIDs, global.ID)
}

// TestPurpose: Validates the grantee-scoped listing against a real
// database.
// Scope: Database Integration Test
// Expected: Exactly the grantee's grants are returned, across targets.
func TestGrantRepository_ForGrantee(t *testing.T) {
	db := testDB(t)
	repo := NewGrantRepository(db)
	ctx := context.Background()

	jane := "grn::::user:" + uuid.NewString()
	john := "grn::::user:" + uuid.NewString()
	stream := "grn::::stream:" + uuid.NewString()
	dashboard := "grn::::dashboard:" + uuid.NewString()

	g1 := newStoredGrant(jane, stream, capability.View)
	g2 := newStoredGrant(jane, dashboard, capability.Own)
	g3 := newStoredGrant(john, stream, capability.Manage)
	for _, g := range []*grant.Grant{g1, g2, g3} {
		require.NoError(t, repo.Create(ctx, g))
		t.Cleanup(func() { repo.Delete(ctx, g.ID) })
	}

	grants, err := repo.ForGrantee(ctx, grn.MustParse(jane))
	require.NoError(t, err)

	ids := make([]string, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.ID)
	}
	assert.ElementsMatch(t, []string{g1.ID, g2.ID}, ids)
}

// TestPurpose: Validates bulk deletion by grantee, the collector's write
// path.
// Scope: Database Integration Test
// Expected: Every grant of the grantee is removed and its id returned;
// other grantees' grants survive.
func TestGrantRepository_DeleteByGrantee(t *testing.T) {
	db := testDB(t)
	repo := NewGrantRepository(db)
	ctx := context.Background()

	dave := "grn::::user:" + uuid.NewString()
	carol := "grn::::user:" + uuid.NewString()
	stream := "grn::::stream:" + uuid.NewString()
	dashboard := "grn::::dashboard:" + uuid.NewString()

	g1 := newStoredGrant(dave, stream, capability.View)
	g2 := newStoredGrant(dave, dashboard, capability.Own)
	g3 := newStoredGrant(carol, stream, capability.Manage)
	for _, g := range []*grant.Grant{g1, g2, g3} {
		require.NoError(t, repo.Create(ctx, g))
	}
	t.Cleanup(func() { repo.Delete(ctx, g3.ID) })

	ids, err := repo.DeleteByGrantee(ctx, grn.MustParse(dave))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{g1.ID, g2.ID}, ids)

	_, err = repo.GetByID(ctx, g1.ID)
	assert.ErrorIs(t, err, grant.ErrGrantNotFound)

	survivor, err := repo.GetByID(ctx, g3.ID)
	require.NoError(t, err)
	assert.Equal(t, g3.ID, survivor.ID)
}

// TestPurpose: Validates the one-grant-per-grantee-and-target constraint
// and expiry persistence.
// Scope: Database Integration Test
// Expected: A second grant for the same grantee and target fails; an expiry
// timestamp survives the round trip.
func TestGrantRepository_Constraints(t *testing.T) {
	db := testDB(t)
	repo := NewGrantRepository(db)
	ctx := context.Background()

	jane := "grn::::user:" + uuid.NewString()
	stream := "grn::::stream:" + uuid.NewString()

	expires := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	g := newStoredGrant(jane, stream, capability.View)
	g.ExpiresAt = &expires
	require.NoError(t, repo.Create(ctx, g))
	t.Cleanup(func() { repo.Delete(ctx, g.ID) })

	dup := newStoredGrant(jane, stream, capability.Manage)
	assert.Error(t, repo.Create(ctx, dup))

	stored, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ExpiresAt)
	assert.True(t, expires.Equal(*stored.ExpiresAt))
}
