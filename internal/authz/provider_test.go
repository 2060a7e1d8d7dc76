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

package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logward/logward/internal/capability"
	"github.com/logward/logward/internal/grn"
)

// TestPurpose: Validates the provider boundary: username-addressed
// resolution matches GRN-addressed resolution, and authentication attempts
// are always answered with "no identity here".
// Scope: Unit Test
// Expected: Identical permission sets via both addressing modes;
// Authenticate returns ErrNoIdentity.
func TestProvider(t *testing.T) {
	resolver := newTestResolver(t,
		testGrant("grn::::user:alice", capability.View, "grn::::stream:s1"),
	)
	provider := NewProvider(resolver, grn.NewRegistry())
	ctx := context.Background()

	byGRN, err := provider.Permissions(ctx, grn.MustParse("grn::::user:alice"))
	require.NoError(t, err)

	byName, err := provider.PermissionsForUsername(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, byGRN, byName)
	assert.NotEmpty(t, byGRN)

	assert.ErrorIs(t, provider.Authenticate(ctx, "password"), ErrNoIdentity)
}

// TestPurpose: Validates the sessionless owner checker: flat permission
// checks against the owner's resolved set and ownership checks against the
// exact target, all failing closed on bad input.
// Scope: Unit Test
// Expected: Held permissions answer true; empty arguments, foreign targets
// and malformed GRNs answer false.
func TestOwnerChecker(t *testing.T) {
	resolver := newTestResolver(t,
		testGrant("grn::::user:alice", capability.Own, "grn::::stream:s1"),
	)
	checker := NewOwnerChecker(resolver, grn.MustParse("grn::::user:alice"))
	ctx := context.Background()

	assert.True(t, checker.IsPermitted(ctx, "streams:read", "s1"))
	assert.True(t, checker.IsPermitted(ctx, "streams:edit", "s1"))
	assert.False(t, checker.IsPermitted(ctx, "streams:read", "s2"))
	assert.False(t, checker.IsPermitted(ctx, "", "s1"))
	assert.False(t, checker.IsPermitted(ctx, "streams:read", ""))

	assert.True(t, checker.IsOwner(ctx, "grn::::stream:s1"))
	assert.False(t, checker.IsOwner(ctx, "grn::::stream:s2"))
	assert.False(t, checker.IsOwner(ctx, "not-a-grn"))
}
