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

package capability_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logward/logward/internal/capability"
	"github.com/logward/logward/internal/grn"
)

// TestPurpose: Validates capability ordering: View < Manage < Own with
// priorities 1, 2, 3.
// Scope: Unit Test
// Expected: Priorities are strictly increasing and Atleast follows them.
func TestCapability_Ordering(t *testing.T) {
	assert.Equal(t, 1, capability.View.Priority())
	assert.Equal(t, 2, capability.Manage.Priority())
	assert.Equal(t, 3, capability.Own.Priority())

	assert.True(t, capability.Own.Atleast(capability.View))
	assert.True(t, capability.Manage.Atleast(capability.View))
	assert.False(t, capability.View.Atleast(capability.Manage))
	assert.False(t, capability.Capability("bogus").Atleast(capability.View))
}

// TestPurpose: Validates parsing of persisted capability values.
// Scope: Unit Test
// Expected: The three known values parse; anything else is
// ErrUnknownCapability.
func TestCapability_Parse(t *testing.T) {
	for _, c := range capability.All() {
		parsed, err := capability.Parse(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	_, err := capability.Parse("unknown-cap")
	assert.True(t, errors.Is(err, capability.ErrUnknownCapability))
}

// TestPurpose: Validates inheritance monotonicity: for every resource type,
// permissions(View) is a subset of permissions(Manage) which is a subset of
// permissions(Own).
// Scope: Unit Test
// Expected: Each capability's set contains every lower capability's set.
func TestRegistry_InheritanceMonotonicity(t *testing.T) {
	grnRegistry := grn.NewRegistry()
	registry, err := capability.NewRegistry(grnRegistry, capability.BuiltinDeclarations())
	require.NoError(t, err)

	view, ok := registry.Descriptor(capability.View)
	require.True(t, ok)
	manage, ok := registry.Descriptor(capability.Manage)
	require.True(t, ok)
	own, ok := registry.Descriptor(capability.Own)
	require.True(t, ok)

	for _, resourceType := range grnRegistry.Types() {
		assert.Subset(t, manage.PermissionsFor(resourceType), view.PermissionsFor(resourceType),
			"manage must contain view for %s", resourceType)
		assert.Subset(t, own.PermissionsFor(resourceType), manage.PermissionsFor(resourceType),
			"own must contain manage for %s", resourceType)
	}
}

// TestPurpose: Validates universal ownership: entity:own is present at Own
// for every registered resource type, even ones no declaration mentions.
// Scope: Unit Test
// Expected: Every type's Own set contains entity:own; lower capabilities
// never do.
func TestRegistry_UniversalEntityOwn(t *testing.T) {
	grnRegistry := grn.NewRegistry("report") // no declaration mentions "report"
	registry, err := capability.NewRegistry(grnRegistry, capability.BuiltinDeclarations())
	require.NoError(t, err)

	own, _ := registry.Descriptor(capability.Own)
	view, _ := registry.Descriptor(capability.View)
	manage, _ := registry.Descriptor(capability.Manage)

	for _, resourceType := range grnRegistry.Types() {
		assert.Contains(t, own.PermissionsFor(resourceType), capability.EntityOwnPermission,
			"own must imply entity:own for %s", resourceType)
		assert.NotContains(t, view.PermissionsFor(resourceType), capability.EntityOwnPermission)
		assert.NotContains(t, manage.PermissionsFor(resourceType), capability.EntityOwnPermission)
	}
}

// TestPurpose: Validates that a permission can sit at different capability
// levels for different resource types.
// Scope: Unit Test
// Expected: The permission appears at View for one type and only at Manage
// for the other.
func TestRegistry_PerTypeCapabilityLevels(t *testing.T) {
	grnRegistry := grn.NewRegistry()
	declarations := []capability.Declaration{
		capability.Declare("archives:restore", map[string]capability.Capability{
			grn.TypeStream:    capability.Manage,
			grn.TypeDashboard: capability.View,
		}),
	}

	registry, err := capability.NewRegistry(grnRegistry, declarations)
	require.NoError(t, err)

	view, _ := registry.Descriptor(capability.View)
	assert.Contains(t, view.PermissionsFor(grn.TypeDashboard), "archives:restore")
	assert.NotContains(t, view.PermissionsFor(grn.TypeStream), "archives:restore")

	manage, _ := registry.Descriptor(capability.Manage)
	assert.Contains(t, manage.PermissionsFor(grn.TypeStream), "archives:restore")
}

// TestPurpose: Validates fail-fast registry construction on malformed
// declarations.
// Scope: Unit Test
// Expected: Duplicate names, unknown capabilities and unknown resource types
// abort construction at startup.
func TestRegistry_FailFastOnMalformedDeclarations(t *testing.T) {
	grnRegistry := grn.NewRegistry()

	tests := []struct {
		name         string
		declarations []capability.Declaration
		wantErr      error
	}{
		{
			name: "duplicate declaration",
			declarations: []capability.Declaration{
				capability.Declare("streams:read", map[string]capability.Capability{grn.TypeStream: capability.View}),
				capability.Declare("streams:read", map[string]capability.Capability{grn.TypeStream: capability.Manage}),
			},
			wantErr: capability.ErrDuplicateDeclaration,
		},
		{
			name: "unknown capability",
			declarations: []capability.Declaration{
				capability.Declare("streams:read", map[string]capability.Capability{grn.TypeStream: "superuser"}),
			},
			wantErr: capability.ErrUnknownCapability,
		},
		{
			name: "unknown resource type",
			declarations: []capability.Declaration{
				capability.Declare("widgets:read", map[string]capability.Capability{"widget": capability.View}),
			},
			wantErr: capability.ErrUnknownResourceType,
		},
		{
			name: "missing mapping",
			declarations: []capability.Declaration{
				capability.Declare("streams:read", nil),
			},
			wantErr: capability.ErrInvalidDeclaration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := capability.NewRegistry(grnRegistry, tt.declarations)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
		})
	}
}
