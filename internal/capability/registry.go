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

package capability

import (
	"fmt"
	"sort"

	"github.com/logward/logward/internal/grn"
)

// Descriptor is the closed permission set a capability implies, already
// inheritance-expanded: the Manage set contains the View set, the Own set
// contains the Manage set plus the universal entity-own permission for every
// registered resource type.
type Descriptor struct {
	Capability  Capability
	Title       string
	Permissions map[string]map[string]struct{} // resource type -> permission names
}

// PermissionsFor returns the permission names active for a resource type at
// this capability, in stable order.
func (d Descriptor) PermissionsFor(resourceType string) []string {
	set, ok := d.Permissions[resourceType]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registry maps each capability to its descriptor. It is built exactly once
// at process startup, before any resolution is served, and is read-only
// afterwards; no lookup requires synchronization. It is passed by reference
// to consumers instead of living in package-level state.
type Registry struct {
	descriptors map[Capability]Descriptor
}

// NewRegistry builds the capability registry from all declared permissions.
// Malformed declarations fail here, at startup, never lazily: an empty or
// duplicate name, a capability outside the known order, or a resource type
// unknown to the GRN registry all abort construction.
func NewRegistry(grnRegistry *grn.Registry, declarations []Declaration) (*Registry, error) {
	viewMap := make(map[string]map[string]struct{})
	manageMap := make(map[string]map[string]struct{})
	ownMap := make(map[string]map[string]struct{})

	byLevel := map[Capability]map[string]map[string]struct{}{
		View:   viewMap,
		Manage: manageMap,
		Own:    ownMap,
	}

	seen := make(map[string]struct{})
	for _, decl := range declarations {
		if decl.Name == "" || len(decl.PerType) == 0 {
			return nil, fmt.Errorf("%w: %+v", ErrInvalidDeclaration, decl)
		}
		if _, dup := seen[decl.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateDeclaration, decl.Name)
		}
		seen[decl.Name] = struct{}{}

		for resourceType, c := range decl.PerType {
			if !grnRegistry.IsRegistered(resourceType) {
				return nil, fmt.Errorf("%w: %q in %q", ErrUnknownResourceType, resourceType, decl.Name)
			}
			level, ok := byLevel[c]
			if !ok {
				return nil, fmt.Errorf("%w: %q in %q", ErrUnknownCapability, c, decl.Name)
			}
			addPermission(level, resourceType, decl.Name)
		}
	}

	// Own implies entity ownership of every registered resource type,
	// independent of what any plugin declared.
	for _, resourceType := range grnRegistry.Types() {
		addPermission(ownMap, resourceType, EntityOwnPermission)
	}

	view := viewMap
	manage := union(viewMap, manageMap)
	own := union(manage, ownMap)

	return &Registry{descriptors: map[Capability]Descriptor{
		View:   {Capability: View, Title: View.Title(), Permissions: view},
		Manage: {Capability: Manage, Title: Manage.Title(), Permissions: manage},
		Own:    {Capability: Own, Title: Own.Title(), Permissions: own},
	}}, nil
}

// Descriptor looks up the descriptor for a capability. The boolean follows
// the comma-ok convention so resolution can skip grants carrying stale
// capability values without failing.
func (r *Registry) Descriptor(c Capability) (Descriptor, bool) {
	d, ok := r.descriptors[c]
	return d, ok
}

// Descriptors returns all descriptors in ascending capability order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.descriptors))
	for _, c := range All() {
		if d, ok := r.descriptors[c]; ok {
			out = append(out, d)
		}
	}
	return out
}

func addPermission(m map[string]map[string]struct{}, resourceType, name string) {
	set, ok := m[resourceType]
	if !ok {
		set = make(map[string]struct{})
		m[resourceType] = set
	}
	set[name] = struct{}{}
}

func union(maps ...map[string]map[string]struct{}) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{})
	for _, m := range maps {
		for resourceType, set := range m {
			for name := range set {
				addPermission(out, resourceType, name)
			}
		}
	}
	return out
}
