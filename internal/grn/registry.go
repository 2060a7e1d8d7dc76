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

package grn

import (
	"fmt"
	"sort"
)

// Builtin resource types.
const (
	TypeUser       = "user"
	TypeTeam       = "team"
	TypeStream     = "stream"
	TypeDashboard  = "dashboard"
	TypeSearch     = "search"
	TypeAlert      = "alert"
	TypeOutput     = "output"
	TypeCapability = "capability"
)

// GlobalGrantee is the sentinel grantee meaning "every authenticated
// principal". Grants with this grantee apply to any resolved principal.
var GlobalGrantee = GRN{typ: TypeUser, entity: "*"}

// Registry is the closed set of resource types known to a deployment. It is
// built once at startup and read-only afterwards; consumers receive it by
// reference instead of going through package-level state.
type Registry struct {
	types map[string]struct{}
}

// NewRegistry creates a registry containing the builtin resource types plus
// any additional plugin-contributed types.
func NewRegistry(additionalTypes ...string) *Registry {
	r := &Registry{types: make(map[string]struct{})}
	for _, t := range []string{
		TypeUser, TypeTeam, TypeStream, TypeDashboard,
		TypeSearch, TypeAlert, TypeOutput, TypeCapability,
		TypeSystem,
	} {
		r.types[t] = struct{}{}
	}
	for _, t := range additionalTypes {
		r.types[t] = struct{}{}
	}
	return r
}

// Types returns all registered resource types in stable order, the system
// sentinel excluded.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.types))
	for t := range r.types {
		if t == TypeSystem {
			continue
		}
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsRegistered reports whether the given resource type is known.
func (r *Registry) IsRegistered(resourceType string) bool {
	_, ok := r.types[resourceType]
	return ok
}

// NewGRN builds a GRN for a registered resource type.
func (r *Registry) NewGRN(resourceType, entity string) (GRN, error) {
	if !r.IsRegistered(resourceType) {
		return GRN{}, fmt.Errorf("%w: %q", ErrUnknownType, resourceType)
	}
	if entity == "" && resourceType != TypeSystem {
		return GRN{}, fmt.Errorf("%w: empty entity for type %q", ErrMalformed, resourceType)
	}
	return GRN{typ: resourceType, entity: entity}, nil
}

// OfUser builds the GRN addressing a user principal by id.
func (r *Registry) OfUser(userID string) (GRN, error) {
	return r.NewGRN(TypeUser, userID)
}

// System returns the sentinel GRN addressing the whole installation.
func (r *Registry) System() GRN {
	return GRN{typ: TypeSystem}
}

// Parse parses a GRN string and rejects unregistered resource types.
func (r *Registry) Parse(s string) (GRN, error) {
	g, err := Parse(s)
	if err != nil {
		return GRN{}, err
	}
	if !r.IsRegistered(g.Type()) {
		return GRN{}, fmt.Errorf("%w: %q", ErrUnknownType, g.Type())
	}
	return g, nil
}
