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

import "github.com/logward/logward/internal/grn"

// Declaration is a plugin-contributed permission: a named permission string
// together with the capability level at which it becomes available for each
// resource type. A permission may sit at View for one type and Manage for
// another. This is the sole extension point for adding capability-guarded
// operations without modifying the core.
type Declaration struct {
	Name    string
	PerType map[string]Capability
}

// Declare builds a declaration for a single permission name.
func Declare(name string, perType map[string]Capability) Declaration {
	return Declaration{Name: name, PerType: perType}
}

// BuiltinDeclarations returns the permission declarations of the core
// platform modules. Plugin modules append their own declarations before the
// registry is built.
func BuiltinDeclarations() []Declaration {
	return []Declaration{
		Declare("streams:read", map[string]Capability{grn.TypeStream: View}),
		Declare("streams:edit", map[string]Capability{grn.TypeStream: Manage}),
		Declare("streams:changestate", map[string]Capability{grn.TypeStream: Manage}),
		Declare("dashboards:read", map[string]Capability{grn.TypeDashboard: View}),
		Declare("dashboards:edit", map[string]Capability{grn.TypeDashboard: Manage}),
		Declare("searches:read", map[string]Capability{grn.TypeSearch: View}),
		Declare("searches:edit", map[string]Capability{grn.TypeSearch: Manage}),
		Declare("alerts:read", map[string]Capability{grn.TypeAlert: View}),
		Declare("alerts:edit", map[string]Capability{grn.TypeAlert: Manage}),
		Declare("outputs:read", map[string]Capability{grn.TypeOutput: View}),
		Declare("outputs:edit", map[string]Capability{grn.TypeOutput: Manage}),
		Declare("teams:read", map[string]Capability{grn.TypeTeam: View}),
		Declare("teams:edit", map[string]Capability{grn.TypeTeam: Manage}),
		Declare("users:read", map[string]Capability{grn.TypeUser: View}),
		Declare("users:edit", map[string]Capability{grn.TypeUser: Manage}),
	}
}
