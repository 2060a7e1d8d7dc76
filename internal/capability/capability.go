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

// Package capability defines the ordered authorization levels a grant can
// carry and the registry that expands each level into the concrete
// permission set it implies.
package capability

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrUnknownCapability    = errors.New("unknown capability")
	ErrDuplicateDeclaration = errors.New("duplicate permission declaration")
	ErrInvalidDeclaration   = errors.New("invalid permission declaration")
	ErrUnknownResourceType  = errors.New("permission declared for unknown resource type")
)

// Capability is an ordered authorization level. The permission set implied
// by a capability is a superset of every lower capability's set.
type Capability string

const (
	View   Capability = "view"
	Manage Capability = "manage"
	Own    Capability = "own"
)

// EntityOwnPermission is the universal ownership permission implied by Own
// for every registered resource type. It is matched against the resource's
// ownership relation rather than against a flat permission string.
const EntityOwnPermission = "entity:own"

// Priority returns the strict total order of capabilities: View(1) <
// Manage(2) < Own(3). Unknown capabilities order below View.
func (c Capability) Priority() int {
	switch c {
	case View:
		return 1
	case Manage:
		return 2
	case Own:
		return 3
	default:
		return 0
	}
}

// Title returns the human-readable capability title.
func (c Capability) Title() string {
	switch c {
	case View:
		return "Viewer"
	case Manage:
		return "Manager"
	case Own:
		return "Owner"
	default:
		return "Unknown"
	}
}

// Atleast reports whether c grants at least the given capability level.
func (c Capability) Atleast(other Capability) bool {
	return c.Priority() >= other.Priority() && c.Priority() > 0
}

// String implements fmt.Stringer.
func (c Capability) String() string { return string(c) }

// Parse converts a stored capability value back into a Capability.
func Parse(s string) (Capability, error) {
	switch Capability(s) {
	case View, Manage, Own:
		return Capability(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCapability, s)
	}
}

// All returns every capability in ascending priority order.
func All() []Capability {
	return []Capability{View, Manage, Own}
}
