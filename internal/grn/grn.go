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

// Package grn implements the logward resource naming scheme. A GRN is a
// structured, immutable resource address of the form
//
//	grn:<cluster>:<tenant>:<type>:<entity>
//
// The cluster and tenant segments are empty in single-cluster deployments.
// The "system" type is a sentinel addressing the whole installation rather
// than a single entity.
package grn

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors
var (
	ErrMalformed   = errors.New("malformed resource name")
	ErrUnknownType = errors.New("unknown resource type")
)

const (
	scheme       = "grn"
	segmentCount = 5

	// TypeSystem is the sentinel type addressing the whole installation.
	TypeSystem = "system"
)

// GRN is an immutable resource name. The zero value is invalid; construct
// GRNs through a Registry or Parse.
type GRN struct {
	cluster string
	tenant  string
	typ     string
	entity  string
}

// Cluster returns the deployment cluster segment, empty in single-cluster
// deployments.
func (g GRN) Cluster() string { return g.cluster }

// Tenant returns the tenant scoping segment.
func (g GRN) Tenant() string { return g.tenant }

// Type returns the resource type segment.
func (g GRN) Type() string { return g.typ }

// Entity returns the opaque entity id segment.
func (g GRN) Entity() string { return g.entity }

// IsSystem reports whether the GRN addresses the whole installation.
func (g GRN) IsSystem() bool { return g.typ == TypeSystem }

// IsZero reports whether the GRN is the invalid zero value.
func (g GRN) IsZero() bool { return g == GRN{} }

// String formats the GRN. Formatting a parsed GRN reproduces the input
// exactly.
func (g GRN) String() string {
	return strings.Join([]string{scheme, g.cluster, g.tenant, g.typ, g.entity}, ":")
}

// MarshalText implements encoding.TextMarshaler.
func (g GRN) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It performs syntactic
// validation only; type registration is checked by Registry.Parse.
func (g *GRN) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Parse parses a GRN string without consulting a type registry. Callers that
// have a Registry should prefer Registry.Parse, which additionally rejects
// unregistered types.
func Parse(s string) (GRN, error) {
	parts := strings.Split(s, ":")
	if len(parts) != segmentCount {
		return GRN{}, fmt.Errorf("%w: %q must have %d segments", ErrMalformed, s, segmentCount)
	}
	if parts[0] != scheme {
		return GRN{}, fmt.Errorf("%w: %q does not start with %q", ErrMalformed, s, scheme)
	}
	if parts[3] == "" {
		return GRN{}, fmt.Errorf("%w: %q has an empty type segment", ErrMalformed, s)
	}
	if parts[4] == "" && parts[3] != TypeSystem {
		return GRN{}, fmt.Errorf("%w: %q has an empty entity segment", ErrMalformed, s)
	}
	return GRN{
		cluster: parts[1],
		tenant:  parts[2],
		typ:     parts[3],
		entity:  parts[4],
	}, nil
}

// MustParse parses a GRN string and panics on malformed input. Only for
// compile-time constants and tests.
func MustParse(s string) GRN {
	g, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return g
}
