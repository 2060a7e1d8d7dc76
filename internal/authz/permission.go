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

// Package authz turns grants into enforceable permission sets. It computes,
// never enforces: the calling framework consults the computed set to allow
// or deny an operation.
package authz

import (
	"sort"

	"github.com/logward/logward/internal/grn"
)

// Permission is a resolved permission bound to one target entity. A generic
// permission matches a flat (name, entity id) check; an ownership permission
// participates in ownership-relation checks instead.
type Permission struct {
	Name      string
	Target    grn.GRN
	Ownership bool
}

// PermissionSet is the effective permission set of a principal. Duplicates
// collapse naturally.
type PermissionSet map[Permission]struct{}

// NewPermissionSet creates a set from the given permissions.
func NewPermissionSet(permissions ...Permission) PermissionSet {
	set := make(PermissionSet, len(permissions))
	for _, p := range permissions {
		set[p] = struct{}{}
	}
	return set
}

// Add inserts a permission into the set.
func (s PermissionSet) Add(p Permission) {
	s[p] = struct{}{}
}

// Contains reports whether the exact permission is in the set.
func (s PermissionSet) Contains(p Permission) bool {
	_, ok := s[p]
	return ok
}

// IsPermitted reports whether the set carries the named generic permission
// bound to the given target entity id. Ownership permissions never satisfy a
// flat check.
func (s PermissionSet) IsPermitted(name, targetEntity string) bool {
	for p := range s {
		if !p.Ownership && p.Name == name && p.Target.Entity() == targetEntity {
			return true
		}
	}
	return false
}

// IsOwner reports whether the set carries an ownership permission for the
// exact target.
func (s PermissionSet) IsOwner(target grn.GRN) bool {
	for p := range s {
		if p.Ownership && p.Target == target {
			return true
		}
	}
	return false
}

// Strings renders the set for logs and the administrative API, in stable
// order.
func (s PermissionSet) Strings() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p.Name+":"+p.Target.Entity())
	}
	sort.Strings(out)
	return out
}
