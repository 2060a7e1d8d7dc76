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

// Package grant holds the persisted authorization facts: who may do what on
// which resource, at which capability level.
package grant

import (
	"context"
	"errors"
	"time"

	"github.com/logward/logward/internal/capability"
	"github.com/logward/logward/internal/grn"
)

// Domain errors
var (
	ErrGrantNotFound   = errors.New("grant not found")
	ErrInvalidGrant    = errors.New("invalid grant")
	ErrTargetOwnerless = errors.New("change would leave the target ownerless")
)

// Grant binds a grantee to a capability on a target resource. Grantee,
// capability and target are mandatory; they change only through an explicit
// update, which preserves the original creation audit fields.
type Grant struct {
	ID         string
	Grantee    grn.GRN
	Capability capability.Capability
	Target     grn.GRN
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedBy  string
	UpdatedAt  time.Time
	ExpiresAt  *time.Time
}

// Expired reports whether the grant carries an expiry in the past. Expiry is
// enforced at resolution time; expired records stay in the store until
// revoked or collected.
func (g *Grant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && g.ExpiresAt.Before(now)
}

// Fields is the mutable portion of a grant, supplied on create and update.
type Fields struct {
	Grantee    grn.GRN
	Capability capability.Capability
	Target     grn.GRN
	ExpiresAt  *time.Time
}

// Validate rejects grants missing a mandatory field before they reach the
// store.
func (f Fields) Validate() error {
	if f.Grantee.IsZero() {
		return errors.Join(ErrInvalidGrant, errors.New("grantee is required"))
	}
	if f.Target.IsZero() {
		return errors.Join(ErrInvalidGrant, errors.New("target is required"))
	}
	if _, err := capability.Parse(f.Capability.String()); err != nil {
		return errors.Join(ErrInvalidGrant, err)
	}
	return nil
}

// Repository defines the persistence interface for grants. Both the grantee
// and the target columns are indexed; no operation here may require a full
// collection scan for single-grantee or single-target lookups.
type Repository interface {
	// Create persists a new grant
	Create(ctx context.Context, g *Grant) error

	// GetByID retrieves a grant by id
	GetByID(ctx context.Context, id string) (*Grant, error)

	// Update overwrites an existing grant
	Update(ctx context.Context, g *Grant) error

	// Delete removes a single grant by id
	Delete(ctx context.Context, id string) error

	// ForGranteesOrGlobal retrieves all grants whose grantee is in the given
	// set or is the global grantee sentinel
	ForGranteesOrGlobal(ctx context.Context, grantees []grn.GRN) ([]*Grant, error)

	// ForGrantee retrieves all grants held by the grantee
	ForGrantee(ctx context.Context, grantee grn.GRN) ([]*Grant, error)

	// ForTarget retrieves all grants on a target
	ForTarget(ctx context.Context, target grn.GRN) ([]*Grant, error)

	// ForTargetExcludingGrantee retrieves all grants on a target except those
	// held by the given grantee
	ForTargetExcludingGrantee(ctx context.Context, target, grantee grn.GRN) ([]*Grant, error)

	// ForTargetAndGrantees retrieves the grants on a target held by any of
	// the given grantees
	ForTargetAndGrantees(ctx context.Context, target grn.GRN, grantees []grn.GRN) ([]*Grant, error)

	// ForTargets retrieves all grants on any of the given targets
	ForTargets(ctx context.Context, targets []grn.GRN) ([]*Grant, error)

	// DeleteByGrantee removes every grant held by the grantee, returning the
	// ids of the removed grants
	DeleteByGrantee(ctx context.Context, grantee grn.GRN) ([]string, error)

	// GetAll retrieves every grant (administrative export, collector scan)
	GetAll(ctx context.Context) ([]*Grant, error)
}
