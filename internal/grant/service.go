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

package grant

import (
	"context"
	"fmt"
	"time"

	"github.com/logward/logward/internal/audit"
	"github.com/logward/logward/internal/capability"
	"github.com/logward/logward/internal/events"
	"github.com/logward/logward/internal/grn"
	"github.com/logward/logward/internal/id"
	"github.com/logward/logward/internal/observability/metrics"
)

// Service provides grant administration: creation, update, sharing upsert,
// revocation and the target-scoped query surface other modules consume.
// Every mutation stamps audit fields from the acting identity, emits an
// audit event and publishes a GrantsChanged notification.
type Service struct {
	repo        Repository
	bus         *events.Bus
	auditLogger audit.Logger
	meter       *metrics.Meter
}

// NewService creates a new grant service
func NewService(repo Repository, bus *events.Bus, auditLogger audit.Logger, meter *metrics.Meter) *Service {
	return &Service{
		repo:        repo,
		bus:         bus,
		auditLogger: auditLogger,
		meter:       meter,
	}
}

// Create persists a new grant on behalf of the acting identity.
func (s *Service) Create(ctx context.Context, fields Fields, actor grn.GRN) (*Grant, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	g := &Grant{
		ID:         id.NewUUIDv7(),
		Grantee:    fields.Grantee,
		Capability: fields.Capability,
		Target:     fields.Target,
		CreatedBy:  actor.String(),
		CreatedAt:  now,
		UpdatedBy:  actor.String(),
		UpdatedAt:  now,
		ExpiresAt:  fields.ExpiresAt,
	}

	if err := s.repo.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to create grant: %w", err)
	}

	s.recordChange(ctx, audit.TypeGrantCreated, actor, g)
	return g, nil
}

// Update overwrites the grantee, capability and target of an existing grant,
// preserving the original creation audit fields. Fails with ErrGrantNotFound
// when the grant does not exist; a missing grant is never silently created.
func (s *Service) Update(ctx context.Context, grantID string, fields Fields, actor grn.GRN) (*Grant, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return nil, err
	}

	existing.Grantee = fields.Grantee
	existing.Capability = fields.Capability
	existing.Target = fields.Target
	existing.ExpiresAt = fields.ExpiresAt
	existing.UpdatedBy = actor.String()
	existing.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update grant: %w", err)
	}

	s.recordChange(ctx, audit.TypeGrantUpdated, actor, existing)
	return existing, nil
}

// Share upserts a grantee's capability on a target: creates the grant if the
// grantee holds none, updates it if the capability or expiry differs, and
// leaves it untouched otherwise. Downgrading the target's last Own grant is
// refused with ErrTargetOwnerless.
func (s *Service) Share(ctx context.Context, fields Fields, actor grn.GRN) (*Grant, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.ForTargetAndGrantees(ctx, fields.Target, []grn.GRN{fields.Grantee})
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing share: %w", err)
	}

	if len(existing) == 0 {
		g, err := s.Create(ctx, fields, actor)
		if err != nil {
			return nil, err
		}
		s.auditShare(ctx, actor, g)
		return g, nil
	}

	current := existing[0]
	if current.Capability == fields.Capability && sameExpiry(current.ExpiresAt, fields.ExpiresAt) {
		return current, nil
	}

	if current.Capability == capability.Own && fields.Capability != capability.Own {
		if err := s.ensureOtherOwner(ctx, fields.Target, fields.Grantee); err != nil {
			return nil, err
		}
	}

	g, err := s.Update(ctx, current.ID, fields, actor)
	if err != nil {
		return nil, err
	}
	s.auditShare(ctx, actor, g)
	return g, nil
}

// Revoke removes a single grant. Revoking the target's last Own grant is
// refused with ErrTargetOwnerless.
func (s *Service) Revoke(ctx context.Context, grantID string, actor grn.GRN) error {
	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return err
	}

	if g.Capability == capability.Own {
		if err := s.ensureOtherOwner(ctx, g.Target, g.Grantee); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, g.ID); err != nil {
		return fmt.Errorf("failed to delete grant: %w", err)
	}

	s.recordChange(ctx, audit.TypeGrantRevoked, actor, g)
	return nil
}

// RevokeAllForGrantee removes every grant held by a grantee (explicit
// revocation flow; the collector uses the repository directly).
func (s *Service) RevokeAllForGrantee(ctx context.Context, grantee, actor grn.GRN) error {
	ids, err := s.repo.DeleteByGrantee(ctx, grantee)
	if err != nil {
		return fmt.Errorf("failed to delete grants for grantee: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	if s.meter != nil {
		s.meter.GrantChanges.Add(ctx, int64(len(ids)))
	}
	s.auditLogger.Log(ctx, audit.Event{
		Action:   audit.TypeGrantRevoked,
		Actor:    actor.String(),
		Resource: grantee.String(),
		Metadata: map[string]any{"grant_ids": ids},
	})
	s.bus.Publish(ctx, events.GrantsChanged{GrantIDs: ids})
	return nil
}

// Get retrieves a grant by id.
func (s *Service) Get(ctx context.Context, grantID string) (*Grant, error) {
	return s.repo.GetByID(ctx, grantID)
}

// ForTarget lists all grants on a target.
func (s *Service) ForTarget(ctx context.Context, target grn.GRN) ([]*Grant, error) {
	return s.repo.ForTarget(ctx, target)
}

// ForGrantee lists all grants held by a grantee: the resources shared with
// that principal or team.
func (s *Service) ForGrantee(ctx context.Context, grantee grn.GRN) ([]*Grant, error) {
	return s.repo.ForGrantee(ctx, grantee)
}

// ForTargetExcludingGrantee lists the grants on a target held by anyone but
// the given grantee.
func (s *Service) ForTargetExcludingGrantee(ctx context.Context, target, grantee grn.GRN) ([]*Grant, error) {
	return s.repo.ForTargetExcludingGrantee(ctx, target, grantee)
}

// OwnersByTarget groups the grantees holding grants on each target. All
// capability levels are included; callers that need actual owners filter on
// capability themselves.
func (s *Service) OwnersByTarget(ctx context.Context, targets []grn.GRN) (map[grn.GRN][]grn.GRN, error) {
	grants, err := s.repo.ForTargets(ctx, targets)
	if err != nil {
		return nil, fmt.Errorf("failed to load grants for targets: %w", err)
	}

	out := make(map[grn.GRN][]grn.GRN, len(targets))
	seen := make(map[grn.GRN]map[grn.GRN]struct{})
	for _, g := range grants {
		if seen[g.Target] == nil {
			seen[g.Target] = make(map[grn.GRN]struct{})
		}
		if _, dup := seen[g.Target][g.Grantee]; dup {
			continue
		}
		seen[g.Target][g.Grantee] = struct{}{}
		out[g.Target] = append(out[g.Target], g.Grantee)
	}
	return out, nil
}

// GetAll returns every grant, for administrative export.
func (s *Service) GetAll(ctx context.Context) ([]*Grant, error) {
	return s.repo.GetAll(ctx)
}

// ensureOtherOwner checks that a target keeps at least one Own grant when
// the given grantee's grant is removed or downgraded. Only called when that
// grant holds Own; a target without any Own grant never reaches the check.
// Grantee-wide revocation and the collector skip it: their grantee is being
// deleted either way.
func (s *Service) ensureOtherOwner(ctx context.Context, target, grantee grn.GRN) error {
	others, err := s.repo.ForTargetExcludingGrantee(ctx, target, grantee)
	if err != nil {
		return fmt.Errorf("failed to list remaining grants: %w", err)
	}
	for _, g := range others {
		if g.Capability == capability.Own {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrTargetOwnerless, target)
}

func sameExpiry(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func (s *Service) recordChange(ctx context.Context, action string, actor grn.GRN, g *Grant) {
	if s.meter != nil {
		s.meter.GrantChanges.Add(ctx, 1)
	}
	s.auditLogger.Log(ctx, audit.Event{
		Action:   action,
		Actor:    actor.String(),
		Resource: g.Target.String(),
		Metadata: map[string]any{
			"grant_id":   g.ID,
			"grantee":    g.Grantee.String(),
			"capability": g.Capability.String(),
		},
	})
	s.bus.Publish(ctx, events.GrantsChanged{GrantIDs: []string{g.ID}})
}

func (s *Service) auditShare(ctx context.Context, actor grn.GRN, g *Grant) {
	s.auditLogger.Log(ctx, audit.Event{
		Action:   audit.TypeShareUpdated,
		Actor:    actor.String(),
		Resource: g.Target.String(),
		Metadata: map[string]any{
			"grantee":    g.Grantee.String(),
			"capability": g.Capability.String(),
		},
	})
}
