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
	"fmt"
	"log/slog"
	"time"

	"github.com/logward/logward/internal/capability"
	"github.com/logward/logward/internal/grant"
	"github.com/logward/logward/internal/grn"
	"github.com/logward/logward/internal/observability/logger"
	"github.com/logward/logward/internal/observability/metrics"
)

// GrantSource is the single store query resolution depends on.
// grant.Repository implements it.
type GrantSource interface {
	ForGranteesOrGlobal(ctx context.Context, grantees []grn.GRN) ([]*grant.Grant, error)
}

// SystemTargetResolver expands a system-typed grant target into concrete
// targets. The expansion policy belongs to the resource-type layer, not this
// core; Empty is the shipped default.
type SystemTargetResolver interface {
	Resolve(ctx context.Context, system grn.GRN) ([]grn.GRN, error)
}

// EmptySystemTargetResolver expands every system target to nothing.
type EmptySystemTargetResolver struct{}

// Resolve implements SystemTargetResolver.
func (EmptySystemTargetResolver) Resolve(ctx context.Context, system grn.GRN) ([]grn.GRN, error) {
	return nil, nil
}

// Resolver computes the effective permission set of a principal. Resolution
// is a pure function of the current grant set and the static capability
// registry: one store query per call, no in-process state, safe for
// unbounded concurrency.
type Resolver struct {
	grants        GrantSource
	capabilities  *capability.Registry
	systemTargets SystemTargetResolver
	meter         *metrics.Meter
	now           func() time.Time
}

// NewResolver creates a new permission resolver
func NewResolver(grants GrantSource, capabilities *capability.Registry, systemTargets SystemTargetResolver, meter *metrics.Meter) *Resolver {
	if systemTargets == nil {
		systemTargets = EmptySystemTargetResolver{}
	}
	return &Resolver{
		grants:        grants,
		capabilities:  capabilities,
		systemTargets: systemTargets,
		meter:         meter,
		now:           time.Now,
	}
}

// Resolve computes the permission set of the principal. Grants held by the
// global grantee apply to every principal and are always included. A single
// malformed or stale grant is logged and skipped, never failing the whole
// resolution; a principal without grants receives an empty set, not an
// error.
func (r *Resolver) Resolve(ctx context.Context, principal grn.GRN) (PermissionSet, error) {
	start := r.now()

	grants, err := r.grants.ForGranteesOrGlobal(ctx, []grn.GRN{principal})
	if err != nil {
		return nil, fmt.Errorf("failed to load grants: %w", err)
	}

	set := make(PermissionSet)
	for _, g := range grants {
		if g.Expired(r.now()) {
			slog.DebugContext(ctx, "skipping expired grant",
				logger.Component("resolver"), logger.GrantID(g.ID))
			continue
		}

		descriptor, ok := r.capabilities.Descriptor(g.Capability)
		if !ok {
			// Stale or corrupt record; resolution of the remaining grants
			// must not be affected.
			slog.WarnContext(ctx, "grant references unknown capability",
				logger.Component("resolver"),
				logger.GrantID(g.ID),
				logger.Capability(g.Capability.String()))
			if r.meter != nil {
				r.meter.StaleSkipped.Add(ctx, 1)
			}
			continue
		}

		targets, err := r.effectiveTargets(ctx, g.Target)
		if err != nil {
			slog.WarnContext(ctx, "failed to expand grant target",
				logger.Component("resolver"),
				logger.GrantID(g.ID),
				logger.Target(g.Target.String()),
				logger.Error(err))
			continue
		}

		for _, target := range targets {
			for _, name := range descriptor.PermissionsFor(target.Type()) {
				set.Add(Permission{
					Name:      name,
					Target:    target,
					Ownership: name == capability.EntityOwnPermission,
				})
			}
		}
	}

	if r.meter != nil {
		r.meter.Resolutions.Add(ctx, 1)
		r.meter.ResolveMillis.Record(ctx, float64(time.Since(start).Milliseconds()))
	}
	slog.DebugContext(ctx, "resolved principal permissions",
		logger.Component("resolver"),
		logger.Principal(principal.String()),
		logger.PermissionCount(len(set)))
	return set, nil
}

func (r *Resolver) effectiveTargets(ctx context.Context, target grn.GRN) ([]grn.GRN, error) {
	if target.IsSystem() {
		return r.systemTargets.Resolve(ctx, target)
	}
	return []grn.GRN{target}, nil
}
