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
	"log/slog"

	"github.com/logward/logward/internal/audit"
	"github.com/logward/logward/internal/events"
	"github.com/logward/logward/internal/grn"
	"github.com/logward/logward/internal/observability/logger"
	"github.com/logward/logward/internal/observability/metrics"
)

// PrincipalDirectory answers which principals currently exist. Implemented
// by the identity repository.
type PrincipalDirectory interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// Collector removes grants whose grantee no longer exists. It is triggered
// by principal-deleted events and deliberately scans the whole grant set
// instead of just the deleted principal: the same sweep heals grants
// orphaned by earlier missed cleanups, at the cost of an
// O(grants + principals) pass per event. Running it twice in a row, or
// against a clean store, is a no-op.
type Collector struct {
	repo        Repository
	directory   PrincipalDirectory
	bus         *events.Bus
	auditLogger audit.Logger
	meter       *metrics.Meter
}

// NewCollector creates a new grant collector
func NewCollector(repo Repository, directory PrincipalDirectory, bus *events.Bus, auditLogger audit.Logger, meter *metrics.Meter) *Collector {
	return &Collector{
		repo:        repo,
		directory:   directory,
		bus:         bus,
		auditLogger: auditLogger,
		meter:       meter,
	}
}

// Register subscribes the collector to principal-deleted events on the bus.
func (c *Collector) Register(bus *events.Bus) {
	bus.Subscribe(func(ctx context.Context, event any) {
		deleted, ok := event.(events.PrincipalDeleted)
		if !ok {
			return
		}
		if _, err := c.Sweep(ctx); err != nil {
			slog.ErrorContext(ctx, "grant sweep failed",
				logger.Component("collector"),
				logger.Principal(deleted.Principal.String()),
				logger.Error(err))
		}
	})
}

// Sweep removes all grants held by user-typed grantees that no longer exist
// in the principal directory. Grants created mid-scan for still-valid
// principals are untouched: the sweep only ever removes grants for
// principals proven absent in its snapshot read.
func (c *Collector) Sweep(ctx context.Context) (int, error) {
	grants, err := c.repo.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to scan grants: %w", err)
	}

	// Keyed by the full GRN: grantees sharing an entity id but differing in
	// cluster or tenant are distinct and each gets its own deletion.
	grantees := make(map[grn.GRN]struct{})
	for _, g := range grants {
		if g.Grantee.Type() != grn.TypeUser {
			continue
		}
		if g.Grantee == grn.GlobalGrantee {
			continue
		}
		grantees[g.Grantee] = struct{}{}
	}
	if len(grantees) == 0 {
		return 0, nil
	}

	existing, err := c.directory.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list principals: %w", err)
	}
	present := make(map[string]struct{}, len(existing))
	for _, principalID := range existing {
		present[principalID] = struct{}{}
	}

	removed := 0
	var removedIDs []string
	for grantee := range grantees {
		if _, ok := present[grantee.Entity()]; ok {
			continue
		}
		ids, err := c.repo.DeleteByGrantee(ctx, grantee)
		if err != nil {
			return removed, fmt.Errorf("failed to delete grants for %s: %w", grantee, err)
		}
		removed += len(ids)
		removedIDs = append(removedIDs, ids...)

		slog.InfoContext(ctx, "removed grants of vanished principal",
			logger.Component("collector"),
			logger.Grantee(grantee.String()),
			logger.GrantCount(len(ids)))
	}

	if removed > 0 {
		if c.meter != nil {
			c.meter.GrantsSwept.Add(ctx, int64(removed))
		}
		system := grn.MustParse("grn::::system:")
		c.auditLogger.Log(ctx, audit.Event{
			Action:   audit.TypeOrphanSweep,
			Actor:    system.String(),
			Resource: system.String(),
			Metadata: map[string]any{"grants_removed": removed},
		})
		c.bus.Publish(ctx, events.GrantsChanged{GrantIDs: removedIDs})
	}

	return removed, nil
}
