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

package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/logward/logward/internal/audit"
	"github.com/logward/logward/internal/events"
	"github.com/logward/logward/internal/grn"
	"github.com/logward/logward/internal/id"
)

// Service provides principal directory operations. Deleting a principal
// publishes a PrincipalDeleted event, which triggers the grant collector.
type Service struct {
	repo        Repository
	grnRegistry *grn.Registry
	bus         *events.Bus
	auditLogger audit.Logger
}

// NewService creates a new identity service
func NewService(repo Repository, grnRegistry *grn.Registry, bus *events.Bus, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		grnRegistry: grnRegistry,
		bus:         bus,
		auditLogger: auditLogger,
	}
}

// Create registers a new principal.
func (s *Service) Create(ctx context.Context, name, email string) (*User, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidUser)
	}

	now := time.Now()
	user := &User{
		ID:        id.NewUUIDv7(),
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Get retrieves a principal by id.
func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

// Delete removes a principal and announces the deletion. Grants referencing
// the principal are not touched here; the collector removes them off the
// request path.
func (s *Service) Delete(ctx context.Context, userID string, actor grn.GRN) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	userGRN, err := s.grnRegistry.OfUser(user.ID)
	if err != nil {
		return fmt.Errorf("failed to build user grn: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Action:   audit.TypePrincipalDeleted,
		Actor:    actor.String(),
		Resource: userGRN.String(),
	})
	s.bus.Publish(ctx, events.PrincipalDeleted{Principal: userGRN})

	return nil
}
