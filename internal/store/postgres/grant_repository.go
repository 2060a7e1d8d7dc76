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

package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/logward/logward/internal/capability"
	"github.com/logward/logward/internal/grant"
	"github.com/logward/logward/internal/grn"
	"github.com/logward/logward/internal/observability/logger"
)

const grantColumns = "id, grantee, capability, target, created_by, created_at, updated_by, updated_at, expires_at"

// GrantRepository implements grant.Repository
type GrantRepository struct {
	db *DB
}

// NewGrantRepository creates a new grant repository
func NewGrantRepository(db *DB) *GrantRepository {
	return &GrantRepository{db: db}
}

// Create persists a new grant
func (r *GrantRepository) Create(ctx context.Context, g *grant.Grant) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO grants (
			id, grantee, capability, target,
			created_by, created_at, updated_by, updated_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		g.ID, g.Grantee.String(), g.Capability.String(), g.Target.String(),
		g.CreatedBy, g.CreatedAt, g.UpdatedBy, g.UpdatedAt, g.ExpiresAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create grant: %w", err)
	}

	return nil
}

// GetByID retrieves a grant by id
func (r *GrantRepository) GetByID(ctx context.Context, id string) (*grant.Grant, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT `+grantColumns+`
		FROM grants
		WHERE id = $1
	`, id)

	g, err := scanGrant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, grant.ErrGrantNotFound
		}
		return nil, fmt.Errorf("failed to get grant: %w", err)
	}

	return g, nil
}

// Update overwrites an existing grant
func (r *GrantRepository) Update(ctx context.Context, g *grant.Grant) error {
	result, err := r.db.pool.Exec(ctx, `
		UPDATE grants SET
			grantee = $2,
			capability = $3,
			target = $4,
			updated_by = $5,
			updated_at = $6,
			expires_at = $7
		WHERE id = $1
	`,
		g.ID, g.Grantee.String(), g.Capability.String(), g.Target.String(),
		g.UpdatedBy, g.UpdatedAt, g.ExpiresAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update grant: %w", err)
	}

	if result.RowsAffected() == 0 {
		return grant.ErrGrantNotFound
	}

	return nil
}

// Delete removes a single grant by id
func (r *GrantRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM grants WHERE id = $1
	`, id)

	if err != nil {
		return fmt.Errorf("failed to delete grant: %w", err)
	}

	if result.RowsAffected() == 0 {
		return grant.ErrGrantNotFound
	}

	return nil
}

// ForGranteesOrGlobal retrieves all grants whose grantee is in the given set
// or is the global grantee sentinel. Index lookup on the grantee column.
func (r *GrantRepository) ForGranteesOrGlobal(ctx context.Context, grantees []grn.GRN) ([]*grant.Grant, error) {
	granteeSet := make([]string, 0, len(grantees)+1)
	for _, g := range grantees {
		granteeSet = append(granteeSet, g.String())
	}
	granteeSet = append(granteeSet, grn.GlobalGrantee.String())

	rows, err := r.db.pool.Query(ctx, `
		SELECT `+grantColumns+`
		FROM grants
		WHERE grantee = ANY($1)
	`, granteeSet)

	if err != nil {
		return nil, fmt.Errorf("failed to list grants for grantees: %w", err)
	}
	defer rows.Close()

	return scanGrants(ctx, rows)
}

// ForGrantee retrieves all grants held by a grantee. Index lookup on the
// grantee column.
func (r *GrantRepository) ForGrantee(ctx context.Context, grantee grn.GRN) ([]*grant.Grant, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+grantColumns+`
		FROM grants
		WHERE grantee = $1
	`, grantee.String())

	if err != nil {
		return nil, fmt.Errorf("failed to list grants for grantee: %w", err)
	}
	defer rows.Close()

	return scanGrants(ctx, rows)
}

// ForTarget retrieves all grants on a target
func (r *GrantRepository) ForTarget(ctx context.Context, target grn.GRN) ([]*grant.Grant, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+grantColumns+`
		FROM grants
		WHERE target = $1
	`, target.String())

	if err != nil {
		return nil, fmt.Errorf("failed to list grants for target: %w", err)
	}
	defer rows.Close()

	return scanGrants(ctx, rows)
}

// ForTargetExcludingGrantee retrieves all grants on a target except those
// held by the given grantee
func (r *GrantRepository) ForTargetExcludingGrantee(ctx context.Context, target, grantee grn.GRN) ([]*grant.Grant, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+grantColumns+`
		FROM grants
		WHERE target = $1 AND grantee <> $2
	`, target.String(), grantee.String())

	if err != nil {
		return nil, fmt.Errorf("failed to list grants for target: %w", err)
	}
	defer rows.Close()

	return scanGrants(ctx, rows)
}

// ForTargetAndGrantees retrieves the grants on a target held by any of the
// given grantees
func (r *GrantRepository) ForTargetAndGrantees(ctx context.Context, target grn.GRN, grantees []grn.GRN) ([]*grant.Grant, error) {
	granteeSet := make([]string, 0, len(grantees))
	for _, g := range grantees {
		granteeSet = append(granteeSet, g.String())
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT `+grantColumns+`
		FROM grants
		WHERE target = $1 AND grantee = ANY($2)
	`, target.String(), granteeSet)

	if err != nil {
		return nil, fmt.Errorf("failed to list grants for target and grantees: %w", err)
	}
	defer rows.Close()

	return scanGrants(ctx, rows)
}

// ForTargets retrieves all grants on any of the given targets
func (r *GrantRepository) ForTargets(ctx context.Context, targets []grn.GRN) ([]*grant.Grant, error) {
	targetSet := make([]string, 0, len(targets))
	for _, t := range targets {
		targetSet = append(targetSet, t.String())
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT `+grantColumns+`
		FROM grants
		WHERE target = ANY($1)
	`, targetSet)

	if err != nil {
		return nil, fmt.Errorf("failed to list grants for targets: %w", err)
	}
	defer rows.Close()

	return scanGrants(ctx, rows)
}

// DeleteByGrantee removes every grant held by the grantee, returning the ids
// of the removed grants
func (r *GrantRepository) DeleteByGrantee(ctx context.Context, grantee grn.GRN) ([]string, error) {
	rows, err := r.db.pool.Query(ctx, `
		DELETE FROM grants WHERE grantee = $1 RETURNING id
	`, grantee.String())

	if err != nil {
		return nil, fmt.Errorf("failed to delete grants for grantee: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan grant id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// GetAll retrieves every grant
func (r *GrantRepository) GetAll(ctx context.Context) ([]*grant.Grant, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+grantColumns+`
		FROM grants
		ORDER BY created_at
	`)

	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	defer rows.Close()

	return scanGrants(ctx, rows)
}

func scanGrant(row pgx.Row) (*grant.Grant, error) {
	var g grant.Grant
	var grantee, capabilityStr, target string

	if err := row.Scan(
		&g.ID, &grantee, &capabilityStr, &target,
		&g.CreatedBy, &g.CreatedAt, &g.UpdatedBy, &g.UpdatedAt, &g.ExpiresAt,
	); err != nil {
		return nil, err
	}

	granteeGRN, err := grn.Parse(grantee)
	if err != nil {
		return nil, fmt.Errorf("stored grantee is malformed: %w", err)
	}
	targetGRN, err := grn.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("stored target is malformed: %w", err)
	}

	g.Grantee = granteeGRN
	g.Target = targetGRN
	// The raw value is kept even when it parses to no known capability: the
	// resolver decides how to treat stale records.
	g.Capability = capability.Capability(capabilityStr)

	return &g, nil
}

func scanGrants(ctx context.Context, rows pgx.Rows) ([]*grant.Grant, error) {
	var grants []*grant.Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			// One corrupt record must not hide every other grant from the
			// resolver.
			slog.WarnContext(ctx, "skipping unreadable grant record",
				logger.Component("store"), logger.Error(err))
			continue
		}
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate grants: %w", err)
	}
	return grants, nil
}
