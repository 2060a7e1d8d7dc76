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
	"log/slog"
	"sync"

	"github.com/logward/logward/internal/grn"
	"github.com/logward/logward/internal/observability/logger"
)

// OwnerChecker binds a one-off, sessionless identity to a resource owner's
// GRN for code paths that need an authorization decision without an active
// session: background processing evaluating an alert rule on behalf of its
// creator, for example. All checks fail closed: a resolution failure or a
// malformed target is answered with "not permitted".
type OwnerChecker struct {
	resolver *Resolver
	owner    grn.GRN

	once sync.Once
	set  PermissionSet
	err  error
}

// NewOwnerChecker creates a checker for the given owner identity.
func NewOwnerChecker(resolver *Resolver, owner grn.GRN) *OwnerChecker {
	return &OwnerChecker{resolver: resolver, owner: owner}
}

// IsPermitted reports whether the owner holds the named permission on the
// target entity id. The owner's permission set is resolved once, on first
// use, and reused for the checker's lifetime; checkers are meant to live for
// one unit of background work.
func (c *OwnerChecker) IsPermitted(ctx context.Context, permission, targetID string) bool {
	if permission == "" || targetID == "" {
		return false
	}

	c.once.Do(func() {
		c.set, c.err = c.resolver.Resolve(ctx, c.owner)
	})
	if c.err != nil {
		slog.WarnContext(ctx, "owner permission resolution failed, denying",
			logger.Component("checker"),
			logger.Principal(c.owner.String()),
			logger.Error(c.err))
		return false
	}

	return c.set.IsPermitted(permission, targetID)
}

// IsOwner reports whether the bound identity holds an ownership permission
// on the exact target GRN. Malformed target strings fail closed.
func (c *OwnerChecker) IsOwner(ctx context.Context, target string) bool {
	parsed, err := grn.Parse(target)
	if err != nil {
		return false
	}

	c.once.Do(func() {
		c.set, c.err = c.resolver.Resolve(ctx, c.owner)
	})
	if c.err != nil {
		return false
	}

	return c.set.IsOwner(parsed)
}
