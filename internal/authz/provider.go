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
	"errors"

	"github.com/logward/logward/internal/grn"
)

// ErrNoIdentity is returned when the provider is asked to establish an
// identity. Establishing identities is the authentication layer's job; this
// provider only resolves what an already-known identity may do.
var ErrNoIdentity = errors.New("authorization provider holds no identity")

// Provider is the boundary object the host authorization framework calls
// once per principal to obtain its permission set. It participates as a pure
// authorization source and never as an authenticator.
type Provider struct {
	resolver    *Resolver
	grnRegistry *grn.Registry
}

// NewProvider creates a new authorization provider
func NewProvider(resolver *Resolver, grnRegistry *grn.Registry) *Provider {
	return &Provider{resolver: resolver, grnRegistry: grnRegistry}
}

// Permissions returns the effective permission set of the principal.
func (p *Provider) Permissions(ctx context.Context, principal grn.GRN) (PermissionSet, error) {
	return p.resolver.Resolve(ctx, principal)
}

// PermissionsForUsername resolves the permission set of a principal
// addressed by bare user name. This is a thin adapter over the canonical
// GRN-keyed resolution, kept for callers that predate resource names.
func (p *Provider) PermissionsForUsername(ctx context.Context, username string) (PermissionSet, error) {
	principal, err := p.grnRegistry.OfUser(username)
	if err != nil {
		return nil, err
	}
	return p.resolver.Resolve(ctx, principal)
}

// Authenticate always reports the absence of an identity. The host
// framework probes all of its realms on login; an authorization-only realm
// must answer "no identity here" rather than erroring.
func (p *Provider) Authenticate(ctx context.Context, credentials any) error {
	return ErrNoIdentity
}
