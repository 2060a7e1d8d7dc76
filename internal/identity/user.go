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

// Package identity is the principal directory of the authorization core: the
// record of which principals currently exist. Authentication (passwords,
// LDAP, SSO) is handled entirely outside this service; identity here only
// answers "does this principal exist" and feeds deletions to the grant
// collector.
package identity

import (
	"context"
	"errors"
	"time"
)

// Domain errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidUser       = errors.New("invalid user")
)

// User represents a principal known to the installation.
type User struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines the interface for principal persistence
type Repository interface {
	// Create creates a new principal record
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a principal by ID
	GetByID(ctx context.Context, id string) (*User, error)

	// ListIDs retrieves the identifiers of all existing principals
	ListIDs(ctx context.Context) ([]string, error)

	// Delete removes a principal record
	Delete(ctx context.Context, id string) error
}
