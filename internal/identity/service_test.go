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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logward/logward/internal/audit"
	"github.com/logward/logward/internal/events"
	"github.com/logward/logward/internal/grn"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*User)}
}

func (r *memUserRepo) Create(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; ok {
		return ErrUserAlreadyExists
	}
	copied := *u
	r.users[u.ID] = &copied
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *memUserRepo) ListIDs(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *memUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// TestPurpose: Validates principal creation and the name requirement.
// Scope: Unit Test
// Expected: Valid principals get an id and timestamps; an empty name is
// rejected with ErrInvalidUser.
func TestService_Create(t *testing.T) {
	svc := NewService(newMemUserRepo(), grn.NewRegistry(), events.NewBus(), audit.NewSlogLogger())
	ctx := context.Background()

	user, err := svc.Create(ctx, "jane", "jane@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	_, err = svc.Create(ctx, "", "nobody@example.com")
	assert.ErrorIs(t, err, ErrInvalidUser)
}

// TestPurpose: Validates that deleting a principal publishes the
// principal-deleted event carrying its GRN.
// Scope: Unit Test
// Expected: Exactly one event with the deleted user's GRN; deleting an
// unknown principal yields ErrUserNotFound and no event.
func TestService_Delete_PublishesEvent(t *testing.T) {
	repo := newMemUserRepo()
	bus := events.NewBus()
	svc := NewService(repo, grn.NewRegistry(), bus, audit.NewSlogLogger())
	ctx := context.Background()

	var mu sync.Mutex
	var deleted []grn.GRN
	bus.Subscribe(func(ctx context.Context, event any) {
		if e, ok := event.(events.PrincipalDeleted); ok {
			mu.Lock()
			deleted = append(deleted, e.Principal)
			mu.Unlock()
		}
	})

	user, err := svc.Create(ctx, "jane", "")
	require.NoError(t, err)

	actor := grn.MustParse("grn::::user:admin")
	require.NoError(t, svc.Delete(ctx, user.ID, actor))
	assert.ErrorIs(t, svc.Delete(ctx, user.ID, actor), ErrUserNotFound)
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, deleted, 1)
	assert.Equal(t, "user", deleted[0].Type())
	assert.Equal(t, user.ID, deleted[0].Entity())
}
