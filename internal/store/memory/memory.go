// Package memory implements the user repository in process memory with the
// same uniqueness semantics as the PostgreSQL adapter. Used for dev runs
// (storage.driver=memory) and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/automl-platform/authgw/internal/oauth"
	"github.com/automl-platform/authgw/internal/store/core"
)

type Repository struct {
	mu    sync.Mutex
	byID  map[string]*core.User
	clock func() time.Time
}

func New() *Repository {
	return &Repository{
		byID:  make(map[string]*core.User),
		clock: time.Now,
	}
}

func (r *Repository) Ping(ctx context.Context) error { return nil }

// clone guards callers against mutating stored state without Update.
func clone(u *core.User) *core.User {
	cp := *u
	cp.ProviderIDs = make(map[oauth.ProviderID]string, len(u.ProviderIDs))
	for k, v := range u.ProviderIDs {
		cp.ProviderIDs[k] = v
	}
	return &cp
}

func (r *Repository) FindByProviderID(ctx context.Context, p oauth.ProviderID, providerUserID string) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.ProviderID(p) == providerUserID && providerUserID != "" {
			return clone(u), nil
		}
	}
	return nil, core.ErrNotFound
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email && email != "" {
			return clone(u), nil
		}
	}
	return nil, core.ErrNotFound
}

func (r *Repository) FindByID(ctx context.Context, id string) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		return clone(u), nil
	}
	return nil, core.ErrNotFound
}

const usernameAttempts = 5

func (r *Repository) Insert(ctx context.Context, u *core.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return core.ErrConflict
		}
		for p, id := range u.ProviderIDs {
			if id != "" && existing.ProviderID(p) == id {
				return core.ErrConflict
			}
		}
	}

	base := u.Username
	username := base
	for attempt := 0; r.usernameTaken(username, ""); attempt++ {
		if attempt+1 >= usernameAttempts {
			return core.ErrConflict
		}
		username = fmt.Sprintf("%s-%d", base, attempt+2)
	}

	u.Username = username
	u.ID = uuid.NewString()
	u.CreatedAt = r.clock().UTC()
	r.byID[u.ID] = clone(u)
	return nil
}

func (r *Repository) Update(ctx context.Context, u *core.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[u.ID]
	if !ok {
		return core.ErrNotFound
	}
	for _, existing := range r.byID {
		if existing.ID == u.ID {
			continue
		}
		for p, id := range u.ProviderIDs {
			if id != "" && existing.ProviderID(p) == id {
				return core.ErrConflict
			}
		}
	}

	stored.DisplayName = u.DisplayName
	stored.IsActive = u.IsActive
	stored.IsVerified = u.IsVerified
	stored.ProviderIDs = clone(u).ProviderIDs
	return nil
}

func (r *Repository) usernameTaken(username, excludeID string) bool {
	for _, u := range r.byID {
		if u.Username == username && u.ID != excludeID {
			return true
		}
	}
	return false
}

// Len reports the number of stored users. Test helper.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
