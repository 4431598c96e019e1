package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/automl-platform/authgw/internal/oauth"
	"github.com/automl-platform/authgw/internal/store/core"
	memstore "github.com/automl-platform/authgw/internal/store/memory"
)

func googleIdent() oauth.Identity {
	return oauth.Identity{
		Provider:       oauth.Google,
		ProviderUserID: "g-1",
		Email:          "jane@example.com",
		DisplayName:    "Jane Doe",
	}
}

func TestReconcileCreatesAccount(t *testing.T) {
	repo := memstore.New()
	r := NewReconciler(repo)

	u, err := r.Reconcile(context.Background(), googleIdent())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if u.Username != "jane" {
		t.Errorf("Username = %q, want email local-part", u.Username)
	}
	if !u.IsVerified || !u.IsActive {
		t.Errorf("flags = verified:%v active:%v, want both true", u.IsVerified, u.IsActive)
	}
	if u.CredentialHash != "" {
		t.Error("social account must not carry a credential hash")
	}
	if u.ProviderID(oauth.Google) != "g-1" {
		t.Errorf("google link = %q", u.ProviderID(oauth.Google))
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	repo := memstore.New()
	r := NewReconciler(repo)

	first, err := r.Reconcile(context.Background(), googleIdent())
	if err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}
	second, err := r.Reconcile(context.Background(), googleIdent())
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("ids differ: %q vs %q", first.ID, second.ID)
	}
	if repo.Len() != 1 {
		t.Errorf("store holds %d users, want 1", repo.Len())
	}
}

func TestReconcileLinksSecondProviderByEmail(t *testing.T) {
	repo := memstore.New()
	r := NewReconciler(repo)

	created, err := r.Reconcile(context.Background(), googleIdent())
	if err != nil {
		t.Fatalf("seed Reconcile: %v", err)
	}

	kakao := oauth.Identity{
		Provider:       oauth.Kakao,
		ProviderUserID: "k-9",
		Email:          "jane@example.com",
		DisplayName:    "Jane D.",
	}
	linked, err := r.Reconcile(context.Background(), kakao)
	if err != nil {
		t.Fatalf("link Reconcile: %v", err)
	}

	if linked.ID != created.ID {
		t.Errorf("linked to %q, want %q", linked.ID, created.ID)
	}
	if linked.ProviderID(oauth.Kakao) != "k-9" {
		t.Errorf("kakao link = %q", linked.ProviderID(oauth.Kakao))
	}
	if linked.ProviderID(oauth.Google) != "g-1" {
		t.Error("existing google link lost")
	}
	if repo.Len() != 1 {
		t.Errorf("store holds %d users, want 1", repo.Len())
	}
}

func TestReconcileRefreshesDisplayName(t *testing.T) {
	repo := memstore.New()
	r := NewReconciler(repo)

	if _, err := r.Reconcile(context.Background(), googleIdent()); err != nil {
		t.Fatal(err)
	}

	renamed := googleIdent()
	renamed.DisplayName = "Jane Renamed"
	u, err := r.Reconcile(context.Background(), renamed)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if u.DisplayName != "Jane Renamed" {
		t.Errorf("DisplayName = %q", u.DisplayName)
	}

	// An empty display name from the provider must not erase the stored one.
	blank := googleIdent()
	blank.DisplayName = ""
	u, err = r.Reconcile(context.Background(), blank)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if u.DisplayName != "Jane Renamed" {
		t.Errorf("DisplayName erased: %q", u.DisplayName)
	}
}

func TestReconcileMissingEmail(t *testing.T) {
	repo := memstore.New()
	r := NewReconciler(repo)

	ident := oauth.Identity{Provider: oauth.Kakao, ProviderUserID: "k-1"}
	if _, err := r.Reconcile(context.Background(), ident); !errors.Is(err, ErrMissingEmail) {
		t.Fatalf("want ErrMissingEmail, got %v", err)
	}
	if repo.Len() != 0 {
		t.Errorf("store holds %d users after failed reconcile, want 0", repo.Len())
	}
}

// conflictRepo loses every uniqueness race, forcing the retry to exhaust.
type conflictRepo struct {
	calls int
}

func (c *conflictRepo) Ping(ctx context.Context) error { return nil }
func (c *conflictRepo) FindByProviderID(ctx context.Context, p oauth.ProviderID, id string) (*core.User, error) {
	return nil, core.ErrNotFound
}
func (c *conflictRepo) FindByEmail(ctx context.Context, email string) (*core.User, error) {
	return nil, core.ErrNotFound
}
func (c *conflictRepo) FindByID(ctx context.Context, id string) (*core.User, error) {
	return nil, core.ErrNotFound
}
func (c *conflictRepo) Insert(ctx context.Context, u *core.User) error {
	c.calls++
	return core.ErrConflict
}
func (c *conflictRepo) Update(ctx context.Context, u *core.User) error {
	return core.ErrConflict
}

func TestReconcileConflictRetryIsBounded(t *testing.T) {
	repo := &conflictRepo{}
	r := NewReconciler(repo)

	_, err := r.Reconcile(context.Background(), googleIdent())
	if !errors.Is(err, ErrReconciliationConflict) {
		t.Fatalf("want ErrReconciliationConflict, got %v", err)
	}
	if repo.calls != maxAttempts {
		t.Errorf("insert attempts = %d, want %d", repo.calls, maxAttempts)
	}
}
