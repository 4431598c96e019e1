// Package pg implements the user repository on PostgreSQL using pgxpool.
// Uniqueness constraints on email, username and the per-provider id columns
// are the concurrency-control mechanism: violations surface as
// core.ErrConflict and drive the reconciliation retry.
package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/automl-platform/authgw/internal/oauth"
	"github.com/automl-platform/authgw/internal/store/core"
)

// providerColumn maps a provider to its id column. Total over the closed
// provider set; a new provider fails loudly here instead of silently
// falling through a string-built column name.
func providerColumn(p oauth.ProviderID) (string, error) {
	switch p {
	case oauth.Google:
		return "google_id", nil
	case oauth.Kakao:
		return "kakao_id", nil
	case oauth.Naver:
		return "naver_id", nil
	default:
		return "", fmt.Errorf("%w: %q", oauth.ErrUnsupportedProvider, p)
	}
}

// Repository is the PostgreSQL-backed core.UserRepository.
type Repository struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Connect opens a pool for the DSN and pings it.
func Connect(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// Close releases the pool.
func (r *Repository) Close() { r.pool.Close() }

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

const userColumns = `id, email, username, display_name, credential_hash,
	is_active, is_verified, created_at, google_id, kakao_id, naver_id`

func scanUser(row pgx.Row) (*core.User, error) {
	var u core.User
	var googleID, kakaoID, naverID *string
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.DisplayName, &u.CredentialHash,
		&u.IsActive, &u.IsVerified, &u.CreatedAt,
		&googleID, &kakaoID, &naverID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if googleID != nil {
		u.SetProviderID(oauth.Google, *googleID)
	}
	if kakaoID != nil {
		u.SetProviderID(oauth.Kakao, *kakaoID)
	}
	if naverID != nil {
		u.SetProviderID(oauth.Naver, *naverID)
	}
	return &u, nil
}

func (r *Repository) FindByProviderID(ctx context.Context, p oauth.ProviderID, providerUserID string) (*core.User, error) {
	col, err := providerColumn(p)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT %s FROM users WHERE %s=$1 LIMIT 1`, userColumns, col)
	return scanUser(r.pool.QueryRow(ctx, q, providerUserID))
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*core.User, error) {
	q := fmt.Sprintf(`SELECT %s FROM users WHERE email=$1 LIMIT 1`, userColumns)
	return scanUser(r.pool.QueryRow(ctx, q, email))
}

func (r *Repository) FindByID(ctx context.Context, id string) (*core.User, error) {
	q := fmt.Sprintf(`SELECT %s FROM users WHERE id=$1 LIMIT 1`, userColumns)
	return scanUser(r.pool.QueryRow(ctx, q, id))
}

// usernameAttempts bounds the store-owned collision suffixing on Insert.
const usernameAttempts = 5

// Insert persists a new user. Username collisions are resolved by suffixing
// (-2, -3, ...) up to a small bound; email or provider-id collisions are
// reported as core.ErrConflict for the caller to re-reconcile.
func (r *Repository) Insert(ctx context.Context, u *core.User) error {
	base := u.Username
	for attempt := 0; attempt < usernameAttempts; attempt++ {
		username := base
		if attempt > 0 {
			username = fmt.Sprintf("%s-%d", base, attempt+1)
		}

		q := `INSERT INTO users
			(email, username, display_name, credential_hash, is_active, is_verified,
			 google_id, kakao_id, naver_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING id, created_at`
		err := r.pool.QueryRow(ctx, q,
			u.Email, username, u.DisplayName, u.CredentialHash,
			u.IsActive, u.IsVerified,
			nullable(u.ProviderID(oauth.Google)),
			nullable(u.ProviderID(oauth.Kakao)),
			nullable(u.ProviderID(oauth.Naver)),
		).Scan(&u.ID, &u.CreatedAt)

		if err == nil {
			u.Username = username
			return nil
		}
		if isUniqueViolation(err, "username") {
			continue
		}
		if isUniqueViolation(err, "") {
			return core.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return core.ErrConflict
}

// Update persists mutable fields and provider linkage.
func (r *Repository) Update(ctx context.Context, u *core.User) error {
	q := `UPDATE users SET
			display_name=$2, is_active=$3, is_verified=$4,
			google_id=$5, kakao_id=$6, naver_id=$7
		WHERE id=$1`
	ct, err := r.pool.Exec(ctx, q,
		u.ID, u.DisplayName, u.IsActive, u.IsVerified,
		nullable(u.ProviderID(oauth.Google)),
		nullable(u.ProviderID(oauth.Kakao)),
		nullable(u.ProviderID(oauth.Naver)),
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return core.ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// nullable returns nil for empty strings so optional columns stay NULL
// (a UNIQUE column full of empty strings would collide with itself).
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// isUniqueViolation reports whether err is SQLSTATE 23505, optionally
// restricted to constraints whose name contains the given fragment.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	if constraint == "" {
		return true
	}
	return strings.Contains(pgErr.ConstraintName, constraint)
}
