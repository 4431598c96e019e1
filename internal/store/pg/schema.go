package pg

import (
	"context"
	"fmt"
)

// Schema is the users table. The three provider id columns are UNIQUE and
// nullable: per provider, at most one user may hold a given external id.
const Schema = `
CREATE EXTENSION IF NOT EXISTS pgcrypto;

CREATE TABLE IF NOT EXISTS users (
	id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	email           TEXT NOT NULL,
	username        TEXT NOT NULL,
	display_name    TEXT NOT NULL DEFAULT '',
	credential_hash TEXT NOT NULL DEFAULT '',
	is_active       BOOLEAN NOT NULL DEFAULT TRUE,
	is_verified     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	google_id       TEXT,
	kakao_id        TEXT,
	naver_id        TEXT,
	CONSTRAINT users_email_key     UNIQUE (email),
	CONSTRAINT users_username_key  UNIQUE (username),
	CONSTRAINT users_google_id_key UNIQUE (google_id),
	CONSTRAINT users_kakao_id_key  UNIQUE (kakao_id),
	CONSTRAINT users_naver_id_key  UNIQUE (naver_id)
);
`

// EnsureSchema creates the users table if it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
