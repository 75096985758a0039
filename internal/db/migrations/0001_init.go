package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

func upInit(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE users (
            id text PRIMARY KEY,
            email text NOT NULL,
            password_hash text NOT NULL,
            two_factor_enabled boolean NOT NULL DEFAULT false,
            email_verified boolean NOT NULL DEFAULT false,
            created_at timestamptz NOT NULL DEFAULT now()
        )`,
		`CREATE UNIQUE INDEX users_email_lower_idx ON users (lower(email))`,
		`CREATE TABLE user_keys (
            user_id text PRIMARY KEY REFERENCES users (id) ON DELETE CASCADE,
            encrypted_symmetric_key text NOT NULL DEFAULT '',
            encrypted_private_key text NOT NULL DEFAULT '',
            public_key text NOT NULL DEFAULT '',
            kdf_iterations integer NOT NULL DEFAULT 100000
        )`,
		`CREATE TABLE sessions (
            id text PRIMARY KEY,
            user_id text NOT NULL REFERENCES users (id) ON DELETE CASCADE,
            access_token text NOT NULL UNIQUE,
            refresh_token text NOT NULL UNIQUE,
            access_expires_at timestamptz NOT NULL,
            refresh_expires_at timestamptz NOT NULL,
            created_at timestamptz NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX sessions_user_id_idx ON sessions (user_id)`,
		`CREATE TABLE folders (
            id text PRIMARY KEY,
            user_id text NOT NULL REFERENCES users (id) ON DELETE CASCADE,
            name text NOT NULL,
            seq bigserial
        )`,
		`CREATE INDEX folders_user_id_idx ON folders (user_id)`,
		`CREATE TABLE vault_items (
            id text PRIMARY KEY,
            user_id text NOT NULL REFERENCES users (id) ON DELETE CASCADE,
            item_type text NOT NULL,
            name text NOT NULL,
            username text,
            password text,
            url text,
            notes text,
            folder_id text,
            favorite boolean NOT NULL DEFAULT false,
            totp_secret text,
            last_modified timestamptz NOT NULL,
            seq bigserial
        )`,
		`CREATE INDEX vault_items_user_id_idx ON vault_items (user_id)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`DROP TABLE IF EXISTS vault_items`,
		`DROP TABLE IF EXISTS folders`,
		`DROP TABLE IF EXISTS sessions`,
		`DROP TABLE IF EXISTS user_keys`,
		`DROP TABLE IF EXISTS users`,
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
