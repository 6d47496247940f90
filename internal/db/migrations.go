package db

import (
	"context"
	"fmt"
)

// Schema for the tables backed by Postgres. Chat sessions live in memory
// or Redis, posts and guides in memory, so only users and comments appear here.
var migrations = []string{
	createUsersTable,
	createCommentsTable,
	createCommentIndexes,
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id                  TEXT PRIMARY KEY,
    email               TEXT NOT NULL,
    username            TEXT NOT NULL,
    avatar              TEXT NOT NULL DEFAULT '',
    password_hash       TEXT NOT NULL,
    plan                TEXT NOT NULL DEFAULT 'free',
    token_usage         INTEGER NOT NULL DEFAULT 0,
    token_limit         INTEGER NOT NULL DEFAULT 0,
    subscription_status TEXT NOT NULL DEFAULT 'none',
    subscription_end    TIMESTAMPTZ,
    preferences         JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_login_at       TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (lower(email));
`

const createCommentsTable = `
CREATE TABLE IF NOT EXISTS comments (
    seq        BIGSERIAL,
    id         TEXT PRIMARY KEY,
    author     TEXT NOT NULL,
    avatar     TEXT NOT NULL DEFAULT '',
    content    TEXT NOT NULL,
    section    TEXT NOT NULL,
    parent_id  TEXT,
    user_id    TEXT NOT NULL,
    likes      INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0),
    is_edited  BOOLEAN NOT NULL DEFAULT false,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

const createCommentIndexes = `
CREATE INDEX IF NOT EXISTS idx_comments_section_seq ON comments (section, seq);
CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments (parent_id);
`

// Migrate applies the schema. Every statement is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	db.logger.Info("database schema up to date")
	return nil
}
