package database

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates the ballot tables. Safe to call repeatedly.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS members (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_members_tenant ON members(tenant_id);

CREATE TABLE IF NOT EXISTS ballots (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    title TEXT NOT NULL CHECK (title <> ''),
    description TEXT,
    question_type TEXT NOT NULL CHECK (question_type IN ('yes_no', 'single_choice', 'multi_choice')),
    options JSONB NOT NULL DEFAULT '[]',
    open_at TIMESTAMPTZ NOT NULL,
    close_at TIMESTAMPTZ NOT NULL,
    quorum_pct INTEGER CHECK (quorum_pct BETWEEN 1 AND 100),
    linked_initiative_id TEXT,
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'open', 'closed', 'results_published')),
    eligible_voters BIGINT,
    created_by TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    opened_at TIMESTAMPTZ,
    closed_at TIMESTAMPTZ,
    published_at TIMESTAMPTZ,
    CHECK (close_at > open_at)
);

CREATE INDEX IF NOT EXISTS idx_ballots_tenant_status ON ballots(tenant_id, status);

CREATE TABLE IF NOT EXISTS votes (
    id TEXT PRIMARY KEY,
    ballot_id TEXT NOT NULL REFERENCES ballots(id) ON DELETE RESTRICT,
    voter_id TEXT NOT NULL,
    selected_options JSONB NOT NULL,
    voted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (ballot_id, voter_id)
);

CREATE INDEX IF NOT EXISTS idx_votes_ballot ON votes(ballot_id, voted_at);
`
