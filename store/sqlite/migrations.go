package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Custodian store (SQLite).
var Migrations = migrate.NewGroup("custodian")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_folders",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS custodian_folders (
    id              TEXT PRIMARY KEY,
    owner_id        TEXT NOT NULL,
    name            TEXT NOT NULL,
    parent_id       TEXT,
    path            TEXT NOT NULL DEFAULT '[]',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_custodian_folders_owner ON custodian_folders (owner_id);
CREATE INDEX IF NOT EXISTS idx_custodian_folders_parent ON custodian_folders (parent_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS custodian_folders`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_grants",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS custodian_grants (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    folder_id       TEXT NOT NULL REFERENCES custodian_folders(id) ON DELETE CASCADE,
    level           TEXT NOT NULL,
    capabilities    TEXT NOT NULL DEFAULT '{}',
    granted_by      TEXT NOT NULL DEFAULT '',
    granted_at      TEXT NOT NULL DEFAULT (datetime('now')),
    expires_at      TEXT,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE(user_id, folder_id)
);

CREATE INDEX IF NOT EXISTS idx_custodian_grants_user ON custodian_grants (user_id);
CREATE INDEX IF NOT EXISTS idx_custodian_grants_folder ON custodian_grants (folder_id);
CREATE INDEX IF NOT EXISTS idx_custodian_grants_expires ON custodian_grants (expires_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS custodian_grants`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_inheritance_rules",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS custodian_inheritance_rules (
    id              TEXT PRIMARY KEY,
    parent_id       TEXT NOT NULL REFERENCES custodian_folders(id) ON DELETE CASCADE,
    child_id        TEXT NOT NULL REFERENCES custodian_folders(id) ON DELETE CASCADE,
    inherit         INTEGER NOT NULL DEFAULT 1,
    overrides       TEXT NOT NULL DEFAULT '{}',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE(parent_id, child_id)
);

CREATE INDEX IF NOT EXISTS idx_custodian_rules_parent ON custodian_inheritance_rules (parent_id);
CREATE INDEX IF NOT EXISTS idx_custodian_rules_child ON custodian_inheritance_rules (child_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS custodian_inheritance_rules`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_grant_logs",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS custodian_grant_logs (
    id              TEXT PRIMARY KEY,
    event           TEXT NOT NULL,
    user_id         TEXT NOT NULL DEFAULT '',
    folder_id       TEXT NOT NULL DEFAULT '',
    level           TEXT NOT NULL DEFAULT '',
    performed_by    TEXT NOT NULL,
    detail          TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_custodian_glogs_user ON custodian_grant_logs (user_id);
CREATE INDEX IF NOT EXISTS idx_custodian_glogs_folder ON custodian_grant_logs (folder_id);
CREATE INDEX IF NOT EXISTS idx_custodian_glogs_event ON custodian_grant_logs (event);
CREATE INDEX IF NOT EXISTS idx_custodian_glogs_created ON custodian_grant_logs (created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS custodian_grant_logs`)
				return err
			},
		},
	)
}
