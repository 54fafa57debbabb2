// Package postgres provides a PostgreSQL implementation of the Custodian
// composite store using grove ORM with Go-based migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/custodian/folder"
	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/grantlog"
	"github.com/xraph/custodian/id"
	"github.com/xraph/custodian/inheritance"
	"github.com/xraph/custodian/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a PostgreSQL implementation of the composite Custodian store.
type Store struct {
	db   *grove.DB
	pgdb *pgdriver.PgDB
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	return &Store{
		db:   db,
		pgdb: pgdriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("custodian: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("custodian: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) UpsertGrant(ctx context.Context, g *grant.Grant) error {
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now

	// A replace keeps the original row creation time.
	existing := new(grantModel)
	err := s.pgdb.NewSelect(existing).
		Where("user_id = ?", g.UserID).
		Where("folder_id = ?", g.FolderID.String()).
		Scan(ctx)
	switch {
	case err == nil:
		g.CreatedAt = existing.CreatedAt
	case !isNoRows(err):
		return fmt.Errorf("custodian: upsert grant: %w", err)
	}

	m := grantToModel(g)

	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("custodian: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	_, err = tx.NewDelete((*grantModel)(nil)).
		Where("user_id = ?", g.UserID).
		Where("folder_id = ?", g.FolderID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: upsert grant: %w", err)
	}
	if _, err := tx.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: upsert grant: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("custodian: commit tx: %w", err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, userID string, folderID id.FolderID) (*grant.Grant, error) {
	m := new(grantModel)
	err := s.pgdb.NewSelect(m).
		Where("user_id = ?", userID).
		Where("folder_id = ?", folderID.String()).
		Where("(expires_at IS NULL OR expires_at > ?)", time.Now().UTC()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("grant %s/%s: %w", userID, folderID, grant.ErrNotFound)
		}
		return nil, fmt.Errorf("custodian: get grant: %w", err)
	}
	return grantFromModel(m), nil
}

func (s *Store) DeleteGrant(ctx context.Context, userID string, folderID id.FolderID) error {
	_, err := s.pgdb.NewDelete((*grantModel)(nil)).
		Where("user_id = ?", userID).
		Where("folder_id = ?", folderID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: delete grant: %w", err)
	}
	return nil
}

func (s *Store) ListGrantsForFolder(ctx context.Context, folderID id.FolderID) ([]*grant.Grant, error) {
	var models []grantModel
	err := s.pgdb.NewSelect(&models).
		Where("folder_id = ?", folderID.String()).
		Where("(expires_at IS NULL OR expires_at > ?)", time.Now().UTC()).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("custodian: list grants for folder: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		result[i] = grantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) ListGrantsForUser(ctx context.Context, userID string) ([]*grant.Grant, error) {
	var models []grantModel
	err := s.pgdb.NewSelect(&models).
		Where("user_id = ?", userID).
		Where("(expires_at IS NULL OR expires_at > ?)", time.Now().UTC()).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("custodian: list grants for user: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		result[i] = grantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) SweepExpiredGrants(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.pgdb.NewDelete((*grantModel)(nil)).
		Where("expires_at IS NOT NULL").
		Where("expires_at < ?", now).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("custodian: sweep expired grants: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("custodian: sweep expired grants rows: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteGrantsByFolder(ctx context.Context, folderID id.FolderID) error {
	_, err := s.pgdb.NewDelete((*grantModel)(nil)).
		Where("folder_id = ?", folderID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: delete grants by folder: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Inheritance rule operations
// ──────────────────────────────────────────────────

func (s *Store) UpsertRule(ctx context.Context, r *inheritance.Rule) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	// An update keeps the existing rule identity.
	existing := new(ruleModel)
	err := s.pgdb.NewSelect(existing).
		Where("parent_id = ?", r.ParentID.String()).
		Where("child_id = ?", r.ChildID.String()).
		Scan(ctx)
	switch {
	case err == nil:
		if rid, perr := id.ParseRuleID(existing.ID); perr == nil {
			r.ID = rid
		}
		r.CreatedAt = existing.CreatedAt
	case !isNoRows(err):
		return fmt.Errorf("custodian: upsert rule: %w", err)
	}

	m := ruleToModel(r)

	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("custodian: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	_, err = tx.NewDelete((*ruleModel)(nil)).
		Where("parent_id = ?", r.ParentID.String()).
		Where("child_id = ?", r.ChildID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: upsert rule: %w", err)
	}
	if _, err := tx.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: upsert rule: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("custodian: commit tx: %w", err)
	}
	return nil
}

func (s *Store) GetRule(ctx context.Context, parentID, childID id.FolderID) (*inheritance.Rule, error) {
	m := new(ruleModel)
	err := s.pgdb.NewSelect(m).
		Where("parent_id = ?", parentID.String()).
		Where("child_id = ?", childID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("rule %s/%s: %w", parentID, childID, inheritance.ErrNotFound)
		}
		return nil, fmt.Errorf("custodian: get rule: %w", err)
	}
	return ruleFromModel(m), nil
}

func (s *Store) ListRulesForParent(ctx context.Context, parentID id.FolderID) ([]*inheritance.Rule, error) {
	var models []ruleModel
	err := s.pgdb.NewSelect(&models).
		Where("parent_id = ?", parentID.String()).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("custodian: list rules for parent: %w", err)
	}
	result := make([]*inheritance.Rule, len(models))
	for i := range models {
		result[i] = ruleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteRule(ctx context.Context, parentID, childID id.FolderID) error {
	_, err := s.pgdb.NewDelete((*ruleModel)(nil)).
		Where("parent_id = ?", parentID.String()).
		Where("child_id = ?", childID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: delete rule: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Folder operations
// ──────────────────────────────────────────────────

func (s *Store) CreateFolder(ctx context.Context, f *folder.Folder) error {
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now
	m := folderToModel(f)
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: create folder: %w", err)
	}
	return nil
}

func (s *Store) GetFolder(ctx context.Context, folderID id.FolderID) (*folder.Folder, error) {
	m := new(folderModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", folderID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("folder %s: %w", folderID, folder.ErrNotFound)
		}
		return nil, fmt.Errorf("custodian: get folder: %w", err)
	}
	return folderFromModel(m), nil
}

func (s *Store) DeleteFolder(ctx context.Context, folderID id.FolderID) error {
	_, err := s.pgdb.NewDelete((*folderModel)(nil)).
		Where("id = ?", folderID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: delete folder: %w", err)
	}
	return nil
}

func (s *Store) ListChildFolders(ctx context.Context, parentID id.FolderID) ([]*folder.Folder, error) {
	var models []folderModel
	err := s.pgdb.NewSelect(&models).
		Where("parent_id = ?", parentID.String()).
		OrderExpr("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("custodian: list child folders: %w", err)
	}
	result := make([]*folder.Folder, len(models))
	for i := range models {
		result[i] = folderFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Audit log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateEntry(ctx context.Context, e *grantlog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m := grantLogToModel(e)
	if _, err := s.pgdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: create audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListEntries(ctx context.Context, filter *grantlog.QueryFilter) ([]*grantlog.Entry, error) {
	var models []grantLogModel
	q := s.pgdb.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.Event != "" {
			q = q.Where("event = ?", string(filter.Event))
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if !filter.FolderID.IsNil() {
			q = q.Where("folder_id = ?", filter.FolderID.String())
		}
		if filter.PerformedBy != "" {
			q = q.Where("performed_by = ?", filter.PerformedBy)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("custodian: list audit entries: %w", err)
	}
	result := make([]*grantlog.Entry, len(models))
	for i := range models {
		result[i] = grantLogFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountEntries(ctx context.Context, filter *grantlog.QueryFilter) (int64, error) {
	q := s.pgdb.NewSelect((*grantLogModel)(nil))
	if filter != nil {
		if filter.Event != "" {
			q = q.Where("event = ?", string(filter.Event))
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if !filter.FolderID.IsNil() {
			q = q.Where("folder_id = ?", filter.FolderID.String())
		}
		if filter.PerformedBy != "" {
			q = q.Where("performed_by = ?", filter.PerformedBy)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("custodian: count audit entries: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeEntries(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.pgdb.NewDelete((*grantLogModel)(nil)).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("custodian: purge audit entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("custodian: purge audit entries rows: %w", err)
	}
	return n, nil
}
