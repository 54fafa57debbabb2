package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/custodian/folder"
	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/grantlog"
	"github.com/xraph/custodian/id"
	"github.com/xraph/custodian/inheritance"
	"github.com/xraph/custodian/store"
)

// Collection name constants.
const (
	colGrants    = "custodian_grants"
	colRules     = "custodian_inheritance_rules"
	colFolders   = "custodian_folders"
	colGrantLogs = "custodian_grant_logs"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite Custodian store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all custodian collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("custodian/mongo: migrate %s indexes: %w", col, err)
		}
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

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// notExpired matches documents whose expiry is absent or in the future.
func notExpired(t time.Time) bson.A {
	return bson.A{
		bson.M{"expires_at": bson.M{"$exists": false}},
		bson.M{"expires_at": nil},
		bson.M{"expires_at": bson.M{"$gt": t}},
	}
}

// migrationIndexes returns the index definitions for all custodian collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colGrants: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "folder_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "folder_id", Value: 1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		},
		colRules: {
			{
				Keys:    bson.D{{Key: "parent_id", Value: 1}, {Key: "child_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "child_id", Value: 1}}},
		},
		colFolders: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
			{Keys: bson.D{{Key: "parent_id", Value: 1}}},
		},
		colGrantLogs: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "folder_id", Value: 1}}},
			{Keys: bson.D{{Key: "event", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) UpsertGrant(ctx context.Context, g *grant.Grant) error {
	t := now()
	g.CreatedAt = t
	g.UpdatedAt = t

	// A replace keeps the original document creation time.
	var existing grantModel
	err := s.mdb.NewFind(&existing).
		Filter(bson.M{"user_id": g.UserID, "folder_id": g.FolderID.String()}).
		Scan(ctx)
	switch {
	case err == nil:
		g.CreatedAt = existing.CreatedAt
	case !isNoDocuments(err):
		return fmt.Errorf("custodian: upsert grant: %w", err)
	}

	_, err = s.mdb.NewDelete((*grantModel)(nil)).
		Many().
		Filter(bson.M{"user_id": g.UserID, "folder_id": g.FolderID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: upsert grant: %w", err)
	}

	m := grantToModel(g)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: upsert grant: %w", err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, userID string, folderID id.FolderID) (*grant.Grant, error) {
	var m grantModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"user_id":   userID,
			"folder_id": folderID.String(),
			"$or":       notExpired(now()),
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("grant %s/%s: %w", userID, folderID, grant.ErrNotFound)
		}
		return nil, fmt.Errorf("custodian: get grant: %w", err)
	}
	return grantFromModel(&m), nil
}

func (s *Store) DeleteGrant(ctx context.Context, userID string, folderID id.FolderID) error {
	_, err := s.mdb.NewDelete((*grantModel)(nil)).
		Many().
		Filter(bson.M{"user_id": userID, "folder_id": folderID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: delete grant: %w", err)
	}
	return nil
}

func (s *Store) ListGrantsForFolder(ctx context.Context, folderID id.FolderID) ([]*grant.Grant, error) {
	var models []grantModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{
			"folder_id": folderID.String(),
			"$or":       notExpired(now()),
		}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
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
	err := s.mdb.NewFind(&models).
		Filter(bson.M{
			"user_id": userID,
			"$or":     notExpired(now()),
		}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
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

func (s *Store) SweepExpiredGrants(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*grantModel)(nil)).
		Many().
		Filter(bson.M{"expires_at": bson.M{"$lt": t}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("custodian: sweep expired grants: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) DeleteGrantsByFolder(ctx context.Context, folderID id.FolderID) error {
	_, err := s.mdb.NewDelete((*grantModel)(nil)).
		Many().
		Filter(bson.M{"folder_id": folderID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: delete grants by folder: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Inheritance rule operations
// ──────────────────────────────────────────────────

func (s *Store) UpsertRule(ctx context.Context, r *inheritance.Rule) error {
	t := now()
	r.CreatedAt = t
	r.UpdatedAt = t

	// An update keeps the existing rule identity.
	var existing ruleModel
	err := s.mdb.NewFind(&existing).
		Filter(bson.M{"parent_id": r.ParentID.String(), "child_id": r.ChildID.String()}).
		Scan(ctx)
	switch {
	case err == nil:
		if rid, perr := id.ParseRuleID(existing.ID); perr == nil {
			r.ID = rid
		}
		r.CreatedAt = existing.CreatedAt

		m := ruleToModel(r)
		res, err := s.mdb.NewUpdate(m).
			Filter(bson.M{"_id": m.ID}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("custodian: upsert rule: %w", err)
		}
		if res.MatchedCount() == 0 {
			return fmt.Errorf("rule %s: %w", r.ID, inheritance.ErrNotFound)
		}
		return nil
	case !isNoDocuments(err):
		return fmt.Errorf("custodian: upsert rule: %w", err)
	}

	m := ruleToModel(r)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: upsert rule: %w", err)
	}
	return nil
}

func (s *Store) GetRule(ctx context.Context, parentID, childID id.FolderID) (*inheritance.Rule, error) {
	var m ruleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"parent_id": parentID.String(), "child_id": childID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("rule %s/%s: %w", parentID, childID, inheritance.ErrNotFound)
		}
		return nil, fmt.Errorf("custodian: get rule: %w", err)
	}
	return ruleFromModel(&m), nil
}

func (s *Store) ListRulesForParent(ctx context.Context, parentID id.FolderID) ([]*inheritance.Rule, error) {
	var models []ruleModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"parent_id": parentID.String()}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
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
	_, err := s.mdb.NewDelete((*ruleModel)(nil)).
		Many().
		Filter(bson.M{"parent_id": parentID.String(), "child_id": childID.String()}).
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
	t := now()
	f.CreatedAt = t
	f.UpdatedAt = t
	m := folderToModel(f)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: create folder: %w", err)
	}
	return nil
}

func (s *Store) GetFolder(ctx context.Context, folderID id.FolderID) (*folder.Folder, error) {
	var m folderModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": folderID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("folder %s: %w", folderID, folder.ErrNotFound)
		}
		return nil, fmt.Errorf("custodian: get folder: %w", err)
	}
	return folderFromModel(&m), nil
}

func (s *Store) DeleteFolder(ctx context.Context, folderID id.FolderID) error {
	_, err := s.mdb.NewDelete((*folderModel)(nil)).
		Filter(bson.M{"_id": folderID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: delete folder: %w", err)
	}
	return nil
}

func (s *Store) ListChildFolders(ctx context.Context, parentID id.FolderID) ([]*folder.Folder, error) {
	var models []folderModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"parent_id": parentID.String()}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
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
		e.CreatedAt = now()
	}
	m := grantLogToModel(e)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: create audit entry: %w", err)
	}
	return nil
}

func auditFilter(filter *grantlog.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.Event != "" {
		f["event"] = string(filter.Event)
	}
	if filter.UserID != "" {
		f["user_id"] = filter.UserID
	}
	if !filter.FolderID.IsNil() {
		f["folder_id"] = filter.FolderID.String()
	}
	if filter.PerformedBy != "" {
		f["performed_by"] = filter.PerformedBy
	}
	created := bson.M{}
	if filter.After != nil {
		created["$gte"] = *filter.After
	}
	if filter.Before != nil {
		created["$lte"] = *filter.Before
	}
	if len(created) > 0 {
		f["created_at"] = created
	}
	return f
}

func (s *Store) ListEntries(ctx context.Context, filter *grantlog.QueryFilter) ([]*grantlog.Entry, error) {
	var models []grantLogModel
	q := s.mdb.NewFind(&models).
		Filter(auditFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*grantLogModel)(nil)).
		Filter(auditFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("custodian: count audit entries: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeEntries(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*grantLogModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("custodian: purge audit entries: %w", err)
	}
	return res.DeletedCount(), nil
}
