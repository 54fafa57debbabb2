// Package memory provides an in-memory implementation of the Custodian
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xraph/custodian/folder"
	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/grantlog"
	"github.com/xraph/custodian/id"
	"github.com/xraph/custodian/inheritance"
)

// Compile-time interface checks.
var (
	_ grant.Store       = (*Store)(nil)
	_ inheritance.Store = (*Store)(nil)
	_ folder.Store      = (*Store)(nil)
	_ grantlog.Store    = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all Custodian entities.
type Store struct {
	mu sync.RWMutex

	grants  map[string]*grant.Grant      // "userID|folderID" -> grant
	rules   map[string]*inheritance.Rule // "parentID|childID" -> rule
	folders map[string]*folder.Folder    // folderID -> folder
	entries map[string]*grantlog.Entry   // entryID -> audit entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		grants:  make(map[string]*grant.Grant),
		rules:   make(map[string]*inheritance.Rule),
		folders: make(map[string]*folder.Folder),
		entries: make(map[string]*grantlog.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

func grantKey(userID string, folderID id.FolderID) string {
	return userID + "|" + folderID.String()
}

func ruleKey(parentID, childID id.FolderID) string {
	return parentID.String() + "|" + childID.String()
}

// ──────────────────────────────────────────────────
// Grant store
// ──────────────────────────────────────────────────

func (s *Store) UpsertGrant(_ context.Context, g *grant.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	key := grantKey(g.UserID, g.FolderID)
	if existing, ok := s.grants[key]; ok {
		g.CreatedAt = existing.CreatedAt
	} else {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	s.grants[key] = copyGrant(g)
	return nil
}

func (s *Store) GetGrant(_ context.Context, userID string, folderID id.FolderID) (*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[grantKey(userID, folderID)]
	if !ok || g.Expired(time.Now().UTC()) {
		return nil, fmt.Errorf("grant %s on %s: %w", userID, folderID, grant.ErrNotFound)
	}
	return copyGrant(g), nil
}

func (s *Store) DeleteGrant(_ context.Context, userID string, folderID id.FolderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, grantKey(userID, folderID))
	return nil
}

func (s *Store) ListGrantsForFolder(_ context.Context, folderID id.FolderID) ([]*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now().UTC()
	var result []*grant.Grant
	for _, g := range s.grants {
		if g.FolderID == folderID && !g.Expired(now) {
			result = append(result, copyGrant(g))
		}
	}
	return result, nil
}

func (s *Store) ListGrantsForUser(_ context.Context, userID string) ([]*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now().UTC()
	var result []*grant.Grant
	for _, g := range s.grants {
		if g.UserID == userID && !g.Expired(now) {
			result = append(result, copyGrant(g))
		}
	}
	return result, nil
}

func (s *Store) SweepExpiredGrants(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, g := range s.grants {
		if g.ExpiresAt != nil && g.ExpiresAt.Before(now) {
			delete(s.grants, key)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteGrantsByFolder(_ context.Context, folderID id.FolderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, g := range s.grants {
		if g.FolderID == folderID {
			delete(s.grants, key)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Inheritance store
// ──────────────────────────────────────────────────

func (s *Store) UpsertRule(_ context.Context, r *inheritance.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	key := ruleKey(r.ParentID, r.ChildID)
	if existing, ok := s.rules[key]; ok {
		r.ID = existing.ID
		r.CreatedAt = existing.CreatedAt
	} else {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	s.rules[key] = copyRule(r)
	return nil
}

func (s *Store) GetRule(_ context.Context, parentID, childID id.FolderID) (*inheritance.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[ruleKey(parentID, childID)]
	if !ok {
		return nil, fmt.Errorf("rule %s -> %s: %w", parentID, childID, inheritance.ErrNotFound)
	}
	return copyRule(r), nil
}

func (s *Store) ListRulesForParent(_ context.Context, parentID id.FolderID) ([]*inheritance.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*inheritance.Rule
	for _, r := range s.rules {
		if r.ParentID == parentID {
			result = append(result, copyRule(r))
		}
	}
	return result, nil
}

func (s *Store) DeleteRule(_ context.Context, parentID, childID id.FolderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rules, ruleKey(parentID, childID))
	return nil
}

// ──────────────────────────────────────────────────
// Folder store
// ──────────────────────────────────────────────────

func (s *Store) CreateFolder(_ context.Context, f *folder.Folder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now
	s.folders[f.ID.String()] = copyFolder(f)
	return nil
}

func (s *Store) GetFolder(_ context.Context, folderID id.FolderID) (*folder.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.folders[folderID.String()]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", folderID, folder.ErrNotFound)
	}
	return copyFolder(f), nil
}

func (s *Store) DeleteFolder(_ context.Context, folderID id.FolderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.folders, folderID.String())
	return nil
}

func (s *Store) ListChildFolders(_ context.Context, parentID id.FolderID) ([]*folder.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*folder.Folder
	for _, f := range s.folders {
		if f.ParentID != nil && *f.ParentID == parentID {
			result = append(result, copyFolder(f))
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Audit log store
// ──────────────────────────────────────────────────

func (s *Store) CreateEntry(_ context.Context, e *grantlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	copied := *e
	s.entries[e.ID.String()] = &copied
	return nil
}

func (s *Store) ListEntries(_ context.Context, filter *grantlog.QueryFilter) ([]*grantlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*grantlog.Entry
	for _, e := range s.entries {
		if !matchEntry(e, filter) {
			continue
		}
		copied := *e
		result = append(result, &copied)
	}
	sortEntriesNewestFirst(result)
	return applyPagination(result, filter), nil
}

func (s *Store) CountEntries(_ context.Context, filter *grantlog.QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.entries {
		if matchEntry(e, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) PurgeEntries(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, e := range s.entries {
		if e.CreatedAt.Before(before) {
			delete(s.entries, key)
			n++
		}
	}
	return n, nil
}

func matchEntry(e *grantlog.Entry, f *grantlog.QueryFilter) bool {
	if f == nil {
		return true
	}
	if f.Event != "" && e.Event != f.Event {
		return false
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if !f.FolderID.IsNil() && e.FolderID != f.FolderID {
		return false
	}
	if f.PerformedBy != "" && e.PerformedBy != f.PerformedBy {
		return false
	}
	if f.After != nil && e.CreatedAt.Before(*f.After) {
		return false
	}
	if f.Before != nil && e.CreatedAt.After(*f.Before) {
		return false
	}
	return true
}

func sortEntriesNewestFirst(entries []*grantlog.Entry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].CreatedAt.After(entries[j-1].CreatedAt); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

func applyPagination(items []*grantlog.Entry, f *grantlog.QueryFilter) []*grantlog.Entry {
	if f == nil {
		return items
	}
	if f.Offset > 0 {
		if f.Offset >= len(items) {
			return nil
		}
		items = items[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(items) {
		items = items[:f.Limit]
	}
	return items
}

// ──────────────────────────────────────────────────
// Copy helpers — callers never share memory with the store.
// ──────────────────────────────────────────────────

func copyGrant(g *grant.Grant) *grant.Grant {
	copied := *g
	if g.InheritedFrom != nil {
		v := *g.InheritedFrom
		copied.InheritedFrom = &v
	}
	if g.ExpiresAt != nil {
		v := *g.ExpiresAt
		copied.ExpiresAt = &v
	}
	return &copied
}

func copyRule(r *inheritance.Rule) *inheritance.Rule {
	copied := *r
	copied.Overrides = copyOverrides(r.Overrides)
	return &copied
}

func copyOverrides(o inheritance.Overrides) inheritance.Overrides {
	cp := func(b *bool) *bool {
		if b == nil {
			return nil
		}
		v := *b
		return &v
	}
	return inheritance.Overrides{
		Read:              cp(o.Read),
		Write:             cp(o.Write),
		Delete:            cp(o.Delete),
		Share:             cp(o.Share),
		ManagePermissions: cp(o.ManagePermissions),
		CreateSubfolder:   cp(o.CreateSubfolder),
		Move:              cp(o.Move),
		Copy:              cp(o.Copy),
	}
}

func copyFolder(f *folder.Folder) *folder.Folder {
	copied := *f
	if f.ParentID != nil {
		v := *f.ParentID
		copied.ParentID = &v
	}
	if f.Path != nil {
		copied.Path = make([]id.FolderID, len(f.Path))
		copy(copied.Path, f.Path)
	}
	return &copied
}
