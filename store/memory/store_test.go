package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/custodian/folder"
	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/grantlog"
	"github.com/xraph/custodian/id"
	"github.com/xraph/custodian/inheritance"
	"github.com/xraph/custodian/store"
)

// Compile-time check that *Store implements store.Store.
var _ store.Store = (*Store)(nil)

func TestGrantUpsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := New()
	folderID := id.NewFolderID()

	g := &grant.Grant{
		ID:           id.NewGrantID(),
		UserID:       "alice",
		FolderID:     folderID,
		Level:        grant.LevelEdit,
		Capabilities: grant.CapabilitiesFor(grant.LevelEdit),
		GrantedBy:    "bob",
		GrantedAt:    time.Now().UTC(),
	}
	if err := s.UpsertGrant(ctx, g); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetGrant(ctx, "alice", folderID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Level != grant.LevelEdit {
		t.Fatalf("expected EDIT, got %s", got.Level)
	}

	// Upsert replaces the row keyed by (user, folder).
	g2 := &grant.Grant{
		ID:           id.NewGrantID(),
		UserID:       "alice",
		FolderID:     folderID,
		Level:        grant.LevelManage,
		Capabilities: grant.CapabilitiesFor(grant.LevelManage),
		GrantedBy:    "bob",
		GrantedAt:    time.Now().UTC(),
	}
	if err := s.UpsertGrant(ctx, g2); err != nil {
		t.Fatal(err)
	}

	got, err = s.GetGrant(ctx, "alice", folderID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Level != grant.LevelManage {
		t.Fatalf("expected MANAGE after upsert, got %s", got.Level)
	}

	list, err := s.ListGrantsForFolder(ctx, folderID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected exactly one direct grant, got %d", len(list))
	}
}

func TestGrantNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetGrant(ctx, "nobody", id.NewFolderID())
	if !errors.Is(err, grant.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExpiredGrantInvisible(t *testing.T) {
	ctx := context.Background()
	s := New()
	folderID := id.NewFolderID()
	past := time.Now().UTC().Add(-time.Hour)

	g := &grant.Grant{
		ID:        id.NewGrantID(),
		UserID:    "alice",
		FolderID:  folderID,
		Level:     grant.LevelView,
		GrantedBy: "bob",
		GrantedAt: past,
		ExpiresAt: &past,
	}
	if err := s.UpsertGrant(ctx, g); err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetGrant(ctx, "alice", folderID); !errors.Is(err, grant.ErrNotFound) {
		t.Fatalf("expired grant should read as absent, got %v", err)
	}

	list, err := s.ListGrantsForFolder(ctx, folderID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("expired grant should not be listed, got %d", len(list))
	}

	// Validity is expires_at > now: a grant expiring this instant is already
	// invisible, same as the SQL backends' read predicate.
	now := time.Now().UTC()
	g.ExpiresAt = &now
	if err := s.UpsertGrant(ctx, g); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetGrant(ctx, "alice", folderID); !errors.Is(err, grant.ErrNotFound) {
		t.Fatalf("grant expiring now should read as absent, got %v", err)
	}
}

func TestSweepExpiredGrants(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	for _, g := range []*grant.Grant{
		{ID: id.NewGrantID(), UserID: "a", FolderID: id.NewFolderID(), Level: grant.LevelView, ExpiresAt: &past},
		{ID: id.NewGrantID(), UserID: "b", FolderID: id.NewFolderID(), Level: grant.LevelView, ExpiresAt: &past},
		{ID: id.NewGrantID(), UserID: "c", FolderID: id.NewFolderID(), Level: grant.LevelView, ExpiresAt: &future},
		{ID: id.NewGrantID(), UserID: "d", FolderID: id.NewFolderID(), Level: grant.LevelView},
	} {
		if err := s.UpsertGrant(ctx, g); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.SweepExpiredGrants(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 swept, got %d", n)
	}

	// Unexpired rows survive.
	list, err := s.ListGrantsForUser(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatal("grant with future expiry should survive the sweep")
	}
}

func TestRuleUpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	s := New()
	parent := id.NewFolderID()
	child := id.NewFolderID()

	r := &inheritance.Rule{ID: id.NewRuleID(), ParentID: parent, ChildID: child, Inherit: true}
	if err := s.UpsertRule(ctx, r); err != nil {
		t.Fatal(err)
	}

	update := &inheritance.Rule{ID: id.NewRuleID(), ParentID: parent, ChildID: child, Inherit: false}
	if err := s.UpsertRule(ctx, update); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetRule(ctx, parent, child)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != r.ID {
		t.Error("upsert should keep the original rule ID")
	}
	if got.Inherit {
		t.Error("upsert should apply the new inherit flag")
	}
}

func TestRuleNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.GetRule(ctx, id.NewFolderID(), id.NewFolderID())
	if !errors.Is(err, inheritance.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFolderCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	root := &folder.Folder{ID: id.NewFolderID(), OwnerID: "alice", Name: "activities"}
	if err := s.CreateFolder(ctx, root); err != nil {
		t.Fatal(err)
	}

	child := &folder.Folder{
		ID:       id.NewFolderID(),
		OwnerID:  "alice",
		Name:     "quizzes",
		ParentID: &root.ID,
		Path:     []id.FolderID{root.ID},
	}
	if err := s.CreateFolder(ctx, child); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetFolder(ctx, child.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Path) != 1 || got.Path[0] != root.ID {
		t.Fatalf("unexpected path: %v", got.Path)
	}

	children, err := s.ListChildFolders(ctx, root.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 1 || children[0].ID != child.ID {
		t.Fatal("child folder listing mismatch")
	}

	if err := s.DeleteFolder(ctx, child.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetFolder(ctx, child.ID); !errors.Is(err, folder.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestAuditLogFilterAndPurge(t *testing.T) {
	ctx := context.Background()
	s := New()
	folderID := id.NewFolderID()

	old := time.Now().UTC().Add(-48 * time.Hour)
	entries := []*grantlog.Entry{
		{ID: id.NewAuditLogID(), Event: grantlog.EventGranted, UserID: "alice", FolderID: folderID, PerformedBy: "bob", CreatedAt: old},
		{ID: id.NewAuditLogID(), Event: grantlog.EventRevoked, UserID: "alice", FolderID: folderID, PerformedBy: "bob"},
		{ID: id.NewAuditLogID(), Event: grantlog.EventGranted, UserID: "carol", FolderID: id.NewFolderID(), PerformedBy: "bob"},
	}
	for _, e := range entries {
		if err := s.CreateEntry(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.ListEntries(ctx, &grantlog.QueryFilter{UserID: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 entries for alice, got %d", len(list))
	}
	if list[0].Event != grantlog.EventRevoked {
		t.Error("entries should come back newest first")
	}

	n, err := s.CountEntries(ctx, &grantlog.QueryFilter{Event: grantlog.EventGranted})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 granted entries, got %d", n)
	}

	purged, err := s.PurgeEntries(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged entry, got %d", purged)
	}
}
