package custodian

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/xraph/custodian/folder"
	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/id"
	"github.com/xraph/custodian/inheritance"
	"github.com/xraph/custodian/store/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	s := memory.New()
	svc, err := NewService(WithStore(s))
	if err != nil {
		t.Fatal(err)
	}
	return svc, s
}

// mkFolder creates a folder whose Path is derived from its parent chain.
func mkFolder(t *testing.T, s *memory.Store, ownerID string, parent *folder.Folder) *folder.Folder {
	t.Helper()
	f := &folder.Folder{
		ID:      id.NewFolderID(),
		OwnerID: ownerID,
		Name:    "folder",
	}
	if parent != nil {
		f.ParentID = &parent.ID
		f.Path = append(append([]id.FolderID{}, parent.Path...), parent.ID)
	}
	if err := s.CreateFolder(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	return f
}

func boolPtr(b bool) *bool { return &b }

func TestNewService_RequiresStore(t *testing.T) {
	_, err := NewService()
	if err == nil {
		t.Fatal("expected error when store is nil")
	}
}

func TestCheckOwnerBypass(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	f := mkFolder(t, s, "owner1", nil)

	result, err := svc.Check(ctx, &CheckRequest{
		Actor:    Actor{ID: "owner1", Role: RoleMember},
		FolderID: f.ID,
		Action:   grant.ActionManagePermissions,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Allowed || result.Decision != DecisionAllowOwner {
		t.Fatalf("expected owner allow, got %s", result.Decision)
	}
}

func TestCheckAdminBypass(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	f := mkFolder(t, s, "owner1", nil)

	result, err := svc.Check(ctx, &CheckRequest{
		Actor:    Actor{ID: "admin1", Role: RoleAdministrator},
		FolderID: f.ID,
		Action:   grant.ActionDelete,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Allowed || result.Decision != DecisionAllowAdmin {
		t.Fatalf("expected admin allow, got %s", result.Decision)
	}
}

func TestCheckFolderAbsentFailsClosed(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	result, err := svc.Check(ctx, &CheckRequest{
		Actor:    Actor{ID: "u1", Role: RoleMember},
		FolderID: id.NewFolderID(),
		Action:   grant.ActionRead,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Allowed {
		t.Fatal("missing folder must deny")
	}
	if result.Decision != DecisionDenyFolderNotFound {
		t.Fatalf("expected folder-not-found denial, got %s", result.Decision)
	}
}

func TestGrantAndCheck(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	owner := Actor{ID: "owner1", Role: RoleMember}
	f := mkFolder(t, s, owner.ID, nil)

	g, err := svc.Grant(ctx, owner, "u1", f.ID, grant.LevelEdit, nil)
	if err != nil {
		t.Fatal(err)
	}
	if g.Level != grant.LevelEdit || g.GrantedBy != owner.ID {
		t.Fatalf("unexpected grant: %+v", g)
	}

	result, err := svc.Check(ctx, &CheckRequest{
		Actor:    Actor{ID: "u1", Role: RoleMember},
		FolderID: f.ID,
		Action:   grant.ActionWrite,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Allowed || result.Decision != DecisionAllowDirect {
		t.Fatalf("expected direct allow, got %s: %s", result.Decision, result.Reason)
	}
	if result.Level != grant.LevelEdit {
		t.Fatalf("expected EDIT in result, got %s", result.Level)
	}

	// EDIT must not allow share.
	ok, err := svc.Can(ctx, Actor{ID: "u1", Role: RoleMember}, f.ID, grant.ActionShare)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("EDIT must not allow share")
	}
}

func TestGrantReplacesExisting(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	owner := Actor{ID: "owner1", Role: RoleMember}
	f := mkFolder(t, s, owner.ID, nil)

	if _, err := svc.Grant(ctx, owner, "u1", f.ID, grant.LevelManage, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Grant(ctx, owner, "u1", f.ID, grant.LevelView, nil); err != nil {
		t.Fatal(err)
	}

	grants, err := svc.ListFolderGrants(ctx, owner, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(grants) != 1 {
		t.Fatalf("expected 1 grant after replacement, got %d", len(grants))
	}
	if grants[0].Level != grant.LevelView {
		t.Fatalf("expected VIEW after downgrade, got %s", grants[0].Level)
	}
	if grants[0].Capabilities.Write {
		t.Fatal("downgraded grant must not keep write capability")
	}
}

func TestGrantRejectsInvalidLevel(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	owner := Actor{ID: "owner1", Role: RoleMember}
	f := mkFolder(t, s, owner.ID, nil)

	if _, err := svc.Grant(ctx, owner, "u1", f.ID, grant.LevelNone, nil); !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel for NONE, got %v", err)
	}
	if _, err := svc.Grant(ctx, owner, "u1", f.ID, grant.Level("SUPER"), nil); !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel for unknown level, got %v", err)
	}
}

func TestGrantRequiresManagePermission(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	owner := Actor{ID: "owner1", Role: RoleMember}
	f := mkFolder(t, s, owner.ID, nil)

	// Sharer holds SHARE, which does not include manage_permissions.
	if _, err := svc.Grant(ctx, owner, "sharer", f.ID, grant.LevelShare, nil); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Grant(ctx, Actor{ID: "sharer", Role: RoleMember}, "u2", f.ID, grant.LevelView, nil)
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}

	// A MANAGE holder can grant.
	if _, err := svc.Grant(ctx, owner, "manager", f.ID, grant.LevelManage, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Grant(ctx, Actor{ID: "manager", Role: RoleMember}, "u2", f.ID, grant.LevelView, nil); err != nil {
		t.Fatal(err)
	}
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	owner := Actor{ID: "owner1", Role: RoleMember}
	f := mkFolder(t, s, owner.ID, nil)

	if _, err := svc.Grant(ctx, owner, "u1", f.ID, grant.LevelView, nil); err != nil {
		t.Fatal(err)
	}
	if err := svc.Revoke(ctx, owner, "u1", f.ID); err != nil {
		t.Fatal(err)
	}

	ok, err := svc.Can(ctx, Actor{ID: "u1", Role: RoleMember}, f.ID, grant.ActionRead)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("revoked user must be denied")
	}

	// Revoking again reports the grant as missing.
	if err := svc.Revoke(ctx, owner, "u1", f.ID); !errors.Is(err, ErrGrantNotFound) {
		t.Fatalf("expected ErrGrantNotFound, got %v", err)
	}
}

func TestExpiredGrantDenied(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	owner := Actor{ID: "owner1", Role: RoleMember}
	f := mkFolder(t, s, owner.ID, nil)

	past := time.Now().UTC().Add(-time.Hour)
	if _, err := svc.Grant(ctx, owner, "u1", f.ID, grant.LevelManage, &past); err != nil {
		t.Fatal(err)
	}

	result, err := svc.Check(ctx, &CheckRequest{
		Actor:    Actor{ID: "u1", Role: RoleMember},
		FolderID: f.ID,
		Action:   grant.ActionRead,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Allowed {
		t.Fatal("expired grant must read as absent")
	}
	if result.Decision != DecisionDenyNoGrant {
		t.Fatalf("expected no-grant denial, got %s", result.Decision)
	}
}

func TestInheritedCheck(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	owner := Actor{ID: "owner1", Role: RoleMember}
	parent := mkFolder(t, s, owner.ID, nil)
	child := mkFolder(t, s, owner.ID, parent)

	if _, err := svc.Grant(ctx, owner, "u1", parent.ID, grant.LevelEdit, nil); err != nil {
		t.Fatal(err)
	}

	// No rule yet: nothing flows down.
	ok, err := svc.Can(ctx, Actor{ID: "u1", Role: RoleMember}, child.ID, grant.ActionRead)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("no inheritance rule, child access must be denied")
	}

	if err := svc.SetInheritance(ctx, owner, parent.ID, child.ID, true, inheritance.Overrides{}); err != nil {
		t.Fatal(err)
	}

	result, err := svc.Check(ctx, &CheckRequest{
		Actor:    Actor{ID: "u1", Role: RoleMember},
		FolderID: child.ID,
		Action:   grant.ActionWrite,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Allowed || result.Decision != DecisionAllowInherited {
		t.Fatalf("expected inherited allow, got %s: %s", result.Decision, result.Reason)
	}
	if result.InheritedFrom != parent.ID {
		t.Fatalf("expected provenance %s, got %s", parent.ID, result.InheritedFrom)
	}
}

func TestDirectGrantBeatsInherited(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	owner := Actor{ID: "owner1", Role: RoleMember}
	parent := mkFolder(t, s, owner.ID, nil)
	child := mkFolder(t, s, owner.ID, parent)

	// MANAGE on the parent flows down, but a direct VIEW on the child
	// is authoritative even though it denies more.
	if _, err := svc.Grant(ctx, owner, "u1", parent.ID, grant.LevelManage, nil); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetInheritance(ctx, owner, parent.ID, child.ID, true, inheritance.Overrides{}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Grant(ctx, owner, "u1", child.ID, grant.LevelView, nil); err != nil {
		t.Fatal(err)
	}

	result, err := svc.Check(ctx, &CheckRequest{
		Actor:    Actor{ID: "u1", Role: RoleMember},
		FolderID: child.ID,
		Action:   grant.ActionWrite,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Allowed {
		t.Fatal("direct VIEW must shadow inherited MANAGE")
	}
	if result.Decision != DecisionDenyLevel {
		t.Fatalf("expected level denial from direct grant, got %s", result.Decision)
	}
}

func TestInheritanceOverrides(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	owner := Actor{ID: "owner1", Role: RoleMember}
	parent := mkFolder(t, s, owner.ID, nil)
	child := mkFolder(t, s, owner.ID, parent)

	if _, err := svc.Grant(ctx, owner, "u1", parent.ID, grant.LevelView, nil); err != nil {
		t.Fatal(err)
	}
	err := svc.SetInheritance(ctx, owner, parent.ID, child.ID, true, inheritance.Overrides{
		Write: boolPtr(true),
	})
	if err != nil {
		t.Fatal(err)
	}

	actor := Actor{ID: "u1", Role: RoleMember}
	if ok, _ := svc.Can(ctx, actor, child.ID, grant.ActionWrite); !ok {
		t.Fatal("override must elevate write on the child")
	}
	if ok, _ := svc.Can(ctx, actor, child.ID, grant.ActionDelete); ok {
		t.Fatal("delete must stay denied for inherited VIEW")
	}
	// The parent itself is untouched by the override.
	if ok, _ := svc.Can(ctx, actor, parent.ID, grant.ActionWrite); ok {
		t.Fatal("override must not leak onto the parent")
	}
}

func TestInheritanceDisabledRule(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	owner := Actor{ID: "owner1", Role: RoleMember}
	parent := mkFolder(t, s, owner.ID, nil)
	child := mkFolder(t, s, owner.ID, parent)

	if _, err := svc.Grant(ctx, owner, "u1", parent.ID, grant.LevelManage, nil); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetInheritance(ctx, owner, parent.ID, child.ID, false, inheritance.Overrides{}); err != nil {
		t.Fatal(err)
	}

	if ok, _ := svc.Can(ctx, Actor{ID: "u1", Role: RoleMember}, child.ID, grant.ActionRead); ok {
		t.Fatal("rule with inherit=false must block flow-down")
	}
}

func TestNearestAncestorWins(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	owner := Actor{ID: "owner1", Role: RoleMember}
	root := mkFolder(t, s, owner.ID, nil)
	mid := mkFolder(t, s, owner.ID, root)
	leaf := mkFolder(t, s, owner.ID, mid)

	if _, err := svc.Grant(ctx, owner, "u1", root.ID, grant.LevelManage, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Grant(ctx, owner, "u1", mid.ID, grant.LevelView, nil); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetInheritance(ctx, owner, root.ID, leaf.ID, true, inheritance.Overrides{}); err != nil {
		t.Fatal(err)
	}
	if err := svc.SetInheritance(ctx, owner, mid.ID, leaf.ID, true, inheritance.Overrides{}); err != nil {
		t.Fatal(err)
	}

	result, err := svc.Check(ctx, &CheckRequest{
		Actor:    Actor{ID: "u1", Role: RoleMember},
		FolderID: leaf.ID,
		Action:   grant.ActionWrite,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Allowed {
		t.Fatal("nearest ancestor VIEW must win over root MANAGE")
	}
	if result.InheritedFrom != mid.ID {
		t.Fatalf("expected provenance %s, got %s", mid.ID, result.InheritedFrom)
	}
}

func TestBatchGrantPartialSuccess(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	granter := Actor{ID: "granter", Role: RoleMember}
	f1 := mkFolder(t, s, granter.ID, nil)
	f2 := mkFolder(t, s, "someone-else", nil)

	granted, err := svc.BatchGrant(ctx, granter, []string{"u1", "u2"}, []id.FolderID{f1.ID, f2.ID}, grant.LevelView, nil)
	if err != nil {
		t.Fatal(err)
	}
	// The granter owns only f1: two of four pairings succeed.
	if len(granted) != 2 {
		t.Fatalf("expected 2 grants, got %d", len(granted))
	}
	for _, g := range granted {
		if g.FolderID != f1.ID {
			t.Fatalf("unexpected grant on %s", g.FolderID)
		}
	}
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	owner := Actor{ID: "owner1", Role: RoleMember}
	f := mkFolder(t, s, owner.ID, nil)

	past := time.Now().UTC().Add(-time.Minute)
	future := time.Now().UTC().Add(time.Hour)
	if _, err := svc.Grant(ctx, owner, "u1", f.ID, grant.LevelView, &past); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Grant(ctx, owner, "u2", f.ID, grant.LevelView, &future); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Grant(ctx, owner, "u3", f.ID, grant.LevelView, nil); err != nil {
		t.Fatal(err)
	}

	n, err := svc.SweepExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 swept, got %d", n)
	}

	grants, err := svc.ListFolderGrants(ctx, owner, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(grants) != 2 {
		t.Fatalf("expected 2 surviving grants, got %d", len(grants))
	}
}

func TestSetInheritanceValidation(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	owner := Actor{ID: "owner1", Role: RoleMember}
	parent := mkFolder(t, s, owner.ID, nil)

	err := svc.SetInheritance(ctx, owner, parent.ID, id.NewFolderID(), true, inheritance.Overrides{})
	if !errors.Is(err, ErrFolderNotFound) {
		t.Fatalf("expected ErrFolderNotFound for missing child, got %v", err)
	}

	child := mkFolder(t, s, owner.ID, parent)
	err = svc.SetInheritance(ctx, Actor{ID: "stranger", Role: RoleMember}, parent.ID, child.ID, true, inheritance.Overrides{})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for stranger, got %v", err)
	}
}

func TestEnforce(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	f := mkFolder(t, s, "owner1", nil)

	req := &CheckRequest{Actor: Actor{ID: "stranger", Role: RoleMember}, FolderID: f.ID, Action: grant.ActionRead}
	if err := svc.Enforce(ctx, req); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}

	req.Actor = Actor{ID: "owner1", Role: RoleMember}
	if err := svc.Enforce(ctx, req); err != nil {
		t.Fatal(err)
	}
}

func TestListFolderGrantsRequiresRead(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	owner := Actor{ID: "owner1", Role: RoleMember}
	f := mkFolder(t, s, owner.ID, nil)

	if _, err := svc.Grant(ctx, owner, "viewer1", f.ID, grant.LevelView, nil); err != nil {
		t.Fatal(err)
	}

	_, err := svc.ListFolderGrants(ctx, Actor{ID: "stranger", Role: RoleMember}, f.ID)
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for stranger, got %v", err)
	}

	grants, err := svc.ListFolderGrants(ctx, Actor{ID: "viewer1", Role: RoleMember}, f.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(grants) != 1 {
		t.Fatalf("expected 1 grant, got %d", len(grants))
	}

	if _, err := svc.ListFolderGrants(ctx, owner, f.ID); err != nil {
		t.Fatal(err)
	}

	_, err = svc.ListFolderGrants(ctx, owner, id.NewFolderID())
	if !errors.Is(err, ErrFolderNotFound) {
		t.Fatalf("expected ErrFolderNotFound for missing folder, got %v", err)
	}
}

func TestListUserGrantsSelfOrAdmin(t *testing.T) {
	ctx := context.Background()
	svc, s := newTestService(t)
	owner := Actor{ID: "owner1", Role: RoleMember}
	f := mkFolder(t, s, owner.ID, nil)

	if _, err := svc.Grant(ctx, owner, "u1", f.ID, grant.LevelEdit, nil); err != nil {
		t.Fatal(err)
	}

	_, err := svc.ListUserGrants(ctx, Actor{ID: "u2", Role: RoleMember}, "u1")
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for another user, got %v", err)
	}

	grants, err := svc.ListUserGrants(ctx, Actor{ID: "u1", Role: RoleMember}, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(grants) != 1 {
		t.Fatalf("expected 1 grant, got %d", len(grants))
	}

	if _, err := svc.ListUserGrants(ctx, Actor{ID: "admin1", Role: RoleAdministrator}, "u1"); err != nil {
		t.Fatal(err)
	}
}

type failingHookPlugin struct{}

func (failingHookPlugin) Name() string { return "failing-hook" }

func (failingHookPlugin) OnGrantCreated(context.Context, *grant.Grant) error {
	return errors.New("hook failed")
}

func TestWithPluginBeforeLogger(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := memory.New()
	// Plugin listed before the logger: hook errors must still reach the
	// configured logger, not the default one.
	svc, err := NewService(
		WithPlugin(failingHookPlugin{}),
		WithLogger(logger),
		WithStore(s),
	)
	if err != nil {
		t.Fatal(err)
	}

	owner := Actor{ID: "owner1", Role: RoleMember}
	f := mkFolder(t, s, owner.ID, nil)
	if _, err := svc.Grant(ctx, owner, "u1", f.ID, grant.LevelView, nil); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "plugin hook error") {
		t.Fatalf("hook error not logged through configured logger, log output: %q", buf.String())
	}
}
