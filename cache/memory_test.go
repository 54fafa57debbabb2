package cache

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/custodian"
	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/id"
)

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))

	req := &custodian.CheckRequest{
		Actor:    custodian.Actor{ID: "u1", Role: custodian.RoleMember},
		FolderID: id.NewFolderID(),
		Action:   grant.ActionRead,
	}
	result := &custodian.CheckResult{Allowed: true, Decision: custodian.DecisionAllowDirect}

	// Miss
	_, ok := c.Get(ctx, req)
	if ok {
		t.Fatal("expected cache miss")
	}

	// Set + Hit
	c.Set(ctx, req, result)
	got, ok := c.Get(ctx, req)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !got.Allowed {
		t.Fatal("expected allowed")
	}
}

func TestMemoryCacheRoleSeparation(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	folderID := id.NewFolderID()
	member := &custodian.CheckRequest{
		Actor:    custodian.Actor{ID: "u1", Role: custodian.RoleMember},
		FolderID: folderID,
		Action:   grant.ActionWrite,
	}
	admin := &custodian.CheckRequest{
		Actor:    custodian.Actor{ID: "u1", Role: custodian.RoleAdministrator},
		FolderID: folderID,
		Action:   grant.ActionWrite,
	}

	c.Set(ctx, member, &custodian.CheckResult{Allowed: false})

	if _, ok := c.Get(ctx, admin); ok {
		t.Fatal("admin request must not hit the member entry")
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(1 * time.Millisecond))

	req := &custodian.CheckRequest{
		Actor:    custodian.Actor{ID: "u1", Role: custodian.RoleMember},
		FolderID: id.NewFolderID(),
		Action:   grant.ActionRead,
	}
	c.Set(ctx, req, &custodian.CheckResult{Allowed: true})
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, req)
	if ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestMemoryCacheInvalidateUser(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	folderID := id.NewFolderID()
	req1 := &custodian.CheckRequest{
		Actor:    custodian.Actor{ID: "u1", Role: custodian.RoleMember},
		FolderID: folderID,
		Action:   grant.ActionRead,
	}
	req2 := &custodian.CheckRequest{
		Actor:    custodian.Actor{ID: "u2", Role: custodian.RoleMember},
		FolderID: folderID,
		Action:   grant.ActionRead,
	}

	c.Set(ctx, req1, &custodian.CheckResult{Allowed: true})
	c.Set(ctx, req2, &custodian.CheckResult{Allowed: true})

	c.InvalidateUser(ctx, "u1")

	if _, ok := c.Get(ctx, req1); ok {
		t.Fatal("u1 should be invalidated")
	}
	if _, ok := c.Get(ctx, req2); !ok {
		t.Fatal("u2 should still be cached")
	}
}

func TestMemoryCacheInvalidateFolder(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	f1 := id.NewFolderID()
	f2 := id.NewFolderID()
	req1 := &custodian.CheckRequest{
		Actor:    custodian.Actor{ID: "u1", Role: custodian.RoleMember},
		FolderID: f1,
		Action:   grant.ActionRead,
	}
	req2 := &custodian.CheckRequest{
		Actor:    custodian.Actor{ID: "u1", Role: custodian.RoleMember},
		FolderID: f2,
		Action:   grant.ActionRead,
	}

	c.Set(ctx, req1, &custodian.CheckResult{Allowed: true})
	c.Set(ctx, req2, &custodian.CheckResult{Allowed: true})

	c.InvalidateFolder(ctx, f1)

	if _, ok := c.Get(ctx, req1); ok {
		t.Fatal("f1 should be invalidated")
	}
	if _, ok := c.Get(ctx, req2); !ok {
		t.Fatal("f2 should still be cached")
	}
}

func TestMemoryCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))

	for i := 0; i < 5; i++ {
		req := &custodian.CheckRequest{
			Actor:    custodian.Actor{ID: "u1", Role: custodian.RoleMember},
			FolderID: id.NewFolderID(),
			Action:   grant.ActionRead,
		}
		c.Set(ctx, req, &custodian.CheckResult{Allowed: true})
	}

	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()
	if size > 2 {
		t.Fatalf("expected max 2 entries, got %d", size)
	}
}
