package plugin

import (
	"context"
	"log/slog"
	"testing"

	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/id"
)

// testPlugin implements Plugin + GrantCreated + AfterCheck.
type testPlugin struct {
	grantCreatedCalled bool
	afterCheckCalled   bool
}

func (t *testPlugin) Name() string { return "test-plugin" }

func (t *testPlugin) OnGrantCreated(_ context.Context, _ *grant.Grant) error {
	t.grantCreatedCalled = true
	return nil
}

func (t *testPlugin) OnAfterCheck(_ context.Context, _, _ any) error {
	t.afterCheckCalled = true
	return nil
}

// minimalPlugin only implements Plugin (no hooks).
type minimalPlugin struct{}

func (m *minimalPlugin) Name() string { return "minimal" }

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	tp := &testPlugin{}
	reg.Register(tp)
	reg.Register(&minimalPlugin{})

	if len(reg.Plugins()) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(reg.Plugins()))
	}

	// Should dispatch GrantCreated to testPlugin only.
	reg.EmitGrantCreated(ctx, &grant.Grant{ID: id.NewGrantID(), UserID: "u1", Level: grant.LevelView})
	if !tp.grantCreatedCalled {
		t.Fatal("OnGrantCreated was not called")
	}

	// Should dispatch AfterCheck.
	reg.EmitAfterCheck(ctx, nil, nil)
	if !tp.afterCheckCalled {
		t.Fatal("OnAfterCheck was not called")
	}

	// Should not panic on hooks with no listeners.
	reg.EmitBeforeCheck(ctx, nil)
	reg.EmitGrantRevoked(ctx, "u1", id.NewFolderID())
	reg.EmitShutdown(ctx)
}
