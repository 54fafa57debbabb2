// Package plugin defines the plugin system for Custodian.
// Plugins are notified of lifecycle events (check performed, grant created,
// inheritance updated, etc.) and can react — logging, metrics, tracing, etc.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/id"
	"github.com/xraph/custodian/inheritance"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Check lifecycle hooks
// ──────────────────────────────────────────────────

// BeforeCheck is called before a permission check is evaluated.
// The req parameter is *custodian.CheckRequest (passed as any to avoid import cycle).
type BeforeCheck interface {
	OnBeforeCheck(ctx context.Context, req any) error
}

// AfterCheck is called after a permission check completes.
// The req parameter is *custodian.CheckRequest; result is *custodian.CheckResult.
type AfterCheck interface {
	OnAfterCheck(ctx context.Context, req, result any) error
}

// ──────────────────────────────────────────────────
// Grant lifecycle hooks
// ──────────────────────────────────────────────────

// GrantCreated is called after a grant is created or replaced.
type GrantCreated interface {
	OnGrantCreated(ctx context.Context, g *grant.Grant) error
}

// GrantRevoked is called after a grant is revoked.
type GrantRevoked interface {
	OnGrantRevoked(ctx context.Context, userID string, folderID id.FolderID) error
}

// ExpiredSwept is called after an expiry sweep removes grants.
type ExpiredSwept interface {
	OnExpiredSwept(ctx context.Context, removed int64) error
}

// ──────────────────────────────────────────────────
// Inheritance lifecycle hooks
// ──────────────────────────────────────────────────

// InheritanceUpdated is called after an inheritance rule is upserted.
type InheritanceUpdated interface {
	OnInheritanceUpdated(ctx context.Context, r *inheritance.Rule) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
