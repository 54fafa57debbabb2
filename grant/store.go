package grant

import (
	"context"
	"time"

	"github.com/xraph/custodian/id"
)

// Store defines persistence operations for permission grants.
//
// All read operations exclude expired rows (expires_at at or before now)
// even when the row still physically exists; expired grants behave as absent
// until swept.
type Store interface {
	// UpsertGrant inserts or replaces the direct grant keyed by
	// (UserID, FolderID). A replace overwrites level, capability snapshot,
	// provenance, and expiry; this is destructive, not a merge.
	UpsertGrant(ctx context.Context, g *Grant) error

	// GetGrant retrieves the valid direct grant for a (user, folder) pair.
	// Returns an error wrapping ErrNotFound when no valid grant exists.
	GetGrant(ctx context.Context, userID string, folderID id.FolderID) (*Grant, error)

	// DeleteGrant removes the direct grant for a (user, folder) pair.
	DeleteGrant(ctx context.Context, userID string, folderID id.FolderID) error

	// ListGrantsForFolder returns all valid grants on a folder.
	ListGrantsForFolder(ctx context.Context, folderID id.FolderID) ([]*Grant, error)

	// ListGrantsForUser returns all valid grants held by a user.
	ListGrantsForUser(ctx context.Context, userID string) ([]*Grant, error)

	// SweepExpiredGrants deletes all grants with expires_at before now and
	// returns the number of rows removed.
	SweepExpiredGrants(ctx context.Context, now time.Time) (int64, error)

	// DeleteGrantsByFolder removes every grant on a folder. Housekeeping
	// hook for hosts deleting a folder.
	DeleteGrantsByFolder(ctx context.Context, folderID id.FolderID) error
}
