package inheritance

import (
	"context"

	"github.com/xraph/custodian/id"
)

// Store defines persistence operations for inheritance rules.
type Store interface {
	// UpsertRule inserts or updates the rule keyed by (ParentID, ChildID).
	// An update keeps the existing rule ID.
	UpsertRule(ctx context.Context, r *Rule) error

	// GetRule retrieves the rule for a (parent, child) folder pair.
	// Returns an error wrapping ErrNotFound when no rule exists.
	GetRule(ctx context.Context, parentID, childID id.FolderID) (*Rule, error)

	// ListRulesForParent returns all rules where the folder is the parent.
	ListRulesForParent(ctx context.Context, parentID id.FolderID) ([]*Rule, error)

	// DeleteRule removes the rule for a (parent, child) pair. The service
	// never deletes rules; this exists for host housekeeping.
	DeleteRule(ctx context.Context, parentID, childID id.FolderID) error
}
