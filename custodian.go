// Package custodian provides a folder permission engine for Go.
//
// Custodian implements a four-level permission scheme (VIEW, EDIT, SHARE,
// MANAGE) with per-user grants, expiration, provenance, and hierarchical
// inheritance down a folder tree. Folder contents are owned by the host
// application; Custodian only decides who may do what.
//
//	svc, err := custodian.NewService(
//	    custodian.WithStore(memStore),
//	)
//	result, err := svc.Check(ctx, &custodian.CheckRequest{
//	    Actor:    custodian.Actor{ID: "user_123"},
//	    FolderID: folderID,
//	    Action:   grant.ActionWrite,
//	})
package custodian

import (
	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/id"
)

// Role identifies the platform-level role of an acting user. It is a typed
// claim supplied by the host's authentication layer, not a folder-level
// permission.
type Role string

const (
	// RoleMember is a regular user with no platform-wide privileges.
	RoleMember Role = "member"

	// RoleAdministrator bypasses folder permission checks entirely.
	RoleAdministrator Role = "administrator"
)

// Actor is the user performing an operation.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role,omitempty"`
}

// IsAdministrator reports whether the actor holds the administrative role.
// This is the single place platform roles are compared.
func (a Actor) IsAdministrator() bool { return a.Role == RoleAdministrator }

// CheckRequest is the input to a permission check.
type CheckRequest struct {
	Actor    Actor        `json:"actor"`
	FolderID id.FolderID  `json:"folder_id"`
	Action   grant.Action `json:"action"`
}

// CheckResult is the outcome of a permission check.
type CheckResult struct {
	Allowed  bool     `json:"allowed"`
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason,omitempty"`

	// Level is the permission level that decided the outcome, when a grant
	// was involved.
	Level grant.Level `json:"level,omitempty"`

	// InheritedFrom identifies the ancestor folder whose grant decided the
	// outcome, for inherited decisions only.
	InheritedFrom id.FolderID `json:"inherited_from,omitempty"`

	EvalTimeNs int64 `json:"eval_time_ns"`
}

// Decision is the permission check outcome code. The precedence is fixed:
// owner, then administrator, then direct grant, then inherited grant, then
// deny.
type Decision string

const (
	// DecisionAllowOwner means the actor owns the folder.
	DecisionAllowOwner Decision = "allow_owner"

	// DecisionAllowAdmin means the actor holds the administrative role.
	DecisionAllowAdmin Decision = "allow_admin"

	// DecisionAllowDirect means a direct grant permits the action.
	DecisionAllowDirect Decision = "allow_direct"

	// DecisionAllowInherited means an ancestor grant permits the action
	// through an inheritance rule.
	DecisionAllowInherited Decision = "allow_inherited"

	// DecisionDenyFolderNotFound means the folder does not exist; checks
	// fail closed.
	DecisionDenyFolderNotFound Decision = "deny_folder_not_found"

	// DecisionDenyLevel means a direct grant exists but its level does not
	// permit the action. Direct grants are authoritative; inheritance is
	// not consulted.
	DecisionDenyLevel Decision = "deny_level"

	// DecisionDenyInherited means an inherited capability set denies the
	// action.
	DecisionDenyInherited Decision = "deny_inherited"

	// DecisionDenyNoGrant means no direct or inherited grant applies.
	DecisionDenyNoGrant Decision = "deny_no_grant"
)

// Level aliases the grant package's permission level for convenience.
type Level = grant.Level

// Action aliases the grant package's action type for convenience.
type Action = grant.Action
