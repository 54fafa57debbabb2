package api

import (
	"github.com/xraph/custodian/inheritance"
)

// ──────────────────────────────────────────────────
// Check requests
// ──────────────────────────────────────────────────

// CheckRequest is the request body for a permission check.
type CheckRequest struct {
	UserID   string `json:"user_id" description:"User performing the action"`
	Role     string `json:"role,omitempty" description:"Platform role (member, administrator)"`
	FolderID string `json:"folder_id" description:"Folder identifier"`
	Action   string `json:"action" description:"Action name (read, write, delete, share, manage_permissions, create_subfolder, move, copy)"`
}

// BatchCheckRequest contains multiple checks.
type BatchCheckRequest struct {
	Checks []CheckRequest `json:"checks" description:"List of permission checks"`
}

// ──────────────────────────────────────────────────
// Permission requests
// ──────────────────────────────────────────────────

// GrantPermissionRequest is the body for granting a permission level.
type GrantPermissionRequest struct {
	UserID    string `json:"user_id" description:"User receiving the grant"`
	Level     string `json:"level" description:"Permission level (VIEW, EDIT, SHARE, MANAGE)"`
	ExpiresAt string `json:"expires_at,omitempty" description:"Expiration time (RFC3339, omit for no expiry)"`
}

// UpdatePermissionRequest is the body for replacing a user's grant.
type UpdatePermissionRequest struct {
	Level     string `json:"level" description:"New permission level"`
	ExpiresAt string `json:"expires_at,omitempty" description:"Expiration time (RFC3339)"`
}

// BatchGrantRequest grants a level over the cartesian product of users
// and folders.
type BatchGrantRequest struct {
	UserIDs   []string `json:"user_ids" description:"Users receiving the grant"`
	FolderIDs []string `json:"folder_ids" description:"Folders to grant on"`
	Level     string   `json:"level" description:"Permission level"`
	ExpiresAt string   `json:"expires_at,omitempty" description:"Expiration time (RFC3339)"`
}

// ListFolderPermissionsRequest is the path parameter for listing grants on a folder.
type ListFolderPermissionsRequest struct {
	FolderID string `path:"folderId" description:"Folder ID"`
}

// ListUserPermissionsRequest is the path parameter for listing a user's grants.
type ListUserPermissionsRequest struct {
	UserID string `path:"userId" description:"User ID"`
}

// ──────────────────────────────────────────────────
// Inheritance requests
// ──────────────────────────────────────────────────

// SetInheritanceRequest is the body for configuring a parent-child edge.
type SetInheritanceRequest struct {
	Inherit   bool                  `json:"inherit" description:"Whether grants on the parent apply to the child"`
	Overrides inheritance.Overrides `json:"overrides,omitempty" description:"Per-capability overrides of the inherited set"`
}

// GetInheritanceRequest identifies a parent-child edge.
type GetInheritanceRequest struct {
	FolderID string `path:"folderId" description:"Parent folder ID"`
	ChildID  string `path:"childId" description:"Child folder ID"`
}

// ──────────────────────────────────────────────────
// Folder requests
// ──────────────────────────────────────────────────

// CreateFolderRequest is the body for registering a folder.
type CreateFolderRequest struct {
	OwnerID  string `json:"owner_id" description:"Folder owner"`
	Name     string `json:"name" description:"Folder name"`
	ParentID string `json:"parent_id,omitempty" description:"Parent folder ID (omit for root)"`
}

// GetFolderRequest is the path parameter for getting a folder.
type GetFolderRequest struct {
	FolderID string `path:"folderId" description:"Folder ID"`
}

// ──────────────────────────────────────────────────
// Audit log requests
// ──────────────────────────────────────────────────

// ListGrantLogsRequest holds query parameters for querying the audit log.
type ListGrantLogsRequest struct {
	Event       string `query:"event" description:"Filter by event (granted, revoked, swept, inheritance_set)"`
	UserID      string `query:"user_id" description:"Filter by affected user"`
	FolderID    string `query:"folder_id" description:"Filter by folder"`
	PerformedBy string `query:"performed_by" description:"Filter by acting user"`
	After       string `query:"after" description:"After timestamp (RFC3339)"`
	Before      string `query:"before" description:"Before timestamp (RFC3339)"`
	Limit       int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset      int    `query:"offset" description:"Results to skip"`
}

// PurgeGrantLogsRequest holds query parameters for purging old audit entries.
type PurgeGrantLogsRequest struct {
	Before string `query:"before" description:"Remove entries older than this timestamp (RFC3339)"`
}
