// Package grantlog defines the permission audit log Entry entity.
package grantlog

import (
	"time"

	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/id"
)

// Event classifies an audited permission mutation.
type Event string

// Event constants.
const (
	EventGranted        Event = "granted"
	EventRevoked        Event = "revoked"
	EventSwept          Event = "swept"
	EventInheritanceSet Event = "inheritance_set"
)

// Entry is a single permission mutation audit record.
type Entry struct {
	ID          id.AuditLogID `json:"id" db:"id"`
	Event       Event         `json:"event" db:"event"`
	UserID      string        `json:"user_id,omitempty" db:"user_id"`
	FolderID    id.FolderID   `json:"folder_id,omitempty" db:"folder_id"`
	Level       grant.Level   `json:"level,omitempty" db:"level"`
	PerformedBy string        `json:"performed_by" db:"performed_by"`
	Detail      string        `json:"detail,omitempty" db:"detail"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying audit entries.
type QueryFilter struct {
	Event       Event       `json:"event,omitempty"`
	UserID      string      `json:"user_id,omitempty"`
	FolderID    id.FolderID `json:"folder_id,omitempty"`
	PerformedBy string      `json:"performed_by,omitempty"`
	After       *time.Time  `json:"after,omitempty"`
	Before      *time.Time  `json:"before,omitempty"`
	Limit       int         `json:"limit,omitempty"`
	Offset      int         `json:"offset,omitempty"`
}
