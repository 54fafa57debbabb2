// Package grant defines the permission Grant entity, the permission level
// catalog, and the grant store interface.
package grant

import (
	"errors"
	"time"

	"github.com/xraph/custodian/id"
)

// ErrNotFound is returned when no valid grant exists for a (user, folder) pair.
var ErrNotFound = errors.New("custodian: grant not found")

// Grant asserts that a user holds a permission level on a folder.
// At most one direct grant exists per (UserID, FolderID) pair; the store
// enforces this via upsert keyed on that pair.
type Grant struct {
	ID       id.GrantID  `json:"id" db:"id"`
	UserID   string      `json:"user_id" db:"user_id"`
	FolderID id.FolderID `json:"folder_id" db:"folder_id"`
	Level    Level       `json:"level" db:"level"`

	// Capabilities is a write-time denormalization of CapabilitiesFor(Level)
	// kept for external readers of the permissions table. The engine never
	// trusts it: capability sets are recomputed from Level on every load.
	Capabilities Capabilities `json:"capabilities" db:"capabilities"`

	// InheritedFrom identifies the ancestor folder whose grant produced this
	// value. It is set only on grants synthesized by the inheritance
	// resolver and never on persisted direct grants.
	InheritedFrom *id.FolderID `json:"inherited_from,omitempty" db:"inherited_from"`

	GrantedBy string     `json:"granted_by" db:"granted_by"`
	GrantedAt time.Time  `json:"granted_at" db:"granted_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" db:"expires_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Expired reports whether the grant has expired as of now. A grant is valid
// only while expires_at > now, so an expiry equal to now counts as expired.
// Grants without an expiry never expire.
func (g *Grant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && !g.ExpiresAt.After(now)
}

// EffectiveCapabilities returns the capability set recomputed from the
// grant's level via the catalog.
func (g *Grant) EffectiveCapabilities() Capabilities {
	return CapabilitiesFor(g.Level)
}
