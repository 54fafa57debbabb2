// Package inheritance defines the per-edge inheritance Rule entity and its
// store interface. A rule controls whether a child folder inherits a grant
// from its parent, and optionally overrides individual capability fields of
// the inherited set.
package inheritance

import (
	"errors"
	"time"

	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/id"
)

// ErrNotFound is returned when no rule exists for a (parent, child) pair.
var ErrNotFound = errors.New("custodian: inheritance rule not found")

// Rule is keyed by the (ParentID, ChildID) folder pair; the store enforces
// uniqueness via upsert on that pair. Rules are single-hop: a rule between
// a grandparent and grandchild requires its own row, there is no
// transitivity through intermediate folders.
type Rule struct {
	ID       id.RuleID   `json:"id" db:"id"`
	ParentID id.FolderID `json:"parent_id" db:"parent_id"`
	ChildID  id.FolderID `json:"child_id" db:"child_id"`

	// Inherit toggles whether grants on the parent apply to the child at all.
	Inherit bool `json:"inherit" db:"inherit"`

	// Overrides adjusts individual capability fields of the inherited set.
	Overrides Overrides `json:"overrides" db:"overrides"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Overrides is a partial capability set. A nil field leaves the inherited
// value untouched; a non-nil field wins regardless of the inherited value,
// in either direction.
type Overrides struct {
	Read              *bool `json:"can_read,omitempty" db:"can_read"`
	Write             *bool `json:"can_write,omitempty" db:"can_write"`
	Delete            *bool `json:"can_delete,omitempty" db:"can_delete"`
	Share             *bool `json:"can_share,omitempty" db:"can_share"`
	ManagePermissions *bool `json:"can_manage_permissions,omitempty" db:"can_manage_permissions"`
	CreateSubfolder   *bool `json:"can_create_subfolder,omitempty" db:"can_create_subfolder"`
	Move              *bool `json:"can_move,omitempty" db:"can_move"`
	Copy              *bool `json:"can_copy,omitempty" db:"can_copy"`
}

// Apply overlays the overrides onto a capability set, field by field.
func (o Overrides) Apply(c grant.Capabilities) grant.Capabilities {
	if o.Read != nil {
		c.Read = *o.Read
	}
	if o.Write != nil {
		c.Write = *o.Write
	}
	if o.Delete != nil {
		c.Delete = *o.Delete
	}
	if o.Share != nil {
		c.Share = *o.Share
	}
	if o.ManagePermissions != nil {
		c.ManagePermissions = *o.ManagePermissions
	}
	if o.CreateSubfolder != nil {
		c.CreateSubfolder = *o.CreateSubfolder
	}
	if o.Move != nil {
		c.Move = *o.Move
	}
	if o.Copy != nil {
		c.Copy = *o.Copy
	}
	return c
}

// IsZero reports whether no field is overridden.
func (o Overrides) IsZero() bool {
	return o.Read == nil && o.Write == nil && o.Delete == nil && o.Share == nil &&
		o.ManagePermissions == nil && o.CreateSubfolder == nil && o.Move == nil && o.Copy == nil
}
