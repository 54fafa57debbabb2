// Package folder defines the Folder entity and its store interface.
//
// Folders are owned and mutated by the surrounding application; the
// permission engine only reads the owner and the ancestor path. The store
// exists so hosts and engine share one persistence handle.
package folder

import (
	"errors"
	"time"

	"github.com/xraph/custodian/id"
)

// ErrNotFound is returned when a folder does not exist.
var ErrNotFound = errors.New("custodian: folder not found")

// Folder is a node in the folder tree.
type Folder struct {
	ID      id.FolderID `json:"id" db:"id"`
	OwnerID string      `json:"owner_id" db:"owner_id"`
	Name    string      `json:"name" db:"name"`

	// ParentID is nil for root folders.
	ParentID *id.FolderID `json:"parent_id,omitempty" db:"parent_id"`

	// Path is the ordered list of ancestor folder IDs from the nearest
	// root down to the immediate parent. Empty for root folders.
	Path []id.FolderID `json:"path" db:"path"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsRoot reports whether the folder has no parent.
func (f *Folder) IsRoot() bool { return f.ParentID == nil }
