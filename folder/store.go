package folder

import (
	"context"

	"github.com/xraph/custodian/id"
)

// Store defines persistence operations for folders.
type Store interface {
	// CreateFolder persists a new folder.
	CreateFolder(ctx context.Context, f *Folder) error

	// GetFolder retrieves a folder by ID. Returns an error wrapping
	// ErrNotFound when the folder does not exist.
	GetFolder(ctx context.Context, folderID id.FolderID) (*Folder, error)

	// DeleteFolder removes a folder by ID.
	DeleteFolder(ctx context.Context, folderID id.FolderID) error

	// ListChildFolders returns the direct children of a folder.
	ListChildFolders(ctx context.Context, parentID id.FolderID) ([]*Folder, error)
}
