package custodian

import (
	"context"

	"github.com/xraph/custodian/id"
)

// Cache provides caching for permission check results.
type Cache interface {
	// Get returns a cached check result, if available.
	Get(ctx context.Context, req *CheckRequest) (*CheckResult, bool)

	// Set stores a check result in the cache.
	Set(ctx context.Context, req *CheckRequest, result *CheckResult)

	// InvalidateUser removes all cached results for a user.
	InvalidateUser(ctx context.Context, userID string)

	// InvalidateFolder removes all cached results for a folder. Descendant
	// folders resolving through it are served stale until their entries
	// expire.
	InvalidateFolder(ctx context.Context, folderID id.FolderID)
}
