package grantlog

import (
	"context"
	"time"
)

// Store defines persistence operations for permission audit logs.
type Store interface {
	// CreateEntry persists a new audit entry.
	CreateEntry(ctx context.Context, e *Entry) error

	// ListEntries returns audit entries matching the filter, newest first.
	ListEntries(ctx context.Context, filter *QueryFilter) ([]*Entry, error)

	// CountEntries returns the number of entries matching the filter.
	CountEntries(ctx context.Context, filter *QueryFilter) (int64, error)

	// PurgeEntries removes entries older than the given time and returns
	// the number removed.
	PurgeEntries(ctx context.Context, before time.Time) (int64, error)
}
