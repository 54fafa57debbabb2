// Package store defines the aggregate persistence interface. Each subsystem
// (grant, inheritance, folder, grantlog) defines its own store interface and
// the composite Store composes them all. Backends: Postgres, SQLite, MongoDB,
// and Memory.
package store

import (
	"context"

	"github.com/xraph/custodian/folder"
	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/grantlog"
	"github.com/xraph/custodian/inheritance"
)

// Store is the aggregate persistence interface.
// A single backend (postgres, sqlite, mongo, memory) implements all of the
// subsystem stores.
type Store interface {
	grant.Store
	inheritance.Store
	folder.Store
	grantlog.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
