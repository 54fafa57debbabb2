package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/xraph/custodian/grant"
	"github.com/xraph/custodian/id"
)

// TestSchemaRoundTrip applies the schema DDL against a real PostgreSQL
// instance and round-trips a grant row with a jsonb capability set.
// Set CUSTODIAN_PG_TEST=1 to enable; requires a local Docker daemon.
func TestSchemaRoundTrip(t *testing.T) {
	if os.Getenv("CUSTODIAN_PG_TEST") == "" {
		t.Skip("set CUSTODIAN_PG_TEST=1 to run PostgreSQL integration tests")
	}

	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("custodian"),
		tcpostgres.WithUsername("custodian"),
		tcpostgres.WithPassword("custodian"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(context.Background()) })

	for _, ddl := range []string{ddlFolders, ddlGrants, ddlInheritanceRules, ddlGrantLogs} {
		if _, err := conn.Exec(ctx, ddl); err != nil {
			t.Fatalf("apply DDL: %v", err)
		}
	}

	folderID := id.NewFolderID()
	if _, err := conn.Exec(ctx,
		`INSERT INTO custodian_folders (id, owner_id, name) VALUES ($1, $2, $3)`,
		folderID.String(), "alice", "projects",
	); err != nil {
		t.Fatalf("insert folder: %v", err)
	}

	m := grantToModel(&grant.Grant{
		ID:           id.NewGrantID(),
		UserID:       "bob",
		FolderID:     folderID,
		Level:        grant.LevelEdit,
		Capabilities: grant.CapabilitiesFor(grant.LevelEdit),
		GrantedBy:    "alice",
		GrantedAt:    time.Now().UTC(),
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	})
	if _, err := conn.Exec(ctx,
		`INSERT INTO custodian_grants (id, user_id, folder_id, level, capabilities, granted_by, granted_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.UserID, m.FolderID, m.Level, m.Capabilities, m.GrantedBy, m.GrantedAt, m.CreatedAt, m.UpdatedAt,
	); err != nil {
		t.Fatalf("insert grant: %v", err)
	}

	var got grantModel
	err = conn.QueryRow(ctx,
		`SELECT id, user_id, folder_id, level, capabilities FROM custodian_grants WHERE user_id = $1 AND folder_id = $2`,
		"bob", folderID.String(),
	).Scan(&got.ID, &got.UserID, &got.FolderID, &got.Level, &got.Capabilities)
	if err != nil {
		t.Fatalf("select grant: %v", err)
	}

	g := grantFromModel(&got)
	if g.Level != grant.LevelEdit {
		t.Fatalf("level = %s, want EDIT", g.Level)
	}
	if !g.Capabilities.Write || g.Capabilities.Share {
		t.Fatalf("capabilities round-trip mismatch: %+v", g.Capabilities)
	}

	// Unique (user_id, folder_id) pair: a second insert must conflict.
	if _, err := conn.Exec(ctx,
		`INSERT INTO custodian_grants (id, user_id, folder_id, level, granted_by, granted_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id.NewGrantID().String(), "bob", folderID.String(), "VIEW", "alice",
		time.Now().UTC(), time.Now().UTC(), time.Now().UTC(),
	); err == nil {
		t.Fatal("expected unique violation on duplicate (user_id, folder_id)")
	}

	// Deleting the folder cascades to its grants.
	if _, err := conn.Exec(ctx, `DELETE FROM custodian_folders WHERE id = $1`, folderID.String()); err != nil {
		t.Fatalf("delete folder: %v", err)
	}
	var n int
	if err := conn.QueryRow(ctx, `SELECT count(*) FROM custodian_grants`).Scan(&n); err != nil {
		t.Fatalf("count grants: %v", err)
	}
	if n != 0 {
		t.Fatalf("grants after cascade = %d, want 0", n)
	}
}
