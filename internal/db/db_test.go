package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestMigrateSQLite_Idempotent(t *testing.T) {
	conn, err := OpenSQLite(filepath.Join(t.TempDir(), "m.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	if err := MigrateSQLite(ctx, conn); err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	if err := MigrateSQLite(ctx, conn); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	files, err := migrationFiles("sqlite")
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	var applied int
	if err := conn.Get(&applied, `SELECT COUNT(*) FROM schema_migrations`); err != nil {
		t.Fatalf("count: %v", err)
	}
	if applied != len(files) {
		t.Fatalf("applied=%d files=%d", applied, len(files))
	}
}

func TestMigrationFiles_BothDialectsInSync(t *testing.T) {
	pg, err := migrationFiles("postgres")
	if err != nil {
		t.Fatalf("postgres: %v", err)
	}
	lite, err := migrationFiles("sqlite")
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if len(pg) != len(lite) {
		t.Fatalf("postgres=%v sqlite=%v", pg, lite)
	}
	for i := range pg {
		if pg[i] != lite[i] {
			t.Fatalf("migration %d differs: %s vs %s", i, pg[i], lite[i])
		}
	}
}
