package shared

import (
	"context"
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("parseMigrationName", func(t *testing.T) {
		tc := []struct {
			name      string
			version   int
			direction string
			ok        bool
		}{
			{name: "0000_create_sessions_up.sql", version: 0, direction: "up", ok: true},
			{name: "0001_create_runs_down.sql", version: 1, direction: "down", ok: true},
			{name: "readme.md", ok: false},
			{name: "abc_up.sql", ok: false},
			{name: "0002_sideways.sql", ok: false},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				version, direction, ok := parseMigrationName(tt.name)
				if ok != tt.ok || version != tt.version || direction != tt.direction {
					t.Errorf("parseMigrationName(%q) = %d, %q, %v", tt.name, version, direction, ok)
				}
			})
		}
	})

	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) < 2 {
			t.Fatalf("expected at least two migrations, got %d", len(migrations))
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(ctx, db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"sessions", "runs"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		if err := RollbackMigration(ctx, db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM runs LIMIT 1"); err == nil {
			t.Error("runs table should be dropped by rollback")
		}
		if _, err := db.Exec("SELECT 1 FROM sessions LIMIT 1"); err != nil {
			t.Errorf("sessions table should survive a single rollback: %v", err)
		}
	})

	t.Run("Rollback With Nothing Applied", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(ctx, db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		for range 2 {
			if err := RollbackMigration(ctx, db); err != nil {
				t.Fatalf("unexpected rollback error: %v", err)
			}
		}
		if err := RollbackMigration(ctx, db); err == nil {
			t.Error("expected error when no migrations remain")
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(ctx, db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(ctx, db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})
}
