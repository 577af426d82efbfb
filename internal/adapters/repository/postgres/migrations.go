package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations lists the embedded migration files matching suffix
// ("up.sql" or "down.sql"), in application order.
func Migrations(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	if suffix == "down.sql" {
		for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
			names[i], names[j] = names[j], names[i]
		}
	}
	return names, nil
}

// FindMigration returns the embedded file whose name contains name.
func FindMigration(name string) (string, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return "", fmt.Errorf("failed to read migrations: %w", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), name) {
			return entry.Name(), nil
		}
	}
	return "", fmt.Errorf("migration file not found")
}

// ApplyMigration executes one embedded migration file.
func ApplyMigration(ctx context.Context, db *sql.DB, file string) error {
	content, err := migrationFiles.ReadFile("migrations/" + file)
	if err != nil {
		return fmt.Errorf("failed to read migration file %s: %w", file, err)
	}
	if _, err := db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", file, err)
	}
	return nil
}

// Migrate applies every up migration. Migrations are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	names, err := Migrations("up.sql")
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := ApplyMigration(ctx, db, name); err != nil {
			return err
		}
	}
	return nil
}
