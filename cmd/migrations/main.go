package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"

	"github.com/vncsmyrnk/planningpoker/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/planningpoker/internal/config"
)

// Usage: migrations [name]
// Without a name every up migration is applied; otherwise only the embedded
// file whose name contains name (e.g. "create_sessions.down").
func main() {
	pg, err := config.LoadPostgres()
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("postgres", pg.ConnString())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	if len(os.Args) < 2 {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal(err)
		}
		fmt.Println("All migrations executed successfully.")
		return
	}

	file, err := postgres.FindMigration(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	if err := postgres.ApplyMigration(ctx, db, file); err != nil {
		log.Fatalf("Failed to execute SQL file: %v", err)
	}

	fmt.Printf("Migration file %s executed successfully.\n", file)
}
