// Command migrate manages the PitchDesk Postgres schema with goose.
//
// Typical invocations:
//
//	go run ./cmd/migrate up
//	go run ./cmd/migrate status
//	go run ./cmd/migrate down
//	go run ./cmd/migrate up-to 3
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate <command> [args]")
	fmt.Fprintln(os.Stderr, "commands: up, down, redo, status, version, up-to <n>, down-to <n>")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	command, args := os.Args[1], os.Args[2:]

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL must be set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		log.Fatalf("connect to database: %v", err)
	}

	if err := goose.RunContext(context.Background(), command, db, migrationsDir, args...); err != nil {
		log.Fatalf("goose %s: %v", command, err)
	}
}
