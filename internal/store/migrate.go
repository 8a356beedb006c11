package store

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of the migrations inside Migrations.
const MigrationsDir = "migrations"

// Migrate brings the schema up to date, dialect is a goose dialect like "postgres".
func Migrate(db *sql.DB, dialect string) error {
	goose.SetBaseFS(Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// Open connects to the postgres database at dsn and migrates it.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := Migrate(db, "postgres"); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
