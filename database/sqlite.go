package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	logger "github.com/sirupsen/logrus"
)

const (
	DriverName = "sqlite3"
	// InMemory keeps one shared database per process. Use it with a single
	// open connection.
	InMemory = ":memory:"
)

// Open opens the sqlite database at path, applies the connection pragmas
// and runs the given schema statements.
func Open(path string, schema ...string) (*sql.DB, error) {
	dsn := path
	if path != InMemory {
		dsn = fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	}

	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, err
	}
	if path == InMemory {
		// every new connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := Migrate(context.Background(), db, schema...); err != nil {
		db.Close()
		return nil, err
	}

	logger.WithField("path", path).Debug("database opened")
	return db, nil
}

// Migrate runs every statement in one transaction.
func Migrate(ctx context.Context, db *sql.DB, schema ...string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return tx.Commit()
}
