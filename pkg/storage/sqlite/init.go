package sqlite

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	migrate "github.com/rubenv/sql-migrate"
)

var (
	ErrDBConnection = errors.New("database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrDBScan       = errors.New("database scan error")
	ErrCreate       = errors.New("create error")
	ErrMigration    = errors.New("database migration error")
)

type Database struct {
	*sqlx.DB
}

func NewDatabase(path string) (*Database, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	// sqlite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &Database{DB: db}

	if err := database.Migrate(); err != nil {
		db.Close()

		return nil, err
	}

	return database, nil
}

func (db *Database) Migrate() error {
	migrations := &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "1_create_checkpoint_tables",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS models (
						session_id TEXT NOT NULL,
						version INTEGER NOT NULL,
						round INTEGER NOT NULL,
						state TEXT NOT NULL,
						created_at TIMESTAMP NOT NULL,
						PRIMARY KEY (session_id, version)
					)`,
					`CREATE TABLE IF NOT EXISTS rounds (
						session_id TEXT NOT NULL,
						round INTEGER NOT NULL,
						phase TEXT NOT NULL,
						status TEXT NOT NULL,
						contributors INTEGER NOT NULL DEFAULT 0,
						invited INTEGER NOT NULL DEFAULT 0,
						loss REAL NOT NULL DEFAULT 0,
						metrics TEXT,
						error TEXT,
						started_at TIMESTAMP NOT NULL,
						finished_at TIMESTAMP NOT NULL,
						PRIMARY KEY (session_id, round, phase)
					)`,
					`CREATE INDEX IF NOT EXISTS idx_rounds_session ON rounds(session_id, round)`,
				},
				Down: []string{
					`DROP INDEX IF EXISTS idx_rounds_session`,
					`DROP TABLE IF EXISTS rounds`,
					`DROP TABLE IF EXISTS models`,
				},
			},
		},
	}

	if _, err := migrate.Exec(db.DB.DB, "sqlite3", migrations, migrate.Up); err != nil {
		return fmt.Errorf("%w: %w", ErrMigration, err)
	}

	return nil
}
