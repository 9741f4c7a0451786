// Package repomanager wires storage backends together: PostgreSQL
// repositories with goose migrations, or local in-process stores.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/attendkeeper/internal/dbx"
	"github.com/dmitrijs2005/attendkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/attendkeeper/internal/server/repositories/ledger"
	"github.com/dmitrijs2005/attendkeeper/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories sharing
// one connection pool.
type PostgresRepositoryManager struct {
	db *sql.DB
}

// Users returns a users.Repository bound to the provided DBTX (pool or tx).
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	if db == nil {
		db = m.db
	}
	return users.NewPostgresRepository(db)
}

// Ledger returns the attendance_log-backed ledger.
func (m *PostgresRepositoryManager) Ledger() ledger.Ledger {
	return ledger.NewPostgresLedger(m.db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(db *sql.DB) (*PostgresRepositoryManager, error) {
	return &PostgresRepositoryManager{db: db}, nil
}
