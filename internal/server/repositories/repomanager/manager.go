package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/attendkeeper/internal/dbx"
	"github.com/dmitrijs2005/attendkeeper/internal/server/repositories/ledger"
	"github.com/dmitrijs2005/attendkeeper/internal/server/repositories/users"
)

// RepositoryManager vends the storage implementations used by the server.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users(db dbx.DBTX) users.Repository
	Ledger() ledger.Ledger
	Close() error
}

// Open picks the backend: PostgreSQL when dsn is set, otherwise the
// in-memory identity store plus the JSON-lines ledger at ledgerPath.
func Open(dsn, ledgerPath string) (RepositoryManager, error) {
	if dsn != "" {
		db, err := sqlOpen("pgx", dsn)
		if err != nil {
			return nil, err
		}
		m, err := NewPostgresRepositoryManager(db)
		if err != nil {
			return nil, err
		}
		return m, nil
	}

	m, err := NewLocalRepositoryManager(ledgerPath)
	if err != nil {
		return nil, err
	}
	return m, nil
}

var sqlOpen = sql.Open
