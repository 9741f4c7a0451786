package repomanager

import (
	"context"

	"github.com/dmitrijs2005/attendkeeper/internal/dbx"
	"github.com/dmitrijs2005/attendkeeper/internal/server/repositories/ledger"
	"github.com/dmitrijs2005/attendkeeper/internal/server/repositories/users"
)

// LocalRepositoryManager keeps identities in memory and the ledger in a
// JSON-lines file. The DBTX argument to Users is ignored.
type LocalRepositoryManager struct {
	users  *users.MemoryRepository
	ledger *ledger.FileLedger
}

func NewLocalRepositoryManager(ledgerPath string) (*LocalRepositoryManager, error) {
	l, err := ledger.NewFileLedger(ledgerPath)
	if err != nil {
		return nil, err
	}
	return &LocalRepositoryManager{users: users.NewMemoryRepository(), ledger: l}, nil
}

func (m *LocalRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }
func (m *LocalRepositoryManager) Ledger() ledger.Ledger           { return m.ledger }
func (m *LocalRepositoryManager) RunMigrations(context.Context) error {
	return nil
}
func (m *LocalRepositoryManager) Close() error { return nil }
