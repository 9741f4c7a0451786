// Package users stores registered identities. Two implementations exist:
// an in-memory map for single-process deployments and PostgreSQL.
package users

import (
	"context"

	"github.com/dmitrijs2005/attendkeeper/internal/server/models"
)

// Repository persists identities. Create fails with common.ErrorAlreadyExists
// when the username is taken; GetByUsername fails with common.ErrorNotFound
// when it is unknown.
type Repository interface {
	Create(ctx context.Context, identity *models.Identity) (*models.Identity, error)
	GetByUsername(ctx context.Context, username string) (*models.Identity, error)
}
