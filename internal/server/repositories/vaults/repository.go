package vaults

import (
	"context"

	"github.com/dmitrijs2005/eternalvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, vault *models.Vault) (*models.Vault, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Vault, error)
	GetByID(ctx context.Context, userID, id string) (*models.Vault, error)
}
