package profiles

import (
	"context"

	"github.com/dmitrijs2005/eternalvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}
