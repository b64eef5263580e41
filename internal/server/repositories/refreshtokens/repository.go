package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/eternalvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID, sessionID, token string, validity time.Duration) error
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
	DeleteBySession(ctx context.Context, sessionID string) error
}
