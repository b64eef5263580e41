package services

import (
	"context"

	"github.com/dmitrijs2005/eternalvault/internal/dbx"
	"github.com/dmitrijs2005/eternalvault/internal/server/models"
	"github.com/dmitrijs2005/eternalvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/eternalvault/internal/wizard"
)

// VaultWriter adapts the vaults repository to wizard.VaultInserter.
type VaultWriter struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
}

func NewVaultWriter(db dbx.DBTX, m repomanager.RepositoryManager) *VaultWriter {
	return &VaultWriter{db: db, repomanager: m}
}

func (w *VaultWriter) InsertVault(ctx context.Context, r wizard.Record) (string, error) {
	v, err := w.repomanager.Vaults(w.db).Create(ctx, &models.Vault{
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		UnlockDate:  r.UnlockDate,
		Guardians:   r.Guardians,
		Message:     r.Message,
		Files:       r.Files,
		Status:      r.Status,
	})
	if err != nil {
		return "", err
	}
	return v.ID, nil
}
