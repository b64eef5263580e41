// Package vaults stores vaults in PostgreSQL. Guardians and file keys are
// JSONB arrays.
package vaults

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/eternalvault/internal/common"
	"github.com/dmitrijs2005/eternalvault/internal/dbx"
	"github.com/dmitrijs2005/eternalvault/internal/server/models"
)

const vaultColumns = `id, user_id, title, description, unlock_date, guardians, message, files, status, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func decodeList(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts vault and fills in its id and creation time.
func (r *PostgresRepository) Create(ctx context.Context, v *models.Vault) (*models.Vault, error) {
	guardians, err := encodeList(v.Guardians)
	if err != nil {
		return nil, fmt.Errorf("encode guardians: %w", err)
	}
	files, err := encodeList(v.Files)
	if err != nil {
		return nil, fmt.Errorf("encode files: %w", err)
	}

	query :=
		`INSERT INTO vaults (user_id, title, description, unlock_date, guardians, message, files, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		v.UserID, v.Title, v.Description, v.UnlockDate, guardians, v.Message, files, v.Status).
		Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return v, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVault(s scanner) (*models.Vault, error) {
	v := &models.Vault{}
	var guardians, files []byte
	if err := s.Scan(&v.ID, &v.UserID, &v.Title, &v.Description, &v.UnlockDate,
		&guardians, &v.Message, &files, &v.Status, &v.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if v.Guardians, err = decodeList(guardians); err != nil {
		return nil, fmt.Errorf("decode guardians: %w", err)
	}
	if v.Files, err = decodeList(files); err != nil {
		return nil, fmt.Errorf("decode files: %w", err)
	}
	return v, nil
}

// ListByUser returns the user's vaults, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Vault, error) {
	query := `SELECT ` + vaultColumns + ` FROM vaults
		 WHERE user_id = $1
		 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Vault{}
	for rows.Next() {
		v, err := scanVault(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// GetByID returns the vault only when it belongs to userID.
func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.Vault, error) {
	query := `SELECT ` + vaultColumns + ` FROM vaults
		 WHERE id = $1 AND user_id = $2`

	v, err := scanVault(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}
