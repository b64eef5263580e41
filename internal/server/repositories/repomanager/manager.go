package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/eternalvault/internal/dbx"
	"github.com/dmitrijs2005/eternalvault/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/eternalvault/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/eternalvault/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/eternalvault/internal/server/repositories/vaults"
)

// RepositoryManager vends repositories bound to a *sql.DB or a *sql.Tx so
// services can run several of them inside one dbx.WithTx call.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Vaults(db dbx.DBTX) vaults.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
