package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/coinledger/internal/dbx"
	"github.com/dmitrijs2005/coinledger/internal/server/repositories/transactions"
	"github.com/dmitrijs2005/coinledger/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Transactions(db dbx.DBTX) transactions.Repository
}
