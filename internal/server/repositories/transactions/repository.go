package transactions

import (
	"context"

	"github.com/dmitrijs2005/coinledger/internal/server/models"
)

// Repository is the append-only ledger store. Rows are immutable once
// written, so there is no update or delete method.
type Repository interface {
	Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Transaction, error)
	Balance(ctx context.Context, userID string) (*models.Balance, error)
}
