package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/coinledger/internal/common"
	"github.com/dmitrijs2005/coinledger/internal/dbx"
	"github.com/dmitrijs2005/coinledger/internal/logging"
	"github.com/dmitrijs2005/coinledger/internal/server/models"
	"github.com/dmitrijs2005/coinledger/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// TransactionService implements the ledger operations: appending entries,
// listing them, and deriving the balance. Every operation is bound to a
// principal: the user id taken from a verified token must match the targeted
// user, otherwise the call fails with common.ErrorForbidden.
type TransactionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewTransactionService constructs a TransactionService.
func NewTransactionService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *TransactionService {
	return &TransactionService{
		db:          db,
		repomanager: m,
		logger:      l.With("module", "transaction_service"),
	}
}

// Append validates and persists one ledger entry for userID. The owning-user
// existence check and the insert run inside a single database transaction,
// so a concurrent balance read observes the new entry fully or not at all.
// Debits may drive the balance negative: there is no overdraft check.
func (s *TransactionService) Append(ctx context.Context, principalID, userID string, amount decimal.Decimal, txType models.TransactionType, description string) (*models.Transaction, error) {
	if principalID != userID {
		return nil, common.ErrorForbidden
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if _, ok := models.ParseTransactionType(string(txType)); !ok {
		return nil, fmt.Errorf("%w: transaction_type must be credit or debit", common.ErrorValidation)
	}

	var created *models.Transaction
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		exists, err := s.repomanager.Users(tx).Exists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return common.ErrorNotFound
		}

		created, err = s.repomanager.Transactions(tx).Create(ctx, &models.Transaction{
			UserID:      userID,
			Amount:      amount,
			Type:        txType,
			Description: description,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "transaction append failed", "error", err)
		return nil, common.ErrorInternal
	}

	return created, nil
}

// List returns the user's transactions in creation order, oldest first.
func (s *TransactionService) List(ctx context.Context, principalID, userID string) ([]*models.Transaction, error) {
	if principalID != userID {
		return nil, common.ErrorForbidden
	}

	result, err := s.repomanager.Transactions(s.db).ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "transaction list failed", "error", err)
		return nil, common.ErrorInternal
	}
	return result, nil
}

// Balance recomputes the user's balance from the ledger. The value is
// derived on every call, never cached.
func (s *TransactionService) Balance(ctx context.Context, principalID, userID string) (*models.Balance, error) {
	if principalID != userID {
		return nil, common.ErrorForbidden
	}

	b, err := s.repomanager.Transactions(s.db).Balance(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "balance query failed", "error", err)
		return nil, common.ErrorInternal
	}
	return b, nil
}

// validateAmount enforces a strictly positive magnitude with at most two
// decimal places. The sign of an entry lives in its type, never in amount.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", common.ErrorValidation)
	}
	if !amount.Equal(amount.Truncate(2)) {
		return fmt.Errorf("%w: amount must have at most 2 decimal places", common.ErrorValidation)
	}
	return nil
}
