package transactions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/coinledger/internal/dbx"
	"github.com/dmitrijs2005/coinledger/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an immutable ledger row with a freshly generated id.
// Run it on a transactional handle together with the owning-user existence
// check so the pair commits as one unit.
func (r *PostgresRepository) Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {

	query :=
		`INSERT INTO transactions (id, user_id, amount, transaction_type, description)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	t.ID = uuid.NewString()

	err := r.db.QueryRowContext(ctx, query,
		t.ID, t.UserID, t.Amount, string(t.Type), t.Description).Scan(&t.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

// ListByUser returns the user's transactions in creation order, oldest
// first. An empty ledger yields an empty slice, not an error.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Transaction, error) {
	query :=
		`SELECT id, user_id, amount, transaction_type, description, created_at FROM transactions
		 WHERE user_id = $1
		 ORDER BY created_at, id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Transaction, 0)
	for rows.Next() {
		t := &models.Transaction{}
		var txType string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &txType, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		t.Type = models.TransactionType(txType)
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Balance sums the ledger in a single statement so the result is a
// consistent snapshot: a concurrently committing append is either fully
// included or not at all. Nothing is cached.
func (r *PostgresRepository) Balance(ctx context.Context, userID string) (*models.Balance, error) {
	query :=
		`SELECT COALESCE(SUM(CASE WHEN transaction_type = 'credit' THEN amount ELSE -amount END), 0),
		        MAX(created_at)
		 FROM transactions
		 WHERE user_id = $1
		 `

	b := &models.Balance{UserID: userID}
	var lastUpdated sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&b.Balance, &lastUpdated)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lastUpdated.Valid {
		b.LastUpdated = &lastUpdated.Time
	}

	return b, nil
}
