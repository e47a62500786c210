package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ledgerline/bankledger/internal/logging"
	"github.com/ledgerline/bankledger/internal/models"
	"github.com/ledgerline/bankledger/internal/storage"
)

// TransactionsRepository owns the append-only transfer log. Rows are inserted
// as the terminal step of a committing transfer and never touched again.
type TransactionsRepository struct {
	strg TransactionsStorage
	lg   *logging.ZapLogger
}

type TransactionsStorage interface {
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
}

func NewTransactionsRepository(strg *storage.Storage, lg *logging.ZapLogger) *TransactionsRepository {
	return &TransactionsRepository{strg: strg.DB, lg: lg}
}

// CreateTX appends the transfer record inside the active atomic unit. A
// reference collision trips the UNIQUE constraint and is reported as a commit
// conflict: the whole unit rolls back and a retry draws a fresh reference.
func (rep *TransactionsRepository) CreateTX(ctx context.Context, in *models.Transaction, tx pgx.Tx) error {
	_, err := tx.Exec(
		ctx,
		`
			INSERT INTO transactions(reference, sender_number, receiver_number, amount, description, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
		in.Reference, in.SenderNumber, in.ReceiverNumber, in.Amount, in.Description, in.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return wrapStoreError(err)
		}

		return fmt.Errorf("transactions_repository: create transaction record error %w", err)
	}

	return nil
}

// SentBy lists the committed transfers originating from an account, newest
// first.
func (rep *TransactionsRepository) SentBy(ctx context.Context, number int64) ([]*models.Transaction, error) {
	rows, err := rep.strg.Query(
		ctx,
		`
			SELECT reference, sender_number, receiver_number, amount, description, created_at
			FROM transactions
			WHERE sender_number = $1
			ORDER BY created_at DESC
		`,
		number,
	)
	if err != nil {
		return nil, fmt.Errorf("transactions_repository: query transactions error %w", err)
	}
	defer rows.Close()

	transactions := []*models.Transaction{}
	for rows.Next() {
		t := &models.Transaction{}
		if err := rows.Scan(
			&t.Reference,
			&t.SenderNumber,
			&t.ReceiverNumber,
			&t.Amount,
			&t.Description,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("transactions_repository: scan transactions error %w", err)
		}

		transactions = append(transactions, t)
	}

	return transactions, nil
}
