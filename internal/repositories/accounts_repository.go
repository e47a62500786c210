package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ledgerline/bankledger/internal/logging"
	"github.com/ledgerline/bankledger/internal/models"
	"github.com/ledgerline/bankledger/internal/storage"
)

// AccountsRepository owns the accounts table: point lookups, conditional
// decrement and upsert-on-increment. All *TX methods run inside an atomic unit
// obtained from BeginTX and passed in explicitly.
type AccountsRepository struct {
	strg AccountsStorage
	lg   *logging.ZapLogger
}

type AccountsStorage interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
}

func NewAccountsRepository(strg *storage.Storage, lg *logging.ZapLogger) *AccountsRepository {
	return &AccountsRepository{strg: strg.DB, lg: lg}
}

func (rep *AccountsRepository) Create(ctx context.Context, in *models.Account) error {
	_, err := rep.strg.Exec(
		ctx,
		`
			INSERT INTO accounts(number, balance, created_at)
			VALUES ($1, $2, $3)
		`,
		in.Number, in.Balance, in.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("accounts_repository: create account error %w", models.ErrDuplicateAccount)
		}

		return fmt.Errorf("accounts_repository: create account error %w", err)
	}

	return nil
}

func (rep *AccountsRepository) Find(ctx context.Context, number int64) (*models.Account, error) {
	acct := models.Account{Number: number}
	row := rep.strg.QueryRow(
		ctx,
		`
			SELECT balance, created_at
			FROM accounts
			WHERE number = $1
		`,
		number,
	)

	if err := row.Scan(&acct.Balance, &acct.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrAccountNotFound
		}

		return nil, fmt.Errorf("accounts_repository: scan account error %w", err)
	}

	return &acct, nil
}

func (rep *AccountsRepository) All(ctx context.Context) ([]*models.Account, error) {
	rows, err := rep.strg.Query(
		ctx,
		`
			SELECT number, balance, created_at
			FROM accounts
			ORDER BY number ASC
		`,
	)
	if err != nil {
		return nil, fmt.Errorf("accounts_repository: query accounts error %w", err)
	}
	defer rows.Close()

	accounts := []*models.Account{}
	for rows.Next() {
		acct := &models.Account{}
		if err := rows.Scan(&acct.Number, &acct.Balance, &acct.CreatedAt); err != nil {
			return nil, fmt.Errorf("accounts_repository: scan accounts error %w", err)
		}

		accounts = append(accounts, acct)
	}

	return accounts, nil
}

// FindForUpdateTX locks the account row for the rest of the atomic unit, so a
// concurrent transfer from the same sender waits here and re-reads a balance
// the winner has already committed. Returns (nil, nil) when the row is absent.
func (rep *AccountsRepository) FindForUpdateTX(ctx context.Context, tx pgx.Tx, number int64) (*models.Account, error) {
	acct := models.Account{Number: number}
	row := tx.QueryRow(
		ctx,
		`
			SELECT balance, created_at
			FROM accounts
			WHERE number = $1
			FOR UPDATE
		`,
		number,
	)

	if err := row.Scan(&acct.Balance, &acct.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("accounts_repository: scan locked account error %w", err)
	}

	return &acct, nil
}

// DecrementTX applies only while the balance stays non-negative; the condition
// and the write are one statement, so there is no read-then-write race.
func (rep *AccountsRepository) DecrementTX(ctx context.Context, tx pgx.Tx, number int64, amount int64) error {
	tag, err := tx.Exec(
		ctx,
		`
			UPDATE accounts
			SET balance = balance - $2
			WHERE number = $1 AND balance >= $2
		`,
		number, amount,
	)
	if err != nil {
		return fmt.Errorf("accounts_repository: decrement balance error %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrInsufficientFunds
	}

	return nil
}

// IncrementOrCreateTX credits the account, creating it with the credited
// amount when absent. The upsert is atomic against concurrent credits.
func (rep *AccountsRepository) IncrementOrCreateTX(ctx context.Context, tx pgx.Tx, number int64, amount int64) error {
	_, err := tx.Exec(
		ctx,
		`
			INSERT INTO accounts(number, balance, created_at)
			VALUES ($1, $2, now())
			ON CONFLICT (number) DO UPDATE
			SET balance = accounts.balance + EXCLUDED.balance
		`,
		number, amount,
	)
	if err != nil {
		return fmt.Errorf("accounts_repository: increment balance error %w", err)
	}

	return nil
}

func (rep *AccountsRepository) BeginTX(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	tx, err := rep.strg.BeginTx(ctx, opts)
	if err != nil {
		return nil, errors.Join(models.ErrStoreUnavailable, err)
	}

	return tx, nil
}

func (rep *AccountsRepository) CommitTX(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return wrapStoreError(err)
	}

	return nil
}

func (rep *AccountsRepository) RollbackTX(ctx context.Context, tx pgx.Tx) error {
	return tx.Rollback(ctx)
}
