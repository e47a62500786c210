// Package transfers implements the transfer protocol: moving funds between
// two accounts and appending the transaction record as one atomic unit.
package transfers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ledgerline/bankledger/internal/logging"
	"github.com/ledgerline/bankledger/internal/models"
	"github.com/ledgerline/bankledger/internal/repositories"
)

const transferDescription = "Transfer"

// Engine orchestrates one transfer per call. It keeps no state of its own;
// correctness under concurrent callers comes from the store's atomic unit and
// the sender row lock taken inside it.
type Engine struct {
	lg           *logging.ZapLogger
	accounts     AccountsRepository
	transactions TransactionsRepository
	outbox       OutboxEventsRepository
	refs         ReferenceGenerator
}

type AccountsRepository interface {
	BeginTX(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	CommitTX(ctx context.Context, tx pgx.Tx) error
	RollbackTX(ctx context.Context, tx pgx.Tx) error
	FindForUpdateTX(ctx context.Context, tx pgx.Tx, number int64) (*models.Account, error)
	DecrementTX(ctx context.Context, tx pgx.Tx, number int64, amount int64) error
	IncrementOrCreateTX(ctx context.Context, tx pgx.Tx, number int64, amount int64) error
}

type TransactionsRepository interface {
	CreateTX(ctx context.Context, in *models.Transaction, tx pgx.Tx) error
}

type OutboxEventsRepository interface {
	CreateTX(ctx context.Context, in *models.TransactionEvent, tx pgx.Tx) error
}

type ReferenceGenerator interface {
	Generate() (string, error)
}

func NewEngine(
	accounts AccountsRepository,
	transactions TransactionsRepository,
	outbox OutboxEventsRepository,
	refs ReferenceGenerator,
	lg *logging.ZapLogger,
) *Engine {
	return &Engine{
		lg:           lg,
		accounts:     accounts,
		transactions: transactions,
		outbox:       outbox,
		refs:         refs,
	}
}

// Transfer moves amount minor units from sender to receiver and appends the
// transaction record, all inside one atomic unit. Any failure rolls the whole
// unit back; no caller ever observes a half-applied transfer.
//
// An absent sender is reported as ErrInsufficientFunds, indistinguishable from
// a short balance. The receiver is created on first credit. A transfer to the
// sender's own account is allowed: balances net to a no-op, the transaction is
// still logged. Transfers are not idempotent; resubmitting the same request
// commits a second transaction under a fresh reference.
func (e *Engine) Transfer(ctx context.Context, sender int64, receiver int64, amount int64) (*models.Transaction, error) {
	tx, err := e.accounts.BeginTX(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("transfers: begin atomic unit error %w", err)
	}
	defer e.accounts.RollbackTX(ctx, tx)

	acct, err := e.accounts.FindForUpdateTX(ctx, tx, sender)
	if err != nil {
		return nil, fmt.Errorf("transfers: lock sender account error %w", err)
	}

	if acct == nil || acct.Balance < amount {
		return nil, models.ErrInsufficientFunds
	}

	if err := e.accounts.DecrementTX(ctx, tx, sender, amount); err != nil {
		return nil, fmt.Errorf("transfers: decrement sender balance error %w", err)
	}

	if err := e.accounts.IncrementOrCreateTX(ctx, tx, receiver, amount); err != nil {
		return nil, fmt.Errorf("transfers: credit receiver balance error %w", err)
	}

	ref, err := e.refs.Generate()
	if err != nil {
		return nil, fmt.Errorf("transfers: generate reference error %w", err)
	}

	transaction := &models.Transaction{
		Reference:      ref,
		SenderNumber:   sender,
		ReceiverNumber: receiver,
		Amount:         amount,
		Description:    transferDescription,
		CreatedAt:      time.Now().UTC(),
	}
	if err := e.transactions.CreateTX(ctx, transaction, tx); err != nil {
		return nil, fmt.Errorf("transfers: append transaction record error %w", err)
	}

	event := &models.TransactionEvent{
		UUID:  uuid.NewString(),
		State: models.TransactionEventNewState,
		Name:  repositories.TransactionProcessedEventName,
		Meta: &models.TransactionEventMeta{
			Reference:      ref,
			SenderNumber:   sender,
			ReceiverNumber: receiver,
			Amount:         amount,
			ProcessedAt:    transaction.CreatedAt,
		},
	}
	if err := e.outbox.CreateTX(ctx, event, tx); err != nil {
		return nil, fmt.Errorf("transfers: save outbox event error %w", err)
	}

	if err := e.accounts.CommitTX(ctx, tx); err != nil {
		return nil, fmt.Errorf("transfers: commit atomic unit error %w", err)
	}

	e.lg.DebugCtx(
		ctx,
		"transfer committed",
		zap.String("reference", ref),
		zap.Int64("sender", sender),
		zap.Int64("receiver", receiver),
		zap.Int64("amount", amount),
	)

	return transaction, nil
}
