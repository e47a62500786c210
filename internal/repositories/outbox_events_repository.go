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

var TransactionProcessedEventName = "transaction_processed"

// OutboxEventsRepository holds events written in the same atomic unit as the
// state change they describe. The outbox daemon reserves and publishes them.
type OutboxEventsRepository struct {
	strg OutboxEventsStorage
	lg   *logging.ZapLogger
}

type OutboxEventsStorage interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
}

func NewOutboxEventsRepository(strg *storage.Storage, lg *logging.ZapLogger) *OutboxEventsRepository {
	return &OutboxEventsRepository{strg: strg.DB, lg: lg}
}

func (rep *OutboxEventsRepository) CreateTX(ctx context.Context, in *models.TransactionEvent, tx pgx.Tx) error {
	_, err := tx.Exec(
		ctx,
		`
			INSERT INTO outbox_events(uuid, state, name, message)
			VALUES ($1, $2, $3, $4)
		`,
		in.UUID, in.State, in.Name, in.Meta,
	)
	if err != nil {
		return fmt.Errorf("outbox_events_repository: save event error %w", err)
	}

	return nil
}

// ReserveTransactionProcessedEvent claims the oldest pending event for one
// worker. SKIP LOCKED keeps concurrent workers from reserving the same row.
// Returns (nil, nil) when nothing is pending.
func (rep *OutboxEventsRepository) ReserveTransactionProcessedEvent(ctx context.Context) (*models.TransactionEvent, error) {
	tx, err := rep.strg.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("outbox_events_repository: create tx error %w", err)
	}
	defer tx.Rollback(ctx)

	e := &models.TransactionEvent{Name: TransactionProcessedEventName}
	row := tx.QueryRow(
		ctx,
		`
			SELECT uuid, message
			FROM outbox_events
			WHERE name = $1 AND state = $2
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		`,
		TransactionProcessedEventName, models.TransactionEventNewState)

	if err := row.Scan(&e.UUID, &e.Meta); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("outbox_events_repository: scan attributes error %w", err)
	}

	if err := rep.setStateTX(ctx, e.UUID, models.TransactionEventProcessingState, tx); err != nil {
		return nil, fmt.Errorf("outbox_events_repository: set new state error %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("outbox_events_repository: commit tx error %w", err)
	}

	return e, nil
}

func (rep *OutboxEventsRepository) SetState(ctx context.Context, uuid string, newState string) error {
	tx, err := rep.strg.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("outbox_events_repository: create tx error %w", err)
	}
	defer tx.Rollback(ctx)

	if err := rep.setStateTX(ctx, uuid, newState, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (rep *OutboxEventsRepository) setStateTX(ctx context.Context, uuid string, newState string, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx,
		`
			UPDATE outbox_events
			SET state = $1
			WHERE uuid = $2
		`,
		newState, uuid); err != nil {
		return fmt.Errorf("outbox_events_repository: set state error %w", err)
	}

	return nil
}
