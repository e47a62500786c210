// Package outbox relays committed transfer events from the outbox_events
// table to Kafka. Events are written inside the transfer's atomic unit, so a
// transfer and its event either both exist or neither does.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ledgerline/bankledger/internal/logging"
	"github.com/ledgerline/bankledger/internal/models"
)

type Daemon struct {
	lg           *logging.ZapLogger
	pollInterval time.Duration
	workersCount int64
	cfg          *Config

	canceller context.CancelFunc
	globalCtx context.Context
	events    EventsRepository
	publisher Publisher
}

type EventsRepository interface {
	ReserveTransactionProcessedEvent(ctx context.Context) (*models.TransactionEvent, error)
	SetState(ctx context.Context, uuid string, newState string) error
}

// Publisher is satisfied by *kafka.Writer.
type Publisher interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func NewDaemon(
	lc fx.Lifecycle,
	events EventsRepository,
	publisher Publisher,
	lg *logging.ZapLogger,
	cfg *Config,
) *Daemon {
	dmn := &Daemon{
		lg:           lg,
		pollInterval: time.Duration(cfg.PollInterval) * time.Millisecond,
		workersCount: cfg.WorkersCount,
		cfg:          cfg,
		events:       events,
		publisher:    publisher,
	}

	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				dmn.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				dmn.canceller()
				return nil
			},
		},
	)

	return dmn
}

func (dmn *Daemon) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	dmn.canceller = cancel
	dmn.globalCtx = dmn.lg.WithContextFields(ctx, zap.String("name", "transaction_outbox_daemon"))

	dmn.lg.DebugCtx(ctx, "start publishing transfer events", zap.Any("config", dmn.cfg))

	for i := 0; i < int(dmn.workersCount); i++ {
		wctx := dmn.lg.WithContextFields(dmn.globalCtx, zap.Int("worker_id", i))
		go func() {
			ticker := time.NewTicker(dmn.pollInterval)

			for {
				select {
				case <-wctx.Done():
					dmn.lg.DebugCtx(wctx, "daemon worker graceful shutdown")
					return
				case <-ticker.C:
					if err := dmn.processEvent(wctx); err != nil {
						dmn.lg.ErrorCtx(wctx, "process event finished error", zap.Error(err))
					}
				}
			}
		}()
	}
}

func (dmn *Daemon) processEvent(ctx context.Context) error {
	e, err := dmn.events.ReserveTransactionProcessedEvent(ctx)
	if err != nil {
		return fmt.Errorf("outbox: reserve pending event error %w", err)
	}

	if e == nil {
		return nil
	}

	ctx = dmn.lg.WithContextFields(ctx, zap.String("event_uuid", e.UUID))

	payload, err := json.Marshal(e.Meta)
	if err != nil {
		if err := dmn.events.SetState(ctx, e.UUID, models.TransactionEventFailedState); err != nil {
			return fmt.Errorf("outbox: set event %s state error %w", models.TransactionEventFailedState, err)
		}

		return fmt.Errorf("outbox: marshal event payload error %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(e.Meta.Reference),
		Value: payload,
	}
	if err := dmn.publisher.WriteMessages(ctx, msg); err != nil {
		if err := dmn.events.SetState(ctx, e.UUID, models.TransactionEventFailedState); err != nil {
			return fmt.Errorf("outbox: set event %s state error %w", models.TransactionEventFailedState, err)
		}

		return fmt.Errorf("outbox: publish event error %w", err)
	}

	dmn.lg.DebugCtx(ctx, "published transfer event", zap.String("reference", e.Meta.Reference))

	return dmn.events.SetState(ctx, e.UUID, models.TransactionEventFinishedState)
}
