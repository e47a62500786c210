package outbox

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"

	"github.com/ledgerline/bankledger/internal/config"
	"github.com/ledgerline/bankledger/internal/logging"
)

// NewWriter builds the Kafka writer the daemon publishes transfer events
// through. Messages are keyed by transaction reference, so all events of one
// transfer land in one partition.
func NewWriter(
	lc fx.Lifecycle,
	cfg *Config,
	globalCFG *config.Config,
	logger *logging.KafkaLogger,
	errLogger *logging.KafkaErrorLogger,
) *kafka.Writer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(globalCFG.KafkaBrokers...),
		Topic:                  cfg.KafkaTransactionProcessedTopic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		AllowAutoTopicCreation: true,
		Logger:                 logger,
		ErrorLogger:            errLogger,
	}

	lc.Append(
		fx.Hook{
			OnStop: func(ctx context.Context) error {
				return w.Close()
			},
		},
	)

	return w
}
