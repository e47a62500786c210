package outbox

import (
	"github.com/caarlos0/env"
)

type Config struct {
	PollInterval int   `json:"poll_interval" env:"OUTBOX_POLL_INTERVAL" envDefault:"250"`
	WorkersCount int64 `json:"workers_count" env:"OUTBOX_WORKERS_COUNT" envDefault:"5"`

	KafkaTransactionProcessedTopic string `json:"kafka_transaction_processed_topic" env:"KAFKA_TRANSACTION_PROCESSED_TOPIC" envDefault:"transaction_processed"`
	KafkaBatchTimeout              int    `json:"kafka_batch_timeout" env:"KAFKA_BATCH_TIMEOUT" envDefault:"100"`
}

func MustNewConfig() *Config {
	c := &Config{}
	env.Parse(c)

	return c
}
