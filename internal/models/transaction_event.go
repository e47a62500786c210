package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	TransactionEventNewState        = "new"
	TransactionEventProcessingState = "processing"
	TransactionEventFinishedState   = "finished"
	TransactionEventFailedState     = "failed"
)

// TransactionEvent is an outbox row written in the same atomic unit as the
// transfer it describes, then relayed to Kafka by the outbox daemon.
type TransactionEvent struct {
	UUID  string                `json:"uuid"`
	State string                `json:"state"`
	Name  string                `json:"name"`
	Meta  *TransactionEventMeta `json:"meta"`
}

type TransactionEventMeta struct {
	Reference      string    `json:"reference"`
	SenderNumber   int64     `json:"sender_number"`
	ReceiverNumber int64     `json:"receiver_number"`
	Amount         int64     `json:"amount"`
	ProcessedAt    time.Time `json:"processed_at"`
}

func (m *TransactionEventMeta) Scan(value interface{}) error {
	if value == nil {
		*m = TransactionEventMeta{}
		return nil
	}

	b, ok := value.(string)
	if !ok {
		return fmt.Errorf("models/transaction_event: meta invalid format error, expected json")
	}

	return json.Unmarshal([]byte(b), &m)
}

func (m TransactionEventMeta) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("models/transaction_event: meta json marshal error %w", err)
	}

	return b, nil
}
