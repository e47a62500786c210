package models

import "time"

// Transaction is an append-only record of a committed transfer. Reference is
// globally unique and never reused, enforced by a store-level constraint.
type Transaction struct {
	Reference      string
	SenderNumber   int64
	ReceiverNumber int64
	Amount         int64
	Description    string
	CreatedAt      time.Time
}
