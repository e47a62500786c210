package models

import "time"

// Account balance is stored as an int64 amount of minor currency units
// (cents). Conversion to currency units happens only at the HTTP boundary.
type Account struct {
	Number    int64
	Balance   int64
	CreatedAt time.Time
}
