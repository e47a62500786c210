// Package accounts provisions new accounts with generated numbers.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerline/bankledger/internal/logging"
	"github.com/ledgerline/bankledger/internal/models"
)

const (
	numberMin = 1_000_000_000
	numberMax = 9_999_999_999

	// How many generated numbers to try before surfacing the collision.
	createAttempts = 3
)

type Service struct {
	lg       *logging.ZapLogger
	accounts Repository
}

type Repository interface {
	Create(ctx context.Context, in *models.Account) error
}

func NewService(accounts Repository, lg *logging.ZapLogger) *Service {
	return &Service{lg: lg, accounts: accounts}
}

// CreateAccount persists a new account under a pseudo-random 10-digit number
// with the given initial balance. A number collision is retried with a fresh
// number; after createAttempts collisions the ErrDuplicateAccount surfaces.
func (s *Service) CreateAccount(ctx context.Context, initialBalance int64) (*models.Account, error) {
	var err error
	for i := 0; i < createAttempts; i++ {
		acct := &models.Account{
			Number:    newNumber(),
			Balance:   initialBalance,
			CreatedAt: time.Now().UTC(),
		}

		err = s.accounts.Create(ctx, acct)
		if err == nil {
			return acct, nil
		}

		if !errors.Is(err, models.ErrDuplicateAccount) {
			return nil, fmt.Errorf("accounts: create account error %w", err)
		}

		s.lg.WarnCtx(ctx, "account number collision", zap.Int64("number", acct.Number))
	}

	return nil, fmt.Errorf("accounts: create account error %w", err)
}

func newNumber() int64 {
	return numberMin + rand.Int63n(numberMax-numberMin+1)
}
