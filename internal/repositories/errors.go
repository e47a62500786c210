package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ledgerline/bankledger/internal/models"
)

// Postgres error codes the engine cares about.
const (
	uniqueViolationCode      = "23505"
	serializationFailureCode = "40001"
	deadlockDetectedCode     = "40P01"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// wrapStoreError classifies a store failure: isolation conflicts and
// uniqueness violations become ErrCommitConflict (the caller may resubmit,
// drawing a new reference), everything else ErrStoreUnavailable. The original
// error stays in the chain for logs only.
func wrapStoreError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode, serializationFailureCode, deadlockDetectedCode:
			return errors.Join(models.ErrCommitConflict, err)
		}
	}

	return errors.Join(models.ErrStoreUnavailable, err)
}
