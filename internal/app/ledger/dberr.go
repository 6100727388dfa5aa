package ledger

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// WrapDBError maps driver-level failures onto the shared taxonomy.
// Lock-not-available, serialization failure and deadlock become
// ConcurrentModificationError so callers can answer with a retry hint.
func WrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03", "40001", "40P01":
			return &ConcurrentModificationError{Operation: op, Err: err}
		}
	}
	return err
}
