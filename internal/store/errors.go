package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// mapWriteErr turns a concurrent version insert into ErrConflict.
func mapWriteErr(err error) error {
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}
