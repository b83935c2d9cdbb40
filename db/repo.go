package db

import (
	"context"
	"errors"
	"log"
	"time"

	"radio_fleet_tool/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// TxTimeout bounds every store transaction. A transaction that blows this
// budget surfaces as the timeout kind, not as a generic failure.
const TxTimeout = 10 * time.Second

const uniqueViolation = "23505"

type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

// withTx runs fn inside one transaction with the standard deadline and
// classifies whatever comes out. "Read current state, decide, write"
// sequences belong in here so no concurrent writer can interleave between
// the check and the act.
func (r *Repo) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(ctx, TxTimeout)
	defer cancel()
	return classify(r.DB.WithContext(ctx).Transaction(fn))
}

// read returns a query handle with the same deadline for plain reads.
func (r *Repo) read(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, TxTimeout)
	return r.DB.WithContext(ctx), cancel
}

// classify is the single point where store failures are mapped onto the
// error taxonomy. Errors that are already classified (raised inside a
// transaction callback) pass through unchanged. The raw store error is
// logged here and nowhere else.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("record not found")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperror.Conflict("a record with this value already exists")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("a record with this value already exists")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.Timeout()
	}
	log.Printf("store error: %v", err)
	return apperror.OperationFailed(err)
}
