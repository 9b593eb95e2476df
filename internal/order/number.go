package order

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Order numbers look like ORD2025080042: a fixed prefix, the calendar
// month, and a 4-digit sequence that restarts every month. The sequence
// comes from an atomic per-month counter row rather than a max()-then-insert
// scan, so two checkouts in the same instant cannot mint the same number.
// The unique index on orders.order_number stays as a backstop.

const numberPrefix = "ORD"

// MonthKey returns the YYYYMM partition for t.
func MonthKey(t time.Time) string {
	return t.Format("200601")
}

// FormatOrderNumber renders a month partition and sequence as an order
// number.
func FormatOrderNumber(month string, seq int) string {
	return fmt.Sprintf("%s%s%04d", numberPrefix, month, seq)
}

// nextOrderNumber allocates the next number for t's month inside tx. The
// counter upsert takes a row lock on the month row, serializing concurrent
// allocations; the lock is released with the caller's commit or rollback,
// so an aborted checkout can leave a gap but never a duplicate.
func nextOrderNumber(ctx context.Context, tx pgx.Tx, t time.Time) (string, error) {
	month := MonthKey(t)
	var seq int
	err := tx.QueryRow(ctx, `
		INSERT INTO order_counters (month, last_seq)
		VALUES ($1, 1)
		ON CONFLICT (month) DO UPDATE SET last_seq = order_counters.last_seq + 1
		RETURNING last_seq
	`, month).Scan(&seq)
	if err != nil {
		return "", err
	}
	return FormatOrderNumber(month, seq), nil
}
