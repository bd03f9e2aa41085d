package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "medboard/pkg/domain-errors"
	ptx "medboard/pkg/platform/tx"
)

const defaultLifecycleTxTimeout = 5 * time.Second

// lifecyclePostgresTx runs lifecycle mutations inside a database transaction.
// The stores pick the transaction up from the context, so a suspend and its
// activity entry commit or roll back together. Row locks (FOR UPDATE on the
// doctor row) serialize concurrent suspensions; the key is unused here.
type lifecyclePostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newLifecyclePostgresTx(db *sql.DB) *lifecyclePostgresTx {
	return &lifecyclePostgresTx{db: db}
}

func (t *lifecyclePostgresTx) RunInTx(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultLifecycleTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(ptx.WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit()
}
