package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/infrastructure/metrics"
)

// runInTx executes fn inside one transaction and commits it. When retrier is set the
// whole unit of work is re-run on transient conflicts, so fn must not leak state
// between attempts.
func runInTx(ctx context.Context, txManager TransactionManager, retrier Retrier, fn func(ctx context.Context, tx Transaction) error) error {
	operation := func() error {
		// Add transaction timeout
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	if retrier == nil {
		return operation()
	}

	return retrier.Retry(ctx, operation)
}

// runReadOnly executes fn inside one read-only transaction so that every read
// it makes observes the same committed state.
func runReadOnly(ctx context.Context, txManager TransactionManager, fn func(ctx context.Context, tx Transaction) error) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := txManager.BeginReadOnly(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := fn(txCtx, tx); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

func observe(m *metrics.Metrics, operation string, start time.Time, err error) {
	if m == nil {
		return
	}

	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		m.OperationErrors.WithLabelValues(operation, strconv.Itoa(int(domain.CodeOf(err)))).Inc()
	}
}

func principalName(ctx context.Context) string {
	if p, ok := domain.PrincipalFromContext(ctx); ok {
		return p.Identity.String()
	}
	return SystemPrincipal
}

func formatAmount(v uint64) string {
	return strconv.FormatUint(v, 10)
}
