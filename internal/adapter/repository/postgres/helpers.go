package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/iho/charityledger/internal/domain"
	"github.com/iho/charityledger/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// dbtx is the query surface shared by the pool and a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func txConn(tx usecase.Transaction) dbtx {
	return tx.(*Tx).PgxTx()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

func numeric(v uint64) decimal.Decimal {
	return domain.DecimalFromUint64(v)
}

var maxUint64 = domain.DecimalFromUint64(math.MaxUint64)

// toUint64 converts a stored NUMERIC(20,0) back to base units.
func toUint64(d decimal.Decimal) (uint64, error) {
	if d.IsNegative() || !d.IsInteger() || d.GreaterThan(maxUint64) {
		return 0, fmt.Errorf("stored amount %s out of range", d.String())
	}
	return d.BigInt().Uint64(), nil
}

func parseStoredIdentity(s string) (domain.Identity, error) {
	id, err := domain.ParseIdentity(s)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("stored identity %q: %w", s, err)
	}
	return id, nil
}

// expectOneRow turns an update that touched nothing into notFound.
func expectOneRow(tag pgconn.CommandTag, notFound error) error {
	if tag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}
