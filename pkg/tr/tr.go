// Package tr хранит активную pgx-транзакцию в контексте запроса.
package tr

import (
	"context"

	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type txKey struct{}

// Querier — общее подмножество pgx.Tx и pgxpool.Pool, которым пользуются репозитории.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// WithTx кладёт транзакцию в контекст
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromCtx извлекает объект транзакции (pgx.Tx) из контекста
func TxFromCtx(ctx context.Context) (pgx.Tx, error) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return nil, e.ErrTransactionNotFound
	}
	return tx, nil
}

// QuerierFromCtx возвращает транзакцию из контекста, а если её нет — переданный пул.
func QuerierFromCtx(ctx context.Context, fallback Querier) Querier {
	if tx, err := TxFromCtx(ctx); err == nil {
		return tx
	}
	return fallback
}

// WithRawTx кладёт в контекст транзакцию, полученную от менеджера транзакций.
func WithRawTx(ctx context.Context, raw any) (context.Context, error) {
	tx, ok := raw.(pgx.Tx)
	if !ok {
		return ctx, e.ErrTransactionNotFound
	}

	return WithTx(ctx, tx), nil
}
