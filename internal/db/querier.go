package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const txKey contextKey = "db_tx"

// Querier picks the most specific handle for ctx: an open transaction, then the
// tenant-scoped connection, then fallback (normally the pool).
func Querier(ctx context.Context, fallback DBTX) DBTX {
	if tx, ok := ctx.Value(txKey).(pgx.Tx); ok && tx != nil {
		return tx
	}
	if conn := ConnFromContext(ctx); conn != nil {
		return conn
	}
	return fallback
}

// Transactor runs fn atomically. Repositories called with the ctx passed to fn
// join the transaction through Querier.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type pgTransactor struct {
	fallback DBTX
}

func NewTransactor(fallback DBTX) Transactor {
	return &pgTransactor{fallback: fallback}
}

func (t *pgTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := Querier(ctx, t.fallback).Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePrefix builds a LIKE pattern matching values that start with q literally.
// Postgres escapes LIKE wildcards with a backslash by default.
func LikePrefix(q string) string {
	return likeEscaper.Replace(q) + "%"
}
