package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Spok95/class-points-bot/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Querier: общий интерфейс *sql.DB и *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// WithTx выполняет fn в транзакции; любая ошибка откатывает всё.
func WithTx(ctx context.Context, database *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return models.Storage("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapErr("commit", err)
	}
	return nil
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNumericOutOfRange   = "22003"
)

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// mapErr переводит ошибки драйвера в ошибки ядра. Уже типизированные ошибки не трогает.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var me *models.Error
	if errors.As(err, &me) {
		return err
	}
	switch sqlState(err) {
	case pgUniqueViolation:
		return &models.Error{Kind: models.KindConflict, Code: models.CodeDuplicate, Msg: op, Err: err}
	case pgForeignKeyViolation:
		return &models.Error{Kind: models.KindNotFound, Code: models.CodeNotFound, Msg: op, Err: err}
	case pgCheckViolation, pgNumericOutOfRange:
		return &models.Error{Kind: models.KindValidation, Code: models.CodeInvalid, Msg: op, Err: err}
	}
	return models.Storage(op, fmt.Errorf("%s: %w", op, err))
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// escapeLike экранирует спецсимволы LIKE.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
