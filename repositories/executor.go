package repositories

import (
	"context"
	"database/sql"
)

// SQLExecutor позволяет методам репозитория работать как с *sql.DB,
// так и внутри внешней транзакции (*sql.Tx).
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
