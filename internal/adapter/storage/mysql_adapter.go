package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/petstore-orders/internal/port"
)

const mysqlErrDuplicateEntry = 1062

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) Products() port.ProductRepository { return &mysqlProducts{q: m.db} }
func (m *MySQLAdapter) Carts() port.CartRepository       { return &mysqlCarts{q: m.db} }
func (m *MySQLAdapter) Orders() port.OrderRepository     { return &mysqlOrders{q: m.db} }

func (m *MySQLAdapter) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.Store) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, mysqlTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type mysqlTx struct {
	tx *sql.Tx
}

func (t mysqlTx) Products() port.ProductRepository { return &mysqlProducts{q: t.tx} }
func (t mysqlTx) Carts() port.CartRepository       { return &mysqlCarts{q: t.tx, lockRows: true} }
func (t mysqlTx) Orders() port.OrderRepository     { return &mysqlOrders{q: t.tx} }

func rowsAffected(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}
