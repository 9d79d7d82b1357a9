package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/petstore-orders/internal/core/domain"
)

type mysqlProducts struct {
	q querier
}

func (r *mysqlProducts) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := r.q.QueryRowContext(ctx, `
		SELECT id, name, price, sale_price, stock_quantity, version, created_at, updated_at
		FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.SalePrice, &p.StockQuantity, &p.Version, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (r *mysqlProducts) DecrementStock(ctx context.Context, id int64, quantity int) (bool, error) {
	result, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - ?, version = version + 1, updated_at = NOW(6)
		WHERE id = ? AND stock_quantity >= ?`,
		quantity, id, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *mysqlProducts) IncrementStock(ctx context.Context, id int64, quantity int) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + ?, version = version + 1, updated_at = NOW(6)
		WHERE id = ?`,
		quantity, id,
	)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// SaveProduct inserts a catalog row and sets its ID. Used for seeding.
func (m *MySQLAdapter) SaveProduct(ctx context.Context, p *domain.Product) error {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO products (name, price, sale_price, stock_quantity)
		VALUES (?, ?, ?, ?)`,
		p.Name, p.Price, p.SalePrice, p.StockQuantity,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	p.ID = id
	return nil
}
