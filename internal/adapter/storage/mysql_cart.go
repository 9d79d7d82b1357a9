package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/petstore-orders/internal/core/domain"
)

const cartColumns = `id, member_id, product_id, quantity, unit_price, created_at, updated_at`

type mysqlCarts struct {
	q querier
	// lockRows takes row locks on member reads so a concurrent checkout of the same cart waits.
	lockRows bool
}

func scanCartItem(s rowScanner) (domain.CartItem, error) {
	var c domain.CartItem
	err := s.Scan(&c.ID, &c.MemberID, &c.ProductID, &c.Quantity, &c.UnitPrice, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *mysqlCarts) ListByMember(ctx context.Context, memberID int64) ([]domain.CartItem, error) {
	query := `SELECT ` + cartColumns + ` FROM cart_items WHERE member_id = ? ORDER BY created_at, id`
	if r.lockRows {
		query += ` FOR UPDATE`
	}

	rows, err := r.q.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart: %w", err)
	}
	return items, nil
}

func (r *mysqlCarts) FindByMemberAndProduct(ctx context.Context, memberID, productID int64) (*domain.CartItem, error) {
	query := `SELECT ` + cartColumns + ` FROM cart_items WHERE member_id = ? AND product_id = ?`
	if r.lockRows {
		query += ` FOR UPDATE`
	}

	item, err := scanCartItem(r.q.QueryRowContext(ctx, query, memberID, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCartItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart item: %w", err)
	}
	return &item, nil
}

func (r *mysqlCarts) Insert(ctx context.Context, item *domain.CartItem) error {
	result, err := r.q.ExecContext(ctx, `
		INSERT INTO cart_items (member_id, product_id, quantity, unit_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.MemberID, item.ProductID, item.Quantity, item.UnitPrice, item.CreatedAt, item.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return domain.Errorf(domain.EINVALID, "mysqlCarts.Insert", "product %d is already in the cart", item.ProductID)
	}
	if err != nil {
		return fmt.Errorf("insert cart item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("cart item id: %w", err)
	}
	item.ID = id
	return nil
}

func (r *mysqlCarts) Update(ctx context.Context, item domain.CartItem) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE cart_items SET quantity = ?, unit_price = ?, updated_at = ?
		WHERE id = ?`,
		item.Quantity, item.UnitPrice, item.UpdatedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	return nil
}

func (r *mysqlCarts) Delete(ctx context.Context, memberID, productID int64) (bool, error) {
	result, err := r.q.ExecContext(ctx,
		`DELETE FROM cart_items WHERE member_id = ? AND product_id = ?`, memberID, productID)
	if err != nil {
		return false, fmt.Errorf("delete cart item: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *mysqlCarts) DeleteByMember(ctx context.Context, memberID int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM cart_items WHERE member_id = ?`, memberID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
