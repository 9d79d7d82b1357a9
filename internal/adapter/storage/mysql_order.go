package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rl1809/petstore-orders/internal/core/domain"
)

const orderColumns = `id, member_id, order_number, status_id, total_amount, shipping_amount, tax_amount,
	discount_amount, shipping_address, notes, deleted, created_at, updated_at`

const orderItemColumns = `id, order_id, product_id, quantity, unit_price, total_price, created_at`

type mysqlOrders struct {
	q querier
}

func scanOrder(s rowScanner) (domain.Order, error) {
	var o domain.Order
	err := s.Scan(&o.ID, &o.MemberID, &o.OrderNumber, &o.Status, &o.TotalAmount, &o.ShippingAmount, &o.TaxAmount,
		&o.DiscountAmount, &o.ShippingAddress, &o.Notes, &o.Deleted, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func scanOrderItem(s rowScanner) (domain.OrderItem, error) {
	var i domain.OrderItem
	err := s.Scan(&i.ID, &i.OrderID, &i.ProductID, &i.Quantity, &i.UnitPrice, &i.TotalPrice, &i.CreatedAt)
	return i, err
}

func (r *mysqlOrders) Insert(ctx context.Context, order *domain.Order) error {
	result, err := r.q.ExecContext(ctx, `
		INSERT INTO orders (member_id, order_number, status_id, total_amount, shipping_amount, tax_amount,
			discount_amount, shipping_address, notes, deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.MemberID, order.OrderNumber, order.Status, order.TotalAmount, order.ShippingAmount, order.TaxAmount,
		order.DiscountAmount, order.ShippingAddress, order.Notes, order.Deleted, order.CreatedAt, order.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return domain.WithOp(domain.ErrOrderNumberTaken, "mysqlOrders.Insert")
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("order id: %w", err)
	}
	order.ID = id
	return nil
}

func (r *mysqlOrders) InsertItems(ctx context.Context, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*6)
	for _, item := range items {
		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?)")
		args = append(args, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.TotalPrice, item.CreatedAt)
	}

	query := `INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price, created_at) VALUES ` +
		strings.Join(placeholders, ", ")
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}

	// Read the generated ids back in insertion order; auto-increment values of a batch are not
	// guaranteed to be consecutive.
	rows, err := r.q.QueryContext(ctx,
		`SELECT id FROM order_items WHERE order_id = ? ORDER BY id`, items[0].OrderID)
	if err != nil {
		return fmt.Errorf("query order item ids: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() && i < len(items) {
		if err := rows.Scan(&items[i].ID); err != nil {
			return fmt.Errorf("scan order item id: %w", err)
		}
		i++
	}
	return rows.Err()
}

func (r *mysqlOrders) findOne(ctx context.Context, where string, arg any) (*domain.Order, error) {
	order, err := scanOrder(r.q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE `+where+` AND deleted = 0`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return &order, nil
}

func (r *mysqlOrders) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *mysqlOrders) FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return r.findOne(ctx, "order_number = ?", orderNumber)
}

func (r *mysqlOrders) ListByMember(ctx context.Context, memberID int64, offset, limit int) ([]domain.Order, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE member_id = ? AND deleted = 0
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		memberID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (r *mysqlOrders) CountByMember(ctx context.Context, memberID int64) (int64, error) {
	var count int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE member_id = ? AND deleted = 0`, memberID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

func (r *mysqlOrders) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM orders WHERE order_number = ?)`, orderNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check order number: %w", err)
	}
	return exists, nil
}

func (r *mysqlOrders) UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus, at time.Time) (bool, error) {
	result, err := r.q.ExecContext(ctx, `
		UPDATE orders SET status_id = ?, updated_at = ?
		WHERE id = ? AND status_id = ? AND deleted = 0`,
		to, at, id, from,
	)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *mysqlOrders) SoftDelete(ctx context.Context, id int64, at time.Time) (bool, error) {
	result, err := r.q.ExecContext(ctx, `
		UPDATE orders SET deleted = 1, deleted_at = ?, updated_at = ?
		WHERE id = ? AND deleted = 0`,
		at, at, id,
	)
	if err != nil {
		return false, fmt.Errorf("soft delete order: %w", err)
	}

	rows, err := rowsAffected(result)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *mysqlOrders) ListItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+orderItemColumns+` FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

func (r *mysqlOrders) FindItemByID(ctx context.Context, id int64) (*domain.OrderItem, error) {
	item, err := scanOrderItem(r.q.QueryRowContext(ctx,
		`SELECT `+orderItemColumns+` FROM order_items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order item: %w", err)
	}
	return &item, nil
}
