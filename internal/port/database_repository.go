package port

import (
	"context"
	"time"

	"github.com/rl1809/petstore-orders/internal/core/domain"
)

// ProductRepository is the inventory ledger view of the catalog.
type ProductRepository interface {
	// FindByID returns domain.ErrProductNotFound when the product does not exist
	FindByID(ctx context.Context, id int64) (*domain.Product, error)

	// DecrementStock atomically decreases stock, returns false if it would go below zero
	DecrementStock(ctx context.Context, id int64, quantity int) (bool, error)

	// IncrementStock restores stock (cancellation)
	IncrementStock(ctx context.Context, id int64, quantity int) error
}

type CartRepository interface {
	// ListByMember returns the member's cart lines ordered by creation.
	// Inside a transaction the rows are locked until commit.
	ListByMember(ctx context.Context, memberID int64) ([]domain.CartItem, error)

	// FindByMemberAndProduct returns domain.ErrCartItemNotFound when absent
	FindByMemberAndProduct(ctx context.Context, memberID, productID int64) (*domain.CartItem, error)

	// Insert persists a new line and sets its ID
	Insert(ctx context.Context, item *domain.CartItem) error

	// Update writes quantity, unit price and updated_at
	Update(ctx context.Context, item domain.CartItem) error

	// Delete removes one line, returns false if it did not exist
	Delete(ctx context.Context, memberID, productID int64) (bool, error)

	DeleteByMember(ctx context.Context, memberID int64) error
}

type OrderRepository interface {
	// Insert persists the order and sets its ID
	Insert(ctx context.Context, order *domain.Order) error

	// InsertItems writes all lines in one batch and sets their IDs
	InsertItems(ctx context.Context, items []domain.OrderItem) error

	// FindByID ignores soft-deleted orders and returns domain.ErrOrderNotFound for them
	FindByID(ctx context.Context, id int64) (*domain.Order, error)

	FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)

	// ListByMember returns visible orders, newest first
	ListByMember(ctx context.Context, memberID int64, offset, limit int) ([]domain.Order, error)

	CountByMember(ctx context.Context, memberID int64) (int64, error)

	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	// UpdateStatus moves a visible order from one status to another, returns false when no row matched
	UpdateStatus(ctx context.Context, id int64, from, to domain.OrderStatus, at time.Time) (bool, error)

	// SoftDelete hides the order from reads, returns false when no row matched
	SoftDelete(ctx context.Context, id int64, at time.Time) (bool, error)

	ListItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error)

	// FindItemByID reads an order line regardless of its order's visibility
	FindItemByID(ctx context.Context, id int64) (*domain.OrderItem, error)
}

// Store groups the repositories that share one connection or transaction.
type Store interface {
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
}

// DatabaseRepository is the transactional store the order core runs against.
type DatabaseRepository interface {
	Store

	// WithinTx runs fn in one transaction. Any error returned by fn rolls back every write made through tx.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
