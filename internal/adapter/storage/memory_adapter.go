package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rl1809/petstore-orders/internal/core/domain"
	"github.com/rl1809/petstore-orders/internal/port"
)

type memoryState struct {
	products   map[int64]domain.Product
	carts      map[int64]domain.CartItem // cart item ID -> item
	orders     map[int64]domain.Order
	orderItems map[int64]domain.OrderItem
	nextCartID int64
	nextID     int64
	nextItemID int64
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		products:   make(map[int64]domain.Product, len(s.products)),
		carts:      make(map[int64]domain.CartItem, len(s.carts)),
		orders:     make(map[int64]domain.Order, len(s.orders)),
		orderItems: make(map[int64]domain.OrderItem, len(s.orderItems)),
		nextCartID: s.nextCartID,
		nextID:     s.nextID,
		nextItemID: s.nextItemID,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.orderItems {
		c.orderItems[k] = v
	}
	return c
}

// MemoryAdapter is an in-process DatabaseRepository. Transactions are serialized
// and rolled back by restoring a snapshot, which gives the same all-or-nothing
// visibility as the MySQL adapter.
type MemoryAdapter struct {
	mu    sync.Mutex
	state *memoryState
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{state: &memoryState{
		products:   make(map[int64]domain.Product),
		carts:      make(map[int64]domain.CartItem),
		orders:     make(map[int64]domain.Order),
		orderItems: make(map[int64]domain.OrderItem),
	}}
}

// SaveProduct upserts a catalog row. Used for seeding.
func (m *MemoryAdapter) SaveProduct(p domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.state.products[p.ID] = p
}

func (m *MemoryAdapter) Products() port.ProductRepository {
	return memoryProducts{memoryView{m, false}}
}
func (m *MemoryAdapter) Carts() port.CartRepository   { return memoryCarts{memoryView{m, false}} }
func (m *MemoryAdapter) Orders() port.OrderRepository { return memoryOrders{memoryView{m, false}} }

func (m *MemoryAdapter) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := m.state.clone()
	if err := fn(ctx, memoryTx{m}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

type memoryTx struct{ m *MemoryAdapter }

func (t memoryTx) Products() port.ProductRepository { return memoryProducts{memoryView{t.m, true}} }
func (t memoryTx) Carts() port.CartRepository       { return memoryCarts{memoryView{t.m, true}} }
func (t memoryTx) Orders() port.OrderRepository     { return memoryOrders{memoryView{t.m, true}} }

// memoryView takes the adapter lock for single statements; inside a transaction
// the lock is already held by WithinTx.
type memoryView struct {
	m    *MemoryAdapter
	inTx bool
}

func (v memoryView) lock() func() {
	if v.inTx {
		return func() {}
	}
	v.m.mu.Lock()
	return v.m.mu.Unlock
}

type memoryProducts struct{ memoryView }

func (r memoryProducts) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	defer r.lock()()
	p, ok := r.m.state.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (r memoryProducts) DecrementStock(_ context.Context, id int64, quantity int) (bool, error) {
	defer r.lock()()
	p, ok := r.m.state.products[id]
	if !ok || p.StockQuantity < quantity {
		return false, nil
	}
	p.StockQuantity -= quantity
	p.Version++
	p.UpdatedAt = time.Now()
	r.m.state.products[id] = p
	return true, nil
}

func (r memoryProducts) IncrementStock(_ context.Context, id int64, quantity int) error {
	defer r.lock()()
	p, ok := r.m.state.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.StockQuantity += quantity
	p.Version++
	p.UpdatedAt = time.Now()
	r.m.state.products[id] = p
	return nil
}

type memoryCarts struct{ memoryView }

func (r memoryCarts) ListByMember(_ context.Context, memberID int64) ([]domain.CartItem, error) {
	defer r.lock()()
	var items []domain.CartItem
	for _, item := range r.m.state.carts {
		if item.MemberID == memberID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r memoryCarts) FindByMemberAndProduct(_ context.Context, memberID, productID int64) (*domain.CartItem, error) {
	defer r.lock()()
	for _, item := range r.m.state.carts {
		if item.MemberID == memberID && item.ProductID == productID {
			return &item, nil
		}
	}
	return nil, domain.ErrCartItemNotFound
}

func (r memoryCarts) Insert(_ context.Context, item *domain.CartItem) error {
	defer r.lock()()
	r.m.state.nextCartID++
	item.ID = r.m.state.nextCartID
	r.m.state.carts[item.ID] = *item
	return nil
}

func (r memoryCarts) Update(_ context.Context, item domain.CartItem) error {
	defer r.lock()()
	current, ok := r.m.state.carts[item.ID]
	if !ok {
		return domain.ErrCartItemNotFound
	}
	current.Quantity = item.Quantity
	current.UnitPrice = item.UnitPrice
	current.UpdatedAt = item.UpdatedAt
	r.m.state.carts[item.ID] = current
	return nil
}

func (r memoryCarts) Delete(_ context.Context, memberID, productID int64) (bool, error) {
	defer r.lock()()
	for id, item := range r.m.state.carts {
		if item.MemberID == memberID && item.ProductID == productID {
			delete(r.m.state.carts, id)
			return true, nil
		}
	}
	return false, nil
}

func (r memoryCarts) DeleteByMember(_ context.Context, memberID int64) error {
	defer r.lock()()
	for id, item := range r.m.state.carts {
		if item.MemberID == memberID {
			delete(r.m.state.carts, id)
		}
	}
	return nil
}

type memoryOrders struct{ memoryView }

func (r memoryOrders) Insert(_ context.Context, order *domain.Order) error {
	defer r.lock()()
	for _, existing := range r.m.state.orders {
		if existing.OrderNumber == order.OrderNumber {
			return domain.WithOp(domain.ErrOrderNumberTaken, "memoryOrders.Insert")
		}
	}
	r.m.state.nextID++
	order.ID = r.m.state.nextID
	r.m.state.orders[order.ID] = *order
	return nil
}

func (r memoryOrders) InsertItems(_ context.Context, items []domain.OrderItem) error {
	defer r.lock()()
	for i := range items {
		r.m.state.nextItemID++
		items[i].ID = r.m.state.nextItemID
		r.m.state.orderItems[items[i].ID] = items[i]
	}
	return nil
}

func (r memoryOrders) FindByID(_ context.Context, id int64) (*domain.Order, error) {
	defer r.lock()()
	order, ok := r.m.state.orders[id]
	if !ok || order.Deleted {
		return nil, domain.ErrOrderNotFound
	}
	return &order, nil
}

func (r memoryOrders) FindByOrderNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	defer r.lock()()
	for _, order := range r.m.state.orders {
		if order.OrderNumber == orderNumber && !order.Deleted {
			return &order, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (r memoryOrders) ListByMember(_ context.Context, memberID int64, offset, limit int) ([]domain.Order, error) {
	defer r.lock()()
	var orders []domain.Order
	for _, order := range r.m.state.orders {
		if order.MemberID == memberID && !order.Deleted {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	if offset >= len(orders) {
		return []domain.Order{}, nil
	}
	end := min(offset+limit, len(orders))
	return orders[offset:end], nil
}

func (r memoryOrders) CountByMember(_ context.Context, memberID int64) (int64, error) {
	defer r.lock()()
	var n int64
	for _, order := range r.m.state.orders {
		if order.MemberID == memberID && !order.Deleted {
			n++
		}
	}
	return n, nil
}

// ExistsByOrderNumber includes soft-deleted orders; numbers are never reused.
func (r memoryOrders) ExistsByOrderNumber(_ context.Context, orderNumber string) (bool, error) {
	defer r.lock()()
	for _, order := range r.m.state.orders {
		if order.OrderNumber == orderNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r memoryOrders) UpdateStatus(_ context.Context, id int64, from, to domain.OrderStatus, at time.Time) (bool, error) {
	defer r.lock()()
	order, ok := r.m.state.orders[id]
	if !ok || order.Deleted || order.Status != from {
		return false, nil
	}
	order.Status = to
	order.UpdatedAt = at
	r.m.state.orders[id] = order
	return true, nil
}

func (r memoryOrders) SoftDelete(_ context.Context, id int64, at time.Time) (bool, error) {
	defer r.lock()()
	order, ok := r.m.state.orders[id]
	if !ok || order.Deleted {
		return false, nil
	}
	order.Deleted = true
	order.UpdatedAt = at
	r.m.state.orders[id] = order
	return true, nil
}

func (r memoryOrders) ListItems(_ context.Context, orderID int64) ([]domain.OrderItem, error) {
	defer r.lock()()
	var items []domain.OrderItem
	for _, item := range r.m.state.orderItems {
		if item.OrderID == orderID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r memoryOrders) FindItemByID(_ context.Context, id int64) (*domain.OrderItem, error) {
	defer r.lock()()
	item, ok := r.m.state.orderItems[id]
	if !ok {
		return nil, domain.ErrOrderItemNotFound
	}
	return &item, nil
}
