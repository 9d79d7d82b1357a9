package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/petstore-orders/internal/adapter/storage"
	"github.com/rl1809/petstore-orders/internal/core/domain"
	"github.com/rl1809/petstore-orders/internal/observability"
	"github.com/rl1809/petstore-orders/internal/port"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

type testEnv struct {
	db      *storage.MemoryAdapter
	cache   *mockCache
	metrics *observability.Metrics
	orders  *OrderService
	carts   *CartService
}

func newTestEnv(t *testing.T, queueSize int) *testEnv {
	t.Helper()

	db := storage.NewMemoryAdapter()
	cache := newMockCache()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	clock := func() time.Time { return fixedNow }

	orders := NewOrderService(db, NewIdempotencyGuard(cache, 24*time.Hour), queueSize,
		WithMetrics(metrics),
		WithClock(clock),
	)
	carts := NewCartService(db, nil)
	carts.now = clock

	return &testEnv{db: db, cache: cache, metrics: metrics, orders: orders, carts: carts}
}

func (e *testEnv) seedProduct(id int64, price string, stock int) {
	e.db.SaveProduct(domain.Product{
		ID:            id,
		Name:          fmt.Sprintf("product-%d", id),
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	})
}

func (e *testEnv) stock(t *testing.T, id int64) int {
	t.Helper()
	p, err := e.db.Products().FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func (e *testEnv) addToCart(t *testing.T, memberID, productID int64, qty int) {
	t.Helper()
	_, err := e.carts.AddItem(context.Background(), memberID, productID, qty)
	require.NoError(t, err)
}

func (e *testEnv) checkout(memberID int64, token string) (*domain.Order, error) {
	return e.orders.CreateOrderFromCart(context.Background(), CheckoutRequest{
		MemberID:         memberID,
		ShippingAddress:  "1 Kennel Road",
		IdempotencyToken: token,
	})
}

func TestCreateOrderFromCart_Success(t *testing.T) {
	env := newTestEnv(t, 16)
	env.seedProduct(1, "10.00", 5)
	env.seedProduct(2, "2.50", 10)
	env.addToCart(t, 100, 1, 2)
	env.addToCart(t, 100, 2, 3)

	order, err := env.checkout(100, "")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("27.50")))
	assert.True(t, order.ShippingAmount.IsZero())
	assert.Equal(t, "ORD2026031409265301", order.OrderNumber)
	assert.Equal(t, "1 Kennel Road", order.ShippingAddress)

	items, err := env.orders.ListOrderItems(context.Background(), order.ID, 100)
	require.NoError(t, err)
	require.Len(t, items, 2)
	sum := decimal.Zero
	for _, item := range items {
		assert.True(t, item.TotalPrice.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))))
		sum = sum.Add(item.TotalPrice)
	}
	assert.True(t, sum.Equal(order.TotalAmount))

	assert.Equal(t, 3, env.stock(t, 1))
	assert.Equal(t, 7, env.stock(t, 2))

	cart, err := env.carts.GetCart(context.Background(), 100)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	event := <-env.orders.Events()
	assert.Equal(t, domain.OrderEventCreated, event.Type)
	assert.Equal(t, order.ID, event.OrderID)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Checkouts.WithLabelValues("success")))
}

func TestCreateOrderFromCart_EmptyCart(t *testing.T) {
	env := newTestEnv(t, 16)

	_, err := env.checkout(100, "")
	assert.ErrorIs(t, err, domain.ErrCartEmpty)

	_, total, err := env.orders.ListOrders(context.Background(), 100, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Checkouts.WithLabelValues("cart_empty")))
}

func TestCreateOrderFromCart_InsufficientStockRollsBack(t *testing.T) {
	env := newTestEnv(t, 16)
	env.seedProduct(1, "10.00", 5)
	env.seedProduct(2, "4.00", 2)
	env.addToCart(t, 100, 1, 1)
	env.addToCart(t, 100, 2, 2)

	// stock sold elsewhere after the item was carted
	_, err := env.db.Products().DecrementStock(context.Background(), 2, 1)
	require.NoError(t, err)

	_, err = env.checkout(100, "tok")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 5, env.stock(t, 1))
	assert.Equal(t, 1, env.stock(t, 2))

	cart, err := env.carts.GetCart(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)

	_, total, _ := env.orders.ListOrders(context.Background(), 100, 0, 10)
	assert.Zero(t, total)

	_, found, _ := env.cache.GetIdempotency(context.Background(), env.orders.guard.Key(100, "tok"))
	assert.False(t, found, "failed checkout must not record the token")
}

func TestCreateOrderFromCart_MissingProductRejected(t *testing.T) {
	env := newTestEnv(t, 16)
	env.seedProduct(1, "10.00", 5)
	env.addToCart(t, 100, 1, 1)
	require.NoError(t, env.db.Carts().Insert(context.Background(), &domain.CartItem{
		MemberID: 100, ProductID: 404, Quantity: 1, UnitPrice: decimal.NewFromInt(1),
	}))

	_, err := env.checkout(100, "")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 5, env.stock(t, 1))
}

func TestCreateOrderFromCart_ChargesCapturedPrice(t *testing.T) {
	env := newTestEnv(t, 16)
	env.seedProduct(1, "10.00", 5)
	env.addToCart(t, 100, 1, 2)

	env.db.SaveProduct(domain.Product{
		ID:            1,
		Price:         decimal.RequireFromString("10.00"),
		SalePrice:     decimal.NewNullDecimal(decimal.RequireFromString("7.00")),
		StockQuantity: 5,
	})

	result, err := env.carts.Validate(context.Background(), 100)
	require.NoError(t, err)
	assert.False(t, result.Valid)

	order, err := env.checkout(100, "")
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("20.00")))
}

func TestCreateOrderFromCart_IdempotentReplay(t *testing.T) {
	env := newTestEnv(t, 16)
	env.seedProduct(1, "3.00", 10)
	env.addToCart(t, 100, 1, 2)

	first, err := env.checkout(100, "abc")
	require.NoError(t, err)

	second, err := env.checkout(100, "abc")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.OrderNumber, second.OrderNumber)

	assert.Equal(t, 8, env.stock(t, 1))
	_, total, _ := env.orders.ListOrders(context.Background(), 100, 0, 10)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.IdempotentReplays))
	assert.Equal(t, 24*time.Hour, env.cache.ttls[env.orders.guard.Key(100, "abc")])
}

func TestCreateOrderFromCart_TokenScopedToMember(t *testing.T) {
	env := newTestEnv(t, 16)
	env.seedProduct(1, "3.00", 10)
	env.addToCart(t, 100, 1, 1)
	env.addToCart(t, 200, 1, 1)

	a, err := env.checkout(100, "shared")
	require.NoError(t, err)
	b, err := env.checkout(200, "shared")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 8, env.stock(t, 1))
}

func TestCreateOrderFromCart_ConcurrentSameToken(t *testing.T) {
	env := newTestEnv(t, 64)
	env.seedProduct(1, "3.00", 10)
	env.addToCart(t, 100, 1, 1)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ids := make(map[int64]bool)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := env.checkout(100, "double-click")
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrCartEmpty)
				return
			}
			mu.Lock()
			ids[order.ID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1)
	assert.Equal(t, 9, env.stock(t, 1))
	_, total, _ := env.orders.ListOrders(context.Background(), 100, 0, 10)
	assert.Equal(t, int64(1), total)
}

func TestCreateOrderFromCart_LastUnitOneWinner(t *testing.T) {
	env := newTestEnv(t, 64)
	env.seedProduct(1, "99.00", 1)

	const buyers = 30
	for m := int64(1); m <= buyers; m++ {
		env.addToCart(t, m, 1, 1)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var winners, soldOut int

	for m := int64(1); m <= buyers; m++ {
		wg.Add(1)
		go func(memberID int64) {
			defer wg.Done()
			_, err := env.checkout(memberID, fmt.Sprintf("tok-%d", memberID))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, domain.ErrInsufficientStock):
				soldOut++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(m)
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, buyers-1, soldOut)
	assert.Equal(t, 0, env.stock(t, 1))
}

func TestCreateOrderFromCart_OrderNumberExhausted(t *testing.T) {
	env := newTestEnv(t, 64)
	env.seedProduct(1, "1.00", 100)

	for m := int64(1); m <= orderNumberAttempts; m++ {
		env.addToCart(t, m, 1, 1)
		order, err := env.checkout(m, "")
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("ORD20260314092653%02d", m), order.OrderNumber)
	}

	env.addToCart(t, 99, 1, 1)
	_, err := env.checkout(99, "")
	assert.ErrorIs(t, err, domain.ErrOrderNumberExhausted)
	assert.Equal(t, 100-orderNumberAttempts, env.stock(t, 1))

	cart, _ := env.carts.GetCart(context.Background(), 99)
	assert.Len(t, cart.Items, 1)
}

func TestCreateOrderFromCart_CacheDown(t *testing.T) {
	env := newTestEnv(t, 16)
	env.seedProduct(1, "1.00", 10)
	env.addToCart(t, 100, 1, 1)
	env.cache.setFailures(errors.New("redis down"), nil)

	_, err := env.checkout(100, "tok")
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
	assert.Equal(t, 10, env.stock(t, 1))
}

func TestCreateOrderFromCart_CommitFailureStillReturnsOrder(t *testing.T) {
	env := newTestEnv(t, 16)
	env.seedProduct(1, "1.00", 10)
	env.addToCart(t, 100, 1, 1)
	env.cache.setFailures(nil, errors.New("redis down"))

	order, err := env.checkout(100, "tok")
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.Equal(t, 9, env.stock(t, 1))
}

func placeOrder(t *testing.T, env *testEnv, memberID, productID int64, qty int) *domain.Order {
	t.Helper()
	env.addToCart(t, memberID, productID, qty)
	order, err := env.checkout(memberID, "")
	require.NoError(t, err)
	return order
}

func TestUpdateOrderStatus_HappyPath(t *testing.T) {
	env := newTestEnv(t, 16)
	env.seedProduct(1, "5.00", 10)
	order := placeOrder(t, env, 100, 1, 1)
	ctx := context.Background()

	for _, next := range []domain.OrderStatus{
		domain.OrderStatusConfirmed,
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
	} {
		updated, err := env.orders.UpdateOrderStatus(ctx, order.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, updated.Status)
	}

	_, err := env.orders.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCancelled)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.StatusTransitions.WithLabelValues("SHIPPED", "DELIVERED")))
}

func TestUpdateOrderStatus_Rejections(t *testing.T) {
	env := newTestEnv(t, 16)
	env.seedProduct(1, "5.00", 10)
	order := placeOrder(t, env, 100, 1, 1)
	ctx := context.Background()

	_, err := env.orders.UpdateOrderStatus(ctx, order.ID, domain.OrderStatus(99))
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = env.orders.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusPending)
	assert.ErrorIs(t, err, domain.ErrNoChange)

	_, err = env.orders.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusDelivered)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = env.orders.UpdateOrderStatus(ctx, 9999, domain.OrderStatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	current, err := env.orders.GetOrder(ctx, order.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, current.Status)
}

func TestUpdateOrderStatus_CancelRestoresStock(t *testing.T) {
	env := newTestEnv(t, 16)
	env.seedProduct(1, "5.00", 10)
	order := placeOrder(t, env, 100, 1, 4)
	assert.Equal(t, 6, env.stock(t, 1))

	updated, err := env.orders.UpdateOrderStatus(context.Background(), order.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, updated.Status)
	assert.Equal(t, 10, env.stock(t, 1))
}

func TestCancelOrder(t *testing.T) {
	env := newTestEnv(t, 16)
	env.seedProduct(1, "5.00", 10)
	ctx := context.Background()

	t.Run("owner cancels pending order", func(t *testing.T) {
		order := placeOrder(t, env, 100, 1, 3)
		cancelled, err := env.orders.CancelOrder(ctx, order.ID, 100)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
		assert.Equal(t, 10, env.stock(t, 1))
	})

	t.Run("other member is forbidden", func(t *testing.T) {
		order := placeOrder(t, env, 101, 1, 1)
		_, err := env.orders.CancelOrder(ctx, order.ID, 999)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Equal(t, 9, env.stock(t, 1))
		_, err = env.orders.CancelOrder(ctx, order.ID, 101)
		require.NoError(t, err)
	})

	t.Run("shipped order cannot be cancelled", func(t *testing.T) {
		order := placeOrder(t, env, 102, 1, 1)
		_, err := env.orders.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusConfirmed)
		require.NoError(t, err)
		_, err = env.orders.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusShipped)
		require.NoError(t, err)

		_, err = env.orders.CancelOrder(ctx, order.ID, 102)
		assert.ErrorIs(t, err, domain.ErrOrderStatus)
		assert.Equal(t, 9, env.stock(t, 1))
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := env.orders.CancelOrder(ctx, 12345, 100)
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})
}

func TestDeleteOrder(t *testing.T) {
	env := newTestEnv(t, 16)
	env.seedProduct(1, "5.00", 10)
	ctx := context.Background()
	order := placeOrder(t, env, 100, 1, 1)

	err := env.orders.DeleteOrder(ctx, order.ID, 100)
	assert.ErrorIs(t, err, domain.ErrOrderStatus)

	_, err = env.orders.CancelOrder(ctx, order.ID, 100)
	require.NoError(t, err)

	err = env.orders.DeleteOrder(ctx, order.ID, 200)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, env.orders.DeleteOrder(ctx, order.ID, 100))

	_, err = env.orders.GetOrder(ctx, order.ID, 100)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	_, err = env.orders.GetOrderByNumber(ctx, order.OrderNumber, 100)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	orders, total, err := env.orders.ListOrders(ctx, 100, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Zero(t, total)

	items, err := env.db.Orders().ListItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	item, err := env.orders.GetOrderItem(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, item.OrderID)

	err = env.orders.DeleteOrder(ctx, order.ID, 100)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestGetOrder_Ownership(t *testing.T) {
	env := newTestEnv(t, 16)
	env.seedProduct(1, "5.00", 10)
	order := placeOrder(t, env, 100, 1, 1)
	ctx := context.Background()

	got, err := env.orders.GetOrderByNumber(ctx, order.OrderNumber, 100)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = env.orders.GetOrder(ctx, order.ID, 200)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = env.orders.ListOrderItems(ctx, order.ID, 200)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListOrders_Paging(t *testing.T) {
	env := newTestEnv(t, 64)
	env.seedProduct(1, "1.00", 100)
	for i := 0; i < 5; i++ {
		placeOrder(t, env, 100, 1, 1)
	}
	ctx := context.Background()

	page, total, err := env.orders.ListOrders(ctx, 100, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page, 2)

	page, _, err = env.orders.ListOrders(ctx, 100, -1, 0)
	require.NoError(t, err)
	assert.Len(t, page, 5)

	page, _, err = env.orders.ListOrders(ctx, 100, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestPageBounds(t *testing.T) {
	cases := []struct {
		name               string
		page, size         int
		wantPage, wantSize int
	}{
		{"defaults", 0, 0, 0, defaultPageSize},
		{"negative page", -1, 5, 0, 5},
		{"clamped size", 2, 1000, 2, maxPageSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, size := PageBounds(tc.page, tc.size)
			assert.Equal(t, tc.wantPage, page)
			assert.Equal(t, tc.wantSize, size)
		})
	}
}

func TestEvents_DroppedWhenQueueFull(t *testing.T) {
	env := newTestEnv(t, 1)
	env.seedProduct(1, "1.00", 10)

	order := placeOrder(t, env, 100, 1, 1)
	_, err := env.orders.CancelOrder(context.Background(), order.ID, 100)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.EventsDropped))

	event := <-env.orders.Events()
	assert.Equal(t, domain.OrderEventCreated, event.Type)
}

func TestEvents_StatusChangeCarriesFromStatus(t *testing.T) {
	env := newTestEnv(t, 16)
	env.seedProduct(1, "1.00", 10)
	order := placeOrder(t, env, 100, 1, 1)
	<-env.orders.Events()

	_, err := env.orders.UpdateOrderStatus(context.Background(), order.ID, domain.OrderStatusConfirmed)
	require.NoError(t, err)

	event := <-env.orders.Events()
	assert.Equal(t, domain.OrderEventStatusChanged, event.Type)
	assert.Equal(t, "PENDING", event.FromStatus)
	assert.Equal(t, "CONFIRMED", event.Status)

	env.orders.Close()
	_, open := <-env.orders.Events()
	assert.False(t, open)
}

func TestEvents_EmitAfterCloseIsDropped(t *testing.T) {
	env := newTestEnv(t, 16)
	env.seedProduct(1, "1.00", 10)
	env.addToCart(t, 100, 1, 1)

	env.orders.Close()
	env.orders.Close()

	var order *domain.Order
	require.NotPanics(t, func() {
		var err error
		order, err = env.checkout(100, "")
		require.NoError(t, err)
	})
	assert.NotZero(t, order.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.EventsDropped))
}

// collidingStore makes order inserts fail with a unique-key collision for the numbers in
// collide, as if a concurrent checkout had committed them after our existence check.
type collidingStore struct {
	*storage.MemoryAdapter
	collide func(orderNumber string) bool
	inserts []string
}

func (s *collidingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.Store) error) error {
	return s.MemoryAdapter.WithinTx(ctx, func(ctx context.Context, tx port.Store) error {
		return fn(ctx, collidingTx{Store: tx, s: s})
	})
}

type collidingTx struct {
	port.Store
	s *collidingStore
}

func (tx collidingTx) Orders() port.OrderRepository {
	return collidingOrders{OrderRepository: tx.Store.Orders(), s: tx.s}
}

type collidingOrders struct {
	port.OrderRepository
	s *collidingStore
}

func (o collidingOrders) Insert(ctx context.Context, order *domain.Order) error {
	o.s.inserts = append(o.s.inserts, order.OrderNumber)
	if o.s.collide(order.OrderNumber) {
		return domain.WithOp(domain.ErrOrderNumberTaken, "collidingOrders.Insert")
	}
	return o.OrderRepository.Insert(ctx, order)
}

func newCollidingEnv(t *testing.T, collide func(string) bool) (*testEnv, *collidingStore) {
	t.Helper()
	env := newTestEnv(t, 16)
	store := &collidingStore{MemoryAdapter: env.db, collide: collide}
	env.orders = NewOrderService(store, NewIdempotencyGuard(env.cache, 24*time.Hour), 16,
		WithMetrics(env.metrics),
		WithClock(func() time.Time { return fixedNow }),
	)
	return env, store
}

func TestCreateOrderFromCart_RetriesOnOrderNumberCollision(t *testing.T) {
	env, store := newCollidingEnv(t, func(n string) bool { return n == "ORD2026031409265301" })
	env.seedProduct(1, "2.00", 5)
	env.addToCart(t, 100, 1, 2)

	order, err := env.checkout(100, "tok")
	require.NoError(t, err)
	assert.Equal(t, "ORD2026031409265302", order.OrderNumber)
	assert.Equal(t, []string{"ORD2026031409265301", "ORD2026031409265302"}, store.inserts)

	assert.Equal(t, 3, env.stock(t, 1), "rolled back attempt must not decrement stock")
	cart, _ := env.carts.GetCart(context.Background(), 100)
	assert.Empty(t, cart.Items)

	_, total, _ := env.orders.ListOrders(context.Background(), 100, 0, 10)
	assert.Equal(t, int64(1), total)
}

func TestCreateOrderFromCart_CollisionsExhaustOrderNumbers(t *testing.T) {
	env, store := newCollidingEnv(t, func(string) bool { return true })
	env.seedProduct(1, "2.00", 5)
	env.addToCart(t, 100, 1, 1)

	_, err := env.checkout(100, "")
	assert.ErrorIs(t, err, domain.ErrOrderNumberExhausted)
	assert.Len(t, store.inserts, orderNumberAttempts)
	assert.Equal(t, 5, env.stock(t, 1))

	cart, _ := env.carts.GetCart(context.Background(), 100)
	assert.Len(t, cart.Items, 1)
}
