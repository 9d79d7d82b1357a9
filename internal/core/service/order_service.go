package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/petstore-orders/internal/core/domain"
	"github.com/rl1809/petstore-orders/internal/observability"
	"github.com/rl1809/petstore-orders/internal/port"
)

const (
	defaultOrderNumberPrefix = "ORD"
	defaultPageSize          = 20
	maxPageSize              = 100
)

// CheckoutRequest carries the caller input of CreateOrderFromCart.
// An empty IdempotencyToken disables replay protection.
type CheckoutRequest struct {
	MemberID         int64
	ShippingAddress  string
	Notes            string
	IdempotencyToken string
}

// OrderService turns carts into orders and drives the order lifecycle.
// Every multi-entity write runs inside one store transaction; events are queued
// only after the transaction has committed.
type OrderService struct {
	db          port.DatabaseRepository
	guard       *IdempotencyGuard
	logger      *zap.Logger
	metrics     *observability.Metrics
	eventQueue  chan domain.OrderEvent
	queueMu     sync.RWMutex
	queueClosed bool
	now         func() time.Time
	orderPrefix string
}

type Option func(*OrderService)

func WithLogger(logger *zap.Logger) Option {
	return func(s *OrderService) { s.logger = observability.OrDefault(logger) }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *OrderService) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *OrderService) { s.now = now }
}

func WithOrderNumberPrefix(prefix string) Option {
	return func(s *OrderService) { s.orderPrefix = prefix }
}

func NewOrderService(db port.DatabaseRepository, guard *IdempotencyGuard, queueSize int, opts ...Option) *OrderService {
	s := &OrderService{
		db:          db,
		guard:       guard,
		logger:      zap.NewNop(),
		eventQueue:  make(chan domain.OrderEvent, queueSize),
		now:         time.Now,
		orderPrefix: defaultOrderNumberPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observability.NewMetrics(prometheus.NewRegistry())
	}
	return s
}

// CreateOrderFromCart checks out the member's whole cart.
//
// Order, order items, stock decrements and the cart clear commit together or not at
// all. The idempotency record is written after that commit; a crash in between lets a
// retry with the same token run checkout again against the (now empty) cart.
func (s *OrderService) CreateOrderFromCart(ctx context.Context, req CheckoutRequest) (*domain.Order, error) {
	var key string
	if token := strings.TrimSpace(req.IdempotencyToken); token != "" {
		key = s.guard.Key(req.MemberID, token)

		existing, err := s.replay(ctx, key)
		if err != nil {
			s.countCheckout(err)
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	order, err := s.placeOrder(ctx, req)
	if err != nil {
		if key != "" && errors.Is(err, domain.ErrCartEmpty) {
			// a concurrent request with the same token may have consumed the cart
			if existing, replayErr := s.replay(ctx, key); replayErr == nil && existing != nil {
				return existing, nil
			}
		}
		s.countCheckout(err)
		s.logger.Warn("checkout failed",
			zap.Int64("member_id", req.MemberID),
			zap.String("code", domain.ErrorCode(err)),
			zap.Error(err),
		)
		return nil, err
	}

	if key != "" {
		stored, err := s.guard.Commit(ctx, key, order.ID)
		switch {
		case err != nil:
			s.logger.Error("order created but idempotency record not written",
				zap.Int64("order_id", order.ID),
				zap.String("idempotency_key", key),
				zap.Error(err),
			)
		case !stored:
			s.logger.Warn("idempotency key already mapped to another order",
				zap.Int64("order_id", order.ID),
				zap.String("idempotency_key", key),
			)
		}
	}

	s.countCheckout(nil)
	s.metrics.OrderValue.Observe(order.TotalAmount.InexactFloat64())
	s.logger.Info("order created",
		zap.Int64("member_id", order.MemberID),
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total_amount", order.TotalAmount.String()),
	)
	s.emit(domain.NewOrderEvent(domain.OrderEventCreated, *order, order.CreatedAt))

	return order, nil
}

// placeOrder runs the checkout transaction. A concurrent checkout can commit the same
// order number between our existence check and insert; the whole unit is then rolled
// back and retried with that number excluded.
func (s *OrderService) placeOrder(ctx context.Context, req CheckoutRequest) (*domain.Order, error) {
	taken := make(map[string]bool)
	for {
		var order *domain.Order
		err := s.db.WithinTx(ctx, func(ctx context.Context, tx port.Store) error {
			created, err := s.checkout(ctx, tx, req, taken)
			if err != nil {
				return err
			}
			order = created
			return nil
		})
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrOrderNumberTaken) {
			return nil, err
		}
		if len(taken) >= orderNumberAttempts {
			return nil, domain.ErrOrderNumberExhausted
		}
		s.logger.Debug("order number collided, retrying checkout",
			zap.Int64("member_id", req.MemberID),
			zap.Int("collisions", len(taken)),
		)
	}
}

// replay returns the order recorded for key, or nil when the key is unused.
func (s *OrderService) replay(ctx context.Context, key string) (*domain.Order, error) {
	reservation, err := s.guard.Begin(ctx, key)
	if err != nil {
		return nil, err
	}
	if reservation.IsNew {
		return nil, nil
	}

	order, err := s.db.Orders().FindByID(ctx, reservation.OrderID)
	if err != nil {
		return nil, err
	}
	s.metrics.IdempotentReplays.Inc()
	s.logger.Info("checkout replayed from idempotency record",
		zap.Int64("order_id", order.ID),
		zap.String("idempotency_key", key),
	)
	return order, nil
}

func (s *OrderService) checkout(ctx context.Context, tx port.Store, req CheckoutRequest, taken map[string]bool) (*domain.Order, error) {
	items, err := tx.Carts().ListByMember(ctx, req.MemberID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	if len(items) == 0 {
		return nil, domain.ErrCartEmpty
	}

	result, err := validateItems(ctx, tx.Products(), items)
	if err != nil {
		return nil, err
	}
	// price drift alone does not block checkout; the captured cart price is charged
	if result.HasOutOfStock() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInsufficientStock, outOfStockDetails(result))
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}

	now := s.now()
	number, err := generateOrderNumber(ctx, tx.Orders(), s.orderPrefix, now, taken)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		MemberID:        req.MemberID,
		OrderNumber:     number,
		Status:          domain.OrderStatusPending,
		TotalAmount:     total,
		ShippingAmount:  decimal.Zero,
		TaxAmount:       decimal.Zero,
		DiscountAmount:  decimal.Zero,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := tx.Orders().Insert(ctx, order); err != nil {
		if errors.Is(err, domain.ErrOrderNumberTaken) {
			taken[number] = true
		}
		return nil, fmt.Errorf("insert order: %w", err)
	}

	orderItems := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, domain.NewOrderItem(order.ID, item, now))
	}
	if err := tx.Orders().InsertItems(ctx, orderItems); err != nil {
		return nil, fmt.Errorf("insert order items: %w", err)
	}

	for _, item := range items {
		ok, err := tx.Products().DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: product %d", domain.ErrInsufficientStock, item.ProductID)
		}
	}

	if err := tx.Carts().DeleteByMember(ctx, req.MemberID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	return order, nil
}

// UpdateOrderStatus moves an order along the status graph. Moving to CANCELLED
// restores stock the same way CancelOrder does.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (*domain.Order, error) {
	var (
		order *domain.Order
		from  domain.OrderStatus
	)

	err := s.db.WithinTx(ctx, func(ctx context.Context, tx port.Store) error {
		current, err := tx.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		from = current.Status

		if err := domain.ValidateTransition(current.Status, status); err != nil {
			return err
		}
		if status == domain.OrderStatusCancelled {
			order, err = s.cancelInTx(ctx, tx, current)
			return err
		}
		order, err = s.transitionInTx(ctx, tx, current, status)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(order, from)
	return order, nil
}

// CancelOrder cancels a PENDING or CONFIRMED order of the requesting member and
// returns its stock.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, memberID int64) (*domain.Order, error) {
	var (
		order *domain.Order
		from  domain.OrderStatus
	)

	err := s.db.WithinTx(ctx, func(ctx context.Context, tx port.Store) error {
		current, err := tx.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if current.MemberID != memberID {
			return domain.WithOp(domain.ErrForbidden, "order.cancel")
		}
		if !domain.CanTransition(current.Status, domain.OrderStatusCancelled) {
			return fmt.Errorf("%w: order is %s", domain.ErrOrderStatus, current.Status)
		}
		from = current.Status

		order, err = s.cancelInTx(ctx, tx, current)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(order, from)
	return order, nil
}

func (s *OrderService) cancelInTx(ctx context.Context, tx port.Store, order *domain.Order) (*domain.Order, error) {
	items, err := tx.Orders().ListItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	for _, item := range items {
		if err := tx.Products().IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return nil, fmt.Errorf("restore stock of product %d: %w", item.ProductID, err)
		}
	}
	return s.transitionInTx(ctx, tx, order, domain.OrderStatusCancelled)
}

func (s *OrderService) transitionInTx(ctx context.Context, tx port.Store, order *domain.Order, status domain.OrderStatus) (*domain.Order, error) {
	now := s.now()
	ok, err := tx.Orders().UpdateStatus(ctx, order.ID, order.Status, status, now)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if !ok {
		return nil, domain.ErrOrderNotFound
	}

	updated := *order
	updated.Status = status
	updated.UpdatedAt = now
	return &updated, nil
}

func (s *OrderService) recordTransition(order *domain.Order, from domain.OrderStatus) {
	s.metrics.StatusTransitions.WithLabelValues(from.String(), order.Status.String()).Inc()
	s.logger.Info("order status changed",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("status_from", from.String()),
		zap.String("status_to", order.Status.String()),
	)

	eventType := domain.OrderEventStatusChanged
	if order.Status == domain.OrderStatusCancelled {
		eventType = domain.OrderEventCancelled
	}
	event := domain.NewOrderEvent(eventType, *order, order.UpdatedAt)
	event.FromStatus = from.String()
	s.emit(event)
}

// DeleteOrder soft-deletes a cancelled order. Its items stay readable through GetOrderItem.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID, memberID int64) error {
	var order *domain.Order

	err := s.db.WithinTx(ctx, func(ctx context.Context, tx port.Store) error {
		current, err := tx.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if current.MemberID != memberID {
			return domain.WithOp(domain.ErrForbidden, "order.delete")
		}
		if current.Status != domain.OrderStatusCancelled {
			return fmt.Errorf("%w: only cancelled orders can be deleted, order is %s", domain.ErrOrderStatus, current.Status)
		}

		ok, err := tx.Orders().SoftDelete(ctx, orderID, s.now())
		if err != nil {
			return fmt.Errorf("soft delete order: %w", err)
		}
		if !ok {
			return domain.ErrOrderNotFound
		}
		order = current
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("order deleted", zap.Int64("order_id", orderID), zap.Int64("member_id", memberID))
	s.emit(domain.NewOrderEvent(domain.OrderEventDeleted, *order, s.now()))
	return nil
}

// GetOrder returns a visible order owned by memberID.
func (s *OrderService) GetOrder(ctx context.Context, orderID, memberID int64) (*domain.Order, error) {
	order, err := s.db.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.MemberID != memberID {
		return nil, domain.WithOp(domain.ErrForbidden, "order.get")
	}
	return order, nil
}

func (s *OrderService) GetOrderByNumber(ctx context.Context, orderNumber string, memberID int64) (*domain.Order, error) {
	order, err := s.db.Orders().FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order.MemberID != memberID {
		return nil, domain.WithOp(domain.ErrForbidden, "order.get")
	}
	return order, nil
}

// PageBounds returns the page and size ListOrders actually uses for the requested values.
func PageBounds(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// ListOrders returns one zero-based page of the member's orders and the total count.
func (s *OrderService) ListOrders(ctx context.Context, memberID int64, page, size int) ([]domain.Order, int64, error) {
	page, size = PageBounds(page, size)

	orders, err := s.db.Orders().ListByMember(ctx, memberID, page*size, size)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	total, err := s.db.Orders().CountByMember(ctx, memberID)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	return orders, total, nil
}

func (s *OrderService) ListOrderItems(ctx context.Context, orderID, memberID int64) ([]domain.OrderItem, error) {
	if _, err := s.GetOrder(ctx, orderID, memberID); err != nil {
		return nil, err
	}
	items, err := s.db.Orders().ListItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return items, nil
}

// GetOrderItem is an audit read; it also finds items of soft-deleted orders.
func (s *OrderService) GetOrderItem(ctx context.Context, itemID int64) (*domain.OrderItem, error) {
	return s.db.Orders().FindItemByID(ctx, itemID)
}

// Events exposes committed order events to the publishing workers.
func (s *OrderService) Events() <-chan domain.OrderEvent {
	return s.eventQueue
}

// Close stops accepting events and closes the queue. Events emitted afterwards by
// handlers still in flight are dropped.
func (s *OrderService) Close() {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	if s.queueClosed {
		return
	}
	s.queueClosed = true
	close(s.eventQueue)
}

func (s *OrderService) emit(event domain.OrderEvent) {
	s.queueMu.RLock()
	defer s.queueMu.RUnlock()
	if s.queueClosed {
		s.metrics.EventsDropped.Inc()
		s.logger.Warn("event queue closed, dropping order event",
			zap.String("type", string(event.Type)),
			zap.Int64("order_id", event.OrderID),
		)
		return
	}

	select {
	case s.eventQueue <- event:
	default:
		s.metrics.EventsDropped.Inc()
		s.logger.Warn("event queue full, dropping order event",
			zap.String("type", string(event.Type)),
			zap.Int64("order_id", event.OrderID),
		)
	}
}

func (s *OrderService) countCheckout(err error) {
	result := "success"
	if err != nil {
		result = strings.ToLower(domain.ErrorCode(err))
	}
	s.metrics.Checkouts.WithLabelValues(result).Inc()
}

func outOfStockDetails(result domain.ValidationResult) string {
	var parts []string
	for _, e := range result.Errors {
		if e.Type == domain.ValidationOutOfStock {
			parts = append(parts, fmt.Sprintf("product %d: %s", e.ProductID, e.Details))
		}
	}
	return strings.Join(parts, "; ")
}
