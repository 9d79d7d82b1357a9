package handler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/petstore-orders/internal/core/domain"
	"github.com/rl1809/petstore-orders/internal/core/service"
	"github.com/rl1809/petstore-orders/internal/observability"
)

type GRPCHandler struct {
	orderService *service.OrderService
	logger       *zap.Logger
}

func NewGRPCHandler(orderService *service.OrderService, logger *zap.Logger) *GRPCHandler {
	return &GRPCHandler{orderService: orderService, logger: observability.OrDefault(logger)}
}

func (h *GRPCHandler) Checkout(ctx context.Context, req *CheckoutRPCRequest) (*OrderRPCResponse, error) {
	if req.MemberID <= 0 {
		return nil, status.Error(codes.InvalidArgument, "member_id is required")
	}

	order, err := h.orderService.CreateOrderFromCart(ctx, service.CheckoutRequest{
		MemberID:         req.MemberID,
		ShippingAddress:  req.ShippingAddress,
		Notes:            req.Notes,
		IdempotencyToken: req.IdempotencyKey,
	})
	if err != nil {
		return nil, h.toStatus(err)
	}
	return newOrderRPCResponse(order), nil
}

func (h *GRPCHandler) GetOrder(ctx context.Context, req *OrderRPCRequest) (*OrderRPCResponse, error) {
	order, err := h.orderService.GetOrder(ctx, req.OrderID, req.MemberID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return newOrderRPCResponse(order), nil
}

func (h *GRPCHandler) CancelOrder(ctx context.Context, req *OrderRPCRequest) (*OrderRPCResponse, error) {
	order, err := h.orderService.CancelOrder(ctx, req.OrderID, req.MemberID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return newOrderRPCResponse(order), nil
}

func (h *GRPCHandler) UpdateOrderStatus(ctx context.Context, req *UpdateStatusRPCRequest) (*OrderRPCResponse, error) {
	target, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		return nil, h.toStatus(domain.ErrInvalidStatus)
	}

	order, err := h.orderService.UpdateOrderStatus(ctx, req.OrderID, target)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return newOrderRPCResponse(order), nil
}

func (h *GRPCHandler) toStatus(err error) error {
	m := mapError(err)
	if m.grpcCode == codes.Internal {
		h.logger.Error("rpc failed", zap.Error(err))
	}
	return status.Error(m.grpcCode, domain.ErrorCode(err)+": "+domain.ErrorMessage(err))
}

func newOrderRPCResponse(o *domain.Order) *OrderRPCResponse {
	return &OrderRPCResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		MemberID:        o.MemberID,
		Status:          o.Status.String(),
		TotalAmount:     o.TotalAmount.StringFixed(2),
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// UnaryLoggingInterceptor logs every call with its duration and resulting code.
func UnaryLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	logger = observability.OrDefault(logger)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}
