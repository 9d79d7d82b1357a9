package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

const orderServiceName = "petstore.order.v1.OrderService"

type CheckoutRPCRequest struct {
	MemberID        int64  `json:"member_id"`
	ShippingAddress string `json:"shipping_address"`
	Notes           string `json:"notes,omitempty"`
	IdempotencyKey  string `json:"idempotency_key,omitempty"`
}

type OrderRPCRequest struct {
	OrderID  int64 `json:"order_id"`
	MemberID int64 `json:"member_id"`
}

type UpdateStatusRPCRequest struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

type OrderRPCResponse struct {
	ID              int64     `json:"id"`
	OrderNumber     string    `json:"order_number"`
	MemberID        int64     `json:"member_id"`
	Status          string    `json:"status"`
	TotalAmount     string    `json:"total_amount"`
	ShippingAddress string    `json:"shipping_address"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type OrderServiceServer interface {
	Checkout(ctx context.Context, req *CheckoutRPCRequest) (*OrderRPCResponse, error)
	GetOrder(ctx context.Context, req *OrderRPCRequest) (*OrderRPCResponse, error)
	CancelOrder(ctx context.Context, req *OrderRPCRequest) (*OrderRPCResponse, error)
	UpdateOrderStatus(ctx context.Context, req *UpdateStatusRPCRequest) (*OrderRPCResponse, error)
}

func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&orderServiceDesc, srv)
}

var orderServiceDesc = grpc.ServiceDesc{
	ServiceName: orderServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Checkout", Handler: unaryHandler("Checkout", OrderServiceServer.Checkout)},
		{MethodName: "GetOrder", Handler: unaryHandler("GetOrder", OrderServiceServer.GetOrder)},
		{MethodName: "CancelOrder", Handler: unaryHandler("CancelOrder", OrderServiceServer.CancelOrder)},
		{MethodName: "UpdateOrderStatus", Handler: unaryHandler("UpdateOrderStatus", OrderServiceServer.UpdateOrderStatus)},
	},
	Streams: []grpc.StreamDesc{},
}

func unaryHandler[Req any](method string, call func(OrderServiceServer, context.Context, *Req) (*OrderRPCResponse, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + orderServiceName + "/" + method

	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OrderServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(OrderServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// OrderServiceClient calls OrderService over a connection using the JSON codec.
type OrderServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewOrderServiceClient(cc grpc.ClientConnInterface) *OrderServiceClient {
	return &OrderServiceClient{cc: cc}
}

func (c *OrderServiceClient) invoke(ctx context.Context, method string, in any, opts ...grpc.CallOption) (*OrderRPCResponse, error) {
	out := new(OrderRPCResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+orderServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) Checkout(ctx context.Context, in *CheckoutRPCRequest, opts ...grpc.CallOption) (*OrderRPCResponse, error) {
	return c.invoke(ctx, "Checkout", in, opts...)
}

func (c *OrderServiceClient) GetOrder(ctx context.Context, in *OrderRPCRequest, opts ...grpc.CallOption) (*OrderRPCResponse, error) {
	return c.invoke(ctx, "GetOrder", in, opts...)
}

func (c *OrderServiceClient) CancelOrder(ctx context.Context, in *OrderRPCRequest, opts ...grpc.CallOption) (*OrderRPCResponse, error) {
	return c.invoke(ctx, "CancelOrder", in, opts...)
}

func (c *OrderServiceClient) UpdateOrderStatus(ctx context.Context, in *UpdateStatusRPCRequest, opts ...grpc.CallOption) (*OrderRPCResponse, error) {
	return c.invoke(ctx, "UpdateOrderStatus", in, opts...)
}
