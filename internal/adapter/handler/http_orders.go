package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rl1809/petstore-orders/internal/core/domain"
	"github.com/rl1809/petstore-orders/internal/core/service"
)

// POST /api/orders/checkout
func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	order, err := h.orderService.CreateOrderFromCart(r.Context(), service.CheckoutRequest{
		MemberID:         memberIDFrom(r.Context()),
		ShippingAddress:  req.ShippingAddress,
		Notes:            req.Notes,
		IdempotencyToken: r.Header.Get(headerIdempotencyKey),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondSuccess(w, http.StatusCreated, newOrderResponse(order))
}

// GET /api/orders?page=0&size=20
func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	size, err := queryInt(r, "size", 0)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	page, size = service.PageBounds(page, size)

	orders, total, err := h.orderService.ListOrders(r.Context(), memberIDFrom(r.Context()), page, size)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := orderPageResponse{Orders: make([]orderResponse, 0, len(orders)), Page: page, Size: size, Total: total}
	for i := range orders {
		resp.Orders = append(resp.Orders, newOrderResponse(&orders[i]))
	}
	respondSuccess(w, http.StatusOK, resp)
}

// GET /api/orders/{id}
func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathInt64(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), orderID, memberIDFrom(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, newOrderResponse(order))
}

// GET /api/orders/number/{orderNumber}
func (h *HTTPHandler) GetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.GetOrderByNumber(r.Context(), chi.URLParam(r, "orderNumber"), memberIDFrom(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, newOrderResponse(order))
}

// GET /api/orders/{id}/items
func (h *HTTPHandler) ListOrderItems(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathInt64(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	items, err := h.orderService.ListOrderItems(r.Context(), orderID, memberIDFrom(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, newOrderItemResponses(items))
}

// POST /api/orders/{id}/cancel
func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathInt64(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	order, err := h.orderService.CancelOrder(r.Context(), orderID, memberIDFrom(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, newOrderResponse(order))
}

// DELETE /api/orders/{id}
func (h *HTTPHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathInt64(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.orderService.DeleteOrder(r.Context(), orderID, memberIDFrom(r.Context())); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/admin/orders/{id}/status
func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathInt64(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req updateStatusRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		if domain.ErrorCode(err) == domain.EINVALID && req.Status != "" {
			err = domain.ErrInvalidStatus
		}
		h.respondError(w, r, err)
		return
	}
	status, _ := domain.ParseOrderStatus(req.Status)

	order, err := h.orderService.UpdateOrderStatus(r.Context(), orderID, status)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, newOrderResponse(order))
}
