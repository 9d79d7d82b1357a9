package handler

import (
	"net/http"
)

// GET /api/cart
func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartService.GetCart(r.Context(), memberIDFrom(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, newCartResponse(cart))
}

// POST /api/cart/items
func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	cart, err := h.cartService.AddItem(r.Context(), memberIDFrom(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, newCartResponse(cart))
}

// PUT /api/cart/items/{productId}
func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(r, "productId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req updateCartItemRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	cart, err := h.cartService.UpdateQuantity(r.Context(), memberIDFrom(r.Context()), productID, req.Quantity)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, newCartResponse(cart))
}

// DELETE /api/cart/items/{productId}
func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(r, "productId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	cart, err := h.cartService.RemoveItem(r.Context(), memberIDFrom(r.Context()), productID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, newCartResponse(cart))
}

// DELETE /api/cart
func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cartService.ClearCart(r.Context(), memberIDFrom(r.Context())); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/cart/validate
func (h *HTTPHandler) ValidateCart(w http.ResponseWriter, r *http.Request) {
	result, err := h.cartService.Validate(r.Context(), memberIDFrom(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, result)
}

// POST /api/cart/refresh-prices
func (h *HTTPHandler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	refreshed, err := h.cartService.RefreshPrices(r.Context(), memberIDFrom(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]int{"refreshed": refreshed})
}
