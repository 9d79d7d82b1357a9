package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rl1809/petstore-orders/internal/core/domain"
	"github.com/rl1809/petstore-orders/internal/core/service"
	"github.com/rl1809/petstore-orders/internal/observability"
)

const (
	headerMemberID       = "X-Member-ID"
	headerRequestID      = "X-Request-ID"
	headerIdempotencyKey = "Idempotency-Key"

	requestTimeout   = 30 * time.Second
	maxRequestBody   = 1 << 20
	healthTimeout    = 2 * time.Second
	codeUnauthorized = "UNAUTHENTICATED"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	memberIDKey
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HTTPHandler struct {
	orderService *service.OrderService
	cartService  *service.CartService
	logger       *zap.Logger
	validate     *validator.Validate
	gatherer     prometheus.Gatherer
	checks       map[string]HealthCheck
}

func NewHTTPHandler(
	orderService *service.OrderService,
	cartService *service.CartService,
	logger *zap.Logger,
	gatherer prometheus.Gatherer,
	checks map[string]HealthCheck,
) *HTTPHandler {
	return &HTTPHandler{
		orderService: orderService,
		cartService:  cartService,
		logger:       observability.OrDefault(logger),
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		gatherer:     gatherer,
		checks:       checks,
	}
}

// Router wires every route behind the common middleware chain.
func (h *HTTPHandler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(h.requestID)
	r.Use(middleware.Recoverer)
	r.Use(h.accessLog)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.requireMember)

			r.Route("/orders", func(r chi.Router) {
				r.Post("/checkout", h.Checkout)
				r.Get("/", h.ListOrders)
				r.Get("/number/{orderNumber}", h.GetOrderByNumber)
				r.Get("/{id}", h.GetOrder)
				r.Get("/{id}/items", h.ListOrderItems)
				r.Post("/{id}/cancel", h.CancelOrder)
				r.Delete("/{id}", h.DeleteOrder)
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddCartItem)
				r.Put("/items/{productId}", h.UpdateCartItem)
				r.Delete("/items/{productId}", h.RemoveCartItem)
				r.Get("/validate", h.ValidateCart)
				r.Post("/refresh-prices", h.RefreshPrices)
			})
		})

		r.Put("/admin/orders/{id}/status", h.UpdateOrderStatus)
	})

	return r
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, envelope{Status: jsendError, Data: results, Message: "dependency unavailable"})
		return
	}
	respondSuccess(w, http.StatusOK, results)
}

func (h *HTTPHandler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (h *HTTPHandler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		h.logger.Info("http request",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// requireMember resolves the calling member from X-Member-ID. Authentication is upstream.
func (h *HTTPHandler) requireMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		memberID, err := strconv.ParseInt(r.Header.Get(headerMemberID), 10, 64)
		if err != nil || memberID <= 0 {
			respondFail(w, http.StatusUnauthorized, codeUnauthorized, "missing or invalid "+headerMemberID+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), memberIDKey, memberID)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func memberIDFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(memberIDKey).(int64)
	return id
}

func pathInt64(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		return 0, domain.Errorf(domain.EINVALID, "http.path", "%s must be a positive integer", name)
	}
	return v, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Errorf(domain.EINVALID, "http.query", "%s must be an integer", name)
	}
	return v, nil
}

// decodeBody reads a JSON body into dst and runs its validate tags.
func (h *HTTPHandler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Errorf(domain.EINVALID, "http.decode", "invalid JSON body")
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return domain.Errorf(domain.EINVALID, "http.validate", "field %s failed %s validation", fe.Field(), fe.Tag())
		}
		return domain.Errorf(domain.EINVALID, "http.validate", "invalid request")
	}
	return nil
}
