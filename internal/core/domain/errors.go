package domain

import (
	"errors"
	"fmt"
)

// Stable business error codes. Transports map them to status codes.
const (
	ECARTEMPTY            = "CART_EMPTY"
	EINSUFFICIENTSTOCK    = "INSUFFICIENT_STOCK"
	EPRICECHANGED         = "PRICE_CHANGED"
	EORDERNOTFOUND        = "ORDER_NOT_FOUND"
	EORDERNUMBEREXHAUSTED = "ORDER_NUMBER_EXHAUSTED"
	EORDERNUMBERTAKEN     = "ORDER_NUMBER_TAKEN"
	EINVALIDSTATUS        = "INVALID_STATUS"
	ENOCHANGE             = "NO_CHANGE"
	EINVALIDTRANSITION    = "INVALID_TRANSITION"
	EFORBIDDEN            = "FORBIDDEN"
	EORDERSTATUS          = "ORDER_STATUS_ERROR"
	EPRODUCTNOTFOUND      = "PRODUCT_NOT_FOUND"
	ECARTITEMNOTFOUND     = "CART_ITEM_NOT_FOUND"
	EINVALID              = "INVALID_ARGUMENT"
	EINTERNAL             = "INTERNAL"
)

// Error is a business-rule failure with a machine-readable code.
type Error struct {
	Code    string
	Message string
	// Op is the operation that failed, e.g. "order.cancel". Logged, never shown to callers.
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code, so wrapped copies still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Op == "" && t.Err == nil
}

// Errorf creates a domain error with a formatted message.
func Errorf(code, op, format string, args ...any) error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// WithOp returns a copy of a sentinel annotated with the failing operation.
func WithOp(err error, op string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	return &Error{Code: e.Code, Message: e.Message, Op: op, Err: e.Err}
}

// ErrorCode returns the code of a domain error, or EINTERNAL for anything else.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns a caller-safe message. Internal failures are not described.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Message
	}
	return "An internal error occurred. Please try again later."
}

var (
	ErrCartEmpty            = &Error{Code: ECARTEMPTY, Message: "Cart is empty"}
	ErrInsufficientStock    = &Error{Code: EINSUFFICIENTSTOCK, Message: "Insufficient stock for one or more items"}
	ErrPriceChanged         = &Error{Code: EPRICECHANGED, Message: "Price has changed since the item was added"}
	ErrOrderNotFound        = &Error{Code: EORDERNOTFOUND, Message: "Order not found"}
	ErrOrderNumberExhausted = &Error{Code: EORDERNUMBEREXHAUSTED, Message: "Unable to generate a unique order number"}
	// ErrOrderNumberTaken is a unique-key collision on insert; checkout retries with the next suffix.
	ErrOrderNumberTaken  = &Error{Code: EORDERNUMBERTAKEN, Message: "Order number already taken"}
	ErrInvalidStatus     = &Error{Code: EINVALIDSTATUS, Message: "Unknown order status"}
	ErrNoChange          = &Error{Code: ENOCHANGE, Message: "Order is already in the requested status"}
	ErrInvalidTransition = &Error{Code: EINVALIDTRANSITION, Message: "Order status transition is not allowed"}
	ErrForbidden         = &Error{Code: EFORBIDDEN, Message: "Not permitted to operate on this order"}
	ErrOrderStatus       = &Error{Code: EORDERSTATUS, Message: "Order status does not allow this operation"}
)

var (
	ErrProductNotFound   = &Error{Code: EPRODUCTNOTFOUND, Message: "Product not found"}
	ErrCartItemNotFound  = &Error{Code: ECARTITEMNOTFOUND, Message: "Cart item not found"}
	ErrOrderItemNotFound = &Error{Code: EORDERNOTFOUND, Message: "Order item not found"}
	ErrInvalidQuantity   = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
)
