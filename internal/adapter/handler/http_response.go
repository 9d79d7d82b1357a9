package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/rl1809/petstore-orders/internal/core/domain"
)

const (
	jsendSuccess = "success"
	jsendFail    = "fail"
	jsendError   = "error"
)

// envelope follows JSend: fail for caller mistakes and business rejections, error for server faults.
type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Status: jsendSuccess, Data: data})
}

func respondFail(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, envelope{Status: jsendFail, Code: code, Message: message})
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	m := mapError(err)
	if m.httpStatus >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, m.httpStatus, envelope{
			Status:  jsendError,
			Code:    domain.ErrorCode(err),
			Message: domain.ErrorMessage(err),
		})
		return
	}
	respondFail(w, m.httpStatus, domain.ErrorCode(err), domain.ErrorMessage(err))
}
