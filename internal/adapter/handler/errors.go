package handler

import (
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/rl1809/petstore-orders/internal/core/domain"
)

type errorMapping struct {
	httpStatus int
	grpcCode   codes.Code
}

var errorMappings = map[string]errorMapping{
	domain.ECARTEMPTY:            {http.StatusBadRequest, codes.FailedPrecondition},
	domain.EINSUFFICIENTSTOCK:    {http.StatusConflict, codes.FailedPrecondition},
	domain.EPRICECHANGED:         {http.StatusConflict, codes.FailedPrecondition},
	domain.EORDERNOTFOUND:        {http.StatusNotFound, codes.NotFound},
	domain.EORDERNUMBEREXHAUSTED: {http.StatusServiceUnavailable, codes.ResourceExhausted},
	domain.EORDERNUMBERTAKEN:     {http.StatusServiceUnavailable, codes.Unavailable},
	domain.EINVALIDSTATUS:        {http.StatusBadRequest, codes.InvalidArgument},
	domain.ENOCHANGE:             {http.StatusConflict, codes.FailedPrecondition},
	domain.EINVALIDTRANSITION:    {http.StatusConflict, codes.FailedPrecondition},
	domain.EFORBIDDEN:            {http.StatusForbidden, codes.PermissionDenied},
	domain.EORDERSTATUS:          {http.StatusConflict, codes.FailedPrecondition},
	domain.EPRODUCTNOTFOUND:      {http.StatusNotFound, codes.NotFound},
	domain.ECARTITEMNOTFOUND:     {http.StatusNotFound, codes.NotFound},
	domain.EINVALID:              {http.StatusBadRequest, codes.InvalidArgument},
}

func mapError(err error) errorMapping {
	if m, ok := errorMappings[domain.ErrorCode(err)]; ok {
		return m
	}
	return errorMapping{http.StatusInternalServerError, codes.Internal}
}
