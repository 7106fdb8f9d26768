package helpers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/utils"
)

// error codes returned to clients
const (
	CodeInvalidPayload     = "invalid_payload"
	CodeValidationFailed   = "validation_failed"
	CodeNotFound           = "not_found"
	CodeInvalidBidder      = "invalid_bidder"
	CodeInvalidAmount      = "invalid_amount"
	CodeAuctionClosed      = "auction_closed"
	CodeBidTooLow          = "bid_too_low"
	CodeUserExists         = "user_exists"
	CodeInvalidCredentials = "invalid_credentials"
	CodeAggregationFailed  = "aggregation_failed"
	CodeStorageUnavailable = "storage_unavailable"
	CodeTimeout            = "timeout"
	CodeInternal           = "internal_error"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, CodeInvalidPayload, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code, error code and message
func MapErrorToHTTP(err error) (int, string, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrValidation):
		return http.StatusBadRequest, CodeValidationFailed, "validation failed"
	case errors.Is(err, biddingerrors.ErrAuctionNotFound):
		return http.StatusNotFound, CodeNotFound, "auction not found"
	case errors.Is(err, biddingerrors.ErrUserNotFound):
		return http.StatusNotFound, CodeNotFound, "user not found"
	case errors.Is(err, biddingerrors.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, "resource not found"
	case errors.Is(err, biddingerrors.ErrInvalidBidder):
		return http.StatusUnprocessableEntity, CodeInvalidBidder, "bidder is not a registered user"
	case errors.Is(err, biddingerrors.ErrInvalidAmount):
		return http.StatusBadRequest, CodeInvalidAmount, "bid amount must be greater than zero"
	case errors.Is(err, biddingerrors.ErrAuctionClosed):
		return http.StatusConflict, CodeAuctionClosed, "auction is closed"
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return http.StatusConflict, CodeBidTooLow, "bid amount too low"
	case errors.Is(err, biddingerrors.ErrUserExists):
		return http.StatusConflict, CodeUserExists, "user already exists"
	case errors.Is(err, biddingerrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, CodeInvalidCredentials, "invalid email or password"
	case errors.Is(err, biddingerrors.ErrAggregationFailed):
		return http.StatusServiceUnavailable, CodeAggregationFailed, "statistics temporarily unavailable"
	case errors.Is(err, biddingerrors.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, CodeStorageUnavailable, "storage temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout, "request timed out"
	default:
		return http.StatusInternalServerError, CodeInternal, "internal server error"
	}
}

// RespondError writes the mapped error response and logs it.
// Client errors log at warn, server errors at error.
func RespondError(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, code, message := MapErrorToHTTP(err)
	wrapped := fmt.Errorf("%s: %w", message, err)

	var verr *biddingerrors.ValidationError
	if errors.As(err, &verr) {
		utils.JSONErrorWithDetails(c, status, code, wrapped, message, verr.Fields)
	} else {
		utils.JSONError(c, status, code, wrapped, message)
	}

	if fields == nil {
		fields = map[string]any{}
	}
	fields["handler"] = handlerName
	fields["code"] = code
	fields["retryable"] = biddingerrors.IsRetryable(err)
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
		return
	}
	utils.Warn(handlerName+": request rejected", fields)
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
