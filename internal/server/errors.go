package server

import (
	"errors"
	"net/http"

	"github.com/dormhub/dormhub/internal/auth"
	billdomain "github.com/dormhub/dormhub/internal/bill/domain"
	contractdomain "github.com/dormhub/dormhub/internal/contract/domain"
	paymentdomain "github.com/dormhub/dormhub/internal/payment/domain"
	readingdomain "github.com/dormhub/dormhub/internal/reading/domain"
	roomdomain "github.com/dormhub/dormhub/internal/room/domain"
	tariffdomain "github.com/dormhub/dormhub/internal/tariff/domain"
	"github.com/dormhub/dormhub/pkg/billmonth"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, ErrUnauthorized), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: err.Error(),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case errors.Is(err, roomdomain.ErrGone):
		return http.StatusGone, errorPayload{
			Type:    "gone",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, billmonth.ErrInvalidMonth),
		errors.Is(err, tariffdomain.ErrInvalidID),
		errors.Is(err, tariffdomain.ErrInvalidServiceName),
		errors.Is(err, tariffdomain.ErrInvalidUnit),
		errors.Is(err, tariffdomain.ErrInvalidUnitPrice),
		errors.Is(err, tariffdomain.ErrInvalidEffectiveDate),
		errors.Is(err, readingdomain.ErrInvalidID),
		errors.Is(err, readingdomain.ErrEmptySubmission),
		errors.Is(err, readingdomain.ErrNegativeReading),
		errors.Is(err, readingdomain.ErrNonMonotonicReading),
		errors.Is(err, readingdomain.ErrMonthClosed),
		errors.Is(err, readingdomain.ErrFutureMonth),
		errors.Is(err, contractdomain.ErrInvalidID),
		errors.Is(err, contractdomain.ErrInvalidType),
		errors.Is(err, contractdomain.ErrInvalidPeriod),
		errors.Is(err, contractdomain.ErrInvalidStatus),
		errors.Is(err, contractdomain.ErrInvalidUser),
		errors.Is(err, contractdomain.ErrStartInPast),
		errors.Is(err, billdomain.ErrInvalidID),
		errors.Is(err, billdomain.ErrInvalidStatus),
		errors.Is(err, billdomain.ErrNoBillsCreated),
		errors.Is(err, paymentdomain.ErrInvalidID),
		errors.Is(err, paymentdomain.ErrMethodNotAllowed),
		errors.Is(err, paymentdomain.ErrAmountOutOfRange),
		errors.Is(err, paymentdomain.ErrBillNotPayable),
		errors.Is(err, paymentdomain.ErrInvalidSignature):
		return true
	default:
		return false
	}
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, paymentdomain.ErrNotBillOwner):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, tariffdomain.ErrDuplicateService),
		errors.Is(err, tariffdomain.ErrDuplicateTariff),
		errors.Is(err, readingdomain.ErrDuplicateReading),
		errors.Is(err, readingdomain.ErrLinkedBill),
		errors.Is(err, roomdomain.ErrRoomFull),
		errors.Is(err, contractdomain.ErrUserHasContract),
		errors.Is(err, contractdomain.ErrContractExists),
		errors.Is(err, contractdomain.ErrDeleteActive),
		errors.Is(err, contractdomain.ErrTerminated),
		errors.Is(err, contractdomain.ErrStatusTransition),
		errors.Is(err, billdomain.ErrAlreadyPaid),
		errors.Is(err, billdomain.ErrDeletePaid),
		errors.Is(err, billdomain.ErrBadTransition):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, tariffdomain.ErrUnknownService),
		errors.Is(err, tariffdomain.ErrNoTariff),
		errors.Is(err, readingdomain.ErrNotFound),
		errors.Is(err, readingdomain.ErrNoActiveContract),
		errors.Is(err, roomdomain.ErrNotFound),
		errors.Is(err, contractdomain.ErrNotFound),
		errors.Is(err, contractdomain.ErrUnknownRoom),
		errors.Is(err, billdomain.ErrNotFound),
		errors.Is(err, billdomain.ErrNoActiveTenancy),
		errors.Is(err, billdomain.ErrNoUnlinked),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrUnknownTxnRef),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
