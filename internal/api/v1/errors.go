package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NikSneMC/prod-2025-promo-api/internal/api/response"
	"github.com/NikSneMC/prod-2025-promo-api/internal/service"
)

// failFromError maps service sentinels onto the wire envelope. Anything
// unrecognized is a 500 with a deliberately vague description.
func failFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.Fail(c, http.StatusBadRequest, response.KindInvalidInput, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.KindInvalidCredentials, "email or password is wrong")
	case errors.Is(err, service.ErrEmailTaken):
		response.Fail(c, http.StatusConflict, response.KindConflict, "email is already registered")
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrPromoNotFound),
		errors.Is(err, service.ErrCommentNotFound):
		response.Fail(c, http.StatusNotFound, response.KindNotFound, "resource does not exist")
	case errors.Is(err, service.ErrNotOwner):
		response.Fail(c, http.StatusForbidden, response.KindNotOwner, "resource belongs to another owner")
	case errors.Is(err, service.ErrPromoExpired):
		response.Fail(c, http.StatusForbidden, response.KindPromoExpired, "promo is outside its active window")
	case errors.Is(err, service.ErrNoCodesLeft):
		response.Fail(c, http.StatusForbidden, response.KindNoCodesLeft, "promo has no codes left")
	case errors.Is(err, service.ErrNotPromoTarget):
		response.Fail(c, http.StatusForbidden, response.KindNotPromoTarget, "promo does not target this user")
	case errors.Is(err, service.ErrFraudDetected):
		response.Fail(c, http.StatusForbidden, response.KindFraudSuspence, "redemption denied")
	default:
		response.Fail(c, http.StatusInternalServerError, response.KindInternal, "internal error")
	}
}
