// Package response holds the error envelope every handler speaks:
// {"error": kind, "description": text}. Kinds are stable machine-readable
// strings; descriptions are for humans and may change.
package response

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	KindMissingAuthHeader  = "missing_authorization_header"
	KindInvalidAuthMethod  = "invalid_auth_method"
	KindInvalidCredentials = "invalid_credentials"
	KindIncorrectTokenType = "incorrect_token_type"
	KindNotFound           = "not_found"
	KindNotOwner           = "not_owner"
	KindPromoExpired       = "promo_expired"
	KindNoCodesLeft        = "no_codes_left"
	KindNotPromoTarget     = "not_promo_target"
	KindFraudSuspence      = "fraud_suspence"
	KindInvalidInput       = "invalid_input"
	KindConflict           = "conflict"
	KindTooManyRequests    = "too_many_requests"
	KindInternal           = "internal_error"
)

type ErrorBody struct {
	Error       string `json:"error"`
	Description string `json:"description"`
}

func Success(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}

// Paginated writes the page and exposes the unpaginated total in
// X-Total-Count.
func Paginated(c *gin.Context, data any, total int64) {
	c.Header("X-Total-Count", strconv.FormatInt(total, 10))
	c.JSON(http.StatusOK, data)
}

func Fail(c *gin.Context, status int, kind, description string) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: kind, Description: description})
}
