package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/NikSneMC/prod-2025-promo-api/internal/api/response"
	"github.com/NikSneMC/prod-2025-promo-api/internal/auth"
	"github.com/NikSneMC/prod-2025-promo-api/pkg/token"
)

const credentialContextKey = "credential"

const bearerPrefix = "Bearer "

// Auth guards a route group for one subject kind. Failures are told apart
// deliberately: a missing header, a non-Bearer scheme, a malformed or
// revoked token, and a token of the wrong kind each answer differently.
func Auth(store *auth.TokenStore, kind token.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Fail(c, 401, response.KindMissingAuthHeader, "authorization header is required")
			return
		}

		if !strings.HasPrefix(header, bearerPrefix) {
			response.Fail(c, 401, response.KindInvalidAuthMethod, "authorization must use the Bearer scheme")
			return
		}

		cred, err := token.Decode(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			response.Fail(c, 401, response.KindInvalidCredentials, "token is malformed")
			return
		}

		validated, err := store.Validate(c.Request.Context(), cred)
		if err != nil {
			response.Fail(c, 401, response.KindInvalidCredentials, "token is not recognized")
			return
		}

		if validated.Kind != kind {
			response.Fail(c, 403, response.KindIncorrectTokenType, "token subject kind does not fit this route")
			return
		}

		c.Set(credentialContextKey, validated)
		c.Next()
	}
}

// CredentialFrom returns the credential the Auth middleware attached.
func CredentialFrom(c *gin.Context) (token.Credential, bool) {
	value, ok := c.Get(credentialContextKey)
	if !ok {
		return token.Credential{}, false
	}
	cred, ok := value.(token.Credential)
	return cred, ok
}
