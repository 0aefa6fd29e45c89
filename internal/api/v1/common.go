package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/NikSneMC/prod-2025-promo-api/internal/api/middleware"
	"github.com/NikSneMC/prod-2025-promo-api/internal/api/response"
	"github.com/NikSneMC/prod-2025-promo-api/internal/repository"
)

// subjectID pulls the authenticated subject set by the auth middleware. A
// miss means the route was wired without the middleware; answer 401 rather
// than panic.
func subjectID(c *gin.Context) (uuid.UUID, bool) {
	cred, ok := middleware.CredentialFrom(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.KindInvalidCredentials, "no credential attached")
		return uuid.Nil, false
	}
	return cred.Subject, true
}

func parsePagination(c *gin.Context) repository.Pagination {
	page := repository.Pagination{}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.ParseInt(raw, 10, 32); err == nil {
			page.Limit = int32(limit)
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err := strconv.ParseInt(raw, 10, 32); err == nil {
			page.Offset = int32(offset)
		}
	}
	return page
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.KindInvalidInput, name+" must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}
