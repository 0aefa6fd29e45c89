package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NikSneMC/prod-2025-promo-api/internal/api/middleware"
	"github.com/NikSneMC/prod-2025-promo-api/internal/api/response"
	"github.com/NikSneMC/prod-2025-promo-api/internal/service"
)

type ActivationHandler struct {
	redemptionService *service.RedemptionService
}

func NewActivationHandler(redemptionService *service.RedemptionService) *ActivationHandler {
	return &ActivationHandler{redemptionService: redemptionService}
}

func RegisterActivationRoutes(group *gin.RouterGroup, redemptionService *service.RedemptionService, limit int, window time.Duration) {
	handler := NewActivationHandler(redemptionService)
	group.POST(
		"/promo/:id/activate",
		middleware.RateLimitPerSubject(limit, window),
		handler.Activate,
	)
}

func (h *ActivationHandler) Activate(c *gin.Context) {
	userID, ok := subjectID(c)
	if !ok {
		return
	}
	promoID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	code, err := h.redemptionService.Activate(c.Request.Context(), userID, promoID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"promo": code})
}
