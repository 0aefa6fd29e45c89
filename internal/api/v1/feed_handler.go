package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/NikSneMC/prod-2025-promo-api/internal/api/response"
	"github.com/NikSneMC/prod-2025-promo-api/internal/service"
)

type FeedHandler struct {
	promoService *service.PromoService
	userService  *service.UserService
}

func NewFeedHandler(promoService *service.PromoService, userService *service.UserService) *FeedHandler {
	return &FeedHandler{promoService: promoService, userService: userService}
}

func RegisterFeedRoutes(group *gin.RouterGroup, promoService *service.PromoService, userService *service.UserService) {
	handler := NewFeedHandler(promoService, userService)
	group.GET("/feed", handler.Feed)
	group.GET("/promo/history", handler.History)
	group.GET("/promo/:id", handler.GetPromo)
}

func (h *FeedHandler) Feed(c *gin.Context) {
	userID, ok := subjectID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		failFromError(c, err)
		return
	}

	req := service.FeedRequest{Pagination: parsePagination(c)}
	if category := c.Query("category"); category != "" {
		req.Category = &category
	}
	if raw := c.Query("active"); raw != "" {
		active, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			response.Fail(c, http.StatusBadRequest, response.KindInvalidInput, "active must be a boolean")
			return
		}
		req.Active = &active
	}

	views, total, err := h.promoService.Feed(c.Request.Context(), user, req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Paginated(c, views, total)
}

func (h *FeedHandler) GetPromo(c *gin.Context) {
	userID, ok := subjectID(c)
	if !ok {
		return
	}
	promoID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.promoService.GetForUser(c.Request.Context(), userID, promoID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

func (h *FeedHandler) History(c *gin.Context) {
	userID, ok := subjectID(c)
	if !ok {
		return
	}

	views, total, err := h.promoService.History(c.Request.Context(), userID, parsePagination(c))
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Paginated(c, views, total)
}
