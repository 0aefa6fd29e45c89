package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NikSneMC/prod-2025-promo-api/internal/api/response"
	"github.com/NikSneMC/prod-2025-promo-api/internal/service"
)

type EngagementHandler struct {
	engagementService *service.EngagementService
}

func NewEngagementHandler(engagementService *service.EngagementService) *EngagementHandler {
	return &EngagementHandler{engagementService: engagementService}
}

func RegisterEngagementRoutes(group *gin.RouterGroup, engagementService *service.EngagementService) {
	handler := NewEngagementHandler(engagementService)
	promo := group.Group("/promo/:id")
	promo.POST("/like", handler.Like)
	promo.DELETE("/like", handler.Unlike)
	promo.POST("/comments", handler.AddComment)
	promo.GET("/comments", handler.ListComments)
	promo.GET("/comments/:comment_id", handler.GetComment)
	promo.PUT("/comments/:comment_id", handler.EditComment)
	promo.DELETE("/comments/:comment_id", handler.DeleteComment)
}

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *EngagementHandler) Like(c *gin.Context) {
	userID, ok := subjectID(c)
	if !ok {
		return
	}
	promoID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.engagementService.Like(c.Request.Context(), userID, promoID); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

func (h *EngagementHandler) Unlike(c *gin.Context) {
	userID, ok := subjectID(c)
	if !ok {
		return
	}
	promoID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.engagementService.Unlike(c.Request.Context(), userID, promoID); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}

func (h *EngagementHandler) AddComment(c *gin.Context) {
	userID, ok := subjectID(c)
	if !ok {
		return
	}
	promoID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.KindInvalidInput, "request body is not valid")
		return
	}

	comment, err := h.engagementService.AddComment(c.Request.Context(), userID, promoID, req.Text)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, comment)
}

func (h *EngagementHandler) ListComments(c *gin.Context) {
	if _, ok := subjectID(c); !ok {
		return
	}
	promoID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	comments, total, err := h.engagementService.ListComments(c.Request.Context(), promoID, parsePagination(c))
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Paginated(c, comments, total)
}

func (h *EngagementHandler) GetComment(c *gin.Context) {
	if _, ok := subjectID(c); !ok {
		return
	}
	promoID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	commentID, ok := parseUUIDParam(c, "comment_id")
	if !ok {
		return
	}

	comment, err := h.engagementService.GetComment(c.Request.Context(), promoID, commentID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, comment)
}

func (h *EngagementHandler) EditComment(c *gin.Context) {
	userID, ok := subjectID(c)
	if !ok {
		return
	}
	promoID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	commentID, ok := parseUUIDParam(c, "comment_id")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.KindInvalidInput, "request body is not valid")
		return
	}

	comment, err := h.engagementService.EditComment(c.Request.Context(), userID, promoID, commentID, req.Text)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, comment)
}

func (h *EngagementHandler) DeleteComment(c *gin.Context) {
	userID, ok := subjectID(c)
	if !ok {
		return
	}
	promoID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	commentID, ok := parseUUIDParam(c, "comment_id")
	if !ok {
		return
	}

	if err := h.engagementService.DeleteComment(c.Request.Context(), userID, promoID, commentID); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}
