package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NikSneMC/prod-2025-promo-api/internal/api/response"
	"github.com/NikSneMC/prod-2025-promo-api/internal/model"
	"github.com/NikSneMC/prod-2025-promo-api/internal/repository"
	"github.com/NikSneMC/prod-2025-promo-api/internal/service"
)

type PromoHandler struct {
	promoService *service.PromoService
}

func NewPromoHandler(promoService *service.PromoService) *PromoHandler {
	return &PromoHandler{promoService: promoService}
}

func RegisterBusinessPromoRoutes(group *gin.RouterGroup, promoService *service.PromoService) {
	handler := NewPromoHandler(promoService)
	promo := group.Group("/promo")
	promo.POST("", handler.Create)
	promo.GET("", handler.List)
	promo.GET("/:id", handler.Get)
	promo.PATCH("/:id", handler.Patch)
	promo.GET("/:id/stat", handler.Stat)
}

type createPromoRequest struct {
	Description string          `json:"description" binding:"required"`
	ImageURL    *string         `json:"image_url"`
	Target      model.Target    `json:"target"`
	MaxCount    int             `json:"max_count"`
	ActiveFrom  *time.Time      `json:"active_from"`
	ActiveUntil *time.Time      `json:"active_until"`
	Mode        model.PromoMode `json:"mode" binding:"required"`
	PromoCommon *string         `json:"promo_common"`
	PromoUnique []string        `json:"promo_unique"`
}

type patchPromoRequest struct {
	Description *string       `json:"description"`
	ImageURL    *string       `json:"image_url"`
	Target      *model.Target `json:"target"`
	MaxCount    *int          `json:"max_count"`
	ActiveFrom  *time.Time    `json:"active_from"`
	ActiveUntil *time.Time    `json:"active_until"`
}

func (h *PromoHandler) Create(c *gin.Context) {
	companyID, ok := subjectID(c)
	if !ok {
		return
	}

	var req createPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.KindInvalidInput, "request body is not valid")
		return
	}

	promo, err := h.promoService.Create(c.Request.Context(), companyID, service.CreatePromoRequest{
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Target:      req.Target,
		MaxCount:    req.MaxCount,
		ActiveFrom:  req.ActiveFrom,
		ActiveUntil: req.ActiveUntil,
		Mode:        req.Mode,
		PromoCommon: req.PromoCommon,
		PromoUnique: req.PromoUnique,
	})
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"id": promo.ID})
}

func (h *PromoHandler) List(c *gin.Context) {
	companyID, ok := subjectID(c)
	if !ok {
		return
	}

	filter := repository.PromoListFilter{
		CompanyID:  companyID,
		Countries:  splitCountries(c.QueryArray("country")),
		SortBy:     repository.PromoSortBy(c.Query("sort_by")),
		Pagination: parsePagination(c),
	}

	promos, total, err := h.promoService.List(c.Request.Context(), filter)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Paginated(c, promos, total)
}

func (h *PromoHandler) Get(c *gin.Context) {
	companyID, ok := subjectID(c)
	if !ok {
		return
	}
	promoID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	promo, err := h.promoService.GetForCompany(c.Request.Context(), companyID, promoID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, promo)
}

func (h *PromoHandler) Patch(c *gin.Context) {
	companyID, ok := subjectID(c)
	if !ok {
		return
	}
	promoID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req patchPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.KindInvalidInput, "request body is not valid")
		return
	}

	promo, err := h.promoService.Patch(c.Request.Context(), companyID, promoID, service.PatchPromoRequest{
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Target:      req.Target,
		MaxCount:    req.MaxCount,
		ActiveFrom:  req.ActiveFrom,
		ActiveUntil: req.ActiveUntil,
	})
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, promo)
}

func (h *PromoHandler) Stat(c *gin.Context) {
	companyID, ok := subjectID(c)
	if !ok {
		return
	}
	promoID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	stat, err := h.promoService.Stat(c.Request.Context(), companyID, promoID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, stat)
}

// splitCountries accepts both repeated country params and comma-separated
// values in one param.
func splitCountries(raw []string) []string {
	countries := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, country := range strings.Split(entry, ",") {
			country = strings.TrimSpace(country)
			if country != "" {
				countries = append(countries, country)
			}
		}
	}
	return countries
}
