package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NikSneMC/prod-2025-promo-api/internal/api/response"
	"github.com/NikSneMC/prod-2025-promo-api/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func RegisterBusinessAuthRoutes(group *gin.RouterGroup, authService *service.AuthService) {
	handler := NewAuthHandler(authService)
	auth := group.Group("/auth")
	auth.POST("/sign-up", handler.BusinessSignUp)
	auth.POST("/sign-in", handler.BusinessSignIn)
}

func RegisterUserAuthRoutes(group *gin.RouterGroup, authService *service.AuthService) {
	handler := NewAuthHandler(authService)
	auth := group.Group("/auth")
	auth.POST("/sign-up", handler.UserSignUp)
	auth.POST("/sign-in", handler.UserSignIn)
}

type companySignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userSignUpRequest struct {
	Name      string    `json:"name" binding:"required"`
	Surname   string    `json:"surname" binding:"required"`
	Email     string    `json:"email" binding:"required"`
	AvatarURL *string   `json:"avatar_url"`
	Other     userOther `json:"other" binding:"required"`
	Password  string    `json:"password" binding:"required"`
}

func (h *AuthHandler) BusinessSignUp(c *gin.Context) {
	var req companySignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.KindInvalidInput, "request body is not valid")
		return
	}

	company, encoded, err := h.authService.SignUpCompany(c.Request.Context(), service.SignUpCompanyRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":      encoded,
		"company_id": company.ID,
	})
}

func (h *AuthHandler) BusinessSignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.KindInvalidInput, "request body is not valid")
		return
	}

	encoded, err := h.authService.SignInCompany(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"token": encoded})
}

func (h *AuthHandler) UserSignUp(c *gin.Context) {
	var req userSignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.KindInvalidInput, "request body is not valid")
		return
	}

	_, encoded, err := h.authService.SignUpUser(c.Request.Context(), service.SignUpUserRequest{
		Name:      req.Name,
		Surname:   req.Surname,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
		Age:       req.Other.Age,
		Country:   req.Other.Country,
		Password:  req.Password,
	})
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"token": encoded})
}

func (h *AuthHandler) UserSignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.KindInvalidInput, "request body is not valid")
		return
	}

	encoded, err := h.authService.SignInUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"token": encoded})
}
