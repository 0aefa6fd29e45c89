package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NikSneMC/prod-2025-promo-api/internal/api/response"
	"github.com/NikSneMC/prod-2025-promo-api/internal/model"
	"github.com/NikSneMC/prod-2025-promo-api/internal/service"
)

type ProfileHandler struct {
	userService *service.UserService
}

func NewProfileHandler(userService *service.UserService) *ProfileHandler {
	return &ProfileHandler{userService: userService}
}

func RegisterProfileRoutes(group *gin.RouterGroup, userService *service.UserService) {
	handler := NewProfileHandler(userService)
	group.GET("/profile", handler.Get)
	group.PATCH("/profile", handler.Patch)
}

type userOther struct {
	Age     int    `json:"age"`
	Country string `json:"country"`
}

// userProfile is the wire shape of a user: age and country ride in a nested
// "other" block.
type userProfile struct {
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Other     userOther `json:"other"`
}

func userProfileFrom(user *model.User) userProfile {
	return userProfile{
		Name:      user.Name,
		Surname:   user.Surname,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		Other: userOther{
			Age:     user.Age,
			Country: user.Country,
		},
	}
}

type patchProfileRequest struct {
	Name      *string `json:"name"`
	Surname   *string `json:"surname"`
	AvatarURL *string `json:"avatar_url"`
	Password  *string `json:"password"`
}

func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := subjectID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, userProfileFrom(user))
}

func (h *ProfileHandler) Patch(c *gin.Context) {
	userID, ok := subjectID(c)
	if !ok {
		return
	}

	var req patchProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.KindInvalidInput, "request body is not valid")
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, service.UpdateProfileRequest{
		Name:      req.Name,
		Surname:   req.Surname,
		AvatarURL: req.AvatarURL,
		Password:  req.Password,
	})
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, userProfileFrom(user))
}
