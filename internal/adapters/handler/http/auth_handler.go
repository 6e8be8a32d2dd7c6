package http

import (
	"net/http"

	"github.com/comitanigiacomo/habit-nudge/internal/core/services"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service *services.AuthService
}

func NewAuthHandler(service *services.AuthService) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

type registerRequest struct {
	UserID     string `json:"userId" binding:"required" example:"jdoe"`
	Name       string `json:"name" binding:"required" example:"Jane Doe"`
	Email      string `json:"email" binding:"required" example:"jane@example.com"`
	Password   string `json:"password" binding:"required" example:"StrongPassword123!"`
	ReferredBy string `json:"referredBy" example:"friend"`
}

type loginRequest struct {
	UserID   string `json:"userId" binding:"required" example:"jdoe"`
	Password string `json:"password" binding:"required"`
}

type messageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message"`
}

type loginResponse struct {
	Success bool        `json:"success" example:"true"`
	Token   string      `json:"token"`
	User    userPayload `json:"user"`
}

// Register godoc
// @Summary      Register a user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "new user"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	input := services.RegisterInput{
		UserID:     req.UserID,
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		ReferredBy: req.ReferredBy,
	}

	if _, err := h.service.Register(c.Request.Context(), input); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, messageResponse{Success: true, Message: "User registered"})
}

// Login godoc
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.service.Login(c.Request.Context(), req.UserID, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Success: true,
		Token:   res.Token,
		User:    toUserPayload(res.User),
	})
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}
}
