package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/comitanigiacomo/habit-nudge/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/habit-nudge/internal/core/domain"
	"github.com/comitanigiacomo/habit-nudge/internal/core/services"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc *services.UserService
}

func NewUserHandler(svc *services.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// userPayload is the public view of a user; the password hash never leaves
// the service layer.
type userPayload struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	ReferredBy *string   `json:"referredBy"`
	XP         int       `json:"xp"`
	Badges     []string  `json:"badges"`
	Pro        bool      `json:"pro"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toUserPayload(u *domain.User) userPayload {
	badges := u.Badges
	if badges == nil {
		badges = []string{}
	}
	return userPayload{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		ReferredBy: u.ReferredBy,
		XP:         u.XP,
		Badges:     badges,
		Pro:        u.Pro,
		CreatedAt:  u.CreatedAt,
	}
}

type updateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type grantXPRequest struct {
	Amount int `json:"amount" example:"10"`
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users/:userId", middleware.RequireSelf("userId"))
	{
		users.GET("", h.Get)
		users.PUT("", h.Update)
		users.POST("/xp", h.GrantXP)
		users.GET("/badges", h.Badges)
		users.PUT("/upgrade", h.Upgrade)
	}
}

// Get godoc
// @Summary      Get a user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "user id"
// @Success      200     {object}  map[string]userPayload
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /users/{userId} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.Get(c.Request.Context(), c.Param("userId"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserPayload(user)})
}

// Update godoc
// @Summary      Update name or email
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string             true  "user id"
// @Param        body    body      updateUserRequest  true  "fields to change"
// @Success      200     {object}  messageResponse
// @Failure      400     {object}  errorResponse
// @Router       /users/{userId} [put]
func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if _, err := h.svc.UpdateProfile(c.Request.Context(), c.Param("userId"), req.Name, req.Email); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Success: true, Message: "User updated"})
}

// GrantXP godoc
// @Summary      Add XP to a user
// @Description  An empty body or a zero amount grants the default 10 XP.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string          true   "user id"
// @Param        body    body      grantXPRequest  false  "amount"
// @Success      200     {object}  map[string]interface{}
// @Failure      400     {object}  errorResponse
// @Router       /users/{userId}/xp [post]
func (h *UserHandler) GrantXP(c *gin.Context) {
	var req grantXPRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}

	total, err := h.svc.GrantXP(c.Request.Context(), c.Param("userId"), req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "xp": total})
}

// Badges godoc
// @Summary      List badges
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "user id"
// @Success      200     {object}  map[string][]string
// @Router       /users/{userId}/badges [get]
func (h *UserHandler) Badges(c *gin.Context) {
	badges, err := h.svc.Badges(c.Request.Context(), c.Param("userId"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"badges": badges})
}

// Upgrade godoc
// @Summary      Upgrade to pro
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string  true  "user id"
// @Success      200     {object}  messageResponse
// @Router       /users/{userId}/upgrade [put]
func (h *UserHandler) Upgrade(c *gin.Context) {
	if err := h.svc.Upgrade(c.Request.Context(), c.Param("userId")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Upgraded to Pro"})
}
