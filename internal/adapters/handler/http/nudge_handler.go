package http

import (
	"net/http"

	"github.com/comitanigiacomo/habit-nudge/internal/core/services"
	"github.com/gin-gonic/gin"
)

type NudgeHandler struct {
	svc *services.NudgeService
}

func NewNudgeHandler(svc *services.NudgeService) *NudgeHandler {
	return &NudgeHandler{svc: svc}
}

type createNudgeRequest struct {
	Message string `json:"message" binding:"required" example:"Keep going!"`
	Type    string `json:"type" example:"manual"`
}

func (h *NudgeHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/habits/:habitId/nudges", h.Create)
	router.GET("/habits/:habitId/nudges", h.List)
	router.GET("/daily-nudge", h.Daily)
}

// Create godoc
// @Summary      Attach a nudge to a habit
// @Tags         nudges
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        habitId  path      string              true  "habit id"
// @Param        body     body      createNudgeRequest  true  "nudge"
// @Success      201      {object}  map[string]interface{}
// @Failure      404      {object}  errorResponse
// @Router       /habits/{habitId}/nudges [post]
func (h *NudgeHandler) Create(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}

	var req createNudgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	nudge, err := h.svc.Create(c.Request.Context(), userID, c.Param("habitId"), req.Message, req.Type)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "id": nudge.ID})
}

// List godoc
// @Summary      List a habit's nudges, newest first
// @Tags         nudges
// @Produce      json
// @Security     BearerAuth
// @Param        habitId  path      string  true  "habit id"
// @Success      200      {object}  map[string][]domain.Nudge
// @Router       /habits/{habitId}/nudges [get]
func (h *NudgeHandler) List(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}

	nudges, err := h.svc.List(c.Request.Context(), userID, c.Param("habitId"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"nudges": nudges})
}

// Daily godoc
// @Summary      Today's motivational nudge
// @Description  The first call of a UTC day picks a quote; later calls return the same one.
// @Tags         nudges
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Router       /daily-nudge [get]
func (h *NudgeHandler) Daily(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}

	msg, _, err := h.svc.Daily(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"nudge": msg})
}
