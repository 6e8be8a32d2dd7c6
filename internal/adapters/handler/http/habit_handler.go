package http

import (
	"net/http"

	"github.com/comitanigiacomo/habit-nudge/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/habit-nudge/internal/core/services"
	"github.com/gin-gonic/gin"
)

type HabitHandler struct {
	svc *services.HabitService
}

func NewHabitHandler(svc *services.HabitService) *HabitHandler {
	return &HabitHandler{
		svc: svc,
	}
}

type createHabitRequest struct {
	Title        string `json:"title" binding:"required" example:"Read 10 pages"`
	Frequency    string `json:"frequency" example:"daily"`
	ReminderTime string `json:"reminderTime" example:"08:30"`
}

type updateHabitRequest struct {
	Title        string `json:"title"`
	Frequency    string `json:"frequency"`
	ReminderTime string `json:"reminderTime"`
	Version      int    `json:"version"`
}

type completeResponse struct {
	Success   bool   `json:"success" example:"true"`
	Message   string `json:"message" example:"Habit completed. +10 XP"`
	NewStreak int    `json:"newStreak" example:"5"`
	XPGained  int    `json:"xpGained" example:"30"`
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.POST("", h.Create)
		habits.GET("", h.List)
		habits.GET("/:habitId", h.Get)
		habits.PUT("/:habitId", h.Update)
		habits.PUT("/:habitId/complete", h.Complete)
		habits.DELETE("/:habitId", h.Delete)
	}
}

func principal(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "user context missing"})
	}
	return userID, ok
}

// Create godoc
// @Summary      Create a habit
// @Tags         habits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createHabitRequest  true  "habit"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  errorResponse
// @Router       /habits [post]
func (h *HabitHandler) Create(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}

	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	habit, err := h.svc.Create(c.Request.Context(), services.CreateHabitInput{
		UserID:       userID,
		Title:        req.Title,
		Frequency:    req.Frequency,
		ReminderTime: req.ReminderTime,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "id": habit.ID})
}

// List godoc
// @Summary      List the caller's habits
// @Tags         habits
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string][]domain.Habit
// @Router       /habits [get]
func (h *HabitHandler) List(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}

	list, err := h.svc.ListByUserID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habits": list})
}

// Get godoc
// @Summary      Get one habit
// @Tags         habits
// @Produce      json
// @Security     BearerAuth
// @Param        habitId  path      string  true  "habit id"
// @Success      200      {object}  domain.Habit
// @Failure      404      {object}  errorResponse
// @Router       /habits/{habitId} [get]
func (h *HabitHandler) Get(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}

	habit, err := h.svc.Get(c.Request.Context(), userID, c.Param("habitId"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

// Update godoc
// @Summary      Update a habit
// @Description  version must match the stored version; a stale version yields 409.
// @Tags         habits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        habitId  path      string              true  "habit id"
// @Param        body     body      updateHabitRequest  true  "changes"
// @Success      200      {object}  messageResponse
// @Failure      404      {object}  errorResponse
// @Failure      409      {object}  errorResponse
// @Router       /habits/{habitId} [put]
func (h *HabitHandler) Update(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}

	var req updateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	_, err := h.svc.Update(c.Request.Context(), services.UpdateHabitInput{
		ID:           c.Param("habitId"),
		UserID:       userID,
		Title:        req.Title,
		Frequency:    req.Frequency,
		ReminderTime: req.ReminderTime,
		Version:      req.Version,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Habit updated"})
}

// Complete godoc
// @Summary      Complete a habit for today
// @Description  Awards 10 XP plus a bonus when the new streak hits 5, 10, 20 or 30.
// @Tags         habits
// @Produce      json
// @Security     BearerAuth
// @Param        habitId  path      string  true  "habit id"
// @Success      200      {object}  completeResponse
// @Failure      400      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Router       /habits/{habitId}/complete [put]
func (h *HabitHandler) Complete(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}

	completion, err := h.svc.Complete(c.Request.Context(), userID, c.Param("habitId"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, completeResponse{
		Success:   true,
		Message:   completion.Summary(),
		NewStreak: completion.NewStreak,
		XPGained:  completion.XPGained,
	})
}

// Delete godoc
// @Summary      Delete a habit
// @Tags         habits
// @Produce      json
// @Security     BearerAuth
// @Param        habitId  path      string  true  "habit id"
// @Success      200      {object}  messageResponse
// @Failure      404      {object}  errorResponse
// @Router       /habits/{habitId} [delete]
func (h *HabitHandler) Delete(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("habitId"), userID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Habit deleted"})
}
