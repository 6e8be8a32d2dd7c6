package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/habit-nudge/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error" example:"habit not found"`
}

var badRequestErrors = []error{
	domain.ErrHabitTitleEmpty,
	domain.ErrHabitTitleTooLong,
	domain.ErrHabitInvalidUserID,
	domain.ErrFrequencyEmpty,
	domain.ErrInvalidReminder,
	domain.ErrInvalidDate,
	domain.ErrInvalidEmail,
	domain.ErrPasswordEmpty,
	domain.ErrUserIDEmpty,
	domain.ErrUserNameEmpty,
	domain.ErrNudgeMessageEmpty,
	domain.ErrInvalidXPAmount,
}

// writeError maps domain errors to status codes. Anything unknown is a 500
// and is attached to the context so the request logger records the cause.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrHabitNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrDailyNudgeNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAlreadyCompleted):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "message": "Habit already completed today"})
	case errors.Is(err, domain.ErrHabitConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "version conflict",
			"message": "Data has been modified elsewhere. Reload and retry.",
		})
	case errors.Is(err, domain.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, errorResponse{Error: err.Error()})
	case isBadRequest(err):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func isBadRequest(err error) bool {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}
