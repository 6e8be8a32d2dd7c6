package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardHandler(t *testing.T) {
	app := newTestApp(t)
	token := app.seedUser(t, "jdoe")
	done := app.seedHabit(t, "jdoe")
	app.seedHabit(t, "jdoe")

	require.Equal(t, http.StatusOK, app.do(http.MethodPut, "/api/v1/habits/"+done.ID+"/complete", token, nil).Code)

	w := app.do(http.MethodGet, "/api/v1/dashboard", token, nil)

	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)
	assert.EqualValues(t, 2, stats["totalHabits"])
	assert.EqualValues(t, 10, stats["totalXP"])
	assert.EqualValues(t, 1, stats["longestStreak"])
	assert.EqualValues(t, 1, stats["completedToday"])
	assert.EqualValues(t, 1, stats["missedToday"])
	assert.EqualValues(t, 1, stats["completedThisWeek"])
}

func TestDashboardHandler_Empty(t *testing.T) {
	app := newTestApp(t)
	token := app.seedUser(t, "jdoe")

	w := app.do(http.MethodGet, "/api/v1/dashboard", token, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["totalHabits"])
}
