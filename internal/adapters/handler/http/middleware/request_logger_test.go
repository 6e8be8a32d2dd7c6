package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method, route string
	status        int
}

type fakeRecorder struct {
	calls []recordedRequest
}

func (f *fakeRecorder) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	f.calls = append(f.calls, recordedRequest{method, route, status})
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, hook := logtest.NewNullLogger()
	rec := &fakeRecorder{}

	router := gin.New()
	router.Use(RequestLogger(logger, rec))
	router.GET("/habits/:habitId", func(c *gin.Context) {
		c.Set(ContextUserIDKey, "jdoe")
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/habits/abc", nil))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, recordedRequest{http.MethodGet, "/habits/:habitId", http.StatusNotFound}, rec.calls[0])

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "jdoe", entry.Data["user_id"])
	assert.Equal(t, "/habits/:habitId", entry.Data["route"])
}
