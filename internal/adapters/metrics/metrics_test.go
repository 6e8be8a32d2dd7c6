package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCompletion(10, false)
	c.RecordCompletion(30, true)
	c.RecordCompletion(10, false)
	c.RecordAlreadyCompleted()
	c.RecordCompletionConflict()
	c.RecordXPGrant("habit_completion", 10)
	c.RecordXPGrant("habit_completion", 30)
	c.RecordXPGrant("referral", 20)
	c.RecordDailyNudge(true)
	c.RecordDailyNudge(false)
	c.RecordDailyNudge(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.completions.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.completions.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.alreadyCompleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.completionConflicts))
	assert.Equal(t, 40.0, testutil.ToFloat64(c.xpGranted.WithLabelValues("habit_completion")))
	assert.Equal(t, 20.0, testutil.ToFloat64(c.xpGranted.WithLabelValues("referral")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.dailyNudges.WithLabelValues("cached")))
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordHTTPRequest(http.MethodGet, "/api/v1/dashboard", http.StatusOK, 12*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), `habitnudge_http_requests_total{method="GET",route="/api/v1/dashboard",status_code="200"} 1`))
}
