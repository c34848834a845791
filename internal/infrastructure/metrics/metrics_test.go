package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/ping", "200"))
	ObserveRequest("GET", "/api/v1/ping", "200", 3*time.Millisecond)
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/ping", "200"))
	assert.Equal(t, before+1, after)
}

func TestNotificationAndJobCounters(t *testing.T) {
	NotificationHandled(NotificationDuplicate)
	assert.GreaterOrEqual(t, testutil.ToFloat64(notifications.WithLabelValues(NotificationDuplicate)), 1.0)

	JobRun("refresh_stats", true, time.Second)
	assert.GreaterOrEqual(t, testutil.ToFloat64(jobRuns.WithLabelValues("refresh_stats", "true")), 1.0)
}

func TestHandlerExposesRegistry(t *testing.T) {
	AssessmentTransition("verified")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "accessible_env_assessments_transitions_total"))
}
