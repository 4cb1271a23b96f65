package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("GET", "/ws/data/getCourses", "200", 0.05)

	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/ws/data/getCourses", "200")))
}

func TestRecordCounters(t *testing.T) {
	NotificationsTotal.Reset()
	VerificationCodesIssuedTotal.Reset()
	CacheHitsTotal.Reset()
	CacheMissesTotal.Reset()

	RecordNotification("sent")
	RecordNotification("failed")
	RecordNotification("sent")
	RecordCodeIssued("register")
	RecordCacheAccess("catalog", true)
	RecordCacheAccess("catalog", false)
	RecordCacheAccess("catalog", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(NotificationsTotal.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(NotificationsTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(VerificationCodesIssuedTotal.WithLabelValues("register")))
	assert.Equal(t, 1.0, testutil.ToFloat64(CacheHitsTotal.WithLabelValues("catalog")))
	assert.Equal(t, 2.0, testutil.ToFloat64(CacheMissesTotal.WithLabelValues("catalog")))
}

func TestMiddleware(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	e := echo.New()
	e.Use(Middleware())
	e.GET("/ws/data/getClasses/:routeId", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden, "nope")
	})

	for _, path := range []string{"/ws/data/getClasses/1", "/ws/data/getClasses/2", "/boom"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/ws/data/getClasses/:routeId", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/boom", "403")))
}
