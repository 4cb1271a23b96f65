package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "elearning_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Auth Metrics
	TokenRotationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "elearning_token_rotations_total",
			Help: "Access tokens reissued from a valid refresh token",
		},
	)

	AuthRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_auth_rejections_total",
			Help: "Requests rejected by the auth middleware",
		},
		[]string{"reason"},
	)

	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"result"},
	)

	VerificationCodesIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_verification_codes_issued_total",
			Help: "Verification codes issued by flow",
		},
		[]string{"flow"},
	)

	// Notification Metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_notifications_total",
			Help: "Outbound notifications by delivery status",
		},
		[]string{"status"},
	)

	// Cache Metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordTokenRotation records an access token minted from a refresh token
func RecordTokenRotation() {
	TokenRotationsTotal.Inc()
}

// RecordAuthRejection records a request denied by the auth middleware
func RecordAuthRejection(reason string) {
	AuthRejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordLogin records a login outcome
func RecordLogin(result string) {
	LoginAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordCodeIssued records a verification code issuance
func RecordCodeIssued(flow string) {
	VerificationCodesIssuedTotal.WithLabelValues(flow).Inc()
}

// RecordNotification records a notification delivery outcome
func RecordNotification(status string) {
	NotificationsTotal.WithLabelValues(status).Inc()
}

// RecordCacheAccess records cache hit or miss
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(cacheType).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(cacheType).Inc()
	}
}

// Middleware records request count and latency per route template.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !c.Response().Committed {
					status = 500
				}
			}

			endpoint := c.Path()
			if endpoint == "" {
				endpoint = "unmatched"
			}
			RecordHTTPRequest(c.Request().Method, endpoint, strconv.Itoa(status), time.Since(start).Seconds())
			return err
		}
	}
}
