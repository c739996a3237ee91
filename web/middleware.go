package web

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"galpones/metrics"

	"github.com/google/uuid"
	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
	"golang.org/x/time/rate"
)

// SessionCookie names the cookie that ties a browser to its form panel
const SessionCookie = "session_id"

// CorsMiddleware handles CORS headers for cross-origin requests
func CorsMiddleware(c rweb.Context) error {
	c.Response().SetHeader("Access-Control-Allow-Origin", "*")
	c.Response().SetHeader("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	c.Response().SetHeader("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
	c.Response().SetHeader("Access-Control-Expose-Headers", "X-Panel-Outcome")

	// Handle preflight OPTIONS requests
	if c.Request().Method() == "OPTIONS" {
		c.SetStatus(http.StatusOK)
		return nil
	}

	return c.Next()
}

// SessionMiddleware makes sure every request carries a session id.
// Each session owns one barn form panel.
func SessionMiddleware(c rweb.Context) error {
	sessionID, err := c.GetCookie(SessionCookie)
	if err != nil || !validSessionID(sessionID) {
		sessionID = uuid.NewString()
		if err := c.SetCookie(SessionCookie, sessionID); err != nil {
			logger.LogErr(err, "failed to set session cookie")
		}
	}

	c.Set("session_id", sessionID)
	return c.Next()
}

// SecurityHeadersMiddleware adds security headers to responses
func SecurityHeadersMiddleware(c rweb.Context) error {
	c.Response().SetHeader("X-Content-Type-Options", "nosniff")
	c.Response().SetHeader("X-Frame-Options", "DENY")
	c.Response().SetHeader("X-XSS-Protection", "1; mode=block")
	c.Response().SetHeader("Referrer-Policy", "strict-origin-when-cross-origin")

	// Everything is served from our own origin; the panel markup uses inline handlers
	csp := []string{
		"default-src 'self'",
		"script-src 'self' 'unsafe-inline'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"connect-src 'self'",
	}
	c.Response().SetHeader("Content-Security-Policy", strings.Join(csp, "; "))

	return c.Next()
}

// RateLimitMiddleware throttles each client to requestsPerMinute, allowing
// bursts of up to a tenth of that.
func RateLimitMiddleware(requestsPerMinute int) rweb.Handler {
	if requestsPerMinute <= 0 {
		requestsPerMinute = RequestsPerMinute
	}
	limit := rate.Limit(float64(requestsPerMinute) / 60)
	burst := max(requestsPerMinute/10, 1)

	type visitor struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var mu sync.Mutex
	visitors := make(map[string]*visitor)

	return func(c rweb.Context) error {
		ip := c.Request().Header("X-Forwarded-For")
		if ip == "" {
			ip = c.Request().Header("X-Real-IP")
		}
		if ip == "" {
			ip = "unknown"
		}

		mu.Lock()
		// Clean up idle entries
		now := time.Now()
		for addr, v := range visitors {
			if now.Sub(v.lastSeen) > 3*time.Minute {
				delete(visitors, addr)
			}
		}

		v, exists := visitors[ip]
		if !exists {
			v = &visitor{limiter: rate.NewLimiter(limit, burst)}
			visitors[ip] = v
		}
		v.lastSeen = now
		allowed := v.limiter.Allow()
		mu.Unlock()

		if !allowed {
			logger.Info("Rate limit exceeded", "ip", ip, "path", c.Request().Path())
			c.SetStatus(http.StatusTooManyRequests)
			return nil
		}

		return c.Next()
	}
}

// LoggingMiddleware provides detailed request logging
func LoggingMiddleware(c rweb.Context) error {
	start := time.Now()

	logger.Debug("Request started",
		"method", c.Request().Method(),
		"path", c.Request().Path(),
		"ip", c.Request().Header("X-Forwarded-For"),
	)

	err := c.Next()

	logger.Debug("Request completed",
		"method", c.Request().Method(),
		"path", c.Request().Path(),
		"duration", time.Since(start),
		"error", err,
	)

	return err
}

// MetricsMiddleware counts and times every request by route template and
// response status. routeLabel must map any path onto a bounded set of values.
func MetricsMiddleware(m *metrics.Metrics, routeLabel func(path string) string) rweb.Handler {
	return func(c rweb.Context) error {
		start := time.Now()
		err := c.Next()
		m.ObserveRequest(c.Request().Method(), routeLabel(c.Request().Path()),
			responseStatus(c, err), time.Since(start))
		return err
	}
}

// responseStatus is the code the client will see. A handler error becomes a
// 500 unless the handler already chose an error status.
func responseStatus(c rweb.Context, err error) int {
	status := c.Response().Status()
	if status == 0 {
		status = http.StatusOK
	}
	if err != nil && status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	return status
}

// validSessionID accepts only ids this server could have issued
func validSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
