package web

import (
	"galpones/metrics"
	"galpones/web/api"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
)

// RequestsPerMinute is the default per-client request budget
const RequestsPerMinute = 600

// Options configures the web server
type Options struct {
	Address string
	Verbose bool
	Metrics *metrics.Metrics // optional
	// RequestsPerMinute overrides the per-client budget when positive
	RequestsPerMinute int
}

// NewServer creates and configures the RWeb server
func NewServer(opts Options, handlers *api.BarnHandlers) *rweb.Server {
	s := rweb.NewServer(rweb.ServerOptions{
		Address: opts.Address,
		Verbose: opts.Verbose,
	})

	routes := newRouteTable(s)

	// Apply middleware
	s.Use(rweb.RequestInfo)                              // Logs request info
	s.Use(MetricsMiddleware(opts.Metrics, routes.label)) // Prometheus request metrics, throttled requests included
	s.Use(CorsMiddleware)                                // Custom CORS middleware
	s.Use(SessionMiddleware)                             // Session management
	s.Use(SecurityHeadersMiddleware)                     // Security headers
	s.Use(RateLimitMiddleware(opts.RequestsPerMinute))   // Per-client throttling
	s.Use(LoggingMiddleware)                             // Request logging

	setupRoutes(routes, handlers)

	// Serve static files using embedded FS
	setupStaticFiles(routes)

	return s
}

// Run starts the server
func Run(s *rweb.Server, address string) error {
	logger.Info("Galpones web server starting", "address", address)
	return s.Run()
}
