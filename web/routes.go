package web

import (
	"strings"

	"galpones/web/api"

	"github.com/rohanthewiz/rweb"
)

// unmatchedRoute labels requests no registered route answers
const unmatchedRoute = "unmatched"

// routeTable registers handlers on the server and remembers their path
// templates so request metrics stay bounded to the routes we serve.
// Registration happens before the server starts; lookups are read-only.
type routeTable struct {
	s        *rweb.Server
	exact    map[string]struct{}
	prefixes []string // wildcard routes, stored without the trailing '*'
}

func newRouteTable(s *rweb.Server) *routeTable {
	return &routeTable{s: s, exact: make(map[string]struct{})}
}

func (rt *routeTable) get(path string, h rweb.Handler) {
	rt.s.Get(path, h)
	rt.add(path)
}

func (rt *routeTable) post(path string, h rweb.Handler) {
	rt.s.Post(path, h)
	rt.add(path)
}

func (rt *routeTable) add(path string) {
	if prefix, ok := strings.CutSuffix(path, "*"); ok {
		rt.prefixes = append(rt.prefixes, prefix)
		return
	}
	rt.exact[path] = struct{}{}
}

// label maps a request path to the template of the route serving it
func (rt *routeTable) label(path string) string {
	if _, ok := rt.exact[path]; ok {
		return path
	}
	for _, prefix := range rt.prefixes {
		if strings.HasPrefix(path, prefix) {
			return prefix + "*"
		}
	}
	return unmatchedRoute
}

// setupRoutes configures all application routes
func setupRoutes(rt *routeTable, h *api.BarnHandlers) {
	// Page routes - HTML responses
	rt.get("/", h.BarnsPage)
	rt.get("/barns/table", h.BarnTable)

	// Form panel actions - each answers with the re-rendered panel fragment
	rt.post("/barns/panel/open", h.OpenPanel)
	rt.post("/barns/panel/field", h.SetField)
	rt.post("/barns/panel/submit", h.Submit)
	rt.post("/barns/panel/delete", h.Delete)
	rt.post("/barns/panel/notification/dismiss", h.DismissNotification)
	rt.post("/barns/panel/close", h.ClosePanel)

	// API v1 routes - JSON responses
	rt.get("/api/v1/barns", h.ListBarns)

	// Health check and Prometheus scrape endpoints
	rt.get("/health", h.Health)
	rt.get("/metrics", h.Metrics)
}
