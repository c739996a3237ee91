package web

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/rweb"
)

// Embed static directory files
//
//go:embed all:static
var staticFiles embed.FS

const staticPrefix = "/static/"

// faviconSVG is a barn outline so no separate icon file is needed
const faviconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 500 500"><rect width="500" height="500" rx="40" fill="#b5651d"/><path d="M80 240 L250 110 L420 240 Z" fill="white" fill-opacity=".9"/><rect x="120" y="240" width="260" height="170" fill="white" fill-opacity=".8"/><rect x="215" y="300" width="70" height="110" fill="#b5651d"/></svg>`

// contentTypes covers every extension shipped under static/
var contentTypes = map[string]string{
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".json": "application/json",
	".svg":  "image/svg+xml",
	".png":  "image/png",
}

// setupStaticFiles serves the embedded css and js under /static/
func setupStaticFiles(rt *routeTable) {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logger.LogErr(err, "failed to get static subdirectory")
		return
	}

	rt.get("/favicon.ico", func(c rweb.Context) error {
		c.Response().SetHeader("Content-Type", "image/svg+xml")
		c.Response().SetHeader("Cache-Control", "public, max-age=86400")
		return c.Bytes([]byte(faviconSVG))
	})

	rt.get("/static/*", func(c rweb.Context) error {
		name, ok := staticName(c.Request().Path())
		if !ok {
			c.SetStatus(http.StatusNotFound)
			return nil
		}

		content, err := fs.ReadFile(staticFS, name)
		if err != nil {
			// Directories and missing files alike
			c.SetStatus(http.StatusNotFound)
			return nil
		}

		if contentType, known := contentTypes[path.Ext(name)]; known {
			c.Response().SetHeader("Content-Type", contentType)
		}
		c.Response().SetHeader("Cache-Control", cacheControl(c.Request().Query()))

		return c.Bytes(content)
	})
}

// staticName turns a request path into a name inside the static FS,
// rejecting anything that would climb out of it.
func staticName(requestPath string) (string, bool) {
	name := strings.TrimPrefix(requestPath, staticPrefix)
	if name == requestPath || name == "" {
		return "", false
	}
	if !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}

// cacheControl lets versioned asset URLs (?v=N) be cached for a year; the
// page bumps the version whenever an asset changes.
func cacheControl(query string) string {
	if strings.Contains(query, "v=") {
		return "public, max-age=31536000, immutable"
	}
	return "public, max-age=3600"
}
