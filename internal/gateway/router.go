package gateway

import (
	_ "embed"
	"net/http"
	"strconv"

	"github.com/nicekwell/postboard/internal/httpx"
)

//go:embed static/index.html
var indexHTML []byte

const HealthPath = "/gateway/healthz"

// Router is the external entry point: it answers the landing page and its own
// liveness probe, and hands every other path to Proxy untouched.
type Router struct {
	Proxy http.Handler
}

func (rt Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(indexHTML)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			_, _ = w.Write(indexHTML)
		}
		return
	case HealthPath:
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			httpx.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
			return
		}
	}

	if rt.Proxy == nil {
		httpx.WriteError(w, http.StatusBadGateway, "upstream not configured")
		return
	}
	rt.Proxy.ServeHTTP(w, r)
}
