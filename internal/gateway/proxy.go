package gateway

import (
	"errors"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/nicekwell/postboard/internal/httpx"
)

const defaultUpstreamTimeout = 5 * time.Second

// Proxy forwards requests verbatim to the API tier and relays the response
// unchanged. It never retries and never caches.
type Proxy struct {
	target *url.URL
	rp     *httputil.ReverseProxy
	logger *zap.Logger
}

func NewProxy(baseURL string, timeout time.Duration, logger *zap.Logger) (*Proxy, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invalid upstream base_url")
	}
	if timeout <= 0 {
		timeout = defaultUpstreamTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Proxy{target: u, logger: logger}

	rp := httputil.NewSingleHostReverseProxy(u)
	origDirector := rp.Director
	rp.Director = func(req *http.Request) {
		origDirector(req)
		// Keep the upstream host as Host header.
		req.Host = u.Host
	}
	rp.Transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
	}
	rp.ErrorHandler = p.upstreamError
	p.rp = rp
	return p, nil
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.rp.ServeHTTP(w, r)
}

func (p *Proxy) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Warn("upstream request failed",
		zap.String("upstream", p.target.Host),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	httpx.WriteError(w, http.StatusBadGateway, "upstream unavailable")
}
