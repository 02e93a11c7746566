package ingest

import (
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"

	"github.com/klartext/klartext/internal/model"
)

// proxyFunc builds the transport's proxy selector. Explicit settings
// take precedence over the process environment, and NoProxy exempts
// matching hosts.
func proxyFunc(cfg model.HTTPConfig) func(*http.Request) (*url.URL, error) {
	if cfg.HTTPProxy == "" && cfg.HTTPSProxy == "" && cfg.NoProxy == "" {
		return http.ProxyFromEnvironment
	}

	selector := (&httpproxy.Config{
		HTTPProxy:  cfg.HTTPProxy,
		HTTPSProxy: cfg.HTTPSProxy,
		NoProxy:    cfg.NoProxy,
	}).ProxyFunc()

	return func(req *http.Request) (*url.URL, error) {
		return selector(req.URL)
	}
}
