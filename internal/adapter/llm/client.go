package llm

import (
	"net"
	"net/http"
	"time"

	"sparkdesk/internal/infra/config"
)

// NewHTTPClient builds a pooled HTTP client for provider calls. Streaming
// responses can stay open for minutes, so the response timeout applies to
// the overall client only when configured.
func NewHTTPClient(cfg config.ProviderConfig) *http.Client {
	connTimeout := cfg.ConnTimeout
	if connTimeout <= 0 {
		connTimeout = 10 * time.Second
	}

	pool := cfg.Pool
	if pool.MaxIdleConns <= 0 {
		pool.MaxIdleConns = 10
	}
	if pool.MaxIdleConnsPerHost <= 0 {
		pool.MaxIdleConnsPerHost = 5
	}
	if pool.IdleConnTimeout <= 0 {
		pool.IdleConnTimeout = 90 * time.Second
	}

	return &http.Client{
		Timeout: cfg.RespTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   connTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        pool.MaxIdleConns,
			MaxIdleConnsPerHost: pool.MaxIdleConnsPerHost,
			MaxConnsPerHost:     pool.MaxConnsPerHost,
			IdleConnTimeout:     pool.IdleConnTimeout,
			TLSHandshakeTimeout: connTimeout,
		},
	}
}
