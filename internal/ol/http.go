package ol

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// ErrInvalidProxy is returned by NewHTTPClient for a proxy URL without a host.
var ErrInvalidProxy = errors.New("invalid proxy url")

// HTTPConfig bounds catalog requests so a hung response cannot stall a screen forever.
type HTTPConfig struct {
	ConnectTimeout  time.Duration
	ResponseTimeout time.Duration // time to first response header
	TotalTimeout    time.Duration // connect + headers + body
	ProxyURL        string
}

// NewHTTPClient returns an http.Client with explicit connect and header timeouts.
// An unparsable proxy URL is reported and no proxy is used.
func NewHTTPClient(cfg HTTPConfig) (*http.Client, error) {
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
		ResponseHeaderTimeout: cfg.ResponseTimeout,
	}
	client := &http.Client{Transport: transport, Timeout: cfg.TotalTimeout}
	if cfg.ProxyURL == "" {
		return client, nil
	}
	u, err := url.Parse(cfg.ProxyURL)
	if err != nil || u.Host == "" {
		return client, fmt.Errorf("%w: %q", ErrInvalidProxy, cfg.ProxyURL)
	}
	transport.Proxy = http.ProxyURL(u)
	return client, nil
}
