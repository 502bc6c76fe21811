package source

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// newTransport builds the HTTP transport used by the static fetcher.
func newTransport(cfg config.SourceConfig, logger zerolog.Logger) *http.Transport {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   requestTimeout(cfg),
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}

	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Warn().Err(err).Msg("Failed to configure HTTP/2, falling back to HTTP/1.1")
		} else {
			logger.Debug().Msg("HTTP/2 support enabled")
		}
	}

	return transport
}
