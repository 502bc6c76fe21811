package source

import (
	"context"
	"fmt"
	"time"

	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/rs/zerolog"
)

// Failure classes attached to fetch failure logs.
const (
	FailureNetwork   = "network"
	FailureHTTP      = "http"
	FailureStructure = "structure"
)

// Fetcher retrieves the current file listing. An empty result with a nil
// error means the listing could not be obtained; the reason has already been
// logged.
type Fetcher interface {
	FetchFiles(ctx context.Context) ([]models.FileRecord, error)
}

// NewFetcher builds the fetcher selected by cfg.Render.
func NewFetcher(cfg config.SourceConfig, logger zerolog.Logger) (Fetcher, error) {
	switch cfg.Render {
	case "", config.RenderStatic:
		return NewStaticFetcher(cfg, logger), nil
	case config.RenderHeadless:
		return NewHeadlessFetcher(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown source render mode %q", cfg.Render)
	}
}

func requestTimeout(cfg config.SourceConfig) time.Duration {
	if cfg.RequestTimeoutSecs <= 0 {
		return time.Duration(config.DefaultSourceRequestTimeout) * time.Second
	}
	return time.Duration(cfg.RequestTimeoutSecs) * time.Second
}

func logFetchFailure(logger zerolog.Logger, failure, url string, status int, err error) {
	evt := logger.Error().Str("failure", failure).Str("url", url)
	if status > 0 {
		evt = evt.Int("status", status)
	}
	evt.Err(err).Msg("Failed to fetch file listing")
}
