package source

import (
	"context"
	"time"

	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

// StaticFetcher downloads the listing page with a colly collector and parses
// the server-rendered HTML.
type StaticFetcher struct {
	cfg    config.SourceConfig
	logger zerolog.Logger
	now    func() time.Time
}

// NewStaticFetcher creates a fetcher for cfg.URL.
func NewStaticFetcher(cfg config.SourceConfig, logger zerolog.Logger) *StaticFetcher {
	return &StaticFetcher{
		cfg:    cfg,
		logger: logger.With().Str("module", "StaticFetcher").Logger(),
		now:    time.Now,
	}
}

// FetchFiles implements Fetcher.
func (f *StaticFetcher) FetchFiles(ctx context.Context) ([]models.FileRecord, error) {
	var (
		files   []models.FileRecord
		found   bool
		failure string
	)

	collector := f.newCollector()

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			f.logger.Info().Str("url", r.URL.String()).Msg("Context cancelled, aborting request")
			r.Abort()
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		failure = FailureHTTP
		if r.StatusCode == 0 {
			failure = FailureNetwork
		}
		logFetchFailure(f.logger, failure, f.cfg.URL, r.StatusCode, err)
	})

	collector.OnHTML(ListingSelector, func(e *colly.HTMLElement) {
		if found {
			return
		}
		found = true

		parsed, err := ParseListing(e.DOM.Parent(), e.Request.URL, f.now(), f.logger)
		if err != nil {
			return
		}
		files = parsed
	})

	visitErr := collector.Visit(f.cfg.URL)

	switch {
	case failure != "":
		return []models.FileRecord{}, nil
	case ctx.Err() != nil:
		logFetchFailure(f.logger, FailureNetwork, f.cfg.URL, 0, ctx.Err())
		return []models.FileRecord{}, nil
	case visitErr != nil:
		logFetchFailure(f.logger, FailureNetwork, f.cfg.URL, 0, visitErr)
		return []models.FileRecord{}, nil
	case !found:
		logFetchFailure(f.logger, FailureStructure, f.cfg.URL, 0, ErrListingNotFound)
		return []models.FileRecord{}, nil
	}

	f.logger.Info().Int("count", len(files)).Str("url", f.cfg.URL).Msg("Fetched file listing")
	return files, nil
}

func (f *StaticFetcher) newCollector() *colly.Collector {
	userAgent := f.cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultSourceUserAgent
	}

	collector := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.MaxDepth(1),
		colly.IgnoreRobotsTxt(),
	)
	collector.SetRequestTimeout(requestTimeout(f.cfg))
	collector.WithTransport(newTransport(f.cfg, f.logger))
	return collector
}
