package source

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

type renderFunc func(ctx context.Context, pageURL string) (string, error)

// HeadlessFetcher renders the listing page in a headless Chrome before
// parsing it, for listings that are built client-side.
type HeadlessFetcher struct {
	cfg    config.SourceConfig
	logger zerolog.Logger
	now    func() time.Time
	render renderFunc
}

// NewHeadlessFetcher creates a fetcher backed by go-rod.
func NewHeadlessFetcher(cfg config.SourceConfig, logger zerolog.Logger) *HeadlessFetcher {
	hf := &HeadlessFetcher{
		cfg:    cfg,
		logger: logger.With().Str("module", "HeadlessFetcher").Logger(),
		now:    time.Now,
	}
	hf.render = hf.renderWithBrowser
	return hf
}

// FetchFiles implements Fetcher.
func (f *HeadlessFetcher) FetchFiles(ctx context.Context) ([]models.FileRecord, error) {
	base, err := url.Parse(f.cfg.URL)
	if err != nil {
		logFetchFailure(f.logger, FailureNetwork, f.cfg.URL, 0, err)
		return []models.FileRecord{}, nil
	}

	html, err := f.render(ctx, f.cfg.URL)
	if err != nil {
		logFetchFailure(f.logger, FailureNetwork, f.cfg.URL, 0, err)
		return []models.FileRecord{}, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		logFetchFailure(f.logger, FailureStructure, f.cfg.URL, 0, err)
		return []models.FileRecord{}, nil
	}

	files, err := ParseListing(doc.Selection, base, f.now(), f.logger)
	if err != nil {
		logFetchFailure(f.logger, FailureStructure, f.cfg.URL, 0, err)
		return []models.FileRecord{}, nil
	}

	f.logger.Info().Int("count", len(files)).Str("url", f.cfg.URL).Msg("Fetched rendered file listing")
	return files, nil
}

func (f *HeadlessFetcher) renderWithBrowser(ctx context.Context, pageURL string) (string, error) {
	l := launcher.New().
		Headless(true).
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("blink-settings", "imagesEnabled=false")
	if f.cfg.ChromePath != "" {
		l = l.Bin(f.cfg.ChromePath)
	}
	defer l.Cleanup()

	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return "", common.WrapError(err, "failed to launch browser")
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", common.WrapError(err, "failed to connect browser")
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			f.logger.Debug().Err(closeErr).Msg("Failed to close browser")
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return "", common.WrapErrorf(err, "failed to open %s", pageURL)
	}
	page = page.Timeout(requestTimeout(f.cfg))

	if err := page.WaitLoad(); err != nil {
		return "", common.WrapError(err, "page did not finish loading")
	}
	if f.cfg.HeadlessWaitSecs > 0 {
		if err := page.WaitStable(time.Duration(f.cfg.HeadlessWaitSecs) * time.Second); err != nil {
			f.logger.Debug().Err(err).Msg("Page did not stabilize, parsing current DOM")
		}
	}

	return page.HTML()
}
