package source

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/rs/zerolog"
)

// ListingSelector locates the file table on the listing page.
const ListingSelector = "table#files_list"

// ErrListingNotFound is returned when the page has no file table.
var ErrListingNotFound = errors.New("file listing table not found")

// ParseListing extracts file records from a parsed listing page. Rows without
// a filename are skipped. Relative links are resolved against base.
func ParseListing(root *goquery.Selection, base *url.URL, now time.Time, logger zerolog.Logger) ([]models.FileRecord, error) {
	table := root.Find(ListingSelector).First()
	if table.Length() == 0 {
		return nil, ErrListingNotFound
	}

	rows := table.Find("tbody").First().ChildrenFiltered("tr")
	files := make([]models.FileRecord, 0, rows.Length())

	rows.Each(func(_ int, row *goquery.Selection) {
		header := row.Find("th").First()
		if header.Length() == 0 {
			return
		}

		record := models.FileRecord{
			Filename: strings.TrimSpace(header.Find("span.name").First().Text()),
		}
		if err := record.Validate(); err != nil {
			logger.Debug().Msg("Skipping listing row without filename")
			return
		}

		if href, ok := header.Find("a").First().Attr("href"); ok {
			record.URL = resolveLink(base, strings.TrimSpace(href))
		}

		date, ok := models.ExtractDate(record.Filename, now)
		if !ok {
			logger.Warn().Str("filename", record.Filename).Str("date", date).Msg("Could not extract date from filename, using current date")
		}
		record.Date = date

		files = append(files, record)
	})

	return files, nil
}

func resolveLink(base *url.URL, href string) string {
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
