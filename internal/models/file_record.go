package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the display format of FileRecord.Date.
const DateLayout = "2006.01.02"

// FileRecord is one file entry discovered on the source listing page.
// Filename is the identity key: two records with the same filename are the
// same file regardless of URL or Date.
type FileRecord struct {
	Filename string `json:"filename" parquet:"filename"`
	URL      string `json:"url" parquet:"url"`
	Date     string `json:"date" parquet:"date"`
}

// Validate checks that the record can take part in diffing.
func (r FileRecord) Validate() error {
	if strings.TrimSpace(r.Filename) == "" {
		return fmt.Errorf("file record has an empty filename (url: %q)", r.URL)
	}
	return nil
}

// ExtractDate derives the YYYY.MM.DD date embedded at the end of a filename,
// e.g. "XiaomiEUModule_2024.10.24.apk" -> "2024.10.24". A name without "_"
// is parsed whole, so "2024.10.24.apk" works too. Month and day are
// zero-padded. When the token is missing, malformed or not a real calendar
// date, now is returned in the same format and ok is false.
func ExtractDate(filename string, now time.Time) (date string, ok bool) {
	fallback := now.Format(DateLayout)

	token := filename[strings.LastIndex(filename, "_")+1:]
	if dot := strings.LastIndex(token, "."); dot >= 0 {
		token = token[:dot]
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return fallback, false
	}
	year, month, day := parts[0], padTwo(parts[1]), padTwo(parts[2])

	if _, err := time.Parse("2006-01-02", fmt.Sprintf("%s-%s-%s", year, month, day)); err != nil {
		return fallback, false
	}
	return fmt.Sprintf("%s.%s.%s", year, month, day), true
}

func padTwo(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
