package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractDate(t *testing.T) {
	now := time.Date(2026, 3, 7, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name     string
		filename string
		want     string
		wantOK   bool
	}{
		{name: "module apk", filename: "XiaomiEUModule_2024.10.24.apk", want: "2024.10.24", wantOK: true},
		{name: "pads month and day", filename: "mod_2024.1.5.zip", want: "2024.01.05", wantOK: true},
		{name: "uses last underscore", filename: "a_b_c_2023.12.31.apk", want: "2023.12.31", wantOK: true},
		{name: "no underscore parses whole name", filename: "2024.10.24.apk", want: "2024.10.24", wantOK: true},
		{name: "no date token", filename: "badname.apk", want: "2026.03.07", wantOK: false},
		{name: "two parts only", filename: "file_2024.10.apk", want: "2026.03.07", wantOK: false},
		{name: "not a calendar date", filename: "file_2024.02.30.apk", want: "2026.03.07", wantOK: false},
		{name: "month out of range", filename: "file_2024.13.01.apk", want: "2026.03.07", wantOK: false},
		{name: "letters", filename: "file_abcd.ef.gh.apk", want: "2026.03.07", wantOK: false},
		{name: "leap day", filename: "file_2024.02.29.apk", want: "2024.02.29", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractDate(tt.filename, now)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestFileRecord_Validate(t *testing.T) {
	assert.NoError(t, FileRecord{Filename: "file_2024.01.01.apk"}.Validate())
	assert.Error(t, FileRecord{Filename: "  ", URL: "https://example.com/x"}.Validate())
}

func TestSnapshot_Filenames(t *testing.T) {
	snap := NewSnapshot(time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local), []FileRecord{
		{Filename: "a.apk"},
		{Filename: "b.apk"},
		{Filename: "a.apk", URL: "other"},
	})

	assert.Equal(t, "2024-01-02-03-04-05", snap.ScanDate)
	assert.Len(t, snap.Filenames(), 2)
	assert.Contains(t, snap.Filenames(), "a.apk")
	assert.False(t, snap.IsEmpty())
	assert.True(t, Snapshot{}.IsEmpty())
}

func TestParseScanDate_RoundTrip(t *testing.T) {
	at := time.Date(2025, 11, 30, 23, 59, 1, 0, time.Local)
	parsed, err := ParseScanDate(FormatScanDate(at))
	assert.NoError(t, err)
	assert.True(t, at.Equal(parsed))
}

func TestNotificationOutcome_OK(t *testing.T) {
	assert.True(t, SentOutcome("ok").OK())
	assert.True(t, SkippedOutcome("not saturday").OK())
	assert.False(t, FailedOutcome("sender not verified").OK())
}
