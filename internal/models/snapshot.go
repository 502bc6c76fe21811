package models

import "time"

// ScanDateLayout is the sortable layout of Snapshot.ScanDate. Lexicographic
// order of formatted values equals chronological order.
const ScanDateLayout = "2006-01-02-15-04-05"

// Snapshot is the result of one fetch cycle. It is written once and never
// modified afterwards.
type Snapshot struct {
	ScanDate string       `json:"scan_date"`
	Files    []FileRecord `json:"files"`
}

// NewSnapshot stamps files with the scan date derived from at.
func NewSnapshot(at time.Time, files []FileRecord) Snapshot {
	return Snapshot{
		ScanDate: FormatScanDate(at),
		Files:    files,
	}
}

// FormatScanDate renders t as a scan date key.
func FormatScanDate(t time.Time) string {
	return t.Format(ScanDateLayout)
}

// ParseScanDate parses a scan date key in the local time zone.
func ParseScanDate(s string) (time.Time, error) {
	return time.ParseInLocation(ScanDateLayout, s, time.Local)
}

// IsEmpty reports whether the snapshot holds no files, which is also the
// state before the first scan.
func (s Snapshot) IsEmpty() bool {
	return len(s.Files) == 0
}

// Filenames returns the set of filenames in the snapshot.
func (s Snapshot) Filenames() map[string]struct{} {
	names := make(map[string]struct{}, len(s.Files))
	for _, f := range s.Files {
		names[f.Filename] = struct{}{}
	}
	return names
}
