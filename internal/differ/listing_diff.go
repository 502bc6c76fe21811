package differ

import (
	"sort"
	"strings"

	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ListingDiff is a line diff of two filename listings.
type ListingDiff struct {
	Added   []string
	Removed []string
	Lines   []string
}

// IsEmpty reports whether the listings hold the same filenames.
func (d ListingDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// String renders the changed lines as "+ name" / "- name".
func (d ListingDiff) String() string {
	return strings.Join(d.Lines, "\n")
}

// DiffListings compares the sorted filenames of two listings line by line.
func DiffListings(previous, current []models.FileRecord) ListingDiff {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(listingText(previous), listingText(current))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(chars1, chars2, false), lineArray)

	var result ListingDiff
	for _, diff := range diffs {
		for _, line := range strings.Split(strings.TrimSuffix(diff.Text, "\n"), "\n") {
			if line == "" {
				continue
			}
			switch diff.Type {
			case diffmatchpatch.DiffInsert:
				result.Added = append(result.Added, line)
				result.Lines = append(result.Lines, "+ "+line)
			case diffmatchpatch.DiffDelete:
				result.Removed = append(result.Removed, line)
				result.Lines = append(result.Lines, "- "+line)
			}
		}
	}
	return result
}

func listingText(files []models.FileRecord) string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Filename)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	return b.String()
}
