package differ

import (
	"testing"

	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(names ...string) []models.FileRecord {
	files := make([]models.FileRecord, 0, len(names))
	for _, name := range names {
		files = append(files, models.FileRecord{Filename: name, URL: "https://example.com/" + name})
	}
	return files
}

func filenames(files []models.FileRecord) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Filename)
	}
	return names
}

func TestNewFiles(t *testing.T) {
	tests := []struct {
		name     string
		current  []models.FileRecord
		previous []models.FileRecord
		expected []string
	}{
		{
			name:     "first run reports everything",
			current:  records("XiaomiEUModule_2024.10.24.apk", "b.apk"),
			previous: nil,
			expected: []string{"XiaomiEUModule_2024.10.24.apk", "b.apk"},
		},
		{
			name:     "one new file",
			current:  records("b.apk", "a.apk"),
			previous: records("a.apk"),
			expected: []string{"b.apk"},
		},
		{
			name:     "removed files are not reported",
			current:  records("a.apk"),
			previous: records("a.apk", "gone.apk"),
			expected: []string{},
		},
		{
			name:     "order of current is preserved",
			current:  records("z.apk", "a.apk", "m.apk", "old.apk"),
			previous: records("old.apk"),
			expected: []string{"z.apk", "a.apk", "m.apk"},
		},
		{
			name:     "filenames are case sensitive",
			current:  records("A.apk"),
			previous: records("a.apk"),
			expected: []string{"A.apk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, filenames(NewFiles(tt.current, tt.previous)))
		})
	}
}

func TestNewFiles_IdentityIsFilenameOnly(t *testing.T) {
	current := []models.FileRecord{{Filename: "a.apk", URL: "https://mirror.example.com/a.apk", Date: "2024.01.01"}}
	previous := []models.FileRecord{{Filename: "a.apk", URL: "https://example.com/a.apk", Date: "2023.12.31"}}

	assert.Empty(t, NewFiles(current, previous))
}

func TestNewFiles_EqualSetsAreEmpty(t *testing.T) {
	files := records("a.apk", "b.apk")
	assert.Empty(t, NewFiles(files, records("b.apk", "a.apk")))
}

func TestRemovedFiles(t *testing.T) {
	assert.Equal(t, []string{"gone.apk"}, filenames(RemovedFiles(records("a.apk"), records("a.apk", "gone.apk"))))
}

func TestDiffListings(t *testing.T) {
	diff := DiffListings(records("a.apk", "gone.apk"), records("new.apk", "a.apk"))

	assert.False(t, diff.IsEmpty())
	assert.Equal(t, []string{"new.apk"}, diff.Added)
	assert.Equal(t, []string{"gone.apk"}, diff.Removed)
	require.Len(t, diff.Lines, 2)
	assert.Contains(t, diff.String(), "+ new.apk")
	assert.Contains(t, diff.String(), "- gone.apk")
}

func TestDiffListings_Identical(t *testing.T) {
	diff := DiffListings(records("b.apk", "a.apk"), records("a.apk", "b.apk"))
	assert.True(t, diff.IsEmpty())
	assert.Empty(t, diff.String())
}
