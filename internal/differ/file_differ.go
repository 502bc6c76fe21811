package differ

import "github.com/aleister1102/releasewatch/internal/models"

// NewFiles returns the records of current whose filename is absent from
// previous, in current's order. Files only present in previous are ignored.
func NewFiles(current, previous []models.FileRecord) []models.FileRecord {
	known := make(map[string]struct{}, len(previous))
	for _, f := range previous {
		known[f.Filename] = struct{}{}
	}

	added := make([]models.FileRecord, 0)
	for _, f := range current {
		if _, ok := known[f.Filename]; ok {
			continue
		}
		added = append(added, f)
	}
	return added
}

// RemovedFiles returns the records of previous that no longer appear in
// current.
func RemovedFiles(current, previous []models.FileRecord) []models.FileRecord {
	return NewFiles(previous, current)
}
