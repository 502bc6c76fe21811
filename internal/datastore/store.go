package datastore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/models"
)

const (
	// RecordTypeScanResult is the partition value shared by every snapshot.
	RecordTypeScanResult = "SCAN_RESULT"
	// PruneBatchSize bounds the number of snapshots deleted per request.
	PruneBatchSize = 25
	// SQLTableName is the relational table holding snapshots.
	SQLTableName = "scan_results"
)

// ErrDuplicateScan is returned by Append when a snapshot with the same scan
// date is already stored.
var ErrDuplicateScan = errors.New("snapshot with this scan date already exists")

// SnapshotStore is append-only history of fetched listings, ordered by scan
// date.
type SnapshotStore interface {
	// Append persists a new snapshot.
	Append(ctx context.Context, snapshot models.Snapshot) error
	// Latest returns the newest snapshot, or an empty one when none exist.
	Latest(ctx context.Context) (models.Snapshot, error)
	// List returns up to limit snapshots, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]models.Snapshot, error)
	// PruneBefore deletes snapshots older than cutoff and reports how many.
	PruneBefore(ctx context.Context, cutoff time.Time) (int, error)
	Close() error
}

func encodeFiles(files []models.FileRecord) (string, error) {
	if files == nil {
		files = []models.FileRecord{}
	}
	data, err := json.Marshal(files)
	if err != nil {
		return "", common.WrapError(err, "failed to encode files")
	}
	return string(data), nil
}

func decodeFiles(data string) ([]models.FileRecord, error) {
	var files []models.FileRecord
	if err := json.Unmarshal([]byte(data), &files); err != nil {
		return nil, common.WrapError(err, "failed to decode files")
	}
	return files, nil
}

// chunk splits items into consecutive slices of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var batches [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
