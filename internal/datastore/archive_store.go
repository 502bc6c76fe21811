package datastore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

// ArchivedFile is one row of a snapshot archive.
type ArchivedFile struct {
	ScanDate string `parquet:"scan_date"`
	Filename string `parquet:"filename"`
	URL      string `parquet:"url"`
	Date     string `parquet:"date"`
}

// ArchivingStore copies snapshots into a Parquet file before the wrapped
// store prunes them.
type ArchivingStore struct {
	SnapshotStore
	archiveDir string
	logger     zerolog.Logger
}

// NewArchivingStore wraps inner so that PruneBefore archives to archiveDir.
func NewArchivingStore(inner SnapshotStore, archiveDir string, logger zerolog.Logger) *ArchivingStore {
	return &ArchivingStore{
		SnapshotStore: inner,
		archiveDir:    archiveDir,
		logger:        logger.With().Str("module", "ArchivingStore").Logger(),
	}
}

// PruneBefore archives the snapshots older than cutoff, then deletes them.
// Nothing is deleted when archiving fails.
func (s *ArchivingStore) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	snapshots, err := s.SnapshotStore.List(ctx, 0)
	if err != nil {
		return 0, common.WrapError(err, "failed to list snapshots for archiving")
	}

	cutoffKey := models.FormatScanDate(cutoff)
	var rows []ArchivedFile
	for _, snapshot := range snapshots {
		if snapshot.ScanDate >= cutoffKey {
			continue
		}
		for _, f := range snapshot.Files {
			rows = append(rows, ArchivedFile{ScanDate: snapshot.ScanDate, Filename: f.Filename, URL: f.URL, Date: f.Date})
		}
	}

	if len(rows) > 0 {
		path := ArchivePath(s.archiveDir, cutoff)
		if err := writeArchive(path, rows); err != nil {
			return 0, err
		}
		s.logger.Info().Str("path", path).Int("rows", len(rows)).Msg("Archived snapshots before pruning")
	}

	return s.SnapshotStore.PruneBefore(ctx, cutoff)
}

// ArchivePath returns the archive file written for a prune at cutoff.
func ArchivePath(archiveDir string, cutoff time.Time) string {
	return filepath.Join(archiveDir, "snapshots_"+models.FormatScanDate(cutoff)+".parquet")
}

func writeArchive(path string, rows []ArchivedFile) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return common.WrapError(err, "failed to create archive directory")
	}

	file, err := os.Create(path)
	if err != nil {
		return common.WrapError(err, "failed to create archive file: "+path)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = common.WrapError(closeErr, "failed to close archive file: "+path)
		}
	}()

	writer := parquet.NewGenericWriter[ArchivedFile](file, parquet.Compression(&parquet.Zstd))
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return common.WrapError(err, "failed to write archive rows")
	}
	if err := writer.Close(); err != nil {
		return common.WrapError(err, "failed to flush archive rows")
	}
	return file.Sync()
}

// ReadArchive loads every row of an archive file.
func ReadArchive(path string) ([]ArchivedFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, common.WrapError(err, "failed to open archive file: "+path)
	}
	defer file.Close()

	reader := parquet.NewGenericReader[ArchivedFile](file)
	defer reader.Close()

	rows := make([]ArchivedFile, 0, reader.NumRows())
	batch := make([]ArchivedFile, 100)
	for {
		n, err := reader.Read(batch)
		rows = append(rows, batch[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, common.WrapError(err, "failed to read archive rows")
		}
		if n == 0 {
			break
		}
	}
	return rows, nil
}
