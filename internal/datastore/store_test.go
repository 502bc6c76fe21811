package datastore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "releasewatch.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func snapshotAt(at time.Time, names ...string) models.Snapshot {
	files := make([]models.FileRecord, 0, len(names))
	for _, name := range names {
		files = append(files, models.FileRecord{Filename: name, URL: "https://example.com/" + name, Date: "2024.10.24"})
	}
	return models.NewSnapshot(at, files)
}

func TestChunk(t *testing.T) {
	items := make([]int, 60)
	batches := chunk(items, PruneBatchSize)

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 25)
	assert.Len(t, batches[1], 25)
	assert.Len(t, batches[2], 10)
	assert.Empty(t, chunk([]int{}, PruneBatchSize))
}

func TestSQLiteStore_LatestEmpty(t *testing.T) {
	store := newTestSQLiteStore(t)

	latest, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.True(t, latest.IsEmpty())
	assert.Empty(t, latest.Filenames())
}

func TestSQLiteStore_AppendAndLatest(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2024, time.October, 24, 9, 0, 0, 0, time.Local)

	require.NoError(t, store.Append(ctx, snapshotAt(base, "a.apk")))
	require.NoError(t, store.Append(ctx, snapshotAt(base.Add(time.Hour), "b.apk", "a.apk")))

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-10-24-10-00-00", latest.ScanDate)
	require.Len(t, latest.Files, 2)
	assert.Equal(t, "b.apk", latest.Files[0].Filename, "source order is preserved")
	assert.Equal(t, "https://example.com/b.apk", latest.Files[0].URL)

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2024-10-24-09-00-00", all[1].ScanDate)
}

func TestSQLiteStore_DuplicateScanDate(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	at := time.Date(2024, time.October, 24, 9, 0, 0, 0, time.Local)

	require.NoError(t, store.Append(ctx, snapshotAt(at, "a.apk")))
	err := store.Append(ctx, snapshotAt(at, "b.apk"))
	assert.ErrorIs(t, err, ErrDuplicateScan)

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a.apk", latest.Files[0].Filename, "existing snapshot is not overwritten")
}

func TestSQLiteStore_PruneBefore(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	start := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.Local)

	// 60 old snapshots spread across three delete batches, plus 2 recent ones.
	for i := 0; i < 60; i++ {
		require.NoError(t, store.Append(ctx, snapshotAt(start.Add(time.Duration(i)*time.Minute), "old.apk")))
	}
	cutoff := start.AddDate(0, 0, 10)
	require.NoError(t, store.Append(ctx, snapshotAt(cutoff.AddDate(0, 0, 1), "new.apk")))
	require.NoError(t, store.Append(ctx, snapshotAt(cutoff.AddDate(0, 0, 2), "newer.apk")))

	deleted, err := store.PruneBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 60, deleted)

	remaining, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, remaining, 2)

	deleted, err = store.PruneBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestArchivingStore_PruneWritesParquet(t *testing.T) {
	inner := newTestSQLiteStore(t)
	archiveDir := filepath.Join(t.TempDir(), "archive")
	store := NewArchivingStore(inner, archiveDir, zerolog.Nop())
	ctx := context.Background()

	old := time.Date(2024, time.January, 1, 8, 0, 0, 0, time.Local)
	cutoff := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.Local)
	require.NoError(t, store.Append(ctx, snapshotAt(old, "a.apk", "b.apk")))
	require.NoError(t, store.Append(ctx, snapshotAt(cutoff.Add(time.Hour), "c.apk")))

	deleted, err := store.PruneBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	rows, err := ReadArchive(ArchivePath(archiveDir, cutoff))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ArchivedFile{ScanDate: "2024-01-01-08-00-00", Filename: "a.apk", URL: "https://example.com/a.apk", Date: "2024.10.24"}, rows[0])
	assert.Equal(t, "b.apk", rows[1].Filename)

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c.apk", latest.Files[0].Filename)
}

func TestArchivingStore_NothingToPrune(t *testing.T) {
	inner := newTestSQLiteStore(t)
	archiveDir := filepath.Join(t.TempDir(), "archive")
	store := NewArchivingStore(inner, archiveDir, zerolog.Nop())

	cutoff := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.Local)
	deleted, err := store.PruneBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.NoFileExists(t, ArchivePath(archiveDir, cutoff))
}

func TestArchivingStore_ArchiveFailureKeepsSnapshots(t *testing.T) {
	inner := newTestSQLiteStore(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	store := NewArchivingStore(inner, filepath.Join(blocker, "archive"), zerolog.Nop())
	ctx := context.Background()

	old := time.Date(2024, time.January, 1, 8, 0, 0, 0, time.Local)
	cutoff := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.Local)
	require.NoError(t, store.Append(ctx, snapshotAt(old, "a.apk")))

	deleted, err := store.PruneBefore(ctx, cutoff)
	assert.Error(t, err)
	assert.Zero(t, deleted)

	remaining, err := inner.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
