package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/datastore"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/aleister1102/releasewatch/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFetcher []models.FileRecord

func (f staticFetcher) FetchFiles(ctx context.Context) ([]models.FileRecord, error) {
	return f, nil
}

type recordingNotifier struct {
	newFiles [][]models.FileRecord
	digests  int
}

func (n *recordingNotifier) SendNewFiles(ctx context.Context, files []models.FileRecord) models.NotificationOutcome {
	n.newFiles = append(n.newFiles, files)
	return models.SentOutcome("test")
}

func (n *recordingNotifier) SendLogDigest(ctx context.Context) models.NotificationOutcome {
	n.digests++
	return models.SkippedOutcome("digest not due")
}

func newTestApp(t *testing.T, fetcher staticFetcher, now time.Time) (*App, *recordingNotifier) {
	t.Helper()
	cfg := config.NewDefaultGlobalConfig()
	store, err := datastore.NewSQLiteStore(filepath.Join(t.TempDir(), "releasewatch.db"), zerolog.Nop())
	require.NoError(t, err)

	n := &recordingNotifier{}
	a := NewWithComponents(cfg, zerolog.Nop(), Components{
		Fetcher:  fetcher,
		Store:    store,
		Notifier: n,
		Clock:    func() time.Time { return now },
	})
	t.Cleanup(func() { _ = a.Close() })
	return a, n
}

func TestApp_Run(t *testing.T) {
	now := time.Date(2024, time.October, 24, 9, 0, 0, 0, time.Local)
	a, n := newTestApp(t, staticFetcher{{Filename: "a.apk", URL: "https://example.com/a.apk", Date: "2024.10.24"}}, now)

	result := a.Run(context.Background())

	require.True(t, result.OK(), "%v", result.Err)
	assert.Len(t, n.newFiles, 1)
	assert.Equal(t, 1, n.digests)

	latest, err := a.Store().Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-10-24-09-00-00", latest.ScanDate)
}

func TestApp_RunFetchFailureStillSendsDigest(t *testing.T) {
	now := time.Date(2024, time.October, 26, 9, 0, 0, 0, time.Local)
	a, n := newTestApp(t, staticFetcher{}, now)

	result := a.Run(context.Background())

	assert.Equal(t, service.ErrorKindFetch, result.Kind)
	assert.Empty(t, n.newFiles)
	assert.Equal(t, 1, n.digests)
}

func TestApp_Prune(t *testing.T) {
	now := time.Date(2024, time.October, 24, 9, 0, 0, 0, time.Local)
	a, _ := newTestApp(t, staticFetcher{{Filename: "a.apk"}}, now)
	ctx := context.Background()

	old := models.NewSnapshot(now.AddDate(0, -3, 0), []models.FileRecord{{Filename: "old.apk"}})
	require.NoError(t, a.Store().Append(ctx, old))

	deleted, err := a.Prune(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, deleted, "not the first of the month")

	deleted, err = a.Prune(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func TestBootstrap(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "releasewatch-test")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
source_config:
  url: "https://sourceforge.net/projects/x/files/"
storage_config:
  backend: sqlite
  sqlite_path: "` + filepath.Join(dir, "db.sqlite") + `"
notification_config:
  backend: discord
  discord_new_files_webhook_url: "https://discord.com/api/webhooks/1/token"
log_config:
  log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	rt, err := Bootstrap(path)
	require.NoError(t, err)
	assert.Equal(t, config.NotifierBackendDiscord, rt.Config.NotificationConfig.Backend)

	rt.Logger.Info().Msg("bootstrap complete")
	assert.Equal(t, "bootstrap complete", rt.LogBuffer.LastMessage())
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "releasewatch-test")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage_config:\n  backend: mongodb\n"), 0644))

	_, err := Bootstrap(path)
	assert.Error(t, err)
}
