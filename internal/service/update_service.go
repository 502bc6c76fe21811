package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/differ"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrEmptyListing is reported when the fetcher returned no files.
var ErrEmptyListing = errors.New("fetched listing is empty")

// Fetcher retrieves the current file listing.
type Fetcher interface {
	FetchFiles(ctx context.Context) ([]models.FileRecord, error)
}

// SnapshotStore is the snapshot history used by the service.
type SnapshotStore interface {
	Append(ctx context.Context, snapshot models.Snapshot) error
	Latest(ctx context.Context) (models.Snapshot, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Notifier delivers notifications.
type Notifier interface {
	SendNewFiles(ctx context.Context, files []models.FileRecord) models.NotificationOutcome
	SendLogDigest(ctx context.Context) models.NotificationOutcome
}

// MetricsRecorder receives cycle and prune observations.
type MetricsRecorder interface {
	ObserveCycle(kind string, duration time.Duration, fetched, newFiles int)
	ObservePrune(deleted int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveCycle(string, time.Duration, int, int) {}
func (noopMetrics) ObservePrune(int)                             {}

// Option configures an UpdateService.
type Option func(*UpdateService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *UpdateService) { s.now = now }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *UpdateService) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *UpdateService) { s.logger = logger.With().Str("module", "UpdateService").Logger() }
}

// WithRetentionDays sets how long snapshots are kept.
func WithRetentionDays(days int) Option {
	return func(s *UpdateService) {
		if days > 0 {
			s.retentionDays = days
		}
	}
}

// WithSourceURL names the listing URL in fetch failure logs.
func WithSourceURL(url string) Option {
	return func(s *UpdateService) { s.sourceURL = url }
}

// UpdateService runs the fetch, persist, diff and notify cycle.
type UpdateService struct {
	fetcher       Fetcher
	store         SnapshotStore
	notifier      Notifier
	metrics       MetricsRecorder
	logger        zerolog.Logger
	now           func() time.Time
	retentionDays int
	sourceURL     string
}

// NewUpdateService wires the service from its collaborators.
func NewUpdateService(fetcher Fetcher, store SnapshotStore, notifier Notifier, opts ...Option) *UpdateService {
	s := &UpdateService{
		fetcher:       fetcher,
		store:         store,
		notifier:      notifier,
		metrics:       noopMetrics{},
		logger:        zerolog.Nop(),
		now:           time.Now,
		retentionDays: config.DefaultStorageRetentionDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunDetectionCycle performs one detection cycle. It never panics; every
// failure is reported through the returned result.
func (s *UpdateService) RunDetectionCycle(ctx context.Context) (result CycleResult) {
	start := s.now()
	result.RunID = uuid.NewString()
	logger := s.logger.With().Str("run_id", result.RunID).Logger()

	defer func() {
		if r := recover(); r != nil {
			result.Kind = ErrorKindInternal
			result.Err = fmt.Errorf("panic during detection cycle: %v", r)
			logger.Error().Str("stack", string(debug.Stack())).Err(result.Err).Msg("Detection cycle panicked")
		}
		result.Duration = s.now().Sub(start)
		s.metrics.ObserveCycle(result.Kind.String(), result.Duration, result.Fetched, len(result.NewFiles))
	}()

	s.runCycle(ctx, logger, &result)
	return result
}

func (s *UpdateService) runCycle(ctx context.Context, logger zerolog.Logger, result *CycleResult) {
	previous, err := s.store.Latest(ctx)
	if err != nil {
		s.fail(logger, result, ErrorKindStore, fmt.Errorf("failed to load latest snapshot: %w", err))
		return
	}
	if previousAt, err := models.ParseScanDate(previous.ScanDate); err == nil {
		logger.Debug().Str("previous_scan_date", previous.ScanDate).Dur("previous_age", s.now().Sub(previousAt)).Int("previous_files", len(previous.Files)).Msg("Loaded previous snapshot")
	}

	current, err := s.fetcher.FetchFiles(ctx)
	if err == nil && len(current) == 0 {
		err = ErrEmptyListing
	}
	if err != nil {
		logger.Error().Str("url", s.sourceURL).Err(err).Msg("Fetch failed, aborting cycle")
		result.Kind = ErrorKindFetch
		result.Err = err
		return
	}
	result.Fetched = len(current)

	snapshot := models.NewSnapshot(s.now(), current)
	if err := s.store.Append(ctx, snapshot); err != nil {
		s.fail(logger, result, ErrorKindStore, fmt.Errorf("failed to save snapshot %s: %w", snapshot.ScanDate, err))
		return
	}
	result.Snapshot = snapshot

	result.NewFiles = differ.NewFiles(current, previous.Files)
	result.Removed = differ.RemovedFiles(current, previous.Files)
	for _, f := range result.Removed {
		logger.Debug().Str("filename", f.Filename).Msg("File no longer listed")
	}
	if len(result.NewFiles) == 0 {
		result.Kind = ErrorKindNone
		logger.Info().Int("fetched", result.Fetched).Msg("No new files found")
		return
	}

	for _, f := range result.NewFiles {
		logger.Info().Str("filename", f.Filename).Str("url", f.URL).Str("date", f.Date).Msg("New file detected")
	}

	outcome := s.notifier.SendNewFiles(ctx, result.NewFiles)
	if !outcome.OK() {
		s.fail(logger, result, ErrorKindNotify, fmt.Errorf("new files notification failed: %s", outcome.Reason))
		return
	}

	result.Kind = ErrorKindNone
	logger.Info().Int("fetched", result.Fetched).Msgf("Found %d new files", len(result.NewFiles))
}

func (s *UpdateService) fail(logger zerolog.Logger, result *CycleResult, kind ErrorKind, err error) {
	result.Kind = kind
	result.Err = err
	logger.Error().Str("kind", kind.String()).Err(err).Msg("Detection cycle failed")
}

// SendLogDigest sends the run-log digest when it is due.
func (s *UpdateService) SendLogDigest(ctx context.Context) models.NotificationOutcome {
	outcome := s.notifier.SendLogDigest(ctx)
	switch {
	case outcome.Sent:
		s.logger.Debug().Msg("Log digest sent")
	case outcome.Skipped:
		s.logger.Debug().Str("reason", outcome.Reason).Msg("Log digest skipped")
	default:
		s.logger.Error().Str("reason", outcome.Reason).Msg("Log digest failed")
	}
	return outcome
}

// PruneOldSnapshots deletes snapshots past retention. It only acts on the
// first day of the month.
func (s *UpdateService) PruneOldSnapshots(ctx context.Context) (int, error) {
	if s.now().Day() != 1 {
		s.logger.Debug().Msg("Not the first day of the month, skipping prune")
		return 0, nil
	}
	return s.PruneNow(ctx)
}

// PruneNow deletes snapshots past retention regardless of the date.
func (s *UpdateService) PruneNow(ctx context.Context) (int, error) {
	cutoff := s.now().AddDate(0, 0, -s.retentionDays)
	deleted, err := s.store.PruneBefore(ctx, cutoff)
	s.metrics.ObservePrune(deleted)
	if err != nil {
		s.logger.Error().Err(err).Int("deleted", deleted).Msg("Failed to prune old snapshots")
		return deleted, err
	}
	s.logger.Info().Int("deleted", deleted).Str("cutoff", models.FormatScanDate(cutoff)).Msg("Pruned old snapshots")
	return deleted, nil
}
