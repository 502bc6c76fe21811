package app

import (
	"context"
	"time"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/aleister1102/releasewatch/internal/datastore"
	"github.com/aleister1102/releasewatch/internal/metrics"
	"github.com/aleister1102/releasewatch/internal/models"
	"github.com/aleister1102/releasewatch/internal/notifier"
	"github.com/aleister1102/releasewatch/internal/service"
	"github.com/aleister1102/releasewatch/internal/source"
	"github.com/rs/zerolog"
)

// App is a fully wired releasewatch instance.
type App struct {
	cfg     *config.GlobalConfig
	logger  zerolog.Logger
	store   datastore.SnapshotStore
	metrics *metrics.Recorder
	service *service.UpdateService
}

// Components lets callers replace the collaborators built from config.
type Components struct {
	Fetcher  source.Fetcher
	Store    datastore.SnapshotStore
	Notifier notifier.Notifier
	Clock    func() time.Time
}

// New builds every component selected by the configuration.
func New(ctx context.Context, rt *Runtime) (*App, error) {
	fetcher, err := source.NewFetcher(rt.Config.SourceConfig, rt.Logger)
	if err != nil {
		return nil, err
	}

	store, err := datastore.NewSnapshotStore(ctx, rt.Config, rt.Logger)
	if err != nil {
		return nil, err
	}

	n, err := notifier.NewNotifier(ctx, rt.Config, rt.LogBuffer, rt.Logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return NewWithComponents(rt.Config, rt.Logger, Components{Fetcher: fetcher, Store: store, Notifier: n}), nil
}

// NewWithComponents wires an App from already built collaborators.
func NewWithComponents(cfg *config.GlobalConfig, logger zerolog.Logger, c Components) *App {
	recorder := metrics.NewRecorder(cfg.MetricsConfig, logger)

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(recorder),
		service.WithRetentionDays(cfg.StorageConfig.RetentionDays),
		service.WithSourceURL(cfg.SourceConfig.URL),
	}
	if c.Clock != nil {
		opts = append(opts, service.WithClock(c.Clock))
	}

	return &App{
		cfg:     cfg,
		logger:  logger.With().Str("module", "App").Logger(),
		store:   c.Store,
		metrics: recorder,
		service: service.NewUpdateService(c.Fetcher, c.Store, c.Notifier, opts...),
	}
}

// Run performs a full scheduled invocation: the detection cycle, monthly
// pruning, the weekly log digest and a metrics push. Cycle failures are
// reported in the result, not as an error.
func (a *App) Run(ctx context.Context) service.CycleResult {
	result := a.service.RunDetectionCycle(ctx)
	a.logger.Debug().
		Str("run_id", result.RunID).
		Str("kind", result.Kind.String()).
		Int("fetched", result.Fetched).
		Int("new_files", len(result.NewFiles)).
		Dur("duration", result.Duration).
		Msg("Detection cycle finished")

	if _, err := a.service.PruneOldSnapshots(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Prune step failed")
	}

	a.service.SendLogDigest(ctx)

	common.LogResourceUsage(a.logger)

	if err := a.metrics.Push(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("Metrics push failed")
	}
	return result
}

// Check runs only the detection cycle.
func (a *App) Check(ctx context.Context) service.CycleResult {
	return a.service.RunDetectionCycle(ctx)
}

// Digest sends the log digest if it is due.
func (a *App) Digest(ctx context.Context) models.NotificationOutcome {
	return a.service.SendLogDigest(ctx)
}

// Prune applies retention. With force the first-of-month gate is skipped.
func (a *App) Prune(ctx context.Context, force bool) (int, error) {
	if force {
		return a.service.PruneNow(ctx)
	}
	return a.service.PruneOldSnapshots(ctx)
}

// Store exposes the snapshot store for read-only commands.
func (a *App) Store() datastore.SnapshotStore {
	return a.store
}

// Close releases the snapshot store.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
