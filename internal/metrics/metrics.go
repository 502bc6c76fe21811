package metrics

import (
	"context"
	"time"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog"
)

// Recorder collects per-run metrics in its own registry so they can be
// pushed to a Pushgateway when the run ends.
type Recorder struct {
	registry *prometheus.Registry
	cfg      config.MetricsConfig
	logger   zerolog.Logger
	now      func() time.Time

	cycleDuration  prometheus.Gauge
	filesFetched   prometheus.Gauge
	newFilesTotal  prometheus.Counter
	cycleFailures  *prometheus.CounterVec
	lastSuccess    prometheus.Gauge
	prunedSnapshot prometheus.Counter
}

// NewRecorder registers the releasewatch metrics on a fresh registry.
func NewRecorder(cfg config.MetricsConfig, logger zerolog.Logger) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		cfg:      cfg,
		logger:   logger.With().Str("module", "Metrics").Logger(),
		now:      time.Now,

		cycleDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "releasewatch_cycle_duration_seconds",
			Help: "Duration of the last detection cycle in seconds",
		}),
		filesFetched: factory.NewGauge(prometheus.GaugeOpts{
			Name: "releasewatch_files_fetched",
			Help: "Number of files in the last fetched listing",
		}),
		newFilesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "releasewatch_new_files_total",
			Help: "Number of new files detected",
		}),
		cycleFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "releasewatch_cycle_failures_total",
			Help: "Number of failed detection cycles by failure kind",
		}, []string{"kind"}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "releasewatch_last_success_timestamp_seconds",
			Help: "Unix time of the last successful detection cycle",
		}),
		prunedSnapshot: factory.NewCounter(prometheus.CounterOpts{
			Name: "releasewatch_pruned_snapshots_total",
			Help: "Number of snapshots deleted by retention",
		}),
	}
}

// ObserveCycle records the outcome of one detection cycle. kind is "none"
// for a successful cycle.
func (r *Recorder) ObserveCycle(kind string, duration time.Duration, fetched, newFiles int) {
	r.cycleDuration.Set(duration.Seconds())
	r.filesFetched.Set(float64(fetched))
	r.newFilesTotal.Add(float64(newFiles))

	if kind == "none" {
		r.lastSuccess.Set(float64(r.now().Unix()))
		return
	}
	r.cycleFailures.WithLabelValues(kind).Inc()
}

// ObservePrune records deleted snapshots.
func (r *Recorder) ObservePrune(deleted int) {
	r.prunedSnapshot.Add(float64(deleted))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Push sends the collected metrics to the configured Pushgateway. It is a
// no-op when no gateway is configured.
func (r *Recorder) Push(ctx context.Context) error {
	if r.cfg.PushgatewayURL == "" {
		return nil
	}

	job := r.cfg.JobName
	if job == "" {
		job = config.DefaultMetricsJobName
	}

	if err := push.New(r.cfg.PushgatewayURL, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return common.WrapError(err, "failed to push metrics")
	}
	r.logger.Debug().Str("pushgateway", r.cfg.PushgatewayURL).Str("job", job).Msg("Metrics pushed")
	return nil
}
