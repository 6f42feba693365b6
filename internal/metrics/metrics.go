// Package metrics exposes Prometheus metrics for configuration loads.
//
// Recording functions are no-ops until InitMetrics is called, so library
// users that never serve /metrics pay nothing.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Load outcomes.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Skip reasons.
const (
	ReasonNoEnabledVersion = "no_enabled_version"
	ReasonPrefixMismatch   = "prefix_mismatch"
	ReasonNoMatch          = "no_match"
	ReasonKeyConflict      = "key_conflict"
)

var (
	loadTotal      *prometheus.CounterVec
	loadDuration   *prometheus.HistogramVec
	secretsSkipped *prometheus.CounterVec
	keysLoaded     *prometheus.GaugeVec
	lastReload     prometheus.Gauge

	metricsOnce       sync.Once
	metricsRegistered atomic.Bool
)

// InitMetrics registers all metrics with the default registry.
func InitMetrics() {
	metricsOnce.Do(func() {
		loadTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gsmconfig_load_total",
				Help: "Total number of provider loads",
			},
			[]string{"provider", "status"},
		)

		loadDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gsmconfig_load_duration_seconds",
				Help:    "Duration of provider loads in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"provider"},
		)

		secretsSkipped = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gsmconfig_secrets_skipped_total",
				Help: "Secrets listed but not loaded, by reason",
			},
			[]string{"provider", "reason"},
		)

		keysLoaded = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gsmconfig_keys_loaded",
				Help: "Number of configuration keys produced by the last load",
			},
			[]string{"provider"},
		)

		lastReload = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gsmconfig_last_reload_timestamp_seconds",
				Help: "Unix time of the last successful configuration build",
			},
		)

		metricsRegistered.Store(true)
	})
}

// RecordLoad records one provider load and its duration.
func RecordLoad(provider string, err error, d time.Duration) {
	if !metricsRegistered.Load() {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	loadTotal.WithLabelValues(provider, status).Inc()
	loadDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordSkipped counts a secret that was listed but produced no keys.
func RecordSkipped(provider, reason string) {
	if !metricsRegistered.Load() {
		return
	}
	secretsSkipped.WithLabelValues(provider, reason).Inc()
}

// SetKeysLoaded sets the key count of the last load of provider.
func SetKeysLoaded(provider string, n int) {
	if !metricsRegistered.Load() {
		return
	}
	keysLoaded.WithLabelValues(provider).Set(float64(n))
}

// RecordReload marks a successful tree build.
func RecordReload(at time.Time) {
	if !metricsRegistered.Load() {
		return
	}
	lastReload.Set(float64(at.Unix()))
}

// IsMetricsRegistered returns whether metrics have been initialized.
func IsMetricsRegistered() bool {
	return metricsRegistered.Load()
}
