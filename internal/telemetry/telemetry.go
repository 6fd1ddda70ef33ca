// Package telemetry provides Prometheus-based metrics collection for extraction and merge runs.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

//nolint:gochecknoglobals // Package-level registry and metrics required by Prometheus
var (
	registry *prometheus.Registry

	// MessagesRecorded counts message entries recorded during extraction,
	// by destination catalog path.
	MessagesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gettext_messages_recorded_total",
			Help: "Total number of message entries recorded during extraction",
		},
		[]string{"path"},
	)

	// CatalogsMerged counts catalogs considered by a merge run, by outcome.
	CatalogsMerged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gettext_catalogs_merged_total",
			Help: "Total number of catalogs considered by a merge run, by outcome",
		},
		[]string{"outcome"},
	)

	// FilesWritten counts catalog files written to disk.
	FilesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gettext_files_written_total",
			Help: "Total number of catalog files written to disk",
		},
	)
)

// ConfigureTelemetry initializes the telemetry registry and registers the provided collectors.
// If useDefaultRegistry is true, uses the default Prometheus registry; otherwise creates a new one.
func ConfigureTelemetry(useDefaultRegistry bool, collectors ...prometheus.Collector) {
	if useDefaultRegistry {
		var ok bool
		registry, ok = prometheus.DefaultRegisterer.(*prometheus.Registry)
		if !ok {
			registry = prometheus.NewRegistry()
		}
	} else {
		registry = prometheus.NewRegistry()
	}

	if len(collectors) > 0 {
		registry.MustRegister(collectors...)
	} else {
		registry.MustRegister(
			MessagesRecorded,
			CatalogsMerged,
			FilesWritten,
		)
	}
}

// GetHTTPHandler returns an HTTP handler for the prometheus metrics endpoint.
func GetHTTPHandler(opts promhttp.HandlerOpts) http.Handler {
	return promhttp.HandlerFor(
		registry,
		opts,
	)
}

// Summary gathers the registry and returns the current value of every
// counter, summed across label combinations and keyed by metric name.
// Returns nil when ConfigureTelemetry has not been called.
func Summary() map[string]float64 {
	if registry == nil {
		return nil
	}

	families, err := registry.Gather()
	if err != nil {
		return nil
	}

	totals := make(map[string]float64, len(families))
	for _, family := range families {
		if family.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, metric := range family.GetMetric() {
			totals[family.GetName()] += metric.GetCounter().GetValue()
		}
	}
	return totals
}
