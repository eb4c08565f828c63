package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fleetfaults/internal"
)

// Metrics holds ingestion collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	files    *prometheus.CounterVec
	rows     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	skipped  *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg gets a private registry.
func New(reg *prometheus.Registry) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleetfaults",
			Name:      "files_total",
			Help:      "Files ingested, by format and outcome.",
		}, []string{"format", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleetfaults",
			Name:      "rows_total",
			Help:      "Spreadsheet rows read, by format and outcome.",
		}, []string{"format", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fleetfaults",
			Name:      "file_duration_seconds",
			Help:      "Time to process one file.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"format"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleetfaults",
			Name:      "sheets_skipped_total",
			Help:      "Configured sheets missing from ingested workbooks.",
		}, []string{"format"}),
	}
	for _, c := range []prometheus.Collector{m.files, m.rows, m.duration, m.skipped} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveRun(rep *internal.ProcessingReport) {
	if m == nil || rep == nil {
		return
	}
	m.files.WithLabelValues(rep.FormatKey, "processed").Inc()
	m.rows.WithLabelValues(rep.FormatKey, "accepted").Add(float64(rep.AcceptedRows))
	m.rows.WithLabelValues(rep.FormatKey, "rejected").Add(float64(rep.RejectedRowCount))
	m.duration.WithLabelValues(rep.FormatKey).Observe(rep.ElapsedTime.Seconds())
	m.skipped.WithLabelValues(rep.FormatKey).Add(float64(len(rep.SkippedSheets)))
}

// ObserveFailure counts a file that produced no collection. formatKey may be empty.
func (m *Metrics) ObserveFailure(formatKey string) {
	if m == nil {
		return
	}
	if formatKey == "" {
		formatKey = "unknown"
	}
	m.files.WithLabelValues(formatKey, "failed").Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
