// Package metrics exposes Prometheus instrumentation for the exporter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for report processing.
type Metrics struct {
	reportsAnalyzed  *prometheus.CounterVec
	linesParsed      prometheus.Counter
	linesSkipped     prometheus.Counter
	exportsGenerated prometheus.Counter
	analyzeDuration  prometheus.Histogram
}

// New registers and returns the exporter metrics.
func New() *Metrics {
	return &Metrics{
		reportsAnalyzed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "abc_reports_analyzed_total",
				Help: "Total number of uploaded reports analyzed",
			},
			[]string{"status"},
		),
		linesParsed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "abc_report_lines_parsed_total",
				Help: "Total number of product lines successfully parsed",
			},
		),
		linesSkipped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "abc_report_lines_skipped_total",
				Help: "Total number of report lines skipped as unrecognized",
			},
		),
		exportsGenerated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "abc_exports_generated_total",
				Help: "Total number of Excel exports generated",
			},
		),
		analyzeDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "abc_report_analyze_duration_seconds",
				Help:    "Time spent extracting and classifying one report",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// ReportAnalyzed records one analyze call with its outcome ("ok", "empty", "error").
func (m *Metrics) ReportAnalyzed(status string) {
	if m == nil {
		return
	}
	m.reportsAnalyzed.WithLabelValues(status).Inc()
}

// LinesProcessed records parsed and skipped line counts for one report.
func (m *Metrics) LinesProcessed(parsed, skipped int) {
	if m == nil {
		return
	}
	m.linesParsed.Add(float64(parsed))
	m.linesSkipped.Add(float64(skipped))
}

// ExportGenerated records one generated spreadsheet.
func (m *Metrics) ExportGenerated() {
	if m == nil {
		return
	}
	m.exportsGenerated.Inc()
}

// ObserveAnalyzeDuration records how long one analyze call took, in seconds.
func (m *Metrics) ObserveAnalyzeDuration(seconds float64) {
	if m == nil {
		return
	}
	m.analyzeDuration.Observe(seconds)
}
