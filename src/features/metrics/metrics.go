package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"tonearm/src/features/importing"
	"tonearm/src/features/scanning"
)

// Recorder instruments scan passes and replace operations. It observes
// the scanning and importing services and exposes everything through a
// prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	scansTotal     *prometheus.CounterVec
	scanEntries    *prometheus.CounterVec
	scanDuration   prometheus.Histogram
	replaceResults *prometheus.CounterVec
}

// NewRecorder creates a recorder with a fresh registry, including the
// standard Go runtime collectors.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		registry: registry,
		scansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tonearm_scans_total",
			Help: "Completed scan passes by completion state.",
		}, []string{"completion"}),
		scanEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tonearm_scan_entries_total",
			Help: "Directory entry outcomes tallied across scan passes.",
		}, []string{"outcome"}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tonearm_scan_duration_seconds",
			Help:    "Wall time of one scan pass.",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		}),
		replaceResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tonearm_replace_results_total",
			Help: "Replace operation results by variant.",
		}, []string{"result"}),
	}
	registry.MustRegister(r.scansTotal, r.scanEntries, r.scanDuration, r.replaceResults)
	return r
}

// Registry returns the underlying prometheus registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ScanFinished implements scanning.OutcomeObserver.
func (r *Recorder) ScanFinished(collectionID string, outcome scanning.Outcome) {
	r.scansTotal.WithLabelValues(outcome.Completion.String()).Inc()
	r.scanDuration.Observe(outcome.Elapsed.Seconds())
	summary := outcome.Summary
	r.scanEntries.WithLabelValues("current").Add(float64(summary.Current))
	r.scanEntries.WithLabelValues("added").Add(float64(summary.Added))
	r.scanEntries.WithLabelValues("modified").Add(float64(summary.Modified))
	r.scanEntries.WithLabelValues("orphaned").Add(float64(summary.Orphaned))
	r.scanEntries.WithLabelValues("skipped").Add(float64(summary.Skipped))
}

// ReplaceFinished implements importing.ResultObserver.
func (r *Recorder) ReplaceFinished(collectionID string, result importing.ReplaceResult) {
	r.replaceResults.WithLabelValues(resultLabel(result)).Inc()
}

func resultLabel(result importing.ReplaceResult) string {
	switch result.(type) {
	case importing.ReplaceCreated:
		return "created"
	case importing.ReplaceUpdated:
		return "updated"
	case importing.ReplaceUnchanged:
		return "unchanged"
	case importing.ReplaceNotCreated:
		return "not_created"
	case importing.ReplaceAmbiguous:
		return "ambiguous"
	case importing.ReplaceIncompatibleFormat:
		return "incompatible_format"
	case importing.ReplaceIncompatibleVersion:
		return "incompatible_version"
	}
	return "unknown"
}
