// Package metrics counts ingestion outcomes for the Prometheus endpoint of
// the watcher.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "apprepo"

// Outcome labels of the artifacts counter.
const (
	OutcomeIngested  = "ingested"
	OutcomeRejected  = "rejected"
	OutcomeNeglected = "neglected"
)

// Recorder holds the collectors of one process.
type Recorder struct {
	artifacts  *prometheus.CounterVec
	placements *prometheus.CounterVec
	collisions *prometheus.CounterVec
	rebuilds   *prometheus.HistogramVec
	signatures *prometheus.CounterVec
}

// NewRecorder registers the collectors with reg. A nil reg creates
// unregistered collectors.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		artifacts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_total",
			Help:      "Artifacts processed, partitioned by index and outcome.",
		}, []string{"index", "outcome"}),
		placements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "placements_total",
			Help:      "Artifacts placed by an indexer.",
		}, []string{"index", "indexer"}),
		collisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collisions_total",
			Help:      "Placements skipped because the destination already existed.",
		}, []string{"index", "indexer"}),
		rebuilds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of full metadata rebuilds.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"index", "indexer"}),
		signatures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resigned_packages_total",
			Help:      "Packages re-signed, partitioned by result.",
		}, []string{"result"}),
	}
}

// Artifact counts one processed upload.
func (r *Recorder) Artifact(index, outcome string) {
	if r == nil {
		return
	}
	r.artifacts.WithLabelValues(index, outcome).Inc()
}

// Placement counts one artifact placed by an indexer.
func (r *Recorder) Placement(index, indexer string) {
	if r == nil {
		return
	}
	r.placements.WithLabelValues(index, indexer).Inc()
}

// Collision counts one placement that found its destination occupied.
func (r *Recorder) Collision(index, indexer string) {
	if r == nil {
		return
	}
	r.collisions.WithLabelValues(index, indexer).Inc()
}

// Rebuild records the duration of a metadata rebuild in seconds.
func (r *Recorder) Rebuild(index, indexer string, seconds float64) {
	if r == nil {
		return
	}
	r.rebuilds.WithLabelValues(index, indexer).Observe(seconds)
}

// Resigned counts one re-signed package.
func (r *Recorder) Resigned(ok bool) {
	if r == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	r.signatures.WithLabelValues(result).Inc()
}
