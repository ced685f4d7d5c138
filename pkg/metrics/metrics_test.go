package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.Artifact("main-stable", OutcomeIngested)
	r.Artifact("main-stable", OutcomeIngested)
	r.Artifact("main-stable", OutcomeRejected)
	r.Placement("main-stable", "apt")
	r.Collision("main-stable", "yum")
	r.Resigned(true)
	r.Resigned(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.artifacts.WithLabelValues("main-stable", OutcomeIngested)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.artifacts.WithLabelValues("main-stable", OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.placements.WithLabelValues("main-stable", "apt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.collisions.WithLabelValues("main-stable", "yum")))

	expected := `
# HELP apprepo_resigned_packages_total Packages re-signed, partitioned by result.
# TYPE apprepo_resigned_packages_total counter
apprepo_resigned_packages_total{result="failure"} 1
apprepo_resigned_packages_total{result="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "apprepo_resigned_packages_total"))
}

func TestRecorder_Rebuild(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)
	r.Rebuild("main-stable", "apt", 0.5)
	assert.Equal(t, 1, testutil.CollectAndCount(r.rebuilds))
}

func TestRecorder_NilIsSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Artifact("a", OutcomeIngested)
		r.Placement("a", "apt")
		r.Collision("a", "apt")
		r.Rebuild("a", "apt", 1)
		r.Resigned(true)
	})
}
