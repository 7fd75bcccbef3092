package records

import "github.com/renaissanceio/renio/metrics"

const namespace = "records"

var (
	recordsCount = metrics.NewGauge(
		"count",
		namespace,
		"number of attendee records",
		[]string{},
	).WithLabelValues()
	saveDuration = metrics.NewHistogramWithBuckets(
		"save_duration_seconds",
		namespace,
		"duration of writing records to disk",
		[]string{"outcome"},
		[]float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	)
	saveOk     = saveDuration.WithLabelValues("ok")
	saveFailed = saveDuration.WithLabelValues("failed")
)
