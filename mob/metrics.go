package mob

import "github.com/renaissanceio/renio/metrics"

const namespace = "mob"

var (
	scoreAwarded = metrics.NewCounter(
		"score_awarded",
		namespace,
		"total score awarded to attendees in range",
		[]string{},
	).WithLabelValues()
	attendeesLeft = metrics.NewCounter(
		"attendees_left",
		namespace,
		"number of attendees that left the live set",
		[]string{},
	).WithLabelValues()
	connectFailures = metrics.NewCounter(
		"connect_failures",
		namespace,
		"failed identity reads",
		[]string{"final"},
	)
	connectRetries = connectFailures.WithLabelValues("false")
	connectGiveUps = connectFailures.WithLabelValues("true")
)
