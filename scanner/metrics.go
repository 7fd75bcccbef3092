package scanner

import "github.com/renaissanceio/renio/metrics"

const namespace = "scanner"

// values of the expirations cause label
const (
	causeTimer    = "timer"
	causeSweep    = "sweep"
	causeReplaced = "replaced"
)

var (
	liveAttendees = metrics.NewGauge(
		"live_attendees",
		namespace,
		"number of attendees in the live set",
		[]string{},
	).WithLabelValues()
	sightings = metrics.NewCounter(
		"sightings",
		namespace,
		"number of advertisements received while scanning",
		[]string{"kind"},
	)
	sightingsNamed     = sightings.WithLabelValues("named")
	sightingsAnonymous = sightings.WithLabelValues("anonymous")
	sightingsMalformed = sightings.WithLabelValues("malformed")

	rangeChanges = metrics.NewCounter(
		"range_changes",
		namespace,
		"number of range bucket changes",
		[]string{},
	).WithLabelValues()
	merges = metrics.NewCounter(
		"address_merges",
		namespace,
		"number of attendees that were found under a new address",
		[]string{},
	).WithLabelValues()

	expirations = metrics.NewCounter(
		"expirations",
		namespace,
		"number of attendees removed from the live set",
		[]string{"cause"},
	)

	connects = metrics.NewCounter(
		"connects",
		namespace,
		"outcome of connect and read attempts",
		[]string{"outcome"},
	)
	connectSuccess   = connects.WithLabelValues("success")
	connectFailure   = connects.WithLabelValues("failure")
	connectMalformed = connects.WithLabelValues("malformed")
	connectCancelled = connects.WithLabelValues("cancelled")
	connectDropped   = connects.WithLabelValues("dropped")
)
