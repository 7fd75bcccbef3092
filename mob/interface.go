package mob

import (
	"github.com/renaissanceio/renio/attendee"
	"github.com/renaissanceio/renio/records"
	"github.com/renaissanceio/renio/scanner"
)

type advertiser interface {
	Start(identity string) error
	Stop()
}

type discovery interface {
	Register(scanner.Observer)
	Start()
	Stop()
	RemoveOldAttendees() bool
	Updated() bool
	Attendees() []attendee.Info
	ConnectFailures() <-chan scanner.ConnectFailure
}

type scores interface {
	IncrementScoreByAmount(identity string, amount uint64) records.Record
	Top(n int) []records.Record
	Save() error
}
