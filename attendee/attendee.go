// Package attendee tracks the proximity state of a single discovered peer.
//
// An Attendee is not safe for concurrent use. The owner serializes every call,
// including timer callbacks, which are handed to the executor supplied with
// WithExecutor before they touch any state.
package attendee

import (
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap/zapcore"

	"github.com/renaissanceio/renio/proximity"
	"github.com/renaissanceio/renio/radio"
)

// DefaultTimeout is how long an attendee stays live without a signal update.
const DefaultTimeout = 10 * time.Second

// Delegate is notified about state changes of the attendee.
type Delegate interface {
	RangeChanged(*Attendee)
	TimeoutExpired(*Attendee)
}

// IdentityState tracks two-phase discovery.
type IdentityState uint8

const (
	// Pending identity has to be read over a connection.
	Pending IdentityState = iota
	// Confirmed identity was carried in the sighting or read from the characteristic.
	Confirmed
)

func (s IdentityState) String() string {
	if s == Confirmed {
		return "confirmed"
	}
	return "pending"
}

// NormalizeIdentity returns the canonical form used for deduplication.
// Surrounding space and a leading "@" are removed and the result is lowercased.
func NormalizeIdentity(identity string) string {
	identity = strings.TrimSpace(identity)
	identity = strings.TrimPrefix(identity, "@")
	return strings.ToLower(strings.TrimSpace(identity))
}

type Opt func(*Attendee)

func WithClock(clock clockwork.Clock) Opt {
	return func(a *Attendee) {
		a.clock = clock
	}
}

func WithThresholds(thresholds proximity.Thresholds) Opt {
	return func(a *Attendee) {
		a.thresholds = thresholds
	}
}

func WithTimeout(timeout time.Duration) Opt {
	return func(a *Attendee) {
		a.timeout = timeout
	}
}

// WithExecutor sets the function that runs timer callbacks.
// By default callbacks run on the timer goroutine.
func WithExecutor(exec func(func())) Opt {
	return func(a *Attendee) {
		a.exec = exec
	}
}

// Attendee is a peer in the live set.
type Attendee struct {
	delegate   Delegate
	clock      clockwork.Clock
	thresholds proximity.Thresholds
	timeout    time.Duration
	exec       func(func())

	address    radio.Address
	identity   string
	state      IdentityState
	rssi       int
	rng        proximity.Range
	ranged     bool
	lastUpdate time.Time
	connecting bool
	connected  bool
	expired    bool

	timer      clockwork.Timer
	generation uint64
}

// New creates an attendee first seen at address. An empty identity leaves it pending.
func New(address radio.Address, identity string, delegate Delegate, opts ...Opt) *Attendee {
	a := &Attendee{
		delegate:   delegate,
		clock:      clockwork.NewRealClock(),
		thresholds: proximity.DefaultThresholds(),
		timeout:    DefaultTimeout,
		exec:       func(f func()) { f() },
		address:    address,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.Confirm(identity)
	a.lastUpdate = a.clock.Now()
	return a
}

// Confirm records the identity and moves the attendee to Confirmed.
// Returns false and leaves the state unchanged if the identity is empty once normalized.
func (a *Attendee) Confirm(identity string) bool {
	identity = NormalizeIdentity(identity)
	if identity == "" {
		return false
	}
	a.identity = identity
	a.state = Confirmed
	return true
}

// UpdateSignal records a reading, resets the age and restarts the expiry timer.
// The delegate is notified when the range changes, which includes the first reading.
// Readings for an expired attendee are ignored.
func (a *Attendee) UpdateSignal(rssi int) bool {
	if a.expired {
		return false
	}
	a.rssi = proximity.Clamp(rssi)
	rng := a.thresholds.Classify(a.rssi)
	changed := !a.ranged || rng != a.rng
	a.rng = rng
	a.ranged = true
	a.lastUpdate = a.clock.Now()
	a.StartTimer()
	if changed && a.delegate != nil {
		a.delegate.RangeChanged(a)
	}
	return changed
}

// StartTimer arms the expiry timer, replacing a running one.
func (a *Attendee) StartTimer() {
	if a.expired {
		return
	}
	a.CancelTimer()
	gen := a.generation
	a.timer = a.clock.AfterFunc(a.timeout, func() {
		a.exec(func() { a.fire(gen) })
	})
}

// CancelTimer releases the expiry timer. Safe to call at any time.
func (a *Attendee) CancelTimer() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.generation++
}

// TimerRunning is true while the expiry timer is armed.
func (a *Attendee) TimerRunning() bool {
	return a.timer != nil
}

func (a *Attendee) fire(gen uint64) {
	if gen != a.generation || a.timer == nil {
		return
	}
	a.timer = nil
	a.Expire()
}

// Expire moves the attendee to the terminal state and notifies the delegate.
// Only the first call has an effect.
func (a *Attendee) Expire() bool {
	if a.expired {
		return false
	}
	a.expired = true
	a.CancelTimer()
	if a.delegate != nil {
		a.delegate.TimeoutExpired(a)
	}
	return true
}

// Matches is true if both attendees have the same confirmed identity.
func (a *Attendee) Matches(other *Attendee) bool {
	return other != nil && a.state == Confirmed && other.state == Confirmed && a.identity == other.identity
}

// MatchesIdentity compares against an identity in any format.
func (a *Attendee) MatchesIdentity(identity string) bool {
	return a.state == Confirmed && a.identity == NormalizeIdentity(identity)
}

func (a *Attendee) Identity() string {
	return a.identity
}

func (a *Attendee) IdentityState() IdentityState {
	return a.state
}

func (a *Attendee) Address() radio.Address {
	return a.address
}

// SetAddress follows a peripheral that rotated its address.
func (a *Attendee) SetAddress(address radio.Address) {
	a.address = address
}

func (a *Attendee) RSSI() int {
	return a.rssi
}

func (a *Attendee) Range() proximity.Range {
	return a.rng
}

// Age is the time since the last signal update.
func (a *Attendee) Age() time.Duration {
	return a.clock.Since(a.lastUpdate)
}

func (a *Attendee) Expired() bool {
	return a.expired
}

func (a *Attendee) Connected() bool {
	return a.connected
}

func (a *Attendee) SetConnected(connected bool) {
	a.connected = connected
}

// Connecting is true while an attempt to read the identity is in flight.
func (a *Attendee) Connecting() bool {
	return a.connecting
}

func (a *Attendee) SetConnecting(connecting bool) {
	a.connecting = connecting
}

// Color is the presentation hint for the current range.
func (a *Attendee) Color() string {
	return a.rng.Color()
}

// Info returns a snapshot of the attendee.
func (a *Attendee) Info() Info {
	return Info{
		Identity:  a.identity,
		Address:   a.address,
		RSSI:      a.rssi,
		Range:     a.rng,
		Age:       a.Age(),
		Connected: a.connected,
		Pending:   a.state == Pending,
	}
}

// Info is a read-only view of an attendee.
type Info struct {
	Identity  string
	Address   radio.Address
	RSSI      int
	Range     proximity.Range
	Age       time.Duration
	Connected bool
	Pending   bool
}

func (i Info) Color() string {
	return i.Range.Color()
}

func (i Info) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("identity", i.Identity)
	encoder.AddString("address", string(i.Address))
	encoder.AddInt("rssi", i.RSSI)
	encoder.AddString("range", i.Range.String())
	encoder.AddDuration("age", i.Age)
	encoder.AddBool("connected", i.Connected)
	encoder.AddBool("pending", i.Pending)
	return nil
}
