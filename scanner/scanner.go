// Package scanner discovers attendees advertising the service and tracks them while they are in range.
//
// Radio callbacks arrive on arbitrary goroutines. Every callback, including
// attendee timers, is serialized under the scanner lock and tagged with the
// session it was issued for, so callbacks from a stopped session do nothing.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/renaissanceio/renio/attendee"
	"github.com/renaissanceio/renio/radio"
)

// ErrMalformedIdentity is reported when the identity characteristic is empty or too long.
var ErrMalformedIdentity = errors.New("malformed identity")

// ConnectFailure is reported when the identity of a pending attendee could not be read.
type ConnectFailure struct {
	Address radio.Address
	Attempt int
	// Final is set when no more attempts will be made for this address.
	Final bool
	Err   error
}

// Observer is notified after the scanner lock is released.
type Observer interface {
	RangeChanged(attendee.Info)
	Expired(attendee.Info)
}

type Opt func(*Scanner)

func WithLogger(logger *zap.Logger) Opt {
	return func(s *Scanner) {
		s.logger = logger
	}
}

func WithConfig(cfg Config) Opt {
	return func(s *Scanner) {
		s.config = cfg
	}
}

func WithClock(clock clockwork.Clock) Opt {
	return func(s *Scanner) {
		s.clock = clock
	}
}

type eventKind uint8

const (
	rangeChanged eventKind = iota
	expired
)

type event struct {
	kind eventKind
	info attendee.Info
}

// Scanner owns the live set of attendees.
type Scanner struct {
	logger  *zap.Logger
	config  Config
	clock   clockwork.Clock
	central radio.Central

	sem      *semaphore.Weighted
	limiter  *rate.Limiter
	attempts *lru.Cache[radio.Address, int]
	failures chan ConnectFailure
	updated  atomic.Bool

	mu        sync.Mutex
	observers []Observer
	running   bool
	scanning  bool
	cause     string
	epoch     uint64
	ctx       context.Context
	cancel    context.CancelFunc
	eg        *errgroup.Group
	unsub     []func()

	byAddress  map[radio.Address]*attendee.Attendee
	byIdentity map[string]*attendee.Attendee
	inflight   map[*attendee.Attendee]*attempt
	conns      map[*attendee.Attendee]radio.Conn
	events     []event
}

func New(central radio.Central, opts ...Opt) (*Scanner, error) {
	s := &Scanner{
		logger:     zap.NewNop(),
		config:     DefaultConfig(),
		clock:      clockwork.NewRealClock(),
		central:    central,
		byAddress:  map[radio.Address]*attendee.Attendee{},
		byIdentity: map[string]*attendee.Attendee{},
		inflight:   map[*attendee.Attendee]*attempt{},
		conns:      map[*attendee.Attendee]radio.Conn{},
		cause:      causeTimer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("scanner config: %w", err)
	}
	attempts, err := lru.New[radio.Address, int](s.config.AttemptsCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create attempts cache: %w", err)
	}
	s.attempts = attempts
	s.sem = semaphore.NewWeighted(s.config.MaxConcurrentConnects)
	s.limiter = rate.NewLimiter(rate.Limit(s.config.ConnectRate), s.config.ConnectBurst)
	s.failures = make(chan ConnectFailure, s.config.FailuresBuffer)
	return s, nil
}

// Register adds an observer for range changes and expirations.
func (s *Scanner) Register(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Start begins a new discovery session with an empty live set.
// Scanning starts now if the radio is ready, otherwise once it reports ready.
func (s *Scanner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.epoch++
	epoch := s.epoch
	s.byAddress = map[radio.Address]*attendee.Attendee{}
	s.byIdentity = map[string]*attendee.Attendee{}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.eg = &errgroup.Group{}
	liveAttendees.Set(0)

	s.unsub = []func(){
		s.central.OnStateChange(func(state radio.State) {
			s.run(epoch, func() { s.onStateChange(epoch, state) })
		}),
		s.central.OnDisconnect(func(addr radio.Address) {
			s.run(epoch, func() { s.onDisconnect(addr) })
		}),
	}
	s.logger.Info("scanner started", zap.Inline(&s.config))
	s.scan(epoch)
}

// Stop halts scanning, cancels every timer and connect attempt and closes held connections.
// The live set is kept as it was for reading. Safe to call more than once.
func (s *Scanner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.epoch++
	if s.scanning {
		s.central.StopScan()
		s.scanning = false
	}
	for _, unsub := range s.unsub {
		if unsub != nil {
			unsub()
		}
	}
	s.unsub = nil
	s.cancel()
	for _, a := range s.byAddress {
		a.CancelTimer()
		a.SetConnecting(false)
		a.SetConnected(false)
	}
	conns := make([]radio.Conn, 0, len(s.conns))
	for a, conn := range s.conns {
		conns = append(conns, conn)
		delete(s.conns, a)
	}
	clear(s.inflight)
	s.events = nil
	eg := s.eg
	s.mu.Unlock()

	eg.Wait()
	for _, conn := range conns {
		s.closeConn(conn)
	}
	s.logger.Info("scanner stopped", zap.Int("attendees", len(s.Attendees())))
}

// Running is true between Start and Stop.
func (s *Scanner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Scanning is true while the radio delivers sightings.
func (s *Scanner) Scanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// Updated reports whether the live set changed since the last call.
func (s *Scanner) Updated() bool {
	return s.updated.Swap(false)
}

// ConnectFailures delivers failed identity reads. Failures are dropped when the channel is full.
func (s *Scanner) ConnectFailures() <-chan ConnectFailure {
	return s.failures
}

// Attendees returns a snapshot of the live set in no particular order.
func (s *Scanner) Attendees() []attendee.Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	rst := make([]attendee.Info, 0, len(s.byAddress))
	for _, a := range s.byAddress {
		rst = append(rst, a.Info())
	}
	return rst
}

// Lookup returns the live attendee with the identity in any format.
func (s *Scanner) Lookup(identity string) (attendee.Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byIdentity[attendee.NormalizeIdentity(identity)]
	if !ok {
		return attendee.Info{}, false
	}
	return a.Info(), true
}

// RemoveOldAttendees expires every attendee whose age exceeds the staleness bound.
// It covers attendees whose timers did not fire, for example after the process was suspended.
func (s *Scanner) RemoveOldAttendees() bool {
	removed := 0
	s.locked(func() {
		if !s.running {
			return
		}
		s.cause = causeSweep
		defer func() { s.cause = causeTimer }()
		for _, a := range s.live() {
			if a.Age() > s.config.Staleness && a.Expire() {
				removed++
			}
		}
	})
	if removed > 0 {
		s.logger.Debug("removed old attendees", zap.Int("count", removed))
	}
	return removed > 0
}

// locked runs f under the scanner lock and delivers the events it produced once the lock is released.
func (s *Scanner) locked(f func()) {
	s.mu.Lock()
	f()
	events := s.events
	s.events = nil
	observers := s.observers
	s.mu.Unlock()

	for _, ev := range events {
		for _, o := range observers {
			switch ev.kind {
			case rangeChanged:
				o.RangeChanged(ev.info)
			case expired:
				o.Expired(ev.info)
			}
		}
	}
}

// run is locked for callbacks of a session. It returns false if the session is over.
func (s *Scanner) run(epoch uint64, f func()) bool {
	ran := false
	s.locked(func() {
		if !s.running || s.epoch != epoch {
			return
		}
		ran = true
		f()
	})
	return ran
}

func (s *Scanner) live() []*attendee.Attendee {
	rst := make([]*attendee.Attendee, 0, len(s.byAddress))
	for _, a := range s.byAddress {
		rst = append(rst, a)
	}
	return rst
}

func (s *Scanner) isLive(a *attendee.Attendee) bool {
	return s.byAddress[a.Address()] == a
}

func (s *Scanner) scan(epoch uint64) {
	if s.scanning {
		return
	}
	if state := s.central.State(); !state.Ready() {
		s.logger.Info("radio not ready, scan queued", zap.Stringer("state", state))
		return
	}
	err := s.central.Scan(s.config.Service, func(sighting radio.Sighting) {
		s.run(epoch, func() { s.onSighting(epoch, sighting) })
	})
	switch {
	case errors.Is(err, radio.ErrNotReady):
		s.logger.Info("radio not ready, scan queued", zap.Error(err))
	case err != nil:
		s.logger.Warn("failed to start scan", zap.Error(err))
	default:
		s.scanning = true
		s.logger.Debug("scanning", zap.Stringer("service", s.config.Service))
	}
}

func (s *Scanner) onStateChange(epoch uint64, state radio.State) {
	s.logger.Debug("radio state", zap.Stringer("state", state))
	if state.Ready() {
		s.scan(epoch)
		return
	}
	if s.scanning {
		s.logger.Info("scan interrupted", zap.Stringer("state", state))
	}
	s.scanning = false
}

// onDisconnect matches links by the address they were opened to, which is not
// the current address of an attendee that rotated since.
func (s *Scanner) onDisconnect(addr radio.Address) {
	for a, conn := range s.conns {
		if conn.Address() != addr {
			continue
		}
		delete(s.conns, a)
		a.SetConnected(false)
		s.updated.Store(true)
		s.logger.Debug("attendee disconnected", zap.Inline(a.Info()), zap.Stringer("link", addr))
	}
}

func (s *Scanner) onSighting(epoch uint64, sighting radio.Sighting) {
	if sighting.Address == "" {
		sightingsMalformed.Inc()
		return
	}
	identity := attendee.NormalizeIdentity(sighting.LocalName)
	if len(identity) > s.config.MaxIdentityLength {
		sightingsMalformed.Inc()
		s.logger.Debug("identity too long", zap.Stringer("address", sighting.Address), zap.Int("length", len(identity)))
		return
	}
	a := s.byAddress[sighting.Address]
	if identity == "" {
		sightingsAnonymous.Inc()
		if a == nil {
			a = s.add(epoch, sighting.Address, "")
		}
	} else {
		sightingsNamed.Inc()
		a = s.resolve(epoch, a, sighting.Address, identity)
	}
	s.updated.Store(true)
	a.UpdateSignal(sighting.RSSI)
	if a.IdentityState() == attendee.Pending {
		s.connect(epoch, a)
	}
}

// resolve returns the attendee for a sighting that carries an identity.
// An identity already live under another address follows the new address.
func (s *Scanner) resolve(epoch uint64, a *attendee.Attendee, addr radio.Address, identity string) *attendee.Attendee {
	existing := s.byIdentity[identity]
	switch {
	case existing != nil && existing == a:
		return a
	case existing != nil:
		if a != nil {
			s.replace(a)
		}
		s.move(existing, addr)
		return existing
	case a == nil:
		return s.add(epoch, addr, identity)
	}
	if a.IdentityState() == attendee.Confirmed {
		delete(s.byIdentity, a.Identity())
	}
	a.Confirm(identity)
	s.byIdentity[identity] = a
	s.abort(a)
	return a
}

func (s *Scanner) add(epoch uint64, addr radio.Address, identity string) *attendee.Attendee {
	a := attendee.New(addr, identity, delegate{s},
		attendee.WithClock(s.clock),
		attendee.WithThresholds(s.config.Thresholds),
		attendee.WithTimeout(s.config.Staleness),
		attendee.WithExecutor(func(f func()) { s.run(epoch, f) }),
	)
	s.byAddress[addr] = a
	if a.IdentityState() == attendee.Confirmed {
		s.byIdentity[a.Identity()] = a
	}
	liveAttendees.Set(float64(len(s.byAddress)))
	s.logger.Debug("new attendee", zap.Stringer("address", addr), zap.String("identity", a.Identity()))
	return a
}

// move reindexes a live attendee under a new address.
func (s *Scanner) move(a *attendee.Attendee, addr radio.Address) {
	if a.Address() == addr {
		return
	}
	if s.isLive(a) {
		delete(s.byAddress, a.Address())
	}
	s.logger.Debug("attendee changed address",
		zap.String("identity", a.Identity()),
		zap.Stringer("from", a.Address()),
		zap.Stringer("to", addr),
	)
	a.SetAddress(addr)
	s.byAddress[addr] = a
	merges.Inc()
	liveAttendees.Set(float64(len(s.byAddress)))
}

// discard drops an attendee that turned out to be a duplicate without notifying observers.
func (s *Scanner) discard(a *attendee.Attendee) {
	a.CancelTimer()
	s.release(a)
	if s.isLive(a) {
		delete(s.byAddress, a.Address())
	}
	if a.IdentityState() == attendee.Confirmed && s.byIdentity[a.Identity()] == a {
		delete(s.byIdentity, a.Identity())
	}
	liveAttendees.Set(float64(len(s.byAddress)))
}

// release cancels the connect attempt and closes the connection of the attendee.
func (s *Scanner) release(a *attendee.Attendee) {
	s.abort(a)
	if conn, ok := s.conns[a]; ok {
		delete(s.conns, a)
		s.closeConn(conn)
	}
	a.SetConnected(false)
}

func (s *Scanner) abort(a *attendee.Attendee) {
	if at, ok := s.inflight[a]; ok {
		at.cancel()
		delete(s.inflight, a)
	}
	a.SetConnecting(false)
}

func (s *Scanner) remove(a *attendee.Attendee) {
	if !s.isLive(a) {
		return
	}
	info := a.Info()
	s.discard(a)
	s.updated.Store(true)
	expirations.WithLabelValues(s.cause).Inc()
	s.events = append(s.events, event{kind: expired, info: info})
	s.logger.Debug("attendee expired", zap.Inline(info), zap.String("cause", s.cause))
}

// replace drops an attendee whose address was taken over by another live identity.
// Only confirmed attendees were announced, so only they are reported as expired.
func (s *Scanner) replace(a *attendee.Attendee) {
	if a.IdentityState() != attendee.Confirmed {
		s.discard(a)
		return
	}
	s.cause = causeReplaced
	defer func() { s.cause = causeTimer }()
	s.remove(a)
}

type delegate struct {
	s *Scanner
}

func (d delegate) RangeChanged(a *attendee.Attendee) {
	d.s.updated.Store(true)
	rangeChanges.Inc()
	d.s.events = append(d.s.events, event{kind: rangeChanged, info: a.Info()})
}

func (d delegate) TimeoutExpired(a *attendee.Attendee) {
	d.s.remove(a)
}
