// Package sim is an in-memory broadcast medium.
//
// It is used by tests and by the conference floor demo. Every peripheral has a
// signal strength as seen by all centrals, connects can be made to fail, and
// power state can be cycled on either side.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/renaissanceio/renio/radio"
)

type Opt func(*Medium)

func WithLogger(logger *zap.Logger) Opt {
	return func(m *Medium) {
		m.logger = logger
	}
}

func WithClock(clock clockwork.Clock) Opt {
	return func(m *Medium) {
		m.clock = clock
	}
}

// Medium connects centrals and peripherals.
type Medium struct {
	logger *zap.Logger
	clock  clockwork.Clock

	mu          sync.Mutex
	centrals    []*Central
	peripherals map[radio.Address]*Peripheral
}

func New(opts ...Opt) *Medium {
	m := &Medium{
		logger:      zap.NewNop(),
		clock:       clockwork.NewRealClock(),
		peripherals: map[radio.Address]*Peripheral{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewCentral adds a powered on central.
func (m *Medium) NewCentral() *Central {
	c := &Central{
		medium:   m,
		state:    radio.StatePoweredOn,
		stateFns: map[int]func(radio.State){},
		discFns:  map[int]func(radio.Address){},
		conns:    map[*conn]struct{}{},
	}
	m.mu.Lock()
	m.centrals = append(m.centrals, c)
	m.mu.Unlock()
	return c
}

// NewPeripheral adds a powered on peripheral. An empty address is replaced with a random one.
func (m *Medium) NewPeripheral(addr radio.Address) *Peripheral {
	if addr == "" {
		addr = radio.Address(uuid.NewString())
	}
	p := &Peripheral{
		medium:   m,
		addr:     addr,
		state:    radio.StatePoweredOn,
		rssi:     -60,
		stateFns: map[int]func(radio.State){},
	}
	m.mu.Lock()
	m.peripherals[addr] = p
	m.mu.Unlock()
	return p
}

// Remove takes the peripheral off the air and drops its links.
func (m *Medium) Remove(p *Peripheral) {
	m.mu.Lock()
	delete(m.peripherals, p.Address())
	m.mu.Unlock()
	m.Disconnect(p.Address())
}

// Rotate moves the peripheral to a new address, as privacy address rotation does.
func (m *Medium) Rotate(p *Peripheral, addr radio.Address) {
	old := p.Address()
	m.mu.Lock()
	delete(m.peripherals, old)
	p.mu.Lock()
	p.addr = addr
	p.mu.Unlock()
	m.peripherals[addr] = p
	m.mu.Unlock()
	m.Disconnect(old)
}

// Disconnect drops every link to addr and notifies the centrals that held one.
func (m *Medium) Disconnect(addr radio.Address) {
	m.mu.Lock()
	centrals := append([]*Central(nil), m.centrals...)
	m.mu.Unlock()
	for _, c := range centrals {
		c.drop(addr)
	}
}

func (m *Medium) lookup(addr radio.Address) (*Peripheral, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.peripherals[addr]
	return p, ok
}

type delivery struct {
	fn       func(radio.Sighting)
	sighting radio.Sighting
}

// Broadcast delivers one sighting of every advertising peripheral to every scanning central.
// Callbacks run on the calling goroutine with no medium locks held.
func (m *Medium) Broadcast() int {
	m.mu.Lock()
	centrals := append([]*Central(nil), m.centrals...)
	peripherals := make([]*Peripheral, 0, len(m.peripherals))
	for _, p := range m.peripherals {
		peripherals = append(peripherals, p)
	}
	m.mu.Unlock()

	var pending []delivery
	for _, c := range centrals {
		service, fn, ok := c.scanning()
		if !ok {
			continue
		}
		for _, p := range peripherals {
			sighting, ok := p.sighting(service)
			if !ok {
				continue
			}
			pending = append(pending, delivery{fn: fn, sighting: sighting})
		}
	}
	for _, d := range pending {
		d.fn(d.sighting)
	}
	return len(pending)
}

// Run broadcasts every interval until ctx is done.
func (m *Medium) Run(ctx context.Context, interval time.Duration) error {
	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			if n := m.Broadcast(); n > 0 {
				m.logger.Debug("broadcast", zap.Int("sightings", n))
			}
		}
	}
}

func notify[T any](fns []func(T), v T) {
	for _, fn := range fns {
		fn(v)
	}
}

func collect[T any](m map[int]func(T)) []func(T) {
	rst := make([]func(T), 0, len(m))
	for _, fn := range m {
		rst = append(rst, fn)
	}
	return rst
}

func errNotReady(state radio.State) error {
	return fmt.Errorf("%w: %s", radio.ErrNotReady, state)
}
