package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/renaissanceio/renio/radio"
)

var _ radio.Central = (*Central)(nil)

// Central is a simulated scanning radio.
type Central struct {
	medium *Medium

	mu       sync.Mutex
	state    radio.State
	nextFn   int
	stateFns map[int]func(radio.State)
	discFns  map[int]func(radio.Address)
	scan     func(radio.Sighting)
	service  uuid.UUID
	conns    map[*conn]struct{}
	reads    int
	peak     int
}

func (c *Central) State() radio.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState changes the power state. Leaving PoweredOn stops scanning and drops every link.
func (c *Central) SetState(state radio.State) {
	c.mu.Lock()
	if c.state == state {
		c.mu.Unlock()
		return
	}
	c.state = state
	var dropped []radio.Address
	if !state.Ready() {
		c.scan = nil
		for cn := range c.conns {
			cn.closeLocked()
			dropped = append(dropped, cn.addr)
		}
		clear(c.conns)
	}
	fns := collect(c.stateFns)
	disc := collect(c.discFns)
	c.mu.Unlock()

	for _, addr := range dropped {
		notify(disc, addr)
	}
	notify(fns, state)
}

func (c *Central) OnStateChange(fn func(radio.State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextFn
	c.nextFn++
	c.stateFns[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.stateFns, id)
	}
}

func (c *Central) OnDisconnect(fn func(radio.Address)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextFn
	c.nextFn++
	c.discFns[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.discFns, id)
	}
}

func (c *Central) Scan(service uuid.UUID, fn func(radio.Sighting)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Ready() {
		return errNotReady(c.state)
	}
	c.service = service
	c.scan = fn
	return nil
}

func (c *Central) StopScan() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scan = nil
}

// Scanning is true while a scan is registered.
func (c *Central) Scanning() bool {
	_, _, ok := c.scanning()
	return ok
}

func (c *Central) scanning() (uuid.UUID, func(radio.Sighting), bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scan == nil || !c.state.Ready() {
		return uuid.Nil, nil, false
	}
	return c.service, c.scan, true
}

func (c *Central) Connect(ctx context.Context, addr radio.Address) (radio.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if state := c.State(); !state.Ready() {
		return nil, errNotReady(state)
	}
	p, ok := c.medium.lookup(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", radio.ErrUnknownPeripheral, addr)
	}
	if err := p.accept(); err != nil {
		return nil, err
	}
	cn := &conn{central: c, peripheral: p, addr: addr}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Ready() {
		return nil, errNotReady(c.state)
	}
	c.conns[cn] = struct{}{}
	return cn, nil
}

// Connections is the number of open links.
func (c *Central) Connections() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.conns)
}

// Reads is the number of characteristic reads in progress.
func (c *Central) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// PeakReads is the highest number of concurrent reads seen so far.
func (c *Central) PeakReads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peak
}

func (c *Central) track(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads += delta
	c.peak = max(c.peak, c.reads)
}

func (c *Central) drop(addr radio.Address) {
	c.mu.Lock()
	found := false
	for cn := range c.conns {
		if cn.addr == addr {
			cn.closeLocked()
			delete(c.conns, cn)
			found = true
		}
	}
	fns := collect(c.discFns)
	c.mu.Unlock()
	if found {
		notify(fns, addr)
	}
}

func (c *Central) release(cn *conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.conns, cn)
}

type conn struct {
	central    *Central
	peripheral *Peripheral
	addr       radio.Address

	// guarded by central.mu
	closed bool
}

func (cn *conn) Address() radio.Address {
	return cn.addr
}

func (cn *conn) ReadCharacteristic(ctx context.Context, service, characteristic uuid.UUID) ([]byte, error) {
	cn.central.mu.Lock()
	closed := cn.closed
	cn.central.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("%w: link to %s closed", radio.ErrConnectFailed, cn.addr)
	}
	cn.central.track(1)
	defer cn.central.track(-1)
	return cn.peripheral.read(ctx, service, characteristic)
}

func (cn *conn) Close() error {
	cn.central.mu.Lock()
	cn.closeLocked()
	cn.central.mu.Unlock()
	cn.central.release(cn)
	return nil
}

func (cn *conn) closeLocked() {
	cn.closed = true
}
