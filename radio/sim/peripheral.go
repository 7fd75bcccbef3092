package sim

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/renaissanceio/renio/radio"
)

var _ radio.Peripheral = (*Peripheral)(nil)

// Peripheral is a simulated advertising radio.
type Peripheral struct {
	medium *Medium

	mu       sync.Mutex
	addr     radio.Address
	state    radio.State
	nextFn   int
	stateFns map[int]func(radio.State)
	adv      *radio.Advertisement
	rssi     int
	failures int
	latency  time.Duration
}

func (p *Peripheral) Address() radio.Address {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addr
}

func (p *Peripheral) State() radio.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetState changes the power state. Leaving PoweredOn drops the advertisement.
func (p *Peripheral) SetState(state radio.State) {
	p.mu.Lock()
	if p.state == state {
		p.mu.Unlock()
		return
	}
	p.state = state
	if !state.Ready() {
		p.adv = nil
	}
	fns := collect(p.stateFns)
	p.mu.Unlock()
	notify(fns, state)
}

func (p *Peripheral) OnStateChange(fn func(radio.State)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextFn
	p.nextFn++
	p.stateFns[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.stateFns, id)
	}
}

func (p *Peripheral) Advertise(adv radio.Advertisement) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.state.Ready() {
		return errNotReady(p.state)
	}
	adv.Characteristics = maps.Clone(adv.Characteristics)
	p.adv = &adv
	return nil
}

func (p *Peripheral) StopAdvertising() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.adv = nil
	return nil
}

// Advertisement returns the current advertisement, if any.
func (p *Peripheral) Advertisement() (radio.Advertisement, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.adv == nil {
		return radio.Advertisement{}, false
	}
	return *p.adv, true
}

// SetRSSI sets the signal strength every central observes.
func (p *Peripheral) SetRSSI(rssi int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rssi = rssi
}

func (p *Peripheral) RSSI() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rssi
}

// FailConnects makes the next n connect attempts fail with radio.ErrConnectFailed.
func (p *Peripheral) FailConnects(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = n
}

// SetLatency delays characteristic reads by d on the medium clock.
func (p *Peripheral) SetLatency(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latency = d
}

func (p *Peripheral) sighting(service uuid.UUID) (radio.Sighting, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.adv == nil || !p.state.Ready() || p.adv.Service != service {
		return radio.Sighting{}, false
	}
	return radio.Sighting{Address: p.addr, LocalName: p.adv.LocalName, RSSI: p.rssi}, true
}

func (p *Peripheral) accept() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.adv == nil || !p.state.Ready() {
		return fmt.Errorf("%w: %s not advertising", radio.ErrUnknownPeripheral, p.addr)
	}
	if p.failures > 0 {
		p.failures--
		return fmt.Errorf("%w: %s", radio.ErrConnectFailed, p.addr)
	}
	return nil
}

func (p *Peripheral) read(ctx context.Context, service, characteristic uuid.UUID) ([]byte, error) {
	p.mu.Lock()
	latency := p.latency
	p.mu.Unlock()
	if latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.medium.clock.After(latency):
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.adv == nil || p.adv.Service != service {
		return nil, fmt.Errorf("%w: %s", radio.ErrUnknownPeripheral, p.addr)
	}
	value, ok := p.adv.Characteristics[characteristic]
	if !ok {
		return nil, fmt.Errorf("%w: %s", radio.ErrNoCharacteristic, characteristic)
	}
	return bytes.Clone(value), nil
}
