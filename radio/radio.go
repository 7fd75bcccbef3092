// Package radio describes the short-range broadcast medium used for attendee discovery.
//
// A Central scans for advertisements and connects to peripherals, a Peripheral
// publishes an advertisement with a readable characteristic. Implementations deliver
// callbacks on their own goroutines; consumers are expected to marshal them onto
// their own context.
package radio

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

//go:generate mockgen -package=mocks -destination=./mocks/mocks.go -source=./radio.go

var (
	// ServiceID is advertised by every attendee.
	ServiceID = uuid.MustParse("6e9a3c1d-52f4-4b8e-9d07-3f1a2b4c5d6e")
	// IdentityCharacteristic carries the attendee identity under ServiceID.
	IdentityCharacteristic = uuid.MustParse("6e9a3c1e-52f4-4b8e-9d07-3f1a2b4c5d6e")
)

var (
	// ErrNotReady is returned when the radio is not powered on.
	ErrNotReady = errors.New("radio not ready")
	// ErrUnknownPeripheral is returned when connecting to an address that is not in range.
	ErrUnknownPeripheral = errors.New("unknown peripheral")
	// ErrConnectFailed is returned when the link could not be established.
	ErrConnectFailed = errors.New("connect failed")
	// ErrNoCharacteristic is returned when the requested characteristic is not published.
	ErrNoCharacteristic = errors.New("characteristic not found")
)

// State of the radio capability.
type State uint8

const (
	StateUnknown State = iota
	StateResetting
	StateUnsupported
	StateUnauthorized
	StatePoweredOff
	StatePoweredOn
)

// Ready is true only when the radio can scan and advertise.
func (s State) Ready() bool {
	return s == StatePoweredOn
}

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateResetting:
		return "resetting"
	case StateUnsupported:
		return "unsupported"
	case StateUnauthorized:
		return "unauthorized"
	case StatePoweredOff:
		return "powered-off"
	case StatePoweredOn:
		return "powered-on"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Address identifies a remote peripheral for the lifetime of its advertisement.
// It is opaque and may rotate for the same attendee.
type Address string

func (a Address) String() string {
	return string(a)
}

// Sighting is a single advertisement received while scanning.
type Sighting struct {
	Address Address
	// LocalName carries the identity when the peripheral embeds it, empty otherwise.
	LocalName string
	RSSI      int
}

// Advertisement is published by a Peripheral.
type Advertisement struct {
	Service   uuid.UUID
	LocalName string
	// Characteristics are read-only values published under Service.
	Characteristics map[uuid.UUID][]byte
}

// Conn is an established link to a peripheral.
type Conn interface {
	Address() Address
	ReadCharacteristic(ctx context.Context, service, characteristic uuid.UUID) ([]byte, error)
	Close() error
}

// Central scans and connects.
type Central interface {
	State() State
	// OnStateChange registers fn for state transitions. The returned func unregisters it.
	OnStateChange(fn func(State)) (cancel func())
	// OnDisconnect registers fn for links dropped by the remote side or the radio.
	OnDisconnect(fn func(Address)) (cancel func())
	// Scan delivers sightings of peripherals advertising service until StopScan.
	// Returns ErrNotReady if the radio is not powered on.
	Scan(service uuid.UUID, fn func(Sighting)) error
	StopScan()
	Connect(ctx context.Context, addr Address) (Conn, error)
}

// Peripheral advertises.
type Peripheral interface {
	State() State
	OnStateChange(fn func(State)) (cancel func())
	// Advertise replaces the current advertisement. Returns ErrNotReady if the radio is not powered on.
	Advertise(adv Advertisement) error
	StopAdvertising() error
}
