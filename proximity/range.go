// Package proximity maps radio signal strength readings to discrete range buckets.
package proximity

import (
	"errors"
	"fmt"
)

// Signal readings outside of [MinSignal, MaxSignal] are clamped to the nearest edge.
const (
	MinSignal = -127
	MaxSignal = 20
)

// Range is a proximity bucket, ordered from the farthest to the closest.
type Range uint8

const (
	VeryFar Range = iota
	Far
	Nearby
	Close
	VeryClose
)

// Ranges lists every bucket in rank order.
var Ranges = [...]Range{VeryFar, Far, Nearby, Close, VeryClose}

// Rank of the bucket, 0 for VeryFar and 4 for VeryClose.
func (r Range) Rank() int {
	return int(r)
}

func (r Range) String() string {
	switch r {
	case VeryFar:
		return "very-far"
	case Far:
		return "far"
	case Nearby:
		return "nearby"
	case Close:
		return "close"
	case VeryClose:
		return "very-close"
	}
	return fmt.Sprintf("range(%d)", uint8(r))
}

// Color is the fill colour used when rendering an attendee in this bucket.
func (r Range) Color() string {
	switch r {
	case VeryClose:
		return "#e8451e"
	case Close:
		return "#f08a24"
	case Nearby:
		return "#f7c331"
	case Far:
		return "#5bb0de"
	}
	return "#9aa5ad"
}

// Thresholds are the lower bounds (inclusive) of every bucket above VeryFar.
type Thresholds struct {
	VeryClose int `mapstructure:"very-close"`
	Close     int `mapstructure:"close"`
	Nearby    int `mapstructure:"nearby"`
	Far       int `mapstructure:"far"`
}

// DefaultThresholds returns cut points in dBm.
func DefaultThresholds() Thresholds {
	return Thresholds{
		VeryClose: -50,
		Close:     -60,
		Nearby:    -70,
		Far:       -80,
	}
}

var errThresholdsOrder = errors.New("thresholds must be strictly decreasing from very-close to far")

// Validate checks that cut points are strictly decreasing and within signal bounds.
func (t Thresholds) Validate() error {
	if !(t.VeryClose > t.Close && t.Close > t.Nearby && t.Nearby > t.Far) {
		return fmt.Errorf("%w: %d, %d, %d, %d", errThresholdsOrder, t.VeryClose, t.Close, t.Nearby, t.Far)
	}
	if t.VeryClose > MaxSignal || t.Far < MinSignal {
		return fmt.Errorf("thresholds must be within [%d, %d]", MinSignal, MaxSignal)
	}
	return nil
}

// Classify returns bucket for the signal reading. Readings are clamped first,
// so the function is total and monotone in rssi.
func (t Thresholds) Classify(rssi int) Range {
	rssi = Clamp(rssi)
	switch {
	case rssi >= t.VeryClose:
		return VeryClose
	case rssi >= t.Close:
		return Close
	case rssi >= t.Nearby:
		return Nearby
	case rssi >= t.Far:
		return Far
	}
	return VeryFar
}

// Classify uses DefaultThresholds.
func Classify(rssi int) Range {
	return DefaultThresholds().Classify(rssi)
}

// Clamp bounds rssi to [MinSignal, MaxSignal].
func Clamp(rssi int) int {
	return min(max(rssi, MinSignal), MaxSignal)
}
