package sim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/renaissanceio/renio/log/logtest"
	"github.com/renaissanceio/renio/radio"
)

var (
	service = uuid.MustParse("a9b1f5e2-3c4d-4e6f-8a9b-0c1d2e3f4a5b")
	char    = uuid.MustParse("b0c2e6f3-4d5e-4f70-9bac-1d2e3f4a5b6c")
)

func advertisement(name string) radio.Advertisement {
	return radio.Advertisement{
		Service:         service,
		LocalName:       name,
		Characteristics: map[uuid.UUID][]byte{char: []byte("@" + name)},
	}
}

type sightings struct {
	mu  sync.Mutex
	got []radio.Sighting
}

func (s *sightings) add(sighting radio.Sighting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, sighting)
}

func (s *sightings) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func TestBroadcast(t *testing.T) {
	m := New(WithLogger(logtest.New(t)))
	c := m.NewCentral()
	p := m.NewPeripheral("p1")
	p.SetRSSI(-55)

	var s sightings
	require.NoError(t, c.Scan(service, s.add))
	require.Zero(t, m.Broadcast(), "not advertising yet")

	require.NoError(t, p.Advertise(advertisement("alice")))
	require.Equal(t, 1, m.Broadcast())
	require.Equal(t, []radio.Sighting{{Address: "p1", LocalName: "alice", RSSI: -55}}, s.got)

	other := m.NewPeripheral("p2")
	require.NoError(t, other.Advertise(radio.Advertisement{Service: uuid.New()}))
	require.Equal(t, 1, m.Broadcast(), "different service is filtered")

	c.StopScan()
	require.False(t, c.Scanning())
	require.Zero(t, m.Broadcast())
}

func TestNotReady(t *testing.T) {
	m := New()
	c := m.NewCentral()
	p := m.NewPeripheral("")
	require.NotEmpty(t, p.Address())

	var states []radio.State
	cancel := c.OnStateChange(func(s radio.State) { states = append(states, s) })
	c.SetState(radio.StatePoweredOff)
	require.ErrorIs(t, c.Scan(service, func(radio.Sighting) {}), radio.ErrNotReady)
	_, err := c.Connect(context.Background(), p.Address())
	require.ErrorIs(t, err, radio.ErrNotReady)

	c.SetState(radio.StatePoweredOn)
	cancel()
	c.SetState(radio.StateResetting)
	require.Equal(t, []radio.State{radio.StatePoweredOff, radio.StatePoweredOn}, states)

	require.NoError(t, p.Advertise(advertisement("bob")))
	p.SetState(radio.StateUnauthorized)
	_, ok := p.Advertisement()
	require.False(t, ok, "advertisement dropped when radio leaves powered on")
	require.ErrorIs(t, p.Advertise(advertisement("bob")), radio.ErrNotReady)
}

func TestConnectAndRead(t *testing.T) {
	m := New()
	c := m.NewCentral()
	p := m.NewPeripheral("p1")
	ctx := context.Background()

	_, err := c.Connect(ctx, "missing")
	require.ErrorIs(t, err, radio.ErrUnknownPeripheral)
	_, err = c.Connect(ctx, "p1")
	require.ErrorIs(t, err, radio.ErrUnknownPeripheral, "not advertising")

	require.NoError(t, p.Advertise(advertisement("carol")))
	p.FailConnects(1)
	_, err = c.Connect(ctx, "p1")
	require.ErrorIs(t, err, radio.ErrConnectFailed)

	cn, err := c.Connect(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, radio.Address("p1"), cn.Address())
	require.Equal(t, 1, c.Connections())

	value, err := cn.ReadCharacteristic(ctx, service, char)
	require.NoError(t, err)
	require.Equal(t, []byte("@carol"), value)
	_, err = cn.ReadCharacteristic(ctx, service, uuid.New())
	require.ErrorIs(t, err, radio.ErrNoCharacteristic)

	require.NoError(t, cn.Close())
	require.Zero(t, c.Connections())
	_, err = cn.ReadCharacteristic(ctx, service, char)
	require.ErrorIs(t, err, radio.ErrConnectFailed)
}

func TestDisconnect(t *testing.T) {
	m := New()
	c := m.NewCentral()
	p := m.NewPeripheral("p1")
	require.NoError(t, p.Advertise(advertisement("dave")))

	var dropped []radio.Address
	c.OnDisconnect(func(addr radio.Address) { dropped = append(dropped, addr) })

	_, err := c.Connect(context.Background(), "p1")
	require.NoError(t, err)
	m.Rotate(p, "p2")
	require.Equal(t, []radio.Address{"p1"}, dropped)
	require.Equal(t, radio.Address("p2"), p.Address())

	_, err = c.Connect(context.Background(), "p2")
	require.NoError(t, err)
	c.SetState(radio.StatePoweredOff)
	require.Equal(t, []radio.Address{"p1", "p2"}, dropped)
	require.Zero(t, c.Connections())

	c.SetState(radio.StatePoweredOn)
	_, err = c.Connect(context.Background(), "p2")
	require.NoError(t, err)
	m.Remove(p)
	require.Equal(t, []radio.Address{"p1", "p2", "p2"}, dropped)
	_, err = c.Connect(context.Background(), "p2")
	require.ErrorIs(t, err, radio.ErrUnknownPeripheral)
}

func TestReadLatency(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := New(WithClock(clock))
	c := m.NewCentral()
	p := m.NewPeripheral("p1")
	require.NoError(t, p.Advertise(advertisement("erin")))
	p.SetLatency(time.Second)

	cn, err := c.Connect(context.Background(), "p1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := cn.ReadCharacteristic(ctx, service, char)
		errc <- err
	}()
	clock.BlockUntil(1)
	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)

	done := make(chan []byte, 1)
	go func() {
		value, _ := cn.ReadCharacteristic(context.Background(), service, char)
		done <- value
	}()
	// the cancelled read above still holds a waiter
	clock.BlockUntil(2)
	clock.Advance(time.Second)
	require.Equal(t, []byte("@erin"), <-done)
}

func TestCrowd(t *testing.T) {
	clock := clockwork.NewFakeClock()
	m := New(WithClock(clock), WithLogger(logtest.New(t)))
	cfg := DefaultConfig()
	cfg.Attendees = 5
	require.NoError(t, cfg.Validate())
	crowd := NewCrowd(m, cfg)
	require.Len(t, crowd.Peripherals(), 5)

	for range 100 {
		crowd.Step()
		for _, p := range crowd.Peripherals() {
			require.GreaterOrEqual(t, p.RSSI(), cfg.Weakest)
			require.LessOrEqual(t, p.RSSI(), cfg.Strongest)
		}
	}

	for i, p := range crowd.Peripherals() {
		require.NoError(t, p.Advertise(advertisement(string(rune('a'+i)))))
	}
	c := m.NewCentral()
	var s sightings
	require.NoError(t, c.Scan(service, s.add))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- crowd.Run(ctx) }()
	require.Eventually(t, func() bool {
		clock.Advance(cfg.Interval)
		return s.len() >= 5
	}, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-errc)
}

func TestCrowdSeed(t *testing.T) {
	walk := func(seed uint64) []int {
		cfg := DefaultConfig()
		cfg.Seed = seed
		crowd := NewCrowd(New(), cfg)
		var rssi []int
		for range 10 {
			crowd.Step()
			for _, p := range crowd.Peripherals() {
				rssi = append(rssi, p.RSSI())
			}
		}
		return rssi
	}
	require.Equal(t, walk(7), walk(7))
	require.NotEqual(t, walk(7), walk(8))
}

func TestConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		desc   string
		modify func(*Config)
	}{
		{"negative attendees", func(c *Config) { c.Attendees = -1 }},
		{"zero interval", func(c *Config) { c.Interval = 0 }},
		{"negative drift", func(c *Config) { c.Drift = -1 }},
		{"inverted bounds", func(c *Config) { c.Weakest, c.Strongest = c.Strongest, c.Weakest }},
		{"out of range", func(c *Config) { c.Weakest = -200 }},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
