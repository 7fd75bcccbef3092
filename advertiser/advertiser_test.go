package advertiser

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/renaissanceio/renio/log/logtest"
	"github.com/renaissanceio/renio/radio"
	"github.com/renaissanceio/renio/radio/mocks"
	"github.com/renaissanceio/renio/radio/sim"
)

type tester struct {
	*Advertiser
	peripheral   *mocks.MockPeripheral
	stateChanged func(radio.State)
	unsubscribed int
}

func newTester(t *testing.T, opts ...Opt) *tester {
	ctrl := gomock.NewController(t)
	tr := &tester{peripheral: mocks.NewMockPeripheral(ctrl)}
	tr.Advertiser = New(tr.peripheral, append([]Opt{WithLogger(logtest.New(t))}, opts...)...)
	tr.peripheral.EXPECT().OnStateChange(gomock.Any()).DoAndReturn(func(fn func(radio.State)) func() {
		tr.stateChanged = fn
		return func() { tr.unsubscribed++ }
	}).AnyTimes()
	return tr
}

func expected(identity string, embed bool) radio.Advertisement {
	adv := radio.Advertisement{
		Service:         radio.ServiceID,
		Characteristics: map[uuid.UUID][]byte{radio.IdentityCharacteristic: []byte(identity)},
	}
	if embed {
		adv.LocalName = identity
	}
	return adv
}

func TestEmptyIdentity(t *testing.T) {
	tr := newTester(t)
	require.ErrorIs(t, tr.Start(""), ErrEmptyIdentity)
	require.ErrorIs(t, tr.Start("   "), ErrEmptyIdentity)
	require.False(t, tr.Queued())
	require.False(t, tr.Advertising())
}

func TestStartReady(t *testing.T) {
	tr := newTester(t)
	tr.peripheral.EXPECT().State().Return(radio.StatePoweredOn)
	tr.peripheral.EXPECT().Advertise(expected("@alice", true)).Return(nil)
	require.NoError(t, tr.Start("@alice"))
	require.True(t, tr.Advertising())

	// same identity is not republished
	require.NoError(t, tr.Start("@alice"))

	tr.peripheral.EXPECT().State().Return(radio.StatePoweredOn)
	tr.peripheral.EXPECT().Advertise(expected("@bob", true)).Return(nil)
	require.NoError(t, tr.Start("@bob"))
	require.True(t, tr.Advertising())
}

func TestQueuedUntilReady(t *testing.T) {
	tr := newTester(t)
	tr.peripheral.EXPECT().State().Return(radio.StatePoweredOff)
	require.NoError(t, tr.Start("@alice"))
	require.True(t, tr.Queued())
	require.False(t, tr.Advertising())

	tr.stateChanged(radio.StateResetting)
	require.True(t, tr.Queued())

	tr.peripheral.EXPECT().State().Return(radio.StatePoweredOn)
	tr.peripheral.EXPECT().Advertise(expected("@alice", true)).Return(nil)
	tr.stateChanged(radio.StatePoweredOn)
	require.True(t, tr.Advertising())
	require.False(t, tr.Queued())
}

func TestReissuedAfterPowerCycle(t *testing.T) {
	tr := newTester(t)
	tr.peripheral.EXPECT().State().Return(radio.StatePoweredOn).Times(2)
	tr.peripheral.EXPECT().Advertise(expected("@alice", true)).Return(nil).Times(2)
	require.NoError(t, tr.Start("@alice"))

	tr.stateChanged(radio.StatePoweredOff)
	require.False(t, tr.Advertising())
	require.True(t, tr.Queued())

	tr.stateChanged(radio.StatePoweredOn)
	require.True(t, tr.Advertising())
}

func TestAdvertiseErrors(t *testing.T) {
	tr := newTester(t)
	tr.peripheral.EXPECT().State().Return(radio.StatePoweredOn)
	tr.peripheral.EXPECT().Advertise(gomock.Any()).Return(radio.ErrNotReady)
	require.NoError(t, tr.Start("@alice"))
	require.True(t, tr.Queued())

	tr.peripheral.EXPECT().State().Return(radio.StatePoweredOn)
	tr.peripheral.EXPECT().Advertise(gomock.Any()).Return(errors.New("busy"))
	tr.stateChanged(radio.StatePoweredOn)
	require.True(t, tr.Queued())
}

func TestStop(t *testing.T) {
	tr := newTester(t)
	tr.Stop()
	require.Zero(t, tr.unsubscribed)

	tr.peripheral.EXPECT().State().Return(radio.StatePoweredOn)
	tr.peripheral.EXPECT().Advertise(gomock.Any()).Return(nil)
	require.NoError(t, tr.Start("@alice"))

	tr.peripheral.EXPECT().StopAdvertising().Return(errors.New("already stopped"))
	tr.Stop()
	require.False(t, tr.Advertising())
	require.False(t, tr.Queued())
	require.Equal(t, 1, tr.unsubscribed)

	tr.Stop()
	// late state callback is ignored
	tr.stateChanged(radio.StatePoweredOn)
	require.False(t, tr.Advertising())
}

func TestStopWhileQueued(t *testing.T) {
	tr := newTester(t)
	tr.peripheral.EXPECT().State().Return(radio.StateUnauthorized)
	require.NoError(t, tr.Start("@alice"))
	tr.Stop()
	require.False(t, tr.Queued())
	tr.stateChanged(radio.StatePoweredOn)
	require.False(t, tr.Advertising())
}

func TestWithoutEmbeddedIdentity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EmbedIdentity = false
	tr := newTester(t, WithConfig(cfg))
	tr.peripheral.EXPECT().State().Return(radio.StatePoweredOn)
	tr.peripheral.EXPECT().Advertise(expected("@alice", false)).Return(nil)
	require.NoError(t, tr.Start("@alice"))
}

func TestSimulatedPeripheral(t *testing.T) {
	medium := sim.New()
	p := medium.NewPeripheral("p1")
	p.SetState(radio.StatePoweredOff)
	a := New(p, WithLogger(logtest.New(t)))

	require.NoError(t, a.Start("@alice"))
	_, ok := p.Advertisement()
	require.False(t, ok)

	p.SetState(radio.StatePoweredOn)
	adv, ok := p.Advertisement()
	require.True(t, ok)
	require.Equal(t, expected("@alice", true), adv)

	a.Stop()
	_, ok = p.Advertisement()
	require.False(t, ok)
}
