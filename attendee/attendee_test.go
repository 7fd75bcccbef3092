package attendee

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/renaissanceio/renio/proximity"
)

type recorder struct {
	ranges   []proximity.Range
	timeouts int
}

func (r *recorder) RangeChanged(a *Attendee) {
	r.ranges = append(r.ranges, a.Range())
}

func (r *recorder) TimeoutExpired(*Attendee) {
	r.timeouts++
}

type tester struct {
	mu    sync.Mutex
	clock clockwork.FakeClock
	rec   recorder
}

func newTester() *tester {
	return &tester{clock: clockwork.NewFakeClock()}
}

func (t *tester) exec(f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f()
}

func (t *tester) timeouts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rec.timeouts
}

func (t *tester) attendee(identity string) *Attendee {
	return New("addr", identity, &t.rec,
		WithClock(t.clock),
		WithTimeout(time.Second),
		WithExecutor(t.exec),
	)
}

func TestNormalizeIdentity(t *testing.T) {
	for _, tc := range []struct {
		in, out string
	}{
		{"abc", "abc"},
		{"@ABC", "abc"},
		{"  @Abc  ", "abc"},
		{"@", ""},
		{"", ""},
		{"a@b", "a@b"},
	} {
		require.Equal(t, tc.out, NormalizeIdentity(tc.in), tc.in)
	}
}

func TestIdentityState(t *testing.T) {
	tr := newTester()
	a := tr.attendee("")
	require.Equal(t, Pending, a.IdentityState())
	require.True(t, a.Info().Pending)
	require.False(t, a.Matches(a), "pending attendees never match")

	require.False(t, a.Confirm(" @ "))
	require.Equal(t, Pending, a.IdentityState())
	require.True(t, a.Confirm("@Abc"))
	require.Equal(t, Confirmed, a.IdentityState())
	require.Equal(t, "abc", a.Identity())
	require.True(t, a.MatchesIdentity("ABC"))

	other := tr.attendee("abc")
	other.SetAddress("rotated")
	require.True(t, a.Matches(other), "match ignores the address")
	require.False(t, a.Matches(tr.attendee("abd")))
	require.False(t, a.Matches(nil))
}

func TestRangeNotifications(t *testing.T) {
	tr := newTester()
	a := tr.attendee("abc")

	tr.exec(func() {
		require.True(t, a.UpdateSignal(-40))
		require.False(t, a.UpdateSignal(-45), "same bucket")
		require.True(t, a.UpdateSignal(-85))
		require.Equal(t, -85, a.RSSI())
	})
	require.Equal(t, []proximity.Range{proximity.VeryClose, proximity.VeryFar}, tr.rec.ranges)
	require.Equal(t, proximity.VeryFar.Color(), a.Color())
}

func TestUpdateClamps(t *testing.T) {
	tr := newTester()
	a := tr.attendee("abc")
	tr.exec(func() {
		a.UpdateSignal(127)
		require.Equal(t, proximity.MaxSignal, a.RSSI())
		require.Equal(t, proximity.VeryClose, a.Range())
		a.UpdateSignal(-1000)
		require.Equal(t, proximity.MinSignal, a.RSSI())
		require.Equal(t, proximity.VeryFar, a.Range())
	})
}

func TestUpdateResetsAge(t *testing.T) {
	tr := newTester()
	a := tr.attendee("abc")
	tr.exec(func() { a.UpdateSignal(-60) })
	tr.clock.Advance(600 * time.Millisecond)
	require.Equal(t, 600*time.Millisecond, a.Age())

	tr.exec(func() { a.UpdateSignal(-61) })
	require.Zero(t, a.Age())
	tr.clock.Advance(600 * time.Millisecond)
	require.Never(t, func() bool { return tr.timeouts() > 0 }, 50*time.Millisecond, 10*time.Millisecond,
		"refresh restarted the timer")

	tr.clock.Advance(400 * time.Millisecond)
	require.Eventually(t, func() bool { return tr.timeouts() == 1 }, time.Second, 10*time.Millisecond)
	tr.exec(func() {
		require.True(t, a.Expired())
		require.False(t, a.TimerRunning())
		require.False(t, a.UpdateSignal(-40), "expired attendee ignores readings")
		require.False(t, a.TimerRunning())
	})
}

func TestTimeoutFiresOnce(t *testing.T) {
	tr := newTester()
	a := tr.attendee("abc")
	tr.exec(func() { a.UpdateSignal(-60) })
	tr.clock.Advance(time.Second)
	require.Eventually(t, func() bool { return tr.timeouts() == 1 }, time.Second, 10*time.Millisecond)

	tr.exec(func() {
		require.False(t, a.Expire(), "sweep after the timer is a no-op")
	})
	tr.clock.Advance(time.Hour)
	require.Equal(t, 1, tr.timeouts())
}

func TestExpireCancelsTimer(t *testing.T) {
	tr := newTester()
	a := tr.attendee("abc")
	tr.exec(func() {
		a.UpdateSignal(-60)
		require.True(t, a.Expire())
		require.False(t, a.TimerRunning())
	})
	tr.clock.Advance(time.Hour)
	require.Never(t, func() bool { return tr.timeouts() > 1 }, 50*time.Millisecond, 10*time.Millisecond)
	require.Equal(t, 1, tr.timeouts())
}

func TestCancelTimer(t *testing.T) {
	tr := newTester()
	a := tr.attendee("abc")
	tr.exec(func() {
		a.CancelTimer()
		a.UpdateSignal(-60)
		a.CancelTimer()
		a.CancelTimer()
		require.False(t, a.TimerRunning())
	})
	tr.clock.Advance(time.Hour)
	require.Never(t, func() bool { return tr.timeouts() > 0 }, 50*time.Millisecond, 10*time.Millisecond)
}

func TestStaleCallbackIgnored(t *testing.T) {
	tr := newTester()
	a := tr.attendee("abc")

	// hold the executor so that the first timer fires while a refresh is pending
	tr.mu.Lock()
	a.UpdateSignal(-60)
	tr.clock.Advance(time.Second)
	a.UpdateSignal(-60)
	tr.mu.Unlock()

	require.Never(t, func() bool { return tr.timeouts() > 0 }, 50*time.Millisecond, 10*time.Millisecond)
	tr.exec(func() { require.True(t, a.TimerRunning()) })
}

func TestInfo(t *testing.T) {
	tr := newTester()
	a := tr.attendee("@Abc")
	tr.exec(func() {
		a.UpdateSignal(-65)
		a.SetConnected(true)
		a.SetConnecting(true)
	})
	tr.clock.Advance(300 * time.Millisecond)
	require.True(t, a.Connecting())
	require.Equal(t, Info{
		Identity:  "abc",
		Address:   "addr",
		RSSI:      -65,
		Range:     proximity.Nearby,
		Age:       300 * time.Millisecond,
		Connected: true,
	}, a.Info())
	require.Equal(t, proximity.Nearby.Color(), a.Info().Color())
}

func TestDefaultExecutor(t *testing.T) {
	clock := clockwork.NewFakeClock()
	expired := make(chan struct{}, 2)
	a := New("addr", "abc", delegateFunc(func() { expired <- struct{}{} }), WithClock(clock))
	a.UpdateSignal(-50)
	clock.Advance(DefaultTimeout)
	select {
	case <-expired:
	case <-time.After(time.Second):
		require.FailNow(t, "timeout not delivered")
	}
}

type delegateFunc func()

func (delegateFunc) RangeChanged(*Attendee) {}

func (f delegateFunc) TimeoutExpired(*Attendee) { f() }
