package mob

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/renaissanceio/renio/attendee"
	discovery "github.com/renaissanceio/renio/mob"
	"github.com/renaissanceio/renio/proximity"
	"github.com/renaissanceio/renio/records"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := New()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute(), out.String())
	return out.String()
}

func TestRunAndRecords(t *testing.T) {
	dir := t.TempDir()
	out := execute(t, "run",
		"--data-folder", dir,
		"--identity", "@Me",
		"--attendees", "3",
		"--sim-interval", "10ms",
		"--sweep-interval", "20ms",
		"--connect-rate", "100",
		"--duration", "2s",
	)
	require.Contains(t, out, "RANK")

	store, err := records.Open(filepath.Join(dir, records.DefaultFile))
	require.NoError(t, err)
	require.NotZero(t, store.Len())
	for _, record := range store.Records() {
		require.NotEqual(t, "me", record.Identity)
		require.Contains(t, record.Identity, "attendee-")
	}

	out = execute(t, "records", "--data-folder", dir, "--top", "1")
	require.Contains(t, out, store.Top(1)[0].Identity)
}

func TestRunRequiresIdentity(t *testing.T) {
	root := New()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"run", "--data-folder", t.TempDir()})
	require.ErrorContains(t, root.Execute(), "identity is required")
}

func TestRunCorruptRecords(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, records.DefaultFile), []byte{0xff, 0xff, 0xff}, 0o600))
	root := New()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"run", "--data-folder", dir, "--identity", "@me", "--duration", "1s"})
	require.ErrorContains(t, root.Execute(), "could not open attendee records")
}

func TestRecordsEmpty(t *testing.T) {
	out := execute(t, "records", "--data-folder", t.TempDir())
	require.Equal(t, "RANK  IDENTITY  SCORE  LAST SEEN\n", out)
}

func TestPrintUpdate(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printUpdate(&out, discovery.Update{
		At: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		Attendees: []attendee.Info{
			{Identity: "alice", Address: "aa", RSSI: -45, Range: proximity.VeryClose, Age: time.Second},
			{Address: "bb", RSSI: -90, Range: proximity.VeryFar, Pending: true},
		},
	}))
	require.Contains(t, out.String(), "10:30:00")
	require.Contains(t, out.String(), "2 attendees nearby")
	require.Contains(t, out.String(), "alice")
	require.Contains(t, out.String(), pending)
	require.Contains(t, out.String(), proximity.VeryClose.String())
}

func TestVersion(t *testing.T) {
	require.NotEmpty(t, execute(t, "version"))
}
