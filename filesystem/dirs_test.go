package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetCanonicalPath(t *testing.T) {
	t.Setenv("HOME", "/home/attendee")
	t.Setenv("RENIO_TEST_DIR", "data")

	testCases := []struct {
		path     string
		expected string
	}{
		{"~/.renio", "/home/attendee/.renio"},
		{"/var/../tmp/renio", "/tmp/renio"},
		{"/opt/$RENIO_TEST_DIR/x", "/opt/data/x"},
		{"relative/./dir", "relative/dir"},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			require.Equal(t, tc.expected, GetCanonicalPath(tc.path))
		})
	}
}

func TestGetUserHomeDirectory(t *testing.T) {
	t.Setenv("HOME", "/home/someone")
	require.Equal(t, "/home/someone", GetUserHomeDirectory())
}

func TestExistOrCreate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, ExistOrCreate(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	// second call is a no-op
	require.NoError(t, ExistOrCreate(dir))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	require.Error(t, ExistOrCreate(file))
}
