package radio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateReady(t *testing.T) {
	for s := StateUnknown; s <= StatePoweredOn; s++ {
		require.Equal(t, s == StatePoweredOn, s.Ready(), s.String())
	}
	require.Equal(t, "state(42)", State(42).String())
}
