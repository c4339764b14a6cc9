package sat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResetSet(t *testing.T) {
	rs := &ResetSet{}
	for i := 0; i < 4; i++ {
		rs.Expand()
	}
	rs.Clear()

	rs.Add(1)
	rs.Add(3)

	require.True(t, rs.Contains(1))
	require.True(t, rs.Contains(3))
	require.False(t, rs.Contains(0))
	require.False(t, rs.Contains(2))

	rs.Clear()
	for i := 0; i < 4; i++ {
		require.False(t, rs.Contains(i))
	}
}

func TestResetSet_timestampOverflow(t *testing.T) {
	rs := &ResetSet{}
	rs.Expand()
	rs.addedTimestamp = ^uint32(0) - 1

	rs.Add(0)
	require.True(t, rs.Contains(0))

	rs.Clear()
	require.False(t, rs.Contains(0))

	rs.Clear() // wraps around
	require.False(t, rs.Contains(0))

	rs.Add(0)
	require.True(t, rs.Contains(0))
}
