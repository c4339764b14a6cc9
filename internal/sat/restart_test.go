package sat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLuby(t *testing.T) {
	want := []int{1, 1, 2, 1, 1, 2, 4, 1, 1, 2, 1, 1, 2, 4, 8}

	got := make([]int, len(want))
	for i := range got {
		got[i] = luby(i + 1)
	}

	require.Equal(t, want, got)
}

func TestRestartController_fixed(t *testing.T) {
	rc := newRestartController(RestartFixed, 3)

	for i := 0; i < 2; i++ {
		require.False(t, rc.ShouldRestart())
		rc.OnConflict()
	}
	require.False(t, rc.ShouldRestart())
	rc.OnConflict()
	require.True(t, rc.ShouldRestart())

	rc.Restarted()
	require.False(t, rc.ShouldRestart())
	require.Equal(t, 3, rc.limit)
}

func TestRestartController_luby(t *testing.T) {
	rc := newRestartController(RestartLuby, 2)

	// Limits follow 2*luby(i): 2, 2, 4, 2, ...
	wantLimits := []int{2, 2, 4, 2}
	for _, want := range wantLimits {
		require.Equal(t, want, rc.limit)
		for i := 0; i < want; i++ {
			require.False(t, rc.ShouldRestart())
			rc.OnConflict()
		}
		require.True(t, rc.ShouldRestart())
		rc.Restarted()
	}
}
