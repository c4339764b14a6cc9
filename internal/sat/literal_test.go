package sat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLiteral_encoding(t *testing.T) {
	p := PositiveLiteral(3)
	n := NegativeLiteral(3)

	require.Equal(t, 3, p.VarID())
	require.Equal(t, 3, n.VarID())
	require.True(t, p.IsPositive())
	require.False(t, n.IsPositive())
	require.Equal(t, n, p.Opposite())
	require.Equal(t, p, n.Opposite())
}

func TestLiteral_dimacs(t *testing.T) {
	for _, d := range []int{1, -1, 7, -42} {
		require.Equal(t, d, LiteralFromDimacs(d).Dimacs())
	}

	require.Equal(t, PositiveLiteral(0), LiteralFromDimacs(1))
	require.Equal(t, NegativeLiteral(0), LiteralFromDimacs(-1))
}
