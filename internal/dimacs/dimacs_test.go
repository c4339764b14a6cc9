package dimacs

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/e1011/cdcl/internal/sat"
)

func TestParse_basic(t *testing.T) {
	input := `c a small instance
c with two comment lines
p cnf 3 3
1 2 -3 0
-1 -2 3 0
2 3 0
`
	want := &Instance{
		Variables: 3,
		Clauses:   [][]int{{1, 2, -3}, {-1, -2, 3}, {2, 3}},
		Comments:  []string{"a small instance", "with two comment lines"},
	}

	got, err := Parse(strings.NewReader(input))

	require.NoError(t, err)
	require.Empty(t, cmp.Diff(want, got))
}

func TestParse_clauseSpanningLines(t *testing.T) {
	input := "p cnf 4 2\n1 2\n3 4 0 -1\n-2 0\n"

	got, err := Parse(strings.NewReader(input))

	require.NoError(t, err)
	require.Equal(t, [][]int{{1, 2, 3, 4}, {-1, -2}}, got.Clauses)
}

func TestParse_duplicateLiteralsMerged(t *testing.T) {
	input := "p cnf 2 1\n1 1 -2 1 0\n"

	got, err := Parse(strings.NewReader(input))

	require.NoError(t, err)
	require.Equal(t, [][]int{{1, -2}}, got.Clauses)
}

func TestParse_tautologyDropped(t *testing.T) {
	input := "p cnf 2 2\n1 -1 2 0\n2 0\n"

	got, err := Parse(strings.NewReader(input))

	require.NoError(t, err)
	require.Equal(t, [][]int{{2}}, got.Clauses)
}

func TestParse_emptyClause(t *testing.T) {
	input := "p cnf 2 1\n0\n"

	got, err := Parse(strings.NewReader(input))

	require.NoError(t, err)
	require.Equal(t, [][]int{{}}, got.Clauses)
}

func TestParse_literalOutOfRange(t *testing.T) {
	input := "p cnf 2 1\n1 -3 0\n"

	_, err := Parse(strings.NewReader(input))

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	require.Equal(t, 2, parseErr.Line)
	require.Contains(t, parseErr.Reason, "-3")
}

func TestParse_invalidHeader(t *testing.T) {
	for _, input := range []string{
		"p sat 3 3\n",
		"p cnf three 3\n",
		"p cnf 3\n",
		"1 2 0\n",
		"",
	} {
		_, err := Parse(strings.NewReader(input))

		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr), "input %q: got %v", input, err)
	}
}

func TestParse_unterminatedClause(t *testing.T) {
	input := "p cnf 2 1\n1 2\n"

	_, err := Parse(strings.NewReader(input))

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	require.Contains(t, parseErr.Reason, "not terminated")
}

func TestWrite_roundTrip(t *testing.T) {
	want := &Instance{
		Variables: 4,
		Clauses:   [][]int{{1, 2}, {-1, 3}, {-2, 4}, {-3, -4}},
		Comments:  []string{"satisfiable: true"},
	}

	buf := &bytes.Buffer{}
	require.NoError(t, Write(buf, want))

	got, err := Parse(buf)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(want, got))
}

func TestParseFile_gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instance.cnf.gz")
	file, err := os.Create(path)
	require.NoError(t, err)

	zw := gzip.NewWriter(file)
	inst := &Instance{Variables: 2, Clauses: [][]int{{1, 2}, {-1}}}
	require.NoError(t, Write(zw, inst))
	require.NoError(t, zw.Close())
	require.NoError(t, file.Close())

	got, err := ParseFile(path, true)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(inst, got))
}

func TestParseFile_noFile(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.cnf"), false)
	require.Error(t, err)
}

func TestInstantiate_solvable(t *testing.T) {
	inst := &Instance{
		Variables: 3,
		Clauses:   [][]int{{1, 2, -3}, {-1, -2, 3}, {2, 3}},
	}

	s := sat.NewDefaultSolver()
	require.NoError(t, Instantiate(s, inst))

	require.Equal(t, 3, s.NumVariables())
	require.Equal(t, sat.True, s.Solve())
}

func TestInstantiate_emptyClauseMarksUnsat(t *testing.T) {
	inst := &Instance{
		Variables: 2,
		Clauses:   [][]int{{1, 2}, {}},
	}

	s := sat.NewDefaultSolver()
	require.NoError(t, Instantiate(s, inst))
	require.Equal(t, sat.False, s.Solve())
}
