// Package dimacs implements a strict DIMACS CNF reader and writer.
//
// The reader validates the input against the declared problem line: variables
// outside [1, N] are rejected with the offending line number. Duplicate
// literals in a clause are merged and tautological clauses are dropped, so an
// Instance always holds normalized clauses.
package dimacs

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/e1011/cdcl/internal/sat"
)

// ParseError reports a malformed DIMACS input with the line it was found on.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func parseErrorf(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

// Instance is a parsed CNF formula. Clauses hold DIMACS literals (nonzero
// signed integers, variables in [1, Variables]).
type Instance struct {
	Variables int
	Clauses   [][]int

	// Leading comment lines (without the "c" prefix), as they appeared
	// before the problem line.
	Comments []string
}

func reader(filename string, gzipped bool) (io.ReadCloser, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	rc := io.ReadCloser(file)
	if gzipped {
		rc, err = gzip.NewReader(rc)
		if err != nil {
			return nil, err
		}
	}
	return rc, nil
}

// ParseFile parses the DIMACS CNF file at the given path.
func ParseFile(filename string, gzipped bool) (*Instance, error) {
	rc, err := reader(filename, gzipped)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading file %q", filename)
	}
	defer rc.Close()
	return Parse(rc)
}

// Parse parses a DIMACS CNF formula. A clause is a sequence of nonzero
// literals terminated by 0 and may span multiple lines.
func Parse(r io.Reader) (*Instance, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	inst := &Instance{}
	lineNo := 0

	// Parse comments and the problem line.
	headerSeen := false
	for !headerSeen && scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line[0] == 'c':
			inst.Comments = append(inst.Comments, strings.TrimPrefix(strings.TrimPrefix(line, "c"), " "))
		case line[0] == 'p':
			parts := strings.Fields(line)
			if len(parts) != 4 || parts[1] != "cnf" {
				return nil, parseErrorf(lineNo, "invalid problem line %q", line)
			}
			nVars, err := strconv.Atoi(parts[2])
			if err != nil || nVars < 0 {
				return nil, parseErrorf(lineNo, "invalid variable count %q", parts[2])
			}
			nClauses, err := strconv.Atoi(parts[3])
			if err != nil || nClauses < 0 {
				return nil, parseErrorf(lineNo, "invalid clause count %q", parts[3])
			}
			inst.Variables = nVars
			inst.Clauses = make([][]int, 0, nClauses)
			headerSeen = true
		default:
			return nil, parseErrorf(lineNo, "expected problem line, got %q", line)
		}
	}
	if !headerSeen {
		return nil, parseErrorf(lineNo, "problem line not found")
	}

	// Parse clauses. The current clause accumulates literals until its
	// terminating 0, possibly across lines.
	var clause []int
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == 'c' {
			continue
		}
		for _, tok := range strings.Fields(line) {
			l, err := strconv.Atoi(tok)
			if err != nil {
				return nil, parseErrorf(lineNo, "invalid literal %q", tok)
			}
			if l == 0 {
				inst.addClause(clause)
				clause = clause[:0]
				continue
			}
			if v := abs(l); v > inst.Variables {
				return nil, parseErrorf(lineNo, "literal %d outside of [1, %d]", l, inst.Variables)
			}
			clause = append(clause, l)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error scanning input")
	}
	if len(clause) != 0 {
		return nil, parseErrorf(lineNo, "clause %v not terminated by 0", clause)
	}

	return inst, nil
}

// addClause normalizes and records a clause: duplicate literals are merged
// and tautologies are dropped.
func (inst *Instance) addClause(clause []int) {
	seen := make(map[int]struct{}, len(clause))
	normalized := make([]int, 0, len(clause))
	for _, l := range clause {
		if _, ok := seen[-l]; ok {
			return // tautology
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		normalized = append(normalized, l)
	}
	inst.Clauses = append(inst.Clauses, normalized)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Instantiate loads the instance's variables and clauses in the given solver.
// Degenerate clauses that make the formula trivially unsatisfiable (empty
// clauses, contradicting units) are not errors here: the solver records the
// unsatisfiability and reports it on Solve.
func Instantiate(s *sat.Solver, inst *Instance) error {
	for i := 0; i < inst.Variables; i++ {
		s.AddVariable()
	}

	buf := make([]sat.Literal, 0, 32)
	for _, clause := range inst.Clauses {
		buf = buf[:0]
		for _, l := range clause {
			buf = append(buf, sat.LiteralFromDimacs(l))
		}
		err := s.AddClause(buf)
		switch {
		case err == nil:
		case errors.Is(err, sat.ErrEmptyClause) || errors.Is(err, sat.ErrTrivialConflict):
			// Solver is now marked unsatisfiable; keep loading.
		default:
			return err
		}
	}
	return nil
}
