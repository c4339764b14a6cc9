package sat

import (
	"errors"
	"fmt"
)

// ErrEmptyClause is returned when an empty clause is added to the solver.
// The formula is trivially unsatisfiable and the solver is marked as such.
var ErrEmptyClause = errors.New("empty clause")

// ErrTrivialConflict is returned when a unit clause contradicts a fact
// already established at the root level. The solver is marked unsatisfiable.
var ErrTrivialConflict = errors.New("contradicting unit clauses at root level")

// ErrNotAtRootLevel is returned when a clause is added while the solver is
// not at decision level 0.
var ErrNotAtRootLevel = errors.New("can only add clauses at the root level")

// InvariantViolation signals a breached internal invariant (e.g. a corrupted
// watch list). It indicates a bug in the solver and is used as a panic value
// so that the process aborts with a diagnostic.
type InvariantViolation struct {
	Reason string
}

func (e InvariantViolation) Error() string {
	return fmt.Sprintf("internal invariant violation: %s", e.Reason)
}

func invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(InvariantViolation{Reason: fmt.Sprintf(format, args...)})
	}
}
