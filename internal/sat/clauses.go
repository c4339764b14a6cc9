package sat

import (
	"strings"
)

// ClauseID is a stable handle to a clause in the solver's clause database.
// Watch lists and trail reasons store handles rather than pointers so that
// growing the database never invalidates a watcher. A handle remains valid
// for the lifetime of its clause.
type ClauseID int32

// cidUndef marks the absence of a clause: a decision literal's reason, or a
// clause that was never materialized (units, tautologies).
const cidUndef ClauseID = -1

type status uint8

const (
	statusDeleted   status = 0b001
	statusLearnt    status = 0b010
	statusProtected status = 0b100
)

type Clause struct {
	id       ClauseID
	activity float64

	// The clause's literals. The slice contains at least two literals if the
	// clause is active, it is nil if the clause has been marked as deleted.
	// The first two positions are the watched positions.
	literals []Literal

	// This is used to speed-up the search for a new literal to watch by
	// starting the search from the position at which the previous watched
	// literal was swapped in (if such literal exists). This value must always
	// be in [2, len(literals) - 1].
	prevPos int

	statusMask status
}

func (c *Clause) isDeleted() bool {
	return c.statusMask&statusDeleted != 0
}

func (c *Clause) isLearnt() bool {
	return c.statusMask&statusLearnt != 0
}

// Len returns the number of literals in the clause.
func (c *Clause) Len() int {
	return len(c.literals)
}

// newClause normalizes the given literals and either materializes a clause in
// the database (returning its handle) or handles the degenerate cases:
//
//   - tautologies and already satisfied clauses are discarded,
//   - an empty clause makes the formula unsatisfiable,
//   - unit clauses are enqueued directly at the current (root) level.
//
// The boolean result is false if adding the clause made the formula
// unsatisfiable.
func (s *Solver) newClause(tmpLiterals []Literal, learnt bool) (ClauseID, bool) {
	size := len(tmpLiterals)

	if !learnt {
		seen := map[Literal]struct{}{}

		for i := size - 1; i >= 0; i-- {
			// If the opposite literal is in the clause, then the clause is
			// always true.
			if _, ok := seen[tmpLiterals[i].Opposite()]; ok {
				return cidUndef, true
			}

			// Remove the literal if it is already present.
			if _, ok := seen[tmpLiterals[i]]; ok {
				size--
				tmpLiterals[i], tmpLiterals[size] = tmpLiterals[size], tmpLiterals[i]
			}

			seen[tmpLiterals[i]] = struct{}{}

			switch s.LitValue(tmpLiterals[i]) {
			case True:
				return cidUndef, true // clause is always true
			case False:
				size--
				tmpLiterals[i], tmpLiterals[size] = tmpLiterals[size], tmpLiterals[i]
			}
		}

		tmpLiterals = tmpLiterals[:size]
	}

	switch size {
	case 0:
		// Empty clauses cannot be valid.
		return cidUndef, false
	case 1:
		// Directly enqueue unit facts.
		return cidUndef, s.enqueue(tmpLiterals[0], cidUndef)
	default:
		c := &Clause{
			id:       ClauseID(len(s.clauses)),
			prevPos:  2, // no previous literal
			literals: make([]Literal, size),
		}
		copy(c.literals, tmpLiterals)
		s.clauses = append(s.clauses, c)

		if learnt {
			c.statusMask |= statusLearnt

			// Position 1 must hold a literal assigned at the backjump level
			// so that both watches are valid right after the backjump.
			maxLevel := -1
			wl := -1
			for i := 1; i < len(c.literals); i++ {
				if level := s.level[c.literals[i].VarID()]; level > maxLevel {
					maxLevel = level
					wl = i
				}
			}
			c.literals[wl], c.literals[1] = c.literals[1], c.literals[wl]
		}

		s.watch(c.id, c.literals[0].Opposite(), c.literals[1])
		s.watch(c.id, c.literals[1].Opposite(), c.literals[0])

		return c.id, true
	}
}

// locked returns true if the clause is the reason of the assignment of its
// first literal. Locked clauses must not be deleted.
func (c *Clause) locked(s *Solver) bool {
	return s.reason[c.literals[0].VarID()] == c.id
}

// delete tombstones the clause and removes it from the watch lists. The
// clause's handle stays allocated so that other handles remain stable.
func (c *Clause) delete(s *Solver) {
	c.statusMask |= statusDeleted

	s.unwatch(c.id, c.literals[0].Opposite())
	s.unwatch(c.id, c.literals[1].Opposite())

	// Cut the reference to the slice of literals so that it can be garbage
	// collected even if the clause itself is still referenced.
	c.literals = nil
}

// simplify removes the clause's false literals and reports whether the clause
// is satisfied at the root level. Must only be called at decision level 0
// with an empty propagation queue.
func (c *Clause) simplify(s *Solver) bool {
	k := 0
	for _, lit := range c.literals {
		switch s.LitValue(lit) {
		case True:
			return true
		case False:
			// discard the literal.
		case Unknown:
			c.literals[k] = lit
			k++
		}
	}
	c.literals = c.literals[:k]
	return false
}

// propagate updates the clause's watches knowing that literal l was just
// assigned to true (i.e. the clause's watched literal !l is now false). It
// returns false if the clause is conflicting.
func (c *Clause) propagate(s *Solver, l Literal) bool {
	// Make sure that the falsified literal is c.literals[1]. This simplifies
	// the rest of this function as c.literals[0] is always the literal to be
	// potentially enqueued (if all other literals are false).
	opp := l.Opposite()
	if c.literals[0] == opp {
		c.literals[0] = c.literals[1]
		c.literals[1] = opp
	}

	// If c.literals[0] is True, then the clause is already true.
	if s.LitValue(c.literals[0]) == True {
		s.watch(c.id, l, c.literals[0])
		return true
	}

	// Look for a new literal to watch, starting from the position of the
	// previous watched literal. If a non-false literal is found, it replaces
	// the falsified watch.

	// Reset the position to start the search from if it is not valid anymore.
	// This can happen if the previous watched literal was removed or moved
	// during a clause simplification.
	if c.prevPos >= len(c.literals) {
		c.prevPos = 2
	}
	for i, lit := range c.literals[c.prevPos:] {
		if s.LitValue(lit) != False {
			c.prevPos += i
			c.literals[1] = lit
			c.literals[c.prevPos] = opp
			s.watch(c.id, lit.Opposite(), c.literals[0])
			return true
		}
	}
	for i, lit := range c.literals[2:c.prevPos] {
		if s.LitValue(lit) != False {
			c.prevPos = i + 2
			c.literals[1] = lit
			c.literals[c.prevPos] = opp
			s.watch(c.id, lit.Opposite(), c.literals[0])
			return true
		}
	}

	// All literals in literals[1:] are false: the clause is unit under its
	// first literal. Keep the watch and attempt to enqueue.
	s.watch(c.id, l, c.literals[0])
	return s.enqueue(c.literals[0], c.id)
}

// explainConflict appends to outReason the assignments responsible for the
// clause being conflicting.
func (c *Clause) explainConflict(outReason *[]Literal) {
	exp := (*outReason)[:0]
	for _, l := range c.literals {
		exp = append(exp, l.Opposite())
	}
	*outReason = exp
}

// explainAssign appends to outReason the assignments responsible for the
// clause having forced its first literal.
func (c *Clause) explainAssign(outReason *[]Literal) {
	exp := (*outReason)[:0]
	for _, l := range c.literals[1:] {
		exp = append(exp, l.Opposite())
	}
	*outReason = exp
}

func (c *Clause) String() string {
	if len(c.literals) == 0 {
		return "Clause[]"
	}
	sb := strings.Builder{}
	sb.WriteString("Clause[")
	sb.WriteString(c.literals[0].String())
	for _, l := range c.literals[1:] {
		sb.WriteByte(' ')
		sb.WriteString(l.String())
	}
	sb.WriteByte(']')
	return sb.String()
}
