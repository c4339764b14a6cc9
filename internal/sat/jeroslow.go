package sat

import "math"

// jeroslowWangScores computes the Jeroslow-Wang score of each variable from
// the original clause set: score(l) is the sum of 2^-|C| over the clauses C
// containing literal l, and a variable's score is the maximum of its two
// polarities. Learnt clauses are not taken into account.
func (s *Solver) jeroslowWangScores() []float64 {
	litScores := make([]float64, s.NumVariables()*2)
	for _, id := range s.constraints {
		c := s.clauses[id]
		if c.isDeleted() || len(c.literals) == 0 {
			continue
		}
		w := math.Pow(2, -float64(len(c.literals)))
		for _, l := range c.literals {
			litScores[l] += w
		}
	}

	scores := make([]float64, s.NumVariables())
	for v := range scores {
		pos := litScores[PositiveLiteral(v)]
		neg := litScores[NegativeLiteral(v)]
		scores[v] = math.Max(pos, neg)
	}
	return scores
}
