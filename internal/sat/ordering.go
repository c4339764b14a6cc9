package sat

import (
	"github.com/rhartert/yagh"
)

// VarOrder maintains the order of variables to be assigned by the solver.
//
// It backs both decision heuristics: in dynamic mode (VSIDS) scores are
// bumped on conflicts and decayed by increment growth; in static mode
// (Jeroslow-Wang) scores are seeded once from the clause set and bump/decay
// are no-ops. Selection always returns the unassigned variable with the
// highest score, with ties broken by lowest variable index.
type VarOrder struct {
	// Binary heap to access the next variable with the highest score. The heap
	// breaks ties using the index of its elements which will correspond to the
	// order in which variables are declared with AddVar.
	order *yagh.IntMap[float64]

	scores     []float64 // in [0, 1e100)
	scoreInc   float64   // in (0, 1e100)
	scoreDecay float64   // in (0, 1]
	static     bool

	phases      []LBool
	phaseSaving bool
}

// NewVarOrder returns a new initialized VarOrder.
func NewVarOrder(decay float64, phaseSaving bool, static bool) *VarOrder {
	return &VarOrder{
		order:       yagh.New[float64](0),
		scoreInc:    1,
		scoreDecay:  decay,
		static:      static,
		phases:      make([]LBool, 0),
		phaseSaving: phaseSaving,
	}
}

// AddVar adds a new variable with a zero score. The variable's initial
// preferred polarity is negative.
func (vo *VarOrder) AddVar() {
	varID := len(vo.phases)

	vo.scores = append(vo.scores, 0)
	vo.phases = append(vo.phases, False)

	vo.order.GrowBy(1)
	vo.order.Put(varID, 0)
}

// SeedScores replaces all variable scores. This is used by the Jeroslow-Wang
// heuristic to install its static scores before the search starts.
func (vo *VarOrder) SeedScores(scores []float64) {
	for v, score := range scores {
		vo.scores[v] = score
		if vo.order.Contains(v) {
			vo.order.Put(v, -score)
		}
	}
}

// Reinsert adds variable v back to the set of candidates to be selected. This
// function must be called by the solver when v is being unassigned (e.g. when
// a backtrack occurs) where val is the value the variable was assigned to.
func (vo *VarOrder) Reinsert(v int, val LBool) {
	if vo.phaseSaving {
		vo.phases[v] = val
	}
	act := vo.scores[v]
	vo.order.Put(v, -act)
}

// DecayScores slightly decreases the scores of the variables. This is used
// to give more importance to variables that have had their scores increased
// recently compared to variables that had their scores increased in the past.
func (vo *VarOrder) DecayScores() {
	if vo.static {
		return
	}
	vo.scoreInc /= vo.scoreDecay // decay activities by bumping increment
	if vo.scoreInc > 1e100 {
		vo.rescaleScoresAndIncrement()
	}
}

// BumpScore increases the score of the given variable. Note that this operation
// might trigger a rescaling of all variables scores if the score of v exceeds
// a given threshold. The rescaling is done in way that conserves the relative
// importance of each variable when compared to each other.
func (vo *VarOrder) BumpScore(v int) {
	if vo.static {
		return
	}
	newScore := vo.scores[v] + vo.scoreInc
	vo.scores[v] = newScore
	if vo.order.Contains(v) {
		vo.order.Put(v, -newScore)
	}
	if vo.scores[v] > 1e100 {
		vo.rescaleScoresAndIncrement()
	}
}

// NextDecision returns the next unassigned literal to be assigned to true.
// The literal's polarity is the variable's saved phase.
func (vo *VarOrder) NextDecision(s *Solver) Literal {
	for {
		next, ok := vo.order.Pop()
		invariant(ok, "decision requested but no unassigned variable is left in the ordering")
		if s.VarValue(next.Elem) != Unknown {
			continue // already assigned
		}

		if vo.phases[next.Elem] == True {
			return PositiveLiteral(next.Elem)
		}
		return NegativeLiteral(next.Elem)
	}
}

func (vo *VarOrder) rescaleScoresAndIncrement() {
	vo.scoreInc *= 1e-100 // important to keep proportions
	for v, s := range vo.scores {
		newScore := s * 1e-100
		vo.scores[v] = newScore
		if vo.order.Contains(v) {
			vo.order.Put(v, -newScore)
		}
	}
}
