package sat

import (
	"fmt"
	"sort"
	"time"
)

// HeuristicKind selects the decision heuristic at construction time.
type HeuristicKind uint8

const (
	HeuristicVSIDS HeuristicKind = iota
	HeuristicJW
)

type Solver struct {
	// Clause database. Clauses are stored in a single arena indexed by
	// ClauseID; constraints and learnts partition the live handles.
	clauses     []*Clause
	constraints []ClauseID
	learnts     []ClauseID
	clauseInc   float64
	clauseDecay float64

	// Variable ordering.
	order     *VarOrder
	heuristic HeuristicKind

	// Watch lists, indexed by literal. watchers[l] holds the clauses to be
	// propagated when l is assigned to true.
	watchers [][]watcher

	// Value assigned to each literal.
	assigns []LBool

	// Trail. qhead separates the assignments that have been propagated from
	// those still pending propagation.
	trail    []Literal
	trailLim []int
	qhead    int
	reason   []ClauseID
	level    []int

	// Restart schedule.
	restarts *restartController

	// Whether the problem has reached a top level conflict.
	unsat bool

	// Search statistics.
	TotalConflicts  int64
	TotalRestarts   int64
	TotalIterations int64
	startTime       time.Time

	// Stop conditions.
	hasStopCond bool
	maxConflict int64
	timeout     time.Duration

	verbose bool

	// Models.
	Models [][]bool

	// Shared by operations that need to put variables in a set and empty that
	// set efficiently.
	seenVar *ResetSet

	// Temporary slice used in the propagate function. The slice is re-used by
	// all propagate calls to avoid unnecessarily allocating new slices.
	tmpWatchers []watcher

	// Temporary slice used in analyze to accumulate literals before these are
	// used to create a new learnt clause. Having one shared buffer between all
	// calls reduces the overhead of having to grow each time analyze is called.
	tmpLearnts []Literal

	// Used for clauses to explain themselves.
	tmpReason []Literal
}

// watcher represents a clause attached to the watch list of a literal.
type watcher struct {
	// The watching clause to be propagated when the watched literal becomes
	// true.
	clause ClauseID

	// Guard is one of the clause's literals. If it is true, then there is
	// no need to propagate the clause. Note that the guard literal must be
	// different from the watcher literal.
	guard Literal
}

type Options struct {
	ClauseDecay     float64
	VariableDecay   float64
	Heuristic       HeuristicKind
	RestartPolicy   RestartPolicy
	RestartInterval int
	PhaseSaving     bool
	MaxConflicts    int64
	Timeout         time.Duration
	Verbose         bool
}

var DefaultOptions = Options{
	ClauseDecay:     0.999,
	VariableDecay:   0.95,
	Heuristic:       HeuristicVSIDS,
	RestartPolicy:   RestartFixed,
	RestartInterval: 100,
	PhaseSaving:     true,
	MaxConflicts:    -1,
	Timeout:         -1,
	Verbose:         false,
}

// NewDefaultSolver returns a solver configured with default options. This is
// equivalent to calling NewSolver with DefaultOptions.
func NewDefaultSolver() *Solver {
	return NewSolver(DefaultOptions)
}

func NewSolver(ops Options) *Solver {
	s := &Solver{
		clauseDecay: ops.ClauseDecay,
		clauseInc:   1,
		heuristic:   ops.Heuristic,
		order:       NewVarOrder(ops.VariableDecay, ops.PhaseSaving, ops.Heuristic == HeuristicJW),
		restarts:    newRestartController(ops.RestartPolicy, ops.RestartInterval),
		maxConflict: -1,
		timeout:     -1,
		seenVar:     &ResetSet{},
		verbose:     ops.Verbose,
	}

	if ops.MaxConflicts >= 0 {
		s.hasStopCond = true
		s.maxConflict = ops.MaxConflicts
	}
	if ops.Timeout >= 0 {
		s.hasStopCond = true
		s.timeout = ops.Timeout
	}

	return s
}

func (s *Solver) shouldStop() bool {
	if !s.hasStopCond {
		return false
	}
	if s.maxConflict >= 0 && s.maxConflict <= s.TotalConflicts {
		return true
	}
	if s.timeout >= 0 && s.timeout <= time.Since(s.startTime) {
		return true
	}

	return false
}

func (s *Solver) NumVariables() int {
	return len(s.assigns) / 2
}

func (s *Solver) NumAssigns() int {
	return len(s.trail)
}

func (s *Solver) NumConstraints() int {
	return len(s.constraints)
}

func (s *Solver) NumLearnts() int {
	return len(s.learnts)
}

func (s *Solver) VarValue(x int) LBool {
	return s.assigns[PositiveLiteral(x)]
}

func (s *Solver) LitValue(l Literal) LBool {
	return s.assigns[l]
}

func (s *Solver) AddVariable() int {
	index := s.NumVariables()
	s.watchers = append(s.watchers, nil)
	s.watchers = append(s.watchers, nil)
	s.reason = append(s.reason, cidUndef)
	s.seenVar.Expand()

	// One for each literal.
	s.assigns = append(s.assigns, Unknown)
	s.assigns = append(s.assigns, Unknown)

	s.level = append(s.level, -1)
	s.order.AddVar()
	return index
}

// watch registers clause id to be awaken when Literal w is assigned to true.
func (s *Solver) watch(id ClauseID, w Literal, guard Literal) {
	s.watchers[w] = append(s.watchers[w], watcher{
		clause: id,
		guard:  guard,
	})
}

// unwatch removes clause id from the list of watchers.
func (s *Solver) unwatch(id ClauseID, w Literal) {
	j := 0
	for i := 0; i < len(s.watchers[w]); i++ {
		if s.watchers[w][i].clause != id {
			s.watchers[w][j] = s.watchers[w][i]
			j++
		}
	}
	s.watchers[w] = s.watchers[w][:j]
}

// AddClause adds a clause to the solver. Tautologies are discarded, duplicate
// literals are merged, and unit clauses are enqueued directly at the root
// level. An empty clause, or a unit clause contradicting a root-level fact,
// marks the formula unsatisfiable and is reported as an error.
func (s *Solver) AddClause(clause []Literal) error {
	if s.decisionLevel() != 0 {
		return ErrNotAtRootLevel
	}
	wasEmpty := len(clause) == 0
	id, ok := s.newClause(clause, false)
	if id != cidUndef {
		s.constraints = append(s.constraints, id)
	}
	if !ok {
		s.unsat = true
		if wasEmpty {
			return ErrEmptyClause
		}
		return ErrTrivialConflict
	}

	return nil
}

// Simplify simplifies the clause DB as well as the problem clauses according
// to the root-level assignments. Clauses that are satisfied at the root-level
// are removed.
func (s *Solver) Simplify() bool {
	invariant(s.decisionLevel() == 0, "Simplify called at level %d", s.decisionLevel())

	if s.unsat || s.propagate() != cidUndef {
		s.unsat = true
		return false
	}

	s.simplifyAll(&s.learnts)
	s.simplifyAll(&s.constraints) // could be turned off

	return true
}

// simplifyAll simplifies the clauses behind the given handles and removes
// those that are already satisfied.
func (s *Solver) simplifyAll(idsPtr *[]ClauseID) {
	ids := *idsPtr
	j := 0
	for _, id := range ids {
		c := s.clauses[id]
		if c.simplify(s) {
			c.delete(s)
		} else {
			ids[j] = id
			j++
		}
	}
	*idsPtr = ids[:j]
}

// reduceDB halves the learnt clause database, keeping the most active
// clauses. Clauses currently serving as a reason on the trail are never
// deleted.
func (s *Solver) reduceDB() {
	if len(s.learnts) == 0 {
		return
	}
	lim := s.clauseInc / float64(len(s.learnts))

	sort.Slice(s.learnts, func(i, j int) bool {
		return s.clauses[s.learnts[i]].activity < s.clauses[s.learnts[j]].activity
	})

	i, j := 0, 0
	for ; i < len(s.learnts)/2; i++ {
		c := s.clauses[s.learnts[i]]
		if c.locked(s) {
			s.learnts[j] = s.learnts[i]
			j++
		} else {
			c.delete(s)
		}
	}

	for ; i < len(s.learnts); i++ {
		c := s.clauses[s.learnts[i]]
		if !c.locked(s) && c.activity < lim {
			c.delete(s)
		} else {
			s.learnts[j] = s.learnts[i]
			j++
		}
	}

	s.learnts = s.learnts[:j]
}

func (s *Solver) decisionLevel() int {
	return len(s.trailLim)
}

// Solve searches for a model of the formula. It returns True if a model was
// found (recorded in Models), False if the formula is unsatisfiable, and
// Unknown if a stop condition interrupted the search.
func (s *Solver) Solve() LBool {
	numLearnts := s.NumConstraints() / 3
	if numLearnts < 100 {
		numLearnts = 100
	}
	status := Unknown
	s.startTime = time.Now()

	if s.heuristic == HeuristicJW {
		s.order.SeedScores(s.jeroslowWangScores())
	}

	if s.verbose {
		s.printSeparator()
		s.printSearchHeader()
		s.printSeparator()
	}

	for status == Unknown {
		status = s.search(numLearnts)
		numLearnts += numLearnts / 20

		if s.shouldStop() {
			break
		}
	}

	if s.verbose {
		s.printSearchStats()
		s.printSeparator()
	}

	s.cancelUntil(0)
	return status
}

func (s *Solver) bumpClauseActivity(c *Clause) {
	c.activity += s.clauseInc

	if c.activity > 1e100 {
		s.clauseInc *= 1e-100 // important to keep proportions
		for _, id := range s.learnts {
			s.clauses[id].activity *= 1e-100
		}
	}
}

func (s *Solver) decayClauseActivity() {
	s.clauseInc /= s.clauseDecay
}

// propagate drains the trail's pending queue, extending the trail with all
// forced assignments. It returns the handle of a conflicting clause, or
// cidUndef if propagation reached a fixpoint without conflict.
func (s *Solver) propagate() ClauseID {
	for s.qhead < len(s.trail) {
		l := s.trail[s.qhead]
		s.qhead++

		s.tmpWatchers = s.tmpWatchers[:0]
		s.tmpWatchers = append(s.tmpWatchers, s.watchers[l]...)
		s.watchers[l] = s.watchers[l][:0]

		for i, w := range s.tmpWatchers {
			// No need to propagate the clause if its guard is true. This block
			// is not necessary for propagation to behave properly. However, it
			// helps to significantly speed-up computation by avoiding loading
			// clauses (in memory) that do not need to be propagated. Note that
			// this alters the order in which clauses are propagated and can
			// thus yield different conflict analysis and learnt clauses.
			if s.LitValue(w.guard) == True {
				s.watchers[l] = append(s.watchers[l], w)
				continue
			}

			if s.clauses[w.clause].propagate(s, l) {
				continue
			}

			// Constraint is conflicting, copy remaining watchers and return
			// the constraint. The rest of the trail is considered propagated.
			s.watchers[l] = append(s.watchers[l], s.tmpWatchers[i+1:]...)
			s.qhead = len(s.trail)
			return w.clause
		}
	}

	return cidUndef
}

func (s *Solver) enqueue(l Literal, from ClauseID) bool {
	switch s.LitValue(l) {
	case False:
		return false // conflicting assignment
	case True:
		return true // already assigned
	default:
		// New fact, store it.
		varID := l.VarID()
		s.assigns[l] = True
		s.assigns[l.Opposite()] = False
		s.level[varID] = s.decisionLevel()
		s.reason[varID] = from
		s.trail = append(s.trail, l)
		return true
	}
}

// explain stores in tmpReason the assignments that caused clause c to be
// conflicting (l == litUndef) or to force literal l.
func (s *Solver) explain(c *Clause, l Literal) {
	if l == litUndef {
		c.explainConflict(&s.tmpReason)
	} else {
		c.explainAssign(&s.tmpReason)
	}
}

// analyze performs First-UIP conflict analysis. It returns a learnt clause
// with the asserting literal in position 0, and the level to backjump to.
// Every variable encountered in a resolved reason gets an activity bump.
func (s *Solver) analyze(confl ClauseID) ([]Literal, int) {
	// Current number of "implication" nodes encountered in the exploration of
	// the decision level. A value of 0 indicates that the exploration has
	// reached a single implication point.
	nImplicationPoints := 0

	// Empty the buffer of literals in which the learnt clause will be stored.
	// Note that the first literal is reserved for the FUIP which is set at the
	// end of this function.
	s.tmpLearnts = s.tmpLearnts[:0]
	s.tmpLearnts = append(s.tmpLearnts, litUndef)

	// Next literal to look at. This is used to iterate over the trail without
	// actually undoing the literal assignments.
	nextLiteral := len(s.trail) - 1

	l := litUndef // unknown literal used to represent the conflict
	s.seenVar.Clear()
	backtrackLevel := 0

	for {
		invariant(confl != cidUndef, "analysis resolved a literal with no reason")
		c := s.clauses[confl]
		if c.isLearnt() {
			s.bumpClauseActivity(c)
		}

		s.explain(c, l)
		for _, q := range s.tmpReason {
			v := q.VarID()
			if s.seenVar.Contains(v) {
				continue
			}

			s.seenVar.Add(v)
			s.order.BumpScore(v)
			if s.level[v] == s.decisionLevel() {
				nImplicationPoints++
				continue
			}

			s.tmpLearnts = append(s.tmpLearnts, q.Opposite())
			if level := s.level[v]; level > backtrackLevel {
				backtrackLevel = level
			}
		}

		// Select next literal to look at.
		for {
			l = s.trail[nextLiteral]
			nextLiteral--
			v := l.VarID()
			confl = s.reason[v]
			if s.seenVar.Contains(v) {
				break
			}
		}

		nImplicationPoints--
		if nImplicationPoints <= 0 {
			break
		}
	}

	// Add literal corresponding to the FUIP.
	s.tmpLearnts[0] = l.Opposite()

	return s.tmpLearnts, backtrackLevel
}

// record installs a learnt clause and enqueues its asserting literal. Must be
// called after backjumping to the clause's assertion level.
func (s *Solver) record(clause []Literal) {
	id, ok := s.newClause(clause, true)
	invariant(ok, "learnt clause %v conflicts at its assertion level", clause)
	if id != cidUndef {
		s.learnts = append(s.learnts, id)
		s.bumpClauseActivity(s.clauses[id])
	}
	s.enqueue(clause[0], id)
}

// search runs the CDCL loop: propagate, analyze conflicts and backjump, or
// decide. It returns True when a model is found, False on a root-level
// conflict, and Unknown when a restart was triggered or a stop condition was
// reached.
func (s *Solver) search(numLearnts int) LBool {
	if s.unsat {
		return False
	}

	s.TotalRestarts++

	for !s.shouldStop() {
		if s.verbose && s.TotalIterations%10000 == 0 {
			s.printSearchStats()
		}
		s.TotalIterations++

		if conflict := s.propagate(); conflict != cidUndef {
			s.TotalConflicts++
			s.restarts.OnConflict()

			if s.decisionLevel() == 0 {
				s.unsat = true
				return False
			}

			learntClause, backtrackLevel := s.analyze(conflict)
			s.cancelUntil(backtrackLevel)

			s.record(learntClause)

			s.decayClauseActivity()
			s.order.DecayScores()

			continue
		}

		// No Conflict
		// -----------

		if s.decisionLevel() == 0 {
			if !s.Simplify() {
				return False
			}
		}

		if len(s.learnts)-s.NumAssigns() >= numLearnts {
			s.reduceDB()
		}

		if s.NumAssigns() == s.NumVariables() { // solution found
			s.saveModel()
			s.cancelUntil(0)
			return True
		}

		if s.restarts.ShouldRestart() {
			s.cancelUntil(0)
			s.restarts.Restarted()
			return Unknown
		}

		l := s.order.NextDecision(s)
		s.assume(l)
	}

	return Unknown
}

func (s *Solver) undoOne() {
	l := s.trail[len(s.trail)-1]
	v := l.VarID()

	// The value at the moment of unassignment becomes the variable's saved
	// phase.
	s.order.Reinsert(v, s.assigns[PositiveLiteral(v)])
	s.assigns[l] = Unknown
	s.assigns[l.Opposite()] = Unknown
	s.reason[v] = cidUndef
	s.level[v] = -1

	s.trail = s.trail[:len(s.trail)-1]
}

func (s *Solver) assume(l Literal) bool {
	s.trailLim = append(s.trailLim, len(s.trail))
	return s.enqueue(l, cidUndef)
}

func (s *Solver) cancel() {
	c := len(s.trail) - s.trailLim[len(s.trailLim)-1]
	for ; c != 0; c-- {
		s.undoOne()
	}
	s.trailLim = s.trailLim[:len(s.trailLim)-1]
}

// cancelUntil pops every assignment made after the given level.
func (s *Solver) cancelUntil(level int) {
	for s.decisionLevel() > level {
		s.cancel()
	}
	if s.qhead > len(s.trail) {
		s.qhead = len(s.trail)
	}
}

func (s *Solver) saveModel() {
	model := make([]bool, s.NumVariables())
	for i := range model {
		lb := s.VarValue(i)
		invariant(lb != Unknown, "model saved with unassigned variable %d", i)
		model[i] = lb == True
	}
	s.Models = append(s.Models, model)
}

func (s *Solver) printSeparator() {
	fmt.Println("c ---------------------------------------------------------------------------")
}

func (s *Solver) printSearchHeader() {
	fmt.Println("c            time     iterations      conflicts       restarts        learnts")
}

func (s *Solver) printSearchStats() {
	fmt.Printf(
		"c %14.3fs %14d %14d %14d %14d\n",
		time.Since(s.startTime).Seconds(),
		s.TotalIterations,
		s.TotalConflicts,
		s.TotalRestarts,
		len(s.learnts))
}
