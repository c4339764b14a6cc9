// Package gen produces random CNF instances in DIMACS format, labeled with
// their satisfiability as decided by a reference solver (gini).
package gen

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/e1011/cdcl/internal/dimacs"
)

type Config struct {
	NumVars    int
	NumClauses int
	MinLen     int
	MaxLen     int
	NumFiles   int

	// OutDir is the directory the generated files are written to. It is
	// created if it does not exist.
	OutDir string

	// Seed makes the generated set reproducible. Each file is generated from
	// its own sub-seed so that the set does not depend on scheduling.
	Seed int64
}

func (cfg Config) validate() error {
	switch {
	case cfg.NumVars < 1:
		return errors.New("num_vars must be at least 1")
	case cfg.NumClauses < 0:
		return errors.New("num_clauses must be non-negative")
	case cfg.MinLen < 1:
		return errors.New("min_len must be at least 1")
	case cfg.MaxLen < cfg.MinLen:
		return errors.New("max_len must be at least min_len")
	case cfg.MaxLen > cfg.NumVars:
		return errors.New("max_len cannot exceed num_vars")
	case cfg.NumFiles < 1:
		return errors.New("num_files must be at least 1")
	}
	return nil
}

// Random returns a random CNF instance. Each clause samples its length
// uniformly in [minLen, maxLen] and its variables without replacement, each
// with a uniformly random sign. Clauses are normalized by construction: no
// duplicate literals and no tautologies.
func Random(rng *rand.Rand, numVars, numClauses, minLen, maxLen int) *dimacs.Instance {
	inst := &dimacs.Instance{
		Variables: numVars,
		Clauses:   make([][]int, 0, numClauses),
	}
	for i := 0; i < numClauses; i++ {
		length := minLen + rng.Intn(maxLen-minLen+1)
		vars := rng.Perm(numVars)[:length]
		clause := make([]int, length)
		for j, v := range vars {
			if rng.Intn(2) == 0 {
				clause[j] = v + 1
			} else {
				clause[j] = -(v + 1)
			}
		}
		inst.Clauses = append(inst.Clauses, clause)
	}
	return inst
}

// Satisfiable decides the instance with the reference solver.
func Satisfiable(inst *dimacs.Instance) bool {
	g := gini.New()
	for _, clause := range inst.Clauses {
		for _, l := range clause {
			g.Add(z.Dimacs2Lit(l))
		}
		g.Add(z.LitNull)
	}
	return g.Solve() == 1
}

// Generate writes cfg.NumFiles random instances to cfg.OutDir. Each file
// carries a leading comment recording the reference solver's verdict. Files
// are generated and written concurrently. The returned paths are in file
// index order.
func Generate(cfg Config) ([]string, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "error creating output directory %q", cfg.OutDir)
	}

	paths := make([]string, cfg.NumFiles)
	var group errgroup.Group
	for i := 0; i < cfg.NumFiles; i++ {
		i := i
		group.Go(func() error {
			rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
			inst := Random(rng, cfg.NumVars, cfg.NumClauses, cfg.MinLen, cfg.MaxLen)
			inst.Comments = []string{
				fmt.Sprintf("satisfiable: %v", Satisfiable(inst)),
			}

			path := filepath.Join(cfg.OutDir, fmt.Sprintf("rand_%04d.cnf", i))
			paths[i] = path
			file, err := os.Create(path)
			if err != nil {
				return errors.Wrapf(err, "error creating %q", path)
			}
			defer file.Close()

			return dimacs.Write(file, inst)
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return paths, nil
}
